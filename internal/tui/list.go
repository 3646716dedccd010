package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/d60-Lab/gin-blog/pkg/client"
	"github.com/d60-Lab/gin-blog/pkg/domain"
)

type postsLoadedMsg struct {
	seq   int
	posts []domain.Post
	err   error
}

func (m postsLoadedMsg) sequence() int { return m.seq }

type postDeletedMsg struct {
	seq int
	id  string
	err error
}

func (m postDeletedMsg) sequence() int { return m.seq }

type copyResultMsg struct {
	seq int
	err error
}

func (m copyResultMsg) sequence() int { return m.seq }

type loggedOutMsg struct {
	seq int
}

func (m loggedOutMsg) sequence() int { return m.seq }

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

type listModel struct {
	session Session
	api     PostsAPI
	seq     int

	posts   []domain.Post
	cursor  int
	loading bool
	err     error

	confirming bool
	deleting   string
	status     string
}

func newListModel(s Session, api PostsAPI, seq int) listModel {
	return listModel{session: s, api: api, seq: seq, loading: true}
}

func (m listModel) Init() tea.Cmd {
	return m.load()
}

func (m listModel) load() tea.Cmd {
	api, seq := m.api, m.seq
	return func() tea.Msg {
		posts, err := api.ListPosts(context.Background())
		return postsLoadedMsg{seq: seq, posts: posts, err: err}
	}
}

func (m listModel) Update(msg tea.Msg) (listModel, tea.Cmd) {
	switch msg := msg.(type) {
	case postsLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.posts = msg.posts
			if m.cursor >= len(m.posts) {
				m.cursor = max(len(m.posts)-1, 0)
			}
		}
		return m, nil

	case postDeletedMsg:
		m.deleting = ""
		if msg.err != nil {
			m.status = "Failed to delete post: " + client.DisplayMessage(msg.err, msg.err.Error())
			return m, nil
		}
		m.removeLocal(msg.id)
		m.status = "Post deleted"
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			m.status = "Copy failed: " + msg.err.Error()
		} else {
			m.status = "Copied to clipboard"
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m listModel) updateKeys(msg tea.KeyMsg) (listModel, tea.Cmd) {
	if m.confirming {
		m.confirming = false
		if msg.String() != "y" || m.cursor >= len(m.posts) {
			m.status = ""
			return m, nil
		}
		id := m.posts[m.cursor].ID
		m.deleting = id
		m.status = ""
		api, seq := m.api, m.seq
		return m, func() tea.Msg {
			err := api.DeletePost(context.Background(), id)
			return postDeletedMsg{seq: seq, id: id, err: err}
		}
	}

	m.status = ""
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.posts)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "n":
		return m, navigate(m.seq, viewForm, "")
	case "e", "enter":
		if m.cursor < len(m.posts) {
			return m, navigate(m.seq, viewForm, m.posts[m.cursor].ID)
		}
	case "d":
		if m.cursor < len(m.posts) && m.deleting == "" {
			m.confirming = true
		}
	case "r":
		m.loading = true
		m.err = nil
		return m, m.load()
	case "c":
		if m.cursor < len(m.posts) {
			text, seq := m.posts[m.cursor].Content, m.seq
			return m, func() tea.Msg {
				return copyResultMsg{seq: seq, err: writeClipboard(text)}
			}
		}
	case "L":
		s, seq := m.session, m.seq
		return m, func() tea.Msg {
			s.Logout(context.Background())
			return loggedOutMsg{seq: seq}
		}
	}
	return m, nil
}

func (m *listModel) removeLocal(id string) {
	for i, p := range m.posts {
		if p.ID == id {
			m.posts = append(m.posts[:i:i], m.posts[i+1:]...)
			break
		}
	}
	if m.cursor >= len(m.posts) {
		m.cursor = max(len(m.posts)-1, 0)
	}
}

func (m listModel) View() string {
	if m.loading {
		return dimStyle.Render("Loading posts...")
	}
	if m.err != nil {
		return errorStyle.Render("Failed to load posts") + "\n" + dimStyle.Render(client.DisplayMessage(m.err, m.err.Error()))
	}

	var b strings.Builder
	b.WriteString(selectedStyle.Render("My posts") + "\n\n")
	if len(m.posts) == 0 {
		b.WriteString(dimStyle.Render("No posts yet") + "\n")
	}
	for i, p := range m.posts {
		cursor := "  "
		style := normalStyle
		if i == m.cursor {
			cursor = accentStyle.Render("> ")
			style = selectedStyle
		}
		line := cursor + style.Render(truncStr(cleanLine(p.Title), 60)) + "  " + metaStyle.Render(formatTime(p.CreatedAt))
		if p.ID == m.deleting {
			line += "  " + dimStyle.Render("deleting...")
		}
		b.WriteString(line + "\n")
	}

	if m.cursor < len(m.posts) {
		b.WriteString("\n" + dimStyle.Render(truncStr(cleanLine(m.posts[m.cursor].Content), 200)) + "\n")
	}

	switch {
	case m.confirming:
		fmt.Fprintf(&b, "\n%s", warnStyle.Render(fmt.Sprintf("Delete %q? (y/N)", truncStr(m.posts[m.cursor].Title, 40))))
	case m.status != "":
		style := accentStyle
		if strings.HasPrefix(m.status, "Failed") || strings.HasPrefix(m.status, "Copy failed") {
			style = errorStyle
		}
		b.WriteString("\n" + style.Render(m.status))
	}
	return b.String()
}

func (m listModel) helpKeys() string {
	if m.confirming {
		return helpEntry("y", "confirm") + "  " + helpEntry("any", "cancel")
	}
	return helpEntry("j/k", "nav") + "  " + helpEntry("n", "new") + "  " + helpEntry("e", "edit") + "  " +
		helpEntry("d", "delete") + "  " + helpEntry("c", "copy") + "  " + helpEntry("r", "reload") + "  " +
		helpEntry("L", "logout") + "  " + helpEntry("q", "quit")
}
