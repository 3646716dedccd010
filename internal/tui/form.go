package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/d60-Lab/gin-blog/pkg/client"
	"github.com/d60-Lab/gin-blog/pkg/domain"
)

type postLoadedMsg struct {
	seq  int
	post *domain.Post
	err  error
}

func (m postLoadedMsg) sequence() int { return m.seq }

type postSavedMsg struct {
	seq  int
	post *domain.Post
	err  error
}

func (m postSavedMsg) sequence() int { return m.seq }

const (
	formTitle = iota
	formContent
	numFormFields
)

type formState int

const (
	formIdle formState = iota
	formLoading
	formLoadFailed
	formSubmitting
)

// formModel creates a post, or edits one when postID is set.
type formModel struct {
	api    PostsAPI
	seq    int
	postID string

	fields  [numFormFields]string
	focus   int
	state   formState
	err     string
	loadErr error
}

func newFormModel(api PostsAPI, seq int, postID string) formModel {
	m := formModel{api: api, seq: seq, postID: postID}
	if postID != "" {
		m.state = formLoading
	}
	return m
}

func (m formModel) Init() tea.Cmd {
	if m.postID == "" {
		return nil
	}
	api, seq, id := m.api, m.seq, m.postID
	return func() tea.Msg {
		post, err := api.GetPost(context.Background(), id)
		return postLoadedMsg{seq: seq, post: post, err: err}
	}
}

func (m formModel) editing() bool { return m.postID != "" }

func (m formModel) Update(msg tea.Msg) (formModel, tea.Cmd) {
	switch msg := msg.(type) {
	case postLoadedMsg:
		if msg.err != nil {
			m.state = formLoadFailed
			m.loadErr = msg.err
			return m, nil
		}
		m.state = formIdle
		m.fields[formTitle] = msg.post.Title
		m.fields[formContent] = msg.post.Content
		return m, nil

	case postSavedMsg:
		// success is handled by the app, which switches back to the list
		m.state = formIdle
		if msg.err != nil {
			m.err = client.DisplayMessage(msg.err, "Failed to save post")
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "esc" {
			return m, navigate(m.seq, viewList, "")
		}
		if m.state != formIdle {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+s":
			return m.submit()
		case "tab", "shift+tab":
			m.focus = (m.focus + 1) % numFormFields
		case "enter":
			if m.focus == formTitle {
				m.focus = formContent
			} else {
				m.fields[formContent] += "\n"
			}
		default:
			m.fields[m.focus] = editRune(m.fields[m.focus], msg.String())
		}
	}
	return m, nil
}

func (m formModel) submit() (formModel, tea.Cmd) {
	in := domain.PostInput{Title: m.fields[formTitle], Content: m.fields[formContent]}
	if fe := in.Validate(); fe != nil {
		m.err = fe.First()
		return m, nil
	}
	m.state = formSubmitting
	m.err = ""

	api, seq, id := m.api, m.seq, m.postID
	return m, func() tea.Msg {
		var (
			post *domain.Post
			err  error
		)
		if id == "" {
			post, err = api.CreatePost(context.Background(), in)
		} else {
			post, err = api.UpdatePost(context.Background(), id, in)
		}
		return postSavedMsg{seq: seq, post: post, err: err}
	}
}

func (m formModel) View() string {
	var b strings.Builder
	heading := "New post"
	if m.editing() {
		heading = "Edit post"
	}
	b.WriteString(selectedStyle.Render(heading) + "\n\n")

	switch m.state {
	case formLoading:
		b.WriteString(dimStyle.Render("Loading post..."))
		return b.String()
	case formLoadFailed:
		b.WriteString(errorStyle.Render(client.DisplayMessage(m.loadErr, "Failed to load post")))
		return b.String()
	}

	b.WriteString(renderField("title", m.fields[formTitle], m.focus == formTitle))
	content := m.fields[formContent]
	if m.focus == formContent {
		content += "█"
	}
	cursor, style := " ", metaStyle
	if m.focus == formContent {
		cursor, style = ">", selectedStyle
	}
	b.WriteString(cursor + " " + style.Render("content") + ":\n")
	for _, line := range strings.Split(content, "\n") {
		b.WriteString("    " + line + "\n")
	}

	b.WriteString("\n")
	switch {
	case m.state == formSubmitting:
		b.WriteString(dimStyle.Render("saving..."))
	case m.err != "":
		b.WriteString(errorStyle.Render(m.err))
	}
	return b.String()
}
