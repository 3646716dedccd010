package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/d60-Lab/gin-blog/pkg/domain"
)

// PostsAPI is the part of the API client the post views use.
type PostsAPI interface {
	ListPosts(ctx context.Context) ([]domain.Post, error)
	GetPost(ctx context.Context, id string) (*domain.Post, error)
	CreatePost(ctx context.Context, in domain.PostInput) (*domain.Post, error)
	UpdatePost(ctx context.Context, id string, in domain.PostInput) (*domain.Post, error)
	DeletePost(ctx context.Context, id string) error
}

// Session is the client session the views read and drive.
type Session interface {
	Initialize(ctx context.Context)
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, req domain.RegisterRequest) error
	Logout(ctx context.Context)
	User() *domain.User
	Authenticated() bool
	Expired() <-chan struct{}
}

const sessionExpiredNotice = "Session expired, please log in again"

type view int

const (
	viewLoading view = iota
	viewLogin
	viewRegister
	viewList
	viewForm
)

// sessionReadyMsg is sent once Initialize has settled.
type sessionReadyMsg struct{}

// sessionExpiredMsg is sent when the server rejects the session.
type sessionExpiredMsg struct{}

// sequenced messages belong to the view instance that issued them.
type sequenced interface {
	sequence() int
}

// navigateMsg asks the app to switch views. postID selects edit mode for viewForm.
type navigateMsg struct {
	seq    int
	to     view
	postID string
}

func (m navigateMsg) sequence() int { return m.seq }

func navigate(seq int, to view, postID string) tea.Cmd {
	return func() tea.Msg { return navigateMsg{seq: seq, to: to, postID: postID} }
}

// App is the root Bubbletea model.
type App struct {
	session Session
	api     PostsAPI

	view   view
	seq    int
	notice string

	login    loginModel
	register registerModel
	list     listModel
	form     formModel

	width  int
	height int
}

// NewApp creates the TUI. The session is initialized by Init.
func NewApp(s Session, api PostsAPI) App {
	return App{session: s, api: api, view: viewLoading}
}

func (a App) Init() tea.Cmd {
	s := a.session
	return tea.Batch(
		func() tea.Msg {
			s.Initialize(context.Background())
			return sessionReadyMsg{}
		},
		a.waitExpired(),
	)
}

func (a App) waitExpired() tea.Cmd {
	ch := a.session.Expired()
	return func() tea.Msg {
		<-ch
		return sessionExpiredMsg{}
	}
}

// open replaces the active view. Results still in flight for the old view are
// dropped when they arrive because their sequence no longer matches.
func (a App) open(v view, postID string) (App, tea.Cmd) {
	a.seq++
	a.view = v
	switch v {
	case viewLogin:
		a.login = newLoginModel(a.session, a.seq)
		return a, nil
	case viewRegister:
		a.register = newRegisterModel(a.session, a.seq)
		return a, nil
	case viewList:
		a.list = newListModel(a.session, a.api, a.seq)
		return a, a.list.Init()
	case viewForm:
		a.form = newFormModel(a.api, a.seq, postID)
		return a, a.form.Init()
	}
	return a, nil
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if s, ok := msg.(sequenced); ok && s.sequence() != a.seq {
		return a, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case sessionReadyMsg:
		if a.session.Authenticated() {
			return a.open(viewList, "")
		}
		return a.open(viewLogin, "")

	case sessionExpiredMsg:
		a.notice = sessionExpiredNotice
		var cmd tea.Cmd
		a, cmd = a.open(viewLogin, "")
		return a, tea.Batch(cmd, a.waitExpired())

	case navigateMsg:
		if msg.to == viewList || msg.to == viewForm {
			a.notice = ""
		}
		return a.open(msg.to, msg.postID)

	case authDoneMsg:
		if msg.err == nil {
			a.notice = ""
			return a.open(viewList, "")
		}

	case loggedOutMsg:
		return a.open(viewLogin, "")

	case postSavedMsg:
		if msg.err == nil {
			return a.open(viewList, "")
		}

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if msg.String() == "q" && a.view == viewList && !a.list.confirming {
			return a, tea.Quit
		}
	}

	var cmd tea.Cmd
	switch a.view {
	case viewLogin:
		a.login, cmd = a.login.Update(msg)
	case viewRegister:
		a.register, cmd = a.register.Update(msg)
	case viewList:
		a.list, cmd = a.list.Update(msg)
	case viewForm:
		a.form, cmd = a.form.Update(msg)
	}
	return a, cmd
}

func (a App) View() string {
	var body, help string
	switch a.view {
	case viewLoading:
		return dimStyle.Render("Loading...")
	case viewLogin:
		body = a.login.View()
		help = helpEntry("tab", "next") + "  " + helpEntry("enter", "submit") + "  " + helpEntry("ctrl+r", "register") + "  " + helpEntry("ctrl+c", "quit")
	case viewRegister:
		body = a.register.View()
		help = helpEntry("tab", "next") + "  " + helpEntry("enter", "submit") + "  " + helpEntry("esc", "login") + "  " + helpEntry("ctrl+c", "quit")
	case viewList:
		body = a.list.View()
		help = a.list.helpKeys()
	case viewForm:
		body = a.form.View()
		help = helpEntry("tab", "next") + "  " + helpEntry("ctrl+s", "save") + "  " + helpEntry("esc", "cancel")
	}

	header := titleStyle.Render("gin-blog")
	if u := a.session.User(); u != nil && (a.view == viewList || a.view == viewForm) {
		header += "  " + metaStyle.Render(u.Name+" <"+u.Email+">")
	}
	if a.notice != "" {
		header += "\n" + noticeStyle.Render(a.notice)
	}

	// Chrome: header + blank + help
	chrome := strings.Count(header, "\n") + 3
	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")
	return fmt.Sprintf("%s\n\n%s\n%s", header, body, help)
}
