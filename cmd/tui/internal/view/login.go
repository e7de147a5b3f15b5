package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/bonsai/internal/user"
)

// LoggedInMsg carries the authenticated user.
type LoggedInMsg struct {
	User *user.User
}

type loginFailedMsg struct {
	err error
}

type LoginModel struct {
	CommonModel
	users *user.Service

	form       *huh.Form
	email      string
	password   string
	submitting bool
	err        error
}

func NewLoginModel(users *user.Service) LoginModel {
	m := LoginModel{users: users}
	m.form = m.buildForm()

	return m
}

func (m *LoginModel) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("email").
				Title("Email").
				Value(&m.email).
				Validate(func(s string) error {
					if !strings.Contains(s, "@") {
						return fmt.Errorf("enter an email address")
					}
					return nil
				}),
			huh.NewInput().
				Key("password").
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.password),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m LoginModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if failed, ok := msg.(loginFailedMsg); ok {
		m.err = failed.err
		m.password = ""
		m.submitting = false
		m.form = m.buildForm()

		return m, m.form.Init()
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted || m.submitting {
		return m, cmd
	}

	m.submitting = true

	return m, m.loginCmd(m.email, m.password)
}

func (m LoginModel) loginCmd(email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		u, err := m.users.Authenticate(ctx, email, password)
		if err != nil {
			return loginFailedMsg{err: err}
		}

		return LoggedInMsg{User: u}
	}
}

func (m LoginModel) View() string {
	s := titleText.Render("Bonsai") + "\n\nSign in to see your footprint.\n\n" + m.form.View()

	if m.err != nil {
		s += "\n" + errorText.Render(m.err.Error())
	}

	return lipgloss.NewStyle().Padding(2).Render(s)
}
