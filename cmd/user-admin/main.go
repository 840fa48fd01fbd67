package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"user-server/client"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const defaultServerURL = "http://localhost:3536"

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true).
			PaddingLeft(2)

	normalStyle = lipgloss.NewStyle().
			PaddingLeft(4)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)
)

// userAPI is the part of client.Client the console needs.
type userAPI interface {
	ListUsers(ctx context.Context) ([]client.User, error)
	CreateUser(ctx context.Context, email, username, password string) (*client.User, error)
	DeleteUser(ctx context.Context, id uint) (string, error)
}

type step int

const (
	stepLoading step = iota
	stepBrowsing
	stepEnteringEmail
	stepEnteringUsername
	stepEnteringPassword
	stepSaving
)

type model struct {
	api          userAPI
	step         step
	users        []client.User
	cursor       int
	email        string
	username     string
	currentInput string
	message      string
	quitting     bool
}

type usersLoadedMsg []client.User
type userCreatedMsg struct{ user *client.User }
type userDeletedMsg struct{ message string }
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

func initialModel(api userAPI) model {
	return model{api: api, step: stepLoading}
}

func (m model) Init() tea.Cmd {
	return loadUsers(m.api)
}

func withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

func loadUsers(api userAPI) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		users, err := api.ListUsers(ctx)
		if err != nil {
			return errMsg{err}
		}
		return usersLoadedMsg(users)
	}
}

func createUser(api userAPI, email, username, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		u, err := api.CreateUser(ctx, email, username, password)
		if err != nil {
			return errMsg{err}
		}
		return userCreatedMsg{user: u}
	}
}

func deleteUser(api userAPI, id uint) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		msg, err := api.DeleteUser(ctx, id)
		if err != nil {
			return errMsg{err}
		}
		return userDeletedMsg{message: msg}
	}
}

func (m model) entering() bool {
	return m.step == stepEnteringEmail || m.step == stepEnteringUsername || m.step == stepEnteringPassword
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.entering() {
			return m.updateInput(msg)
		}

		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.users)-1 {
				m.cursor++
			}

		case "r":
			m.step = stepLoading
			m.message = ""
			return m, loadUsers(m.api)

		case "n":
			if m.step == stepBrowsing {
				m.step = stepEnteringEmail
				m.currentInput = ""
				m.message = ""
			}

		case "d":
			if m.step == stepBrowsing && len(m.users) > 0 {
				m.step = stepSaving
				return m, deleteUser(m.api, m.users[m.cursor].ID)
			}
		}

	case usersLoadedMsg:
		m.users = []client.User(msg)
		m.step = stepBrowsing
		if m.cursor >= len(m.users) {
			m.cursor = len(m.users) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}

	case userCreatedMsg:
		m.message = successStyle.Render("✓ Created " + msg.user.Username)
		m.step = stepLoading
		return m, loadUsers(m.api)

	case userDeletedMsg:
		m.message = successStyle.Render("✓ " + msg.message)
		m.step = stepLoading
		return m, loadUsers(m.api)

	case errMsg:
		m.message = errorStyle.Render("✗ " + msg.err.Error())
		m.step = stepBrowsing
	}

	return m, nil
}

func (m model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "esc":
		m.step = stepBrowsing
		m.currentInput = ""

	case "backspace":
		if m.currentInput != "" {
			_, size := utf8.DecodeLastRuneInString(m.currentInput)
			m.currentInput = m.currentInput[:len(m.currentInput)-size]
		}

	case "enter":
		if m.currentInput == "" {
			return m, nil
		}
		switch m.step {
		case stepEnteringEmail:
			m.email = m.currentInput
			m.step = stepEnteringUsername
		case stepEnteringUsername:
			m.username = m.currentInput
			m.step = stepEnteringPassword
		case stepEnteringPassword:
			password := m.currentInput
			m.currentInput = ""
			m.step = stepSaving
			return m, createUser(m.api, m.email, m.username, password)
		}
		m.currentInput = ""

	default:
		if msg.Type == tea.KeyRunes {
			m.currentInput += string(msg.Runes)
		}
	}
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("User Admin") + "\n\n")

	switch m.step {
	case stepLoading:
		s.WriteString("Loading users...\n")

	case stepBrowsing:
		if len(m.users) == 0 {
			s.WriteString(normalStyle.Render("No users yet") + "\n")
		}
		for i, u := range m.users {
			cursor := " "
			style := normalStyle
			if m.cursor == i {
				cursor = ">"
				style = selectedStyle
			}
			s.WriteString(fmt.Sprintf("%s %s\n", cursor, style.Render(fmt.Sprintf("#%d %s <%s>", u.ID, u.Username, u.Email))))
		}
		if m.message != "" {
			s.WriteString("\n" + m.message + "\n")
		}
		s.WriteString("\nj/k move, n new, d delete, r refresh, q quit\n")

	case stepEnteringEmail:
		s.WriteString(promptStyle.Render("Email:") + "\n")
		s.WriteString(inputStyle.Render("> " + m.currentInput))
		s.WriteString("\n\nEnter to continue, Esc to cancel\n")

	case stepEnteringUsername:
		s.WriteString(promptStyle.Render("Username:") + "\n")
		s.WriteString(inputStyle.Render("> " + m.currentInput))
		s.WriteString("\n\nEnter to continue, Esc to cancel\n")

	case stepEnteringPassword:
		s.WriteString(promptStyle.Render("Password:") + "\n")
		s.WriteString(inputStyle.Render("> " + strings.Repeat("•", utf8.RuneCountInString(m.currentInput))))
		s.WriteString("\n\nEnter to create, Esc to cancel\n")

	case stepSaving:
		s.WriteString("Saving...\n")
	}

	return s.String()
}

func main() {
	url := os.Getenv("USER_SERVER_URL")
	if url == "" {
		url = defaultServerURL
	}

	p := tea.NewProgram(initialModel(client.New(url)))
	if _, err := p.Run(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
