package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/xinsaaa/hailuo/sdk/credential"
	"github.com/xinsaaa/hailuo/sdk/gateway"
)

// Tab identifiers
const (
	tabDashboard = iota
	tabAutomation
)

var tabNames = []string{"Dashboard", "Automation"}

// requestTimeout bounds every API call made from the console.
const requestTimeout = 15 * time.Second

// App is the root bubbletea model. It starts on a login form when no admin
// credential is stored and switches to the tab view once authenticated.
type App struct {
	client *gateway.Client
	creds  credential.Store

	authenticated bool
	userInput     textinput.Model
	passInput     textinput.Model
	focusPass     bool
	authError     string

	activeTab  int
	dashboard  dashboardModel
	automation automationModel

	width  int
	height int
	ready  bool
}

type adminLoginMsg struct {
	token string
	err   error
}

// NewApp creates the console model. An admin credential already present in
// the store skips the login form.
func NewApp(client *gateway.Client, creds credential.Store) App {
	user := textinput.New()
	user.Placeholder = "username"
	user.CharLimit = 128
	user.Focus()

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.CharLimit = 128
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '*'

	return App{
		client:        client,
		creds:         creds,
		authenticated: creds.Token(credential.ScopeAdmin) != "",
		userInput:     user,
		passInput:     pass,
		dashboard:     newDashboardModel(client),
		automation:    newAutomationModel(client),
	}
}

func (a App) Init() tea.Cmd {
	if !a.authenticated {
		return textinput.Blink
	}
	return tea.Batch(a.dashboard.fetch, a.automation.fetch)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		contentHeight := a.height - 4
		a.dashboard.setSize(a.width, contentHeight)
		a.automation.setSize(a.width, contentHeight)
		return a, nil

	case adminLoginMsg:
		if msg.err != nil {
			a.authError = msg.err.Error()
			return a, nil
		}
		if err := a.creds.SetToken(credential.ScopeAdmin, msg.token); err != nil {
			a.authError = err.Error()
			return a, nil
		}
		a.authenticated = true
		a.authError = ""
		return a, tea.Batch(a.dashboard.fetch, a.automation.fetch)

	case tea.KeyMsg:
		if !a.authenticated {
			return a.updateLogin(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return a, tea.Quit
		case "tab":
			a.activeTab = (a.activeTab + 1) % len(tabNames)
			return a, nil
		}
	}

	var cmd tea.Cmd
	switch a.activeTab {
	case tabDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case tabAutomation:
		a.automation, cmd = a.automation.update(msg)
	}
	return a, cmd
}

func (a App) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return a, tea.Quit
	case "tab":
		a.focusPass = !a.focusPass
		if a.focusPass {
			a.userInput.Blur()
			return a, a.passInput.Focus()
		}
		a.passInput.Blur()
		return a, a.userInput.Focus()
	case "enter":
		username := strings.TrimSpace(a.userInput.Value())
		password := a.passInput.Value()
		if username == "" || password == "" {
			a.authError = "username and password are required"
			return a, nil
		}
		client := a.client
		return a, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			token, err := client.AdminLogin(ctx, username, password)
			if err != nil {
				return adminLoginMsg{err: err}
			}
			return adminLoginMsg{token: token.AccessToken}
		}
	}
	var cmd tea.Cmd
	if a.focusPass {
		a.passInput, cmd = a.passInput.Update(msg)
	} else {
		a.userInput, cmd = a.userInput.Update(msg)
	}
	return a, cmd
}

func (a App) View() string {
	if !a.ready {
		return "loading..."
	}
	if !a.authenticated {
		return a.loginView()
	}

	var tabs []string
	for i, name := range tabNames {
		if i == a.activeTab {
			tabs = append(tabs, tabActiveStyle.Render(name))
		} else {
			tabs = append(tabs, tabInactiveStyle.Render(name))
		}
	}
	bar := tabBarStyle.Width(a.width).Render(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))

	var content string
	switch a.activeTab {
	case tabDashboard:
		content = a.dashboard.view()
	case tabAutomation:
		content = a.automation.view()
	}

	status := statusBarStyle.Width(a.width).Render("tab: switch · r: refresh · c: copy · q: quit")
	return lipgloss.JoinVertical(lipgloss.Left, bar, content, status)
}

func (a App) loginView() string {
	form := strings.Join([]string{
		titleStyle.Render("Hailuo Admin Console"),
		labelStyle.Render("Username") + " " + a.userInput.View(),
		labelStyle.Render("Password") + " " + a.passInput.View(),
		"",
		helpStyle.Render("enter: sign in · tab: switch field · esc: quit"),
	}, "\n")
	if a.authError != "" {
		form += "\n\n" + errorStyle.Render("⚠ "+a.authError)
	}
	return sectionStyle.Render(form)
}

// Run starts the console and blocks until it exits.
func Run(client *gateway.Client, creds credential.Store) error {
	_, err := tea.NewProgram(NewApp(client, creds), tea.WithAltScreen()).Run()
	return err
}
