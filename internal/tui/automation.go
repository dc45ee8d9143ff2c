package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/xinsaaa/hailuo/sdk/gateway"
)

const automationLogLimit = 50

// automationModel controls the fulfillment automation and tails its logs.
type automationModel struct {
	client   *gateway.Client
	viewport viewport.Model
	content  string
	notice   string
	ready    bool
}

type automationDataMsg struct {
	status map[string]any
	logs   []string
	err    error
}

type automationToggleMsg struct {
	action string
	err    error
}

func newAutomationModel(client *gateway.Client) automationModel {
	return automationModel{client: client}
}

// fetch loads status and recent logs concurrently.
func (m automationModel) fetch() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var status map[string]any
	var logs []string
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		status, err = m.client.AutomationStatus(ctx)
		return err
	})
	group.Go(func() error {
		var err error
		logs, err = m.client.AutomationLogs(ctx, automationLogLimit)
		return err
	})
	err := group.Wait()
	return automationDataMsg{status: status, logs: logs, err: err}
}

func (m automationModel) toggle(start bool) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if start {
			return automationToggleMsg{action: "started", err: client.StartAutomation(ctx)}
		}
		return automationToggleMsg{action: "stopped", err: client.StopAutomation(ctx)}
	}
}

func (m automationModel) update(msg tea.Msg) (automationModel, tea.Cmd) {
	switch msg := msg.(type) {
	case automationDataMsg:
		if msg.err != nil {
			m.content = errorStyle.Render("⚠ " + msg.err.Error())
		} else {
			m.content = m.render(msg.status, msg.logs)
		}
		m.viewport.SetContent(m.content)
		return m, nil

	case automationToggleMsg:
		if msg.err != nil {
			m.notice = errorStyle.Render("⚠ " + msg.err.Error())
		} else {
			m.notice = successStyle.Render("automation " + msg.action)
		}
		return m, m.fetch

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return m, m.fetch
		case "s":
			return m, m.toggle(true)
		case "x":
			return m, m.toggle(false)
		}
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *automationModel) setSize(w, h int) {
	if !m.ready {
		m.viewport = viewport.New(w, h)
		m.viewport.SetContent(m.content)
		m.ready = true
		return
	}
	m.viewport.Width = w
	m.viewport.Height = h
}

func (m automationModel) view() string {
	if !m.ready {
		return "loading..."
	}
	return m.viewport.View()
}

func (m automationModel) render(status map[string]any, logs []string) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Automation"))
	sb.WriteString("\n")
	sb.WriteString(renderKV(status))
	if m.notice != "" {
		sb.WriteString("\n")
		sb.WriteString(m.notice)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(titleStyle.Render("Recent Logs"))
	sb.WriteString("\n")
	if len(logs) == 0 {
		sb.WriteString(helpStyle.Render("  no log lines"))
		sb.WriteString("\n")
	}
	for _, line := range logs {
		sb.WriteString(valueStyle.Render("  " + line))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("s: start · x: stop · r: refresh"))
	return sectionStyle.Render(sb.String())
}
