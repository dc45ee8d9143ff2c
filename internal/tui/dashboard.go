package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/xinsaaa/hailuo/sdk/gateway"
)

// dashboardModel renders service statistics and the security overview.
type dashboardModel struct {
	client   *gateway.Client
	viewport viewport.Model
	content  string
	copied   bool
	err      error
	ready    bool
}

type dashboardDataMsg struct {
	stats     map[string]any
	bannedIPs map[string]any
	err       error
}

func newDashboardModel(client *gateway.Client) dashboardModel {
	return dashboardModel{client: client}
}

// fetch loads stats and banned IPs concurrently.
func (m dashboardModel) fetch() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var stats, banned map[string]any
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		stats, err = m.client.AdminStats(ctx)
		return err
	})
	group.Go(func() error {
		var err error
		banned, err = m.client.BannedIPs(ctx)
		return err
	})
	err := group.Wait()
	return dashboardDataMsg{stats: stats, bannedIPs: banned, err: err}
}

func (m dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		if msg.err != nil {
			m.err = msg.err
			m.content = errorStyle.Render("⚠ " + msg.err.Error())
		} else {
			m.err = nil
			m.content = m.render(msg.stats, msg.bannedIPs)
		}
		m.viewport.SetContent(m.content)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return m, m.fetch
		case "c":
			if err := clipboard.WriteAll(m.content); err == nil {
				m.copied = true
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *dashboardModel) setSize(w, h int) {
	if !m.ready {
		m.viewport = viewport.New(w, h)
		m.viewport.SetContent(m.content)
		m.ready = true
		return
	}
	m.viewport.Width = w
	m.viewport.Height = h
}

func (m dashboardModel) view() string {
	if !m.ready {
		return "loading..."
	}
	return m.viewport.View()
}

func (m dashboardModel) render(stats, banned map[string]any) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Service Overview"))
	sb.WriteString("\n")
	sb.WriteString(renderKV(stats))
	sb.WriteString("\n")
	sb.WriteString(titleStyle.Render("Banned IPs"))
	sb.WriteString("\n")
	if ips, ok := banned["banned_ips"].([]any); ok && len(ips) > 0 {
		for _, ip := range ips {
			sb.WriteString(errorStyle.Render(fmt.Sprintf("  %v", ip)))
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString(successStyle.Render("  none"))
		sb.WriteString("\n")
	}
	if m.copied {
		sb.WriteString("\n")
		sb.WriteString(helpStyle.Render("copied to clipboard"))
	}
	return sectionStyle.Render(sb.String())
}

// renderKV prints a flat map as aligned label/value rows, nested values as
// compact JSON.
func renderKV(data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		value := data[k]
		text := fmt.Sprintf("%v", value)
		switch value.(type) {
		case map[string]any, []any:
			if raw, err := json.Marshal(value); err == nil {
				text = string(raw)
			}
		}
		sb.WriteString(labelStyle.Render(k))
		sb.WriteString(" ")
		sb.WriteString(valueStyle.Render(text))
		sb.WriteString("\n")
	}
	return sb.String()
}
