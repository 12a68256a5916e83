package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"strava-thresholds/internal/service"
)

// SyncModel is the sync screen model
type SyncModel struct {
	syncService *service.SyncService
	syncing     bool
	progress    service.SyncProgress
	result      *service.SyncResult
	err         error
	done        bool
}

// NewSyncModel creates a new sync model
func NewSyncModel(ss *service.SyncService) SyncModel {
	return SyncModel{
		syncService: ss,
	}
}

// Init initializes the sync screen
func (m SyncModel) Init() tea.Cmd {
	return nil
}

// SyncDoneMsg is sent when sync finishes
type SyncDoneMsg struct {
	Result *service.SyncResult
	Err    error
}

type syncProgressMsg struct {
	progress service.SyncProgress
	updates  <-chan service.SyncProgress
	done     <-chan SyncDoneMsg
}

// Update handles messages
func (m SyncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case syncProgressMsg:
		m.progress = msg.progress
		return m, waitForSync(msg.updates, msg.done)

	case SyncDoneMsg:
		m.syncing = false
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, func() tea.Msg { return SyncCompleteMsg{} }

	case tea.KeyMsg:
		if !m.syncing {
			switch msg.String() {
			case "enter", "s":
				m.syncing = true
				m.done = false
				m.err = nil
				m.result = nil
				m.progress = service.SyncProgress{}
				return m, m.startSync()
			}
		}
	}
	return m, nil
}

// startSync runs the sync in the background and relays its progress
func (m SyncModel) startSync() tea.Cmd {
	updates := make(chan service.SyncProgress)
	done := make(chan SyncDoneMsg, 1)

	go func() {
		result, err := m.syncService.SyncAll(context.Background(), updates)
		done <- SyncDoneMsg{Result: result, Err: err}
	}()

	return waitForSync(updates, done)
}

// waitForSync delivers the next progress update, or the final result once
// the progress channel is closed
func waitForSync(updates <-chan service.SyncProgress, done <-chan SyncDoneMsg) tea.Cmd {
	return func() tea.Msg {
		if p, ok := <-updates; ok {
			return syncProgressMsg{progress: p, updates: updates, done: done}
		}
		return <-done
	}
}

// View renders the sync screen
func (m SyncModel) View() string {
	var sections []string

	title := cardTitleStyle.Render("Strava Sync")
	sections = append(sections, title)

	if m.err != nil {
		sections = append(sections, errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err)))
		sections = append(sections, "\n"+statusStyle.Render("  Press 's' or Enter to retry"))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	if m.done && !m.syncing {
		sections = append(sections, successStyle.Render("\n  Sync complete!"))
		sections = append(sections, m.renderSummary())
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	if m.syncing {
		sections = append(sections, m.renderProgress())
	} else {
		sections = append(sections, m.renderStartPrompt())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m SyncModel) renderStartPrompt() string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, "  This will sync your Strava activities:")
	lines = append(lines, "")
	lines = append(lines, "  1. Fetch new runs and rides recorded with heart rate")
	lines = append(lines, "  2. Download heart rate, power and speed streams")
	lines = append(lines, "  3. Re-estimate thresholds")
	lines = append(lines, "")

	short, daily := m.syncService.RateLimitStatus()
	lines = append(lines, statusStyle.Render(fmt.Sprintf("  API limits: %d/100 (15min), %d/1000 (daily)", short, daily)))
	lines = append(lines, "")
	lines = append(lines, statusStyle.Render("  Press 's' or Enter to start sync"))

	return strings.Join(lines, "\n")
}

func (m SyncModel) renderProgress() string {
	var lines []string
	p := m.progress

	lines = append(lines, "")
	lines = append(lines, "  Syncing with Strava...")
	lines = append(lines, "")

	switch p.Phase {
	case service.PhaseStreams:
		lines = append(lines, fmt.Sprintf("  Downloading streams %d/%d", p.Completed, p.Total))
		if p.Total > 0 {
			lines = append(lines, "  "+RenderProgressBar(float64(p.Completed)/float64(p.Total), 40))
		}
		if p.CurrentActivity != "" {
			lines = append(lines, statusStyle.Render("  "+p.CurrentActivity))
		}
	default:
		lines = append(lines, fmt.Sprintf("  Fetching activities (%s so far)", humanize.Comma(int64(p.Completed))))
	}

	return strings.Join(lines, "\n")
}

func (m SyncModel) renderSummary() string {
	var lines []string

	if m.result == nil {
		return ""
	}

	r := m.result
	lines = append(lines, "")

	if r.ActivitiesStored > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %d runs and rides with heart rate stored", r.ActivitiesStored)))
	} else {
		lines = append(lines, statusStyle.Render("  No new activities"))
	}

	if r.StreamsFetched > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %d streams downloaded", r.StreamsFetched)))
	}

	if len(r.Errors) > 0 {
		lines = append(lines, "")
		lines = append(lines, warningStyle.Render(fmt.Sprintf("  %d errors occurred", len(r.Errors))))
		for _, err := range r.Errors[:min(3, len(r.Errors))] {
			lines = append(lines, statusStyle.Render("  "+err.Error()))
		}
	}

	return strings.Join(lines, "\n")
}
