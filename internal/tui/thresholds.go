package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"

	"strava-thresholds/internal/service"
	"strava-thresholds/internal/store"
	"strava-thresholds/internal/threshold"
)

// ThresholdsModel shows the current estimates and test protocol
type ThresholdsModel struct {
	thresholds *service.ThresholdService
	sport      threshold.Sport
	data       *service.ThresholdsData
	viewport   viewport.Model
	loading    bool
	err        error
	width      int
	height     int
	ready      bool
	now        func() time.Time
}

// NewThresholdsModel creates the thresholds screen for sport
func NewThresholdsModel(ts *service.ThresholdService, sport threshold.Sport, width, height int) ThresholdsModel {
	m := ThresholdsModel{
		thresholds: ts,
		sport:      sport,
		loading:    true,
		width:      width,
		height:     height,
		now:        time.Now,
	}

	if width > 0 && height > 0 {
		m.viewport = viewport.New(width, height-6)
		m.ready = true
	}

	return m
}

// Init shows the latest stored plan, computing one if none exists
func (m ThresholdsModel) Init() tea.Cmd {
	return m.loadSnapshot
}

type thresholdsLoadedMsg struct {
	data *service.ThresholdsData
	err  error
}

func (m ThresholdsModel) loadSnapshot() tea.Msg {
	ctx := context.Background()
	data, err := m.thresholds.LastSnapshot(ctx, m.sport)
	if errors.Is(err, store.ErrNoSnapshot) {
		data, err = m.thresholds.Compute(ctx, m.sport)
	}
	return thresholdsLoadedMsg{data: data, err: err}
}

func (m ThresholdsModel) compute() tea.Msg {
	data, err := m.thresholds.Compute(context.Background(), m.sport)
	return thresholdsLoadedMsg{data: data, err: err}
}

// Update handles messages
func (m ThresholdsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case thresholdsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.data = msg.data
		if m.ready {
			m.viewport.SetContent(m.renderContent())
			m.viewport.GotoTop()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-6)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 6
		}
		if m.data != nil {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.compute
		case "t":
			m.sport = toggleSport(m.sport)
			m.loading = true
			return m, m.loadSnapshot
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func toggleSport(s threshold.Sport) threshold.Sport {
	if s == threshold.SportBike {
		return threshold.SportRun
	}
	return threshold.SportBike
}

// View renders the thresholds screen
func (m ThresholdsModel) View() string {
	if m.loading {
		return fmt.Sprintf("\n  Estimating %s thresholds...", m.sport)
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	footer := statusStyle.Render("  j/k or arrows: scroll  r: recompute  t: switch run/bike")

	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer)
}

func (m ThresholdsModel) renderContent() string {
	if m.data == nil {
		return ""
	}
	d := m.data

	var sections []string
	sections = append(sections, "")
	sections = append(sections, cardTitleStyle.Render(fmt.Sprintf("Threshold Estimates (%s)", d.Sport)))
	sections = append(sections, mutedStyle.Render(fmt.Sprintf("  %d activities, computed %s",
		d.Activities, humanize.RelTime(d.ComputedAt, m.now(), "ago", "from now"))))
	sections = append(sections, "")

	for _, e := range []service.EstimateView{d.HRMax, d.LT1, d.LT2} {
		sections = append(sections, renderEstimate(e))
	}
	sections = append(sections, "")

	if !d.HasProtocol() {
		sections = append(sections, renderSectionHeader("Test Protocol"))
		sections = append(sections, mutedStyle.Render("  Not enough data for a protocol yet."))
		sections = append(sections, mutedStyle.Render("  HRmax, LT1 and LT2 all need an estimate; sync or import more sessions."))
	} else {
		sections = append(sections, m.renderProtocol())
	}

	sections = append(sections, m.renderEvidence())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderEstimate renders one estimate line with its range and confidence
func renderEstimate(e service.EstimateView) string {
	line := RenderMetric(e.Label, e.Value)
	if e.Range != "" {
		line += mutedStyle.Render("  range " + e.Range)
	}
	return "  " + line + "  " + confidenceStyle(e.Confidence).Render(string(e.Confidence))
}

func confidenceStyle(c threshold.Confidence) lipgloss.Style {
	switch c {
	case threshold.ConfidenceHigh:
		return successStyle
	case threshold.ConfidenceMed:
		return warningStyle
	default:
		return errorStyle
	}
}

func renderSectionHeader(title string) string {
	label := "── " + title + " "
	return sectionStyle.Render(label + strings.Repeat("─", max(0, 60-lipgloss.Width(label))))
}

func (m ThresholdsModel) renderProtocol() string {
	d := m.data
	var lines []string

	lines = append(lines, renderSectionHeader(fmt.Sprintf("Test Protocol (%d min stages)", d.StageDuration)))
	lines = append(lines, tableHeaderStyle.Render(fmt.Sprintf("%-6s %8s %10s  %s", "Stage", "HR", "Target", "Notes")))
	for _, s := range d.Stages {
		lines = append(lines, fmt.Sprintf("  %-6d %4d bpm %10s  %s", s.Stage, s.TargetHR, s.Target, s.Notes))
	}
	lines = append(lines, "")

	if chart := stageChart(d.Stages); chart != "" {
		lines = append(lines, chart, "")
	}

	for _, rule := range d.StopRules {
		lines = append(lines, warningStyle.Render("  • "+rule))
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// stageChart plots the stage target heart rates
func stageChart(stages []service.StageView) string {
	if len(stages) < 2 {
		return ""
	}
	data := make([]float64, len(stages))
	for i, s := range stages {
		data[i] = float64(s.TargetHR)
	}
	return asciigraph.Plot(data,
		asciigraph.Height(8),
		asciigraph.Width(50),
		asciigraph.Offset(4),
		asciigraph.Caption("stage target heart rate (bpm)"),
	)
}

func (m ThresholdsModel) renderEvidence() string {
	var lines []string
	lines = append(lines, renderSectionHeader("Evidence"))

	for _, e := range []service.EstimateView{m.data.HRMax, m.data.LT1, m.data.LT2} {
		lines = append(lines, helpKeyStyle.Render("  "+e.Label))
		if len(e.Evidence) == 0 {
			lines = append(lines, mutedStyle.Render("    none"))
			continue
		}
		for _, row := range e.Evidence {
			lines = append(lines, m.renderEvidenceRow(row))
		}
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m ThresholdsModel) renderEvidenceRow(row service.EvidenceRow) string {
	name := row.Name
	if name == "" {
		name = row.ActivityID
	}
	when := humanize.RelTime(row.Date, m.now(), "ago", "from now")
	return fmt.Sprintf("    %-28s %-14s %s", truncate(name, 28), when, mutedStyle.Render(row.Detail))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
