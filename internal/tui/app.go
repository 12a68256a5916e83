package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"strava-thresholds/internal/service"
	"strava-thresholds/internal/threshold"
)

// Screen identifiers
type Screen int

const (
	ScreenThresholds Screen = iota
	ScreenSync
	ScreenHelp
)

// App is the root Bubble Tea model
type App struct {
	screen     Screen
	prevScreen Screen

	// Screen models
	thresholds ThresholdsModel
	syncScreen SyncModel
	help       HelpModel

	// Window dimensions
	width  int
	height int
}

// NewApp creates a new App opening on the thresholds screen for sport
func NewApp(syncService *service.SyncService, thresholdService *service.ThresholdService, sport threshold.Sport) *App {
	return &App{
		screen:     ScreenThresholds,
		thresholds: NewThresholdsModel(thresholdService, sport, 0, 0),
		syncScreen: NewSyncModel(syncService),
		help:       NewHelpModel(),
	}
}

// Init initializes the app
func (a *App) Init() tea.Cmd {
	return a.thresholds.Init()
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Global keybindings (unless in sync mode)
		if a.screen != ScreenSync || !a.syncScreen.syncing {
			switch msg.String() {
			case "q", "ctrl+c":
				return a, tea.Quit
			case "1":
				a.screen = ScreenThresholds
				return a, nil
			case "2", "s":
				if a.screen != ScreenSync {
					a.screen = ScreenSync
					return a, a.syncScreen.Init()
				}
				// Let 's' fall through to sync screen when already there
			case "?":
				a.prevScreen = a.screen
				a.screen = ScreenHelp
				return a, nil
			case "esc":
				if a.screen == ScreenHelp {
					a.screen = a.prevScreen
					return a, nil
				}
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// every screen keeps its size, including hidden ones
		m, cmd := a.thresholds.Update(msg)
		a.thresholds = m.(ThresholdsModel)
		return a, cmd

	case thresholdsLoadedMsg:
		m, cmd := a.thresholds.Update(msg)
		a.thresholds = m.(ThresholdsModel)
		return a, cmd

	case SyncCompleteMsg:
		// new streams, re-estimate in the background
		a.thresholds.loading = true
		return a, a.thresholds.compute
	}

	// Delegate to current screen
	var cmd tea.Cmd
	switch a.screen {
	case ScreenThresholds:
		var m tea.Model
		m, cmd = a.thresholds.Update(msg)
		a.thresholds = m.(ThresholdsModel)
	case ScreenSync:
		var m tea.Model
		m, cmd = a.syncScreen.Update(msg)
		a.syncScreen = m.(SyncModel)
	case ScreenHelp:
		var m tea.Model
		m, cmd = a.help.Update(msg)
		a.help = m.(HelpModel)
	}

	return a, cmd
}

// View renders the app
func (a *App) View() string {
	header := a.renderHeader()
	nav := a.renderNav()

	var content string
	switch a.screen {
	case ScreenThresholds:
		content = a.thresholds.View()
	case ScreenSync:
		content = a.syncScreen.View()
	case ScreenHelp:
		content = a.help.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, nav, content)
}

func (a *App) renderHeader() string {
	return headerStyle.Render("HR Threshold Estimator")
}

func (a *App) renderNav() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"1", "Thresholds", ScreenThresholds},
		{"2", "Sync", ScreenSync},
		{"?", "Help", ScreenHelp},
	}

	var nav string
	for i, item := range items {
		if i > 0 {
			nav += "  "
		}

		label := "[" + item.key + "] " + item.label
		if a.screen == item.screen {
			nav += navActiveStyle.Render(label)
		} else {
			nav += navInactiveStyle.Render(label)
		}
	}

	nav += "  " + navInactiveStyle.Render("[q] Quit")

	return navStyle.Render(nav)
}

// SyncCompleteMsg is sent when sync finishes
type SyncCompleteMsg struct{}
