package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/yishu-dev/yishu/internal/core"
)

// Dashboard panel indices.
const (
	panelProgress = iota
	panelMetrics
	panelAlerts
	panelCount
)

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	progress    *progressSnapshot
	metricsData *metricsSnapshot
	alerts      []alertSnapshot

	// State.
	loading bool
	err     error
}

type stageSnapshot struct {
	key     string
	percent int
	current bool
}

type progressSnapshot struct {
	state     string
	answered  int
	total     int
	overall   int
	remaining int
	stages    []stageSnapshot
}

type metricsSnapshot struct {
	sessionsStarted      int
	answersSaved         int
	answersAnalyzed      int
	avgCompleteness      float64
	biographiesGenerated int
	eventCount           int
}

type alertSnapshot struct {
	severity string
	message  string
	time     string
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	progress *progressSnapshot
	metrics  *metricsSnapshot
	alerts   []alertSnapshot
	err      error
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	stageDone    = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	stageCurrent = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true)
	stagePending = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	severityHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	severityMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	severityLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel: panelProgress,
		loading:     true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadData
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.progress = msg.progress
		m.metricsData = msg.metrics
		m.alerts = msg.alerts
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" yishu Dashboard ")
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	progressPanel := m.renderProgressPanel()
	metricsPanel := m.renderMetricsPanel()
	alertsPanel := m.renderAlertsPanel()

	// Available width for panels after accounting for margins.
	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		// Horizontal layout: three columns.
		colWidth := availableWidth / 3
		progressPanel = m.applyPanelStyle(panelProgress, progressPanel, colWidth-4)
		metricsPanel = m.applyPanelStyle(panelMetrics, metricsPanel, colWidth-4)
		alertsPanel = m.applyPanelStyle(panelAlerts, alertsPanel, colWidth-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, progressPanel, metricsPanel, alertsPanel)
	} else {
		// Vertical layout: stacked.
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		progressPanel = m.applyPanelStyle(panelProgress, progressPanel, panelWidth)
		metricsPanel = m.applyPanelStyle(panelMetrics, metricsPanel, panelWidth)
		alertsPanel = m.applyPanelStyle(panelAlerts, alertsPanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, progressPanel, metricsPanel, alertsPanel)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderProgressPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Interview"))
	b.WriteString("\n")

	if m.progress == nil || m.progress.state == string(core.StateNoSession) {
		b.WriteString("  No interview session.")
		return b.String()
	}

	p := m.progress
	b.WriteString(fmt.Sprintf("  State: %s\n\n", p.state))
	for _, st := range p.stages {
		label := fmt.Sprintf("  %-14s %s %3d%%", st.key, progressBar(st.percent, 10), st.percent)
		b.WriteString(styleForStage(st).Render(label))
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("\n  Answered: %d/%d (%d%%)", p.answered, p.total, p.overall))
	b.WriteString(fmt.Sprintf("\n  Remaining: ~%d min", p.remaining))

	return b.String()
}

func (m dashboardModel) renderMetricsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Metrics (7d)"))
	b.WriteString("\n")

	if m.metricsData == nil {
		b.WriteString("  No metrics available.")
		return b.String()
	}

	md := m.metricsData
	lines := []struct {
		label string
		value int
	}{
		{"Events", md.eventCount},
		{"Sessions", md.sessionsStarted},
		{"Answers", md.answersSaved},
		{"Analyzed", md.answersAnalyzed},
		{"Biographies", md.biographiesGenerated},
	}

	for _, l := range lines {
		b.WriteString(fmt.Sprintf("  %-14s %d\n", l.label, l.value))
	}
	b.WriteString(fmt.Sprintf("  %-14s %.1f\n", "Completeness", md.avgCompleteness))

	return b.String()
}

func (m dashboardModel) renderAlertsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Alerts"))
	b.WriteString("\n")

	if len(m.alerts) == 0 {
		b.WriteString("  No active alerts.")
		return b.String()
	}

	for _, a := range m.alerts {
		sev := styleForSeverity(a.severity).Render(fmt.Sprintf("[%s]", strings.ToUpper(a.severity)))
		b.WriteString(fmt.Sprintf("  %s %s\n", sev, a.message))
	}

	b.WriteString(fmt.Sprintf("\n  Total: %d alert(s)", len(m.alerts)))

	return b.String()
}

func styleForStage(st stageSnapshot) lipgloss.Style {
	switch {
	case st.current:
		return stageCurrent
	case st.percent >= 100:
		return stageDone
	default:
		return stagePending
	}
}

func styleForSeverity(severity string) lipgloss.Style {
	switch strings.ToLower(severity) {
	case "high":
		return severityHigh
	case "medium":
		return severityMedium
	case "low":
		return severityLow
	default:
		return lipgloss.NewStyle()
	}
}

func loadData() tea.Msg {
	var result dataLoadedMsg

	// Reload so the dashboard sees answers saved by other processes.
	if Interview != nil {
		state := Interview.Load()
		p := Interview.Progress()
		snap := &progressSnapshot{
			state:     string(state),
			answered:  p.AnsweredQuestions,
			total:     p.TotalQuestions,
			overall:   p.Overall,
			remaining: p.EstimatedTimeRemaining,
		}
		for _, st := range Interview.Catalog().Stages() {
			snap.stages = append(snap.stages, stageSnapshot{
				key:     string(st),
				percent: p.StageProgress[st],
				current: state != core.StateNoSession && p.CurrentStage == st,
			})
		}
		result.progress = snap
	}

	// Load metrics from MetricsCalc.
	if MetricsCalc != nil {
		since := time.Now().UTC().AddDate(0, 0, -7)
		metrics, err := MetricsCalc.Calculate(since)
		if err != nil {
			result.err = fmt.Errorf("loading metrics: %w", err)
			return result
		}
		result.metrics = &metricsSnapshot{
			sessionsStarted:      metrics.SessionsStarted,
			answersSaved:         metrics.AnswersSaved,
			answersAnalyzed:      metrics.AnswersAnalyzed,
			avgCompleteness:      metrics.AvgCompleteness,
			biographiesGenerated: metrics.BiographiesGenerated,
			eventCount:           metrics.EventCount,
		}
	}

	// Load alerts from AlertEngine.
	if AlertEngine != nil {
		alerts, err := AlertEngine.Evaluate()
		if err != nil {
			result.err = fmt.Errorf("loading alerts: %w", err)
			return result
		}
		result.alerts = make([]alertSnapshot, 0, len(alerts))

		// Sort alerts by severity: high first, then medium, then low.
		sort.Slice(alerts, func(i, j int) bool {
			return severityRank(string(alerts[i].Severity)) < severityRank(string(alerts[j].Severity))
		})

		for _, a := range alerts {
			result.alerts = append(result.alerts, alertSnapshot{
				severity: string(a.Severity),
				message:  a.Message,
				time:     a.TriggeredAt.Format("2006-01-02 15:04 UTC"),
			})
		}
	}

	return result
}

func severityRank(s string) int {
	switch s {
	case "high":
		return 0
	case "medium":
		return 1
	case "low":
		return 2
	default:
		return 3
	}
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for interview progress, metrics and alerts",
	Long: `Launch an interactive terminal dashboard showing interview progress by
stage, metrics, and alerts in a live-updating view.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Interview == nil {
			return fmt.Errorf("interview manager not initialized")
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
