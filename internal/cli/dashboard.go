package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/scrum-assistant/internal/core"
	"github.com/valter-silva-au/scrum-assistant/internal/observability"
	"github.com/valter-silva-au/scrum-assistant/pkg/models"
)

// Dashboard panel indices.
const (
	panelSprint = iota
	panelAlerts
	panelTeam
	panelMetrics
	panelCount
)

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	sprint      models.SprintMetrics
	taskCounts  map[models.TaskStatus]int
	team        []models.TeamMemberStats
	alerts      []observability.Alert
	metricsData *observability.Metrics

	// State.
	loading bool
	err     error
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	sprint     models.SprintMetrics
	taskCounts map[models.TaskStatus]int
	team       []models.TeamMemberStats
	alerts     []observability.Alert
	metrics    *observability.Metrics
	err        error
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

	statusTodo       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusInProgress = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	statusReview     = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	statusDone       = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))

	severityHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	severityMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	severityLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel: panelSprint,
		loading:     true,
		taskCounts:  make(map[models.TaskStatus]int),
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
		m.sprint = msg.sprint
		m.taskCounts = msg.taskCounts
		m.team = msg.team
		m.alerts = msg.alerts
		m.metricsData = msg.metrics
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" Scrum Dashboard ")
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	panels := []string{
		m.renderSprintPanel(),
		m.renderAlertsPanel(),
		m.renderTeamPanel(),
		m.renderMetricsPanel(),
	}

	// Available width for panels after accounting for margins.
	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		// Two by two grid.
		colWidth := availableWidth / 2
		for i := range panels {
			panels[i] = m.applyPanelStyle(i, panels[i], colWidth-4)
		}
		top := lipgloss.JoinHorizontal(lipgloss.Top, panels[panelSprint], panels[panelAlerts])
		bottom := lipgloss.JoinHorizontal(lipgloss.Top, panels[panelTeam], panels[panelMetrics])
		body = lipgloss.JoinVertical(lipgloss.Left, top, bottom)
	} else {
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		for i := range panels {
			panels[i] = m.applyPanelStyle(i, panels[i], panelWidth)
		}
		body = lipgloss.JoinVertical(lipgloss.Left, panels...)
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

func (m dashboardModel) renderSprintPanel() string {
	var b strings.Builder
	s := m.sprint
	name := s.Name
	if name == "" {
		name = "Sprint"
	}
	b.WriteString(headerStyle.Render(name + " health"))
	b.WriteString("\n")

	pct := core.Percent(s.CompletedPoints, s.TotalPoints)
	b.WriteString(fmt.Sprintf("  %s %d%%\n", progressBar(pct, 20), pct))
	b.WriteString(fmt.Sprintf("  %-14s %d/%d points\n", "Completed", s.CompletedPoints, s.TotalPoints))
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Days left", s.DaysRemaining))
	b.WriteString(fmt.Sprintf("  %-14s %d (%s)\n", "Velocity", s.Velocity, core.FormatVelocityDelta(s.Velocity, s.PreviousVelocity)))
	b.WriteString(fmt.Sprintf("  %-14s %s\n", "Risk", styleForRisk(s.RiskStatus).Render(string(s.RiskStatus))))

	if len(s.BurndownIdeal) > 0 || len(s.BurndownActual) > 0 {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("  %-8s %s\n", "Ideal", sparkline(s.BurndownIdeal, s.TotalPoints)))
		b.WriteString(fmt.Sprintf("  %-8s %s\n", "Actual", sparkline(s.BurndownActual, s.TotalPoints)))
	}

	b.WriteString("\n")
	for _, status := range models.Statuses {
		label := fmt.Sprintf("  %-14s %d", status, m.taskCounts[status])
		b.WriteString(styleForStatus(status).Render(label))
		b.WriteString("\n")
	}

	return b.String()
}

func (m dashboardModel) renderAlertsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Blockers & alerts"))
	b.WriteString("\n")

	if len(m.alerts) == 0 {
		b.WriteString("  No active alerts.")
		return b.String()
	}

	for _, a := range m.alerts {
		sev := styleForSeverity(string(a.Severity)).Render(fmt.Sprintf("[%s]", strings.ToUpper(string(a.Severity))))
		b.WriteString(fmt.Sprintf("  %s %s\n", sev, a.Message))
	}

	b.WriteString(fmt.Sprintf("\n  Total: %d alert(s)", len(m.alerts)))

	return b.String()
}

func (m dashboardModel) renderTeamPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Team workload"))
	b.WriteString("\n")

	if len(m.team) == 0 {
		b.WriteString("  No tasks assigned.")
		return b.String()
	}

	for _, member := range m.team {
		b.WriteString(fmt.Sprintf("  %-12s %3d pts  %d/%d done  %d active  %s\n",
			member.Assignee, member.TotalPoints, member.Completed, member.Total, member.InProgress,
			styleForWorkload(member.Workload).Render(string(member.Workload))))
	}

	return b.String()
}

func (m dashboardModel) renderMetricsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Assistant (7d)"))
	b.WriteString("\n")

	if m.metricsData == nil {
		b.WriteString("  No metrics available.")
		return b.String()
	}

	md := m.metricsData
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Turns", md.Turns))
	b.WriteString(fmt.Sprintf("  %-14s %d%%\n", "Confidence", int(math.Round(md.AverageConfidence*100))))
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Actions", md.ActionsProposed))
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Created", md.TasksCreated))
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Updated", md.TasksUpdated))

	top := md.TopIntents()
	if len(top) > 3 {
		top = top[:3]
	}
	if len(top) > 0 {
		b.WriteString("\n  Top intents:\n")
		for _, ic := range top {
			b.WriteString(fmt.Sprintf("    %-18s %d\n", ic.Intent, ic.Count))
		}
	}

	return b.String()
}

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// sparkline renders values scaled against ceiling as block characters.
func sparkline(values []int, ceiling int) string {
	if len(values) == 0 {
		return ""
	}
	if ceiling <= 0 {
		for _, v := range values {
			if v > ceiling {
				ceiling = v
			}
		}
	}
	if ceiling <= 0 {
		return strings.Repeat(string(sparkLevels[0]), len(values))
	}
	out := make([]rune, len(values))
	top := len(sparkLevels) - 1
	for i, v := range values {
		if v < 0 {
			v = 0
		}
		if v > ceiling {
			v = ceiling
		}
		out[i] = sparkLevels[v*top/ceiling]
	}
	return string(out)
}

// progressBar renders pct (0-100) as a bar of width cells.
func progressBar(pct, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct * width / 100
	return statusDone.Render(strings.Repeat("█", filled)) + helpStyle.Render(strings.Repeat("░", width-filled))
}

func styleForStatus(status models.TaskStatus) lipgloss.Style {
	switch status {
	case models.StatusTodo:
		return statusTodo
	case models.StatusInProgress:
		return statusInProgress
	case models.StatusReview:
		return statusReview
	case models.StatusDone:
		return statusDone
	default:
		return lipgloss.NewStyle()
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

func styleForRisk(r models.RiskStatus) lipgloss.Style {
	switch r {
	case models.RiskOnTrack:
		return statusDone
	case models.RiskAtRisk:
		return severityMedium
	case models.RiskBehind:
		return severityHigh
	default:
		return lipgloss.NewStyle()
	}
}

func styleForWorkload(w models.Workload) lipgloss.Style {
	switch w {
	case models.WorkloadHeavy:
		return severityHigh
	case models.WorkloadOptimal:
		return statusDone
	default:
		return statusTodo
	}
}

func loadData() tea.Msg {
	snap, state, err := loadBoardState()
	if err != nil {
		return dataLoadedMsg{err: err}
	}

	result := dataLoadedMsg{
		sprint:     snap.Sprint,
		taskCounts: make(map[models.TaskStatus]int),
		team:       snap.Team,
	}
	for _, t := range snap.Tasks {
		result.taskCounts[t.Status]++
	}

	if AlertEngine != nil {
		result.alerts = AlertEngine.Evaluate(state)
	}

	if MetricsCalc != nil {
		since := time.Now().UTC().AddDate(0, 0, -7)
		metrics, err := MetricsCalc.Calculate(since)
		if err != nil {
			result.err = fmt.Errorf("loading metrics: %w", err)
			return result
		}
		result.metrics = metrics
	}

	return result
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for sprint health, blockers and workload",
	Long: `Launch an interactive terminal dashboard showing sprint health and
burndown, open blockers and alerts, team workload, and assistant metrics.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Board == nil {
			return fmt.Errorf("board not initialized")
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
