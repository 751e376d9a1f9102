package views

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"tui/db"
	"tui/styles"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type dashboardDataMsg struct {
	stats []db.SiteStats
	runs  []db.Run
	err   error
}

type logTailMsg struct {
	lines   []string
	modTime time.Time
}

// RunSelectedMsg asks the logs view to show one run.
type RunSelectedMsg struct {
	RunID string
}

type Dashboard struct {
	db            *db.Client
	width, height int
	stats         []db.SiteStats
	runs          []db.Run
	err           error
	cursor        int
	logLines      []string
	logPath       string
	logViewport   int
	logBuffer     int
	logModTime    time.Time
}

func NewDashboard(dbClient *db.Client, logPath string) Dashboard {
	if logPath == "" {
		logPath = "homeval.log"
	}
	return Dashboard{
		db:          dbClient,
		logPath:     logPath,
		logViewport: 12,
		logBuffer:   200,
	}
}

func (d Dashboard) Init() tea.Cmd {
	return tea.Batch(d.Refresh(), d.RefreshLog())
}

func (d Dashboard) Refresh() tea.Cmd {
	return func() tea.Msg {
		stats, err := d.db.GetSiteStats()
		if err != nil {
			return dashboardDataMsg{err: err}
		}
		runs, err := d.db.GetRecentRuns(15)
		return dashboardDataMsg{stats: stats, runs: runs, err: err}
	}
}

func (d Dashboard) RefreshLog() tea.Cmd {
	return func() tea.Msg {
		lines, modTime := readLastLines(d.logPath, d.logBuffer)
		return logTailMsg{lines, modTime}
	}
}

func readLastLines(path string, n int) ([]string, time.Time) {
	f, err := os.Open(path)
	if err != nil {
		return []string{"(no log file)"}, time.Time{}
	}
	defer f.Close()

	var modTime time.Time
	if info, err := f.Stat(); err == nil {
		modTime = info.ModTime()
	}

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	if len(lines) == 0 {
		return []string{"(empty log)"}, modTime
	}
	return lines, modTime
}

func (d Dashboard) SetSize(w, h int) Dashboard {
	d.width = w
	d.height = h
	return d
}

func (d Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.stats = msg.stats
		d.runs = msg.runs
		d.err = msg.err
		if d.cursor >= len(d.runs) {
			d.cursor = 0
		}
	case logTailMsg:
		if !msg.modTime.Equal(d.logModTime) {
			d.logLines = msg.lines
			d.logModTime = msg.modTime
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if d.cursor > 0 {
				d.cursor--
			}
		case "down", "j":
			if d.cursor < len(d.runs)-1 {
				d.cursor++
			}
		case "enter":
			if d.cursor < len(d.runs) {
				id := d.runs[d.cursor].ID
				return d, func() tea.Msg { return RunSelectedMsg{RunID: id} }
			}
		}
	}
	return d, nil
}

func (d Dashboard) View() string {
	if d.err != nil {
		return styles.RunStatus("failed").Render(fmt.Sprintf("Error reading database: %v", d.err))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.Title.Render("Dashboard"),
		d.renderSiteCards(),
		"",
		styles.Title.Render("Recent Runs"),
		d.renderRunsTable(),
		"",
		d.renderLogTail(),
	)
}

func (d Dashboard) renderSiteCards() string {
	if len(d.stats) == 0 {
		return styles.Muted.Render("No finished runs yet")
	}

	var cards []string
	for _, s := range d.stats {
		cards = append(cards, d.renderSiteCard(s))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (d Dashboard) renderSiteCard(s db.SiteStats) string {
	status := "never run"
	if s.LastRunStatus != nil {
		status = *s.LastRunStatus
	}
	lastRun := "never"
	if s.LastRunAt != nil {
		lastRun = relativeTime(*s.LastRunAt)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.StatValue.Render(s.SiteID),
		styles.RunStatus(status).Render(status),
		styles.StatLabel.Render(fmt.Sprintf("Last: %s", lastRun)),
		styles.StatLabel.Render(fmt.Sprintf("Runs: %d", s.TotalRuns)),
		styles.StatLabel.Render(fmt.Sprintf("Blocked: %d  Not found: %d", s.Blocked, s.NotFound)),
		styles.StatLabel.Render(fmt.Sprintf("Rate: %.0f%%", s.SuccessRate*100)),
	)
	return styles.SiteCardBorder.Width(30).Render(content)
}

func (d Dashboard) renderRunsTable() string {
	if len(d.runs) == 0 {
		return styles.Muted.Render("No runs yet")
	}

	header := fmt.Sprintf("%-8s %-8s %-10s %-21s %-9s %8s  %s",
		"Started", "Mode", "Status", "Last state", "Key", "Took", "Address")
	rows := []string{styles.TableHeader.Render(header)}

	for i, r := range d.runs {
		took := "—"
		if dur := r.Duration(); dur > 0 {
			took = dur.Round(100 * time.Millisecond).String()
		}
		row := fmt.Sprintf("%-8s %-8s %s %-21s %-9s %8s  %s",
			r.StartedAt.Local().Format("15:04:05"),
			r.Mode,
			styles.RunStatus(r.Status).Render(fmt.Sprintf("%-10s", r.Status)),
			truncate(r.LastState, 21),
			truncate(r.Fingerprint, 9),
			took,
			truncate(r.Address, 40),
		)
		if i == d.cursor {
			row = styles.TableSelected.Render(row)
		}
		rows = append(rows, row)
	}
	return strings.Join(rows, "\n")
}

func (d Dashboard) renderLogTail() string {
	start := len(d.logLines) - d.logViewport
	if start < 0 {
		start = 0
	}

	maxWidth := d.width - 8
	var lines []string
	for _, line := range d.logLines[start:] {
		lines = append(lines, styleLogLine(truncate(line, maxWidth)))
	}

	header := styles.Title.Render("Log") + styles.Muted.Render(d.logPath)
	width := d.width - 4
	if width < 20 {
		width = 80
	}
	return styles.LogBox.Width(width).Render(header + "\n" + strings.Join(lines, "\n"))
}

// styleLogLine colors a line by the [level] prefix the CLI writes.
func styleLogLine(line string) string {
	for _, level := range []string{"error", "warn", "info", "debug"} {
		if strings.Contains(line, "["+level+"]") {
			return styles.LogLevel(level).Render(line)
		}
	}
	return line
}

func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func truncate(s string, max int) string {
	if max <= 1 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
