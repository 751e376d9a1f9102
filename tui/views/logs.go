package views

import (
	"fmt"
	"strings"

	"tui/db"
	"tui/styles"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var logLevels = []string{"", "debug", "info", "warn", "error"}

type logsMsg struct {
	logs []db.RunLog
}

// Logs shows run_logs, either for the run picked on the dashboard or for all
// runs.
type Logs struct {
	db            *db.Client
	width, height int
	logs          []db.RunLog
	runID         string
	levelIndex    int
	scrollOffset  int
}

func NewLogs(dbClient *db.Client) Logs {
	return Logs{db: dbClient}
}

func (l Logs) Init() tea.Cmd {
	return l.Refresh()
}

func (l Logs) Refresh() tea.Cmd {
	runID, level := l.runID, logLevels[l.levelIndex]
	return func() tea.Msg {
		logs, _ := l.db.GetLogs(300, runID, level)
		return logsMsg{logs}
	}
}

func (l Logs) SetSize(w, h int) Logs {
	l.width = w
	l.height = h
	return l
}

func (l Logs) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case logsMsg:
		l.logs = msg.logs
		l.scrollOffset = 0

	case RunSelectedMsg:
		l.runID = msg.RunID
		return l, l.Refresh()

	case tea.KeyMsg:
		switch msg.String() {
		case "left", "h":
			if l.levelIndex > 0 {
				l.levelIndex--
				return l, l.Refresh()
			}
		case "right":
			if l.levelIndex < len(logLevels)-1 {
				l.levelIndex++
				return l, l.Refresh()
			}
		case "a":
			l.runID = ""
			return l, l.Refresh()
		case "up", "k":
			if l.scrollOffset > 0 {
				l.scrollOffset--
			}
		case "down", "j":
			if l.scrollOffset < l.maxScroll() {
				l.scrollOffset++
			}
		case "g":
			l.scrollOffset = 0
		case "G":
			l.scrollOffset = l.maxScroll()
		}
	}
	return l, nil
}

func (l Logs) visibleLines() int {
	if l.height-6 < 1 {
		return 10
	}
	return l.height - 6
}

func (l Logs) maxScroll() int {
	if m := len(l.logs) - l.visibleLines(); m > 0 {
		return m
	}
	return 0
}

func (l Logs) View() string {
	scope := "all runs (a)"
	if l.runID != "" {
		scope = "run " + l.runID
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.Title.Render("Logs")+styles.Muted.Render(scope),
		l.renderFilter(),
		"",
		l.renderLogs(),
	)
}

func (l Logs) renderFilter() string {
	var parts []string
	for i, level := range logLevels {
		name := strings.ToUpper(level)
		if level == "" {
			name = "ALL"
		}
		if i == l.levelIndex {
			parts = append(parts, styles.TabActive.Render("["+name+"]"))
		} else {
			parts = append(parts, styles.TabInactive.Render(name))
		}
	}
	return "Filter: " + strings.Join(parts, " ") + "  (←/→ to change)"
}

func (l Logs) renderLogs() string {
	if len(l.logs) == 0 {
		return styles.Muted.Render("No logs")
	}

	start := l.scrollOffset
	end := start + l.visibleLines()
	if end > len(l.logs) {
		end = len(l.logs)
	}

	lines := []string{styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]", start+1, end, len(l.logs)))}
	for _, entry := range l.logs[start:end] {
		lines = append(lines, l.formatLog(entry))
	}
	return strings.Join(lines, "\n")
}

func (l Logs) formatLog(entry db.RunLog) string {
	state := ""
	if entry.State != "" {
		state = fmt.Sprintf("%-21s ", entry.State)
	}
	return fmt.Sprintf("%s %s %s%s",
		styles.Muted.Render(entry.Timestamp.Local().Format("15:04:05")),
		styles.LogLevel(entry.Level).Render(fmt.Sprintf("%-5s", entry.Level)),
		styles.Muted.Render(state),
		truncate(entry.Message, l.width-35),
	)
}
