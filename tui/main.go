// Command tui is a terminal dashboard over the homeval run database.
package main

import (
	"fmt"
	"os"
	"time"

	"tui/db"
	"tui/styles"
	"tui/views"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
)

const (
	pageDashboard = iota
	pageLogs
)

var pageNames = []string{"Dashboard", "Logs"}

const (
	dataInterval = 10 * time.Second
	tailInterval = 2 * time.Second
)

type app struct {
	page   int
	paused bool
	width  int
	flash  string
	until  time.Time

	dashboard views.Dashboard
	logs      views.Logs
}

type dataTick struct{}
type tailTick struct{}

func every(d time.Duration, msg tea.Msg) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return msg })
}

func newApp(client *db.Client, logPath string) app {
	return app{
		dashboard: views.NewDashboard(client, logPath),
		logs:      views.NewLogs(client),
	}
}

func (a app) Init() tea.Cmd {
	return tea.Batch(a.dashboard.Init(), a.logs.Init(),
		every(dataInterval, dataTick{}), every(tailInterval, tailTick{}))
}

func (a *app) notify(text string) {
	a.flash = text
	a.until = time.Now().Add(2 * time.Second)
}

func (a app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return a, tea.Quit
		case "d":
			a.page = pageDashboard
			return a, nil
		case "l":
			a.page = pageLogs
			return a, nil
		case "tab":
			a.page = (a.page + 1) % len(pageNames)
			return a, nil
		case "p":
			a.paused = !a.paused
			if a.paused {
				a.notify("Auto refresh paused")
			} else {
				a.notify("Auto refresh on")
			}
			return a, nil
		case "r":
			a.notify("Refreshed")
			return a, a.refresh()
		}
		return a.toPage(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.dashboard = a.dashboard.SetSize(msg.Width, msg.Height-4)
		a.logs = a.logs.SetSize(msg.Width, msg.Height-4)
		return a, nil

	case dataTick:
		next := every(dataInterval, dataTick{})
		if a.paused {
			return a, next
		}
		return a, tea.Batch(a.refresh(), next)

	case tailTick:
		return a, tea.Batch(a.dashboard.RefreshLog(), every(tailInterval, tailTick{}))

	case views.RunSelectedMsg:
		a.page = pageLogs
	}
	return a.broadcast(msg)
}

// toPage hands a key press to the visible page only.
func (a app) toPage(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var next tea.Model
	if a.page == pageLogs {
		next, cmd = a.logs.Update(msg)
		a.logs = next.(views.Logs)
	} else {
		next, cmd = a.dashboard.Update(msg)
		a.dashboard = next.(views.Dashboard)
	}
	return a, cmd
}

// broadcast hands data messages to every page.
func (a app) broadcast(msg tea.Msg) (tea.Model, tea.Cmd) {
	dash, c1 := a.dashboard.Update(msg)
	logs, c2 := a.logs.Update(msg)
	a.dashboard = dash.(views.Dashboard)
	a.logs = logs.(views.Logs)
	return a, tea.Batch(c1, c2)
}

func (a app) refresh() tea.Cmd {
	if a.page == pageLogs {
		return a.logs.Refresh()
	}
	return a.dashboard.Refresh()
}

func (a app) View() string {
	tabs := make([]string, len(pageNames))
	for i, name := range pageNames {
		style := styles.TabInactive
		if i == a.page {
			style = styles.TabActive
		}
		tabs[i] = style.Render(name)
	}

	body := a.dashboard.View()
	if a.page == pageLogs {
		body = a.logs.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, tabs...)+"\n",
		body,
		a.footer(),
	)
}

func (a app) footer() string {
	keys := styles.StatusBar.Render("d Dash  l Logs  ↑/↓ Select  enter Run logs  r Refresh  p Pause  q Quit")
	if !time.Now().Before(a.until) {
		return keys
	}
	flash := styles.Notification.Render(a.flash)
	pad := a.width - lipgloss.Width(keys) - lipgloss.Width(flash)
	if pad < 1 {
		pad = 1
	}
	return keys + lipgloss.NewStyle().Width(pad).Render("") + flash
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	dbPath := envOr("DB_PATH", "homeval.db")
	client, err := db.New(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", dbPath, err)
		os.Exit(1)
	}
	defer client.Close()

	program := tea.NewProgram(newApp(client, envOr("LOG_PATH", "homeval.log")), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
