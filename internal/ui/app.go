package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/marketpulse/internal/news"
	"github.com/abelbrown/marketpulse/internal/otel"
)

// App is the root Bubble Tea model for `marketpulse watch`.
// It does not hold the news service; reads arrive as NewsLoaded messages.
type App struct {
	load     func() tea.Cmd
	interval time.Duration
	ring     *otel.RingBuffer

	resp      news.Response
	cursor    int
	err       error
	width     int
	height    int
	ready     bool
	loading   bool
	showDebug bool
	spinner   spinner.Model
}

// NewApp creates an App. load returns a Cmd that reads the news service;
// interval > 0 re-reads periodically. ring may be nil.
func NewApp(load func() tea.Cmd, interval time.Duration, ring *otel.RingBuffer) App {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return App{
		load:     load,
		interval: interval,
		ring:     ring,
		spinner:  s,
	}
}

func (a App) tick() tea.Cmd {
	if a.interval <= 0 {
		return nil
	}
	return tea.Tick(a.interval, func(time.Time) tea.Msg { return RefreshTick{} })
}

// Init starts the first read.
func (a App) Init() tea.Cmd {
	if a.load == nil {
		return nil
	}
	return tea.Batch(a.load(), a.spinner.Tick, a.tick())
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		return a, nil

	case NewsLoaded:
		a.loading = false
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		a.resp = msg.Resp
		a.err = nil
		if n := len(a.resp.Items); a.cursor >= n {
			a.cursor = max(n-1, 0)
		}
		return a, nil

	case RefreshTick:
		if a.load == nil {
			return a, nil
		}
		a.loading = true
		return a, tea.Batch(a.load(), a.tick())

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.err = nil
	n := len(a.resp.Items)

	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit

	case "j", "down":
		if a.cursor < n-1 {
			a.cursor++
		}

	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
		}

	case "g", "home":
		a.cursor = 0

	case "G", "end":
		if n > 0 {
			a.cursor = n - 1
		}

	case "r":
		if a.load != nil && !a.loading {
			a.loading = true
			return a, a.load()
		}

	case "D":
		a.showDebug = !a.showDebug
	}

	return a, nil
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.showDebug && a.ring != nil {
		return debugOverlay(a.ring, a.width, a.height-1) + "\n" + debugStatusBar(a.width)
	}

	contentHeight := a.height - 1
	errorBar := ""
	if a.err != nil {
		contentHeight--
		errorBar = ErrorStyle.Width(a.width).Render("Error: "+a.err.Error()+" (press any key to dismiss)") + "\n"
	}

	list := RenderList(a.resp.Items, a.cursor, a.width, contentHeight)
	return list + errorBar + RenderStatusBar(a.resp, a.cursor, a.width, a.loading, a.spinner.View())
}

// Cursor returns the current cursor position.
func (a App) Cursor() int {
	return a.cursor
}

// Response returns the last loaded response.
func (a App) Response() news.Response {
	return a.resp
}
