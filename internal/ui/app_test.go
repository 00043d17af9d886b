package ui

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/marketpulse/internal/model"
	"github.com/abelbrown/marketpulse/internal/news"
	"github.com/abelbrown/marketpulse/internal/otel"
)

func testResponse(n int) news.Response {
	items := make([]model.NewsItem, n)
	for i := range items {
		u := model.UrgencyHigh
		if i >= n/2 {
			u = model.UrgencyNormal
		}
		items[i] = model.NewsItem{
			Title:   fmt.Sprintf("Headline %d", i),
			Link:    fmt.Sprintf("https://example.com/%d", i),
			Source:  "Wire",
			Urgency: u,
			Age:     "5m ago",
		}
	}
	return news.Response{Items: items, Meta: news.Meta{Total: n}}
}

type loader struct{ calls int }

func (l *loader) load() tea.Cmd {
	l.calls++
	return func() tea.Msg { return NewsLoaded{Resp: testResponse(3)} }
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestAppInit(t *testing.T) {
	l := &loader{}
	app := NewApp(l.load, time.Minute, nil)

	if cmd := app.Init(); cmd == nil {
		t.Fatal("Init should return a command")
	}
	if l.calls != 1 {
		t.Errorf("Init should call load once, got %d", l.calls)
	}
}

func TestAppInitNilLoad(t *testing.T) {
	app := NewApp(nil, 0, nil)
	if cmd := app.Init(); cmd != nil {
		t.Error("Init should return nil without a loader")
	}
}

func TestAppNavigation(t *testing.T) {
	app := NewApp(nil, 0, nil)
	m, _ := app.Update(NewsLoaded{Resp: testResponse(3)})
	app = m.(App)

	steps := []struct {
		msg  tea.Msg
		want int
	}{
		{key("j"), 1},
		{key("k"), 0},
		{key("k"), 0},
		{key("G"), 2},
		{key("j"), 2},
		{key("g"), 0},
		{tea.KeyMsg{Type: tea.KeyDown}, 1},
		{tea.KeyMsg{Type: tea.KeyUp}, 0},
	}
	for i, s := range steps {
		m, _ = app.Update(s.msg)
		app = m.(App)
		if app.Cursor() != s.want {
			t.Errorf("step %d: cursor = %d, want %d", i, app.Cursor(), s.want)
		}
	}
}

func TestAppLoadClampsCursor(t *testing.T) {
	app := NewApp(nil, 0, nil)
	m, _ := app.Update(NewsLoaded{Resp: testResponse(10)})
	m, _ = m.(App).Update(key("G"))
	m, _ = m.(App).Update(NewsLoaded{Resp: testResponse(4)})

	if c := m.(App).Cursor(); c != 3 {
		t.Errorf("cursor = %d, want 3", c)
	}
}

func TestAppLoadErrorKeepsItems(t *testing.T) {
	app := NewApp(nil, 0, nil)
	m, _ := app.Update(NewsLoaded{Resp: testResponse(2)})
	m, _ = m.(App).Update(NewsLoaded{Err: errors.New("boom")})

	app = m.(App)
	if len(app.Response().Items) != 2 {
		t.Error("error should not clear loaded items")
	}
	if app.err == nil {
		t.Error("error should be recorded")
	}
}

func TestAppRefreshKey(t *testing.T) {
	l := &loader{}
	app := NewApp(l.load, 0, nil)

	m, cmd := app.Update(key("r"))
	if cmd == nil || l.calls != 1 || !m.(App).loading {
		t.Fatalf("r should trigger a load (calls=%d)", l.calls)
	}

	// a second r while loading is ignored
	if _, cmd := m.(App).Update(key("r")); cmd != nil || l.calls != 1 {
		t.Error("refresh while loading should be ignored")
	}
}

func TestAppRefreshTick(t *testing.T) {
	l := &loader{}
	app := NewApp(l.load, time.Minute, nil)

	if _, cmd := app.Update(RefreshTick{}); cmd == nil || l.calls != 1 {
		t.Errorf("tick should reload (calls=%d)", l.calls)
	}
}

func TestAppQuit(t *testing.T) {
	app := NewApp(nil, 0, nil)
	_, cmd := app.Update(key("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestAppView(t *testing.T) {
	app := NewApp(nil, 0, nil)
	if app.View() != "Loading..." {
		t.Error("view before size should be the loading text")
	}

	m, _ := app.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	m, _ = m.(App).Update(NewsLoaded{Resp: testResponse(4)})
	view := m.(App).View()

	for _, want := range []string{"HIGH", "NORMAL", "Headline 0", "1/4"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestAppDebugToggle(t *testing.T) {
	ring := otel.NewRingBuffer(8)
	ring.Push(otel.Event{Time: time.Now(), Kind: otel.KindFetchError, Feed: "Wire", Err: "timeout"})

	app := NewApp(nil, 0, ring)
	m, _ := app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = m.(App).Update(key("D"))

	view := m.(App).View()
	if !strings.Contains(view, "Pipeline Stats") || !strings.Contains(view, "fetch.error") {
		t.Errorf("debug view missing content:\n%s", view)
	}
}
