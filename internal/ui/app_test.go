package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/cargodash/internal/cargo"
	"github.com/five82/cargodash/internal/config"
	"github.com/five82/cargodash/internal/section"
)

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

// newTestModel wires a Model to a real client talking to handler. Timers
// are disabled so drain settles.
func newTestModel(t *testing.T, handler http.Handler) Model {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := cargo.NewClient(server.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	cfg := config.Default()
	cfg.APIBase = server.URL
	cfg.ExportDir = t.TempDir()

	m := New(Options{Context: ctx, Client: client, Config: &cfg})
	m.after = func(time.Duration, tea.Msg) tea.Cmd { return nil }
	m.deps.now = func() time.Time { return testNow }
	m = send(t, m, tea.WindowSizeMsg{Width: 140, Height: 48})
	return m
}

// drain runs cmd and every command it produces, feeding the messages back
// through Update until nothing is left.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 500, "command loop did not settle")
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil, tea.QuitMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			model, c := m.Update(msg)
			m = model.(Model)
			queue = append(queue, c)
		}
	}
	return m
}

// send delivers msg and drains the result.
func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	model, cmd := m.Update(msg)
	return drain(t, model.(Model), cmd)
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		m = send(t, m, keyMsg(k))
	}
	return m
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func start(t *testing.T, m Model) Model {
	t.Helper()
	return drain(t, m, m.Init())
}

func errorNotices(m Model) []string {
	var out []string
	for _, n := range m.notifier.Active() {
		if n.Severity == section.SeverityError {
			out = append(out, n.Message)
		}
	}
	return out
}

func successNotices(m Model) []string {
	var out []string
	for _, n := range m.notifier.Active() {
		if n.Severity == section.SeveritySuccess {
			out = append(out, n.Message)
		}
	}
	return out
}

func infoNotices(m Model) []string {
	var out []string
	for _, n := range m.notifier.Active() {
		if n.Severity == section.SeverityInfo {
			out = append(out, n.Message)
		}
	}
	return out
}

func paneView(m Model, id section.ID) string {
	w, h := m.paneSize()
	return m.controllers[id].view(w, h, m.theme)
}

// emptyAPI answers every list endpoint with an empty collection.
func emptyAPI() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/items", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"items":[]}`)
	})
	mux.HandleFunc("GET /api/containers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"containers":[]}`)
	})
	mux.HandleFunc("GET /api/waste/identify", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"wasteItems":[]}`)
	})
	mux.HandleFunc("GET /api/logs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"logs":[]}`)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func TestModel_StartsOnOverviewAndLoadsIt(t *testing.T) {
	m := start(t, newTestModel(t, emptyAPI()))

	assert.Equal(t, section.Overview, m.registry.Active())
	assert.Equal(t, section.StatusSuccess, m.registry.Status(section.Overview))
	assert.False(t, m.registry.Loading(section.Overview))
	assert.Contains(t, paneView(m, section.Overview), "Items: 0")
	assert.Empty(t, errorNotices(m))
}

func TestModel_UnknownStartSectionFallsBack(t *testing.T) {
	m := New(Options{Section: "nowhere"})
	assert.Equal(t, section.Overview, m.initial)

	m = New(Options{Section: section.Waste})
	assert.Equal(t, section.Waste, m.initial)
}

func TestModel_TabCyclesAndWraps(t *testing.T) {
	m := start(t, newTestModel(t, emptyAPI()))
	ids := m.registry.IDs()
	require.Len(t, ids, len(sectionTable))

	for i := 1; i <= len(ids); i++ {
		m = press(t, m, "tab")
		assert.Equal(t, ids[i%len(ids)], m.registry.Active())
	}
	m = press(t, m, "shift+tab")
	assert.Equal(t, ids[len(ids)-1], m.registry.Active())
}

func TestModel_ExactlyOneActiveSection(t *testing.T) {
	m := start(t, newTestModel(t, emptyAPI()))
	for _, k := range []string{"3", "tab", "9", "shift+tab", "1", "5"} {
		m = press(t, m, k)
		active := 0
		for _, id := range m.registry.IDs() {
			if m.registry.IsActive(id) {
				active++
			}
		}
		assert.Equal(t, 1, active, "after %q", k)
	}
	assert.Equal(t, section.SearchRetrieve, m.registry.Active())
}

func TestModel_SectionSetupRunsOnce(t *testing.T) {
	m := start(t, newTestModel(t, emptyAPI()))
	m = press(t, m, "2")
	pane := m.controllers[section.Containers].(*containersPane)
	form := pane.form
	require.NotNil(t, form)

	m = press(t, m, "1", "2", "1", "2")
	assert.Same(t, form, pane.form, "returning to a section must not rebuild it")
	assert.True(t, m.registry.Initialized(section.Containers))
	assert.False(t, m.registry.Initialized(section.Logs))
}

func TestModel_LoadingBadgeWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/containers", func(w http.ResponseWriter, r *http.Request) {
		<-release
		writeJSON(w, `{"containers":[]}`)
	})
	m := newTestModel(t, mux)
	t.Cleanup(func() { close(release) })

	model, _ := m.Update(activateMsg{id: section.Containers})
	m = model.(Model)

	assert.True(t, m.registry.Loading(section.Containers))
	assert.Contains(t, m.View(), "Loading...")
}

func TestModel_StaleRefreshIsDropped(t *testing.T) {
	m := start(t, newTestModel(t, emptyAPI()))
	m = press(t, m, "2")

	first, err := m.registry.Begin(section.Containers)
	require.NoError(t, err)
	_, err = m.registry.Begin(section.Containers)
	require.NoError(t, err)

	applied := false
	stale := &job{
		section: section.Containers,
		label:   "load",
		apply:   func(any) tea.Cmd { applied = true; return nil },
	}
	m = send(t, m, jobDoneMsg{token: first, job: stale, err: assert.AnError})

	assert.False(t, applied)
	assert.Empty(t, errorNotices(m), "stale failures do not raise an error banner")
	assert.Equal(t, []string{"Containers: earlier load failed (superseded): " + assert.AnError.Error()}, infoNotices(m))
}

func TestModel_StaleSuccessIsSilent(t *testing.T) {
	m := start(t, newTestModel(t, emptyAPI()))
	m = press(t, m, "2")

	first, err := m.registry.Begin(section.Containers)
	require.NoError(t, err)
	_, err = m.registry.Begin(section.Containers)
	require.NoError(t, err)

	stale := &job{section: section.Containers, label: "load"}
	m = send(t, m, jobDoneMsg{token: first, job: stale})
	assert.Empty(t, m.notifier.Active())
}

func TestModel_PaletteJumpsToSection(t *testing.T) {
	m := start(t, newTestModel(t, emptyAPI()))
	m = press(t, m, ":")
	require.NotNil(t, m.modal)

	m = typeText(t, m, "waste")
	m = press(t, m, "enter")

	assert.Nil(t, m.modal)
	assert.Equal(t, section.Waste, m.registry.Active())
}

func TestModel_ThemeCycles(t *testing.T) {
	m := start(t, newTestModel(t, emptyAPI()))
	before := m.theme.Name
	m = press(t, m, "T")
	assert.Equal(t, NextTheme(before), m.theme.Name)
}

func TestModel_HelpClosesOnAnyKey(t *testing.T) {
	m := start(t, newTestModel(t, emptyAPI()))
	m = press(t, m, "?")
	assert.True(t, m.showHelp)
	m = press(t, m, "x")
	assert.False(t, m.showHelp)
}

func TestModel_ViewBeforeResize(t *testing.T) {
	m := New(Options{})
	assert.Equal(t, "Loading...", m.View())
}

func TestModel_NotificationsDismissIndependently(t *testing.T) {
	m := start(t, newTestModel(t, emptyAPI()))
	m = send(t, m, notifyMsg{severity: section.SeveritySuccess, text: "one"})
	m = send(t, m, notifyMsg{severity: section.SeverityError, text: "two"})
	active := m.notifier.Active()
	require.Len(t, active, 2)

	m = send(t, m, dismissMsg{id: active[0].ID})
	assert.Equal(t, []string{"two"}, errorNotices(m))
	assert.Empty(t, successNotices(m))
	assert.True(t, strings.Contains(m.View(), "two"))
}
