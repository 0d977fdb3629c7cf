package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/cargodash/internal/cargo"
	"github.com/five82/cargodash/internal/config"
	"github.com/five82/cargodash/internal/prefs"
	"github.com/five82/cargodash/internal/section"
	"github.com/five82/cargodash/internal/state"
)

// loadingSpinner supplies the frames drawn while a section is loading.
var loadingSpinner = spinner.Dot

// Options configures the UI.
type Options struct {
	Context   context.Context
	Client    cargo.API
	Store     *state.Store
	Config    *config.Config
	Logger    *zap.Logger
	ThemeName string
	PrefsPath string // empty disables persistence
	Section   section.ID
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	store     *state.Store
	config    config.Config
	logger    *zap.Logger
	prefsPath string
	keys      keyMap

	// Section machinery
	registry    *section.Registry
	notifier    *section.Notifier
	controllers map[section.ID]controller
	initial     section.ID

	// UI state
	theme    Theme
	width    int
	height   int
	ready    bool
	showHelp bool
	modal    Modal
	spinning bool
	frame    int

	// Header state
	snapshot state.Snapshot
	now      time.Time

	deps  *deps
	after func(d time.Duration, msg tea.Msg) tea.Cmd
}

// New creates a new Bubble Tea model with every section registered.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := config.Default()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	if cfg.ClockInterval <= 0 {
		cfg.ClockInterval = DefaultClockInterval
	}
	if cfg.HealthInterval <= 0 {
		cfg.HealthInterval = DefaultHealthInterval
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := Model{
		ctx:         ctx,
		store:       opts.Store,
		config:      cfg,
		logger:      logger,
		prefsPath:   opts.PrefsPath,
		keys:        DefaultKeyMap(),
		registry:    section.NewRegistry(),
		notifier:    section.NewNotifier(section.DefaultNotificationTTL),
		controllers: make(map[section.ID]controller, len(sectionTable)),
		theme:       GetTheme(opts.ThemeName),
		deps:        &deps{client: opts.Client, config: cfg, now: time.Now},
		after:       tickAfter,
	}
	m.deps.keys = m.keys
	m.now = m.deps.now()

	for _, def := range sectionTable {
		ctrl := def.build(m.deps)
		if err := m.registry.Register(def.id, def.title, ctrl.setup); err != nil {
			logger.DPanic("register section", zap.String("section", string(def.id)), zap.Error(err))
			continue
		}
		m.controllers[def.id] = ctrl
	}

	m.initial = section.Overview
	if opts.Section != "" {
		if _, ok := m.controllers[opts.Section]; ok {
			m.initial = opts.Section
		} else {
			logger.Warn("ignoring unknown start section", zap.String("section", string(opts.Section)))
		}
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		emit(activateMsg{id: m.initial}),
		m.after(m.config.ClockInterval, clockMsg{}),
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store), m.after(m.config.HealthInterval, tickMsg{}))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		w, h := m.paneSize()
		for _, ctrl := range m.controllers {
			if r, ok := ctrl.(resizer); ok {
				r.resize(w, h)
			}
		}
		return m, nil

	case activateMsg:
		return m.activate(msg.id)

	case refreshMsg:
		cmd := m.reload(msg.id)
		return m, cmd

	case jobMsg:
		cmd := m.begin(msg.job)
		return m, cmd

	case jobDoneMsg:
		return m.finish(msg)

	case notifyMsg:
		if msg.severity == section.SeverityError {
			m.logger.Warn("error notice", zap.String("message", msg.text))
		}
		return m, m.notify(msg.severity, msg.text)

	case dismissMsg:
		m.notifier.Dismiss(msg.id)
		return m, nil

	case confirmMsg:
		m.modal = newConfirmModal(msg.prompt, msg.onYes)
		return m, nil

	case clockMsg:
		m.now = m.deps.now()
		return m, m.after(m.config.ClockInterval, clockMsg{})

	case tickMsg:
		return m, tea.Batch(fetchSnapshotCmd(m.store), m.after(m.config.HealthInterval, tickMsg{}))

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		return m, nil

	case spinMsg:
		if !m.anyLoading() {
			m.spinning = false
			return m, nil
		}
		m.frame++
		return m, m.after(loadingSpinner.FPS, spinMsg{})
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}

	return m.renderMain()
}

// handleKey routes input: modal first, then an editing pane, then global
// bindings, then the active pane.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.modal != nil {
		modal, cmd, done := m.modal.Update(msg, m.keys)
		if done {
			m.modal = nil
		} else {
			m.modal = modal
		}
		return m, cmd
	}

	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	ctrl := m.activeController()
	if ctrl != nil && ctrl.editing() {
		return m, ctrl.handleKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		return m.activate(m.registry.Next(1))

	case key.Matches(msg, m.keys.ShiftTab):
		return m.activate(m.registry.Next(-1))

	case key.Matches(msg, m.keys.Jump):
		ids := m.registry.IDs()
		if len(msg.Runes) == 1 {
			if idx := int(msg.Runes[0] - '1'); idx >= 0 && idx < len(ids) {
				return m.activate(ids[idx])
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Palette):
		m.modal = newPaletteModal(m.paletteEntries())
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		cmd := m.reload(m.registry.Active())
		return m, cmd
	}

	if ctrl != nil {
		return m, ctrl.handleKey(msg)
	}
	return m, nil
}

// activate switches the visible section and loads it.
func (m Model) activate(id section.ID) (Model, tea.Cmd) {
	tok, err := m.registry.Activate(id)
	if err != nil {
		m.logger.DPanic("activate section", zap.String("section", string(id)), zap.Error(err))
		return m, nil
	}
	m.savePrefs()
	cmd := m.load(tok)
	return m, cmd
}

// reload begins a fresh load of id without changing the active section.
func (m *Model) reload(id section.ID) tea.Cmd {
	tok, err := m.registry.Begin(id)
	if err != nil {
		m.logger.DPanic("reload section", zap.String("section", string(id)), zap.Error(err))
		return nil
	}
	return m.load(tok)
}

// load runs the section refresh under tok. Panes with nothing to fetch
// release the token immediately.
func (m *Model) load(tok *section.Token) tea.Cmd {
	var j *job
	if ctrl := m.controllers[tok.Section()]; ctrl != nil {
		j = ctrl.refresh()
	}
	if j == nil {
		m.registry.Finish(tok, nil)
		return nil
	}
	return tea.Batch(m.run(tok, j), m.startSpinner())
}

// begin starts a pane-issued job under a new token for its section.
func (m *Model) begin(j *job) tea.Cmd {
	if j == nil {
		return nil
	}
	tok, err := m.registry.Begin(j.section)
	if err != nil {
		m.logger.DPanic("begin job", zap.String("section", string(j.section)), zap.Error(err))
		return nil
	}
	return tea.Batch(m.run(tok, j), m.startSpinner())
}

func (m Model) run(tok *section.Token, j *job) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		value, err := j.run(ctx)
		return jobDoneMsg{token: tok, job: j, value: value, err: err}
	}
}

// finish releases the job token and renders the outcome. Stale refreshes
// are dropped, with a muted note if they failed; mutations always report back.
func (m Model) finish(msg jobDoneMsg) (tea.Model, tea.Cmd) {
	fresh := m.registry.Finish(msg.token, msg.err)
	j := msg.job
	if !fresh && !j.mutation {
		if msg.err == nil {
			m.logger.Debug("dropping stale result",
				zap.String("section", string(j.section)),
				zap.String("job", j.label))
			return m, nil
		}
		m.logger.Warn("superseded job failed",
			zap.String("section", string(j.section)),
			zap.String("job", j.label),
			zap.Error(msg.err))
		text := fmt.Sprintf("%s: earlier %s failed (superseded): %v", m.registry.Title(j.section), j.label, msg.err)
		return m, m.notify(section.SeverityInfo, text)
	}

	if msg.err != nil {
		m.logger.Warn("section job failed",
			zap.String("section", string(j.section)),
			zap.String("job", j.label),
			zap.Error(msg.err))
		text := fmt.Sprintf("%s: %s failed: %v", m.registry.Title(j.section), j.label, msg.err)
		return m, m.notify(section.SeverityError, text)
	}

	if j.apply == nil {
		return m, nil
	}
	return m, j.apply(msg.value)
}

// notify pushes a banner and schedules its dismissal.
func (m Model) notify(sev section.Severity, text string) tea.Cmd {
	n := m.notifier.Push(sev, text)
	return m.after(m.notifier.TTL(), dismissMsg{id: n.ID})
}

func (m *Model) startSpinner() tea.Cmd {
	if m.spinning {
		return nil
	}
	m.spinning = true
	return m.after(loadingSpinner.FPS, spinMsg{})
}

func (m Model) anyLoading() bool {
	for _, id := range m.registry.IDs() {
		if m.registry.Loading(id) {
			return true
		}
	}
	return false
}

func (m Model) activeController() controller {
	return m.controllers[m.registry.Active()]
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{Theme: m.theme.Name, Section: string(m.registry.Active())}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.logger.Warn("save preferences", zap.String("path", m.prefsPath), zap.Error(err))
	}
}

func (m Model) paletteEntries() []paletteEntry {
	ids := m.registry.IDs()
	entries := make([]paletteEntry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, paletteEntry{id: id, title: m.registry.Title(id)})
	}
	return entries
}

// paneSize returns the inner size of the section box.
func (m Model) paneSize() (int, int) {
	w := maxInt(m.width-2, 10)
	h := maxInt(m.height-headerLines-paneBorderLines-maxVisibleNotifications-1, 3)
	return w, h
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	// Header line 1: logo + API status
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	// Header line 2: command bar
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	// Header line 3: section tabs
	b.WriteString(m.renderTabs())
	b.WriteString("\n")

	// Main content
	b.WriteString(m.renderPane())

	if banners := m.renderNotifications(); banners != "" {
		b.WriteString("\n")
		b.WriteString(banners)
	}

	return b.String()
}

// Messages

type snapshotMsg state.Snapshot

// Commands

func tickAfter(d time.Duration, msg tea.Msg) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return msg
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		programOpts = append(programOpts, tea.WithContext(opts.Context))
	}
	p := tea.NewProgram(m, programOpts...)
	_, err := p.Run()
	return err
}
