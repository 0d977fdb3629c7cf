package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/cargodash/internal/cargo"
	"github.com/five82/cargodash/internal/config"
	"github.com/five82/cargodash/internal/section"
)

// controller owns one section pane: its inputs, its view-model, and the
// jobs that fill it. Controllers run only on the update loop; job.run is
// the one piece that executes elsewhere and must not touch controller state.
type controller interface {
	// setup builds the pane inputs. The registry calls it once.
	setup()
	// refresh returns the job that reloads the pane, or nil when the pane
	// has nothing to fetch.
	refresh() *job
	handleKey(msg tea.KeyMsg) tea.Cmd
	// editing reports whether a text input owns the keyboard.
	editing() bool
	hints() []hint
	view(width, height int, theme Theme) string
}

// resizer is implemented by controllers that hold sized widgets.
type resizer interface {
	resize(width, height int)
}

// job is one asynchronous unit of work on a section. run executes off the
// update loop; apply renders its value back on it.
type job struct {
	section  section.ID
	label    string
	mutation bool
	run      func(ctx context.Context) (any, error)
	apply    func(value any) tea.Cmd
}

// hint is one key/description pair for the command bar.
type hint struct{ key, desc string }

// deps are shared by every controller.
type deps struct {
	client cargo.API
	config config.Config
	keys   keyMap
	now    func() time.Time
}

type sectionDef struct {
	id    section.ID
	title string
	build func(d *deps) controller
}

// sectionTable lists the dashboard sections in navigation order.
var sectionTable = []sectionDef{
	{section.Overview, "Overview", func(d *deps) controller { return newOverviewPane(d) }},
	{section.Containers, "Containers", func(d *deps) controller { return newContainersPane(d) }},
	{section.Items, "Items", func(d *deps) controller { return newItemsPane(d) }},
	{section.Placement, "Placement", func(d *deps) controller { return newPlacementPane(d) }},
	{section.SearchRetrieve, "Search & Retrieve", func(d *deps) controller { return newRetrievePane(d) }},
	{section.Waste, "Waste", func(d *deps) controller { return newWastePane(d) }},
	{section.Simulation, "Simulation", func(d *deps) controller { return newSimulationPane(d) }},
	{section.ImportExport, "Import/Export", func(d *deps) controller { return newTransferPane(d) }},
	{section.Logs, "Logs", func(d *deps) controller { return newActivityPane(d) }},
}

// Messages

type activateMsg struct{ id section.ID }

type refreshMsg struct{ id section.ID }

type jobMsg struct{ job *job }

type jobDoneMsg struct {
	token *section.Token
	job   *job
	value any
	err   error
}

type notifyMsg struct {
	severity section.Severity
	text     string
}

type dismissMsg struct{ id uint64 }

type confirmMsg struct {
	prompt string
	onYes  tea.Cmd
}

type clockMsg struct{}

type tickMsg struct{}

type spinMsg struct{}

// Commands

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

func startJob(j *job) tea.Cmd {
	return emit(jobMsg{job: j})
}

func refreshSection(id section.ID) tea.Cmd {
	return emit(refreshMsg{id: id})
}

func notifySuccess(text string) tea.Cmd {
	return emit(notifyMsg{severity: section.SeveritySuccess, text: text})
}

func notifyError(text string) tea.Cmd {
	return emit(notifyMsg{severity: section.SeverityError, text: text})
}

func confirm(prompt string, onYes tea.Cmd) tea.Cmd {
	return emit(confirmMsg{prompt: prompt, onYes: onYes})
}

// succeed notifies and reloads id, the usual tail of a mutation.
func succeed(id section.ID, text string) tea.Cmd {
	return tea.Batch(notifySuccess(text), refreshSection(id))
}
