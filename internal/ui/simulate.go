package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/cargodash/internal/cargo"
	"github.com/five82/cargodash/internal/forms"
	"github.com/five82/cargodash/internal/section"
)

// simulationFixedFields counts the form fields before the item rows.
const simulationFixedFields = 2

// simulationPane advances simulated time and shows what changed.
type simulationPane struct {
	d      *deps
	form   *form
	rows   int
	result *cargo.SimulationResponse
}

func newSimulationPane(d *deps) *simulationPane {
	return &simulationPane{d: d}
}

func (p *simulationPane) setup() {
	p.form = newForm("Advance time",
		spec(forms.Int("numOfDays", "Days").Min(1), "1"),
		spec(forms.Timestamp("toTimestamp", "Or until"), "YYYY-MM-DDTHH:MM:SS"),
	)
	p.addRow()
}

func (p *simulationPane) addRow() {
	p.rows++
	field := fmt.Sprintf("item%d", p.rows)
	p.form.add(spec(forms.Text(field, fmt.Sprintf("Item used #%d", p.rows)), "item id"))
}

func (p *simulationPane) removeRow() {
	if p.rows > 1 && p.form.removeLast(simulationFixedFields+1) {
		p.rows--
	}
}

// refresh has nothing to fetch; results arrive only from submissions.
func (p *simulationPane) refresh() *job { return nil }

func (p *simulationPane) editing() bool { return p.form != nil && p.form.active }

func (p *simulationPane) handleKey(msg tea.KeyMsg) tea.Cmd {
	if p.editing() {
		submit, cmd := p.form.handleKey(msg)
		if submit {
			return p.submit()
		}
		return cmd
	}
	switch {
	case key.Matches(msg, p.d.keys.Add), key.Matches(msg, p.d.keys.Confirm):
		p.form.open()
	case msg.String() == "+":
		p.addRow()
		p.form.open()
		p.form.setFocus(len(p.form.fields) - 1)
	case msg.String() == "-":
		p.removeRow()
	}
	return nil
}

// request validates the form and builds the simulation body.
func (p *simulationPane) request() (cargo.SimulationRequest, tea.Cmd, bool) {
	res, cmd, ok := p.form.validate()
	if !ok {
		return cargo.SimulationRequest{}, cmd, false
	}
	hasDays, hasUntil := res.Has("numOfDays"), res.Has("toTimestamp")
	switch {
	case !hasDays && !hasUntil:
		return cargo.SimulationRequest{}, notifyError(p.form.title + ": Days or a target timestamp is required"), false
	case hasDays && hasUntil:
		return cargo.SimulationRequest{}, notifyError(p.form.title + ": Use days or a target timestamp, not both"), false
	}
	req := cargo.SimulationRequest{
		NumOfDays:           res.Int("numOfDays"),
		ToTimestamp:         res.String("toTimestamp"),
		ItemsToBeUsedPerDay: []cargo.ItemRef{},
	}
	for i := 1; i <= p.rows; i++ {
		if id := res.String(fmt.Sprintf("item%d", i)); id != "" {
			req.ItemsToBeUsedPerDay = append(req.ItemsToBeUsedPerDay, cargo.ItemRef{ItemID: id})
		}
	}
	return req, nil, true
}

func (p *simulationPane) submit() tea.Cmd {
	req, cmd, ok := p.request()
	if !ok {
		return cmd
	}
	client := p.d.client
	return startJob(&job{
		section:  section.Simulation,
		label:    "simulation",
		mutation: true,
		run: func(ctx context.Context) (any, error) {
			return client.Simulate(ctx, req)
		},
		apply: func(value any) tea.Cmd {
			resp := value.(cargo.SimulationResponse)
			p.result = &resp
			p.form.close()
			return notifySuccess("Simulated to " + resp.NewDate)
		},
	})
}

func (p *simulationPane) hints() []hint {
	if p.editing() {
		return formHints()
	}
	return []hint{{"a", "Edit"}, {"+", "Add item"}, {"-", "Remove item"}}
}

func (p *simulationPane) view(width, height int, theme Theme) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(p.form.view(theme))
	if p.result == nil {
		return b.String()
	}
	b.WriteString("\n\n")
	b.WriteString(renderSimulation(*p.result, styles))
	return b.String()
}

// renderSimulation lists only the change groups that are non-empty.
func renderSimulation(resp cargo.SimulationResponse, styles Styles) string {
	var b strings.Builder
	b.WriteString(styles.MutedText.Render("New date: "))
	b.WriteString(styles.Text.Bold(true).Render(resp.NewDate))

	c := resp.Changes
	if c.Empty() {
		b.WriteString("\n" + styles.MutedText.Render("No changes"))
		return b.String()
	}
	group := func(title string, items []cargo.SimulatedItem, describe func(cargo.SimulatedItem) string) {
		if len(items) == 0 {
			return
		}
		b.WriteString("\n\n")
		b.WriteString(styles.AccentText.Bold(true).Render(title))
		for _, it := range items {
			b.WriteString("\n")
			b.WriteString(styles.Text.Render("• " + describe(it)))
		}
	}
	group("Items Used", c.ItemsUsed, func(it cargo.SimulatedItem) string {
		if it.RemainingUses == nil {
			return fmt.Sprintf("%s %s", it.ItemID, it.Name)
		}
		return fmt.Sprintf("%s %s (%d uses left)", it.ItemID, it.Name, *it.RemainingUses)
	})
	group("Items Expired", c.ItemsExpired, func(it cargo.SimulatedItem) string {
		return fmt.Sprintf("%s %s expired %s", it.ItemID, it.Name, orDash(it.ExpiryDate))
	})
	group("Items Depleted", c.ItemsDepletedToday, func(it cargo.SimulatedItem) string {
		return fmt.Sprintf("%s %s", it.ItemID, it.Name)
	})
	return b.String()
}
