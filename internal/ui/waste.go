package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/cargodash/internal/cargo"
	"github.com/five82/cargodash/internal/forms"
	"github.com/five82/cargodash/internal/section"
)

// wastePane lists waste, builds return plans and completes undocking.
type wastePane struct {
	d       *deps
	waste   []cargo.WasteItem
	plan    *cargo.ReturnPlanResponse
	removed *int
	sel     selection

	planForm   *form
	undockForm *form
}

func newWastePane(d *deps) *wastePane {
	return &wastePane{d: d}
}

func (p *wastePane) setup() {
	p.planForm = newForm("Return plan",
		spec(forms.Text("undockingContainerId", "Undocking container").Required(), "contA"),
		spec(forms.Date("undockingDate", "Undocking date").Required(), "YYYY-MM-DD"),
		spec(forms.Decimal("maxWeight", "Max weight (kg)").Required().Min(0), "100"),
	)
	p.undockForm = newForm("Complete undocking",
		spec(forms.Text("undockingContainerId", "Undocking container").Required(), "contA"),
		spec(forms.Timestamp("timestamp", "Timestamp").Required(), "YYYY-MM-DDTHH:MM:SS"),
	)
}

func (p *wastePane) refresh() *job {
	client := p.d.client
	return &job{
		section: section.Waste,
		label:   "load",
		run: func(ctx context.Context) (any, error) {
			return client.IdentifyWaste(ctx)
		},
		apply: func(value any) tea.Cmd {
			p.waste = value.([]cargo.WasteItem)
			p.sel.fit(len(p.waste))
			return nil
		},
	}
}

func (p *wastePane) activeForm() *form {
	switch {
	case p.planForm != nil && p.planForm.active:
		return p.planForm
	case p.undockForm != nil && p.undockForm.active:
		return p.undockForm
	}
	return nil
}

func (p *wastePane) editing() bool { return p.activeForm() != nil }

func (p *wastePane) handleKey(msg tea.KeyMsg) tea.Cmd {
	if f := p.activeForm(); f != nil {
		submit, cmd := f.handleKey(msg)
		if !submit {
			return cmd
		}
		if f == p.planForm {
			return p.submitPlan()
		}
		return p.submitUndock()
	}
	if p.sel.move(msg, p.d.keys, len(p.waste)) {
		return nil
	}
	switch msg.String() {
	case "p":
		p.planForm.open()
	case "u":
		if id := p.planForm.value("undockingContainerId"); id != "" && p.undockForm.value("undockingContainerId") == "" {
			p.undockForm.set("undockingContainerId", id)
		}
		p.undockForm.open()
	}
	return nil
}

func (p *wastePane) submitPlan() tea.Cmd {
	res, cmd, ok := p.planForm.validate()
	if !ok {
		return cmd
	}
	req := cargo.ReturnPlanRequest{
		UndockingContainerID: res.String("undockingContainerId"),
		UndockingDate:        res.String("undockingDate"),
		MaxWeight:            res.Float("maxWeight"),
	}
	client := p.d.client
	return startJob(&job{
		section:  section.Waste,
		label:    "return plan",
		mutation: true,
		run: func(ctx context.Context) (any, error) {
			return client.ReturnPlan(ctx, req)
		},
		apply: func(value any) tea.Cmd {
			plan := value.(cargo.ReturnPlanResponse)
			p.plan = &plan
			p.planForm.close()
			return notifySuccess(fmt.Sprintf("Return plan for %s: %d item(s)",
				req.UndockingContainerID, len(plan.ReturnManifest.ReturnItems)))
		},
	})
}

func (p *wastePane) submitUndock() tea.Cmd {
	res, cmd, ok := p.undockForm.validate()
	if !ok {
		return cmd
	}
	req := cargo.UndockingRequest{
		UndockingContainerID: res.String("undockingContainerId"),
		Timestamp:            res.String("timestamp"),
	}
	client := p.d.client
	undock := startJob(&job{
		section:  section.Waste,
		label:    "undocking",
		mutation: true,
		run: func(ctx context.Context) (any, error) {
			return client.CompleteUndocking(ctx, req)
		},
		apply: func(value any) tea.Cmd {
			n := value.(cargo.UndockingResponse).ItemsRemoved
			p.removed = &n
			p.plan = nil
			p.undockForm.reset()
			p.undockForm.close()
			return succeed(section.Waste, fmt.Sprintf("Undocking complete: %d item(s) removed", n))
		},
	})
	return confirm(fmt.Sprintf("Complete undocking of %s?", req.UndockingContainerID), undock)
}

func (p *wastePane) hints() []hint {
	if p.editing() {
		return formHints()
	}
	return []hint{{"p", "Return plan"}, {"u", "Undock"}, {"j/k", "Select"}}
}

func (p *wastePane) view(width, height int, theme Theme) string {
	styles := theme.Styles()
	var b strings.Builder
	if f := p.activeForm(); f != nil {
		b.WriteString(f.view(theme))
		b.WriteString("\n\n")
	}

	if p.removed != nil {
		b.WriteString(styles.SuccessText.Render(fmt.Sprintf("Last undocking removed %d item(s)", *p.removed)))
		b.WriteString("\n\n")
	}

	b.WriteString(styles.AccentText.Bold(true).Render("Waste items"))
	b.WriteString("\n")
	if len(p.waste) == 0 {
		b.WriteString(styles.SuccessText.Render("No waste items"))
	} else {
		widths := []int{10, 24, 18, 14}
		b.WriteString(styles.FaintText.Render(fitColumns([]string{"ID", "Name", "Reason", "Container"}, widths)))
		for i, w := range p.waste {
			row := fitColumns([]string{w.ItemID, w.Name, w.Reason, orDash(w.ContainerID)}, widths)
			b.WriteString("\n")
			if i == p.sel.idx && !p.editing() {
				b.WriteString(styles.Selected.Render(padRight(row, width)))
			} else {
				b.WriteString(styles.Text.Render(row))
			}
		}
	}

	if p.plan != nil {
		b.WriteString("\n\n")
		b.WriteString(renderReturnPlan(*p.plan, styles))
	}
	return b.String()
}

// renderReturnPlan renders the manifest totals, its items and the ordered
// retrieval steps.
func renderReturnPlan(plan cargo.ReturnPlanResponse, styles Styles) string {
	var b strings.Builder
	m := plan.ReturnManifest
	b.WriteString(styles.AccentText.Bold(true).Render("Return manifest"))
	if m.UndockingContainerID != "" {
		b.WriteString(styles.MutedText.Render(fmt.Sprintf("  %s %s", m.UndockingContainerID, m.UndockingDate)))
	}
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("Total volume: "))
	b.WriteString(styles.Text.Render(formatQuantity(m.TotalVolume)))
	b.WriteString(styles.MutedText.Render("   Total weight: "))
	b.WriteString(styles.Text.Render(formatQuantity(m.TotalWeight) + " kg"))
	if len(m.ReturnItems) == 0 {
		b.WriteString("\n" + styles.MutedText.Render("No items selected for return"))
	}
	for _, it := range m.ReturnItems {
		b.WriteString("\n")
		b.WriteString(styles.Text.Render(fmt.Sprintf("• %s %s", it.ItemID, it.Name)))
	}

	if len(plan.RetrievalSteps) > 0 {
		b.WriteString("\n\n")
		b.WriteString(styles.AccentText.Bold(true).Render("Retrieval steps"))
		for _, s := range plan.RetrievalSteps {
			b.WriteString("\n")
			b.WriteString(styles.Text.Render(fmt.Sprintf("%d. %s %s (%s)", s.Step, s.Action, s.ItemName, s.ItemID)))
		}
	}
	return b.String()
}
