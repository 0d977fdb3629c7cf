package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/cargodash/internal/cargo"
	"github.com/five82/cargodash/internal/filter"
	"github.com/five82/cargodash/internal/forms"
	"github.com/five82/cargodash/internal/section"
)

const (
	defaultPriority = 3
	minPriority     = 1
	maxPriority     = 5
)

// itemsPane lists items, narrowed by a server query and an optional local
// filter expression, and creates or deletes them.
type itemsPane struct {
	d      *deps
	items  []cargo.Item
	query  string
	filter filter.Filter
	shown  []cargo.Item
	sel    selection

	add    *form
	search *form
	expr   *form
}

func newItemsPane(d *deps) *itemsPane {
	return &itemsPane{d: d}
}

func (p *itemsPane) setup() {
	priority := spec(forms.Int("priority", "Priority (1-5)").Min(minPriority).Max(maxPriority), "3")
	priority.initial = fmt.Sprint(defaultPriority)
	p.add = newForm("Add item",
		spec(forms.Text("itemId", "Item ID").Required(), "001"),
		spec(forms.Text("name", "Name").Required(), "Food Packet"),
		spec(forms.Int("width", "Width (cm)").Required().Min(1), "10"),
		spec(forms.Int("depth", "Depth (cm)").Required().Min(1), "10"),
		spec(forms.Int("height", "Height (cm)").Required().Min(1), "20"),
		spec(forms.Decimal("mass", "Mass (kg)").Required().Min(0), "5"),
		priority,
		spec(forms.Date("expiryDate", "Expiry date"), "YYYY-MM-DD"),
		spec(forms.Int("usageLimit", "Usage limit").Min(0), "30"),
		spec(forms.Text("preferredZone", "Preferred zone").Required(), "Crew Quarters"),
	)
	p.search = newForm("Search items", spec(forms.Text("query", "Query"), "name or id"))
	p.expr = newForm("Filter", spec(forms.Text("expr", "Expression"), `priority >= 4 && preferredZone == "Lab"`))
}

func (p *itemsPane) refresh() *job {
	client := p.d.client
	query := p.query
	return &job{
		section: section.Items,
		label:   "load",
		run: func(ctx context.Context) (any, error) {
			return client.ListItems(ctx, query)
		},
		apply: func(value any) tea.Cmd {
			p.items = value.([]cargo.Item)
			return p.reapply()
		},
	}
}

// reapply recomputes the shown rows. A filter that fails on any item is
// dropped so the full list comes back with an error notice.
func (p *itemsPane) reapply() tea.Cmd {
	out, err := p.filter.Apply(p.items)
	if err != nil {
		source := p.filter.Source()
		p.filter = filter.Filter{}
		p.shown = p.items
		p.sel.fit(len(p.shown))
		return notifyError(fmt.Sprintf("Filter: %q cleared: %v", source, err))
	}
	p.shown = out
	p.sel.fit(len(p.shown))
	return nil
}

func (p *itemsPane) activeForm() *form {
	for _, f := range []*form{p.add, p.search, p.expr} {
		if f != nil && f.active {
			return f
		}
	}
	return nil
}

func (p *itemsPane) editing() bool {
	return p.activeForm() != nil
}

func (p *itemsPane) handleKey(msg tea.KeyMsg) tea.Cmd {
	if f := p.activeForm(); f != nil {
		submit, cmd := f.handleKey(msg)
		if !submit {
			return cmd
		}
		switch f {
		case p.search:
			return p.applySearch()
		case p.expr:
			return p.applyFilter()
		default:
			return p.submit()
		}
	}

	keys := p.d.keys
	if p.sel.move(msg, keys, len(p.shown)) {
		return nil
	}
	switch {
	case key.Matches(msg, keys.Add):
		p.add.open()
	case key.Matches(msg, keys.Delete):
		return p.confirmDelete()
	case msg.String() == "/":
		p.search.open()
	case msg.String() == "f":
		p.expr.open()
	}
	return nil
}

func (p *itemsPane) applySearch() tea.Cmd {
	p.query = strings.TrimSpace(p.search.value("query"))
	p.search.close()
	p.sel = selection{}
	return refreshSection(section.Items)
}

func (p *itemsPane) applyFilter() tea.Cmd {
	f, err := filter.Compile(p.expr.value("expr"))
	if err != nil {
		return notifyError("Filter: " + err.Error())
	}
	p.filter = f
	p.expr.close()
	return p.reapply()
}

func (p *itemsPane) submit() tea.Cmd {
	res, cmd, ok := p.add.validate()
	if !ok {
		return cmd
	}
	priority := res.Int("priority")
	if !res.Has("priority") {
		priority = defaultPriority
	}
	in := cargo.ItemInput{
		ItemID:        res.String("itemId"),
		Name:          res.String("name"),
		Width:         res.Int("width"),
		Depth:         res.Int("depth"),
		Height:        res.Int("height"),
		Mass:          res.Float("mass"),
		Priority:      priority,
		ExpiryDate:    res.String("expiryDate"),
		UsageLimit:    res.IntPtr("usageLimit"),
		PreferredZone: res.String("preferredZone"),
	}
	client := p.d.client
	return startJob(&job{
		section:  section.Items,
		label:    "add item",
		mutation: true,
		run: func(ctx context.Context) (any, error) {
			return nil, client.CreateItem(ctx, in)
		},
		apply: func(any) tea.Cmd {
			p.add.reset()
			p.add.close()
			return succeed(section.Items, fmt.Sprintf("Item %s added", in.ItemID))
		},
	})
}

func (p *itemsPane) confirmDelete() tea.Cmd {
	items := p.shown
	if len(items) == 0 {
		return nil
	}
	id := items[clamp(p.sel.idx, len(items))].ItemID
	client := p.d.client
	del := startJob(&job{
		section:  section.Items,
		label:    "delete item",
		mutation: true,
		run: func(ctx context.Context) (any, error) {
			return nil, client.DeleteItem(ctx, id)
		},
		apply: func(any) tea.Cmd {
			return succeed(section.Items, fmt.Sprintf("Item %s deleted", id))
		},
	})
	return confirm(fmt.Sprintf("Delete item %s?", id), del)
}

func (p *itemsPane) hints() []hint {
	if p.editing() {
		return formHints()
	}
	return []hint{{"a", "Add"}, {"d", "Delete"}, {"/", "Search"}, {"f", "Filter"}, {"j/k", "Select"}}
}

func (p *itemsPane) view(width, height int, theme Theme) string {
	styles := theme.Styles()
	var b strings.Builder
	if f := p.activeForm(); f != nil {
		b.WriteString(f.view(theme))
		b.WriteString("\n\n")
		height -= len(f.fields) + 2
	}

	var scope []string
	if p.query != "" {
		scope = append(scope, "query: "+p.query)
	}
	if !p.filter.Empty() {
		scope = append(scope, "filter: "+p.filter.Source())
	}
	if len(scope) > 0 {
		b.WriteString(styles.InfoText.Render(strings.Join(scope, "   ")))
		b.WriteString("\n")
		height--
	}

	items := p.shown
	if len(items) == 0 {
		b.WriteString(styles.MutedText.Render("No items"))
		return b.String()
	}

	wide := width >= LayoutWideWidth
	headers := []string{"ID", "Name", "W×D×H", "Mass", "Pri", "Zone"}
	widths := []int{10, 22, 14, 8, 4, 18}
	if wide {
		headers = append(headers, "Expiry", "Uses")
		widths = append(widths, 11, 5)
	}
	b.WriteString(styles.FaintText.Render(fitColumns(headers, widths)))
	start, end := p.sel.window(len(items), height-1)
	for i := start; i < end; i++ {
		it := items[i]
		cells := []string{
			it.ItemID, it.Name,
			fmt.Sprintf("%d×%d×%d", it.Width, it.Depth, it.Height),
			formatQuantity(it.Mass), fmt.Sprint(it.Priority), it.PreferredZone,
		}
		if wide {
			uses := "-"
			if it.UsageLimit != nil {
				uses = fmt.Sprint(*it.UsageLimit)
			}
			cells = append(cells, orDash(it.ExpiryDate), uses)
		}
		row := fitColumns(cells, widths)
		b.WriteString("\n")
		if i == p.sel.idx && !p.editing() {
			b.WriteString(styles.Selected.Render(padRight(row, width)))
		} else {
			b.WriteString(styles.Text.Render(row))
		}
	}
	return b.String()
}
