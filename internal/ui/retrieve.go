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

type lookupKind int

const (
	lookupNone lookupKind = iota
	lookupText
	lookupID
)

// lookupResult is the outcome of a search or an id lookup. A missing item
// is a result, not an error.
type lookupResult struct {
	kind     lookupKind
	term     string
	items    []cargo.Item
	item     *cargo.Item
	notFound bool
}

// lookupTarget is what the pane was last asked to show.
type lookupTarget struct {
	kind lookupKind
	term string
}

// retrievePane finds items by text or id and records retrievals.
type retrievePane struct {
	d      *deps
	want   lookupTarget
	result lookupResult
	sel    selection
	search *form
	byID   *form
}

func newRetrievePane(d *deps) *retrievePane {
	return &retrievePane{d: d}
}

func (p *retrievePane) setup() {
	p.search = newForm("Search items", spec(forms.Text("query", "Query").Required(), "name or id"))
	p.byID = newForm("Find item by ID", spec(forms.Text("itemId", "Item ID").Required(), "001"))
}

// refresh re-runs the latest request, which may be newer than the result
// on screen if it was superseded before it came back.
func (p *retrievePane) refresh() *job {
	switch p.want.kind {
	case lookupText:
		return p.searchJob(p.want.term)
	case lookupID:
		return p.lookupJob(p.want.term)
	}
	return nil
}

// request records the target and returns the job that fetches it.
func (p *retrievePane) request(kind lookupKind, term string) tea.Cmd {
	p.want = lookupTarget{kind: kind, term: term}
	if kind == lookupText {
		p.sel = selection{}
		return startJob(p.searchJob(term))
	}
	return startJob(p.lookupJob(term))
}

func (p *retrievePane) searchJob(query string) *job {
	client := p.d.client
	return &job{
		section: section.SearchRetrieve,
		label:   "search",
		run: func(ctx context.Context) (any, error) {
			items, err := client.ListItems(ctx, query)
			if err != nil {
				return nil, err
			}
			return lookupResult{kind: lookupText, term: query, items: items}, nil
		},
		apply: p.applyResult,
	}
}

func (p *retrievePane) lookupJob(id string) *job {
	client := p.d.client
	return &job{
		section: section.SearchRetrieve,
		label:   "item lookup",
		run: func(ctx context.Context) (any, error) {
			item, err := client.GetItem(ctx, id)
			if cargo.IsNotFound(err) {
				return lookupResult{kind: lookupID, term: id, notFound: true}, nil
			}
			if err != nil {
				return nil, err
			}
			return lookupResult{kind: lookupID, term: id, item: item}, nil
		},
		apply: p.applyResult,
	}
}

func (p *retrievePane) applyResult(value any) tea.Cmd {
	res := value.(lookupResult)
	if (lookupTarget{kind: res.kind, term: res.term}) != p.want {
		return nil
	}
	p.result = res
	p.sel.fit(len(p.result.items))
	return nil
}

func (p *retrievePane) activeForm() *form {
	switch {
	case p.search != nil && p.search.active:
		return p.search
	case p.byID != nil && p.byID.active:
		return p.byID
	}
	return nil
}

func (p *retrievePane) editing() bool { return p.activeForm() != nil }

func (p *retrievePane) handleKey(msg tea.KeyMsg) tea.Cmd {
	if f := p.activeForm(); f != nil {
		submit, cmd := f.handleKey(msg)
		if !submit {
			return cmd
		}
		res, cmd, ok := f.validate()
		if !ok {
			return cmd
		}
		f.close()
		if f == p.search {
			return p.request(lookupText, res.String("query"))
		}
		return p.request(lookupID, res.String("itemId"))
	}

	keys := p.d.keys
	if p.result.kind == lookupText && p.sel.move(msg, keys, len(p.result.items)) {
		return nil
	}
	switch {
	case msg.String() == "/":
		p.search.open()
	case msg.String() == "i":
		p.byID.open()
	case key.Matches(msg, keys.Confirm):
		if item := p.selected(); item != nil && p.result.kind == lookupText {
			return p.request(lookupID, item.ItemID)
		}
	case msg.String() == "R":
		return p.retrieve()
	}
	return nil
}

// selected returns the item a retrieval would act on.
func (p *retrievePane) selected() *cargo.Item {
	switch p.result.kind {
	case lookupID:
		return p.result.item
	case lookupText:
		if len(p.result.items) > 0 {
			return &p.result.items[clamp(p.sel.idx, len(p.result.items))]
		}
	}
	return nil
}

func (p *retrievePane) retrieve() tea.Cmd {
	item := p.selected()
	if item == nil {
		return notifyError("Retrieve: select an item first")
	}
	req := cargo.RetrieveRequest{
		ItemID:    item.ItemID,
		UserID:    p.d.config.UserID,
		Timestamp: p.d.now().Format(cargo.TimestampLayout),
	}
	client := p.d.client
	return startJob(&job{
		section:  section.SearchRetrieve,
		label:    "retrieve",
		mutation: true,
		run: func(ctx context.Context) (any, error) {
			return nil, client.Retrieve(ctx, req)
		},
		apply: func(any) tea.Cmd {
			return succeed(section.SearchRetrieve, fmt.Sprintf("Item %s retrieved by %s", req.ItemID, req.UserID))
		},
	})
}

func (p *retrievePane) hints() []hint {
	if p.editing() {
		return formHints()
	}
	hints := []hint{{"/", "Search"}, {"i", "By ID"}}
	if p.selected() != nil {
		hints = append(hints, hint{"R", "Retrieve"})
	}
	if p.result.kind == lookupText {
		hints = append(hints, hint{"enter", "Details"})
	}
	return hints
}

func (p *retrievePane) view(width, height int, theme Theme) string {
	styles := theme.Styles()
	var b strings.Builder
	if f := p.activeForm(); f != nil {
		b.WriteString(f.view(theme))
		b.WriteString("\n\n")
		height -= len(f.fields) + 2
	}

	switch p.result.kind {
	case lookupNone:
		b.WriteString(styles.MutedText.Render("Search by name with / or look up an item ID with i."))
	case lookupID:
		if p.result.notFound {
			b.WriteString(styles.WarningText.Render(fmt.Sprintf("Item %s not found", p.result.term)))
			break
		}
		b.WriteString(renderItemCard(*p.result.item, styles))
	case lookupText:
		b.WriteString(styles.InfoText.Render(fmt.Sprintf("Results for %q", p.result.term)))
		b.WriteString("\n")
		if len(p.result.items) == 0 {
			b.WriteString(styles.MutedText.Render("No matching items"))
			break
		}
		widths := []int{10, 28, 18, 6}
		b.WriteString(styles.FaintText.Render(fitColumns([]string{"ID", "Name", "Zone", "Pri"}, widths)))
		start, end := p.sel.window(len(p.result.items), height-2)
		for i := start; i < end; i++ {
			it := p.result.items[i]
			row := fitColumns([]string{it.ItemID, it.Name, it.PreferredZone, fmt.Sprint(it.Priority)}, widths)
			b.WriteString("\n")
			if i == p.sel.idx && !p.editing() {
				b.WriteString(styles.Selected.Render(padRight(row, width)))
			} else {
				b.WriteString(styles.Text.Render(row))
			}
		}
	}
	return b.String()
}

// renderItemCard renders the detail card for one item.
func renderItemCard(it cargo.Item, styles Styles) string {
	uses := "unlimited"
	if it.UsageLimit != nil {
		uses = fmt.Sprint(*it.UsageLimit)
	}
	rows := [][2]string{
		{"Item ID", it.ItemID},
		{"Name", it.Name},
		{"Dimensions", fmt.Sprintf("%d × %d × %d cm", it.Width, it.Depth, it.Height)},
		{"Mass", formatQuantity(it.Mass) + " kg"},
		{"Priority", fmt.Sprint(it.Priority)},
		{"Preferred zone", orDash(it.PreferredZone)},
		{"Expiry date", orDash(it.ExpiryDate)},
		{"Usage limit", uses},
	}
	label := styles.MutedText.Width(16)
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, label.Render(r[0])+styles.Text.Render(r[1]))
	}
	return strings.Join(lines, "\n")
}
