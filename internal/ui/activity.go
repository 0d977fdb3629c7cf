package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/cargodash/internal/cargo"
	"github.com/five82/cargodash/internal/forms"
	"github.com/five82/cargodash/internal/section"
)

// actionTypes are the filter values cycled with t. The empty value means all.
var actionTypes = []string{"", "placement", "retrieval", "disposal"}

// activityPane shows the activity log in a scrollable viewport.
type activityPane struct {
	d       *deps
	form    *form
	query   cargo.LogQuery
	action  int
	entries []cargo.LogEntry
	vp      viewport.Model
	width   int
}

func newActivityPane(d *deps) *activityPane {
	return &activityPane{d: d, vp: viewport.New(80, 10)}
}

func (p *activityPane) setup() {
	p.form = newForm("Filter logs",
		spec(forms.Date("startDate", "From"), "YYYY-MM-DD"),
		spec(forms.Date("endDate", "To"), "YYYY-MM-DD"),
		spec(forms.Text("itemId", "Item ID"), "any"),
		spec(forms.Text("userId", "User ID"), "any"),
	)
}

func (p *activityPane) resize(width, height int) {
	p.width = width
	p.vp.Width = width
	p.vp.Height = maxInt(height-2, 1)
	p.sync()
}

func (p *activityPane) refresh() *job {
	client := p.d.client
	query := p.query
	query.ActionType = actionTypes[p.action]
	return &job{
		section: section.Logs,
		label:   "load",
		run: func(ctx context.Context) (any, error) {
			entries, err := client.Logs(ctx, query)
			if err != nil {
				return nil, err
			}
			cargo.SortLogs(entries)
			return entries, nil
		},
		apply: func(value any) tea.Cmd {
			p.entries = value.([]cargo.LogEntry)
			p.sync()
			p.vp.GotoTop()
			return nil
		},
	}
}

func (p *activityPane) editing() bool { return p.form != nil && p.form.active }

func (p *activityPane) handleKey(msg tea.KeyMsg) tea.Cmd {
	if p.editing() {
		submit, cmd := p.form.handleKey(msg)
		if !submit {
			return cmd
		}
		res, cmd, ok := p.form.validate()
		if !ok {
			return cmd
		}
		p.form.close()
		p.query = cargo.LogQuery{
			StartDate: res.String("startDate"),
			EndDate:   res.String("endDate"),
			ItemID:    res.String("itemId"),
			UserID:    res.String("userId"),
		}
		return refreshSection(section.Logs)
	}
	switch msg.String() {
	case "f", "/":
		p.form.open()
		return nil
	case "t":
		p.action = (p.action + 1) % len(actionTypes)
		return refreshSection(section.Logs)
	case "x":
		p.form.reset()
		p.query = cargo.LogQuery{}
		p.action = 0
		return refreshSection(section.Logs)
	}
	var cmd tea.Cmd
	p.vp, cmd = p.vp.Update(msg)
	return cmd
}

func (p *activityPane) hints() []hint {
	if p.editing() {
		return formHints()
	}
	return []hint{{"f", "Filter"}, {"t", "Action"}, {"x", "Clear"}, {"j/k", "Scroll"}}
}

// filterSummary describes the active filters in one line.
func (p *activityPane) filterSummary() string {
	var parts []string
	add := func(label, value string) {
		if value != "" {
			parts = append(parts, label+"="+value)
		}
	}
	add("from", p.query.StartDate)
	add("to", p.query.EndDate)
	add("item", p.query.ItemID)
	add("user", p.query.UserID)
	add("action", actionTypes[p.action])
	if len(parts) == 0 {
		return "All activity"
	}
	return strings.Join(parts, "  ")
}

var activityWidths = []int{20, 10, 11, 10}

type activityRow struct {
	columns string
	detail  string
}

func (p *activityPane) rows() []activityRow {
	detailWidth := maxInt(p.width-(20+10+11+10+4), 10)
	out := make([]activityRow, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, activityRow{
			columns: fitColumns([]string{e.Timestamp, orDash(e.UserID), e.ActionType, orDash(e.ItemID)}, activityWidths),
			detail:  truncate(e.DetailsText(), detailWidth),
		})
	}
	return out
}

// sync feeds the viewport the plain rows so it knows the scroll range. The
// styled rows are produced in view from the same data.
func (p *activityPane) sync() {
	rows := p.rows()
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = r.columns + " " + r.detail
	}
	p.vp.SetContent(strings.Join(lines, "\n"))
}

func (p *activityPane) renderEntries(theme Theme) string {
	styles := theme.Styles()
	rows := p.rows()
	if len(rows) == 0 {
		return styles.MutedText.Render("No log entries")
	}
	start := min(p.vp.YOffset, len(rows))
	end := min(start+p.vp.Height, len(rows))
	lines := make([]string, 0, end-start)
	for _, r := range rows[start:end] {
		lines = append(lines, styles.Text.Render(r.columns)+" "+styles.FaintText.Render(r.detail))
	}
	return strings.Join(lines, "\n")
}

func (p *activityPane) view(width, height int, theme Theme) string {
	styles := theme.Styles()
	var b strings.Builder
	if p.editing() {
		b.WriteString(p.form.view(theme))
		b.WriteString("\n\n")
	}
	b.WriteString(styles.InfoText.Render(p.filterSummary()))
	b.WriteString(styles.MutedText.Render(fmt.Sprintf("  %d entr%s", len(p.entries), plural(len(p.entries), "y", "ies"))))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(fitColumns([]string{"Timestamp", "User", "Action", "Item", "Details"}, []int{20, 10, 11, 10, 7})))
	b.WriteString("\n")
	b.WriteString(p.renderEntries(theme))
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
