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

type placementResult struct {
	itemID      string
	containerID string
	resp        cargo.PlacementResponse
}

// placementPane asks the API where an item should go.
type placementPane struct {
	d      *deps
	form   *form
	result *placementResult
}

func newPlacementPane(d *deps) *placementPane {
	return &placementPane{d: d}
}

func (p *placementPane) setup() {
	p.form = newForm("Placement recommendation",
		spec(forms.Text("itemId", "Item ID").Required(), "001"),
		spec(forms.Text("containerId", "Container hint"), "optional"),
	)
}

// refresh has nothing to fetch until a request was made; afterwards it
// repeats the last request.
func (p *placementPane) refresh() *job {
	if p.result == nil {
		return nil
	}
	return p.lookup(p.result.itemID, p.result.containerID)
}

func (p *placementPane) lookup(itemID, containerID string) *job {
	client := p.d.client
	return &job{
		section: section.Placement,
		label:   "placement lookup",
		run: func(ctx context.Context) (any, error) {
			resp, err := client.Placement(ctx, itemID, containerID)
			if err != nil {
				return nil, err
			}
			return &placementResult{itemID: itemID, containerID: containerID, resp: resp}, nil
		},
		apply: func(value any) tea.Cmd {
			p.result = value.(*placementResult)
			return nil
		},
	}
}

func (p *placementPane) editing() bool { return p.form != nil && p.form.active }

func (p *placementPane) handleKey(msg tea.KeyMsg) tea.Cmd {
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
		return startJob(p.lookup(res.String("itemId"), res.String("containerId")))
	}
	if key.Matches(msg, p.d.keys.Add) || key.Matches(msg, p.d.keys.Confirm) {
		p.form.open()
	}
	return nil
}

func (p *placementPane) hints() []hint {
	if p.editing() {
		return formHints()
	}
	return []hint{{"a", "Request"}}
}

func (p *placementPane) view(width, height int, theme Theme) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(p.form.view(theme))
	b.WriteString("\n\n")

	if p.result == nil {
		b.WriteString(styles.MutedText.Render("Enter an item ID to get placement recommendations."))
		return b.String()
	}

	b.WriteString(styles.AccentText.Bold(true).Render("Recommendations for " + p.result.itemID))
	b.WriteString("\n")
	recs := p.result.resp.Recommendations
	if len(recs) == 0 {
		msg := p.result.resp.Message
		if msg == "" {
			msg = "No placement recommendation available"
		}
		b.WriteString(styles.WarningText.Render(msg))
		return b.String()
	}
	for i, r := range recs {
		line := fmt.Sprintf("%d. %s (%s)", i+1, r.ContainerID, orDash(r.Zone))
		b.WriteString(styles.Text.Render(line))
		if r.Reason != "" {
			b.WriteString(styles.FaintText.Render("  " + truncate(r.Reason, width-len(line)-2)))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
