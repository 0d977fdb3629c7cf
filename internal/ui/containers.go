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

// containersPane lists containers and creates or deletes them.
type containersPane struct {
	d          *deps
	containers []cargo.Container
	sel        selection
	form       *form
}

func newContainersPane(d *deps) *containersPane {
	return &containersPane{d: d}
}

func (p *containersPane) setup() {
	p.form = newForm("Add container",
		spec(forms.Text("containerId", "Container ID").Required(), "contA"),
		spec(forms.Text("zone", "Zone").Required(), "Crew Quarters"),
		spec(forms.Int("width", "Width (cm)").Required().Min(1), "100"),
		spec(forms.Int("depth", "Depth (cm)").Required().Min(1), "85"),
		spec(forms.Int("height", "Height (cm)").Required().Min(1), "200"),
	)
}

func (p *containersPane) refresh() *job {
	client := p.d.client
	return &job{
		section: section.Containers,
		label:   "load",
		run: func(ctx context.Context) (any, error) {
			return client.ListContainers(ctx)
		},
		apply: func(value any) tea.Cmd {
			p.containers = value.([]cargo.Container)
			p.sel.fit(len(p.containers))
			return nil
		},
	}
}

func (p *containersPane) editing() bool {
	return p.form != nil && p.form.active
}

func (p *containersPane) handleKey(msg tea.KeyMsg) tea.Cmd {
	if p.editing() {
		submit, cmd := p.form.handleKey(msg)
		if submit {
			return p.submit()
		}
		return cmd
	}
	keys := p.d.keys
	if p.sel.move(msg, keys, len(p.containers)) {
		return nil
	}
	switch {
	case key.Matches(msg, keys.Add):
		p.form.open()
	case key.Matches(msg, keys.Delete):
		return p.confirmDelete()
	}
	return nil
}

func (p *containersPane) submit() tea.Cmd {
	res, cmd, ok := p.form.validate()
	if !ok {
		return cmd
	}
	c := cargo.Container{
		ContainerID: res.String("containerId"),
		Zone:        res.String("zone"),
		Width:       res.Int("width"),
		Depth:       res.Int("depth"),
		Height:      res.Int("height"),
	}
	client := p.d.client
	return startJob(&job{
		section:  section.Containers,
		label:    "add container",
		mutation: true,
		run: func(ctx context.Context) (any, error) {
			return nil, client.CreateContainers(ctx, []cargo.Container{c})
		},
		apply: func(any) tea.Cmd {
			p.form.reset()
			p.form.close()
			return succeed(section.Containers, fmt.Sprintf("Container %s added", c.ContainerID))
		},
	})
}

func (p *containersPane) confirmDelete() tea.Cmd {
	if len(p.containers) == 0 {
		return nil
	}
	id := p.containers[p.sel.idx].ContainerID
	client := p.d.client
	del := startJob(&job{
		section:  section.Containers,
		label:    "delete container",
		mutation: true,
		run: func(ctx context.Context) (any, error) {
			return nil, client.DeleteContainer(ctx, id)
		},
		apply: func(any) tea.Cmd {
			return succeed(section.Containers, fmt.Sprintf("Container %s deleted", id))
		},
	})
	return confirm(fmt.Sprintf("Delete container %s?", id), del)
}

func (p *containersPane) hints() []hint {
	if p.editing() {
		return formHints()
	}
	return []hint{{"a", "Add"}, {"d", "Delete"}, {"j/k", "Select"}}
}

func (p *containersPane) view(width, height int, theme Theme) string {
	styles := theme.Styles()
	var b strings.Builder
	if p.editing() {
		b.WriteString(p.form.view(theme))
		b.WriteString("\n\n")
		height -= len(p.form.fields) + 2
	}
	if len(p.containers) == 0 {
		b.WriteString(styles.MutedText.Render("No containers"))
		return b.String()
	}

	widths := []int{16, 20, 8, 8, 8}
	b.WriteString(styles.FaintText.Render(fitColumns([]string{"ID", "Zone", "Width", "Depth", "Height"}, widths)))
	start, end := p.sel.window(len(p.containers), height-1)
	for i := start; i < end; i++ {
		c := p.containers[i]
		row := fitColumns([]string{
			c.ContainerID, c.Zone,
			fmt.Sprint(c.Width), fmt.Sprint(c.Depth), fmt.Sprint(c.Height),
		}, widths)
		b.WriteString("\n")
		if i == p.sel.idx && !p.editing() {
			b.WriteString(styles.Selected.Render(padRight(row, width)))
		} else {
			b.WriteString(styles.Text.Render(row))
		}
	}
	return b.String()
}
