package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/five82/cargodash/internal/cargo"
	"github.com/five82/cargodash/internal/section"
)

type overviewData struct {
	items      []cargo.Item
	containers []cargo.Container
	waste      []cargo.WasteItem
}

// overviewPane summarises inventory counts, containers and waste alerts.
type overviewPane struct {
	d      *deps
	data   overviewData
	loaded bool
}

func newOverviewPane(d *deps) *overviewPane {
	return &overviewPane{d: d}
}

func (p *overviewPane) setup() {}

func (p *overviewPane) refresh() *job {
	client := p.d.client
	return &job{
		section: section.Overview,
		label:   "load",
		run: func(ctx context.Context) (any, error) {
			var data overviewData
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				items, err := client.ListItems(ctx, "")
				data.items = items
				return err
			})
			g.Go(func() error {
				containers, err := client.ListContainers(ctx)
				data.containers = containers
				return err
			})
			g.Go(func() error {
				waste, err := client.IdentifyWaste(ctx)
				data.waste = waste
				return err
			})
			if err := g.Wait(); err != nil {
				return nil, err
			}
			return data, nil
		},
		apply: func(value any) tea.Cmd {
			p.data = value.(overviewData)
			p.loaded = true
			return nil
		},
	}
}

func (p *overviewPane) handleKey(tea.KeyMsg) tea.Cmd { return nil }

func (p *overviewPane) editing() bool { return false }

func (p *overviewPane) hints() []hint {
	return []hint{{"2", "Containers"}, {"3", "Items"}, {"6", "Waste"}}
}

func (p *overviewPane) view(width, height int, theme Theme) string {
	styles := theme.Styles()
	if !p.loaded {
		return styles.MutedText.Render("Waiting for inventory...")
	}

	var b strings.Builder
	b.WriteString(styles.MutedText.Render("Items: "))
	b.WriteString(styles.Text.Bold(true).Render(fmt.Sprintf("%d", len(p.data.items))))
	b.WriteString("   ")
	b.WriteString(styles.MutedText.Render("Containers: "))
	b.WriteString(styles.Text.Bold(true).Render(fmt.Sprintf("%d", len(p.data.containers))))
	b.WriteString("\n")

	if n := len(p.data.waste); n > 0 {
		b.WriteString(styles.WarningText.Render(fmt.Sprintf("⚠ %d waste item(s) need attention", n)))
	} else {
		b.WriteString(styles.SuccessText.Render("No waste items"))
	}
	b.WriteString("\n\n")

	b.WriteString(styles.AccentText.Bold(true).Render("Containers"))
	b.WriteString("\n")
	if len(p.data.containers) == 0 {
		b.WriteString(styles.MutedText.Render("No containers registered"))
		return b.String()
	}
	widths := []int{16, 16, 20}
	b.WriteString(styles.FaintText.Render(fitColumns([]string{"ID", "Zone", "W×D×H"}, widths)))
	rows := p.data.containers
	if limit := height - 6; limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	for _, c := range rows {
		b.WriteString("\n")
		b.WriteString(styles.Text.Render(fitColumns([]string{
			c.ContainerID, c.Zone, fmt.Sprintf("%d×%d×%d", c.Width, c.Depth, c.Height),
		}, widths)))
	}
	if hidden := len(p.data.containers) - len(rows); hidden > 0 {
		b.WriteString("\n" + styles.FaintText.Render(fmt.Sprintf("… %d more", hidden)))
	}
	return b.String()
}
