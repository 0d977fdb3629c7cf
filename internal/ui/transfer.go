package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/cargodash/internal/cargo"
	"github.com/five82/cargodash/internal/config"
	"github.com/five82/cargodash/internal/forms"
	"github.com/five82/cargodash/internal/section"
)

type importOutcome struct {
	kind cargo.ImportKind
	file string
	resp cargo.ImportResponse
}

type exportOutcome struct {
	path  string
	bytes int64
}

// transferPane uploads CSV imports and downloads the arrangement export.
type transferPane struct {
	d        *deps
	kind     cargo.ImportKind
	form     *form
	imported *importOutcome
	exported *exportOutcome
}

func newTransferPane(d *deps) *transferPane {
	return &transferPane{d: d, kind: cargo.ImportItems}
}

func (p *transferPane) setup() {
	p.form = newForm("Import CSV", spec(forms.Text("file", "CSV file").Required(), "~/cargo/items.csv"))
}

// refresh has nothing to fetch.
func (p *transferPane) refresh() *job { return nil }

func (p *transferPane) editing() bool { return p.form != nil && p.form.active }

func (p *transferPane) handleKey(msg tea.KeyMsg) tea.Cmd {
	if p.editing() {
		submit, cmd := p.form.handleKey(msg)
		if submit {
			return p.submitImport()
		}
		return cmd
	}
	switch msg.String() {
	case "i":
		p.openImport(cargo.ImportItems)
	case "c":
		p.openImport(cargo.ImportContainers)
	case "x":
		return p.export()
	}
	return nil
}

func (p *transferPane) openImport(kind cargo.ImportKind) {
	p.kind = kind
	p.form.title = "Import " + string(kind) + " CSV"
	p.form.open()
}

func (p *transferPane) submitImport() tea.Cmd {
	res, cmd, ok := p.form.validate()
	if !ok {
		return cmd
	}
	path, err := config.ExpandPath(res.String("file"))
	if err != nil {
		return notifyError(p.form.title + ": " + err.Error())
	}
	kind := p.kind
	client := p.d.client
	return startJob(&job{
		section:  section.ImportExport,
		label:    "import " + string(kind),
		mutation: true,
		run: func(ctx context.Context) (any, error) {
			f, err := os.Open(path)
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", path, err)
			}
			defer f.Close()
			resp, err := client.Import(ctx, kind, path, f)
			if err != nil {
				return nil, err
			}
			return importOutcome{kind: kind, file: path, resp: resp}, nil
		},
		apply: func(value any) tea.Cmd {
			out := value.(importOutcome)
			p.imported = &out
			p.form.close()
			text := fmt.Sprintf("Imported %d %s from %s", out.resp.Imported(), out.kind, filepath.Base(out.file))
			if !out.resp.Success || len(out.resp.Errors) > 0 {
				return notifyError(fmt.Sprintf("%s with %d row error(s)", text, len(out.resp.Errors)))
			}
			return notifySuccess(text)
		},
	})
}

func (p *transferPane) export() tea.Cmd {
	path := p.d.config.ExportPath(cargo.ExportFilename)
	client := p.d.client
	return startJob(&job{
		section:  section.ImportExport,
		label:    "export",
		mutation: true,
		run: func(ctx context.Context) (any, error) {
			n, err := cargo.SaveArrangement(ctx, client, path)
			if err != nil {
				return nil, err
			}
			return exportOutcome{path: path, bytes: n}, nil
		},
		apply: func(value any) tea.Cmd {
			out := value.(exportOutcome)
			p.exported = &out
			return notifySuccess(fmt.Sprintf("Exported arrangement to %s", out.path))
		},
	})
}

func (p *transferPane) hints() []hint {
	if p.editing() {
		return formHints()
	}
	return []hint{{"i", "Import items"}, {"c", "Import containers"}, {"x", "Export"}}
}

func (p *transferPane) view(width, height int, theme Theme) string {
	styles := theme.Styles()
	var b strings.Builder
	if p.editing() {
		b.WriteString(p.form.view(theme))
		b.WriteString("\n\n")
	}

	b.WriteString(styles.MutedText.Render("Export target: "))
	b.WriteString(styles.Text.Render(p.d.config.ExportPath(cargo.ExportFilename)))
	if p.exported != nil {
		b.WriteString("\n")
		b.WriteString(styles.SuccessText.Render(fmt.Sprintf("Last export: %d bytes", p.exported.bytes)))
	}

	if p.imported == nil {
		return b.String()
	}
	out := p.imported
	b.WriteString("\n\n")
	b.WriteString(styles.AccentText.Bold(true).Render(fmt.Sprintf("Last import (%s)", out.kind)))
	b.WriteString("\n")
	status := styles.SuccessText.Render("Success")
	if !out.resp.Success {
		status = styles.DangerText.Render("Failed")
	}
	b.WriteString(status)
	b.WriteString(styles.MutedText.Render(fmt.Sprintf("  %d imported from %s", out.resp.Imported(), filepath.Base(out.file))))
	if out.resp.Detail != "" {
		b.WriteString("\n" + styles.WarningText.Render(out.resp.Detail))
	}
	if len(out.resp.Errors) == 0 {
		return b.String()
	}
	b.WriteString("\n\n")
	b.WriteString(styles.DangerText.Render(fmt.Sprintf("%d row error(s)", len(out.resp.Errors))))
	for _, e := range out.resp.Errors {
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render(truncate(e.RowText(), width/2)))
		b.WriteString(styles.Text.Render("  " + e.Message))
	}
	return b.String()
}
