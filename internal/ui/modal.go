package ui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/five82/cargodash/internal/section"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// confirmModal asks a yes/no question before a destructive action.
type confirmModal struct {
	prompt string
	onYes  tea.Cmd
}

func newConfirmModal(prompt string, onYes tea.Cmd) *confirmModal {
	return &confirmModal{prompt: prompt, onYes: onYes}
}

func (c *confirmModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch {
	case key.Matches(km, keys.Yes), key.Matches(km, keys.Confirm):
		return c, c.onYes, true
	case key.Matches(km, keys.No):
		return c, nil, true
	}
	return c, nil, false
}

func (c *confirmModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	body := styles.Text.Bold(true).Render(c.prompt) + "\n\n" +
		styles.AccentText.Render("y") + styles.MutedText.Render(" confirm   ") +
		styles.AccentText.Render("n") + styles.MutedText.Render(" cancel")
	return placeModal(theme, width, height, theme.Warning, body)
}

// paletteEntry is one section offered by the jump palette.
type paletteEntry struct {
	id    section.ID
	title string
}

// paletteModal narrows the section list with fuzzy matching as the user
// types and activates the highlighted section on enter.
type paletteModal struct {
	input    textinput.Model
	entries  []paletteEntry
	matches  []paletteEntry
	selected int
}

func newPaletteModal(entries []paletteEntry) *paletteModal {
	ti := newTextInput("section name", 32)
	ti.Prompt = ": "
	ti.Focus()
	p := &paletteModal{input: ti, entries: entries}
	p.filter()
	return p
}

// filter ranks entries against the query, best match first.
func (p *paletteModal) filter() {
	query := strings.TrimSpace(p.input.Value())
	p.selected = 0
	if query == "" {
		p.matches = append([]paletteEntry(nil), p.entries...)
		return
	}
	labels := make([]string, len(p.entries))
	for i, e := range p.entries {
		labels[i] = e.title + " " + string(e.id)
	}
	ranks := fuzzy.RankFindNormalizedFold(query, labels)
	// Stable keeps table order among equal distances.
	sort.Stable(ranks)
	p.matches = p.matches[:0]
	for _, rank := range ranks {
		p.matches = append(p.matches, p.entries[rank.OriginalIndex])
	}
}

func (p *paletteModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil, false
	}
	switch km.Type {
	case tea.KeyEsc:
		return p, nil, true
	case tea.KeyEnter:
		if len(p.matches) == 0 {
			return p, nil, true
		}
		return p, emit(activateMsg{id: p.matches[p.selected].id}), true
	case tea.KeyUp, tea.KeyCtrlP:
		if p.selected > 0 {
			p.selected--
		}
		return p, nil, false
	case tea.KeyDown, tea.KeyCtrlN:
		if p.selected < len(p.matches)-1 {
			p.selected++
		}
		return p, nil, false
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(km)
	p.filter()
	return p, cmd, false
}

func (p *paletteModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Jump to section"))
	b.WriteString("\n")
	b.WriteString(p.input.View())
	b.WriteString("\n\n")
	if len(p.matches) == 0 {
		b.WriteString(styles.MutedText.Render("No matching section"))
	}
	for i, e := range p.matches {
		line := e.title
		if i == p.selected {
			b.WriteString(styles.Selected.Render("> " + line))
		} else {
			b.WriteString(styles.Text.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return placeModal(theme, width, height, theme.Accent, b.String())
}

// placeModal centres a bordered dialog on the screen.
func placeModal(theme Theme, width, height int, border, body string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Padding(1, 2).
		Width(48).
		Render(body)
	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
