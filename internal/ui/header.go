package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/cargodash/internal/section"
)

// renderHeader renders the status bar: logo, API health, endpoint, clock.
func (m Model) renderHeader() string {
	// Header uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("cargodash", styles.Logo)}

	snap := m.snapshot
	switch {
	case m.store == nil:
	case !snap.Known():
		parts = append(parts, bg.Render("Connecting...", styles.WarningText.Bold(true)))
	case snap.IsOffline():
		parts = append(parts,
			bg.Render("● API "+classifyConnectionError(snap.LastError), styles.DangerText),
			bg.Render("Retrying...", styles.WarningText.Bold(true)))
	case !snap.Reachable:
		parts = append(parts, bg.Render("● API DEGRADED", styles.WarningText))
	default:
		parts = append(parts,
			bg.Render("● API ON", styles.SuccessText)+bg.Space()+
				bg.Render(snap.Latency.Round(time.Millisecond).String(), styles.FaintText))
	}

	if !compact {
		parts = append(parts,
			bg.Render("API:", styles.MutedText)+bg.Space()+
				bg.Render(truncate(m.config.APIBase, 40), styles.Text),
			bg.Render("User:", styles.MutedText)+bg.Space()+
				bg.Render(m.config.UserID, styles.Text))
	}

	parts = append(parts, bg.Render(m.now.Format("Mon 02 Jan 15:04"), styles.MutedText))

	if snap.LastError != nil && snap.Known() && !compact {
		parts = append(parts,
			bg.Render("ERROR", styles.DangerText.Bold(true))+bg.Space()+
				bg.Render(truncate(snap.LastError.Error(), 60), styles.DangerText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// classifyConnectionError returns a short description of the connection error.
func classifyConnectionError(err error) string {
	if err == nil {
		return "OFF"
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the key hints for the active pane.
func (m Model) renderCommandBar() string {
	// Command bar uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	var commands []hint
	if ctrl := m.activeController(); ctrl != nil {
		commands = append(commands, ctrl.hints()...)
		if !ctrl.editing() {
			commands = append(commands,
				hint{"r", "Refresh"},
				hint{":", "Jump"},
				hint{"Tab", "Next"},
				hint{"?", "More"})
		}
	}

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	// Add theme indicator
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, sep))
}

// renderTabs renders the numbered section strip with the active one marked.
func (m Model) renderTabs() string {
	styles := m.theme.Styles().WithBackground(m.theme.Background)
	bg := NewBgStyle(m.theme.Background)
	active := m.registry.Active()

	tabs := make([]string, 0, len(m.registry.IDs()))
	for i, id := range m.registry.IDs() {
		label := fmt.Sprintf("%d %s", i+1, m.registry.Title(id))
		if m.registry.Loading(id) {
			label += " " + m.spinnerFrame()
		}
		if id == active {
			tabs = append(tabs, styles.Selected.Bold(true).Padding(0, 1).Render(label))
			continue
		}
		style := styles.MutedText
		if m.registry.Status(id) == section.StatusError {
			style = styles.DangerText
		}
		tabs = append(tabs, bg.Spaces(1)+bg.Render(label, style)+bg.Spaces(1))
	}
	return bg.FillLine(strings.Join(tabs, bg.Sep("│")), m.width)
}

// renderPane draws the active section inside a titled box, with its load
// status above the pane body.
func (m Model) renderPane() string {
	id := m.registry.Active()
	ctrl := m.controllers[id]
	w, h := m.paneSize()
	if ctrl == nil {
		return m.renderTitledBox("cargodash", "", w+2, h+2, true)
	}

	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	status := m.registry.Status(id)
	line := styles.StatusStyle(status).Render(status.String())
	switch {
	case m.registry.Loading(id):
		line += " " + styles.AccentText.Render(m.spinnerFrame()+" Loading...")
	case status == section.StatusError:
		if err := m.registry.LastError(id); err != nil {
			line += " " + styles.DangerText.Render(truncate(err.Error(), w-12))
		}
	}

	body := ctrl.view(w, h-2, m.theme)
	return m.renderTitledBox(m.registry.Title(id), line+"\n\n"+body, w+2, h+2, true)
}

// renderNotifications renders the newest banners, oldest first.
func (m Model) renderNotifications() string {
	active := m.notifier.Active()
	if len(active) > maxVisibleNotifications {
		active = active[len(active)-maxVisibleNotifications:]
	}
	styles := m.theme.Styles()
	lines := make([]string, 0, len(active))
	for _, n := range active {
		msg := truncate(n.Message, m.width-2)
		switch n.Severity {
		case section.SeverityError:
			lines = append(lines, styles.DangerText.Render("✗ "+msg))
		case section.SeverityInfo:
			lines = append(lines, styles.MutedText.Render("· "+msg))
		default:
			lines = append(lines, styles.SuccessText.Render("✓ "+msg))
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) spinnerFrame() string {
	frames := loadingSpinner.Frames
	if len(frames) == 0 {
		return "…"
	}
	return frames[m.frame%len(frames)]
}

// renderTitledBox draws a bordered box with the title embedded in the top
// border.
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	var borderColorStr, bgColorStr string
	if focused {
		borderColorStr = m.theme.BorderFocus
		bgColorStr = m.theme.FocusBg
	} else {
		borderColorStr = m.theme.Border
		bgColorStr = m.theme.SurfaceAlt
	}
	bg := NewBgStyle(bgColorStr)
	borderColor := lipgloss.Color(borderColorStr)
	bgColor := lipgloss.Color(bgColorStr)
	borderStyle := lipgloss.NewStyle().Foreground(borderColor)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	// Build the top border with embedded title
	innerWidth := maxInt(width-2, 0)
	titleLen := lipgloss.Width(title)
	leftPad := maxInt((innerWidth-titleLen-2)/2, 0)
	rightPad := maxInt(innerWidth-titleLen-2-leftPad, 0)

	topBorder := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)

	bottomBorder := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).MaxWidth(innerWidth).Background(bgColor)

	// Pad or truncate content lines to fill the box
	contentLines := strings.Split(content, "\n")
	boxHeight := maxInt(height-2, 0)
	paddedLines := make([]string, 0, boxHeight)
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		paddedLines = append(paddedLines,
			bg.Render("│", borderStyle)+
				contentStyle.Render(line)+
				bg.Render("│", borderStyle))
	}

	return topBorder + "\n" + strings.Join(paddedLines, "\n") + "\n" + bottomBorder
}
