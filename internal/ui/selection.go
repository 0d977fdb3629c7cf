package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// selection tracks the highlighted row of a list pane.
type selection struct {
	idx int
}

// move applies navigation keys for a list of n rows and reports whether
// the key was consumed.
func (s *selection) move(msg tea.KeyMsg, keys keyMap, n int) bool {
	switch {
	case key.Matches(msg, keys.Down):
		if s.idx < n-1 {
			s.idx++
		}
	case key.Matches(msg, keys.Up):
		if s.idx > 0 {
			s.idx--
		}
	case key.Matches(msg, keys.Top):
		s.idx = 0
	case key.Matches(msg, keys.Bottom):
		s.idx = maxInt(n-1, 0)
	default:
		return false
	}
	return true
}

// fit keeps the selection inside a list that may have shrunk.
func (s *selection) fit(n int) {
	s.idx = clamp(s.idx, n)
}

// window returns the slice bounds that keep the selection visible in
// height rows.
func (s selection) window(n, height int) (int, int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	start := s.idx - height/2
	if start < 0 {
		start = 0
	}
	if start+height > n {
		start = n - height
	}
	return start, start + height
}
