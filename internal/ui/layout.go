package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutWideWidth is the minimum width for optional table columns.
	LayoutWideWidth = 140
)

// Chrome heights outside the section pane.
const (
	headerLines     = 3 // header, command bar, section tabs
	paneBorderLines = 2
)

// Timing defaults used when the config leaves them unset.
const (
	// DefaultClockInterval is how often the header clock is redrawn.
	DefaultClockInterval = time.Minute

	// DefaultHealthInterval is how often the header re-reads the health snapshot.
	DefaultHealthInterval = 5 * time.Second
)

// maxVisibleNotifications caps the banner stack under the pane.
const maxVisibleNotifications = 4
