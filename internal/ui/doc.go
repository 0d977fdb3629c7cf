// Package ui provides the terminal dashboard for cargodash.
//
// # Architecture Overview
//
// The UI is a single bubbletea program. Model owns the section registry,
// the notification queue and one controller per section. Controllers are
// the section panes; they hold their own inputs and view-model and describe
// network work as jobs rather than calling the API from the update loop.
//
// # Package Structure
//
//   - app.go: Model, message routing, job scheduling and the Run function
//   - sections.go: controller contract, jobs, messages and the section table
//   - header.go: header, command bar, tabs, pane chrome and notifications
//   - form.go, selection.go: shared form and list-cursor helpers
//   - modal.go: confirmation dialog and the fuzzy section palette
//   - overview.go through activity.go: one file per section pane
//
// # Event Flow
//
//  1. Activating a section runs its setup once and starts a load job
//  2. The job runs as a tea.Cmd with the program context and reports a
//     jobDoneMsg carrying the registry token it was started with
//  3. The registry decides whether the result is still current; stale
//     reloads are dropped (a stale failure leaves a muted note) while
//     mutations always apply
//  4. Failures become a single error notification; the section keeps its
//     previous data and stays usable
//
// # Sections
//
//   - Overview: item, container and waste counts
//   - Containers, Items: lists with add and delete
//   - Placement: recommendations for an item
//   - Search & Retrieve: text search, lookup by id, recording retrievals
//   - Waste: waste list, return plans and undocking
//   - Simulation: advancing simulated time
//   - Import/Export: CSV upload and arrangement download
//   - Logs: filtered activity log
//
// # Key Bindings
//
//   - Tab / Shift+Tab or 1-9: switch sections
//   - ':' opens the section palette
//   - r reloads the active section
//   - T cycles the color theme
//   - ?: help, q or Ctrl+C: quit
package ui
