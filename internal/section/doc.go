// Package section implements the dashboard's section router and the load
// lifecycle shared by every pane.
//
// # Sections
//
// A section is one navigable pane (containers, items, logs, ...). Each is
// registered once with a title and an optional init func. Exactly one
// section is active at a time; Activate switches synchronously.
//
// # Lifecycle
//
//	Activate(id)            Begin(id)
//	   │ first time? run init    │
//	   ▼                         ▼
//	 Token{gen=n}  ── Loading ── Token{gen=n+1}
//	   │                         │
//	 Finish(tok, err)         Finish(tok, err)
//	   │                         │
//	 Success / Error          (stale: released, not rendered)
//
// Every token adds one to the section's in-flight count and Finish removes
// it exactly once, so the loading indicator (Loading) can never be orphaned
// or removed twice. Finish returns true only for the newest generation; the
// UI drops results from older generations, which makes the last request
// issued (not the last to resolve) the one that renders.
//
// Loads are never cancelled when the user switches away. The hidden section
// still records its outcome.
//
// # Notifications
//
// Notifier holds a stack of success and error banners. Each carries an id
// so the UI can schedule its own dismissal after DefaultNotificationTTL.
package section
