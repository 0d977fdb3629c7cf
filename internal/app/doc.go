// Package app is the composition root for cargodash.
//
// # Overview
//
// Setup reads config.toml and builds the pieces every entry point shares:
// the zap logger, a Prometheus registry with the request collector, and the
// cargo API client. Run adds the dashboard on top of that environment.
//
// # Run
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       │
//	       ├─────> Setup()            config, logger, metrics, client
//	       ├─────> prefs.Load()       saved theme and section
//	       ├─────> telemetry.Serve()  only when metrics_bind is set
//	       ├─────> StartPoller()      background health probes
//	       └─────> ui.Run()           dashboard (blocks)
//
// The metrics listener, the poller and the UI share one errgroup context.
// Quitting the UI cancels it, which stops the listener and the poller; a
// failing listener cancels it too and takes the UI down with it.
//
// # Polling Behavior
//
// The poller probes GET / on the configured interval and records latency
// and failures in a state.Store. Consecutive failures back off exponentially
// up to 30 seconds. The header reads store snapshots on its own tick, so a
// slow probe never blocks input.
//
// # Error Handling
//
// Fatal (returned from Run):
//   - unreadable or malformed config.toml
//   - log file that cannot be opened
//   - invalid api_base
//   - metrics listener failure
//
// Recoverable (logged, dashboard keeps running):
//   - malformed prefs.toml
//   - failed health probes
package app
