// Package config loads cargodash settings from a TOML file.
//
// # Configuration Discovery
//
// Load follows this resolution order:
//
//  1. If a path is explicitly provided (--config), use it
//  2. Otherwise, use ~/.config/cargodash/config.toml
//  3. If the file doesn't exist, return Default()
//  4. If the file exists but fields are missing or blank, keep defaults
//
// # Default Values
//
//   - api_base: http://localhost:8000
//   - user_id: astronaut1 (recorded on retrieve actions)
//   - log_file: ~/.local/state/cargodash/cargodash.log
//   - log_level: info
//   - metrics_bind: empty, which disables the /metrics listener
//   - export_dir: current directory
//   - clock_interval_seconds: 60
//   - health_interval_seconds: 5
//
// # TOML Format
//
//	api_base = "http://localhost:8000"
//	user_id = "astronaut1"
//	log_file = "~/.local/state/cargodash/cargodash.log"
//	log_level = "debug"
//	metrics_bind = "127.0.0.1:9109"
//	export_dir = "~/exports"
//
// Setting log_file to an empty string turns file logging off. Interval
// values below one second are ignored.
//
// # Path Expansion
//
// Paths go through go-homedir for tilde expansion and are then made
// absolute. This applies to the config location, log_file and export_dir.
//
// # Error Handling
//
// Load returns errors for home directory lookup failures, unreadable files
// (other than os.ErrNotExist) and TOML syntax errors. A missing file is not
// an error.
package config
