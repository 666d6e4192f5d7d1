// Package config loads listsync's optional TOML settings file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/listsync/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or zero, use defaults
//
// # TOML Format
//
//	width = 40          # wrap width for the demo list; 0 disables wrapping
//	workers = 4         # sizing parallelism; 0 means GOMAXPROCS
//	max_pending = 0     # queued transition limit; 0 means unlimited
//	journal = "~/.local/share/listsync/journal.db"
//	theme = "Dracula"
//
// Every field is optional. Tilde expansion is performed on journal.
//
// Missing config files are NOT an error - defaults are used instead.
// Command-line flags override file values.
package config
