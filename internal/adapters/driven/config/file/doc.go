// Package file loads and persists the paperdex configuration.
// Configuration lives in a TOML file (by default ~/.paperdex/config.toml),
// decoded strictly so unknown keys are rejected, with PAPERDEX_* environment
// variables layered on top.
package file
