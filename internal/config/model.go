// internal/config/model.go
//
// Typed configuration model.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                         – dotenv values,
//   • `conf/global.yaml`                      – primary static file,
//   • `NANCY_`-prefixed environment overrides – highest precedence.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"` — Koanf ignores yaml
//     tags unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.  Zero timeouts select the hardened
// defaults in internal/server.
type HTTP struct {
	ListenAddr   string        `koanf:"listen_addr"   validate:"required,hostname_port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"  validate:"gte=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gte=0"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"  validate:"gte=0"`
}

//
// Engine section
//

// Engine sizes the async dispatch pool.
type Engine struct {
	Workers    int `koanf:"workers"     validate:"gte=0"`
	QueueDepth int `koanf:"queue_depth" validate:"gte=0"`
}

//
// Trace section
//

// Trace controls the diagnostics tracer.  When DSN is set, sessions are
// persisted through the SQL store; otherwise the bounded in-memory
// store is used.  PanelPrefix is the reserved control-panel path —
// requests under it are never traced.
type Trace struct {
	Enabled      bool   `koanf:"enabled"`
	PanelPrefix  string `koanf:"panel_prefix"  validate:"required,startswith=/"`
	SessionLimit int    `koanf:"session_limit" validate:"gte=0"`
	DSN          string `koanf:"dsn"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime — never set in YAML or env.  The loader
// discovers `Root` (repo root or NANCY_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string // NANCY_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP   HTTP   `koanf:"http"`
	Engine Engine `koanf:"engine"`
	Trace  Trace  `koanf:"trace"`
	Paths  Paths  `koanf:"-"` // not loaded from config files
}
