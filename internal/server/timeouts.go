// internal/server/timeouts.go
//
// HTTP server helper with robust timeouts.
//
// Production hardening recommends:
//
//   • ReadTimeout   – abort slow-loris headers
//   • WriteTimeout  – cap total response time
//   • IdleTimeout   – close keep-alives on idle clients
//
// Operators tune the values through config.HTTP; unset values fall
// back to the defaults below.  Note WriteTimeout is the only cap on a
// runaway handler: the engine itself never cancels an in-flight
// lifecycle.
package server

import (
	"net/http"
	"time"
)

// Defaults applied when a Timeouts field is zero.
const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 15 * time.Second
	defaultIdleTimeout  = 60 * time.Second
)

// Timeouts carries the per-listener deadlines.  Zero fields select the
// package defaults.
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
}

// New constructs an *http.Server with the given deadlines.
func New(addr string, handler http.Handler, t Timeouts) *http.Server {
	if t.Read <= 0 {
		t.Read = defaultReadTimeout
	}
	if t.Write <= 0 {
		t.Write = defaultWriteTimeout
	}
	if t.Idle <= 0 {
		t.Idle = defaultIdleTimeout
	}

	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  t.Read,
		WriteTimeout: t.Write,
		IdleTimeout:  t.Idle,
		// TLSConfig may be injected by callers (e.g., autocert).
	}
}
