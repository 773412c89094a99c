// internal/lifecycle/context.go
//
// Central per-request context.
//
// Context
// -------
// Every lifecycle invocation owns exactly one *Context.  It bundles:
//
//   - Items       — request-scoped key/value store, owner-disposed.
//   - Parameters  — matched route values, set once by the invoker.
//   - Response    — nil until some stage produces one.
//   - CurrentUser — identity resolved by an external collaborator.
//   - Trace       — the diagnostic record for this exchange.
//   - Engine      — back-reference so handlers can run nested child
//     requests (partial rendering) through the same engine.
//
// Concurrency
// -----------
// No lock guards the Context; safety comes purely from non-sharing.
// A context is created fresh per request, mutated only by the stages
// of its own lifecycle, and never visible to another in-flight request.
//
// Teardown
// --------
// Close releases every stored item implementing io.Closer, clears the
// item store, and closes the owned request, exactly once.  Calling any
// other method after Close is a caller error; the type documents the
// precondition rather than guarding every accessor.
package lifecycle

import (
	"io"

	"github.com/cockroachdb/errors"

	"github.com/tylerburd/nancy/internal/message"
	"github.com/tylerburd/nancy/internal/trace"
)

// Reserved item keys populated by terminal error recovery and consumed
// by diagnostic/error-page renderers.
const (
	// ItemKeyErrorDescription holds the rendered failure description,
	// including the cause chain.
	ItemKeyErrorDescription = "nancy.error.description"

	// ItemKeyErrorCause holds the raw error value.
	ItemKeyErrorCause = "nancy.error.cause"
)

// Identity is the authenticated user attached by an external identity
// collaborator.  The core never mutates it.
type Identity interface {
	UserName() string
}

// Context is the per-request state container threaded through every
// lifecycle stage.
type Context struct {
	Items      map[string]any
	Parameters message.Params

	// Response is nil until a stage produces one.  Later stages must
	// not overwrite a non-nil response unless they are an explicit
	// override point.
	Response *message.Response

	CurrentUser Identity
	Trace       *trace.Record

	// ControlPanelEnabled gates diagnostic rendering for this request.
	// Fixed at construction.
	ControlPanelEnabled bool

	// Engine that produced this context; lets handlers re-enter the
	// lifecycle for child requests.
	Engine *Engine

	request *message.Request
	closed  bool
}

// NewContext returns an empty context: no request, empty items, a fresh
// trace record, and the control panel enabled.
func NewContext() *Context {
	return &Context{
		Items:               make(map[string]any),
		Trace:               trace.NewRecord(),
		ControlPanelEnabled: true,
	}
}

// Request returns the currently bound request, or nil.
func (c *Context) Request() *message.Request {
	return c.request
}

// SetRequest binds req and synchronously mirrors its method and URL
// into the trace record, keeping the derived fields in step with the
// currently assigned request.
func (c *Context) SetRequest(req *message.Request) {
	c.request = req
	c.Trace.BindRequest(req)
}

// Close tears the context down: every stored item implementing
// io.Closer is closed, the item store is cleared, and the owned
// request is released.  Idempotent; a second Close is a no-op and
// never re-closes already-released items.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	var errs error
	for key, item := range c.Items {
		if closer, ok := item.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = errors.CombineErrors(errs,
					errors.Wrapf(err, "close item %q", key))
			}
		}
	}
	clear(c.Items)

	if c.request != nil {
		if err := c.request.Close(); err != nil {
			errs = errors.CombineErrors(errs, errors.Wrap(err, "close request"))
		}
	}
	return errs
}
