// internal/lifecycle/engine.go
//
// Lifecycle engine — the top-level request orchestrator.
//
// Context
// -------
// HandleRequest is the whole story of one request:
//
//	create context → bind request → resolve pipelines →
//	Before → route invocation → After   (wrapped in error recovery)
//	→ status-code handlers → tracing → return context
//
// Callers always get a context back (the only error is a nil request,
// rejected before a context exists).  A nil Response on that context
// means "failed before producing even an error response" and is the
// caller's last line of defence.
//
// Failure containment, inside out: user-code panics are converted to
// errors at the stage boundary; the OnError pipeline gets first chance
// to turn a failure into a response; anything recovery cannot handle is
// wrapped in RequestExecutionError and rendered into the fixed 500 plus
// the reserved diagnostic items.  Once a context exists, nothing
// escapes HandleRequest.
//
// Concurrency
// -----------
// One engine serves all requests; each call owns its context outright.
// The async entry point dispatches whole-request tasks onto the
// engine's worker pool and reports through the caller's callbacks.
package lifecycle

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/tylerburd/nancy/internal/message"
	"github.com/tylerburd/nancy/internal/metrics"
	"github.com/tylerburd/nancy/internal/trace"
	"github.com/tylerburd/nancy/internal/worker"
)

// Tracer records a finished exchange.  Satisfied by *trace.Tracer; nil
// disables tracing entirely.
type Tracer interface {
	Trace(*message.Request, *message.Response, *trace.Record)
}

// Config carries the engine's collaborators.  Resolver is required;
// everything else has a working default.
type Config struct {
	// Pipelines resolves the hook triple per context.  nil means no
	// application hooks.
	Pipelines PipelineFactory

	// NewContext builds the per-request context.  nil selects
	// lifecycle.NewContext.
	NewContext func() *Context

	// StatusHandlers run in registration order after the lifecycle.
	StatusHandlers []StatusHandler

	// Tracer records finished exchanges; nil disables tracing.
	Tracer Tracer

	// Workers and QueueDepth size the async dispatch pool.  Values
	// below one default to 4 workers and a 64-deep queue.
	Workers    int
	QueueDepth int

	// Logger for lifecycle diagnostics; nil falls back to zap.S().
	Logger *zap.SugaredLogger
}

// Engine executes request lifecycles.
type Engine struct {
	invoker        *Invoker
	pipelines      PipelineFactory
	newContext     func() *Context
	statusHandlers []StatusHandler
	tracer         Tracer
	pool           *worker.Pool
	log            *zap.SugaredLogger
}

// New builds an Engine around resolver.  A nil resolver is an
// invalid-argument failure, rejected at construction.
func New(cfg Config, resolver Resolver) (*Engine, error) {
	if resolver == nil {
		return nil, ErrNilResolver
	}

	workers, queue := cfg.Workers, cfg.QueueDepth
	if workers < 1 {
		workers = 4
	}
	if queue < 1 {
		queue = 64
	}

	log := cfg.Logger
	if log == nil {
		log = zap.S()
	}
	newContext := cfg.NewContext
	if newContext == nil {
		newContext = NewContext
	}

	return &Engine{
		invoker:        NewInvoker(resolver),
		pipelines:      cfg.Pipelines,
		newContext:     newContext,
		statusHandlers: cfg.StatusHandlers,
		tracer:         cfg.Tracer,
		pool:           worker.New(workers, queue),
		log:            log,
	}, nil
}

// HandleRequest runs one full lifecycle.  The returned error is non-nil
// only for a nil request; otherwise the caller always receives a
// context, whose Response may still be nil.
func (e *Engine) HandleRequest(req *message.Request) (*Context, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	metrics.RequestsTotal.Inc()
	metrics.RequestsInFlight.Inc()
	defer metrics.RequestsInFlight.Dec()

	c := e.newContext()
	c.Engine = e
	c.SetRequest(req)

	p := e.resolvePipelines(c)
	e.invokeLifecycle(c, p)

	if c.Response != nil {
		e.runStatusHandlers(c)
	}
	e.traceExchange(c)
	return c, nil
}

// HandleRequestAsync schedules the synchronous lifecycle on the worker
// pool.  onComplete receives the finished context; onError receives any
// failure escaping the synchronous path, including pool rejection.
// This is a best-effort wrapper — expected failures are already
// contained inside HandleRequest itself.
func (e *Engine) HandleRequestAsync(req *message.Request, onComplete func(*Context), onError func(error)) {
	err := e.pool.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				onError(panicError(r))
			}
		}()

		c, err := e.HandleRequest(req)
		if err != nil {
			onError(err)
			return
		}
		onComplete(c)
	})
	if err != nil {
		metrics.AsyncRejectedTotal.Inc()
		onError(errors.Wrap(err, "async dispatch"))
	}
}

// Close drains the worker pool.  Synchronous use needs no teardown.
func (e *Engine) Close() {
	e.pool.Stop()
}

// resolvePipelines obtains the hook triple for this context.  The
// factory is the per-request isolation boundary; a nil factory or nil
// result means no application hooks.
func (e *Engine) resolvePipelines(c *Context) *Pipelines {
	if e.pipelines == nil {
		return &Pipelines{}
	}
	p := e.pipelines(c)
	if p == nil {
		return &Pipelines{}
	}
	return p
}

// invokeLifecycle runs the hook/route sequence and, on failure, drives
// recovery.  It never lets an error escape.
func (e *Engine) invokeLifecycle(c *Context, p *Pipelines) {
	err := e.runStages(c, p)
	if err == nil {
		return
	}
	e.recoverFailure(c, p, err)
}

// runStages executes Before → routing → After.  Panics from user code
// are converted to errors here, at the isolation boundary between user
// code and the server.
func (e *Engine) runStages(c *Context, p *Pipelines) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()

	if p.Before != nil {
		resp, err := p.Before.Invoke(c)
		if err != nil {
			return err
		}
		if resp != nil {
			c.Response = resp
		}
	}

	// Routing runs only when the Before stage produced nothing.
	if c.Response == nil {
		if err := e.invoker.Invoke(c); err != nil {
			return err
		}
	}

	if p.After != nil {
		return p.After.Invoke(c)
	}
	return nil
}

// recoverFailure converts cause into a response.  The OnError pipeline
// gets first refusal; when it is absent, declines, or itself fails
// (error or panic), the failure is wrapped in RequestExecutionError and
// rendered terminally.  This path cannot fail.
func (e *Engine) recoverFailure(c *Context, p *Pipelines, cause error) {
	resp, recErr := e.runErrorPipeline(c, p, cause)
	if recErr == nil && resp != nil {
		c.Response = resp
		return
	}

	wrapped := error(&RequestExecutionError{Cause: cause})
	if recErr != nil {
		wrapped = errors.WithSecondaryError(wrapped, recErr)
		e.log.Errorw("error pipeline failed during recovery",
			"cause", cause, "recovery_err", recErr)
	}
	e.failTerminal(c, wrapped)
}

// runErrorPipeline invokes the OnError pipeline with its own panic
// containment — a recovery hook blowing up must not take the engine
// with it.
func (e *Engine) runErrorPipeline(c *Context, p *Pipelines, cause error) (resp *message.Response, err error) {
	if p.OnError == nil {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, panicError(r)
		}
	}()
	return p.OnError.Invoke(c, cause)
}

// failTerminal installs the fixed failure response and exposes the full
// failure detail under the reserved item keys for downstream error-page
// rendering.
func (e *Engine) failTerminal(c *Context, err error) {
	metrics.RequestFailuresTotal.Inc()
	e.log.Errorw("request failed terminally",
		"method", c.Trace.Method, "url", c.Trace.URL, "err", err)

	c.Items[ItemKeyErrorDescription] = fmt.Sprintf("%+v", err)
	c.Items[ItemKeyErrorCause] = err
	c.Response = message.InternalServerError()
}

// runStatusHandlers offers the response's status code to each handler
// in registration order.  A rewrite by one handler is visible to the
// next; the chain stops if a handler clears the response.
func (e *Engine) runStatusHandlers(c *Context) {
	for _, h := range e.statusHandlers {
		if c.Response == nil {
			return
		}
		code := c.Response.StatusCode
		if h.Handles(code, c) {
			h.Handle(code, c)
		}
	}
}

// traceExchange invokes the tracer behind a recover barrier: tracing
// must never fail a request, whatever the store does.
func (e *Engine) traceExchange(c *Context) {
	if e.tracer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.Warnw("tracer panicked", "recovered", r)
		}
	}()
	e.tracer.Trace(c.Request(), c.Response, c.Trace)
}
