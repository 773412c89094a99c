// internal/lifecycle/pipelines.go
//
// Before / After / OnError hook pipelines.
//
// Context
// -------
// A Pipelines triple is resolved fresh for every context through the
// engine's PipelineFactory, so per-request customisation (a module
// prepending an auth check, say) never leaks into another in-flight
// request.  The factory is the isolation boundary; the pipelines
// themselves are plain ordered slices with no locking.
//
// Short-circuit contract: the first Before hook returning a non-nil
// response wins and the rest of the pipeline — and routing — is
// skipped.  After hooks all run, in order, and may overwrite the
// response unconditionally.  OnError hooks run only on failure; the
// first non-nil response they return becomes the final response.
package lifecycle

import "github.com/tylerburd/nancy/internal/message"

// BeforeHook runs ahead of routing.  Returning a non-nil response
// short-circuits the lifecycle.
type BeforeHook func(*Context) (*message.Response, error)

// AfterHook runs once a response exists.  It may mutate or replace
// ctx.Response freely.
type AfterHook func(*Context) error

// ErrorHook converts a lifecycle failure into a response.  Returning
// (nil, nil) declines; returning an error aborts recovery.
type ErrorHook func(*Context, error) (*message.Response, error)

// BeforePipeline is an ordered chain of BeforeHooks.
type BeforePipeline struct {
	hooks []BeforeHook
}

// Append adds h at the end of the chain.
func (p *BeforePipeline) Append(h BeforeHook) { p.hooks = append(p.hooks, h) }

// Prepend adds h at the front of the chain.
func (p *BeforePipeline) Prepend(h BeforeHook) {
	p.hooks = append([]BeforeHook{h}, p.hooks...)
}

// Invoke runs hooks in order until one yields a response or fails.
func (p *BeforePipeline) Invoke(c *Context) (*message.Response, error) {
	for _, h := range p.hooks {
		resp, err := h(c)
		if err != nil {
			return nil, err
		}
		if resp != nil {
			return resp, nil
		}
	}
	return nil, nil
}

// AfterPipeline is an ordered chain of AfterHooks.
type AfterPipeline struct {
	hooks []AfterHook
}

// Append adds h at the end of the chain.
func (p *AfterPipeline) Append(h AfterHook) { p.hooks = append(p.hooks, h) }

// Prepend adds h at the front of the chain.
func (p *AfterPipeline) Prepend(h AfterHook) {
	p.hooks = append([]AfterHook{h}, p.hooks...)
}

// Invoke runs every hook in order, stopping at the first failure.
func (p *AfterPipeline) Invoke(c *Context) error {
	for _, h := range p.hooks {
		if err := h(c); err != nil {
			return err
		}
	}
	return nil
}

// ErrorPipeline is an ordered chain of ErrorHooks.
type ErrorPipeline struct {
	hooks []ErrorHook
}

// Append adds h at the end of the chain.
func (p *ErrorPipeline) Append(h ErrorHook) { p.hooks = append(p.hooks, h) }

// Invoke offers cause to each hook in order.  The first non-nil
// response wins; a hook error aborts recovery and propagates.
func (p *ErrorPipeline) Invoke(c *Context, cause error) (*message.Response, error) {
	for _, h := range p.hooks {
		resp, err := h(c, cause)
		if err != nil {
			return nil, err
		}
		if resp != nil {
			return resp, nil
		}
	}
	return nil, nil
}

// Pipelines bundles the three hook stages bound to one context.
// Any stage may be nil, meaning "absent".
type Pipelines struct {
	Before  *BeforePipeline
	After   *AfterPipeline
	OnError *ErrorPipeline
}

// PipelineFactory resolves the hook triple for one context.  Invoked
// exactly once per lifecycle run.
type PipelineFactory func(*Context) *Pipelines
