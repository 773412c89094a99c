// internal/lifecycle/invoker.go
//
// Route invocation.
//
// Context
// -------
// The invoker adapts an external route resolver into the lifecycle.
// It runs only when the Before pipeline left the response nil:
//
//  1. Resolve {handler, params, per-route pre/post hooks}.
//  2. Assign route parameters immediately.
//  3. Run the pre-hook; a non-nil response skips the handler.
//  4. Otherwise invoke the handler with the matched parameters.
//  5. HEAD requests get the handler's response with the body action
//     suppressed — status and headers pass through untouched.
//  6. Run the post-hook; it may still mutate ctx.Response, including
//     replacing a response the handler already produced.
//
// Resolver failures propagate as lifecycle errors and land in the
// normal recovery path.
package lifecycle

import (
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/tylerburd/nancy/internal/message"
)

// Handler produces a response from matched route parameters.
type Handler func(message.Params) (*message.Response, error)

// Resolution is what a resolver returns for one request: the handler,
// its matched parameters, and optional per-route hooks.
type Resolution struct {
	Handler Handler
	Params  message.Params

	// PreHook runs before the handler; a non-nil response skips it.
	PreHook BeforeHook

	// PostHook runs after the handler and may mutate the response.
	PostHook AfterHook
}

// Resolver matches a context's request to a Resolution.  Called exactly
// once per lifecycle invocation.  Resolvers report "no match" by
// returning a not-found handler, not by failing.
type Resolver interface {
	Resolve(*Context) (Resolution, error)
}

// Invoker drives route resolution and handler execution for a context.
type Invoker struct {
	resolver Resolver
}

// NewInvoker wraps resolver.
func NewInvoker(resolver Resolver) *Invoker {
	return &Invoker{resolver: resolver}
}

// Invoke resolves and executes the route for c, honouring the pre-hook
// short-circuit and HEAD body suppression.
func (iv *Invoker) Invoke(c *Context) error {
	res, err := iv.resolver.Resolve(c)
	if err != nil {
		return err
	}
	if res.Handler == nil {
		return errors.New("lifecycle: resolver returned no handler")
	}

	c.Parameters = res.Params

	if res.PreHook != nil {
		resp, err := res.PreHook(c)
		if err != nil {
			return err
		}
		if resp != nil {
			c.Response = resp
		}
	}

	if c.Response == nil {
		resp, err := res.Handler(res.Params)
		if err != nil {
			return err
		}
		if resp != nil && isHead(c.Request()) {
			resp = resp.WithoutBody()
		}
		c.Response = resp
	}

	if res.PostHook != nil {
		return res.PostHook(c)
	}
	return nil
}

// isHead reports whether the bound request is a HEAD request,
// case-insensitively.
func isHead(req *message.Request) bool {
	return req != nil && strings.EqualFold(req.Method, http.MethodHead)
}
