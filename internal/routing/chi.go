// internal/routing/chi.go
//
// Default route resolver, backed by chi's routing tree.
//
// Context
// -------
// The lifecycle engine only knows the Resolver interface; this is the
// stock implementation.  chi does the pattern matching and URL-param
// extraction, while the resolver keeps its own registry mapping
// method+pattern to the registered handler and per-route hooks — chi's
// mux stores http.Handlers, which is not what the engine consumes.
//
// Match semantics:
//
//   - HEAD requests with no explicit HEAD route fall back to the GET
//     route, so the engine can answer HEAD per the HTTP contract.
//   - No pattern match → a 404 route.
//   - Pattern matches under a different method → a 405 route with an
//     Allow header.
//
// "No match" is a routing *outcome*, not a resolver failure; Resolve
// only errors on internal inconsistencies.
package routing

import (
	"net/http"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"

	"github.com/tylerburd/nancy/internal/lifecycle"
	"github.com/tylerburd/nancy/internal/message"
)

// methods probed when building a 405 Allow header.
var knownMethods = []string{
	http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
	http.MethodDelete, http.MethodHead, http.MethodOptions,
}

// Route is one registered entry: the handler plus optional per-route
// pre/post hooks.
type Route struct {
	Handler  lifecycle.Handler
	PreHook  lifecycle.BeforeHook
	PostHook lifecycle.AfterHook
}

// ChiResolver implements lifecycle.Resolver over a chi routing tree.
// Registration is not safe to interleave with resolution; build the
// route table before serving, as with any mux.
type ChiResolver struct {
	mux    *chi.Mux
	routes map[string]*Route // "METHOD pattern" → route
}

// NewChiResolver returns an empty resolver.
func NewChiResolver() *ChiResolver {
	return &ChiResolver{
		mux:    chi.NewRouter(),
		routes: make(map[string]*Route),
	}
}

// Handle registers route under method and pattern (chi syntax, e.g.
// "/users/{id}").
func (r *ChiResolver) Handle(method, pattern string, route Route) {
	method = strings.ToUpper(method)
	// Register a placeholder so chi builds its tree; dispatch happens
	// through the engine, never through the mux.
	r.mux.Method(method, pattern, http.NotFoundHandler())
	r.routes[method+" "+pattern] = &route
}

// Get registers a GET handler without hooks.
func (r *ChiResolver) Get(pattern string, h lifecycle.Handler) {
	r.Handle(http.MethodGet, pattern, Route{Handler: h})
}

// Post registers a POST handler without hooks.
func (r *ChiResolver) Post(pattern string, h lifecycle.Handler) {
	r.Handle(http.MethodPost, pattern, Route{Handler: h})
}

// Resolve matches the context's request against the route table.
func (r *ChiResolver) Resolve(c *lifecycle.Context) (lifecycle.Resolution, error) {
	req := c.Request()
	if req == nil || req.URL == nil {
		return lifecycle.Resolution{}, errors.New("routing: context has no request")
	}

	method := strings.ToUpper(req.Method)
	path := req.URL.Path

	if res, ok := r.match(method, path); ok {
		return res, nil
	}

	// HEAD falls back to the GET route; the engine suppresses the body.
	if method == http.MethodHead {
		if res, ok := r.match(http.MethodGet, path); ok {
			return res, nil
		}
	}

	if allowed := r.allowedMethods(path, method); len(allowed) > 0 {
		return methodNotAllowed(allowed), nil
	}
	return notFound(), nil
}

// match runs one chi tree lookup and maps the result back onto the
// registered route.
func (r *ChiResolver) match(method, path string) (lifecycle.Resolution, bool) {
	rctx := chi.NewRouteContext()
	if !r.mux.Match(rctx, method, path) {
		return lifecycle.Resolution{}, false
	}

	route, ok := r.routes[method+" "+rctx.RoutePattern()]
	if !ok {
		return lifecycle.Resolution{}, false
	}

	params := make(message.Params, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		if key == "*" {
			continue
		}
		params[key] = rctx.URLParams.Values[i]
	}

	return lifecycle.Resolution{
		Handler:  route.Handler,
		Params:   params,
		PreHook:  route.PreHook,
		PostHook: route.PostHook,
	}, true
}

// allowedMethods probes the tree for other methods matching path.
func (r *ChiResolver) allowedMethods(path, exclude string) []string {
	var allowed []string
	for _, m := range knownMethods {
		if m == exclude {
			continue
		}
		rctx := chi.NewRouteContext()
		if r.mux.Match(rctx, m, path) {
			allowed = append(allowed, m)
		}
	}
	sort.Strings(allowed)
	return allowed
}

// notFound returns the 404 route.
func notFound() lifecycle.Resolution {
	return lifecycle.Resolution{
		Handler: func(message.Params) (*message.Response, error) {
			return message.Text(http.StatusNotFound, "404 Not Found"), nil
		},
		Params: message.Params{},
	}
}

// methodNotAllowed returns the 405 route with an Allow header.
func methodNotAllowed(allowed []string) lifecycle.Resolution {
	return lifecycle.Resolution{
		Handler: func(message.Params) (*message.Response, error) {
			resp := message.Text(http.StatusMethodNotAllowed, "405 Method Not Allowed")
			resp.WithHeader("Allow", strings.Join(allowed, ", "))
			return resp, nil
		},
		Params: message.Params{},
	}
}
