// Package middleware holds small, composable net/http wrappers that
// sit in front of the engine adapter.  They run outside the lifecycle
// on purpose: headers the operator always wants should not depend on
// which stage produced the response.
package middleware

import "net/http"

// Security sets defensive headers on every response:
//
//   - Strict-Transport-Security  –  forces HTTPS (2 years + preload)
//   - X-Frame-Options            –  click-jacking defence
//   - X-Content-Type-Options     –  MIME-sniffing defence
//   - Referrer-Policy            –  drops path/query from Referer
//
// Headers are set before next.ServeHTTP runs — once the handler calls
// WriteHeader they are on the wire and cannot be added.  The engine
// adapter uses Add for lifecycle-produced headers, so a response that
// explicitly sets one of these values ends up with its own value first.
func Security(next http.Handler) http.Handler {
	const (
		hsts  = "max-age=63072000; includeSubDomains; preload"
		xfo   = "DENY"
		nosn  = "nosniff"
		refer = "strict-origin-when-cross-origin"
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Strict-Transport-Security", hsts)
		h.Set("X-Frame-Options", xfo)
		h.Set("X-Content-Type-Options", nosn)
		h.Set("Referrer-Policy", refer)

		next.ServeHTTP(w, r)
	})
}
