// internal/lifecycle/status.go
//
// Status-code handlers.
//
// After a lifecycle completes with a response, every registered handler
// whose Handles check matches the response's status code is invoked, in
// registration order.  Handlers are independent rewrite points: one
// handler's replacement response is what the next handler sees.
package lifecycle

import (
	"html"
	"net/http"

	"github.com/tylerburd/nancy/internal/message"
)

// StatusHandler rewrites responses for status codes it elects to own.
type StatusHandler interface {
	// Handles reports whether this handler wants the given code.
	Handles(code int, c *Context) bool

	// Handle may mutate or replace c.Response.
	Handle(code int, c *Context)
}

// ErrorPageHandler renders server-error responses into a minimal HTML
// page carrying the terminal failure description from the reserved
// context items.  It only acts when the context's control-panel
// capability is on and a description was actually recorded, so plain
// 5xx responses produced by handlers pass through untouched.
type ErrorPageHandler struct{}

// Handles matches 5xx responses on diagnostic-enabled contexts that
// carry a recorded failure description.
func (ErrorPageHandler) Handles(code int, c *Context) bool {
	if code < http.StatusInternalServerError || !c.ControlPanelEnabled {
		return false
	}
	_, ok := c.Items[ItemKeyErrorDescription].(string)
	return ok
}

// Handle replaces the response body with the rendered failure detail.
func (ErrorPageHandler) Handle(code int, c *Context) {
	desc, _ := c.Items[ItemKeyErrorDescription].(string)
	body := "<html><head><title>Request failed</title></head><body>" +
		"<h1>" + html.EscapeString(http.StatusText(code)) + "</h1>" +
		"<pre>" + html.EscapeString(desc) + "</pre>" +
		"</body></html>"
	c.Response = message.HTML(code, body)
}
