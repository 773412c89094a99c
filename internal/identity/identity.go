// internal/identity/identity.go
//
// Nancy – cookie identity stub.
//
// Context
//   The lifecycle engine never resolves users itself; an external
//   collaborator sets Context.CurrentUser before routing runs.  This
//   scaffold is that collaborator in its simplest form: a Before hook
//   that reads a cookie named "nancy_user" holding the user name in
//   plaintext.  It is **NOT** production-ready but unblocks embedding
//   and manual testing.
//
//   Replace BeforeHook with a resolver backed by signed sessions, JWT,
//   or your identity provider of choice — a robust implementation would
//   AES-GCM-encrypt and HMAC-sign the cookie payload.  The engine only
//   sees the lifecycle.Identity interface, so swapping the
//   implementation is painless.
//
//------------------------------------------------------------------------------

package identity

import (
	"github.com/tylerburd/nancy/internal/lifecycle"
	"github.com/tylerburd/nancy/internal/message"
)

const cookieName = "nancy_user"

// User is the minimal lifecycle.Identity implementation.
type User struct {
	Name string
}

// UserName satisfies lifecycle.Identity.
func (u User) UserName() string { return u.Name }

// BeforeHook returns a pipeline hook that attaches the cookie identity
// to the context.  It never short-circuits; anonymous requests simply
// proceed with CurrentUser == nil.
func BeforeHook() lifecycle.BeforeHook {
	return func(c *lifecycle.Context) (*message.Response, error) {
		req := c.Request()
		if req == nil {
			return nil, nil
		}
		if name, ok := req.Cookie(cookieName); ok {
			c.CurrentUser = User{Name: name}
		}
		return nil, nil
	}
}
