// internal/lifecycle/errors.go
//
// Error taxonomy for the lifecycle engine.
//
//   - ErrNilRequest / ErrNilResolver — invalid-argument class, rejected
//     before any work begins.
//   - handler failures — anything a Before/route/After stage returns or
//     panics with; recoverable through the OnError pipeline.
//   - RequestExecutionError — wraps a failure that recovery could not
//     convert into a response; terminal recovery renders it into the
//     fixed 500 plus the reserved context items, and it never escapes
//     HandleRequest.
package lifecycle

import "github.com/cockroachdb/errors"

// Invalid-argument failures, raised before a context exists.
var (
	ErrNilRequest  = errors.New("lifecycle: nil request")
	ErrNilResolver = errors.New("lifecycle: nil route resolver")
)

// RequestExecutionError wraps a lifecycle failure that the OnError
// pipeline did not convert into a response.
type RequestExecutionError struct {
	Cause error
}

func (e *RequestExecutionError) Error() string {
	return "lifecycle: request execution failed: " + e.Cause.Error()
}

// Unwrap exposes the original failure to errors.Is/As.
func (e *RequestExecutionError) Unwrap() error { return e.Cause }

// panicError converts a recovered panic value into an error carrying a
// stack, so user-code panics flow through the same recovery path as
// returned errors.
func panicError(recovered any) error {
	if err, ok := recovered.(error); ok {
		return errors.WithStack(errors.Wrap(err, "panic in lifecycle stage"))
	}
	return errors.WithStack(errors.Newf("panic in lifecycle stage: %v", recovered))
}
