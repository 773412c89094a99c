// internal/message/params.go
//
// Route-parameter bag.
//
// The resolver hands matched URL values to the handler as a Params —
// a string-keyed map of variant values with typed accessors, rather
// than a dynamically-typed object.  Resolvers usually store strings;
// embedded callers may store richer values.
package message

import "strconv"

// Params holds the values matched from the request URL.
type Params map[string]any

// String returns the value under key rendered as a string, or "" when
// absent or not a string.
func (p Params) String(key string) string {
	if v, ok := p[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Int parses the value under key as an integer.
func (p Params) Int(key string) (int, bool) {
	switch v := p[key].(type) {
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Has reports whether key is present.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}
