package middleware

import (
	"net/http"
	"slices"
)

// Stack is an ordered list of middleware. The first entry wraps the
// outermost layer.
type Stack []func(http.Handler) http.Handler

// Use appends fn to the stack.
func (s *Stack) Use(fn func(http.Handler) http.Handler) {
	*s = append(*s, fn)
}

// Apply wraps handler with every middleware in the stack.
func (s Stack) Apply(handler http.Handler) http.Handler {
	for _, fn := range slices.Backward(s) {
		handler = fn(handler)
	}
	return handler
}
