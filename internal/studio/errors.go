package studio

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/roomset/internal/workflow"
)

// MapHTTPStatus maps studio errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, workflow.ErrResultNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
