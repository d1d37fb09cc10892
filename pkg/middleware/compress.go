package middleware

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// Compress returns middleware that gzip-encodes responses for clients that
// accept it. Responses below minSize bytes are written uncompressed.
func Compress(minSize int) (func(http.Handler) http.Handler, error) {
	wrapper, err := gzhttp.NewWrapper(gzhttp.MinSize(minSize))
	if err != nil {
		return nil, err
	}
	return func(next http.Handler) http.Handler {
		return wrapper(next)
	}, nil
}
