package middleware

import (
	"net/http"
	"strings"
)

// ContentType validates Content-Type headers for requests with bodies.
// JSON is the API default; form encodings are accepted for the login form
// and multipart for document uploads.
func ContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut {
			contentType := r.Header.Get("Content-Type")

			if contentType == "" {
				http.Error(w, "Content-Type header is required", http.StatusBadRequest)
				return
			}

			contentTypeLower := strings.ToLower(contentType)
			accepted := strings.HasPrefix(contentTypeLower, "application/json") ||
				strings.HasPrefix(contentTypeLower, "application/x-www-form-urlencoded") ||
				strings.HasPrefix(contentTypeLower, "multipart/form-data")

			if !accepted {
				http.Error(w, "Unsupported Content-Type", http.StatusUnsupportedMediaType)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
