package controller

import "net/http"

const (
	corsAllowHeaders  = "Authorization, Content-Type, Accept, Accept-Encoding, Cache-Control, X-Request-Id"
	corsAllowMethods  = "GET, POST, DELETE, OPTIONS"
	corsExposeHeaders = "X-Request-Id, Retry-After, Location"
)

// WithCORS adds CORS headers for origin and answers preflight requests with
// 204. An empty origin allows any origin; credentials are then not allowed,
// since browsers reject them together with a wildcard.
func WithCORS(origin string, next http.Handler) http.Handler {
	wildcard := origin == ""
	if wildcard {
		origin = "*"
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		if !wildcard {
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		}
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		h.Set("Access-Control-Allow-Methods", corsAllowMethods)
		h.Set("Access-Control-Expose-Headers", corsExposeHeaders)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)

			return
		}

		next.ServeHTTP(w, r)
	})
}
