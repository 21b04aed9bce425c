package middleware

import (
	"net/http"

	"github.com/mcoot/flippo/internal/api/response"
)

// CORS opens the API to every origin and answers preflight requests
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			response.NoContent(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
