package middleware

import "net/http"

// CORS allows any origin, so clients may be served from a different
// origin (a packaged desktop shell, a local dev server) than the one the
// host binds to. Allowed methods are GET, POST, PUT, DELETE and OPTIONS
// and allowed request headers are Content-Type and Authorization; other
// methods and headers are not listed as allowed.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
