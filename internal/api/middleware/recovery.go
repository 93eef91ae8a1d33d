package middleware

import (
	"log"
	"net/http"
	"runtime/debug"
)

// Recovery recovers from a panic anywhere downstream and turns it into
// a 500 response, unless the connection has already been hijacked (the
// /ws route does this during upgrade) — at that point the
// ResponseWriter no longer fronts anything Write can reach, so the
// best this middleware can do is log and let the hijacked connection
// get cleaned up by whichever pump panicked.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			err := recover()
			if err == nil {
				return
			}

			if wrapped.hijacked {
				log.Printf("panic recovered after %s %s hijacked its connection: %v\n%s", r.Method, r.URL.Path, err, debug.Stack())
				return
			}

			log.Printf("panic recovered handling %s %s: %v\n%s", r.Method, r.URL.Path, err, debug.Stack())
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":{"code":"INTERNAL_ERROR","message":"internal server error handling ` + r.URL.Path + `"}}`))
		}()

		next.ServeHTTP(wrapped, r)
	})
}
