package middleware

import (
	"bufio"
	"log"
	"net"
	"net/http"
	"time"
)

// responseWriter wraps http.ResponseWriter to capture the status code,
// response size, and whether the connection was handed off to a
// protocol upgrade (the /ws route hijacks through this same chain).
type responseWriter struct {
	http.ResponseWriter
	status   int
	size     int
	hijacked bool
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// Hijack implements http.Hijacker so the WebSocket upgrade in
// internal/api/handlers/session.go can take the raw connection.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	conn, buf, err := hijacker.Hijack()
	if err == nil {
		rw.hijacked = true
	}
	return conn, buf, err
}

// Logging logs each request's method, path, remote address and
// outcome. A request that hijacks its connection (the /ws upgrade) is
// logged as an "upgraded" line instead of the usual status/size/
// duration triple: once control passes to the session's read/write
// pumps the connection can live for the rest of the process, so a
// duration measured here would describe nothing meaningful.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{
			ResponseWriter: w,
			status:         http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		if wrapped.hijacked {
			log.Printf("%s %s %s upgraded", r.Method, r.URL.Path, r.RemoteAddr)
			return
		}

		log.Printf("%s %s %s %d %dB %s",
			r.Method,
			r.URL.Path,
			r.RemoteAddr,
			wrapped.status,
			wrapped.size,
			time.Since(start),
		)
	})
}
