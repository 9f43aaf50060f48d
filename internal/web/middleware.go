package web

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const requestIDHeader = "X-Request-ID"

type contextKey string

const requestInfoKey contextKey = "request_info"

// requestInfo travels in the request context so handlers can read the ID and
// tag the route they serve.
type requestInfo struct {
	id    string
	route string
	start time.Time
}

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares so the first one listed runs outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// RequestID returns the ID assigned to the request, or "".
func RequestID(ctx context.Context) string {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		return info.id
	}
	return ""
}

func setRoute(ctx context.Context, route string) {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		info.route = route
	}
}

// loggingMiddleware assigns a request ID, attaches a request-scoped logger and
// records one log line and one metric sample per request.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := &requestInfo{id: uuid.NewString(), route: "unmatched", start: time.Now()}
		w.Header().Set(requestIDHeader, info.id)

		logger := log.With().Str("request_id", info.id).Logger()
		ctx := context.WithValue(r.Context(), requestInfoKey, info)
		ctx = logger.WithContext(ctx)
		r = r.WithContext(ctx)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		level := zerolog.InfoLevel
		if wrapped.statusCode >= http.StatusInternalServerError {
			level = zerolog.ErrorLevel
		}
		logger.WithLevel(level).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.statusCode).
			Dur("latency", time.Since(info.start)).
			Msg("request")

		if s.metrics != nil {
			s.metrics.HTTPRequestObserve(info.route, wrapped.statusCode)
		}
	})
}

// recoveryMiddleware turns a handler panic into an error response so one bad
// request never takes the process down.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			zerolog.Ctx(r.Context()).Error().
				Str("panic", fmt.Sprint(rec)).
				Str("stack", string(buf[:n])).
				Msg("panic recovered")

			if rw, ok := w.(*responseWriter); ok && rw.written {
				return
			}
			msg := fmt.Sprintf("internal error: %v", rec)
			if strings.HasPrefix(r.URL.Path, "/api/") {
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msg, RequestID: RequestID(r.Context())})
				return
			}
			s.render(w, r, http.StatusInternalServerError, s.recoveredPage(r, msg))
		}()

		next.ServeHTTP(w, r)
	})
}

// recoveredPage keeps the form on the error page so the user can resubmit.
// Fields are left out if building them panics too.
func (s *Server) recoveredPage(r *http.Request, msg string) (data *pageData) {
	data = s.newPage(r)
	data.Error = msg
	defer func() {
		if recover() != nil {
			data.Fields = nil
		}
	}()

	if model, err := s.loader.Load(r.Context()); err == nil {
		data.Fields = s.fieldViews(model, r.PostForm, nil)
	}
	return data
}

// responseWriter captures the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.ResponseWriter.WriteHeader(code)
		rw.written = true
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
