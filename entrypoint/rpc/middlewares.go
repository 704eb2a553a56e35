package rpc

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// client address headers in order of trust
var clientIPHeaders = []string{"CF-Connecting-IP", "X-Real-IP", "X-Forwarded-For"}

// accessLog writes one line per http request, the level follows the status
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		var event *zerolog.Event
		switch status := ww.Status(); {
		case status >= http.StatusInternalServerError:
			event = Logger.Error()
		case status >= http.StatusBadRequest:
			event = Logger.Warn()
		default:
			event = Logger.Debug()
		}

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		event.
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("route", route).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Str("client", r.RemoteAddr).
			Dur("took", time.Since(start)).
			Msg("http")
	})
}

// clientIP rewrites RemoteAddr from the first proxy header present
func clientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, header := range clientIPHeaders {
			value := r.Header.Get(header)
			if value == "" {
				continue
			}
			// X-Forwarded-For is a list, the client comes first
			if ip := strings.TrimSpace(strings.Split(value, ",")[0]); ip != "" {
				r.RemoteAddr = ip
				break
			}
		}
		next.ServeHTTP(w, r)
	})
}

// panicRecovery turns a panic in a plain http route into a 500
func panicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}
			Logger.Error().
				Interface("panic", rvr).
				Str("request_id", middleware.GetReqID(r.Context())).
				Bytes("stack", debug.Stack()).
				Msg("http handler panicked")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "internal error"})
		}()
		next.ServeHTTP(w, r)
	})
}

func withCORS(allowedOrigins []string, next http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: append([]string{"Accept-Encoding", "Content-Encoding", "Content-Type"}, connectHeaders...),
		ExposedHeaders: []string{"Content-Encoding", "Connect-Content-Encoding"},
		MaxAge:         7200,
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	// browsers refuse credentials with a wildcard origin
	opts.AllowCredentials = !(len(opts.AllowedOrigins) == 1 && opts.AllowedOrigins[0] == "*")
	return cors.New(opts).Handler(next)
}

var connectHeaders = []string{
	"Connect-Accept-Encoding",
	"Connect-Content-Encoding",
	"Connect-Protocol-Version",
	"Connect-Timeout-Ms",
}

// rpcInterceptor logs every unary call and marks successful responses as
// uncacheable, quotes go stale with the pools
type rpcInterceptor struct{}

func (rpcInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		start := time.Now()
		resp, err := next(ctx, req)

		event := Logger.Info()
		if err != nil {
			event = Logger.Warn().Err(err).Stringer("code", connect.CodeOf(err))
		} else if resp != nil {
			resp.Header().Set("Cache-Control", "no-store")
		}
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			event = event.Stringer("trace_id", sc.TraceID())
		}
		event.
			Str("procedure", req.Spec().Procedure).
			Str("protocol", req.Peer().Protocol).
			Dur("took", time.Since(start)).
			Msg("rpc")
		return resp, err
	}
}

func (rpcInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (rpcInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return next
}
