package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"connectrpc.com/connect"
	"connectrpc.com/otelconnect"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

var Logger zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	Logger = zerolog.New(out).With().Timestamp().Str("component", "rpc").Logger()
}

// SetLogger allows setting a custom logger
func SetLogger(l zerolog.Logger) {
	Logger = l
}

const (
	healthPath  = "/server/health"
	readyPath   = "/server/ready"
	metricsPath = "/server/metrics"
)

// ServerConfig holds configuration for the RPC server
type ServerConfig struct {
	Address               string
	AllowedOrigins        []string
	EnableMetrics         bool
	RatePerMinute         *int
	MaxConcurrentRequests *int
	OTelConfig            *OTelConfig
	// Ready reports whether the backing chain can serve requests, nil means always ready
	Ready func(context.Context) error
}

func DefaultServerConfig() *ServerConfig {
	maxConcurrentRequests := 200
	return &ServerConfig{
		Address:               "localhost:8080",
		AllowedOrigins:        []string{"http://localhost:3000", "http://localhost:8080"},
		EnableMetrics:         true,
		MaxConcurrentRequests: &maxConcurrentRequests,
	}
}

func (c *ServerConfig) servesMetrics() bool {
	return c.EnableMetrics || (c.OTelConfig != nil && c.OTelConfig.UsePrometheus)
}

// Server owns the http listener and the telemetry providers
type Server struct {
	config       *ServerConfig
	httpServer   *http.Server
	otelShutdown func(context.Context) error
}

func NewServer(ctx context.Context, config *ServerConfig, svc EntryPointServiceHandler) (*Server, error) {
	if config == nil {
		config = DefaultServerConfig()
	}
	if svc == nil {
		return nil, errors.New("entry point service is required")
	}

	s := &Server{config: config}
	if config.OTelConfig.enabled() {
		shutdown, err := NewOTelSDK(ctx, config.OTelConfig)
		if err != nil {
			// serve without telemetry
			Logger.Error().Err(err).Msg("Failed to initialize OpenTelemetry")
		} else {
			s.otelShutdown = shutdown
		}
	}

	mux := s.routes()
	path, handler := NewEntryPointServiceHandler(svc, s.connectOptions()...)
	mux.Handle(path+"*", handler)

	// h2c lets grpc clients speak HTTP/2 without TLS
	root := h2c.NewHandler(withCORS(config.AllowedOrigins, mux), &http2.Server{})
	s.httpServer = &http.Server{
		Addr:              config.Address,
		Handler:           root,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s, nil
}

// routes builds the middleware chain and the health endpoints
func (s *Server) routes() *chi.Mux {
	mux := chi.NewMux()
	mux.Use(
		middleware.RequestID,
		clientIP,
		accessLog,
		panicRecovery,
		middleware.Compress(5),
		middleware.Timeout(time.Minute),
	)
	if n := s.config.RatePerMinute; n != nil && *n > 0 {
		mux.Use(httprate.LimitByIP(*n, time.Minute))
	}
	if n := s.config.MaxConcurrentRequests; n != nil && *n > 0 {
		mux.Use(middleware.Throttle(*n))
	}

	if s.config.servesMetrics() {
		mux.Handle(metricsPath, promhttp.Handler())
	}
	mux.Get(healthPath, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "entry-point-rpc"})
	})
	mux.Get(readyPath, s.ready)
	return mux
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	if s.config.Ready != nil {
		if err := s.config.Ready(r.Context()); err != nil {
			Logger.Warn().Err(err).Msg("Readiness check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready", "reason": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// connectOptions puts the otel interceptor outermost so the log line carries
// the trace id
func (s *Server) connectOptions() []connect.HandlerOption {
	interceptors := []connect.Interceptor{rpcInterceptor{}}
	if s.config.OTelConfig != nil && s.config.OTelConfig.EnableTracing {
		otelInterceptor, err := otelconnect.NewInterceptor()
		if err != nil {
			Logger.Warn().Err(err).Msg("Failed to create OTEL interceptor, continuing without it")
		} else {
			interceptors = append([]connect.Interceptor{otelInterceptor}, interceptors...)
		}
	}
	return []connect.HandlerOption{
		connect.WithRecover(recoverHandler),
		connect.WithInterceptors(interceptors...),
	}
}

// Handler exposes the full middleware stack, mostly for httptest
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving RPC requests without TLS
func (s *Server) Start() error {
	s.announce("http")
	return s.httpServer.ListenAndServe()
}

// StartTLS begins serving RPC requests with TLS
func (s *Server) StartTLS(certFile, keyFile string) error {
	s.announce("https")
	return s.httpServer.ListenAndServeTLS(certFile, keyFile)
}

func (s *Server) announce(protocol string) {
	event := Logger.Info().
		Str("address", s.config.Address).
		Str("protocol", protocol).
		Str("rpc", "/"+EntryPointServiceName+"/").
		Str("health", healthPath).
		Str("ready", readyPath)
	if s.config.servesMetrics() {
		event = event.Str("metrics", metricsPath)
	}
	event.Msg("Spectra entry point RPC server starting")
}

// Shutdown stops accepting requests and then flushes telemetry
func (s *Server) Shutdown(ctx context.Context) error {
	Logger.Info().Msg("Shutting down RPC server...")

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		Logger.Error().Err(err).Msg("Error shutting down HTTP server")
	}
	if s.otelShutdown != nil {
		if otelErr := s.otelShutdown(ctx); otelErr != nil {
			Logger.Error().Err(otelErr).Msg("Error shutting down OpenTelemetry")
			err = errors.Join(err, otelErr)
		}
	}
	if err == nil {
		Logger.Info().Msg("Server shutdown complete")
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		Logger.Debug().Err(err).Msg("Failed to write response")
	}
}

// recoverHandler hides panic details from clients
func recoverHandler(_ context.Context, spec connect.Spec, _ http.Header, p any) error {
	Logger.Error().
		Interface("panic", p).
		Str("procedure", spec.Procedure).
		Msg("Panic in RPC handler")
	return connect.NewError(connect.CodeInternal, errors.New("internal server error"))
}
