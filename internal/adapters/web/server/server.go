package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lcalzada-xor/netcity/internal/adapters/web/handlers"
	"github.com/lcalzada-xor/netcity/internal/adapters/web/middleware"
	"github.com/lcalzada-xor/netcity/internal/adapters/web/websocket"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Server serves the browser terminal and the read-only API.
type Server struct {
	Addr            string
	Terminal        *websocket.Manager
	ProgressHandler *handlers.ProgressHandler
	ReportHandler   *handlers.ReportHandler
	AuditHandler    *handlers.AuditHandler

	reportLimiter *middleware.RateLimiter
	socketLimiter *middleware.RateLimiter
	srv           *http.Server
}

// Deps are the game services the server exposes. Audit and Exporter may be nil.
type Deps struct {
	Terminal       ports.Terminal
	Progress       handlers.ProgressSource
	Reports        handlers.ReportSource
	Exporter       ports.ReportExporter
	Audit          ports.AuditService
	AllowedOrigins []string
}

// NewServer creates a new web server.
func NewServer(addr string, d Deps) *Server {
	s := &Server{
		Addr:            addr,
		Terminal:        websocket.NewManager(d.Terminal, d.AllowedOrigins...),
		ProgressHandler: handlers.NewProgressHandler(d.Progress),
		reportLimiter:   middleware.NewRateLimiter(6, time.Minute),
		socketLimiter:   middleware.NewRateLimiter(20, time.Minute),
	}
	if d.Exporter != nil {
		s.ReportHandler = handlers.NewReportHandler(d.Reports, d.Exporter, d.Audit)
	}
	if d.Audit != nil {
		s.AuditHandler = handlers.NewAuditHandler(d.Audit)
	}
	return s
}

// Handler is the instrumented root handler.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(SetupRoutes(s), "netcity-web")
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go s.Terminal.Run(ctx)
	go s.reportLimiter.Run(ctx)
	go s.socketLimiter.Run(ctx)

	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("Web server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Web server shutdown error", "error", err)
		}
	}()

	slog.Info("Web terminal listening", "addr", s.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
