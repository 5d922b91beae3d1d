package server

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lcalzada-xor/netcity/internal/adapters/web/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed static
var static embed.FS

func SetupRoutes(s *Server) http.Handler {
	r := mux.NewRouter()

	r.Handle("/ws", middleware.RateLimit(s.socketLimiter)(http.HandlerFunc(s.Terminal.HandleWebSocket)))
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/progress", s.ProgressHandler.HandleGetProgress).Methods(http.MethodGet)
	if s.ReportHandler != nil {
		api.Handle("/report.pdf", middleware.RateLimit(s.reportLimiter)(http.HandlerFunc(s.ReportHandler.HandleDownloadPDF))).Methods(http.MethodGet)
	}
	if s.AuditHandler != nil {
		api.HandleFunc("/audit-logs", s.AuditHandler.HandleGetLogs).Methods(http.MethodGet)
	}

	assets, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	r.PathPrefix("/").Handler(http.FileServer(http.FS(assets))).Methods(http.MethodGet)

	return r
}
