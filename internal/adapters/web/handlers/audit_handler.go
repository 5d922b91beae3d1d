package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
)

const maxAuditLimit = 500

// AuditHandler serves the command audit trail
type AuditHandler struct {
	Service ports.AuditService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(service ports.AuditService) *AuditHandler {
	return &AuditHandler{Service: service}
}

// HandleGetLogs returns the newest audit records. ?limit= caps the count and
// ?action= keeps one action kind out of those records.
func (h *AuditHandler) HandleGetLogs(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxAuditLimit)
	}

	logs, err := h.Service.GetLogs(r.Context(), limit)
	if err != nil {
		slog.Error("Failed to fetch audit logs", "error", err)
		http.Error(w, "Failed to fetch logs", http.StatusInternalServerError)
		return
	}

	if action := domain.AuditAction(strings.ToUpper(r.URL.Query().Get("action"))); action != "" {
		kept := logs[:0]
		for _, l := range logs {
			if l.Action == action {
				kept = append(kept, l)
			}
		}
		logs = kept
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"count": len(logs),
		"logs":  logs,
	})
}
