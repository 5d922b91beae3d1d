package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
)

// ProgressSource returns a snapshot of the saved player progress.
type ProgressSource interface {
	Progress() domain.Progress
}

// ProgressHandler exposes the player's progress document
type ProgressHandler struct {
	Source ProgressSource
}

func NewProgressHandler(source ProgressSource) *ProgressHandler {
	return &ProgressHandler{Source: source}
}

// HandleGetProgress returns the progress in its persisted JSON shape
func (h *ProgressHandler) HandleGetProgress(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Source.Progress())
}
