package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"pairq_server/services"
)

// ReaperController exposes the administrative "run reaper now" entry point
type ReaperController struct {
	ReaperService *services.ReaperService
	DefaultTTL    time.Duration
}

// NewReaperController creates a new ReaperController instance
func NewReaperController(reaperService *services.ReaperService, defaultTTL time.Duration) *ReaperController {
	return &ReaperController{ReaperService: reaperService, DefaultTTL: defaultTTL}
}

// RunReaper deletes all queue entries older than the TTL. The ttl query
// parameter (a Go duration, e.g. "30m") overrides the configured default.
func (rc *ReaperController) RunReaper(w http.ResponseWriter, r *http.Request) {
	ttl := rc.DefaultTTL
	if raw := r.URL.Query().Get("ttl"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "ttl must be a positive duration", http.StatusBadRequest)
			return
		}
		ttl = parsed
	}

	removed, err := rc.ReaperService.ReapStale(r.Context(), ttl)
	if err != nil {
		http.Error(w, fmt.Sprintf("Reaper failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Reaper run complete",
		"removed": removed,
		"ttl":     ttl.String(),
	})
}
