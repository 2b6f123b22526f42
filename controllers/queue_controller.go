package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"pairq_server/services"
)

// QueueController handles HTTP requests for enqueueing and queue events
type QueueController struct {
	QueueService *services.QueueService
	MatchService *services.MatchService
}

// NewQueueController creates a new QueueController instance
func NewQueueController(queueService *services.QueueService, matchService *services.MatchService) *QueueController {
	return &QueueController{QueueService: queueService, MatchService: matchService}
}

// Enqueue creates a queue entry for a user and fires the match handler for
// it, returning the entry and the match outcome.
func (qc *QueueController) Enqueue(w http.ResponseWriter, r *http.Request) {
	var request struct {
		UserID   string `json:"userId"`
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	entry, err := qc.QueueService.Enqueue(r.Context(), request.UserID, request.Category)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to enqueue: %v", err), http.StatusBadRequest)
		return
	}

	outcome, err := qc.MatchService.HandleQueueEvent(r.Context(), entry.EntryID)
	if err != nil {
		// The entry is queued; the event surface can re-fire the handler.
		http.Error(w, fmt.Sprintf("Enqueued %s but match handler failed: %v", entry.EntryID, err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"entry":   entry,
		"outcome": outcome,
	})
}

// HandleEvent re-fires the match handler for an existing entry. This is
// the at-least-once redelivery surface: firing it for an already-consumed
// entry is a successful no-op.
func (qc *QueueController) HandleEvent(w http.ResponseWriter, r *http.Request) {
	var request struct {
		EntryID string `json:"entryId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.EntryID == "" {
		http.Error(w, "entryId is required", http.StatusBadRequest)
		return
	}

	outcome, err := qc.MatchService.HandleQueueEvent(r.Context(), request.EntryID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Match handler failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"outcome": outcome,
	})
}

// GetWaiting lists waiting entries of one category in FIFO order
func (qc *QueueController) GetWaiting(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		http.Error(w, "category is required", http.StatusBadRequest)
		return
	}

	limit := int32(50)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = int32(parsed)
	}

	entries, err := qc.QueueService.ListWaiting(r.Context(), category, limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to list waiting entries: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"entries": entries,
	})
}
