package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"pairq_server/services"

	"github.com/gorilla/mux"
)

// SessionController handles HTTP requests for session and match reads
type SessionController struct {
	SessionService *services.SessionService
}

// NewSessionController creates a new SessionController instance
func NewSessionController(sessionService *services.SessionService) *SessionController {
	return &SessionController{SessionService: sessionService}
}

// GetSession handles fetching a session by id
func (sc *SessionController) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	session, err := sc.SessionService.GetSession(r.Context(), sessionID)
	if errors.Is(err, services.ErrItemNotFound) {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch session: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"session": session,
	})
}

// GetMatch handles fetching a match record by id
func (sc *SessionController) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["matchId"]

	match, err := sc.SessionService.GetMatch(r.Context(), matchID)
	if errors.Is(err, services.ErrItemNotFound) {
		http.Error(w, "Match not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch match: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"match": match,
	})
}

// TouchSession bumps a session's last-activity timestamp
func (sc *SessionController) TouchSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	if err := sc.SessionService.TouchSession(r.Context(), sessionID); err != nil {
		http.Error(w, fmt.Sprintf("Failed to touch session: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "Session activity updated"})
}

// CloseSession marks a session inactive
func (sc *SessionController) CloseSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	if err := sc.SessionService.CloseSession(r.Context(), sessionID); err != nil {
		http.Error(w, fmt.Sprintf("Failed to close session: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "Session closed"})
}
