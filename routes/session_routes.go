package routes

import (
	"pairq_server/controllers"
	"pairq_server/services"

	"github.com/gorilla/mux"
)

// RegisterSessionRoutes sets up routes for session and match reads
func RegisterSessionRoutes(r *mux.Router, sessionService *services.SessionService) {
	controller := controllers.NewSessionController(sessionService)

	sessionRouter := r.PathPrefix("/api/sessions").Subrouter()
	sessionRouter.HandleFunc("/{sessionId}", controller.GetSession).Methods("GET")
	sessionRouter.HandleFunc("/{sessionId}/activity", controller.TouchSession).Methods("PUT")
	sessionRouter.HandleFunc("/{sessionId}/close", controller.CloseSession).Methods("POST")

	matchRouter := r.PathPrefix("/api/matches").Subrouter()
	matchRouter.HandleFunc("/{matchId}", controller.GetMatch).Methods("GET")
}
