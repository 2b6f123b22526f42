package routes

import (
	"pairq_server/controllers"
	"pairq_server/services"

	"github.com/gorilla/mux"
)

// RegisterQueueRoutes sets up routes for queue operations under /api/queue
func RegisterQueueRoutes(r *mux.Router, queueService *services.QueueService, matchService *services.MatchService) {
	controller := controllers.NewQueueController(queueService, matchService)

	queueRouter := r.PathPrefix("/api/queue").Subrouter()

	queueRouter.HandleFunc("", controller.Enqueue).Methods("POST")
	queueRouter.HandleFunc("/events", controller.HandleEvent).Methods("POST")
	queueRouter.HandleFunc("/waiting", controller.GetWaiting).Methods("GET")
}
