package routes

import (
	"time"

	"pairq_server/controllers"
	"pairq_server/services"

	"github.com/gorilla/mux"
)

// RegisterReaperRoutes sets up the administrative reaper route
func RegisterReaperRoutes(r *mux.Router, reaperService *services.ReaperService, defaultTTL time.Duration) {
	controller := controllers.NewReaperController(reaperService, defaultTTL)

	adminRouter := r.PathPrefix("/api/admin").Subrouter()
	adminRouter.HandleFunc("/reaper/run", controller.RunReaper).Methods("POST")
}
