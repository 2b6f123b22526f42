package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"pairq_server/routes"
	"pairq_server/services"
	"pairq_server/socket"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Initialize DynamoDB client and service
	log.Println("Initializing DynamoDB client...")
	dynamoClient := services.InitializeDynamoDBClient()
	dynamoService := &services.DynamoService{Client: dynamoClient}
	log.Println("DynamoDB client initialized.")

	// Retry budget for the match transaction, configurable via environment
	matchConfig := services.MatchConfig{
		MaxAttempts: envInt("MATCH_MAX_ATTEMPTS", 5),
		BackoffBase: envDuration("MATCH_BACKOFF_BASE", 25*time.Millisecond),
		BackoffMax:  envDuration("MATCH_BACKOFF_MAX", 500*time.Millisecond),
	}
	queueTTL := envDuration("QUEUE_TTL", 30*time.Minute)

	// Socket.IO server pushes session-created events to waiting clients
	socketServer := socket.NewSocketServer()
	go func() {
		if err := socketServer.Serve(); err != nil {
			log.Fatalf("Socket server error: %v", err)
		}
	}()
	defer socketServer.Close()

	// Initialize Services
	queueService := &services.QueueService{Dynamo: dynamoService}
	matchService := &services.MatchService{
		Dynamo:   dynamoService,
		Queue:    queueService,
		Config:   matchConfig,
		Notifier: &socket.Notifier{Server: socketServer},
	}
	sessionService := &services.SessionService{Dynamo: dynamoService}
	reaperService := &services.ReaperService{Dynamo: dynamoService}

	// Optionally sweep stale entries on a schedule
	if interval := envDuration("REAPER_INTERVAL", 0); interval > 0 {
		go runReaperSchedule(reaperService, interval, queueTTL)
	}

	// Set up the server port
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Using server port: %s\n", port)

	// Initialize the router
	r := mux.NewRouter()

	// Register a welcome route
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "Welcome to PairQ")
	}).Methods("GET")

	// Register a health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		response := map[string]string{"status": "healthy"}
		json.NewEncoder(w).Encode(response)
	}).Methods("GET")

	// Register routes
	routes.RegisterQueueRoutes(r, queueService, matchService)
	routes.RegisterSessionRoutes(r, sessionService)
	routes.RegisterReaperRoutes(r, reaperService, queueTTL)
	r.Handle("/socket.io/", socketServer)

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Adjust for specific domains if needed
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	// Start the HTTP server
	log.Printf("Starting server on port %s...\n", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler))
}

// runReaperSchedule sweeps the queue at a fixed interval. TTL precision is
// bounded by the interval, not guaranteed exact.
func runReaperSchedule(reaperService *services.ReaperService, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		if _, err := reaperService.ReapStale(context.Background(), ttl); err != nil {
			log.Printf("Scheduled reaper run failed: %v", err)
		}
	}
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		log.Printf("Ignoring invalid %s=%q, using %d", name, raw, fallback)
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value < 0 {
		log.Printf("Ignoring invalid %s=%q, using %s", name, raw, fallback)
		return fallback
	}
	return value
}
