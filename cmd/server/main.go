package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/civicsprep/backend/internal/assessment"
	"github.com/civicsprep/backend/internal/auth"
	"github.com/civicsprep/backend/internal/content"
	"github.com/civicsprep/backend/internal/cooldown"
	"github.com/civicsprep/backend/internal/database"
	"github.com/civicsprep/backend/internal/search"
	"github.com/go-co-op/gocron"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

const (
	snapshotFlushInterval = 30 * time.Second
	snapshotStaleAfter    = 7 * 24 * time.Hour
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	// Initialize database
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Stores and services
	contentStore := content.NewStore(db)
	contentService := content.NewService(contentStore)

	assessmentStore := assessment.NewStore(db)
	tracker := assessment.NewTracker(assessmentStore)
	gate := cooldown.NewGate()
	assessmentService := assessment.NewService(assessmentStore, tracker, contentStore, gate)

	searchStore := search.NewStore(db)
	searchService := search.NewService(searchStore, contentStore)

	// Background jobs
	scheduler := gocron.NewScheduler(time.UTC)
	if err := tracker.StartScheduler(scheduler, snapshotFlushInterval, snapshotStaleAfter); err != nil {
		log.Fatalf("Failed to schedule snapshot jobs: %v", err)
	}
	scheduler.StartAsync()
	defer scheduler.Stop()

	// Handlers
	authHandler := auth.NewHandler(db)
	contentHandler := content.NewHandler(contentService)
	assessmentHandler := assessment.NewHandler(assessmentService)
	searchHandler := search.NewHandler(searchService)

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(auth.Middleware)
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")
	assessmentHandler.RegisterRoutes(protected)
	contentHandler.RegisterRoutes(protected)
	searchHandler.RegisterRoutes(protected)

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
