package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"boardtrack/config"
	"boardtrack/database"
	"boardtrack/engine"
	"boardtrack/handlers"
	"boardtrack/middleware"
	"boardtrack/repository"
	"boardtrack/scheduler"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	if err := database.InitDatabase(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDatabase()

	if err := database.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	boardRepo := repository.NewBoardRepository()
	overrideRepo := repository.NewOverrideRepository()

	controller := engine.NewController(engine.NewEngine(cfg), &engine.RodSessionFactory{}, cfg)

	sweeper := scheduler.NewSweeper(controller, boardRepo, overrideRepo, cfg)
	if err := sweeper.Start(cfg.SweepSchedule); err != nil {
		log.Fatalf("Failed to start sweeper: %v", err)
	}
	defer sweeper.Stop()

	retryService := scheduler.NewRetryService(boardRepo, sweeper)
	retryService.Start()
	defer retryService.Stop()

	h := handlers.NewHandlers(boardRepo, overrideRepo, sweeper)

	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.RateLimitMiddleware(cfg.RateLimitRPS))

	r.HandleFunc("/health", healthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/boards", h.AddBoard).Methods("POST")
	api.HandleFunc("/boards", h.GetBoards).Methods("GET")
	api.HandleFunc("/boards/{id}", h.GetBoard).Methods("GET")
	api.HandleFunc("/boards/{id}", h.DeleteBoard).Methods("DELETE")
	api.HandleFunc("/boards/{id}/check", h.CheckBoardNow).Methods("POST")
	api.HandleFunc("/boards/{id}/history", h.GetPriceHistory).Methods("GET")
	api.HandleFunc("/boards/{id}/override", h.SetOverride).Methods("PUT")
	api.HandleFunc("/boards/{id}/override", h.DeleteOverride).Methods("DELETE")

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000"
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{allowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	addr := cfg.Host + ":" + cfg.Port
	log.Printf("Server starting on %s", addr)
	log.Fatal(http.ListenAndServe(addr, c.Handler(r)))
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"service":   "boardtrack",
		"status":    "healthy",
		"timestamp": time.Now(),
	})
}
