package main

import (
	"fmt"
	"log"
	"net/http"

	"mcqgen/config"
	"mcqgen/db"
	"mcqgen/handlers"
	"mcqgen/services"
	"mcqgen/services/docindex"
	"mcqgen/services/oracle"

	"github.com/gorilla/mux"
)

func main() {
	cfg := config.Load()

	if cfg.OpenAIAPIKey == "" {
		log.Fatal("OPENAI_API_KEY environment variable is required")
	}

	if cfg.PineconeAPIKey == "" {
		log.Fatal("PINECONE_API_KEY environment variable is required")
	}

	if cfg.OracleProvider == "anthropic" && cfg.AnthropicAPIKey == "" {
		log.Fatal("ANTHROPIC_API_KEY environment variable is required when ORACLE_PROVIDER=anthropic")
	}

	docindexService, err := docindex.NewService(cfg.PineconeAPIKey, cfg.OpenAIAPIKey, cfg.PineconeIndexName)
	if err != nil {
		log.Fatalf("Failed to initialize document index service: %v", err)
	}

	var resultService *services.ResultService
	if cfg.DatabaseURL != "" {
		resultRepo, err := db.NewPostgresResultRepository(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize result database: %v", err)
		}
		defer resultRepo.Close()
		resultService = services.NewResultService(resultRepo)
	} else {
		log.Printf("[WARN] DB_URL not set, quiz results will not be archived")
	}

	oracleFactory := func(index *docindex.Index) (oracle.Oracle, error) {
		if cfg.OracleProvider == "anthropic" {
			return oracle.NewAnthropicOracle(cfg.AnthropicAPIKey, docindexService, index), nil
		}
		return oracle.NewOpenAIOracle(cfg.OpenAIAPIKey, docindexService, index)
	}

	sessionService := services.NewSessionService(docindexService, oracleFactory, resultService)
	sessionHandler := handlers.NewSessionHandler(sessionService)

	router := mux.NewRouter()

	router.Use(corsMiddleware)
	router.Use(jsonMiddleware)

	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("OPTIONS")

	sessionHandler.RegisterRoutes(router)

	if resultService != nil {
		resultHandler := handlers.NewResultHandler(resultService)
		resultHandler.RegisterRoutes(router)
	}

	router.HandleFunc("/health", healthCheckHandler).Methods("GET")

	addr := ":" + cfg.Port
	fmt.Printf("Server starting on port %s\n", cfg.Port)

	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Expose-Headers", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy"}`))
}
