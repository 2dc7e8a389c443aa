/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave board server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Initialize SQLite store (optionally seed demo data)
  3. Build the extraction client from environment credentials
  4. Create API handler and router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: leaveboard.db)
           Use ":memory:" for in-memory database
  -period  Fiscal year shown when the client does not ask for one
           (default: current year)
  -seed    Load demo roster and movements on startup

ENVIRONMENT:
  GROQ_API_KEY      Extraction service credential. When unset, the server
                    still runs; /api/extract reports the assistant as
                    unavailable.
  EXTRACT_BASE_URL  OpenAI-compatible endpoint (default: Groq)
  EXTRACT_MODEL     Model name (default: extract.DefaultModel)
  LOG_LEVEL         logrus level (default: info)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database and demo data
  ./server -db="./data/leaveboard.db" -seed

  # Run with in-memory database
  ./server -db=":memory:" -seed

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/vantage-hr/leaveboard/api"
	"github.com/vantage-hr/leaveboard/extract"
	"github.com/vantage-hr/leaveboard/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "leaveboard.db", "SQLite database path")
	period := flag.Int("period", time.Now().Year(), "default fiscal year for balance views")
	seed := flag.Bool("seed", false, "load demo roster and movements on startup")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(level)
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer store.Close()

	if *seed {
		if err := store.Seed(context.Background()); err != nil {
			log.WithError(err).Fatal("failed to seed demo data")
		}
		log.Info("demo data loaded")
	}

	// Extraction assistant is optional; the rest of the board works without it.
	var extractor api.Extractor
	if apiKey := os.Getenv("GROQ_API_KEY"); apiKey != "" {
		client := extract.NewClient(os.Getenv("EXTRACT_BASE_URL"), apiKey, os.Getenv("EXTRACT_MODEL"))
		extractor = extract.New(client, log)
		log.Info("extraction assistant enabled")
	} else {
		log.Warn("GROQ_API_KEY not set; extraction assistant disabled")
	}

	// Initialize handler and router
	handler := api.NewHandler(store, extractor, *period, log)
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.WithFields(logrus.Fields{"port": *port, "period": *period}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server stopped")
}
