/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the budget engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse flags
  2. Initialize the JSON-file store
  3. Build the undo log and budget service
  4. Configure the HTTP router and month scheduler
  5. Start the server with graceful shutdown

CONFIGURATION:
  Flags override environment variables; .env feeds the environment.

    -port        PORT         HTTP server port (default 8080)
    -data        DATA_DIR     Data directory (default ./data)
    -undo-depth  UNDO_DEPTH   Undo stack depth (default 20)
    -scheduler   SCHEDULER    Auto-generate upcoming months (default true)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Exit — the store needs no close; every write already fsynced

SEE ALSO:
  - api/server.go: Router configuration
  - store/jsonfile/jsonfile.go: Storage implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hearthledger/budget-engine/api"
	"github.com/hearthledger/budget-engine/budget"
	"github.com/hearthledger/budget-engine/store/jsonfile"
)

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dataDir := flag.String("data", envStr("DATA_DIR", "./data"), "data directory")
	undoDepth := flag.Int("undo-depth", envInt("UNDO_DEPTH", budget.DefaultUndoDepth), "undo stack depth")
	scheduler := flag.Bool("scheduler", envBool("SCHEDULER", true), "auto-generate upcoming months")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	store, err := jsonfile.New(*dataDir, log)
	if err != nil {
		log.Error("failed to initialize store", "dir", *dataDir, "err", err)
		os.Exit(1)
	}

	undo := budget.NewUndoLog(store, *undoDepth, log)
	svc := budget.NewService(store, undo, log)
	handler := api.NewHandler(svc)
	router := api.NewRouter(handler)

	var sched *api.MonthScheduler
	if *scheduler {
		sched = api.NewMonthScheduler(svc, log)
		sched.Start()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", "addr", server.Addr, "data_dir", *dataDir)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if sched != nil {
		sched.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", "err", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
