/*
main.go - Application entry point

PURPOSE:
  Starts the addition engine HTTP server: facility data upload, addition
  eligibility, revenue simulation, and monthly billing verification.

STARTUP SEQUENCE:
  1. Parse command-line flags (environment variables as fallback)
  2. Open the store (SQLite by default, PostgreSQL optional)
  3. Create API handler and router
  4. Start the monthly verification scheduler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port                 HTTP server port (default: 8080)
  -db                   Database path or DSN (default: additions.db)
                        Use ":memory:" for in-memory database
  -driver               sqlite3 or postgres (default: sqlite3)
  -scheduler            Run monthly verification in the background (default: true)
  -scheduler-interval   How often the scheduler checks (default: 1h)

ENVIRONMENT:
  ADDITION_ENGINE_DB       Used when -db is not given
  ADDITION_ENGINE_DRIVER   Used when -driver is not given

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM the scheduler stops, active requests get 30s to
  finish, then the database is closed.

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Monthly verification
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/addition-engine/api"
	"github.com/warp/addition-engine/store/sqlite"
)

func main() {
	port := flag.Int("port", 8080, "HTTP server port")
	dsn := flag.String("db", envOr("ADDITION_ENGINE_DB", "additions.db"), "database path or DSN")
	driver := flag.String("driver", envOr("ADDITION_ENGINE_DRIVER", sqlite.DriverSQLite), "database driver (sqlite3 or postgres)")
	schedule := flag.Bool("scheduler", true, "run monthly verification in the background")
	interval := flag.Duration("scheduler-interval", time.Hour, "verification scheduler check interval")
	flag.Parse()

	store, err := sqlite.Open(*driver, *dsn)
	if err != nil {
		log.Fatalf("[Server] Failed to initialize database: %v", err)
	}
	defer store.Close()

	handler := api.NewHandler(store)
	router := api.NewRouter(handler)

	scheduler := api.NewVerificationScheduler(store, handler.Verifier)
	scheduler.CheckInterval = *interval
	scheduler.Enabled = *schedule
	scheduler.Start()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("[Server] Listening on http://localhost:%d (driver=%s)", *port, *driver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[Server] Failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[Server] Shutting down...")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("[Server] Forced to shutdown: %v", err)
	}

	log.Println("[Server] Stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
