// gigmate-matching-service
//
// Proximity search and caching core for the marketplace:
//   - search(filters, center, radius) — bounding-box pre-filter + exact
//     haversine distance, optional nearest-first ordering
//   - matchUsersToJob — per-seeker notification radius matching
//   - read-through cache over Redis with explicit invalidation
//   - periodic job-alert sweep publishing EVENT_JOB_MATCH to Redis
//
// Exposes a small REST API consumed by the Gateway (see internal/api), plus
// /health.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gigmate/matching-service/internal/alerts"
	"gigmate/matching-service/internal/api"
	"gigmate/matching-service/internal/cache"
	"gigmate/matching-service/internal/config"
	"gigmate/matching-service/internal/db"
	"gigmate/matching-service/internal/geocode"
	"gigmate/matching-service/internal/search"
	"gigmate/matching-service/internal/store"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[matching-service] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[matching-service] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[matching-service] PostgreSQL: %v", err)
	}
	defer pool.Close()
	log.Println("[matching-service] PostgreSQL connected ✓")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[matching-service] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[matching-service] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[matching-service] Redis connected ✓")

	// ── Wiring ───────────────────────────────────────────────────────────────
	// Everything is constructed and injected here; no package-level handles.
	c := cache.New(rdb)
	geocoder := geocode.NewCachedGeocoder(
		geocode.NewPostcodesClient(cfg.PostcodesBaseURL),
		c,
		time.Duration(cfg.GeocodeCacheTTLHrs)*time.Hour,
	)
	searchStore := store.NewSearchStore(pool)
	engine := search.NewEngine(searchStore, geocoder)
	jobs := store.NewJobs(pool, c)
	categories := store.NewCategories(pool, c)

	sweeper := alerts.NewSweeper(searchStore, engine, c, rdb,
		time.Duration(cfg.SweepIntervalHours)*time.Hour)
	scheduler := alerts.NewScheduler(sweeper, cfg.SweepIntervalHours)
	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("[matching-service] Scheduler: %v", err)
	}
	defer scheduler.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)

	h := api.NewHandler(engine, jobs, categories)
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[matching-service] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[matching-service] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[matching-service] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[matching-service] Shutdown error: %v", err)
	}
	log.Println("[matching-service] Stopped.")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "matching-service",
		"version": version,
	})
}
