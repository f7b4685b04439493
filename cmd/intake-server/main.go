// cmd/intake-server/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ticket-scout/internal/common/cache"
	"ticket-scout/internal/common/config"
	"ticket-scout/internal/common/logger"
	"ticket-scout/internal/common/observability"
	"ticket-scout/internal/extract"
	"ticket-scout/internal/intake"
	"ticket-scout/internal/models"
	"ticket-scout/internal/ocr"
	"ticket-scout/internal/scrape"
	"ticket-scout/internal/tiers"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting intake server...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("intake-server")
	defer obs.Shutdown()

	ctx := context.Background()
	isDevelopment := cfg.App.IsDevelopment()

	// --- Init Result Cache with retry ---
	var resultCache *cache.ResultCache
	if cfg.Cache.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			resultCache, err = cache.New(cfg.Cache)
			if err != nil {
				return err
			}
			return resultCache.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			// The cache is an optimization, never a startup dependency.
			zapLog.Warn("redis unavailable, running without result cache", zap.Error(err))
			resultCache = nil
		} else {
			defer resultCache.Close()
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Init Extraction + OCR ---
	engine := extract.NewEngine(log)

	var ocrStage *ocr.Stage
	if cfg.OCR.BaseURL != "" {
		recognizer := ocr.NewHTTPRecognizer(cfg.OCR.BaseURL, cfg.OCR.APIKey, config.GetDuration(cfg.OCR.Timeout))
		ocrStage = ocr.NewStage(recognizer, engine, cfg.Confidence.OCRBase, log)
	} else {
		zapLog.Warn("no OCR endpoint configured, image uploads disabled")
	}

	// --- Init Scraper ---
	factory := scrape.NewChromeFactory(cfg.Scrape.Headless)
	scraper := scrape.NewScraper(factory, engine, cfg.Scrape, cfg.Confidence.ScrapedText, log)

	// --- Init Fallback Tiers ---
	var remoteTier, localTier tiers.Tier
	if cfg.Tiers.Remote.BaseURL != "" {
		remote, err := tiers.NewRemoteTier(cfg.Tiers.Remote.BaseURL, cfg.Tiers.Remote.APIKey,
			config.GetDuration(cfg.Tiers.Remote.Timeout), cfg.Confidence.RemoteStructured)
		if err != nil {
			zapLog.Fatal("remote tier init failed", zap.Error(err))
		}
		remoteTier = remote
	}
	if isDevelopment && cfg.Tiers.Local.BaseURL != "" {
		local, err := tiers.NewLocalTier(cfg.Tiers.Local.BaseURL,
			config.GetDuration(cfg.Tiers.Local.Timeout), cfg.Confidence.ScrapedText)
		if err != nil {
			zapLog.Fatal("local tier init failed", zap.Error(err))
		}
		localTier = local
	}

	orchestrator := tiers.NewOrchestrator(remoteTier, localTier, scraper, resultCache, isDevelopment, log)

	// --- Init Coordinator + HTTP API ---
	coordinator := intake.NewCoordinator(orchestrator, ocrStage, enabledSources(cfg, zapLog), models.DiscardSink{},
		cfg.Scrape.MaxConcurrent, log)
	handler := intake.NewHandler(coordinator, log)

	mux := http.NewServeMux()
	handler.Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      instrument(mux, obs),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("Intake server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error during server shutdown", zap.Error(err))
	}

	zapLog.Info("Intake server stopped gracefully")
}

// enabledSources filters the configured jurisdictions down to the active
// set with a known provenance tag.
func enabledSources(cfg *config.Config, zapLog *zap.Logger) map[string]config.SourceConfig {
	sources := make(map[string]config.SourceConfig, len(cfg.Sources))
	for name, portal := range cfg.Sources {
		if !portal.Enabled {
			continue
		}
		if _, known := scrape.SourceTag(name); !known {
			zapLog.Warn("configured source has no provenance tag, skipping", zap.String("source", name))
			continue
		}
		sources[name] = portal
	}
	return sources
}

// instrument records lookup counts and durations around every API request.
func instrument(next http.Handler, obs *observability.Observability) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		if r.URL.Path == "/v1/tickets/search" {
			status := "success"
			if recorder.status >= 400 {
				status = "error"
			}
			obs.RecordLookup(r.Context(), status)
			obs.RecordLookupDuration(r.Context(), time.Since(started), status)
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
