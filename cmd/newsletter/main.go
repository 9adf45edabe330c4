package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deusflow/newsletter/internal/app"
	"github.com/deusflow/newsletter/internal/config"
	"github.com/deusflow/newsletter/internal/llm"
	"github.com/deusflow/newsletter/internal/logger"
	"github.com/deusflow/newsletter/internal/metrics"
	"github.com/deusflow/newsletter/internal/ratelimit"
	"github.com/deusflow/newsletter/internal/telegram"
)

func main() {
	os.Exit(start())
}

// start returns the exit code so deferred cleanup runs before os.Exit.
func start() int {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 1
	}
	logger.Init(cfg.Debug, cfg.LogFormat)

	if cfg.EnableHTTPMonitoring {
		go startMonitoringServer(cfg.MonitoringPort)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		metrics.Global.SetError(err.Error())
		logger.Error("newsletter run failed", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg *config.Config) error {
	var backend llm.Completer
	switch cfg.AIProvider {
	case "openai":
		backend = llm.NewOpenAI()
	default:
		g := llm.NewGemini()
		defer g.Close()
		backend = g
	}
	guard := ratelimit.NewGuard(backend, cfg.MaxAIRequests, cfg.AIRequestsRPS)
	defer guard.PrintStats()

	model := cfg.ModelOverride
	if model == "" {
		model = llm.DefaultModel
	}

	sources, err := app.NewSources(cfg)
	if err != nil {
		return err
	}

	history := app.OpenHistory(cfg)
	defer func() {
		if err := history.Close(); err != nil {
			logger.Warn("failed to close history", "error", err)
		}
	}()

	var sender app.Sender = app.TelegramSender{Client: telegram.NewClient(cfg.TelegramToken)}
	if cfg.DryRun {
		logger.Info("dry run: printing digest instead of sending")
		sender = app.WriterSender{W: os.Stdout}
	}

	return app.New(cfg, guard, model, sources, history, sender).Run(ctx)
}

func startMonitoringServer(port string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/stats", statsHandler)
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting monitoring server", "port", port)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("monitoring server error", "error", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status, code := "ok", http.StatusOK
	if !metrics.Global.Healthy() {
		status, code = "error", http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"run_id":     stats["last_run_id"],
		"last_error": stats["last_error"],
	}

	writeJSON(w, code, response)
}

func statsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metrics.Global.GetStats())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to encode monitoring response", "error", err)
	}
}
