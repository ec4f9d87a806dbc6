package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wearlab/sensorsync/internal/monitoring"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP surface: health, run history, webhook-triggered sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		env, err := initSync(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		mux := buildMux(ctx, env)

		// Background health checks need both history to read and a webhook
		// to write to.
		if env.History != nil && cfg.Alerts.WebhookURL != "" {
			checker := monitoring.NewChecker(
				monitoring.NewCollector(env.History),
				monitoring.NewAlerter(cfg.Alerts),
				cfg.Alerts,
			)
			go checker.Run(ctx)
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// buildMux wires the HTTP routes. env may be nil in tests; handlers that
// need it answer with an error instead of panicking.
func buildMux(ctx context.Context, env *syncEnv) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /runs", func(w http.ResponseWriter, r *http.Request) {
		if env == nil || env.History == nil {
			http.Error(w, `{"error":"run history is disabled"}`, http.StatusServiceUnavailable)
			return
		}

		limit := 50
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				http.Error(w, `{"error":"invalid limit"}`, http.StatusBadRequest)
				return
			}
			limit = n
		}

		runs, err := env.History.ListRuns(r.Context(), limit)
		if err != nil {
			zap.L().Error("list runs failed", zap.Error(err))
			http.Error(w, `{"error":"list runs failed"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(runs)
	})

	mux.HandleFunc("GET /stats", func(w http.ResponseWriter, r *http.Request) {
		if env == nil || env.History == nil {
			http.Error(w, `{"error":"run history is disabled"}`, http.StatusServiceUnavailable)
			return
		}

		hours := 24
		if s := r.URL.Query().Get("hours"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				http.Error(w, `{"error":"invalid hours"}`, http.StatusBadRequest)
				return
			}
			hours = n
		}

		snap, err := monitoring.NewCollector(env.History).Collect(r.Context(), hours)
		if err != nil {
			zap.L().Error("collect stats failed", zap.Error(err))
			http.Error(w, `{"error":"collect stats failed"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(snap)
	})

	mux.HandleFunc("POST /webhook/sync", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Subject string `json:"subject"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		// Run the sync asynchronously
		go func() {
			if env == nil {
				return
			}
			plan, err := buildPlan(ctx, env.Blob, env.Codec, req.Subject)
			if err != nil {
				zap.L().Error("webhook sync failed", zap.Error(err))
				return
			}
			if plan.Empty() {
				zap.L().Info("webhook sync: no unparsed artifacts found")
				return
			}
			summary, err := env.Runner.Run(ctx, plan)
			if err != nil {
				zap.L().Error("webhook sync failed", zap.Error(err))
				return
			}
			if err := summary.Err(); err != nil {
				zap.L().Warn("webhook sync finished with failures", zap.Error(err))
			}
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
	})

	return mux
}
