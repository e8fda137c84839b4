package main

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"vetvisit/internal/agent"
	"vetvisit/internal/config"
	"vetvisit/internal/consultation"
	"vetvisit/internal/platform/capture"
	"vetvisit/internal/platform/vetapi"
	"vetvisit/internal/report"
	"vetvisit/internal/tasks"
)

func main() {
	// 1. Config & logging
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("config")
	}

	var log zerolog.Logger
	if cfg.IsDev() {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	} else {
		log = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// 2. Collaborator clients
	apiClient := vetapi.NewClient(cfg.VetAPIBaseURL, cfg.VetAPIToken, log)
	transcriber := agent.NewTranscriber(cfg.TranscriberURL, cfg.TranscriberLimit)
	recorder := capture.NewClient(cfg.CaptureBridgeURL)

	// 3. Services
	registry := consultation.NewRegistry()
	controller := consultation.NewController(registry, apiClient, transcriber, recorder, apiClient, log)
	reportSvc := report.NewService()
	consultationHandler := consultation.NewHandler(controller, reportSvc, cfg.ClinicName)

	taskSvc := tasks.NewService(apiClient, apiClient, log)
	taskHandler := tasks.NewHandler(taskSvc)

	// 4. Router
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	// CORS for the app shell
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")
			if r.Method == "OPTIONS" {
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api", func(r chi.Router) {
		consultation.RegisterRoutes(r, consultationHandler)
		tasks.RegisterRoutes(r, taskHandler)
	})

	log.Info().Str("port", cfg.Port).Msg("server starting")
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("latency", time.Since(start)).
				Msg("request")
		})
	}
}
