// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/praise/cliparse"
	"github.com/danielhkuo/praise/handlers"
	"github.com/danielhkuo/praise/lifecycle"
	"github.com/danielhkuo/praise/middleware"
)

// NewRouter wires every endpoint. A nil gatherer leaves /metrics unregistered.
func NewRouter(svc *lifecycle.Service, cfg cliparse.Config, gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	periodHandler := handlers.NewPeriodHandler(svc, cfg)
	praiseHandler := handlers.NewPraiseHandler(svc, cfg)
	settingsHandler := handlers.NewSettingsHandler(svc, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// Period lifecycle (admin operations require X-Admin-Key)
	mux.HandleFunc("POST /periods", middleware.WithLogging(periodHandler.CreatePeriod))
	mux.HandleFunc("GET /periods/{id}", middleware.WithLogging(periodHandler.GetPeriod))
	mux.HandleFunc("POST /periods/{id}/quantify", middleware.WithLogging(periodHandler.StartQuantification))
	mux.HandleFunc("POST /periods/{id}/assignment/redo", middleware.WithLogging(periodHandler.RedoAssignment))
	mux.HandleFunc("POST /periods/{id}/close", middleware.WithLogging(periodHandler.ClosePeriod))

	// Results (sealed until closed)
	mux.HandleFunc("GET /periods/{id}/results", middleware.WithLogging(periodHandler.GetResults))

	// Praise and quantification
	mux.HandleFunc("POST /periods/{id}/praise", middleware.WithLogging(praiseHandler.CreatePraise))
	mux.HandleFunc("GET /periods/{id}/praise", middleware.WithLogging(praiseHandler.ListPraise))
	mux.HandleFunc("GET /periods/{id}/quantifiers/{qid}/assignments", middleware.WithLogging(praiseHandler.GetAssignments))
	mux.HandleFunc("POST /praise/{id}/quantifications", middleware.WithLogging(praiseHandler.SubmitQuantification))

	// Settings
	mux.HandleFunc("GET /settings", middleware.WithLogging(settingsHandler.ListSettings))
	mux.HandleFunc("PUT /settings/{key}", middleware.WithLogging(settingsHandler.PutGlobalSetting))
	mux.HandleFunc("PUT /periods/{id}/settings/{key}", middleware.WithLogging(settingsHandler.PutPeriodSetting))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("praise API v1"))
	})

	return mux
}
