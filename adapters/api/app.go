package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"ratelab/internal"
	"ratelab/internal/errors"
	"ratelab/internal/simulator"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// App is the headless JSON API over the scored table, for programmatic use
// alongside the dashboard.
type App struct {
	router *chi.Mux
	sim    *simulator.Simulator
	logger *internal.Logger
}

// NewApp wires the API routes around a simulator.
func NewApp(sim *simulator.Simulator) *App {
	app := &App{
		router: chi.NewRouter(),
		sim:    sim,
		logger: internal.DefaultLogger,
	}
	app.router.Use(middleware.Recoverer)
	app.router.Get("/health", app.handleHealth)
	app.router.Get("/api/models", app.handleModels)
	app.router.Get("/api/simulate", app.handleSimulate)
	return app
}

// Router exposes the chi mux for mounting or serving.
func (a *App) Router() http.Handler {
	return a.router
}

// Serve blocks on the given port.
func (a *App) Serve(port string) error {
	a.logger.Info("headless API listening on :%s", port)
	return http.ListenAndServe(":"+port, a.router)
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"models": a.sim.Models()})
}

// handleSimulate mirrors the dashboard's apply button:
// /api/simulate?model=glm&rate_change=0.05&target_lr=0.95
func (a *App) handleSimulate(w http.ResponseWriter, r *http.Request) {
	model := r.URL.Query().Get("model")
	if model == "" {
		writeError(w, http.StatusBadRequest, "model query parameter is required")
		return
	}
	rateChange, err := strconv.ParseFloat(r.URL.Query().Get("rate_change"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "rate_change must be a number")
		return
	}
	targetLR := 0.0
	if v := r.URL.Query().Get("target_lr"); v != "" {
		targetLR, err = strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "target_lr must be a number")
			return
		}
	}

	result, err := a.sim.Simulate(model, rateChange, targetLR)
	if err != nil {
		status := http.StatusInternalServerError
		switch errors.GetCode(err) {
		case errors.CodeNotFound:
			status = http.StatusNotFound
		case errors.CodeInvalidInput:
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
