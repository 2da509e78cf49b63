package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"mathviz/internal/domain"
	"mathviz/internal/engine"
	"mathviz/internal/infra"
)

type App struct {
	Engine *engine.Engine
	Logger infra.Logger

	// Ping probes the job store backend for the health endpoint. Optional.
	Ping func(ctx context.Context) error
}

func NewApp(eng *engine.Engine, logger infra.Logger) *App {
	return &App{Engine: eng, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

// domainError maps a lifecycle error to its HTTP representation.
func (a *App) domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		a.error(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrInterpretation):
		a.error(w, http.StatusBadGateway, "interpretation_error", err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		a.error(w, http.StatusServiceUnavailable, "store_unavailable", "job store is unavailable, please try again")
	default:
		a.Logger.Error().Err(err).Msg("handlers: unexpected error")
		a.error(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}
