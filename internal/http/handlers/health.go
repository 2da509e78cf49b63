package handlers

import (
	"net/http"
)

const serviceVersion = "1.0.0"

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{
		"status":  "ok",
		"version": serviceVersion,
	}
	if a.Ping != nil {
		if err := a.Ping(r.Context()); err != nil {
			resp["status"] = "degraded"
			resp["redis"] = "unavailable"
		} else {
			resp["redis"] = "ok"
		}
	}
	a.json(w, http.StatusOK, resp)
}

func (a *App) Root(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{
		"service": "mathviz",
		"version": serviceVersion,
		"status":  "running",
	})
}
