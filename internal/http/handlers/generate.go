package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"mathviz/internal/domain"
	"mathviz/internal/domain/scenecfg"
)

type generateRequest struct {
	// Description triggers natural language interpretation; Params submits
	// explicit scene parameters. Description wins when both are present.
	Description string           `json:"description"`
	Params      *scenecfg.Params `json:"params"`
}

type jobResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	var (
		job *domain.Job
		err error
	)
	description := strings.TrimSpace(req.Description)
	switch {
	case description != "":
		job, err = a.Engine.CreateFromDescription(r.Context(), description)
	case req.Params != nil:
		job, err = a.Engine.Create(r.Context(), req.Params)
	default:
		a.error(w, http.StatusBadRequest, "validation_error", "description or params required")
		return
	}
	if err != nil {
		a.domainError(w, err)
		return
	}

	a.json(w, http.StatusAccepted, jobResponse{
		JobID:   job.ID,
		Status:  string(job.Status),
		Message: "Job queued successfully. Check status at /status/" + job.ID,
	})
}
