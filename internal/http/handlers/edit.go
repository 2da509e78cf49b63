package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

type editRequest struct {
	JobID           string `json:"job_id"`
	EditDescription string `json:"edit_description"`
}

func (a *App) Edit(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.JobID = strings.TrimSpace(req.JobID)
	req.EditDescription = strings.TrimSpace(req.EditDescription)
	if req.JobID == "" {
		a.error(w, http.StatusBadRequest, "validation_error", "job_id is required")
		return
	}
	if req.EditDescription == "" {
		a.error(w, http.StatusBadRequest, "validation_error", "edit_description is required")
		return
	}

	job, err := a.Engine.Edit(r.Context(), req.JobID, req.EditDescription)
	if err != nil {
		a.domainError(w, err)
		return
	}

	a.json(w, http.StatusAccepted, jobResponse{
		JobID:   job.ID,
		Status:  string(job.Status),
		Message: "Edit job queued successfully. Check status at /status/" + job.ID,
	})
}
