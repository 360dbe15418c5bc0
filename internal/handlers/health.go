package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	applog "bakeline/internal/log"
)

type healthResponse struct {
	Status    string    `json:"status"`
	Time      time.Time `json:"time"`
	RequestID string    `json:"request_id,omitempty"`
}

// Health answers readiness checks from the load balancer and the floor
// displays. It never touches the database.
func Health(w http.ResponseWriter, r *http.Request) {
	applog.Debug(r.Context(), "health check requested", "method", r.Method)
	resp := healthResponse{
		Status:    "ok",
		Time:      time.Now().UTC(),
		RequestID: applog.RequestID(r.Context()),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		applog.Error(r.Context(), "failed to encode health response", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}
