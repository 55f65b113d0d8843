package healthcheck

import (
	"encoding/json"
	"net/http"
	"time"
)

type healthResponse struct {
	Status string `json:"status"`
	Snapshot
}

// HealthHandler serves /healthz. The endpoint reports stale when no run
// completed within twice the poll interval, which catches a wedged watch
// loop even while the process itself is alive.
func HealthHandler(tracker *Tracker, pollInterval time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := healthResponse{Status: "ok"}
		status := http.StatusOK

		if tracker == nil || !tracker.Healthy(time.Now().UTC(), pollInterval) {
			body.Status = "stale"
			status = http.StatusServiceUnavailable
		}
		if tracker != nil {
			body.Snapshot = tracker.Snapshot()
		}
		writeJSON(w, status, body)
	}
}

// ReadyHandler serves /readyz, turning ready once the first run completes.
func ReadyHandler(tracker *Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := healthResponse{Status: "ready"}
		status := http.StatusOK

		if tracker == nil || !tracker.Ready() {
			body.Status = "waiting"
			status = http.StatusServiceUnavailable
		}
		if tracker != nil {
			body.Snapshot = tracker.Snapshot()
		}
		writeJSON(w, status, body)
	}
}

func writeJSON(w http.ResponseWriter, status int, body healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
