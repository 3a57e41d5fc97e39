package health

import (
	"encoding/json"
	"net/http"
)

// ReadinessHandler serves the readiness checks. Only a healthy result is
// ready; degraded components still answer 503.
func (hc *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := hc.CheckReadiness(r.Context())
		writeResponse(w, resp, resp.Status == StatusHealthy)
	}
}

// LivenessHandler serves the liveness checks. Degraded is still alive.
func (hc *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := hc.CheckLiveness(r.Context())
		writeResponse(w, resp, resp.Status != StatusUnhealthy)
	}
}

func writeResponse(w http.ResponseWriter, resp Response, ok bool) {
	w.Header().Set("Content-Type", "application/json")
	if ok {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}
