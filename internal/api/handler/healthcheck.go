package handler

import (
	"net/http"
	"time"
)

var startedAt = time.Now()

type healthcheckResponse struct {
	Status        string `json:"status"`
	Time          string `json:"time"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// HealthcheckHandler só indica que o processo responde; não consulta o armazenamento.
func HealthcheckHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		now := time.Now()
		writeJSON(w, http.StatusOK, healthcheckResponse{
			Status:        "ok",
			Time:          now.Format(time.RFC3339),
			UptimeSeconds: int64(now.Sub(startedAt).Seconds()),
		})
	})
}
