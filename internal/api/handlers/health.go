package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// HealthHandler reports daemon liveness and uptime.
type HealthHandler struct {
	started time.Time
	logger  *logrus.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{started: time.Now(), logger: logger}
}

type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := healthResponse{
		Status: "healthy",
		Uptime: time.Since(h.started).Round(time.Second).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
