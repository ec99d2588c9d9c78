package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/mimayn/YT-FA-ASR-Downloader/internal/models"
)

// StatusHandler reports ledger statistics for every collection under the
// download root.
type StatusHandler struct {
	downloadRoot string
	logger       *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(downloadRoot string, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		downloadRoot: downloadRoot,
		logger:       logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	TotalVideos int64                    `json:"total_videos"`
	Collections map[string]*models.Stats `json:"collections"`
}

// ServeHTTP handles the status endpoint. Each collection's ledger is
// opened read-on-demand; a collection whose ledger cannot be opened is
// skipped rather than failing the whole response.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	entries, err := os.ReadDir(h.downloadRoot)
	if err != nil {
		h.logger.WithError(err).Error("Failed to read download root")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := StatusResponse{Collections: make(map[string]*models.Stats)}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		dbPath := filepath.Join(h.downloadRoot, name, name+".db")
		if _, err := os.Stat(dbPath); err != nil {
			continue
		}

		db, err := models.NewDatabase(dbPath)
		if err != nil {
			h.logger.WithError(err).WithField("collection", name).Warn("Failed to open ledger")
			continue
		}
		stats, err := db.GetStats()
		db.Close()
		if err != nil {
			h.logger.WithError(err).WithField("collection", name).Warn("Failed to read stats")
			continue
		}

		response.Collections[name] = stats
		response.TotalVideos += stats.TotalVideos
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
