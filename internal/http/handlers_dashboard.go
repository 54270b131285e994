package http

import (
	"net/http"
	"time"

	"fintrack/internal/services"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, userID int64) {
	dashboard, err := s.deps.Dashboard.Summary(r.Context(), userID, time.Now())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, dashboard)
}

// handleExport streams the user's full archive as a downloadable JSON file.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, userID int64) {
	backup, err := s.deps.Backups.Export(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition",
		`attachment; filename="fintrack-backup-`+backup.ExportedAt.Format("2006-01-02")+`.json"`)
	respondJSON(w, http.StatusOK, backup)
}

// handleImportBackup restores accounts and categories from an archive.
// Transactions are never replayed; see BackupService.Import.
func (s *Server) handleImportBackup(w http.ResponseWriter, r *http.Request, userID int64) {
	var backup services.Backup
	if err := decodeJSON(w, r, &backup, maxBackupBodyBytes); err != nil {
		badRequest(w, err.Error())
		return
	}
	counts, err := s.deps.Backups.Import(r.Context(), userID, &backup)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, counts)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request, userID int64) {
	insights, err := s.deps.Insights.Generate(r.Context(), userID, time.Now())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, insights)
}
