package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/oscleash/internal/audit"
	"github.com/nerrad567/oscleash/internal/settings"
)

// handleGetSettings returns the active settings snapshot.
func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.settings.Current())
}

// handlePutSettings replaces the settings snapshot.
//
// Fields missing from the body keep their current values. The new snapshot
// takes effect on the next calculation pass and is written to the settings
// file immediately.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	next := s.settings.Current()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&next); err != nil {
		writeBadRequest(w, "invalid settings body: "+err.Error())
		return
	}

	if err := s.settings.Update(next); err != nil {
		if errors.Is(err, settings.ErrInvalid) {
			writeValidationError(w, err.Error())
			return
		}
		s.logger.Error("failed to update settings", "error", err)
		writeInternalError(w, "failed to update settings")
		return
	}

	if err := s.settings.Save(); err != nil {
		// The snapshot is live; the file is rewritten again on shutdown.
		s.logger.Warn("failed to save settings file", "error", err)
	}

	s.logger.Info("settings updated via API", "subject", subjectFrom(r.Context()))
	s.auditLog(audit.ActionSettingsUpdated, map[string]any{
		"subject":  subjectFrom(r.Context()),
		"settings": next,
	})

	writeJSON(w, http.StatusOK, next)
}
