package api

import (
	"encoding/json"
	"net/http"
)

// PurgeEventsRequest defines the options for clearing the command journal.
type PurgeEventsRequest struct {
	Confirm string `json:"confirm"`
}

// PurgeEventsResponse reports what was deleted.
type PurgeEventsResponse struct {
	Status  string `json:"status"`
	Deleted int    `json:"deleted"`
}

// handlePurgeEvents clears the pin_events table.
//
// This is a destructive operation — the request must include an exact
// confirmation string as a safety guard.
func (s *Server) handlePurgeEvents(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeUnavailable(w, "journal is not enabled")
		return
	}

	var req PurgeEventsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	// Safety guard: require exact confirmation string.
	if req.Confirm != "PURGE EVENTS" {
		writeBadRequest(w, `confirm field must be exactly "PURGE EVENTS"`)
		return
	}

	result, err := s.db.ExecContext(r.Context(), "DELETE FROM pin_events")
	if err != nil {
		s.logger.Error("event purge failed", "error", err)
		writeInternalError(w, "failed to purge events")
		return
	}

	n, _ := result.RowsAffected()
	s.logger.Info("event journal purged", "deleted", n)

	writeJSON(w, http.StatusOK, PurgeEventsResponse{
		Status:  "purged",
		Deleted: int(n),
	})
}
