package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/oweslake/pinwarden/internal/journal"
	"github.com/oweslake/pinwarden/internal/line"
)

// handleListEvents returns journalled command attempts, newest first.
//
// Query parameters: origin, action, pin, success, limit, offset. All are
// optional; the journal applies its own limit defaults and caps.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeUnavailable(w, "journal is not enabled")
		return
	}

	filter, err := eventFilter(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	result, err := s.journal.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("journal list failed", "error", err)
		writeInternalError(w, "failed to list events")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// eventFilter builds a journal filter from request query parameters.
func eventFilter(r *http.Request) (journal.Filter, error) {
	q := r.URL.Query()
	filter := journal.Filter{
		Origin: q.Get("origin"),
		Action: q.Get("action"),
	}

	if raw := q.Get("pin"); raw != "" {
		pin, err := strconv.Atoi(raw)
		if err != nil || !line.ValidPin(pin) {
			return filter, errBadQuery("pin")
		}
		filter.Pin = &pin
	}

	if raw := q.Get("success"); raw != "" {
		success, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, errBadQuery("success")
		}
		filter.Success = &success
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filter, errBadQuery("limit")
		}
		filter.Limit = limit
	}

	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return filter, errBadQuery("offset")
		}
		filter.Offset = offset
	}

	return filter, nil
}

func errBadQuery(param string) error {
	return fmt.Errorf("invalid %s query parameter", param)
}
