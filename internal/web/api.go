package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/HMasataka/avgap/internal/ingest"
	"github.com/HMasataka/avgap/payload/analyze"
)

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (s *Server) handleAPIAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "POST required"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.options.MaxPasteBytes)

	var req analyze.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid json body"})
		return
	}

	if req.RefuelData == "" || req.ScheduleData == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Error: msgEmptyBoxes})
		return
	}

	res, err := s.service.Analyze(r.Context(), &req, nil)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrMissingColumns):
			writeJSON(w, http.StatusUnprocessableEntity, apiError{Error: err.Error()})
		case errors.Is(err, context.Canceled):
			// Client is gone, nothing to write
		default:
			writeJSON(w, http.StatusInternalServerError, apiError{Error: err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusOK, res)
}
