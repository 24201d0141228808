package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/poselens/poselens/internal/advisor"
)

// User-facing error messages. Every internal failure maps to one of these;
// the real cause only goes to the log.
const (
	msgMissingImage = "Image data not found"
	msgNoContext    = "No context found"
	msgTimeout      = "Network too slow, please retry."
	msgGeneric      = "AI is busy, please try again."
)

func newMux(svc *advisor.Service) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/analyze", handleAnalyze(svc))
	mux.HandleFunc("/api/generate-pose", handleGeneratePose(svc))
	mux.HandleFunc("/api/healthz", handleHealthz)
	return mux
}

// POST /api/analyze
// Body: {"image": "<base64 or data URL>", "language": "en"|"vi"}
func handleAnalyze(svc *advisor.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondFailure(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req struct {
			Image    string `json:"image"`
			Language string `json:"language"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondFailure(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Image) == "" {
			respondFailure(w, http.StatusBadRequest, msgMissingImage)
			return
		}

		result, err := svc.Analyze(r.Context(), req.Image, req.Language)
		if err != nil {
			writeAdvisorError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success":   true,
			"sessionId": result.SessionID,
			"advice":    result.Advice,
			"imageUrl":  result.ImageURL,
		})
	}
}

// POST /api/generate-pose
// Body: {"session_id": "...", "pose_summary": "..."}
func handleGeneratePose(svc *advisor.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondFailure(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req struct {
			SessionID   string `json:"session_id"`
			PoseSummary string `json:"pose_summary"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondFailure(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result, err := svc.RefinePose(r.Context(), req.SessionID, req.PoseSummary)
		if err != nil {
			writeAdvisorError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success":  true,
			"imageUrl": result.ImageURL,
		})
	}
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeAdvisorError maps the advisor error taxonomy onto the HTTP contract.
func writeAdvisorError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("Request failed")

	switch {
	case errors.Is(err, advisor.ErrValidation):
		respondFailure(w, http.StatusBadRequest, msgMissingImage)
	case errors.Is(err, advisor.ErrNoContext):
		respondFailure(w, http.StatusBadRequest, msgNoContext)
	case errors.Is(err, advisor.ErrTimeout):
		respondFailure(w, http.StatusGatewayTimeout, msgTimeout)
	default:
		// Decode, malformed-response, and provider failures all surface the
		// same generic message.
		respondFailure(w, http.StatusInternalServerError, msgGeneric)
	}
}
