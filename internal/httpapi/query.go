package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/utavox/cantariserver/pkg/engine/mora"
)

// parseSpeakerID extracts and validates the "speaker" query parameter every
// query-building endpoint requires.
func parseSpeakerID(r *http.Request) (uint32, error) {
	raw := r.URL.Query().Get("speaker")
	if raw == "" {
		return 0, fmt.Errorf("missing required query parameter \"speaker\"")
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("speaker must be an unsigned integer: %w", err)
	}
	return uint32(v), nil
}

func (s *Server) handleAudioQuery(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	speakerID, err := parseSpeakerID(r)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	start := time.Now()
	q, err := s.Analyzer.AudioQuery(r.Context(), text, speakerID)
	s.recordAnalyze(r.Context(), start)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("analyze text: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleAccentPhrases(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	speakerID, err := parseSpeakerID(r)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	start := time.Now()
	phrases, err := s.Analyzer.AccentPhrases(r.Context(), text, speakerID)
	s.recordAnalyze(r.Context(), start)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("analyze text: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, phrases)
}

func (s *Server) handleMoraData(w http.ResponseWriter, r *http.Request) {
	s.reestimate(w, r, s.Analyzer.MoraData)
}

func (s *Server) handleMoraPitch(w http.ResponseWriter, r *http.Request) {
	s.reestimate(w, r, s.Analyzer.MoraPitch)
}

func (s *Server) handleMoraLength(w http.ResponseWriter, r *http.Request) {
	s.reestimate(w, r, s.Analyzer.MoraLength)
}

// reestimate decodes a []mora.AccentPhrase body, validates "speaker", calls
// fn against the analyzer, and returns the updated phrases as JSON. The
// three mora_* endpoints differ only in which analyzer method they call.
func (s *Server) reestimate(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, phrases []mora.AccentPhrase, speakerID uint32) ([]mora.AccentPhrase, error)) {
	speakerID, err := parseSpeakerID(r)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	var phrases []mora.AccentPhrase
	if err := json.NewDecoder(r.Body).Decode(&phrases); err != nil {
		writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("decode request body: %v", err))
		return
	}

	start := time.Now()
	updated, err := fn(r.Context(), phrases, speakerID)
	s.recordAnalyze(r.Context(), start)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("analyze: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// recordAnalyze records AnalyzeDuration if metrics are configured.
func (s *Server) recordAnalyze(ctx context.Context, start time.Time) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.AnalyzeDuration.Record(ctx, time.Since(start).Seconds())
}
