package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// handleUserDictList proxies GET /user_dict to the analyzer's dictionary
// store and returns its raw JSON shape unmodified.
func (s *Server) handleUserDictList(w http.ResponseWriter, r *http.Request) {
	raw, err := s.Analyzer.UserDictList(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("read dictionary: %v", err))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(raw)
}

// handleUserDictAdd proxies POST /user_dict, passing the request body
// through to the analyzer unmodified.
func (s *Server) handleUserDictAdd(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("read request body: %v", err))
		return
	}
	raw, err := s.Analyzer.UserDictAdd(r.Context(), json.RawMessage(body))
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("write dictionary: %v", err))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(raw)
}

// handleUserDictUpdate proxies PUT /user_dict/{uuid}.
func (s *Server) handleUserDictUpdate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("read request body: %v", err))
		return
	}
	if err := s.Analyzer.UserDictUpdate(r.Context(), r.PathValue("uuid"), json.RawMessage(body)); err != nil {
		writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("update dictionary entry: %v", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUserDictDelete proxies DELETE /user_dict/{uuid}.
func (s *Server) handleUserDictDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.Analyzer.UserDictDelete(r.Context(), r.PathValue("uuid")); err != nil {
		writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("delete dictionary entry: %v", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
