// Package httpapi implements the VOICEVOX-compatible HTTP surface:
// speaker listing, audio query construction, accent-phrase re-estimation,
// synthesis, user dictionary CRUD, and the settings document.
//
// All handlers follow the same error contract: a failure writes HTTP 500
// with a JSON body of {"error": "<message>"}. Routes are registered on the
// Go 1.22+ enhanced [http.ServeMux] pattern, matching the convention
// internal/health.Handler uses.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/utavox/cantariserver/internal/config"
	"github.com/utavox/cantariserver/internal/observe"
	"github.com/utavox/cantariserver/internal/textanalyzer"
	"github.com/utavox/cantariserver/pkg/engine/nativesynth"
	"github.com/utavox/cantariserver/pkg/engine/phrasecache"
	"github.com/utavox/cantariserver/pkg/engine/speaker"
	"github.com/utavox/cantariserver/pkg/engine/voicebank"
)

// EngineVersion is the semver string returned by GET /version.
const EngineVersion = "0.1.0"

// Server holds every dependency the HTTP handlers need and implements the
// VOICEVOX-compatible routes.
type Server struct {
	Voicebanks *voicebank.Registry
	Speakers   *speaker.Registry
	Cache      *phrasecache.Cache
	NativeLib  *nativesynth.Library
	Pool       *nativesynth.Pool
	Analyzer   *textanalyzer.Client
	Settings   *config.Registry
	Metrics    *observe.Metrics
	Logger     *slog.Logger
}

// logger returns s.Logger, falling back to slog.Default() when unset.
func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Register adds every VOICEVOX-compatible route to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /version", s.handleVersion)
	mux.HandleFunc("GET /engine_manifest", s.handleEngineManifest)
	mux.HandleFunc("GET /supported_devices", s.handleSupportedDevices)

	mux.HandleFunc("GET /speakers", s.handleSpeakers)
	mux.HandleFunc("GET /speaker_info", s.handleSpeakerInfo)
	mux.HandleFunc("GET /speaker_resources/icons/{uuid}/{style}", s.handleSpeakerIcon)
	mux.HandleFunc("GET /speaker_resources/portraits/{uuid}/{style}", s.handleSpeakerPortrait)

	mux.HandleFunc("POST /audio_query", s.handleAudioQuery)
	mux.HandleFunc("POST /accent_phrases", s.handleAccentPhrases)
	mux.HandleFunc("POST /mora_data", s.handleMoraData)
	mux.HandleFunc("POST /mora_pitch", s.handleMoraPitch)
	mux.HandleFunc("POST /mora_length", s.handleMoraLength)
	mux.HandleFunc("POST /synthesis", s.handleSynthesis)

	mux.HandleFunc("GET /user_dict", s.handleUserDictList)
	mux.HandleFunc("POST /user_dict", s.handleUserDictAdd)
	mux.HandleFunc("PUT /user_dict/{uuid}", s.handleUserDictUpdate)
	mux.HandleFunc("DELETE /user_dict/{uuid}", s.handleUserDictDelete)

	mux.HandleFunc("GET /settings", s.handleSettingsGet)
	mux.HandleFunc("PUT /settings", s.handleSettingsPut)
}

// errorBody is the JSON shape every handler returns on failure.
type errorBody struct {
	Error string `json:"error"`
}

// writeError writes status with a JSON {"error": msg} body and logs it at
// warn level with the request path.
func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	slog.Warn("request failed", "path", r.URL.Path, "status", status, "error", msg)
	writeJSON(w, status, errorBody{Error: msg})
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
	}
}
