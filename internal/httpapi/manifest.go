package httpapi

import "net/http"

// engineManifest mirrors the subset of VOICEVOX's engine_manifest schema
// clients actually read: name, UUID, and supported-feature flags.
type engineManifest struct {
	ManifestVersion string          `json:"manifest_version"`
	Name            string          `json:"name"`
	UUID            string          `json:"uuid"`
	Version         string          `json:"version"`
	SupportedFeatures map[string]bool `json:"supported_features"`
}

// supportedDevices reports which compute backends this engine exposes.
// The native WORLD library is CPU-only, so cuda/dml are always false.
type supportedDevices struct {
	CPU  bool `json:"cpu"`
	CUDA bool `json:"cuda"`
	DML  bool `json:"dml"`
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, EngineVersion)
}

func (s *Server) handleEngineManifest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, engineManifest{
		ManifestVersion: "0.13.1",
		Name:            "cantariserver",
		UUID:            "f9a1c6b4-6f2e-4e7a-9b7e-7c1a2b3c4d5e",
		Version:         EngineVersion,
		SupportedFeatures: map[string]bool{
			"adjust_mora_pitch":     true,
			"adjust_phoneme_length": true,
			"adjust_speed_scale":    true,
			"adjust_pitch_scale":    true,
			"adjust_intonation_scale": true,
			"adjust_volume_scale":   true,
			"interrogative_upspeak": true,
			"synthesis_morphing":    false,
			"manage_library":        false,
		},
	})
}

func (s *Server) handleSupportedDevices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, supportedDevices{CPU: true})
}
