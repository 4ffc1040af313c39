package httpapi

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/utavox/cantariserver/internal/config"
	"github.com/utavox/cantariserver/pkg/engine/voicebank"
)

// settingsPageTemplate is a minimal HTML wrapper embedding the settings document
// and the currently loaded voicebank list, served when the client's Accept
// header prefers text/html (a browser hitting /settings directly) rather
// than application/json (a programmatic client).
const settingsPageTemplate = `<!DOCTYPE html>
<html>
<head><title>cantariserver settings</title></head>
<body>
<h1>Settings</h1>
<pre id="settings">%s</pre>
<h2>Voicebanks</h2>
<pre id="voicebanks">%s</pre>
</body>
</html>
`

func (s *Server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	current := s.Settings.Current()

	if wantsHTML(r) {
		settingsJSON, err := json.MarshalIndent(current, "", "  ")
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("marshal settings: %v", err))
			return
		}
		voicebanksJSON, err := json.MarshalIndent(voicebankSummaries(s.Voicebanks.All()), "", "  ")
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("marshal voicebanks: %v", err))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, settingsPageTemplate, html.EscapeString(string(settingsJSON)), html.EscapeString(string(voicebanksJSON)))
		return
	}

	writeJSON(w, http.StatusOK, current)
}

func (s *Server) handleSettingsPut(w http.ResponseWriter, r *http.Request) {
	var decoded config.Settings
	if err := json.NewDecoder(r.Body).Decode(&decoded); err != nil {
		writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("decode settings: %v", err))
		return
	}

	if err := s.Settings.Replace(decoded); err != nil {
		writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("apply settings: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, s.Settings.Current())
}

// wantsHTML reports whether r's Accept header prefers text/html over
// application/json.
func wantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}

// voicebankSummary is the minimal voicebank listing embedded in the HTML
// settings page.
type voicebankSummary struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

func voicebankSummaries(ongens []*voicebank.Ongen) []voicebankSummary {
	out := make([]voicebankSummary, len(ongens))
	for i, o := range ongens {
		out[i] = voicebankSummary{UUID: o.UUID.String(), Name: o.Name()}
	}
	return out
}
