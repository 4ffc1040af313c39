package httpapi

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"

	"github.com/utavox/cantariserver/pkg/engine/style"
	"github.com/utavox/cantariserver/pkg/engine/voicebank"
)

// resourceSize is the fixed square dimension speaker icons/portraits are
// resized to before serving, matching the reference engine's own resize-on
// -read behavior for /speaker_info and /speaker_resources/*.
const resourceSize = 256

// speakerStyle is one entry in a /speakers style list.
type speakerStyle struct {
	Name string `json:"name"`
	ID   uint32 `json:"id"`
	Type string `json:"type"`
}

// speakerListEntry is one /speakers list item.
type speakerListEntry struct {
	Name        string         `json:"name"`
	SpeakerUUID string         `json:"speaker_uuid"`
	Styles      []speakerStyle `json:"styles"`
	Version     string         `json:"version"`
}

func (s *Server) handleSpeakers(w http.ResponseWriter, r *http.Request) {
	var out []speakerListEntry
	for _, ongen := range s.Voicebanks.All() {
		settings := s.Speakers.StylesFor(ongen.UUID)
		displayName := ongen.Name()
		if settings.Name != nil && *settings.Name != "" {
			displayName = *settings.Name
		}

		styles := make([]speakerStyle, len(settings.Styles))
		for i, sty := range settings.Styles {
			name := sty.Name
			if name == "" {
				name = "ノーマル"
			}
			styles[i] = speakerStyle{
				Name: name,
				ID:   ongen.StyleID(uint8(i)),
				Type: "talk",
			}
		}

		out = append(out, speakerListEntry{
			Name:        displayName,
			SpeakerUUID: ongen.UUID.String(),
			Styles:      styles,
			Version:     EngineVersion,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// speakerStyleInfo is one style's image payload within /speaker_info.
type speakerStyleInfo struct {
	ID       uint32 `json:"id"`
	Icon     string `json:"icon"`     // base64 PNG
	Portrait string `json:"portrait"` // base64 PNG
}

// speakerInfoResponse is the body returned by GET /speaker_info.
type speakerInfoResponse struct {
	Policy string             `json:"policy"`
	Styles []speakerStyleInfo `json:"style_infos"`
}

func (s *Server) handleSpeakerInfo(w http.ResponseWriter, r *http.Request) {
	ongen, err := s.lookupVoicebankByQueryParam(r, "speaker_uuid")
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	settings := s.Speakers.StylesFor(ongen.UUID)
	styles := make([]speakerStyleInfo, len(settings.Styles))
	for i, sty := range settings.Styles {
		icon, err := encodeResourcePNG(sty.Icon)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("read icon: %v", err))
			return
		}
		portrait, err := encodeResourcePNG(sty.Portrait)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("read portrait: %v", err))
			return
		}
		styles[i] = speakerStyleInfo{
			ID:       ongen.StyleID(uint8(i)),
			Icon:     icon,
			Portrait: portrait,
		}
	}

	writeJSON(w, http.StatusOK, speakerInfoResponse{
		Policy: "",
		Styles: styles,
	})
}

func (s *Server) handleSpeakerIcon(w http.ResponseWriter, r *http.Request) {
	s.serveStyleImage(w, r, func(sty style.Settings) []byte { return sty.Icon })
}

func (s *Server) handleSpeakerPortrait(w http.ResponseWriter, r *http.Request) {
	s.serveStyleImage(w, r, func(sty style.Settings) []byte { return sty.Portrait })
}

func (s *Server) serveStyleImage(w http.ResponseWriter, r *http.Request, pick func(style.Settings) []byte) {
	ongen, err := s.lookupVoicebankByPathParam(r, "uuid")
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	styleIdx, err := strconv.Atoi(r.PathValue("style"))
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "style must be an integer index")
		return
	}

	settings := s.Speakers.StylesFor(ongen.UUID)
	if styleIdx < 0 || styleIdx >= len(settings.Styles) {
		writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("style index %d out of range", styleIdx))
		return
	}

	raw := pick(settings.Styles[styleIdx])
	resized, err := resizeImagePNG(raw, resourceSize, resourceSize)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("read image: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(resized)
}

// lookupVoicebankByQueryParam resolves the voicebank named by the query
// parameter name in r's URL.
func (s *Server) lookupVoicebankByQueryParam(r *http.Request, name string) (*voicebank.Ongen, error) {
	return s.resolveVoicebankUUID(r.URL.Query().Get(name))
}

// lookupVoicebankByPathParam resolves the voicebank named by the path
// parameter name in r (a {uuid}-style route variable).
func (s *Server) lookupVoicebankByPathParam(r *http.Request, name string) (*voicebank.Ongen, error) {
	return s.resolveVoicebankUUID(r.PathValue(name))
}

func (s *Server) resolveVoicebankUUID(raw string) (*voicebank.Ongen, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid speaker uuid %q: %w", raw, err)
	}
	ongen, ok := s.Voicebanks.ByUUID(id)
	if !ok {
		return nil, fmt.Errorf("no voicebank with uuid %q", raw)
	}
	return ongen, nil
}

// encodeResourcePNG resizes raw (a PNG byte slice, possibly empty) to the
// standard resource size and base64-encodes it. An empty input returns an
// empty string.
func encodeResourcePNG(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	resized, err := resizeImagePNG(raw, resourceSize, resourceSize)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(resized), nil
}

// resizeImagePNG decodes raw as a PNG, resizes it to w x h using a
// high-quality resampling kernel, and re-encodes it as PNG. An empty input
// returns nil without error (a style with no configured image).
func resizeImagePNG(raw []byte, w, h int) ([]byte, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode source image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var out bytes.Buffer
	if err := png.Encode(&out, dst); err != nil {
		return nil, fmt.Errorf("encode resized image: %w", err)
	}
	return out.Bytes(), nil
}
