package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/utavox/cantariserver/pkg/engine/mixer"
	"github.com/utavox/cantariserver/pkg/engine/mora"
	"github.com/utavox/cantariserver/pkg/engine/phrasecache"
	"github.com/utavox/cantariserver/pkg/engine/phrasesynth"
	"github.com/utavox/cantariserver/pkg/engine/style"
	"github.com/utavox/cantariserver/pkg/engine/voicebank"
)

// handleSynthesis renders a full AudioQuery to a WAV byte stream: scale
// transforms are applied, then every accent phrase is synthesized (via the
// phrase cache where possible) and placed on a shared timeline by the
// mixer.
func (s *Server) handleSynthesis(w http.ResponseWriter, r *http.Request) {
	speakerID, err := parseSpeakerID(r)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		s.recordSynthesisOutcome(r.Context(), "error")
		return
	}

	var query mora.AudioQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("decode audio query: %v", err))
		s.recordSynthesisOutcome(r.Context(), "error")
		return
	}

	ongen, sty, err := s.Speakers.Lookup(speakerID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		s.recordSynthesisOutcome(r.Context(), "error")
		return
	}

	query = query.ApplyScales()

	var phrases []mixer.Phrase
	var cursorSeconds float64
	for i, phrase := range query.AccentPhrases {
		entry, err := s.synthesizePhrase(r.Context(), ongen, sty, speakerID, query.VolumeScale, phrase)
		if err != nil {
			// Phrase-level failures degrade to silence, not a request
			// failure: the native synthesizer returning nothing for one
			// phrase should not abort the whole utterance.
			entry = &phrasecache.Entry{}
			s.logger().Warn("phrase synthesis failed, emitting silence",
				"voicebank", ongen.UUID, "phrase_index", i, "error", err)
			if s.Metrics != nil {
				s.Metrics.RecordNativeSynthError(r.Context())
			}
		}

		phrases = append(phrases, mixer.Phrase{
			PCM:          entry.PCM,
			StartSeconds: cursorSeconds,
		})
		cursorSeconds += entry.TotalDurationMs / 1000
	}

	wav, err := mixer.Mix(phrases, mixer.Options{
		PrePhonemeLengthSeconds:  float64(query.PrePhonemeLength),
		PostPhonemeLengthSeconds: float64(query.PostPhonemeLength),
		OutputSampleRate:         query.OutputSamplingRate,
		OutputStereo:             query.OutputStereo,
	})
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("mix audio: %v", err))
		s.recordSynthesisOutcome(r.Context(), "error")
		return
	}

	s.recordSynthesisOutcome(r.Context(), "ok")
	w.Header().Set("Content-Type", "audio/wav")
	w.Write(wav)
}

// synthesizePhrase renders one accent phrase, consulting the phrase cache
// first and populating it on a miss.
func (s *Server) synthesizePhrase(ctx context.Context, ongen *voicebank.Ongen, sty style.Settings, speakerID uint32, volumeScale float32, phrase mora.AccentPhrase) (*phrasecache.Entry, error) {
	src := phrasecache.Source{
		VoicebankUUID: ongen.UUID.String(),
		SpeakerID:     speakerID,
		VolumeScale:   volumeScale,
		AccentPhrase:  phrase,
		Style:         sty,
	}

	var key uint64
	if s.Cache != nil {
		k, err := phrasecache.Key(src)
		if err != nil {
			return nil, fmt.Errorf("derive cache key: %w", err)
		}
		key = k
		if entry, ok := s.Cache.Get(key); ok {
			if s.Metrics != nil {
				s.Metrics.RecordCacheLookup(ctx, true)
			}
			return entry, nil
		}
		if s.Metrics != nil {
			s.Metrics.RecordCacheLookup(ctx, false)
		}
	}

	start := time.Now()
	result, err := phrasesynth.Synthesize(ctx, s.logger(), ongen, sty, phrase, s.NativeLib, s.Pool)
	if s.Metrics != nil {
		s.Metrics.PhraseSynthDuration.Record(ctx, time.Since(start).Seconds())
	}
	if err != nil {
		return nil, err
	}

	entry := &phrasecache.Entry{PCM: result.PCM, TotalDurationMs: result.TotalDurationMs}
	if s.Cache != nil {
		s.Cache.Put(key, entry)
	}
	return entry, nil
}

// recordSynthesisOutcome records a SynthesisRequests count by status if
// metrics are configured.
func (s *Server) recordSynthesisOutcome(ctx context.Context, status string) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.RecordSynthesisRequest(ctx, status)
}
