package oto

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
)

// Data is the decoded audio and (optional) pitch table backing an [Entry].
type Data struct {
	SampleRate int
	Samples    []float64 // mono, downmixed by averaging channels
	Frq        []byte    // raw sibling "_wav.frq" bytes, nil if absent
}

// readData loads and decodes the wav file at wavPath, downmixing to mono,
// and opportunistically reads the sibling frq sidecar. A missing frq file
// is not an error: native synthesis falls back to oto.ini timing alone.
func readData(wavPath string) (*Data, error) {
	f, err := os.Open(wavPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}
	frameCount := len(buf.Data) / channels
	samples := make([]float64, frameCount)
	maxAmp := buf.SourceBitDepth
	if maxAmp == 0 {
		maxAmp = 16
	}
	scale := float64(int(1) << (maxAmp - 1))

	for i := 0; i < frameCount; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		samples[i] = (sum / float64(channels)) / scale
	}

	data := &Data{
		SampleRate: buf.Format.SampleRate,
		Samples:    samples,
	}

	if frq, err := os.ReadFile(frqPath(wavPath)); err == nil {
		data.Frq = frq
	}

	return data, nil
}

// frqPath derives the "<stem>_wav.frq" sidecar path UTAU voicebanks use
// alongside a wav file.
func frqPath(wavPath string) string {
	dir := filepath.Dir(wavPath)
	stem := strings.TrimSuffix(filepath.Base(wavPath), filepath.Ext(wavPath))
	return filepath.Join(dir, stem+"_wav.frq")
}
