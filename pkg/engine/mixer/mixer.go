// Package mixer places rendered phrase buffers onto a single timeline,
// resamples to the requested output rate, and writes a RIFF/WAV
// container.
package mixer

import (
	"bytes"
	"encoding/binary"
	"math"
)

// NativeSampleRate is the fixed rate phrase buffers arrive at from the
// native synthesizer.
const NativeSampleRate = 44100

// PhrasePaddingSeconds is the lead-in/lead-out silence baked into every
// rendered phrase buffer by the f0 curve and timing negotiator; the mixer
// trims it back out when placing each phrase, since the query's own
// pre/post phoneme length supplies the audible silence instead.
const PhrasePaddingSeconds = 0.5

// Phrase is one rendered accent phrase ready for placement: its mono PCM
// at [NativeSampleRate] and the start offset (seconds) its first sample's
// un-trimmed position falls on the phrase's global timeline.
type Phrase struct {
	PCM          []float32
	StartSeconds float64
}

// Options controls the final WAV render.
type Options struct {
	PrePhonemeLengthSeconds  float64
	PostPhonemeLengthSeconds float64
	OutputSampleRate         int
	OutputStereo             bool
}

// Mix places every phrase on a shared timeline, additively combining any
// overlap, resamples to opts.OutputSampleRate, and returns a WAV-encoded
// byte stream.
func Mix(phrases []Phrase, opts Options) ([]byte, error) {
	prePad := int(opts.PrePhonemeLengthSeconds * NativeSampleRate)
	postPad := int(opts.PostPhonemeLengthSeconds * NativeSampleRate)

	length := prePad + postPad
	for _, p := range phrases {
		end := insertionIndex(p.StartSeconds, prePad) + len(p.PCM)
		if end > length {
			length = end
		}
	}

	buf := make([]float32, length)
	for _, p := range phrases {
		start := insertionIndex(p.StartSeconds, prePad)
		for i, s := range p.PCM {
			idx := start + i
			if idx < 0 || idx >= len(buf) {
				continue
			}
			buf[idx] += s
		}
	}

	outRate := opts.OutputSampleRate
	if outRate <= 0 {
		outRate = NativeSampleRate
	}
	resampled := resampleLinear(buf, NativeSampleRate, outRate)

	return encodeWav(resampled, outRate, opts.OutputStereo)
}

func insertionIndex(startSeconds float64, prePad int) int {
	trimmed := startSeconds - PhrasePaddingSeconds
	return int(math.Round(trimmed*NativeSampleRate)) + prePad
}

// resampleLinear performs simple linear interpolation resampling; it is
// not a high-quality resampler, but the phrase material is already
// band-limited well below either rate in practice.
func resampleLinear(samples []float32, fromRate, toRate int) []float32 {
	if fromRate == toRate || len(samples) == 0 {
		return samples
	}
	ratio := float64(fromRate) / float64(toRate)
	outLen := int(float64(len(samples)) / ratio)
	out := make([]float32, outLen)
	for i := range out {
		srcPos := float64(i) * ratio
		lo := int(srcPos)
		hi := lo + 1
		frac := srcPos - float64(lo)
		var loVal, hiVal float32
		if lo < len(samples) {
			loVal = samples[lo]
		}
		if hi < len(samples) {
			hiVal = samples[hi]
		} else {
			hiVal = loVal
		}
		out[i] = loVal + float32(frac)*(hiVal-loVal)
	}
	return out
}

// wavFormatIEEEFloat is the WAVE "fmt " audio-format tag for uncompressed
// 32-bit IEEE-float samples (VOICEVOX-compatible engines emit this rather
// than integer PCM; format tag 1 is signed/unsigned integer PCM).
const wavFormatIEEEFloat = 3

// encodeWav writes samples as a RIFF/WAVE container of 32-bit IEEE-float
// samples (format tag 3), duplicating each frame across channels when
// stereo is requested. go-audio/wav's encoder only emits integer PCM, so
// the float container is assembled directly.
func encodeWav(samples []float32, sampleRate int, stereo bool) ([]byte, error) {
	channels := 1
	if stereo {
		channels = 2
	}

	const bitsPerSample = 32
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign
	dataSize := len(samples) * blockAlign
	factSize := 4
	fmtSize := 16

	var out bytes.Buffer
	out.Grow(12 + 8 + fmtSize + 8 + factSize + 8 + dataSize)

	out.WriteString("RIFF")
	writeUint32(&out, uint32(4+(8+fmtSize)+(8+factSize)+(8+dataSize)))
	out.WriteString("WAVE")

	out.WriteString("fmt ")
	writeUint32(&out, uint32(fmtSize))
	writeUint16(&out, wavFormatIEEEFloat)
	writeUint16(&out, uint16(channels))
	writeUint32(&out, uint32(sampleRate))
	writeUint32(&out, uint32(byteRate))
	writeUint16(&out, uint16(blockAlign))
	writeUint16(&out, bitsPerSample)

	out.WriteString("fact")
	writeUint32(&out, uint32(factSize))
	writeUint32(&out, uint32(len(samples)))

	out.WriteString("data")
	writeUint32(&out, uint32(dataSize))
	for _, s := range samples {
		writeUint32(&out, math.Float32bits(s))
		if stereo {
			writeUint32(&out, math.Float32bits(s))
		}
	}

	return out.Bytes(), nil
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
