package nativesynth

import "unsafe"

// cSynthRequest mirrors worldline's C SynthRequest struct field-for-field.
// Field order and width must match the C definition exactly; Go and a
// typical C compiler apply the same natural alignment rules so no manual
// padding is needed here.
type cSynthRequest struct {
	SampleFs        int32
	SampleLength    int32
	Sample          uintptr
	FrqLength       int32
	Frq             uintptr
	Tone            int32
	ConVel          float64
	Offset          float64
	RequiredLength  float64
	Consonant       float64
	CutOff          float64
	Volume          float64
	Modulation      float64
	Tempo           float64
	PitchBendLength int32
	PitchBend       uintptr
	FlagG           int32
	FlagO           int32
	FlagP           int32
	FlagMt          int32
	FlagMb          int32
	FlagMv          int32
}

// Handle is one phrase's native synthesizer instance. It is not safe for
// concurrent use: every method must be called from a single goroutine at
// a time, though the Handle itself may move between goroutines between
// calls (it has no affinity to the goroutine that created it).
type Handle struct {
	lib *Library
	ptr uintptr

	// pins keeps the Go-allocated buffers referenced by queued requests
	// alive until Synth (or Close) runs, since the native side only holds
	// raw pointers into them.
	pins []any
}

// New allocates a fresh native synthesizer instance.
func New(lib *Library) *Handle {
	return &Handle{lib: lib, ptr: lib.newFn()}
}

// AddRequest enqueues one mora's timing-negotiated synthesis request.
func (h *Handle) AddRequest(req *Request, posMs, skipMs, lengthMs, fadeInMs, fadeOutMs float64) {
	c := &cSynthRequest{
		SampleFs:        req.SampleFs,
		SampleLength:    int32(len(req.Sample)),
		Tone:            req.Tone,
		ConVel:          req.ConVel,
		Offset:          req.Offset,
		RequiredLength:  req.RequiredLength,
		Consonant:       req.Consonant,
		CutOff:          req.CutOff,
		Volume:          req.Volume,
		Modulation:      req.Modulation,
		Tempo:           req.Tempo,
		PitchBendLength: int32(len(req.PitchBend)),
		FlagG:           req.FlagG,
		FlagO:           req.FlagO,
		FlagP:           req.FlagP,
		FlagMt:          req.FlagMt,
		FlagMb:          req.FlagMb,
		FlagMv:          req.FlagMv,
	}
	if len(req.Sample) > 0 {
		c.Sample = uintptr(unsafe.Pointer(&req.Sample[0]))
	}
	if len(req.Frq) > 0 {
		c.FrqLength = int32(len(req.Frq))
		c.Frq = uintptr(unsafe.Pointer(&req.Frq[0]))
	}
	if len(req.PitchBend) > 0 {
		c.PitchBend = uintptr(unsafe.Pointer(&req.PitchBend[0]))
	}

	h.pins = append(h.pins, req, c)
	h.lib.addRequestFn(h.ptr, uintptr(unsafe.Pointer(c)), posMs, skipMs, lengthMs, fadeInMs, fadeOutMs, h.lib.logCallback)
}

// SetCurves installs the phrase's f0 and expression curves. All five
// slices must have equal length.
func (h *Handle) SetCurves(f0, gender, tension, breathiness, voicing []float64) {
	ptrOf := func(s []float64) uintptr {
		if len(s) == 0 {
			return 0
		}
		return uintptr(unsafe.Pointer(&s[0]))
	}
	h.pins = append(h.pins, f0, gender, tension, breathiness, voicing)
	h.lib.setCurvesFn(h.ptr, ptrOf(f0), ptrOf(gender), ptrOf(tension), ptrOf(breathiness), ptrOf(voicing), int32(len(f0)), h.lib.logCallback)
}

// Synth runs the blocking WORLD synthesis call and returns mono PCM at
// 44100 Hz. Call this off any latency-sensitive goroutine — it is
// CPU-bound and can take hundreds of milliseconds per phrase.
func (h *Handle) Synth() []float32 {
	var y uintptr
	n := h.lib.synthFn(h.ptr, uintptr(unsafe.Pointer(&y)), h.lib.logCallback)
	if n <= 0 || y == 0 {
		return nil
	}
	out := make([]float32, n)
	src := unsafe.Slice((*float32)(unsafe.Pointer(y)), n)
	copy(out, src)
	return out
}

// Close releases the native handle. The Handle must not be used
// afterward.
func (h *Handle) Close() {
	h.lib.deleteFn(h.ptr)
	h.ptr = 0
	h.pins = nil
}
