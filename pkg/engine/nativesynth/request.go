package nativesynth

// Request is the immutable descriptor handed to the native layer for one
// mora. The Handle it is added to keeps Sample and Frq pinned until the
// handle is closed, since the native side holds raw pointers into them.
type Request struct {
	SampleFs       int32
	Sample         []float64
	Frq            []byte // raw sidecar bytes, nil if absent
	Tone           int32
	ConVel         float64
	Offset         float64
	RequiredLength float64
	Consonant      float64
	CutOff         float64
	Volume         float64
	Modulation     float64
	Tempo          float64
	PitchBend      []int32
	FlagG          int32
	FlagO          int32
	FlagP          int32
	FlagMt         int32
	FlagMb         int32
	FlagMv         int32
}
