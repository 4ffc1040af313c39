package f0

import "testing"

func TestBuildPadsBothEnds(t *testing.T) {
	curve := Build([]Mora{{Frequency: 100, LengthMs: 100}}, 20)
	padFrames := int(20.0 / MsPerFrame)
	if len(curve) < 2*padFrames {
		t.Fatalf("curve too short to contain padding: %d frames", len(curve))
	}
	if curve[0] != 100 {
		t.Errorf("first padded frame = %v, want 100", curve[0])
	}
	if curve[len(curve)-1] != 100 {
		t.Errorf("last padded frame = %v, want 100", curve[len(curve)-1])
	}
}

func TestBuildDevoicedMoraInheritsLastVoiced(t *testing.T) {
	curve := Build([]Mora{
		{Frequency: 200, LengthMs: 50},
		{Frequency: 0, LengthMs: 50},
	}, 0)
	for _, v := range curve {
		if v == 0 {
			t.Fatalf("curve contains 0 Hz frame despite devoiced inheritance: %v", curve)
		}
	}
}

func TestBuildEmptyMorasReturnsNil(t *testing.T) {
	if curve := Build(nil, 100); curve != nil {
		t.Errorf("Build(nil) = %v, want nil", curve)
	}
}
