package audioutil

import "testing"

func TestClampLTVolume(t *testing.T) {
	cases := map[int]int{
		-20000: MinLTVolume,
		-5000:  -5000,
		500:    MaxLTVolume,
		0:      0,
	}
	for in, want := range cases {
		if got := ClampLTVolume(in); got != want {
			t.Errorf("ClampLTVolume(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestLTVolumeToGainBounds(t *testing.T) {
	if g := LTVolumeToGain(MaxLTVolume); g != 1 {
		t.Errorf("gain at max volume = %v, want 1", g)
	}
	if g := LTVolumeToGain(MinLTVolume); g > 0.0001 {
		t.Errorf("gain at min volume = %v, want ~0", g)
	}
}

func TestPanToGainCenterIsUnity(t *testing.T) {
	if g := PanToGain(64); g != 1 {
		t.Errorf("PanToGain(64) = %v, want 1", g)
	}
}

func TestPanToGainExtremesAreSilent(t *testing.T) {
	if g := PanToGain(0); g > 0.0001 {
		t.Errorf("PanToGain(0) = %v, want ~0", g)
	}
	if g := PanToGain(127); g > 0.0001 {
		t.Errorf("PanToGain(127) = %v, want ~0", g)
	}
}
