package wavefmt

import "testing"

func TestBlockAlign(t *testing.T) {
	f := Format{ChannelCount: 2, BitDepth: 16, SampleRate: 44100}
	if got := f.BlockAlign(); got != 4 {
		t.Errorf("BlockAlign() = %d, want 4", got)
	}
}

func TestValidateRejectsBadFields(t *testing.T) {
	cases := []Format{
		{ChannelCount: 3, BitDepth: 16, SampleRate: 44100},
		{ChannelCount: 1, BitDepth: 24, SampleRate: 44100},
		{ChannelCount: 1, BitDepth: 16, SampleRate: 0},
	}
	for _, f := range cases {
		if err := f.Validate(); err == nil {
			t.Errorf("Validate(%+v) = nil, want error", f)
		}
	}
}

func TestSilenceByte(t *testing.T) {
	if b := (Format{BitDepth: 8}).SilenceByte(); b != 0x80 {
		t.Errorf("8-bit silence = %#x, want 0x80", b)
	}
	if b := (Format{BitDepth: 16}).SilenceByte(); b != 0x00 {
		t.Errorf("16-bit silence = %#x, want 0x00", b)
	}
}

func TestAlignDown(t *testing.T) {
	f := Format{ChannelCount: 2, BitDepth: 16, SampleRate: 44100} // block align 4
	if got := f.AlignDown(10); got != 8 {
		t.Errorf("AlignDown(10) = %d, want 8", got)
	}
}
