package voice

import (
	"testing"

	"soundsys/device"
	"soundsys/device/fakebackend"
	"soundsys/wavefmt"
)

func noReverb() (device.AuxEffectSlot, bool) { return nil, false }

func newTestContext(t *testing.T) device.Context {
	t.Helper()
	ctx, err := fakebackend.New().OpenContext(wavefmt.Format{ChannelCount: 1, BitDepth: 16, SampleRate: 22050})
	if err != nil {
		t.Fatalf("OpenContext: %v", err)
	}
	return ctx
}

func squareWaveU8(n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		if i%2 == 0 {
			buf[i] = 0xFF
		} else {
			buf[i] = 0x00
		}
	}
	return buf
}

func TestOpenMemoryPcmPanningMono(t *testing.T) {
	ctx := newTestContext(t)
	v := New(ctx, Panning)
	if v.IsFailed() {
		t.Fatalf("voice failed at construction: %s", v.LastError())
	}

	format := wavefmt.Format{ChannelCount: 1, BitDepth: 8, SampleRate: 22050}
	data := squareWaveU8(100)
	if err := v.Open(MemoryPcm{Bytes: data, Format: format}, 0, noReverb); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !v.IsStopped() {
		t.Fatalf("expected stopped after open, got status %v", v.Status())
	}
	if v.storageKind != StorageInternalBuffer {
		t.Fatalf("expected InternalBuffer storage, got %v", v.storageKind)
	}
}

func TestSpatialSourceRejectsStereo(t *testing.T) {
	ctx := newTestContext(t)
	v := New(ctx, SpatialSource)
	format := wavefmt.Format{ChannelCount: 2, BitDepth: 16, SampleRate: 44100}
	err := v.Open(MemoryPcm{Bytes: make([]byte, 64), Format: format}, 0, noReverb)
	if err == nil {
		t.Fatalf("expected error opening stereo spatial source")
	}
	if !v.IsFailed() {
		t.Fatalf("expected voice to be Failed, got %v", v.Status())
	}
}

func TestPanningMonoCenteredMixesToStopped(t *testing.T) {
	ctx := newTestContext(t)
	v := New(ctx, Panning)
	format := wavefmt.Format{ChannelCount: 1, BitDepth: 8, SampleRate: 22050}
	data := squareWaveU8(100)
	if err := v.Open(MemoryPcm{Bytes: data, Format: format}, 0, noReverb); err != nil {
		t.Fatalf("Open: %v", err)
	}
	v.SetVolume(0)
	v.SetPan(64)
	if err := v.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for i := 0; i < 10 && !v.IsStopped(); i++ {
		v.Mix()
	}
	if !v.IsStopped() {
		t.Fatalf("expected voice stopped after draining, status=%v", v.Status())
	}

	fs := v.src.(*fakebackend.Source)
	played := fs.Played()
	if len(played) == 0 {
		t.Fatalf("expected at least one buffer played")
	}
	for _, buf := range played {
		for i := 0; i+1 < len(buf); i += 2 {
			if buf[i] != buf[i+1] {
				t.Fatalf("centered pan: L(%d) != R(%d) at byte %d", buf[i], buf[i+1], i)
			}
		}
	}
}

func TestPanningMonoHardLeftSilencesRight(t *testing.T) {
	ctx := newTestContext(t)
	v := New(ctx, Panning)
	format := wavefmt.Format{ChannelCount: 1, BitDepth: 8, SampleRate: 22050}
	data := squareWaveU8(100)
	if err := v.Open(MemoryPcm{Bytes: data, Format: format}, 0, noReverb); err != nil {
		t.Fatalf("Open: %v", err)
	}
	v.SetVolume(0)
	v.SetPan(0)
	if err := v.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < 10 && !v.IsStopped(); i++ {
		v.Mix()
	}

	fs := v.src.(*fakebackend.Source)
	for _, buf := range fs.Played() {
		for i := 0; i+1 < len(buf); i += 2 {
			right := int(buf[i+1]) - 128
			if right < -1 || right > 1 {
				t.Fatalf("hard-left pan: right channel not near silence, got %d", right)
			}
		}
	}
}

func TestLoopBlockWraps(t *testing.T) {
	ctx := newTestContext(t)
	v := New(ctx, Panning)
	format := wavefmt.Format{ChannelCount: 2, BitDepth: 16, SampleRate: 44100}
	data := make([]byte, 44100*4) // 1s stereo 16-bit
	if err := v.Open(MemoryPcm{Bytes: data, Format: format}, 0, noReverb); err != nil {
		t.Fatalf("Open: %v", err)
	}
	beginBytes := int64(44100 * 4 * 100 / 1000)
	endBytes := int64(44100 * 4 * 200 / 1000)
	v.SetLoopBlock(beginBytes, endBytes, true)
	v.SetLoop(true)
	if !v.hasLoopBlock {
		t.Fatalf("expected hasLoopBlock true")
	}
	if err := v.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for i := 0; i < 2000; i++ {
		v.Mix()
	}
	if v.dataOffset < v.loopBegin || v.dataOffset > v.loopEnd {
		t.Fatalf("dataOffset %d outside loop block [%d,%d)", v.dataOffset, v.loopBegin, v.loopEnd)
	}
}

func TestSetLoopBlockWholeBufferForcesDisabled(t *testing.T) {
	ctx := newTestContext(t)
	v := New(ctx, Panning)
	format := wavefmt.Format{ChannelCount: 1, BitDepth: 8, SampleRate: 8000}
	data := make([]byte, 800)
	if err := v.Open(MemoryPcm{Bytes: data, Format: format}, 0, noReverb); err != nil {
		t.Fatalf("Open: %v", err)
	}
	v.SetLoopBlock(0, 800, true)
	if v.hasLoopBlock {
		t.Fatalf("expected has_loop_block forced false for whole-buffer range")
	}
}

func TestSpatialSourceDistancesRequireMinLessThanMax(t *testing.T) {
	ctx := newTestContext(t)
	v := New(ctx, SpatialSource)
	format := wavefmt.Format{ChannelCount: 1, BitDepth: 16, SampleRate: 44100}
	if err := v.Open(MemoryPcm{Bytes: make([]byte, 64), Format: format}, 0, noReverb); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := v.SetDistances(10, 5); err == nil {
		t.Fatalf("expected error for min >= max")
	}
	if err := v.SetDistances(1, 100); err != nil {
		t.Fatalf("SetDistances: %v", err)
	}
}

func TestSpatialSourceRejectsNaN(t *testing.T) {
	ctx := newTestContext(t)
	v := New(ctx, SpatialSource)
	format := wavefmt.Format{ChannelCount: 1, BitDepth: 16, SampleRate: 44100}
	if err := v.Open(MemoryPcm{Bytes: make([]byte, 64), Format: format}, 0, noReverb); err != nil {
		t.Fatalf("Open: %v", err)
	}
	nan := 0.0
	nan = nan / nan
	if err := v.SetPosition(nan, 0, 0); err == nil {
		t.Fatalf("expected NaN position to be rejected")
	}
}

func TestListenerPositionNegatesZAtSubmission(t *testing.T) {
	ctx := newTestContext(t)
	v := New(ctx, SpatialListener)
	if err := v.SetOrientation(0, 0, 1, 0, 1, 0); err != nil {
		t.Fatalf("SetOrientation: %v", err)
	}
	if err := v.SetPosition(0, 0, 1); err != nil {
		t.Fatalf("SetPosition: %v", err)
	}
	v.Mix()

	fl := ctx.Listener().(*fakebackend.Listener)
	x, y, z := fl.Position()
	if x != 0 || y != 0 || z != -1 {
		t.Fatalf("expected device position (0,0,-1), got (%v,%v,%v)", x, y, z)
	}
}

func TestUserDataOutOfRangeRejectedSilently(t *testing.T) {
	ctx := newTestContext(t)
	v := New(ctx, Panning)
	format := wavefmt.Format{ChannelCount: 1, BitDepth: 8, SampleRate: 8000}
	if err := v.Open(MemoryPcm{Bytes: make([]byte, 8), Format: format}, 0, noReverb); err != nil {
		t.Fatalf("Open: %v", err)
	}
	v.SetUserData(99, 42)
	if got := v.UserData(99); got != 0 {
		t.Fatalf("out-of-range user data should read back 0, got %d", got)
	}
	v.SetUserData(3, 42)
	if got := v.UserData(3); got != 42 {
		t.Fatalf("user data slot 3: got %d, want 42", got)
	}
}

func TestVolumeAtMinimumSilencesOutput(t *testing.T) {
	ctx := newTestContext(t)
	v := New(ctx, Panning)
	format := wavefmt.Format{ChannelCount: 1, BitDepth: 16, SampleRate: 8000}
	data := make([]byte, 200)
	for i := 0; i < len(data); i += 2 {
		data[i] = 0xFF
		data[i+1] = 0x7F // near-max positive sample
	}
	if err := v.Open(MemoryPcm{Bytes: data, Format: format}, 0, noReverb); err != nil {
		t.Fatalf("Open: %v", err)
	}
	v.SetVolume(-10000)
	v.SetPan(64)
	if err := v.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < 10 && !v.IsStopped(); i++ {
		v.Mix()
	}

	fs := v.src.(*fakebackend.Source)
	for _, buf := range fs.Played() {
		for i := 0; i+1 < len(buf); i += 2 {
			sample := int16(uint16(buf[i]) | uint16(buf[i+1])<<8)
			if sample != 0 {
				t.Fatalf("expected silence at min volume, got sample %d", sample)
			}
		}
	}
}
