package soundsys

import (
	"errors"
	"testing"

	"soundsys/device"
	"soundsys/device/fakebackend"
	"soundsys/reverb"
	"soundsys/voice"
	"soundsys/wavefmt"
)

// efxBackend wraps fakebackend.New and flips the returned context's fake
// EFX support on immediately after opening, so reverb-path tests don't
// need to reach into Engine's private context field mid-construction.
type efxBackend struct {
	*fakebackend.Backend
	enableEFX bool
}

func newEFXBackend(enable bool) *efxBackend {
	return &efxBackend{Backend: fakebackend.New(), enableEFX: enable}
}

func (b *efxBackend) OpenContext(format wavefmt.Format) (device.Context, error) {
	ctx, err := b.Backend.OpenContext(format)
	if err != nil {
		return nil, err
	}
	if b.enableEFX {
		ctx.(*fakebackend.Context).SetEFXSupported(true)
	}
	return ctx, nil
}

func testFormat() wavefmt.Format {
	return wavefmt.Format{ChannelCount: 2, BitDepth: 16, SampleRate: 44100}
}

func openEngine(t *testing.T, efx bool) *Engine {
	t.Helper()
	e := New(WithBackend(newEFXBackend(efx)))
	if err := e.Startup(); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	if err := e.WaveOutOpen(testFormat()); err != nil {
		t.Fatalf("WaveOutOpen: %v", err)
	}
	t.Cleanup(func() { e.Shutdown() })
	return e
}

func TestWaveOutOpenRejectsInvalidFormat(t *testing.T) {
	e := New(WithBackend(fakebackend.New()))
	e.Startup()
	err := e.WaveOutOpen(wavefmt.Format{ChannelCount: 0, BitDepth: 16, SampleRate: 44100})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("want ErrConfiguration, got %v", err)
	}
}

func TestWaveOutOpenIsIdempotent(t *testing.T) {
	e := openEngine(t, false)
	if err := e.WaveOutOpen(testFormat()); err != nil {
		t.Fatalf("second WaveOutOpen: %v", err)
	}
}

func TestMasterVolumeRoundTrip(t *testing.T) {
	e := openEngine(t, false)
	if err := e.SetDigitalMasterVolume(-500); err != nil {
		t.Fatalf("SetDigitalMasterVolume: %v", err)
	}
	if got := e.GetDigitalMasterVolume(); got != -500 {
		t.Fatalf("GetDigitalMasterVolume = %d, want -500", got)
	}
}

func TestMasterVolumeClamped(t *testing.T) {
	e := openEngine(t, false)
	if err := e.SetDigitalMasterVolume(-999999); err != nil {
		t.Fatalf("SetDigitalMasterVolume: %v", err)
	}
	if got := e.GetDigitalMasterVolume(); got != -10000 {
		t.Fatalf("GetDigitalMasterVolume = %d, want clamped -10000", got)
	}
}

func TestSampleLifecycle(t *testing.T) {
	e := openEngine(t, false)

	h, err := e.AllocateSample()
	if err != nil {
		t.Fatalf("AllocateSample: %v", err)
	}

	data := make([]byte, 4096)
	if err := e.InitSampleFromAddress(h, data, testFormat(), testFormat().SampleRate); err != nil {
		t.Fatalf("InitSampleFromAddress: %v", err)
	}
	if err := e.StartSample(h); err != nil {
		t.Fatalf("StartSample: %v", err)
	}
	status, err := e.GetSampleStatus(h)
	if err != nil {
		t.Fatalf("GetSampleStatus: %v", err)
	}
	if status == voice.StatusFailed {
		t.Fatalf("GetSampleStatus = Failed after successful Start")
	}

	if err := e.SetSampleVolume(h, -200); err != nil {
		t.Fatalf("SetSampleVolume: %v", err)
	}
	if got, err := e.GetSampleVolume(h); err != nil || got != -200 {
		t.Fatalf("GetSampleVolume = %d, %v, want -200, nil", got, err)
	}

	if err := e.ReleaseSample(h); err != nil {
		t.Fatalf("ReleaseSample: %v", err)
	}
	if _, err := e.GetSampleStatus(h); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("GetSampleStatus after release: want ErrInvalidHandle, got %v", err)
	}
}

func TestSampleInvalidHandle(t *testing.T) {
	e := openEngine(t, false)
	if err := e.StartSample(99); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("StartSample(99): want ErrInvalidHandle, got %v", err)
	}
}

func TestListenerLifecycle(t *testing.T) {
	e := openEngine(t, false)

	if _, _, _, err := e.ListenerPosition(); !errors.Is(err, ErrNoListener) {
		t.Fatalf("ListenerPosition before open: want ErrNoListener, got %v", err)
	}

	if err := e.Open3DListener(); err != nil {
		t.Fatalf("Open3DListener: %v", err)
	}
	if err := e.SetListenerPosition(1, 2, 3); err != nil {
		t.Fatalf("SetListenerPosition: %v", err)
	}
	x, y, z, err := e.ListenerPosition()
	if err != nil {
		t.Fatalf("ListenerPosition: %v", err)
	}
	if x != 1 || y != 2 || z != 3 {
		t.Fatalf("ListenerPosition = (%v,%v,%v), want (1,2,3)", x, y, z)
	}

	if err := e.Close3DListener(); err != nil {
		t.Fatalf("Close3DListener: %v", err)
	}
	if _, _, _, err := e.ListenerPosition(); !errors.Is(err, ErrNoListener) {
		t.Fatalf("ListenerPosition after close: want ErrNoListener, got %v", err)
	}
}

func Test3DSourceRequiresMono(t *testing.T) {
	e := openEngine(t, false)

	h, err := e.Allocate3DSampleHandle()
	if err != nil {
		t.Fatalf("Allocate3DSampleHandle: %v", err)
	}
	stereo := wavefmt.Format{ChannelCount: 2, BitDepth: 16, SampleRate: 44100}
	err = e.Init3DSampleFromAddress(h, make([]byte, 1024), stereo, 44100)
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("Init3DSampleFromAddress(stereo): want ErrConfiguration, got %v", err)
	}
}

func Test3DSourcePositionAndDistances(t *testing.T) {
	e := openEngine(t, false)

	h, err := e.Allocate3DSampleHandle()
	if err != nil {
		t.Fatalf("Allocate3DSampleHandle: %v", err)
	}
	mono := wavefmt.Format{ChannelCount: 1, BitDepth: 16, SampleRate: 44100}
	if err := e.Init3DSampleFromAddress(h, make([]byte, 1024), mono, 44100); err != nil {
		t.Fatalf("Init3DSampleFromAddress: %v", err)
	}
	if err := e.Set3DPosition(h, 10, 0, -5); err != nil {
		t.Fatalf("Set3DPosition: %v", err)
	}
	if err := e.Set3DSampleDistances(h, 5, 1); err == nil {
		t.Fatalf("Set3DSampleDistances(min > max): want error, got nil")
	}
	if err := e.Set3DSampleDistances(h, 1, 100); err != nil {
		t.Fatalf("Set3DSampleDistances: %v", err)
	}
}

func TestReverbRequiresEFX(t *testing.T) {
	e := openEngine(t, false)
	if e.SupportsEAX20Filter() {
		t.Fatalf("SupportsEAX20Filter: want false without EFX backend")
	}
	err := e.SetEAX20Filter(true, reverb.FromPreset(reverb.PresetCave))
	if !errors.Is(err, device.ErrUnsupported) {
		t.Fatalf("SetEAX20Filter without EFX: want ErrUnsupported, got %v", err)
	}
}

func TestReverbEnableDisable(t *testing.T) {
	e := openEngine(t, true)
	if !e.SupportsEAX20Filter() {
		t.Fatalf("SupportsEAX20Filter: want true with EFX backend")
	}
	if err := e.SetEAX20Filter(true, reverb.FromPreset(reverb.PresetCave)); err != nil {
		t.Fatalf("SetEAX20Filter(enable): %v", err)
	}
	if err := e.SetEAX20Filter(false, reverb.EnvironmentalReverb{}); err != nil {
		t.Fatalf("SetEAX20Filter(disable): %v", err)
	}
}

func TestStreamLifecycle(t *testing.T) {
	e := openEngine(t, false)

	decoder := voice.NewPCMDecoderFactory(testFormat(), -1)
	_, err := e.OpenStream("/nonexistent/path/should/fail.pcm", 0, decoder, 44100)
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("OpenStream missing file: want ErrStorage, got %v", err)
	}
}

func TestHandleFocusLostMutesListener(t *testing.T) {
	e := openEngine(t, false)
	if err := e.Open3DListener(); err != nil {
		t.Fatalf("Open3DListener: %v", err)
	}
	e.HandleFocusLost(true)
	fl := e.ctx.Listener().(*fakebackend.Listener)
	if g := fl.Gain(); g != 0 {
		t.Fatalf("listener gain after focus lost = %v, want 0", g)
	}
	e.HandleFocusLost(false)
	if g := fl.Gain(); g != 1 {
		t.Fatalf("listener gain after focus regained = %v, want 1", g)
	}
}
