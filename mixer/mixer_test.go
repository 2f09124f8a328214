package mixer

import (
	"testing"
	"time"

	"soundsys/device"
	"soundsys/device/fakebackend"
	"soundsys/voice"
	"soundsys/wavefmt"
)

func noReverb() (device.AuxEffectSlot, bool) { return nil, false }

func newVoice(t *testing.T, ctx device.Context, n int) *voice.StreamingVoice {
	t.Helper()
	v := voice.New(ctx, voice.Panning)
	format := wavefmt.Format{ChannelCount: 1, BitDepth: 16, SampleRate: 8000}
	data := make([]byte, n)
	if err := v.Open(voice.MemoryPcm{Bytes: data, Format: format}, 0, noReverb); err != nil {
		t.Fatalf("open voice: %v", err)
	}
	return v
}

func TestWorkerDrainsAndIdlesOut(t *testing.T) {
	ctx, err := fakebackend.New().OpenContext(wavefmt.Format{ChannelCount: 1, BitDepth: 16, SampleRate: 8000})
	if err != nil {
		t.Fatalf("OpenContext: %v", err)
	}
	panning := &List{}
	spatial := &List{}
	streams := &List{}
	w := NewWorker(panning, spatial, streams)
	w.Start()
	defer w.Stop()

	v := newVoice(t, ctx, 400)
	panning.Add(v)
	if err := v.Start(); err != nil {
		t.Fatalf("voice Start: %v", err)
	}
	w.Notify()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if v.IsStopped() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("voice never reached Stopped, status=%v", v.Status())
}

func TestWorkerStopJoinsPromptly(t *testing.T) {
	panning := &List{}
	spatial := &List{}
	streams := &List{}
	w := NewWorker(panning, spatial, streams)
	w.Start()

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("worker did not join within bound")
	}
}

func TestListAddRemove(t *testing.T) {
	ctx, err := fakebackend.New().OpenContext(wavefmt.Format{ChannelCount: 1, BitDepth: 16, SampleRate: 8000})
	if err != nil {
		t.Fatalf("OpenContext: %v", err)
	}
	l := &List{}
	v1 := newVoice(t, ctx, 100)
	v2 := newVoice(t, ctx, 100)
	l.Add(v1)
	l.Add(v2)
	if len(l.voices) != 2 {
		t.Fatalf("expected 2 voices, got %d", len(l.voices))
	}
	l.Remove(v1)
	if len(l.voices) != 1 || l.voices[0] != v2 {
		t.Fatalf("remove did not leave expected single voice")
	}
}
