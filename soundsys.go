// Package soundsys is the engine façade: the single entry point that owns
// the device context, the effect engine's auxiliary slot, the three
// mixer-worker voice lists, and the handle tables panning samples,
// streams, and 3D sources are addressed through. It plays the role the
// original engine's ISoundSys vtable played, surfaced as plain Go methods
// per §6's "Go-native entry points" expansion, grounded on the teacher's
// ChannelState (map+mutex handle registry, atomic ID counter,
// (T, bool, error) returns) in server/internal/core/channel_state.go.
package soundsys

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"soundsys/audioutil"
	"soundsys/device"
	"soundsys/device/oalbackend"
	"soundsys/mixer"
	"soundsys/voice"
	"soundsys/wavefmt"
)

// Describe identifies this binding, equivalent to the original's
// SoundSysDesc dynamic-library entry point.
func Describe() string { return "OpenAL" }

// Engine owns one opened output device and every voice/effect object
// allocated against it.
type Engine struct {
	log *slog.Logger

	backend device.Backend
	format  wavefmt.Format

	mu          sync.Mutex
	ctx         device.Context
	started     bool
	clockAnchor time.Time

	panning *mixer.List
	spatial *mixer.List
	streams *mixer.List
	worker  *mixer.Worker

	samples     *handleTable
	streamVoice *handleTable
	sources3D   *handleTable

	listenerMu  sync.Mutex
	listener    *voice.StreamingVoice
	focusLostMu sync.Mutex
	focusLost   bool

	masterVolume atomic.Int32 // centibels

	auxSlot     device.AuxEffectSlot
	nullEffect  device.Effect
	reverbOn    atomic.Bool
	supportsEFX atomic.Bool
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithBackend overrides the device backend. Defaults to oalbackend.
func WithBackend(b device.Backend) Option {
	return func(e *Engine) { e.backend = b }
}

// WithLogger overrides the engine's structured logger. Defaults to
// slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New constructs an Engine, equivalent to the original's SoundSysMake.
// The device is not opened until WaveOutOpen is called.
func New(opts ...Option) *Engine {
	e := &Engine{
		backend:     oalbackend.New(),
		log:         slog.Default(),
		panning:     &mixer.List{},
		spatial:     &mixer.List{},
		streams:     &mixer.List{},
		samples:     newHandleTable(),
		streamVoice: newHandleTable(),
		sources3D:   newHandleTable(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.worker = mixer.NewWorker(e.panning, e.spatial, e.streams)
	return e
}

// Startup records the clock anchor MsCount is measured from. Idempotent.
func (e *Engine) Startup() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.clockAnchor.IsZero() {
		e.clockAnchor = time.Now()
	}
	return nil
}

// MsCount returns wall-clock milliseconds since Startup, wrapping at 2^32
// per §6.
func (e *Engine) MsCount() uint32 {
	e.mu.Lock()
	anchor := e.clockAnchor
	e.mu.Unlock()
	if anchor.IsZero() {
		return 0
	}
	return uint32(time.Since(anchor).Milliseconds())
}

// WaveOutOpen opens the output device at format and starts the mixer
// worker. Must be called after Startup and before any voice operation.
func (e *Engine) WaveOutOpen(format wavefmt.Format) error {
	if err := format.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return nil
	}

	ctx, err := e.backend.OpenContext(format)
	if err != nil {
		e.log.Error("wave out open failed", "backend", e.backend.Describe(), "err", err)
		return fmt.Errorf("%w: open context: %v", ErrDevice, err)
	}

	e.ctx = ctx
	e.format = format
	e.supportsEFX.Store(ctx.SupportsEFX())

	if null, err := ctx.NewEffect(device.EffectNull); err == nil {
		e.nullEffect = null
	}
	if ctx.SupportsEFX() {
		if slot, err := ctx.NewAuxEffectSlot(); err == nil {
			e.auxSlot = slot
		}
	}

	e.worker.Start()
	e.started = true
	e.log.Info("wave out open", "backend", e.backend.Describe(), "sample_rate", format.SampleRate, "efx", ctx.SupportsEFX())
	return nil
}

// WaveOutClose stops the mixer worker, destroys every allocated voice, and
// closes the device context. Idempotent.
func (e *Engine) WaveOutClose() error {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return nil
	}
	e.started = false
	ctx := e.ctx
	e.ctx = nil
	e.mu.Unlock()

	e.worker.Stop()

	for _, table := range []*handleTable{e.samples, e.streamVoice, e.sources3D} {
		for _, h := range table.handles() {
			if v, ok := table.release(h); ok {
				v.Destroy()
			}
		}
	}

	e.listenerMu.Lock()
	if e.listener != nil {
		e.spatial.Remove(e.listener)
		e.listener = nil
	}
	e.listenerMu.Unlock()

	if e.auxSlot != nil {
		e.auxSlot.Close()
		e.auxSlot = nil
	}
	if ctx != nil {
		return ctx.Close()
	}
	return nil
}

// Shutdown tears down the engine completely. Equivalent to the original's
// Shutdown entry point.
func (e *Engine) Shutdown() error {
	return e.WaveOutClose()
}

// SetDigitalMasterVolume sets the master output volume in centibels,
// [-10000, 0].
func (e *Engine) SetDigitalMasterVolume(centibels int) error {
	if centibels < audioutil.MinLTVolume || centibels > audioutil.MaxLTVolume {
		centibels = clampCentibel(centibels)
	}
	e.masterVolume.Store(int32(centibels))
	e.mu.Lock()
	ctx := e.ctx
	e.mu.Unlock()
	if ctx == nil {
		return nil
	}
	if err := ctx.SetMasterGain(audioutil.LTVolumeToGain(centibels)); err != nil {
		return fmt.Errorf("%w: set master gain: %v", ErrDevice, err)
	}
	return nil
}

// GetDigitalMasterVolume returns the current master volume in centibels.
func (e *Engine) GetDigitalMasterVolume() int {
	return int(e.masterVolume.Load())
}

// HandleFocusLost mutes (or restores) the listener when the application
// loses (or regains) input focus.
func (e *Engine) HandleFocusLost(lost bool) {
	e.focusLostMu.Lock()
	e.focusLost = lost
	e.focusLostMu.Unlock()

	e.listenerMu.Lock()
	l := e.listener
	e.listenerMu.Unlock()
	if l != nil {
		l.SetListenerMuted(lost)
	}
}

func clampCentibel(v int) int {
	if v < audioutil.MinLTVolume {
		return audioutil.MinLTVolume
	}
	if v > audioutil.MaxLTVolume {
		return audioutil.MaxLTVolume
	}
	return v
}

// context returns the open device context, or ErrNotOpen.
func (e *Engine) context() (device.Context, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx == nil {
		return nil, ErrNotOpen
	}
	return e.ctx, nil
}

// reverbRoute is passed to voice.Open so newly opened voices are routed
// through the auxiliary slot exactly when reverb is currently enabled.
func (e *Engine) reverbRoute() (device.AuxEffectSlot, bool) {
	if e.auxSlot == nil || !e.reverbOn.Load() {
		return nil, false
	}
	return e.auxSlot, true
}
