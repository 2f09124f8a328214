// Package fakebackend is an in-memory device.Backend used by the voice,
// mixer and reverb unit tests. It records every call a voice or the mixer
// worker makes without touching real audio hardware — the same role the
// teacher's mockPAStream/mockEncoder play for AudioEngine's tests.
package fakebackend

import (
	"sync"

	"soundsys/device"
	"soundsys/wavefmt"
)

// Backend is a device.Backend that keeps all state in memory.
type Backend struct{}

// New returns a fresh fake backend.
func New() *Backend { return &Backend{} }

func (b *Backend) Describe() string { return "Fake" }

func (b *Backend) OpenContext(format wavefmt.Format) (device.Context, error) {
	return &context{format: format, listener: &listener{}}, nil
}

type context struct {
	mu         sync.Mutex
	format     wavefmt.Format
	listener   *listener
	masterGain float64
	efx        bool
}

// SetEFXSupported is test-only: toggles whether the fake context reports
// EFX support, so reverb-routing tests can exercise both branches of
// §4.4's device-capability choice.
func (c *context) SetEFXSupported(v bool) { c.efx = v }

func (c *context) NewSource(spatial bool) (device.Source, error) {
	return &source{spatial: spatial, state: device.StateInitial}, nil
}

func (c *context) Listener() device.Listener { return c.listener }

func (c *context) SupportsEFX() bool { return c.efx }

func (c *context) NewAuxEffectSlot() (device.AuxEffectSlot, error) {
	if !c.efx {
		return nil, device.ErrUnsupported
	}
	return &auxSlot{}, nil
}

func (c *context) NewEffect(kind device.EffectKind) (device.Effect, error) {
	if !c.efx && kind != device.EffectNull {
		return nil, device.ErrUnsupported
	}
	return &effect{kind: kind}, nil
}

func (c *context) SetMasterGain(gain float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.masterGain = gain
	return nil
}

func (c *context) MasterGain() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.masterGain
}

func (c *context) Close() error { return nil }

type listener struct {
	mu                                   sync.Mutex
	x, y, z                              float64
	vx, vy, vz                           float64
	atX, atY, atZ, upX, upY, upZ         float64
	gain, doppler                        float64
}

func (l *listener) SetPosition(x, y, z float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.x, l.y, l.z = x, y, z
	return nil
}

func (l *listener) SetVelocity(x, y, z float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.vx, l.vy, l.vz = x, y, z
	return nil
}

func (l *listener) SetOrientation(atX, atY, atZ, upX, upY, upZ float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.atX, l.atY, l.atZ, l.upX, l.upY, l.upZ = atX, atY, atZ, upX, upY, upZ
	return nil
}

func (l *listener) SetGain(gain float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gain = gain
	return nil
}

func (l *listener) SetDopplerFactor(factor float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.doppler = factor
	return nil
}

// Position returns the last submitted listener position, for assertions.
func (l *listener) Position() (float64, float64, float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.x, l.y, l.z
}

// Gain returns the last submitted listener gain, for assertions.
func (l *listener) Gain() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gain
}

// DopplerFactor returns the last submitted doppler factor, for assertions.
func (l *listener) DopplerFactor() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.doppler
}

// queuedBuf is one uploaded PCM block recorded for inspection by tests.
type queuedBuf struct {
	data       []byte
	sampleRate int
}

type source struct {
	mu       sync.Mutex
	spatial  bool
	relative bool
	state    device.PlaybackState
	queued   []queuedBuf
	played   [][]byte // history of everything ever queued, for assertions
	gain     float64
	minDist  float64
	maxDist  float64
	x, y, z  float64
	auxSlot  device.AuxEffectSlot
	closed   bool
}

func (s *source) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = device.StatePlaying
	return nil
}

func (s *source) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == device.StatePlaying {
		s.state = device.StatePaused
	}
	return nil
}

func (s *source) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = device.StateStopped
	s.queued = nil
	return nil
}

func (s *source) State() (device.PlaybackState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, nil
}

func (s *source) BuffersProcessed() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// The fake backend "plays" instantly: everything queued is immediately
	// processed, mirroring a device draining buffers faster than the test
	// advances wall-clock time. Tests that need staged draining use
	// UnqueueProcessed directly.
	return len(s.queued), nil
}

func (s *source) BuffersQueued() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queued), nil
}

func (s *source) QueueBuffer(data []byte, format wavefmt.Format, sampleRate int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.queued = append(s.queued, queuedBuf{data: cp, sampleRate: sampleRate})
	s.played = append(s.played, cp)
	return nil
}

func (s *source) UnqueueProcessed(max int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.queued)
	if n > max {
		n = max
	}
	s.queued = s.queued[n:]
	return n, nil
}

func (s *source) SetGain(gain float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gain = gain
	return nil
}

func (s *source) SetRelative(relative bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relative = relative
	return nil
}

func (s *source) SetPosition(x, y, z float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.x, s.y, s.z = x, y, z
	return nil
}

func (s *source) SetVelocity(x, y, z float64) error { return nil }
func (s *source) SetDirection(x, y, z float64) error { return nil }

func (s *source) SetDistances(min, max float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.minDist, s.maxDist = min, max
	return nil
}

func (s *source) SetAuxSend(slot device.AuxEffectSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auxSlot = slot
	return nil
}

func (s *source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Position returns the last submitted source position, for assertions.
func (s *source) Position() (float64, float64, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.x, s.y, s.z
}

// Gain returns the last submitted source gain, for assertions.
func (s *source) Gain() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gain
}

// Played returns every PCM block ever queued on this source, in order.
func (s *source) Played() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.played))
	copy(out, s.played)
	return out
}

type auxSlot struct {
	mu     sync.Mutex
	effect device.Effect
}

func (a *auxSlot) SetEffect(e device.Effect) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.effect = e
	return nil
}

func (a *auxSlot) Effect() device.Effect {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.effect
}

func (a *auxSlot) Close() error { return nil }

type effect struct {
	mu     sync.Mutex
	kind   device.EffectKind
	params device.ReverbParams
}

func (e *effect) Kind() device.EffectKind { return e.kind }

func (e *effect) SetReverbParams(p device.ReverbParams) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params = p
	return nil
}

func (e *effect) Params() device.ReverbParams {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params
}

func (e *effect) Close() error { return nil }

// Exported type aliases so test code in other packages can assert on the
// concrete fake types returned by Context/Source without importing
// unexported identifiers.
type (
	Context  = context
	Source   = source
	Listener = listener
	AuxSlot  = auxSlot
	Effect   = effect
)
