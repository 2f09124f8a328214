// Package device is the seam between the mixing core (voice, mixer, reverb)
// and a concrete audio output API. It plays the same role the original
// engine's ISoundSys vtable played, and the same role paStream/opusEncoder
// played in the teacher's audio package: a small interface the core drives
// without knowing which backend — OpenAL+EFX, PortAudio, or an in-memory
// fake for tests — is underneath.
package device

import (
	"errors"

	"soundsys/wavefmt"
)

// PoolSize is the number of output PCM blocks each voice owns: some queued
// on the device, the rest free and waiting to be filled. Fixed at 3 per the
// data model (§3: "a small ring of output PCM blocks").
const PoolSize = 3

// PlaybackState mirrors the handful of states an OpenAL source (or its
// software-mix equivalent) can report.
type PlaybackState int

const (
	StateInitial PlaybackState = iota
	StatePlaying
	StatePaused
	StateStopped
)

// ErrUnsupported is returned by EFX operations on a backend/context that
// does not support the auxiliary-effect-slot extension.
var ErrUnsupported = errors.New("device: operation not supported by this backend")

// EffectKind selects which effect model a reverb Effect object implements.
type EffectKind int

const (
	EffectNull EffectKind = iota
	EffectReverb
	EffectEAXReverb
)

// ReverbParams is the fully-resolved parameter set applied to an Effect,
// already unit-converted to the ranges the EFX reverb/EAX-reverb models
// expect (linear gain, seconds, etc. — see reverb.Map). The first block is
// shared between the plain reverb and EAX-reverb effect models; the second
// block only exists in the EAX-reverb model and is ignored by a plain
// Effect (see Effect.SetReverbParams).
type ReverbParams struct {
	Diffusion           float64
	Gain                float64
	GainHF              float64
	DecayTime           float64
	DecayHFRatio        float64
	ReflectionsGain     float64
	ReflectionsDelay    float64
	LateReverbGain      float64
	LateReverbDelay     float64
	RoomRolloffFactor   float64
	AirAbsorptionGainHF float64

	// EAX-extended fields: no home in the plain reverb model.
	Density         float64
	GainLF          float64
	DecayLFRatio    float64
	EchoTime        float64
	EchoDepth       float64
	ModulationTime  float64
	ModulationDepth float64
	HFReference     float64
	LFReference     float64
	DecayHFLimit    bool
}

// Effect is one configured reverb (or null) effect object.
type Effect interface {
	Kind() EffectKind
	SetReverbParams(ReverbParams) error
	Close() error
}

// AuxEffectSlot is the device-side bus sources route their "wet" signal
// through. Exactly one exists per engine (§2.4: "one auxiliary effect
// slot").
type AuxEffectSlot interface {
	SetEffect(Effect) error
	Close() error
}

// Listener is the single spatial listener every 3D source is positioned
// relative to.
type Listener interface {
	SetPosition(x, y, z float64) error
	SetVelocity(x, y, z float64) error
	SetOrientation(atX, atY, atZ, upX, upY, upZ float64) error
	SetGain(gain float64) error
	SetDopplerFactor(factor float64) error
}

// Source is one mixing voice's device-side handle: a queue of PCM buffers
// plus whatever 3D/gain parameters apply to it.
type Source interface {
	Play() error
	Pause() error
	Stop() error
	State() (PlaybackState, error)

	BuffersProcessed() (int, error)
	BuffersQueued() (int, error)
	// QueueBuffer uploads one PCM block at sampleRate and enqueues it.
	QueueBuffer(data []byte, format wavefmt.Format, sampleRate int) error
	// UnqueueProcessed detaches up to max already-played buffers from the
	// source so their storage can be reused, and reports how many.
	UnqueueProcessed(max int) (int, error)

	SetGain(gain float64) error
	// SetRelative marks the source as device-relative (panning voices) or
	// world-relative (spatial sources); see §4.3.
	SetRelative(relative bool) error
	SetPosition(x, y, z float64) error
	SetVelocity(x, y, z float64) error
	SetDirection(x, y, z float64) error
	SetDistances(min, max float64) error

	// SetAuxSend routes the source's wet signal through slot, or detaches
	// it entirely when slot is nil.
	SetAuxSend(slot AuxEffectSlot) error

	Close() error
}

// Context owns one opened output device: its sources, the listener, and
// (if supported) the EFX auxiliary slot/effect objects.
type Context interface {
	NewSource(spatial bool) (Source, error)
	Listener() Listener

	SupportsEFX() bool
	NewAuxEffectSlot() (AuxEffectSlot, error)
	NewEffect(kind EffectKind) (Effect, error)

	SetMasterGain(gain float64) error
	Close() error
}

// Backend opens a Context bound to a physical or virtual output device.
// Backend implementations are the "dynamic library" of §6: Describe plays
// the role of SoundSysDesc.
type Backend interface {
	Describe() string
	OpenContext(format wavefmt.Format) (Context, error)
}
