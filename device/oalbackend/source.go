package oalbackend

/*
#include <AL/al.h>
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"

	"soundsys/device"
	"soundsys/wavefmt"
)

// Source wraps one OpenAL source name plus the small buffer-name pool every
// voice owns (device.PoolSize entries, split between queued and free).
type Source struct {
	mu      sync.Mutex
	id      C.ALuint
	spatial bool
	free    []C.ALuint
	queued  []C.ALuint
	efx     *efxProcs
	aux     *AuxEffectSlot
}

func (s *Source) Play() error {
	C.alSourcePlay(s.id)
	return checkErr("alSourcePlay")
}

func (s *Source) Pause() error {
	C.alSourcePause(s.id)
	return checkErr("alSourcePause")
}

func (s *Source) Stop() error {
	C.alSourceStop(s.id)
	return checkErr("alSourceStop")
}

func (s *Source) State() (device.PlaybackState, error) {
	var st C.ALint
	C.alGetSourcei(s.id, C.AL_SOURCE_STATE, &st)
	if err := checkErr("alGetSourcei(AL_SOURCE_STATE)"); err != nil {
		return device.StateStopped, err
	}
	switch st {
	case C.AL_PLAYING:
		return device.StatePlaying, nil
	case C.AL_PAUSED:
		return device.StatePaused, nil
	case C.AL_STOPPED:
		return device.StateStopped, nil
	default:
		return device.StateInitial, nil
	}
}

func (s *Source) BuffersProcessed() (int, error) {
	var n C.ALint
	C.alGetSourcei(s.id, C.AL_BUFFERS_PROCESSED, &n)
	return int(n), checkErr("alGetSourcei(AL_BUFFERS_PROCESSED)")
}

func (s *Source) BuffersQueued() (int, error) {
	var n C.ALint
	C.alGetSourcei(s.id, C.AL_BUFFERS_QUEUED, &n)
	return int(n), checkErr("alGetSourcei(AL_BUFFERS_QUEUED)")
}

func (s *Source) QueueBuffer(data []byte, format wavefmt.Format, sampleRate int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.free) == 0 {
		return fmt.Errorf("oalbackend: no free buffers in pool")
	}
	buf := s.free[len(s.free)-1]
	s.free = s.free[:len(s.free)-1]

	alFormat, err := alBufferFormat(format)
	if err != nil {
		return err
	}

	var ptr unsafe.Pointer
	if len(data) > 0 {
		ptr = unsafe.Pointer(&data[0])
	}
	C.alBufferData(buf, alFormat, ptr, C.ALsizei(len(data)), C.ALsizei(sampleRate))
	if err := checkErr("alBufferData"); err != nil {
		s.free = append(s.free, buf)
		return err
	}

	C.alSourceQueueBuffers(s.id, 1, &buf)
	if err := checkErr("alSourceQueueBuffers"); err != nil {
		s.free = append(s.free, buf)
		return err
	}
	s.queued = append(s.queued, buf)
	return nil
}

func (s *Source) UnqueueProcessed(max int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	processed, err := s.BuffersProcessed()
	if err != nil {
		return 0, err
	}
	if processed > max {
		processed = max
	}
	if processed > len(s.queued) {
		processed = len(s.queued)
	}
	if processed == 0 {
		return 0, nil
	}
	unq := make([]C.ALuint, processed)
	C.alSourceUnqueueBuffers(s.id, C.ALsizei(processed), &unq[0])
	if err := checkErr("alSourceUnqueueBuffers"); err != nil {
		return 0, err
	}
	s.queued = s.queued[processed:]
	s.free = append(s.free, unq...)
	return processed, nil
}

func (s *Source) SetGain(gain float64) error {
	C.alSourcef(s.id, C.AL_GAIN, C.ALfloat(gain))
	return checkErr("alSourcef(AL_GAIN)")
}

func (s *Source) SetRelative(relative bool) error {
	v := C.ALint(C.AL_FALSE)
	if relative {
		v = C.AL_TRUE
	}
	C.alSourcei(s.id, C.AL_SOURCE_RELATIVE, v)
	return checkErr("alSourcei(AL_SOURCE_RELATIVE)")
}

func (s *Source) SetPosition(x, y, z float64) error {
	C.alSource3f(s.id, C.AL_POSITION, C.ALfloat(x), C.ALfloat(y), C.ALfloat(z))
	return checkErr("alSource3f(AL_POSITION)")
}

func (s *Source) SetVelocity(x, y, z float64) error {
	C.alSource3f(s.id, C.AL_VELOCITY, C.ALfloat(x), C.ALfloat(y), C.ALfloat(z))
	return checkErr("alSource3f(AL_VELOCITY)")
}

func (s *Source) SetDirection(x, y, z float64) error {
	C.alSource3f(s.id, C.AL_DIRECTION, C.ALfloat(x), C.ALfloat(y), C.ALfloat(z))
	return checkErr("alSource3f(AL_DIRECTION)")
}

func (s *Source) SetDistances(min, max float64) error {
	C.alSourcef(s.id, C.AL_REFERENCE_DISTANCE, C.ALfloat(min))
	if err := checkErr("alSourcef(AL_REFERENCE_DISTANCE)"); err != nil {
		return err
	}
	C.alSourcef(s.id, C.AL_MAX_DISTANCE, C.ALfloat(max))
	return checkErr("alSourcef(AL_MAX_DISTANCE)")
}

func (s *Source) SetAuxSend(slot device.AuxEffectSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.efx == nil {
		return device.ErrUnsupported
	}
	aux, _ := slot.(*AuxEffectSlot)
	var slotID C.ALuint
	if aux != nil {
		slotID = aux.id
	}
	s.efx.source3i(s.id, efxAuxiliarySendFilter, C.ALint(slotID), 0, efxFilterNull)
	if err := checkErr("alSource3i(AL_AUXILIARY_SEND_FILTER)"); err != nil {
		return err
	}
	s.aux = aux
	return nil
}

func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	C.alSourceStop(s.id)
	C.alDeleteSources(1, &s.id)
	all := append(append([]C.ALuint{}, s.free...), s.queued...)
	if len(all) > 0 {
		C.alDeleteBuffers(C.ALsizei(len(all)), &all[0])
	}
	return checkErr("alDeleteBuffers")
}

func alBufferFormat(f wavefmt.Format) (C.ALenum, error) {
	switch {
	case f.ChannelCount == 1 && f.BitDepth == 8:
		return C.AL_FORMAT_MONO8, nil
	case f.ChannelCount == 1 && f.BitDepth == 16:
		return C.AL_FORMAT_MONO16, nil
	case f.ChannelCount == 2 && f.BitDepth == 8:
		return C.AL_FORMAT_STEREO8, nil
	case f.ChannelCount == 2 && f.BitDepth == 16:
		return C.AL_FORMAT_STEREO16, nil
	default:
		return 0, fmt.Errorf("oalbackend: unsupported format %+v", f)
	}
}

// Listener wraps AL_LISTENER-scoped state.
type Listener struct{}

func (l *Listener) SetPosition(x, y, z float64) error {
	C.alListener3f(C.AL_POSITION, C.ALfloat(x), C.ALfloat(y), C.ALfloat(z))
	return checkErr("alListener3f(AL_POSITION)")
}

func (l *Listener) SetVelocity(x, y, z float64) error {
	C.alListener3f(C.AL_VELOCITY, C.ALfloat(x), C.ALfloat(y), C.ALfloat(z))
	return checkErr("alListener3f(AL_VELOCITY)")
}

func (l *Listener) SetOrientation(atX, atY, atZ, upX, upY, upZ float64) error {
	orientation := [6]C.ALfloat{
		C.ALfloat(atX), C.ALfloat(atY), C.ALfloat(atZ),
		C.ALfloat(upX), C.ALfloat(upY), C.ALfloat(upZ),
	}
	C.alListenerfv(C.AL_ORIENTATION, &orientation[0])
	return checkErr("alListenerfv(AL_ORIENTATION)")
}

func (l *Listener) SetGain(gain float64) error {
	C.alListenerf(C.AL_GAIN, C.ALfloat(gain))
	return checkErr("alListenerf(AL_GAIN)")
}

func (l *Listener) SetDopplerFactor(factor float64) error {
	C.alDopplerFactor(C.ALfloat(factor))
	return checkErr("alDopplerFactor")
}
