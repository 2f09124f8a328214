package pabackend

import (
	"sync"

	"soundsys/device"
	"soundsys/wavefmt"
)

// source is one software-mixed voice: a FIFO of PCM blocks (unsigned 8-bit
// or little-endian signed 16-bit, per the last queued format) consumed one
// sample at a time by the context's mixLoop.
type source struct {
	mu       sync.Mutex
	spatial  bool
	relative bool
	state    device.PlaybackState
	format   wavefmt.Format

	queue   [][]byte // pending buffers, oldest first
	cursor  int      // byte offset into queue[0] not yet consumed
	played  int      // count of buffers fully consumed, for UnqueueProcessed/BuffersProcessed

	gain    float64
	minDist float64
	maxDist float64
}

func (s *source) Play() error {
	s.mu.Lock()
	s.state = device.StatePlaying
	s.mu.Unlock()
	return nil
}

func (s *source) Pause() error {
	s.mu.Lock()
	if s.state == device.StatePlaying {
		s.state = device.StatePaused
	}
	s.mu.Unlock()
	return nil
}

func (s *source) Stop() error {
	s.mu.Lock()
	s.state = device.StateStopped
	s.queue = nil
	s.cursor = 0
	s.mu.Unlock()
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
	n := s.played
	s.played = 0
	return n, nil
}

func (s *source) BuffersQueued() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue), nil
}

func (s *source) QueueBuffer(data []byte, format wavefmt.Format, sampleRate int) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	s.mu.Lock()
	s.format = format
	s.queue = append(s.queue, cp)
	s.mu.Unlock()
	return nil
}

func (s *source) UnqueueProcessed(max int) (int, error) {
	return s.BuffersProcessed()
}

func (s *source) SetGain(gain float64) error {
	s.mu.Lock()
	s.gain = gain
	s.mu.Unlock()
	return nil
}

func (s *source) SetRelative(relative bool) error {
	s.mu.Lock()
	s.relative = relative
	s.mu.Unlock()
	return nil
}

// The remaining 3D setters are accepted but unused: PortAudio has no spatial
// mixing model, and the voice package passes spatial-source PCM through
// unpanned, so positional voices are mixed here with no positional
// attenuation or panning.
func (s *source) SetPosition(x, y, z float64) error { return nil }
func (s *source) SetVelocity(x, y, z float64) error { return nil }
func (s *source) SetDirection(x, y, z float64) error { return nil }

func (s *source) SetDistances(min, max float64) error {
	s.mu.Lock()
	s.minDist, s.maxDist = min, max
	s.mu.Unlock()
	return nil
}

func (s *source) SetAuxSend(slot device.AuxEffectSlot) error {
	return device.ErrUnsupported
}

func (s *source) Close() error {
	s.mu.Lock()
	s.state = device.StateStopped
	s.queue = nil
	s.mu.Unlock()
	return nil
}

// mixInto additively mixes up to len(out) interleaved samples from the
// source's queue into out, scaled by gain*masterGain, draining consumed
// buffers as it goes. Samples are decoded per the source's format:
// unsigned 8-bit or little-endian signed 16-bit.
func (s *source) mixInto(out []float32, masterGain float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != device.StatePlaying {
		return
	}
	scale := float32(s.gain * masterGain)
	width := 2
	if s.format.BitDepth == 8 {
		width = 1
	}

	i := 0
	for i < len(out) && len(s.queue) > 0 {
		buf := s.queue[0]
		for s.cursor+width <= len(buf) && i < len(out) {
			var sample float32
			if width == 1 {
				sample = float32(int(buf[s.cursor])-128) / 128.0
			} else {
				sample = float32(int16(uint16(buf[s.cursor])|uint16(buf[s.cursor+1])<<8)) / 32768.0
			}
			out[i] += sample * scale
			s.cursor += width
			i++
		}
		if s.cursor+width > len(buf) {
			s.queue = s.queue[1:]
			s.cursor = 0
			s.played++
		}
	}
}
