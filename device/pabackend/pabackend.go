// Package pabackend is the PortAudio fallback device.Backend: a device with
// no EFX support, where every source is mixed down to one interleaved output
// stream in software. It is grounded on the teacher's AudioEngine playback
// path (additive float32 mixing, clamped to [-1, 1]), generalized from a
// single voice-chat stream to an arbitrary number of concurrently playing
// voices.
package pabackend

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"

	"soundsys/device"
	"soundsys/wavefmt"
)

// framesPerBuffer is the PortAudio callback block size: 960 frames, the
// teacher's 20ms-at-48kHz convention. The same frame count is used at
// whatever sample rate the context is opened at.
const framesPerBuffer = 960

// Backend opens a PortAudio output-only stream. There is no capture side:
// this engine only ever plays mixed audio, it never records.
type Backend struct {
	log *slog.Logger
}

// New returns the PortAudio backend. If log is nil a discard logger is used.
func New(log *slog.Logger) *Backend {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Backend{log: log}
}

func (b *Backend) Describe() string { return "PortAudio" }

func (b *Backend) OpenContext(format wavefmt.Format) (device.Context, error) {
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("pabackend: %w", err)
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("pabackend: list devices: %w", err)
	}
	out, err := defaultOutputDevice(devices)
	if err != nil {
		return nil, err
	}

	c := &context{
		format:     format,
		listener:   &listener{},
		masterGain: 1.0,
		stopCh:     make(chan struct{}),
		log:        b.log,
	}

	buf := make([]float32, framesPerBuffer*format.ChannelCount)
	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   out,
			Channels: format.ChannelCount,
			Latency:  out.DefaultLowOutputLatency,
		},
		SampleRate:      float64(format.SampleRate),
		FramesPerBuffer: framesPerBuffer,
	}
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return nil, fmt.Errorf("pabackend: open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("pabackend: start stream: %w", err)
	}

	c.stream = stream
	c.buf = buf

	c.wg.Add(1)
	go c.mixLoop()

	return c, nil
}

func defaultOutputDevice(devices []*portaudio.DeviceInfo) (*portaudio.DeviceInfo, error) {
	def, err := portaudio.DefaultOutputDevice()
	if err == nil {
		return def, nil
	}
	for _, d := range devices {
		if d.MaxOutputChannels > 0 {
			return d, nil
		}
	}
	return nil, fmt.Errorf("pabackend: no output device available")
}

// context owns the single PortAudio output stream every source is mixed
// into. Unlike oalbackend there is no per-source hardware state: mixing
// happens in mixLoop.
type context struct {
	mu         sync.Mutex
	format     wavefmt.Format
	listener   *listener
	masterGain float64
	sources    []*source

	stream paStream
	buf    []float32

	stopCh chan struct{}
	wg     sync.WaitGroup
	closed bool
	log    *slog.Logger
}

// paStream is the subset of *portaudio.Stream pabackend drives, mirroring
// the teacher's own paStream seam so fakebackend-equivalent tests could swap
// it out without linking PortAudio.
type paStream interface {
	Write() error
	Stop() error
	Close() error
}

func (c *context) NewSource(spatial bool) (device.Source, error) {
	s := &source{spatial: spatial, state: device.StateInitial, gain: 1.0, format: c.format}
	c.mu.Lock()
	c.sources = append(c.sources, s)
	c.mu.Unlock()
	return s, nil
}

func (c *context) Listener() device.Listener { return c.listener }

func (c *context) SupportsEFX() bool { return false }

func (c *context) NewAuxEffectSlot() (device.AuxEffectSlot, error) {
	return nil, device.ErrUnsupported
}

func (c *context) NewEffect(kind device.EffectKind) (device.Effect, error) {
	if kind == device.EffectNull {
		return &nullEffect{}, nil
	}
	return nil, device.ErrUnsupported
}

func (c *context) SetMasterGain(gain float64) error {
	c.mu.Lock()
	c.masterGain = gain
	c.mu.Unlock()
	return nil
}

func (c *context) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.stopCh)
	c.wg.Wait()
	c.stream.Stop()
	return c.stream.Close()
}

// mixLoop additively mixes every playing source's queued PCM into the
// output buffer once per PortAudio period, in the same style as the
// teacher's playbackLoop: silence first, additive accumulation scaled by
// per-source gain, then a hard clamp before the blocking Write.
func (c *context) mixLoop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.stopCh:
			return
		default:
		}

		zeroFloat32(c.buf)

		c.mu.Lock()
		gain := c.masterGain
		srcs := append([]*source{}, c.sources...)
		c.mu.Unlock()

		for _, s := range srcs {
			s.mixInto(c.buf, gain)
		}

		for i := range c.buf {
			c.buf[i] = clampFloat32(c.buf[i])
		}

		if err := c.stream.Write(); err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				c.log.Error("pabackend: stream write failed", "error", err)
			}
			return
		}
	}
}

func zeroFloat32(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}

func clampFloat32(v float32) float32 {
	if v > 1.0 {
		return 1.0
	}
	if v < -1.0 {
		return -1.0
	}
	return v
}

type listener struct {
	mu   sync.Mutex
	gain float64
}

func (l *listener) SetPosition(x, y, z float64) error                        { return nil }
func (l *listener) SetVelocity(x, y, z float64) error                        { return nil }
func (l *listener) SetOrientation(ax, ay, az, ux, uy, uz float64) error      { return nil }
func (l *listener) SetDopplerFactor(factor float64) error                   { return nil }

func (l *listener) SetGain(gain float64) error {
	l.mu.Lock()
	l.gain = gain
	l.mu.Unlock()
	return nil
}

type nullEffect struct{}

func (e *nullEffect) Kind() device.EffectKind                 { return device.EffectNull }
func (e *nullEffect) SetReverbParams(device.ReverbParams) error { return device.ErrUnsupported }
func (e *nullEffect) Close() error                             { return nil }
