// Package voice implements the StreamingVoice state machine: the single
// mixing unit the engine façade allocates, feeds, positions, and tears
// down. It knows nothing about the mixer's scheduling — Mix is called by
// whoever owns the voice list under that list's lock — and nothing about
// the effect engine beyond routing its own aux-send.
package voice

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"soundsys/audioutil"
	"soundsys/device"
	"soundsys/wavefmt"
)

// VoiceKind selects which of the three mixing roles a voice plays.
type VoiceKind int

const (
	Panning VoiceKind = iota
	SpatialSource
	SpatialListener
)

func (k VoiceKind) String() string {
	switch k {
	case Panning:
		return "panning"
	case SpatialSource:
		return "spatial-source"
	case SpatialListener:
		return "spatial-listener"
	default:
		return "unknown"
	}
}

// StorageKind records where a voice's PCM comes from.
type StorageKind int

const (
	StorageNone StorageKind = iota
	StorageInternalBuffer
	StorageDecoder
)

// Status is the voice's externally-visible playback state.
type Status int

const (
	StatusNone Status = iota
	StatusStopped
	StatusPlaying
	StatusFailed
)

const (
	minLTVolume = -10000
	maxLTVolume = 0
	centerPan   = 64
	maxPan      = 127

	mixBlockMs = 20
)

// DecoderFactory produces a Decoder (plus the native wave format it
// decodes to) over r, which is already positioned at the start of the
// relevant PCM/compressed payload.
type DecoderFactory func(r io.ReadSeeker) (Decoder, wavefmt.Format, error)

// NewPCMDecoderFactory returns a DecoderFactory for raw PCM data in format,
// spanning totalBytes from r's current position (or to EOF if totalBytes
// is negative).
func NewPCMDecoderFactory(format wavefmt.Format, totalBytes int64) DecoderFactory {
	return func(r io.ReadSeeker) (Decoder, wavefmt.Format, error) {
		d, err := newPCMDecoder(r, format, totalBytes)
		return d, format, err
	}
}

// NewOpusDecoderFactory returns a DecoderFactory for a length-prefixed Opus
// packet stream at the given sample rate/channel count/frame size.
func NewOpusDecoderFactory(sampleRate, channels, frameSize int) DecoderFactory {
	format := wavefmt.Format{ChannelCount: channels, BitDepth: 16, SampleRate: sampleRate}
	return func(r io.ReadSeeker) (Decoder, wavefmt.Format, error) {
		d, err := newOpusDecoder(r, sampleRate, channels, frameSize)
		return d, format, err
	}
}

// OpenParams discriminates the three ways a voice can be opened. Exactly
// one concrete type is ever passed to Open.
type OpenParams interface{ isOpenParams() }

// FileByOffset opens a streamed decoder over a sub-region of an on-disk
// file starting at Offset.
type FileByOffset struct {
	Path    string
	Offset  int64
	Decoder DecoderFactory
}

func (FileByOffset) isOpenParams() {}

// MappedBuffer decodes a fully in-memory blob (e.g. a segment track's Wave
// payload) eagerly into an internal PCM buffer.
type MappedBuffer struct {
	Bytes   []byte
	Decoder DecoderFactory
}

func (MappedBuffer) isOpenParams() {}

// MemoryPcm installs a caller-supplied, already-decoded PCM buffer.
type MemoryPcm struct {
	Bytes  []byte
	Format wavefmt.Format
}

func (MemoryPcm) isOpenParams() {}

// ReverbRoute reports whether the engine currently has a reverb effect
// available to route newly opened voices through, and if so returns the
// auxiliary effect slot to send to.
type ReverbRoute func() (slot device.AuxEffectSlot, available bool)

// StreamingVoice is the fundamental mixing unit.
type StreamingVoice struct {
	mu sync.Mutex

	kind        VoiceKind
	storageKind StorageKind
	format      wavefmt.Format // native/source format
	outFormat   wavefmt.Format // format actually queued to the device

	decoder    Decoder
	data       []byte
	dataSize   int64
	dataOffset int64

	isLooping    bool
	hasLoopBlock bool
	loopBegin    int64
	loopEnd      int64

	isPlaying bool
	status    Status

	mixSampleCount int
	mixSizeBytes   int
	monoScratch    []byte
	stereoScratch  []byte

	volume            int
	pan               int
	gain              float64
	leftPan, rightPan float64
	pitch             float64

	dopplerFactor            float64
	minDistance, maxDistance float64
	position, velocity       [3]float64
	direction                [3]float64
	orientationAt            [3]float64
	orientationUp            [3]float64

	masterListenerVolume int
	isListenerMuted      bool

	userData [8]int32

	ctx     device.Context
	src     device.Source
	listener device.Listener

	lastErr error
}

// New constructs an empty voice bound to ctx. For Panning and SpatialSource
// kinds this eagerly allocates the device source and its buffer pool;
// failure drops the voice permanently into StatusFailed, matching the
// original's "three output buffers and one source handle allocated up
// front" lifecycle rule.
func New(ctx device.Context, kind VoiceKind) *StreamingVoice {
	v := &StreamingVoice{
		kind:   kind,
		ctx:    ctx,
		status: StatusStopped,
		pitch:  1.0,
		gain:   1.0,
	}
	switch kind {
	case SpatialListener:
		v.listener = ctx.Listener()
	default:
		src, err := ctx.NewSource(kind == SpatialSource)
		if err != nil {
			v.fail(fmt.Errorf("voice: allocate source: %w", err))
			return v
		}
		v.src = src
	}
	return v
}

func (v *StreamingVoice) fail(err error) {
	v.status = StatusFailed
	v.isPlaying = false
	v.lastErr = err
	if v.src != nil {
		v.src.Stop()
	}
}

// LastError returns the most recently recorded error's message, or "" if
// none has occurred since the voice was constructed or last opened.
func (v *StreamingVoice) LastError() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.lastErr == nil {
		return ""
	}
	return v.lastErr.Error()
}

func (v *StreamingVoice) Kind() VoiceKind { return v.kind }

func (v *StreamingVoice) IsPlaying() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.isPlaying
}

func (v *StreamingVoice) IsStopped() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status == StatusStopped && !v.isPlaying
}

func (v *StreamingVoice) IsFailed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status == StatusFailed
}

func (v *StreamingVoice) Status() Status {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// Open installs new storage and resets mix state. Any failure drops the
// voice into StatusFailed and returns an error. A later Open can still
// succeed and clears the failure, except on a voice whose device source
// could not be allocated, which every Open rejects.
func (v *StreamingVoice) Open(params OpenParams, requestedSampleRate int, reverb ReverbRoute) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.status == StatusFailed && v.src == nil && v.kind != SpatialListener {
		return fmt.Errorf("voice: cannot reopen: %w", v.lastErr)
	}

	var (
		format      wavefmt.Format
		storageKind StorageKind
		decoder     Decoder
		data        []byte
		dataSize    int64
	)

	switch p := params.(type) {
	case FileByOffset:
		f, err := openFileAt(p.Path, p.Offset)
		if err != nil {
			v.fail(err)
			return err
		}
		dec, fmtGot, err := p.Decoder(f)
		if err != nil {
			v.fail(fmt.Errorf("voice: open decoder: %w", err))
			return v.lastErr
		}
		format = fmtGot
		decoder = dec
		storageKind = StorageDecoder
		dataSize = decoder.TotalBytes()

	case MappedBuffer:
		r := bytes.NewReader(p.Bytes)
		dec, fmtGot, err := p.Decoder(r)
		if err != nil {
			v.fail(fmt.Errorf("voice: open decoder: %w", err))
			return v.lastErr
		}
		format = fmtGot
		var buf bytes.Buffer
		tmp := make([]byte, 4096)
		for {
			n, err := dec.Read(tmp)
			if n > 0 {
				buf.Write(tmp[:n])
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				v.fail(fmt.Errorf("voice: decode mapped buffer: %w", err))
				return v.lastErr
			}
		}
		data = buf.Bytes()
		storageKind = StorageInternalBuffer
		dataSize = int64(len(data))

	case MemoryPcm:
		if err := p.Format.Validate(); err != nil {
			err = fmt.Errorf("voice: %w", err)
			v.fail(err)
			return err
		}
		format = p.Format
		data = append([]byte{}, p.Bytes...)
		storageKind = StorageInternalBuffer
		dataSize = int64(len(data))

	default:
		err := fmt.Errorf("voice: unknown OpenParams type %T", params)
		v.fail(err)
		return err
	}

	if v.kind == SpatialSource && !format.IsMono() {
		err := fmt.Errorf("voice: spatial source requires mono input, got %d channels", format.ChannelCount)
		v.fail(err)
		return err
	}

	v.storageKind = storageKind
	v.format = format
	v.decoder = decoder
	v.data = data
	v.dataSize = dataSize
	v.dataOffset = 0
	v.isLooping = false
	v.hasLoopBlock = false
	v.loopBegin = 0
	v.loopEnd = 0
	v.isPlaying = false
	v.status = StatusStopped
	v.lastErr = nil

	v.pitch = 1.0
	if requestedSampleRate > 0 && requestedSampleRate != format.SampleRate {
		v.pitch = float64(requestedSampleRate) / float64(format.SampleRate)
	}

	v.mixSampleCount = int(v.pitch * float64(mixBlockMs) * float64(format.SampleRate) / 1000.0)
	if v.mixSampleCount < 1 {
		v.mixSampleCount = 1
	}
	v.mixSizeBytes = v.mixSampleCount * format.BlockAlign()
	v.monoScratch = make([]byte, v.mixSizeBytes)

	if v.kind == Panning && format.IsMono() {
		v.stereoScratch = make([]byte, v.mixSizeBytes*2)
		v.outFormat = wavefmt.Format{ChannelCount: 2, BitDepth: format.BitDepth, SampleRate: format.SampleRate}
	} else {
		v.outFormat = format
	}

	v.volume = 0
	v.pan = centerPan
	v.gain = audioutil.LTVolumeToGain(0)
	v.leftPan, v.rightPan = 1, 1

	if v.kind != SpatialListener && v.src != nil {
		v.src.SetGain(1.0)
		v.src.SetRelative(v.kind == Panning)
		if slot, ok := reverb(); ok {
			v.src.SetAuxSend(slot)
		} else {
			v.src.SetAuxSend(nil)
		}
	}

	return nil
}

// Close releases the voice's storage, leaving the device source/buffer
// pool allocated for reuse by a subsequent Open. Idempotent.
func (v *StreamingVoice) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.src != nil {
		v.src.Stop()
	}
	v.decoder = nil
	v.data = nil
	v.storageKind = StorageNone
	v.status = StatusStopped
	v.isPlaying = false
	return nil
}

// Destroy releases the device source and its buffer pool. Idempotent.
func (v *StreamingVoice) Destroy() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.src == nil {
		return nil
	}
	err := v.src.Close()
	v.src = nil
	return err
}

// Start is stop followed by resume.
func (v *StreamingVoice) Start() error {
	if err := v.Stop(); err != nil {
		return err
	}
	return v.Resume()
}

// Stop halts playback and rewinds to the loop start (or 0).
func (v *StreamingVoice) Stop() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.status == StatusFailed {
		return nil
	}
	v.isPlaying = false
	if v.isLooping && v.hasLoopBlock {
		v.dataOffset = v.loopBegin
	} else {
		v.dataOffset = 0
	}
	if v.decoder != nil {
		if err := v.decoder.SeekSample(v.dataOffset / int64(v.format.BlockAlign())); err != nil {
			return fmt.Errorf("voice: stop: seek decoder: %w", err)
		}
	}
	return nil
}

// Pause suspends playback without resetting position.
func (v *StreamingVoice) Pause() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.status == StatusFailed {
		return nil
	}
	v.isPlaying = false
	return nil
}

// Resume marks the voice playing; the next mix pass begins queueing.
func (v *StreamingVoice) Resume() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.status == StatusFailed {
		return errors.New("voice: cannot resume a failed voice")
	}
	v.isPlaying = true
	return nil
}

// SetVolume sets the voice's volume in centibels, [-10000, 0]. A mono
// Panning voice applies it in software when expanding to stereo; every
// other voice submits it as its device source's gain.
func (v *StreamingVoice) SetVolume(centibels int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.volume = clampInt(centibels, minLTVolume, maxLTVolume)
	v.gain = audioutil.LTVolumeToGain(v.volume)
	if v.src != nil && !(v.kind == Panning && v.format.IsMono()) {
		v.src.SetGain(v.gain)
	}
}

func (v *StreamingVoice) Volume() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.volume
}

// SetPan sets the Panning voice's stereo pan, [0, 127], center = 64.
func (v *StreamingVoice) SetPan(pan int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pan = clampInt(pan, 0, maxPan)
	switch {
	case v.pan == centerPan:
		v.leftPan, v.rightPan = 1, 1
	case v.pan < centerPan:
		v.leftPan = 1
		v.rightPan = math.Abs(audioutil.PanToGain(v.pan))
	default:
		v.rightPan = 1
		v.leftPan = math.Abs(audioutil.PanToGain(v.pan))
	}
}

func (v *StreamingVoice) Pan() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pan
}

// SetLoop toggles whether the voice wraps at end of data.
func (v *StreamingVoice) SetLoop(enable bool) {
	v.mu.Lock()
	v.isLooping = enable
	v.mu.Unlock()
}

// SetLoopBlock quantizes begin/end to the block alignment and enables
// looping within [begin, end) unless that range degenerates to "the whole
// buffer" or is inverted, in which case has_loop_block is forced false.
func (v *StreamingVoice) SetLoopBlock(begin, end int64, enable bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	begin = int64(v.format.AlignDown(int(begin)))
	if end < 0 {
		end = v.dataSize
	}
	end = int64(v.format.AlignDown(int(end)))

	v.loopBegin, v.loopEnd = begin, end
	if (begin == 0 && end == v.dataSize) || begin > end {
		v.hasLoopBlock = false
		return
	}
	v.hasLoopBlock = enable
}

// SetMsPosition seeks to the given millisecond offset if it falls within
// the voice's data. A decoder-backed voice's decoder is repositioned by
// this call itself; the move is not deferred to the next mix pass.
func (v *StreamingVoice) SetMsPosition(ms int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	byteOff := (ms * int64(v.format.SampleRate) / 1000) * int64(v.format.BlockAlign())
	if byteOff > v.dataSize {
		return fmt.Errorf("voice: ms position %d beyond data size", ms)
	}
	v.dataOffset = byteOff
	if v.decoder != nil {
		return v.decoder.SeekSample(byteOff / int64(v.format.BlockAlign()))
	}
	return nil
}

// UserData gets/sets one of the voice's 8 opaque 32-bit slots. Out-of-range
// indices are rejected silently, per §6.
func (v *StreamingVoice) UserData(index int) int32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	if index < 0 || index >= len(v.userData) {
		return 0
	}
	return v.userData[index]
}

func (v *StreamingVoice) SetUserData(index int, value int32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if index < 0 || index >= len(v.userData) {
		return
	}
	v.userData[index] = value
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func openFileAt(path string, offset int64) (io.ReadSeeker, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, fmt.Errorf("voice: open %s: %w", path, err)
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("voice: seek %s: %w", path, err)
	}
	return f, nil
}
