package voice

import (
	"encoding/binary"
	"fmt"
	"io"

	"gopkg.in/hraban/opus.v2"

	"soundsys/wavefmt"
)

// Decoder is the PCM-producer contract every StreamingVoice storage backend
// not fully resident in memory pulls from. Shaped like io.Reader rather
// than the original engine's bespoke decode() method, since that is the
// idiomatic Go surface for "give me the next block of bytes."
type Decoder interface {
	// Read fills dst with up to len(dst) bytes of native-format PCM and
	// returns how many bytes were produced. Returns io.EOF once the
	// underlying stream is exhausted; a short non-EOF read is not an error.
	Read(dst []byte) (n int, err error)
	// SeekSample repositions the decoder so the next Read starts at the
	// given sample index (in the decoder's native channel/sample-rate
	// space). May be lossy for compressed formats.
	SeekSample(sample int64) error
	// TotalBytes reports the decoder's total native-format PCM size, or
	// a negative value if unknown up front.
	TotalBytes() int64
}

// pcmDecoder wraps an io.ReadSeeker already positioned at the start of raw
// PCM data matching format, tracking a byte cursor so SeekSample can do an
// exact seek.
type pcmDecoder struct {
	r      io.ReadSeeker
	format wavefmt.Format
	base   int64 // byte offset in r where PCM data begins
	total  int64 // total PCM byte count
}

// newPCMDecoder wraps r (already positioned at the PCM start) as a Decoder.
// total, if >= 0, is the exact byte length of the PCM region; a negative
// total is replaced by the byte count from the PCM start to the end of r.
func newPCMDecoder(r io.ReadSeeker, format wavefmt.Format, total int64) (*pcmDecoder, error) {
	base, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("voice: pcmDecoder: locate base offset: %w", err)
	}
	if total < 0 {
		end, err := r.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, fmt.Errorf("voice: pcmDecoder: locate end: %w", err)
		}
		if _, err := r.Seek(base, io.SeekStart); err != nil {
			return nil, fmt.Errorf("voice: pcmDecoder: rewind: %w", err)
		}
		total = end - base
	}
	return &pcmDecoder{r: r, format: format, base: base, total: total}, nil
}

func (d *pcmDecoder) Read(dst []byte) (int, error) {
	return d.r.Read(dst)
}

func (d *pcmDecoder) SeekSample(sample int64) error {
	if sample < 0 {
		return fmt.Errorf("voice: pcmDecoder: negative sample %d", sample)
	}
	off := d.base + sample*int64(d.format.BlockAlign())
	_, err := d.r.Seek(off, io.SeekStart)
	if err != nil {
		return fmt.Errorf("voice: pcmDecoder: seek: %w", err)
	}
	return nil
}

func (d *pcmDecoder) TotalBytes() int64 { return d.total }

// opusPacketIndex records, for one framed Opus packet, the byte offset of
// its length prefix and the cumulative native sample count preceding it.
type opusPacketIndex struct {
	offset       int64
	sampleOffset int64
}

// opusDecoder wraps gopkg.in/hraban/opus.v2 over a sequence of
// length-prefixed Opus packets (a 16-bit little-endian length followed by
// that many bytes of Opus payload, repeated to end of stream). This is the
// framing the Wave track payload inside a DMSG segment uses, and the framing
// a bare .opus-framed stream opened via FileByOffset uses.
type opusDecoder struct {
	r          io.ReadSeeker
	base       int64
	sampleRate int
	channels   int
	frameSize  int // samples per channel per packet, fixed for the stream

	dec   *opus.Decoder
	index []opusPacketIndex
	total int64 // total PCM bytes across all packets (packets × frameSize × channels × 2)

	cursorPacket int  // index into `index` of the next packet to decode
	pending      []byte // leftover decoded PCM not yet returned by Read
}

// newOpusDecoder scans r (already positioned at the start of the
// length-prefixed packet stream) to build a packet index, then constructs
// the underlying Opus decoder. frameSize is the fixed number of samples per
// channel each packet decodes to (20ms at the stream's sample rate).
func newOpusDecoder(r io.ReadSeeker, sampleRate, channels, frameSize int) (*opusDecoder, error) {
	base, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("voice: opusDecoder: locate base offset: %w", err)
	}

	d := &opusDecoder{
		r:          r,
		base:       base,
		sampleRate: sampleRate,
		channels:   channels,
		frameSize:  frameSize,
	}
	if err := d.buildIndex(); err != nil {
		return nil, err
	}
	dec, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("voice: opusDecoder: %w", err)
	}
	d.dec = dec
	return d, nil
}

func (d *opusDecoder) buildIndex() error {
	var lenBuf [2]byte
	var sampleOffset int64
	off := d.base
	for {
		if _, err := d.r.Seek(off, io.SeekStart); err != nil {
			return fmt.Errorf("voice: opusDecoder: index seek: %w", err)
		}
		_, err := io.ReadFull(d.r, lenBuf[:])
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return fmt.Errorf("voice: opusDecoder: index read: %w", err)
		}
		packetLen := int64(binary.LittleEndian.Uint16(lenBuf[:]))
		d.index = append(d.index, opusPacketIndex{offset: off, sampleOffset: sampleOffset})
		sampleOffset += int64(d.frameSize)
		off += 2 + packetLen
	}
	d.total = sampleOffset * int64(d.channels) * 2 // 16-bit PCM out
	if _, err := d.r.Seek(d.base, io.SeekStart); err != nil {
		return fmt.Errorf("voice: opusDecoder: rewind: %w", err)
	}
	return nil
}

func (d *opusDecoder) Read(dst []byte) (int, error) {
	n := 0
	for n < len(dst) {
		if len(d.pending) > 0 {
			c := copy(dst[n:], d.pending)
			d.pending = d.pending[c:]
			n += c
			continue
		}
		if d.cursorPacket >= len(d.index) {
			if n > 0 {
				return n, nil
			}
			return 0, io.EOF
		}
		if err := d.decodeNextPacket(); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (d *opusDecoder) decodeNextPacket() error {
	entry := d.index[d.cursorPacket]
	if _, err := d.r.Seek(entry.offset, io.SeekStart); err != nil {
		return fmt.Errorf("voice: opusDecoder: seek packet: %w", err)
	}
	var lenBuf [2]byte
	if _, err := io.ReadFull(d.r, lenBuf[:]); err != nil {
		return fmt.Errorf("voice: opusDecoder: read packet length: %w", err)
	}
	packetLen := int(binary.LittleEndian.Uint16(lenBuf[:]))
	packet := make([]byte, packetLen)
	if _, err := io.ReadFull(d.r, packet); err != nil {
		return fmt.Errorf("voice: opusDecoder: read packet: %w", err)
	}

	pcm := make([]int16, d.frameSize*d.channels)
	n, err := d.dec.Decode(packet, pcm)
	if err != nil {
		return fmt.Errorf("voice: opusDecoder: decode: %w", err)
	}
	out := make([]byte, n*d.channels*2)
	for i := 0; i < n*d.channels; i++ {
		out[2*i] = byte(pcm[i])
		out[2*i+1] = byte(pcm[i] >> 8)
	}
	d.pending = out
	d.cursorPacket++
	return nil
}

// SeekSample reinitializes the Opus decoder state and replays from the
// nearest packet boundary at or before sample, discarding the samples
// between that boundary and the target. Opus streams have no true random
// access: this is a documented lossy seek.
func (d *opusDecoder) SeekSample(sample int64) error {
	if sample < 0 {
		return fmt.Errorf("voice: opusDecoder: negative sample %d", sample)
	}
	idx := 0
	for idx < len(d.index) && d.index[idx].sampleOffset <= sample {
		idx++
	}
	if idx > 0 {
		idx--
	}

	dec, err := opus.NewDecoder(d.sampleRate, d.channels)
	if err != nil {
		return fmt.Errorf("voice: opusDecoder: reinit: %w", err)
	}
	d.dec = dec
	d.cursorPacket = idx
	d.pending = nil

	discard := sample - d.index[idx].sampleOffset
	if discard > 0 {
		discardBytes := discard * int64(d.channels) * 2
		buf := make([]byte, discardBytes)
		if _, err := io.ReadFull(readerFunc(d.Read), buf); err != nil && err != io.EOF {
			return fmt.Errorf("voice: opusDecoder: discard to target: %w", err)
		}
	}
	return nil
}

func (d *opusDecoder) TotalBytes() int64 { return d.total }

// readerFunc adapts a Read method value to io.Reader.
type readerFunc func([]byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }
