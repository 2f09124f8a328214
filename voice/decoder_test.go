package voice

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"soundsys/wavefmt"
)

func TestPCMDecoderSeekSample(t *testing.T) {
	format := wavefmt.Format{ChannelCount: 1, BitDepth: 16, SampleRate: 8000}
	data := make([]byte, 2000)
	for i := range data {
		data[i] = byte(i)
	}
	r := bytes.NewReader(data)
	dec, err := newPCMDecoder(r, format, int64(len(data)))
	if err != nil {
		t.Fatalf("newPCMDecoder: %v", err)
	}

	if err := dec.SeekSample(10); err != nil {
		t.Fatalf("SeekSample: %v", err)
	}
	buf := make([]byte, 4)
	n, err := dec.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 bytes, got %d", n)
	}
	wantOff := 10 * format.BlockAlign()
	if buf[0] != data[wantOff] {
		t.Fatalf("seek landed at wrong offset: got byte %d, want %d", buf[0], data[wantOff])
	}
}

func TestPCMDecoderTotalBytes(t *testing.T) {
	format := wavefmt.Format{ChannelCount: 2, BitDepth: 16, SampleRate: 44100}
	r := bytes.NewReader(make([]byte, 400))
	dec, err := newPCMDecoder(r, format, 400)
	if err != nil {
		t.Fatalf("newPCMDecoder: %v", err)
	}
	if dec.TotalBytes() != 400 {
		t.Fatalf("TotalBytes: got %d, want 400", dec.TotalBytes())
	}
}

// fakeOpusStream writes a minimal length-prefixed packet stream without a
// real Opus encoder: decodeNextPacket calls into gopkg.in/hraban/opus.v2
// regardless, so these tests only exercise the index-building and framing
// logic, not actual decode output — that would require linking libopus.
func fakeOpusStream(packets [][]byte) []byte {
	var buf bytes.Buffer
	for _, p := range packets {
		var lenBuf [2]byte
		binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(p)))
		buf.Write(lenBuf[:])
		buf.Write(p)
	}
	return buf.Bytes()
}

func TestOpusDecoderBuildsPacketIndex(t *testing.T) {
	stream := fakeOpusStream([][]byte{{1, 2, 3}, {4, 5}, {6}})
	r := bytes.NewReader(stream)

	d := &opusDecoder{r: r, sampleRate: 48000, channels: 1, frameSize: 960}
	base, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		t.Fatalf("seek: %v", err)
	}
	d.base = base
	if err := d.buildIndex(); err != nil {
		t.Fatalf("buildIndex: %v", err)
	}
	if len(d.index) != 3 {
		t.Fatalf("expected 3 packets indexed, got %d", len(d.index))
	}
	if d.index[0].sampleOffset != 0 {
		t.Fatalf("first packet sampleOffset: got %d, want 0", d.index[0].sampleOffset)
	}
	if d.index[1].sampleOffset != 960 {
		t.Fatalf("second packet sampleOffset: got %d, want 960", d.index[1].sampleOffset)
	}
	if d.index[2].sampleOffset != 1920 {
		t.Fatalf("third packet sampleOffset: got %d, want 1920", d.index[2].sampleOffset)
	}
}
