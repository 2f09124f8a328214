// Package segment parses the DMSG-flavored RIFF container the engine's
// segment files use: a fixed header chunk and a list of typed tracks.
// Grounded on the chunked-header-over-encoding/binary style the pack's
// chriskillpack-modplayer example uses to parse its own chunked format
// (bytes.Reader + encoding/binary, fixed-size header structs) — no example
// repo parses RIFF specifically, and no third-party RIFF/container parser
// appears anywhere in the pack's dependency stack, so this is
// standard-library-only by necessity.
package segment

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// FormatError is returned for any malformed container: an unrecognized
// chunk, a missing required chunk, a short chunk, or an unknown track
// GUID. It carries a short human-readable message, matching the
// original's "stores a short human-readable message" error contract.
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string { return e.Msg }

func formatErrorf(format string, args ...any) *FormatError {
	return &FormatError{Msg: fmt.Sprintf(format, args...)}
}

// GUID is a 16-byte identifier using the container's mixed-endian
// encoding: the first three fields (4+2+2 bytes) are little-endian, the
// last 8 bytes are taken as-is (big-endian in the conventional GUID
// string representation).
type GUID [16]byte

func (g GUID) String() string {
	return fmt.Sprintf("%08X-%04X-%04X-%04X-%012X",
		binary.LittleEndian.Uint32(g[0:4]),
		binary.LittleEndian.Uint16(g[4:6]),
		binary.LittleEndian.Uint16(g[6:8]),
		binary.BigEndian.Uint16(g[8:10]),
		g[10:16])
}

// Known track-type GUIDs, per spec. Only the leading 32-bit group is
// documented verbatim in the format description; the remaining bytes
// follow the same DirectMusic-style GUID layout convention.
var (
	GUIDTempo   = GUID{0x85, 0x28, 0xAC, 0xD2, 0x9B, 0xB3, 0xD1, 0x11, 0x87, 0x04, 0x00, 0x60, 0x08, 0x93, 0xB1, 0xA2}
	GUIDTimeSig = GUID{0x88, 0x28, 0xAC, 0xD2, 0x9B, 0xB3, 0xD1, 0x11, 0x87, 0x04, 0x00, 0x60, 0x08, 0x93, 0xB1, 0xA2}
	GUIDWave    = GUID{0x61, 0x64, 0xD3, 0xEE, 0x9B, 0xB3, 0xD1, 0x11, 0x87, 0x04, 0x00, 0x60, 0x08, 0x93, 0xB1, 0xA2}
)

// TrackKind classifies a DMTK track by its trkh GUID.
type TrackKind int

const (
	TrackUnknown TrackKind = iota
	TrackTempo
	TrackTimeSig
	TrackWave
)

func classify(g GUID) (TrackKind, bool) {
	switch g {
	case GUIDTempo:
		return TrackTempo, true
	case GUIDTimeSig:
		return TrackTimeSig, true
	case GUIDWave:
		return TrackWave, true
	default:
		return TrackUnknown, false
	}
}

// Header is the fixed 40-byte segh chunk, decoded little-endian.
type Header struct {
	RepeatCount uint32
	Length      int32
	PlayStart   int32
	LoopStart   int32
	LoopEnd     int32
	Resolution  uint32
	RefLength   int64
	Flags       uint32
	Reserved    uint32
}

// IsRefTime reports whether flags bit 0 (is_ref_time) is set.
func (h Header) IsRefTime() bool { return h.Flags&1 != 0 }

// TrackHeader is the 32-byte trkh chunk.
type TrackHeader struct {
	GUID     GUID
	Position uint32
	Group    uint32
	ChunkID  string // raw FourCC, may be all zero bytes
	ListType string // raw FourCC, may be all zero bytes
}

// Track is one parsed DMTK container: its header plus whatever payload
// bytes followed trkh (the Wave track's payload is the Opus/PCM packet
// stream voice.Decoder consumes).
type Track struct {
	Header  TrackHeader
	Kind    TrackKind
	Payload []byte
}

// Segment is the fully parsed, in-memory view of one DMSG container.
type Segment struct {
	Header Header
	Tracks []Track

	closed bool
}

// Open fully buffers path and parses it as a DMSG container. It follows
// the teacher's (T, bool, error) convention: on success returns
// (segment, true, nil); on failure (nil, false, err). The original
// engine's open_internal returned false even on success — a documented
// bug this implementation does not reproduce.
func Open(path string) (*Segment, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("segment: open %s: %w", path, err)
	}
	seg, err := parse(data)
	if err != nil {
		return nil, false, err
	}
	return seg, true, nil
}

// Close releases the segment's buffers and clears its state. The reader
// is one-shot: a closed Segment must not be reused.
func (s *Segment) Close() error {
	s.Tracks = nil
	s.closed = true
	return nil
}

// reader is a cursor over an in-memory chunk body. Every chunk descent
// creates a sub-reader scoped to exactly that chunk's declared size;
// every exit path (error or not) leaves the parent reader positioned
// immediately after the chunk including its pad byte, matching the
// descend/ascend invariant.
type reader struct {
	r *bytes.Reader
}

func newReader(data []byte) *reader { return &reader{r: bytes.NewReader(data)} }

func (rd *reader) fourCC() (string, error) {
	var b [4]byte
	if _, err := io.ReadFull(rd.r, b[:]); err != nil {
		return "", err
	}
	return string(b[:]), nil
}

func (rd *reader) u32() (uint32, error) {
	var v uint32
	if err := binary.Read(rd.r, binary.LittleEndian, &v); err != nil {
		return 0, err
	}
	return v, nil
}

func (rd *reader) bytesN(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(rd.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (rd *reader) remaining() int { return rd.r.Len() }

// chunkHeader reads one FourCC id plus its 32-bit little-endian size.
func (rd *reader) chunkHeader() (id string, size uint32, err error) {
	id, err = rd.fourCC()
	if err != nil {
		return "", 0, err
	}
	size, err = rd.u32()
	if err != nil {
		return "", 0, err
	}
	return id, size, nil
}

// skipPad consumes the single padding byte RIFF chunks carry when their
// declared size is odd.
func (rd *reader) skipPad(size uint32) error {
	if size%2 == 1 {
		if _, err := rd.bytesN(1); err != nil {
			return err
		}
	}
	return nil
}

func parse(data []byte) (*Segment, error) {
	rd := newReader(data)

	id, _, err := rd.chunkHeader()
	if err != nil {
		return nil, formatErrorf("segment: truncated file, could not read outer RIFF header")
	}
	if id != "RIFF" {
		return nil, formatErrorf("segment: not a RIFF container (got %q)", id)
	}
	formType, err := rd.fourCC()
	if err != nil {
		return nil, formatErrorf("segment: truncated RIFF form type")
	}
	if formType != "DMSG" {
		return nil, formatErrorf("segment: unrecognized container type %q, want DMSG", formType)
	}

	seg := &Segment{}
	sawHeader := false

	for rd.remaining() > 0 {
		cid, csize, err := rd.chunkHeader()
		if err != nil {
			break // trailing slack smaller than a chunk header; not an error
		}
		body, err := rd.bytesN(int(csize))
		if err != nil {
			return nil, formatErrorf("segment: chunk %q declares size %d past end of file", cid, csize)
		}
		if err := rd.skipPad(csize); err != nil {
			return nil, formatErrorf("segment: truncated pad byte after chunk %q", cid)
		}

		switch cid {
		case "segh":
			h, err := parseHeader(body)
			if err != nil {
				return nil, err
			}
			seg.Header = h
			sawHeader = true
		case "LIST":
			tracks, err := parseTrackList(body)
			if err != nil {
				return nil, err
			}
			seg.Tracks = append(seg.Tracks, tracks...)
		default:
			// Unrecognized top-level chunks are ignored; the format is
			// explicitly extensible at this level.
		}
	}

	if !sawHeader {
		return nil, formatErrorf("segment: missing required segh chunk")
	}
	return seg, nil
}

func parseHeader(body []byte) (Header, error) {
	if len(body) < 40 {
		return Header{}, formatErrorf("segment: segh chunk too short: got %d bytes, want 40", len(body))
	}
	r := bytes.NewReader(body[:40])
	var h Header
	fields := []any{&h.RepeatCount, &h.Length, &h.PlayStart, &h.LoopStart, &h.LoopEnd, &h.Resolution, &h.RefLength, &h.Flags, &h.Reserved}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return Header{}, formatErrorf("segment: malformed segh chunk: %v", err)
		}
	}
	return h, nil
}

func parseTrackList(body []byte) ([]Track, error) {
	rd := newReader(body)
	listType, err := rd.fourCC()
	if err != nil {
		return nil, formatErrorf("segment: truncated LIST type")
	}
	if listType != "trkl" {
		// Not the track list; nothing to do with it.
		return nil, nil
	}

	var tracks []Track
	for rd.remaining() > 0 {
		cid, csize, err := rd.chunkHeader()
		if err != nil {
			break
		}
		body, err := rd.bytesN(int(csize))
		if err != nil {
			return nil, formatErrorf("segment: DMTK chunk declares size %d past end of trkl list", csize)
		}
		if err := rd.skipPad(csize); err != nil {
			return nil, formatErrorf("segment: truncated pad byte after track chunk")
		}
		if cid != "RIFF" {
			continue
		}
		track, err := parseTrack(body)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

func parseTrack(body []byte) (Track, error) {
	rd := newReader(body)
	formType, err := rd.fourCC()
	if err != nil {
		return Track{}, formatErrorf("segment: truncated DMTK form type")
	}
	if formType != "DMTK" {
		return Track{}, formatErrorf("segment: track RIFF has wrong form type %q, want DMTK", formType)
	}

	var (
		hdr      TrackHeader
		sawTrkh  bool
		payload  []byte
	)
	for rd.remaining() > 0 {
		cid, csize, err := rd.chunkHeader()
		if err != nil {
			break
		}
		cbody, err := rd.bytesN(int(csize))
		if err != nil {
			return Track{}, formatErrorf("segment: chunk %q in DMTK declares size %d past end", cid, csize)
		}
		if err := rd.skipPad(csize); err != nil {
			return Track{}, formatErrorf("segment: truncated pad byte after %q", cid)
		}

		if cid == "trkh" {
			hdr, err = parseTrackHeader(cbody)
			if err != nil {
				return Track{}, err
			}
			sawTrkh = true
		} else {
			payload = append(payload, cbody...)
		}
	}

	if !sawTrkh {
		return Track{}, formatErrorf("segment: DMTK track missing required trkh chunk")
	}
	if hdr.ChunkID == "\x00\x00\x00\x00" && hdr.ListType == "\x00\x00\x00\x00" {
		return Track{}, formatErrorf("segment: track carries neither chunk_id nor list_type")
	}

	kind, known := classify(hdr.GUID)
	if !known {
		return Track{}, formatErrorf("segment: unknown track GUID %s", hdr.GUID)
	}

	return Track{Header: hdr, Kind: kind, Payload: payload}, nil
}

func parseTrackHeader(body []byte) (TrackHeader, error) {
	if len(body) < 32 {
		return TrackHeader{}, formatErrorf("segment: trkh chunk too short: got %d bytes, want 32", len(body))
	}
	var guid GUID
	copy(guid[:], body[0:16])
	position := binary.LittleEndian.Uint32(body[16:20])
	group := binary.LittleEndian.Uint32(body[20:24])
	chunkID := string(body[24:28])
	listType := string(body[28:32])
	return TrackHeader{GUID: guid, Position: position, Group: group, ChunkID: chunkID, ListType: listType}, nil
}
