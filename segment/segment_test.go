package segment

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func appendChunk(buf *bytes.Buffer, id string, body []byte) {
	buf.WriteString(id)
	var sz [4]byte
	binary.LittleEndian.PutUint32(sz[:], uint32(len(body)))
	buf.Write(sz[:])
	buf.Write(body)
	if len(body)%2 == 1 {
		buf.WriteByte(0)
	}
}

func seghBody() []byte {
	buf := new(bytes.Buffer)
	for _, v := range []any{
		uint32(3),   // repeat_count
		int32(1000), // length
		int32(0),    // play_start
		int32(100),  // loop_start
		int32(900),  // loop_end
		uint32(480), // resolution
		int64(5000), // ref_length
		uint32(1),   // flags: is_ref_time
		uint32(0),   // reserved
	} {
		binary.Write(buf, binary.LittleEndian, v)
	}
	return buf.Bytes()
}

func trkhBody(guid GUID, chunkID, listType string) []byte {
	buf := new(bytes.Buffer)
	buf.Write(guid[:])
	var pos, group [4]byte
	binary.LittleEndian.PutUint32(pos[:], 0)
	binary.LittleEndian.PutUint32(group[:], 1)
	buf.Write(pos[:])
	buf.Write(group[:])
	buf.WriteString(chunkID)
	buf.WriteString(listType)
	return buf.Bytes()
}

func dmtkTrack(guid GUID, chunkID, listType string) []byte {
	inner := new(bytes.Buffer)
	inner.WriteString("DMTK")
	appendChunk(inner, "trkh", trkhBody(guid, chunkID, listType))
	return inner.Bytes()
}

// buildDMSG assembles a full DMSG container from a segh body and zero or
// more already-framed DMTK track bodies (as produced by dmtkTrack).
func buildDMSG(t *testing.T, segh []byte, tracks ...[]byte) []byte {
	t.Helper()
	trkl := new(bytes.Buffer)
	trkl.WriteString("trkl")
	for _, tr := range tracks {
		appendChunk(trkl, "RIFF", tr)
	}

	outer := new(bytes.Buffer)
	outer.WriteString("DMSG")
	appendChunk(outer, "segh", segh)
	if len(tracks) > 0 {
		appendChunk(outer, "LIST", trkl.Bytes())
	}

	full := new(bytes.Buffer)
	appendChunk(full, "RIFF", outer.Bytes())
	return full.Bytes()
}

func writeTempFile(t *testing.T, data []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.dmsg")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestOpenMinimalSeghOnly(t *testing.T) {
	data := buildDMSG(t, seghBody())
	path := writeTempFile(t, data)

	seg, ok, err := Open(path)
	if err != nil || !ok {
		t.Fatalf("Open: ok=%v err=%v", ok, err)
	}
	defer seg.Close()

	if seg.Header.RepeatCount != 3 {
		t.Fatalf("RepeatCount: got %d, want 3", seg.Header.RepeatCount)
	}
	if seg.Header.Length != 1000 {
		t.Fatalf("Length: got %d, want 1000", seg.Header.Length)
	}
	if seg.Header.LoopStart != 100 || seg.Header.LoopEnd != 900 {
		t.Fatalf("loop bounds: got [%d,%d]", seg.Header.LoopStart, seg.Header.LoopEnd)
	}
	if !seg.Header.IsRefTime() {
		t.Fatalf("expected is_ref_time flag set")
	}
	if len(seg.Tracks) != 0 {
		t.Fatalf("expected no tracks, got %d", len(seg.Tracks))
	}
}

func TestOpenSeghPlusTempoTrack(t *testing.T) {
	track := dmtkTrack(GUIDTempo, "tpth", "\x00\x00\x00\x00")
	data := buildDMSG(t, seghBody(), track)
	path := writeTempFile(t, data)

	seg, ok, err := Open(path)
	if err != nil || !ok {
		t.Fatalf("Open: ok=%v err=%v", ok, err)
	}
	defer seg.Close()

	if len(seg.Tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(seg.Tracks))
	}
	if seg.Tracks[0].Kind != TrackTempo {
		t.Fatalf("expected TrackTempo, got %v", seg.Tracks[0].Kind)
	}
	if seg.Tracks[0].Header.ChunkID != "tpth" {
		t.Fatalf("ChunkID: got %q", seg.Tracks[0].Header.ChunkID)
	}
}

func TestOpenRejectsUnknownGUID(t *testing.T) {
	var bogus GUID
	copy(bogus[:], []byte("0123456789ABCDEF"))
	track := dmtkTrack(bogus, "xxxx", "\x00\x00\x00\x00")
	data := buildDMSG(t, seghBody(), track)
	path := writeTempFile(t, data)

	_, ok, err := Open(path)
	if ok || err == nil {
		t.Fatalf("expected failure for unknown track GUID, got ok=%v err=%v", ok, err)
	}
	var fe *FormatError
	if _, isFormatError := err.(*FormatError); !isFormatError {
		t.Fatalf("expected *FormatError, got %T", err)
	}
	_ = fe
}

func TestOpenRejectsTrackWithNoChunkIDOrListType(t *testing.T) {
	track := dmtkTrack(GUIDWave, "\x00\x00\x00\x00", "\x00\x00\x00\x00")
	data := buildDMSG(t, seghBody(), track)
	path := writeTempFile(t, data)

	_, ok, err := Open(path)
	if ok || err == nil {
		t.Fatalf("expected failure for track with neither chunk_id nor list_type")
	}
}

func TestOpenRejectsWrongFormType(t *testing.T) {
	outer := new(bytes.Buffer)
	outer.WriteString("WAVE")
	appendChunk(outer, "segh", seghBody())

	full := new(bytes.Buffer)
	appendChunk(full, "RIFF", outer.Bytes())

	path := writeTempFile(t, full.Bytes())
	_, ok, err := Open(path)
	if ok || err == nil {
		t.Fatalf("expected failure for non-DMSG form type")
	}
}

func TestOpenRejectsMissingSegh(t *testing.T) {
	outer := new(bytes.Buffer)
	outer.WriteString("DMSG")

	full := new(bytes.Buffer)
	appendChunk(full, "RIFF", outer.Bytes())

	path := writeTempFile(t, full.Bytes())
	_, ok, err := Open(path)
	if ok || err == nil {
		t.Fatalf("expected failure for missing segh chunk")
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, ok, err := Open(filepath.Join(t.TempDir(), "does-not-exist.dmsg"))
	if ok || err == nil {
		t.Fatalf("expected failure opening a nonexistent file")
	}
}

func TestOpenMultipleTracks(t *testing.T) {
	tempo := dmtkTrack(GUIDTempo, "tpth", "\x00\x00\x00\x00")
	wave := dmtkTrack(GUIDWave, "\x00\x00\x00\x00", "wavl")
	data := buildDMSG(t, seghBody(), tempo, wave)
	path := writeTempFile(t, data)

	seg, ok, err := Open(path)
	if err != nil || !ok {
		t.Fatalf("Open: ok=%v err=%v", ok, err)
	}
	defer seg.Close()

	if len(seg.Tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(seg.Tracks))
	}
	if seg.Tracks[1].Kind != TrackWave {
		t.Fatalf("expected second track to be TrackWave, got %v", seg.Tracks[1].Kind)
	}
}

func TestGUIDString(t *testing.T) {
	s := GUIDTempo.String()
	if s == "" {
		t.Fatalf("expected non-empty GUID string")
	}
}
