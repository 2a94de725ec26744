package jbig2

import "testing"

func TestHasFileHeader(t *testing.T) {
	valid := append([]byte{0x97, 0x4A, 0x42, 0x32, 0x0D, 0x0A, 0x1A, 0x0A}, 0x00)
	if !hasFileHeader(valid) {
		t.Error("expected hasFileHeader(valid) == true")
	}
	if hasFileHeader([]byte{0x97, 0x4A}) {
		t.Error("expected hasFileHeader(short) == false")
	}
	if hasFileHeader([]byte{0, 0, 0, 0, 0, 0, 0, 0, 0}) {
		t.Error("expected hasFileHeader(wrong magic) == false")
	}
}

func TestStripFileHeaderSequentialDefault(t *testing.T) {
	data := []byte{
		0x97, 0x4A, 0x42, 0x32, 0x0D, 0x0A, 0x1A, 0x0A, // magic
		0x00,                   // flags: known page count, sequential
		0x00, 0x00, 0x00, 0x01, // 1 page
		0xAB, 0xCD, // remaining segment data
	}
	rest, flags, err := stripFileHeader(data)
	if err != nil {
		t.Fatalf("stripFileHeader: %v", err)
	}
	if flags.unknownPageCount || flags.randomAccess {
		t.Errorf("flags = %+v, want both false", flags)
	}
	if len(rest) != 2 || rest[0] != 0xAB || rest[1] != 0xCD {
		t.Errorf("rest = %v, want [0xAB 0xCD]", rest)
	}
}

func TestStripFileHeaderUnknownPageCountSkipsField(t *testing.T) {
	data := []byte{
		0x97, 0x4A, 0x42, 0x32, 0x0D, 0x0A, 0x1A, 0x0A,
		0x03, // flags: unknown page count (bit0) + random access (bit1)
		0xAB,
	}
	rest, flags, err := stripFileHeader(data)
	if err != nil {
		t.Fatalf("stripFileHeader: %v", err)
	}
	if !flags.unknownPageCount || !flags.randomAccess {
		t.Errorf("flags = %+v, want both true", flags)
	}
	if len(rest) != 1 || rest[0] != 0xAB {
		t.Errorf("rest = %v, want [0xAB]", rest)
	}
}

func TestStripFileHeaderNoHeaderIsPassthrough(t *testing.T) {
	data := []byte{0x00, 0x00, 0x00, 0x01, 0x33}
	rest, flags, err := stripFileHeader(data)
	if err != nil {
		t.Fatalf("stripFileHeader: %v", err)
	}
	if flags.unknownPageCount || flags.randomAccess {
		t.Errorf("flags = %+v, want both false for header-less data", flags)
	}
	if len(rest) != len(data) {
		t.Errorf("rest = %v, want unchanged %v", rest, data)
	}
}

// endOfFileSegmentHeader builds a minimal segment header for an EndOfFile
// segment with the given number and data length.
func endOfFileSegmentHeader(number uint32, dataLength uint32) []byte {
	n := []byte{byte(number >> 24), byte(number >> 16), byte(number >> 8), byte(number)}
	l := []byte{byte(dataLength >> 24), byte(dataLength >> 16), byte(dataLength >> 8), byte(dataLength)}
	return append(append(append([]byte{}, n...), 0x33, 0x00, 0x01), l...)
}

func TestParseSegmentsSequentialStopsAtEndOfFile(t *testing.T) {
	data := append(endOfFileSegmentHeader(1, 0), 0xFF, 0xFF) // trailing garbage
	segments, err := parseSegmentsSequential(data)
	if err != nil {
		t.Fatalf("parseSegmentsSequential: %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	if segments[0].Header.Type != SegmentEndOfFile {
		t.Errorf("Type = %v, want EndOfFile", segments[0].Header.Type)
	}
}

func TestParseSegmentsRandomAccess(t *testing.T) {
	header1 := func() []byte {
		return append([]byte{0, 0, 0, 1, 0x34, 0x00, 0x01}, 0, 0, 0, 2)
	}()
	header2 := endOfFileSegmentHeader(2, 0)

	data := append(append(append([]byte{}, header1...), header2...), 0xAA, 0xBB)

	segments, err := parseSegmentsRandomAccess(data)
	if err != nil {
		t.Fatalf("parseSegmentsRandomAccess: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].Header.Type != SegmentProfiles {
		t.Errorf("segment 0 type = %v, want Profiles", segments[0].Header.Type)
	}
	if len(segments[0].Data) != 2 || segments[0].Data[0] != 0xAA || segments[0].Data[1] != 0xBB {
		t.Errorf("segment 0 data = %v, want [0xAA 0xBB]", segments[0].Data)
	}
	if segments[1].Header.Type != SegmentEndOfFile {
		t.Errorf("segment 1 type = %v, want EndOfFile", segments[1].Header.Type)
	}
	if len(segments[1].Data) != 0 {
		t.Errorf("segment 1 data = %v, want empty", segments[1].Data)
	}
}
