package jbig2

import (
	"reflect"
	"testing"
)

// TestParseSegmentHeaderExample1 ports ITU-T T.88 7.2.8 Example 1 (a
// six-byte referred-to-count short form, one-byte page association).
func TestParseSegmentHeaderExample1(t *testing.T) {
	data := []byte{
		0x00, 0x00, 0x00, 0x20, // segment number = 32
		0x86,                   // type 6, page assoc 1 byte, deferred non-retain
		0x6B,                   // refers to 3 segments
		0x02, 0x1E, 0x05,       // referred segments 2, 30, 5
		0x04,                   // page association = 4
		0x00, 0x00, 0x00, 0x10, // data length = 16
	}

	header, err := parseSegmentHeader(newReader(data))
	if err != nil {
		t.Fatalf("parseSegmentHeader: %v", err)
	}

	if header.Number != 32 {
		t.Errorf("Number = %d, want 32", header.Number)
	}
	if header.Type != SegmentImmediateTextRegion {
		t.Errorf("Type = %v, want ImmediateTextRegion", header.Type)
	}
	if header.RetainFlag {
		t.Errorf("RetainFlag = true, want false")
	}
	if !reflect.DeepEqual(header.ReferredSegments, []uint32{2, 30, 5}) {
		t.Errorf("ReferredSegments = %v, want [2 30 5]", header.ReferredSegments)
	}
	if header.PageAssociation != 4 {
		t.Errorf("PageAssociation = %d, want 4", header.PageAssociation)
	}
	if header.DataLength != 16 {
		t.Errorf("DataLength = %d, want 16", header.DataLength)
	}
}

// TestParseSegmentHeaderExample2 ports ITU-T T.88 7.2.8 Example 2 (the
// long referred-to-count form, two-byte referred segment numbers, a
// four-byte page association).
func TestParseSegmentHeaderExample2(t *testing.T) {
	data := []byte{
		0x00, 0x00, 0x02, 0x34, // segment number = 564
		0x40,                   // type 0, page assoc 4 bytes
		0xE0, 0x00, 0x00, 0x09, // long form: refers to 9 segments
		0x02, 0xFD, // retention flags (2 bytes)
		0x01, 0x00, // referred segment 256
		0x00, 0x02, // referred segment 2
		0x00, 0x1E, // referred segment 30
		0x00, 0x05, // referred segment 5
		0x02, 0x00, // referred segment 512
		0x02, 0x01, // referred segment 513
		0x02, 0x02, // referred segment 514
		0x02, 0x03, // referred segment 515
		0x02, 0x04, // referred segment 516
		0x00, 0x00, 0x04, 0x01, // page association = 1025
		0x00, 0x00, 0x00, 0x20, // data length = 32
	}

	header, err := parseSegmentHeader(newReader(data))
	if err != nil {
		t.Fatalf("parseSegmentHeader: %v", err)
	}

	if header.Number != 564 {
		t.Errorf("Number = %d, want 564", header.Number)
	}
	if header.Type != SegmentSymbolDictionary {
		t.Errorf("Type = %v, want SymbolDictionary", header.Type)
	}
	if !header.RetainFlag {
		t.Errorf("RetainFlag = false, want true")
	}
	want := []uint32{256, 2, 30, 5, 512, 513, 514, 515, 516}
	if !reflect.DeepEqual(header.ReferredSegments, want) {
		t.Errorf("ReferredSegments = %v, want %v", header.ReferredSegments, want)
	}
	if header.PageAssociation != 1025 {
		t.Errorf("PageAssociation = %d, want 1025", header.PageAssociation)
	}
	if header.DataLength != 32 {
		t.Errorf("DataLength = %d, want 32", header.DataLength)
	}
}

func TestParseSegmentHeaderRejectsForwardReference(t *testing.T) {
	data := []byte{
		0x00, 0x00, 0x00, 0x05, // segment number = 5
		0x00,                   // type 0, page assoc 1 byte
		0x21,                   // refers to 1 segment
		0x0A,                   // referred segment 10 (>= 5, invalid)
		0x01,                   // page association = 1
		0x00, 0x00, 0x00, 0x00, // data length = 0
	}

	if _, err := parseSegmentHeader(newReader(data)); err == nil {
		t.Fatal("expected an error for a forward reference, got nil")
	}
}

func TestParseSegmentHeaderUnknownDataLength(t *testing.T) {
	data := []byte{
		0x00, 0x00, 0x00, 0x01, // segment number = 1
		0x26,                   // type 38 (immediate generic region)
		0x00,                   // no referred-to segments
		0x01,                   // page association = 1
		0xFF, 0xFF, 0xFF, 0xFF, // data length = unknown
	}

	header, err := parseSegmentHeader(newReader(data))
	if err != nil {
		t.Fatalf("parseSegmentHeader: %v", err)
	}
	if header.lengthKnown() {
		t.Errorf("expected lengthKnown() == false for 0xFFFFFFFF")
	}
}
