package jbig2

import "testing"

// recordingDecoder is a Decoder that records every pixel it receives as a
// slice of rows, used to check Image.Decode's byte-to-pixel expansion.
type recordingDecoder struct {
	rows [][]bool
	cur  []bool
}

func (r *recordingDecoder) PushPixel(black bool) {
	r.cur = append(r.cur, black)
}

func (r *recordingDecoder) PushPixelChunk(black bool, count uint32) {
	for i := uint32(0); i < count; i++ {
		r.cur = append(r.cur, black)
	}
}

func (r *recordingDecoder) NextLine() {
	r.rows = append(r.rows, r.cur)
	r.cur = nil
}

func TestImageDecodePixelExpansion(t *testing.T) {
	// 10-pixel-wide, 2-row bitmap: row 0 all black, row 1 a full byte of
	// black followed by a 2-pixel white tail.
	bm := NewBitmap(10, 2)
	bm.Fill(1)
	for x := 8; x < 10; x++ {
		bm.SetPixel(x, 1, 0)
	}

	img := &Image{Bitmap: bm}
	if img.Width() != 10 || img.Height() != 2 {
		t.Fatalf("Width/Height = %d/%d, want 10/2", img.Width(), img.Height())
	}

	sink := &recordingDecoder{}
	img.Decode(sink)

	if len(sink.rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(sink.rows))
	}
	for i, black := range sink.rows[0] {
		if !black {
			t.Errorf("row 0 pixel %d = white, want black", i)
		}
	}
	want := []bool{true, true, true, true, true, true, true, true, false, false}
	for i, black := range sink.rows[1] {
		if black != want[i] {
			t.Errorf("row 1 pixel %d = %v, want %v", i, black, want[i])
		}
	}
}

// TestDecodeSequential exercises the top-level Decode entry point against a
// standalone-file-header-free sequential stream (page info + immediate
// generic region), mirroring TestDecodeWithSegmentsComposesGenericRegion's
// byte layout but driven through segment parsing instead of hand-built
// Segment values.
func TestDecodeSequential(t *testing.T) {
	pageInfoData := []byte{
		0, 0, 0, 8, // width
		0, 0, 0, 2, // height
		0, 0, 0, 0, // x resolution
		0, 0, 0, 0, // y resolution
		0x00,       // flags: default pixel = 0
		0x00, 0x00, // striping: not striped
	}
	regionData := []byte{
		0, 0, 0, 8, // region width
		0, 0, 0, 2, // region height
		0, 0, 0, 0, // region x
		0, 0, 0, 0, // region y
		0x00,                   // region flags: combop = OR
		0x01,                   // generic region flags: MMR = 1
		0xC0, 0x04, 0x00, 0x40, // MMR: two all-white 8-pixel rows + EOFB
	}

	pageInfoHeader := segmentHeaderBytes(1, SegmentPageInformation, uint32(len(pageInfoData)))
	regionHeader := segmentHeaderBytes(2, SegmentImmediateGenericRegion, uint32(len(regionData)))
	eofHeader := endOfFileSegmentHeader(3, 0)

	var data []byte
	data = append(data, pageInfoHeader...)
	data = append(data, pageInfoData...)
	data = append(data, regionHeader...)
	data = append(data, regionData...)
	data = append(data, eofHeader...)

	img, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.Width() != 8 || img.Height() != 2 {
		t.Fatalf("size = %dx%d, want 8x2", img.Width(), img.Height())
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 8; x++ {
			if got := img.Bitmap.GetPixel(x, y); got != 0 {
				t.Errorf("pixel (%d,%d) = %d, want 0", x, y, got)
			}
		}
	}
}

// segmentHeaderBytes builds a minimal short-form segment header (no
// referred-to segments) with the given number, type and data length.
func segmentHeaderBytes(number uint32, typ SegmentType, dataLength uint32) []byte {
	n := []byte{byte(number >> 24), byte(number >> 16), byte(number >> 8), byte(number)}
	l := []byte{byte(dataLength >> 24), byte(dataLength >> 16), byte(dataLength >> 8), byte(dataLength)}
	return append(append(append([]byte{}, n...), byte(typ), 0x00, 0x01), l...)
}
