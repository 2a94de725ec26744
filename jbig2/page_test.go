package jbig2

import "testing"

func TestParsePageInformation(t *testing.T) {
	data := []byte{
		0, 0, 0, 100, // width
		0, 0, 0, 50, // height
		0, 0, 0, 0, // x resolution
		0, 0, 0, 0, // y resolution
		0x05,       // flags: lossless (bit0) + default pixel (bit2)
		0x80, 0x10, // striping: striped (bit15) + max stripe size 16
	}
	info, err := parsePageInformation(data)
	if err != nil {
		t.Fatalf("parsePageInformation: %v", err)
	}
	if info.Width != 100 || info.Height != 50 {
		t.Errorf("size = %dx%d, want 100x50", info.Width, info.Height)
	}
	if !info.IsLossless {
		t.Error("IsLossless = false, want true")
	}
	if info.DefaultPixelValue != 1 {
		t.Errorf("DefaultPixelValue = %d, want 1", info.DefaultPixelValue)
	}
	if !info.Striped || info.MaxStripeSize != 16 {
		t.Errorf("Striped = %v, MaxStripeSize = %d, want true, 16", info.Striped, info.MaxStripeSize)
	}
}

func TestScanStripeHeight(t *testing.T) {
	segments := []*Segment{
		{Header: &SegmentHeader{Type: SegmentEndOfStripe}, Data: []byte{0, 0, 0, 9}},
		{Header: &SegmentHeader{Type: SegmentEndOfStripe}, Data: []byte{0, 0, 0, 19}},
	}
	height, ok := scanStripeHeight(segments)
	if !ok {
		t.Fatal("expected scanStripeHeight to find a result")
	}
	if height != 20 {
		t.Errorf("height = %d, want 20", height)
	}
}

func TestDecodeContextStores(t *testing.T) {
	ctx := &decodeContext{standardTables: NewStandardHuffmanTables()}

	bm := NewBitmap(1, 1)
	ctx.storeRegion(5, bm, 0, 0)
	if ctx.getRegion(5) != bm {
		t.Error("getRegion(5) did not return the stored bitmap")
	}
	if ctx.getRegion(6) != nil {
		t.Error("getRegion(6) should be nil for an unstored segment number")
	}

	dict := &PatternDictionary{}
	ctx.storePatternDictionary(3, dict)
	if ctx.getPatternDictionary(3) != dict {
		t.Error("getPatternDictionary(3) did not return the stored dictionary")
	}

	sym := &SymbolDictionary{}
	ctx.storeSymbolDictionary(7, sym)
	if ctx.getSymbolDictionary(7) != sym {
		t.Error("getSymbolDictionary(7) did not return the stored dictionary")
	}

	tbl := &HuffmanTable{}
	ctx.storeHuffmanTable(2, tbl)
	if ctx.getHuffmanTable(2) != tbl {
		t.Error("getHuffmanTable(2) did not return the stored table")
	}
}

// TestDecodeWithSegmentsComposesGenericRegion builds a minimal page
// (16x2, default pixel 1) and an immediate generic region (8x2, MMR,
// AND-composited at the origin) using the same all-white Group 4 bitplane
// bytes exercised elsewhere, and checks the region's footprint is ANDed
// down to 0 while the rest of the page keeps its default pixel value.
func TestDecodeWithSegmentsComposesGenericRegion(t *testing.T) {
	pageInfoData := []byte{
		0, 0, 0, 16, // width
		0, 0, 0, 2, // height
		0, 0, 0, 0, // x resolution
		0, 0, 0, 0, // y resolution
		0x04,       // flags: default pixel = 1
		0x00, 0x00, // striping: not striped
	}

	regionData := []byte{
		0, 0, 0, 8, // region width
		0, 0, 0, 2, // region height
		0, 0, 0, 0, // region x
		0, 0, 0, 0, // region y
		0x01,                   // region flags: combop = AND
		0x01,                   // generic region flags: MMR = 1
		0xC0, 0x04, 0x00, 0x40, // MMR: two all-white 8-pixel rows + EOFB
	}

	segments := []*Segment{
		{
			Header: &SegmentHeader{Number: 1, Type: SegmentPageInformation, PageAssociation: 1, DataLength: int64(len(pageInfoData))},
			Data:   pageInfoData,
		},
		{
			Header: &SegmentHeader{Number: 2, Type: SegmentImmediateGenericRegion, PageAssociation: 1, DataLength: int64(len(regionData))},
			Data:   regionData,
		},
	}

	page, err := decodeWithSegments(segments)
	if err != nil {
		t.Fatalf("decodeWithSegments: %v", err)
	}
	if page.Width != 16 || page.Height != 2 {
		t.Fatalf("page size = %dx%d, want 16x2", page.Width, page.Height)
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 16; x++ {
			want := uint8(1)
			if x < 8 {
				want = 0
			}
			if got := page.GetPixel(x, y); got != want {
				t.Errorf("pixel (%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
}
