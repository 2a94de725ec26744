package jbig2

import "testing"

// TestDecodeGenericRegionArithmeticTemplate3AllZero exercises the
// arithmetic-coded path of decodeGenericRegion for template 3 with a
// single fixed AT pixel: the encoded bytes drive every context to its
// fresh MPS state, so every pixel decodes to 0.
func TestDecodeGenericRegionArithmeticTemplate3AllZero(t *testing.T) {
	data := []byte{
		0, 0, 0, 4, // region width
		0, 0, 0, 4, // region height
		0, 0, 0, 0, // region x
		0, 0, 0, 0, // region y
		0x00,       // region flags: combop = OR
		0x06,       // generic region flags: MMR=0, template=3, TPGDON=0
		0xFE, 0x00, // AT pixel (-2, 0)
		0x88, 0x36, // arithmetic-coded data
	}

	region, err := decodeGenericRegion(newReader(data), false)
	if err != nil {
		t.Fatalf("decodeGenericRegion: %v", err)
	}
	if region.Bitmap.Width != 4 || region.Bitmap.Height != 4 {
		t.Fatalf("size = %dx%d, want 4x4", region.Bitmap.Width, region.Bitmap.Height)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got := region.Bitmap.GetPixel(x, y); got != 0 {
				t.Errorf("pixel (%d,%d) = %d, want 0", x, y, got)
			}
		}
	}
}

// TestDecodeGenericRegionUnknownLengthRowCount exercises the
// hadUnknownLength branch: the declared region height (4) is overridden by
// the 4-byte row count trailing the MMR-coded data (2), and only that many
// rows are decoded.
func TestDecodeGenericRegionUnknownLengthRowCount(t *testing.T) {
	data := []byte{
		0, 0, 0, 8, // region width
		0, 0, 0, 4, // region height (declared, overridden below)
		0, 0, 0, 0, // region x
		0, 0, 0, 0, // region y
		0x00,                   // region flags: combop = OR
		0x01,                   // generic region flags: MMR=1
		0xC0, 0x04, 0x00, 0x40, // MMR: two all-white 8-pixel rows + EOFB
		0, 0, 0, 2, // trailing row count
	}

	region, err := decodeGenericRegion(newReader(data), true)
	if err != nil {
		t.Fatalf("decodeGenericRegion: %v", err)
	}
	if region.Bitmap.Height != 2 {
		t.Fatalf("height = %d, want 2 (row count from trailer, not declared height)", region.Bitmap.Height)
	}
	if region.Bitmap.Width != 8 {
		t.Fatalf("width = %d, want 8", region.Bitmap.Width)
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 8; x++ {
			if got := region.Bitmap.GetPixel(x, y); got != 0 {
				t.Errorf("pixel (%d,%d) = %d, want 0", x, y, got)
			}
		}
	}
}

// TestDecodeGenericRegionUnknownLengthRowCountExceedsHeight rejects a
// trailer row count greater than the declared height rather than silently
// truncating or growing the bitmap.
func TestDecodeGenericRegionUnknownLengthRowCountExceedsHeight(t *testing.T) {
	data := []byte{
		0, 0, 0, 8, // region width
		0, 0, 0, 1, // region height (declared)
		0, 0, 0, 0, // region x
		0, 0, 0, 0, // region y
		0x00,
		0x01,
		0xC0, 0x04, 0x00, 0x40,
		0, 0, 0, 2, // trailer claims 2 rows, more than the declared 1
	}

	if _, err := decodeGenericRegion(newReader(data), true); err == nil {
		t.Fatal("decodeGenericRegion: expected error for row count exceeding declared height")
	}
}
