package jbig2

import "testing"

// TestDecodeTextRegionBitmapTopLeftPlacement exercises decodeTextRegionBitmap
// directly: a single 2x2 symbol placed repeatedly in one strip with
// REFCORNER = top-left, driven entirely by IADT/IAFS/IADS/IAID arithmetic
// decoding (symCodeLen is 0 since there is only one symbol, so IAID
// consumes no bits). A strip ends only when IADS decodes OOB, so this
// stream places the symbol twelve times although numInstances is 3; three
// of those placements lie wholly left of the region.
func TestDecodeTextRegionBitmapTopLeftPlacement(t *testing.T) {
	sym := NewBitmap(2, 2)
	sym.SetPixel(0, 0, 1)
	sym.SetPixel(1, 1, 1)

	data := []byte{0x7E, 0xE5, 0xC1, 0x06, 0x97, 0x75}

	params := &textRegionParams{
		width:        16,
		height:       8,
		combOp:       CombOr,
		refCorner:    refCornerTopLeft,
		logStripSize: 0,
		dsOffset:     0,
		numInstances: 3,
		symbols:      []*Bitmap{sym},
		symCodeLen:   0,
	}
	state := newTextRegionState(NewArithmeticDecoder(data), 0, RefinementTemplate0)

	bitmap, err := decodeTextRegionBitmap(params, state, newReader(nil))
	if err != nil {
		t.Fatalf("decodeTextRegionBitmap: %v", err)
	}

	want := [][]uint8{
		{0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 0, 1, 1, 1, 0, 0},
		{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 0, 1, 1, 1, 0},
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			var w uint8
			if y < len(want) {
				w = want[y][x]
			}
			if got := bitmap.GetPixel(x, y); got != w {
				t.Errorf("pixel (%d,%d) = %d, want %d", x, y, got, w)
			}
		}
	}
}
