package jbig2

import "testing"

func TestParseHalftoneRegionFlags(t *testing.T) {
	// HMMR=1, HTEMPLATE=1 (bits 1-2 = 01), HENABLESKIP=1, HCOMBOP=AND(1),
	// HDEFPIXEL=1: 1_001_1_01_1 = 0x9B
	flags := parseHalftoneRegionFlags(0x9B)
	if !flags.mmr {
		t.Error("mmr = false, want true")
	}
	if flags.template != Template1 {
		t.Errorf("template = %v, want Template1", flags.template)
	}
	if !flags.enableSkip {
		t.Error("enableSkip = false, want true")
	}
	if flags.combOp != CombAnd {
		t.Errorf("combOp = %v, want CombAnd", flags.combOp)
	}
	if flags.defaultPixel != 1 {
		t.Errorf("defaultPixel = %d, want 1", flags.defaultPixel)
	}
}

func TestApplyGrayscalePlane(t *testing.T) {
	grayscale := make([]uint32, 4)
	plane := NewBitmap(2, 2)
	plane.SetPixel(0, 0, 1)
	plane.SetPixel(1, 1, 1)

	applyGrayscalePlane(grayscale, plane, 2, 2)

	want := []uint32{1, 0, 0, 1}
	for i, g := range grayscale {
		if g != want[i] {
			t.Errorf("grayscale[%d] = %d, want %d", i, g, want[i])
		}
	}
}

// TestDecodeHalftoneRegionMMR places a single fully-black 2x2 pattern
// across an 8x2 grid of cells (HGW=8, HGH=2) using the same all-white MMR
// bitplane stream the mmr package's own tests use; since every cell
// selects pattern index 0 and the pattern fills entirely, the whole region
// bitmap should end up entirely set.
func TestDecodeHalftoneRegionMMR(t *testing.T) {
	pattern := NewBitmap(2, 2)
	pattern.Fill(1)
	patterns := &PatternDictionary{Patterns: []*Bitmap{pattern}}

	data := []byte{
		// region segment info (17 bytes)
		0, 0, 0, 16, // width = 16
		0, 0, 0, 4, // height = 4
		0, 0, 0, 0, // x = 0
		0, 0, 0, 0, // y = 0
		0x00, // region flags (combop = OR)

		0x01, // halftone flags: HMMR=1

		0, 0, 0, 8, // HGW = 8
		0, 0, 0, 2, // HGH = 2
		0, 0, 0, 0, // HGX = 0
		0, 0, 0, 0, // HGY = 0
		0x02, 0x00, // HRX = 512 (2 << 8, pattern width 2)
		0x00, 0x00, // HRY = 0

		0xC0, 0x04, 0x00, 0x40, // MMR: one all-white 8x2 bitplane + EOFB
	}

	region, err := decodeHalftoneRegion(newReader(data), patterns)
	if err != nil {
		t.Fatalf("decodeHalftoneRegion: %v", err)
	}
	if region.Bitmap.Width != 16 || region.Bitmap.Height != 4 {
		t.Fatalf("region size = %dx%d, want 16x4", region.Bitmap.Width, region.Bitmap.Height)
	}
	for y := 0; y < region.Bitmap.Height; y++ {
		for x := 0; x < region.Bitmap.Width; x++ {
			if region.Bitmap.GetPixel(x, y) != 1 {
				t.Errorf("pixel (%d,%d) = 0, want 1", x, y)
			}
		}
	}
}
