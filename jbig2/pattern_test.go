package jbig2

import "testing"

// TestDecodePatternDictionaryMMR builds a pattern dictionary segment whose
// collective bitmap is encoded with the same all-white Group 4 stream used
// by mmr's own tests (two 8-pixel rows via V0, V0, terminated by EOFB),
// and checks it is split into GRAYMAX+1 equal tiles.
func TestDecodePatternDictionaryMMR(t *testing.T) {
	data := []byte{
		0x01,       // flags: MMR=1, template=0
		0x04,       // HDPW = 4
		0x02,       // HDPH = 2
		0, 0, 0, 1, // GRAYMAX = 1 (2 patterns)
		0xC0, 0x04, 0x00, 0x40, // MMR: two all-white 8-pixel rows + EOFB
	}

	dict, err := decodePatternDictionary(data)
	if err != nil {
		t.Fatalf("decodePatternDictionary: %v", err)
	}
	if len(dict.Patterns) != 2 {
		t.Fatalf("expected 2 patterns, got %d", len(dict.Patterns))
	}
	for i, p := range dict.Patterns {
		if p.Width != 4 || p.Height != 2 {
			t.Errorf("pattern %d: size = %dx%d, want 4x2", i, p.Width, p.Height)
		}
		for y := 0; y < p.Height; y++ {
			for x := 0; x < p.Width; x++ {
				// MMR "white" (1) is inverted to JBIG2 pixel 0 at the sink
				// boundary, so an all-white collective bitmap decodes to 0.
				if p.GetPixel(x, y) != 0 {
					t.Errorf("pattern %d pixel (%d,%d) = 1, want 0", i, x, y)
				}
			}
		}
	}
}

func TestDecodePatternDictionaryRejectsZeroSize(t *testing.T) {
	data := []byte{
		0x01,       // MMR
		0x00,       // HDPW = 0
		0x02,       // HDPH = 2
		0, 0, 0, 0,
	}
	if _, err := decodePatternDictionary(data); err == nil {
		t.Fatal("expected an error for a zero-width pattern")
	}
}

func TestParsePatternDictionaryFlags(t *testing.T) {
	flags := parsePatternDictionaryFlags(0x05) // MMR=1, template=2 (bits 1-2 = 10)
	if !flags.mmr {
		t.Error("mmr = false, want true")
	}
	if flags.template != Template2 {
		t.Errorf("template = %v, want Template2", flags.template)
	}
}
