package jbig2

// patternDictionaryFlags is the 1-byte flags field of a pattern dictionary
// segment (7.4.4.1.1): MMR (bit 0) and HDTEMPLATE (bits 1-2).
type patternDictionaryFlags struct {
	mmr      bool
	template Template
}

func parsePatternDictionaryFlags(b byte) patternDictionaryFlags {
	return patternDictionaryFlags{
		mmr:      b&0x01 != 0,
		template: templateFromByte(b >> 1),
	}
}

// PatternDictionary is a decoded pattern dictionary segment: GRAYMAX+1
// pattern bitmaps of uniform size HDPW x HDPH (6.7).
type PatternDictionary struct {
	Patterns []*Bitmap
}

// decodePatternDictionary implements 6.7: the patterns are decoded as a
// single collective generic-region bitmap of width (GRAYMAX+1)*HDPW and
// height HDPH, then split into GRAYMAX+1 equal-width tiles.
func decodePatternDictionary(data []byte) (*PatternDictionary, error) {
	r := newReader(data)

	flagByte, err := r.readByte()
	if err != nil {
		return nil, &ParseError{Msg: "unexpected end of data reading pattern dictionary flags"}
	}
	flags := parsePatternDictionaryFlags(flagByte)

	hdpwByte, err := r.readByte()
	if err != nil {
		return nil, &ParseError{Msg: "unexpected end of data reading HDPW"}
	}
	hdphByte, err := r.readByte()
	if err != nil {
		return nil, &ParseError{Msg: "unexpected end of data reading HDPH"}
	}
	hdpw := int(hdpwByte)
	hdph := int(hdphByte)
	if hdpw == 0 || hdph == 0 {
		return nil, &RegionError{Msg: "pattern dictionary has a zero-sized pattern"}
	}

	grayMax, err := r.readU32()
	if err != nil {
		return nil, &ParseError{Msg: "unexpected end of data reading GRAYMAX"}
	}

	collectiveWidth := (int(grayMax) + 1) * hdpw
	collective := NewBitmap(collectiveWidth, hdph)

	// Fixed adaptive template pixels for the collective bitmap (6.7.5):
	// AT1 references the start of the previous pattern on the same row,
	// the rest match the defaults used throughout generic region decoding.
	at := []AdaptiveTemplatePixel{
		{X: int8(-hdpw), Y: 0},
		{X: -3, Y: -1},
		{X: 2, Y: -2},
		{X: -2, Y: -2},
	}

	if flags.mmr {
		if err := decodeGenericBitmapMMR(collective, r.tail()); err != nil {
			return nil, &RegionError{Msg: err.Error()}
		}
	} else {
		decodeGenericBitmapArithmetic(collective, NewArithmeticDecoder(r.tail()), flags.template, false, at, nil)
	}

	patterns := make([]*Bitmap, grayMax+1)
	for i := range patterns {
		tile := NewBitmap(hdpw, hdph)
		xOffset := i * hdpw
		for y := 0; y < hdph; y++ {
			for x := 0; x < hdpw; x++ {
				tile.SetPixel(x, y, collective.GetPixel(xOffset+x, y))
			}
		}
		patterns[i] = tile
	}

	return &PatternDictionary{Patterns: patterns}, nil
}
