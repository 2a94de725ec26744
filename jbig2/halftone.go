package jbig2

// halftoneRegionFlags is the 1-byte flags field of a halftone region
// segment (7.4.5.1.1): HMMR (bit 0), HTEMPLATE (bits 1-2), HENABLESKIP
// (bit 3), HCOMBOP (bits 4-6), HDEFPIXEL (bit 7).
type halftoneRegionFlags struct {
	mmr          bool
	template     Template
	enableSkip   bool
	combOp       CombinationOperator
	defaultPixel uint8
}

func parseHalftoneRegionFlags(b byte) halftoneRegionFlags {
	return halftoneRegionFlags{
		mmr:          b&0x01 != 0,
		template:     templateFromByte(b >> 1),
		enableSkip:   (b>>3)&0x01 != 0,
		combOp:       CombinationOperator((b >> 4) & 0x07),
		defaultPixel: (b >> 7) & 0x01,
	}
}

// decodeHalftoneRegion implements 6.6: a grid of grayscale values, each
// selecting one of the referred pattern dictionary's pattern bitmaps,
// blitted onto the region's bitmap at a skewed grid position.
func decodeHalftoneRegion(r *reader, patterns *PatternDictionary) (*DecodedRegion, error) {
	info, err := parseRegionSegmentInfo(r)
	if err != nil {
		return nil, err
	}
	if len(patterns.Patterns) == 0 {
		return nil, &SegmentError{Msg: "halftone region's pattern dictionary has no patterns"}
	}

	flagByte, err := r.readByte()
	if err != nil {
		return nil, &ParseError{Msg: "unexpected end of data reading halftone region flags"}
	}
	flags := parseHalftoneRegionFlags(flagByte)

	hgw, err := r.readU32()
	if err != nil {
		return nil, &ParseError{Msg: "unexpected end of data reading HGW"}
	}
	hgh, err := r.readU32()
	if err != nil {
		return nil, &ParseError{Msg: "unexpected end of data reading HGH"}
	}
	hgxRaw, err := r.readU32()
	if err != nil {
		return nil, &ParseError{Msg: "unexpected end of data reading HGX"}
	}
	hgyRaw, err := r.readU32()
	if err != nil {
		return nil, &ParseError{Msg: "unexpected end of data reading HGY"}
	}
	hrxRaw, err := r.readU16()
	if err != nil {
		return nil, &ParseError{Msg: "unexpected end of data reading HRX"}
	}
	hryRaw, err := r.readU16()
	if err != nil {
		return nil, &ParseError{Msg: "unexpected end of data reading HRY"}
	}
	hgx := int32(hgxRaw)
	hgy := int32(hgyRaw)
	hrx := int32(hrxRaw)
	hry := int32(hryRaw)

	patternWidth := patterns.Patterns[0].Width
	patternHeight := patterns.Patterns[0].Height

	bitsPerValue := symbolCodeLength(len(patterns.Patterns), false)
	if bitsPerValue == 0 {
		bitsPerValue = 1
	}

	bitmap := NewBitmap(int(info.Width), int(info.Height))
	if flags.defaultPixel != 0 {
		bitmap.Fill(1)
	}

	var skip *Bitmap
	if flags.enableSkip {
		skip = NewBitmap(int(hgw), int(hgh))
		for mg := 0; mg < int(hgh); mg++ {
			for ng := 0; ng < int(hgw); ng++ {
				x := (hgx + int32(mg)*hry + int32(ng)*hrx) >> 8
				y := (hgy + int32(mg)*hrx - int32(ng)*hry) >> 8
				if int(x)+patternWidth <= 0 || int(x) >= bitmap.Width ||
					int(y)+patternHeight <= 0 || int(y) >= bitmap.Height {
					skip.SetPixel(ng, mg, 1)
				}
			}
		}
	}

	var atX0 int8 = -2
	if flags.template <= Template1 {
		atX0 = 3
	}
	at := []AdaptiveTemplatePixel{
		{X: atX0, Y: -1},
		{X: -3, Y: -1},
		{X: 2, Y: -2},
		{X: -2, Y: -2},
	}

	grayscale := make([]uint32, int(hgw)*int(hgh))

	if flags.mmr {
		// The MMR path packs all bitplanes back-to-back in the same
		// stream (C.5): each plane is its own Group-4-framed bitmap, so
		// the next plane's stream starts where the previous one's ended.
		planeData := r.tail()
		for j := int(bitsPerValue) - 1; j >= 0; j-- {
			plane := NewBitmap(int(hgw), int(hgh))
			consumed, err := decodeGenericBitmapMMRConsumed(plane, planeData)
			if err != nil {
				return nil, &RegionError{Msg: err.Error()}
			}
			applyGrayscalePlane(grayscale, plane, int(hgw), int(hgh))
			planeData = planeData[consumed:]
		}
	} else {
		ad := NewArithmeticDecoder(r.tail())
		contexts := make([]Context, 1<<flags.template.contextBits())
		for j := int(bitsPerValue) - 1; j >= 0; j-- {
			plane := NewBitmap(int(hgw), int(hgh))
			decodeGenericBitmapArithmeticSkip(plane, ad, flags.template, at, contexts, skip)
			applyGrayscalePlane(grayscale, plane, int(hgw), int(hgh))
		}
	}

	i := 0
	for mg := 0; mg < int(hgh); mg++ {
		for ng := 0; ng < int(hgw); ng++ {
			if skip != nil && skip.GetPixel(ng, mg) != 0 {
				i++
				continue
			}
			gray := grayscale[i]
			if int(gray) >= len(patterns.Patterns) {
				gray = uint32(len(patterns.Patterns) - 1)
			}
			x := (hgx + int32(mg)*hry + int32(ng)*hrx) >> 8
			y := (hgy + int32(mg)*hrx - int32(ng)*hry) >> 8
			Combine(bitmap, patterns.Patterns[gray], int(x), int(y), flags.combOp)
			i++
		}
	}

	return &DecodedRegion{
		Bitmap:              bitmap,
		X:                   int32(info.X),
		Y:                   int32(info.Y),
		CombinationOperator: info.CombinationOperator,
	}, nil
}

// applyGrayscalePlane XORs one decoded bitplane into the running
// grayscale accumulator, implementing the Gray-code reconstruction of
// Annex C.5: GSVALS[i] = (GSVALS[i] << 1) | (plane[i] ^ (GSVALS[i] & 1)).
func applyGrayscalePlane(grayscale []uint32, plane *Bitmap, w, h int) {
	i := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			bit := uint32(plane.GetPixel(x, y))
			bit ^= grayscale[i] & 1
			grayscale[i] = (grayscale[i] << 1) | bit
			i++
		}
	}
}
