package jbig2

// decodeGenericRefinementRegion implements the generic refinement region
// decoding procedure (6.3): each pixel is predicted from a reference
// bitmap (either another previously decoded region, or the page bitmap)
// shifted by (referenceDX, referenceDY), refined by a small number of
// explicitly-coded pixels.
func decodeGenericRefinementRegion(r *reader, reference *Bitmap, referenceX, referenceY int32) (*DecodedRegion, error) {
	info, err := parseRegionSegmentInfo(r)
	if err != nil {
		return nil, err
	}
	flags, err := r.readByte()
	if err != nil {
		return nil, &ParseError{Msg: "unexpected end of data reading refinement region flags"}
	}
	template := refinementTemplateFromByte(flags)
	tpgron := flags&0x02 != 0

	var at []AdaptiveTemplatePixel
	if template == RefinementTemplate0 {
		at, err = parseRefinementAtPixels(r)
		if err != nil {
			return nil, err
		}
	}

	if int(info.Width) > reference.Width || int(info.Height) > reference.Height {
		return nil, &RegionError{Msg: "refinement region larger than its reference bitmap"}
	}

	referenceDX := referenceX - int32(info.X)
	referenceDY := referenceY - int32(info.Y)

	encoded := r.tail()
	ad := NewArithmeticDecoder(encoded)
	contexts := make([]Context, 1<<template.contextBits())

	bitmap := NewBitmap(int(info.Width), int(info.Height))
	decodeRefinementBitmap(ad, contexts, bitmap, reference, int(referenceDX), int(referenceDY), template, at, tpgron)

	return &DecodedRegion{
		Bitmap:              bitmap,
		X:                   int32(info.X),
		Y:                   int32(info.Y),
		CombinationOperator: info.CombinationOperator,
	}, nil
}

func refinementSltpContext(t RefinementTemplate) uint32 {
	if t == RefinementTemplate0 {
		return 0x0010
	}
	return 0x0008
}

// decodeRefinementBitmap implements 6.3.5.6, including the TPGRON typical
// prediction check against a 3x3 neighbourhood of the reference bitmap.
func decodeRefinementBitmap(ad *ArithmeticDecoder, contexts []Context, bitmap, reference *Bitmap, referenceDX, referenceDY int, template RefinementTemplate, at []AdaptiveTemplatePixel, tpgron bool) {
	ltp := false
	width, height := bitmap.Width, bitmap.Height

	decodeSingle := func(x, y int) {
		ctx := gatherRefinementContext(bitmap, reference, x, y, referenceDX, referenceDY, template, at)
		pixel := ad.Decode(&contexts[ctx])
		bitmap.SetPixel(x, y, uint8(pixel))
	}

	for y := 0; y < height; y++ {
		if tpgron {
			sctx := refinementSltpContext(template)
			sltp := ad.Decode(&contexts[sctx])
			ltp = ltp != (sltp != 0)
		}

		if !ltp {
			for x := 0; x < width; x++ {
				decodeSingle(x, y)
			}
			continue
		}

		for x := 0; x < width; x++ {
			refX := x - referenceDX
			refY := y - referenceDY
			center := reference.GetPixel(refX, refY)

			allSame := true
			for dy := -1; dy <= 1 && allSame; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if reference.GetPixel(refX+dx, refY+dy) != center {
						allSame = false
						break
					}
				}
			}

			if allSame {
				bitmap.SetPixel(x, y, center)
			} else {
				decodeSingle(x, y)
			}
		}
	}
}

// gatherRefinementContext builds the context index for pixel (x, y) from
// both the bitmap under decode and the reference bitmap (6.3.5.3, Figures
// 12-13).
func gatherRefinementContext(bitmap, reference *Bitmap, x, y, referenceDX, referenceDY int, template RefinementTemplate, at []AdaptiveTemplatePixel) uint32 {
	refX := x - referenceDX
	refY := y - referenceDY

	gp := func(dx, dy int) uint32 { return uint32(bitmap.GetPixel(x+dx, y+dy)) }
	rp := func(dx, dy int) uint32 { return uint32(reference.GetPixel(refX+dx, refY+dy)) }

	var ctx uint32
	switch template {
	case RefinementTemplate0:
		at1, at2 := at[0], at[1]

		ctx = (ctx << 1) | gp(int(at1.X), int(at1.Y))
		ctx = (ctx << 1) | gp(0, -1)
		ctx = (ctx << 1) | gp(1, -1)
		ctx = (ctx << 1) | gp(-1, 0)

		ctx = (ctx << 1) | rp(int(at2.X), int(at2.Y))
		ctx = (ctx << 1) | rp(0, -1)
		ctx = (ctx << 1) | rp(1, -1)
		ctx = (ctx << 1) | rp(-1, 0)
		ctx = (ctx << 1) | rp(0, 0)
		ctx = (ctx << 1) | rp(1, 0)
		ctx = (ctx << 1) | rp(-1, 1)
		ctx = (ctx << 1) | rp(0, 1)
		ctx = (ctx << 1) | rp(1, 1)

	default: // RefinementTemplate1
		ctx = (ctx << 1) | gp(-1, -1)
		ctx = (ctx << 1) | gp(0, -1)
		ctx = (ctx << 1) | gp(1, -1)
		ctx = (ctx << 1) | gp(-1, 0)

		ctx = (ctx << 1) | rp(0, -1)
		ctx = (ctx << 1) | rp(-1, 0)
		ctx = (ctx << 1) | rp(0, 0)
		ctx = (ctx << 1) | rp(1, 0)
		ctx = (ctx << 1) | rp(0, 1)
		ctx = (ctx << 1) | rp(1, 1)
	}

	return ctx
}
