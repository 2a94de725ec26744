package jbig2

import "github.com/novvoo/jbig2/mmr"

// DecodedRegion is a decoded region bitmap plus the placement metadata
// from its region segment information field.
type DecodedRegion struct {
	Bitmap              *Bitmap
	X, Y                int32
	CombinationOperator CombinationOperator
}

type genericRegionHeader struct {
	info                   *RegionSegmentInfo
	mmr                    bool
	template               Template
	tpgdon                 bool
	adaptiveTemplatePixels []AdaptiveTemplatePixel
}

func parseGenericRegionHeader(r *reader) (*genericRegionHeader, error) {
	info, err := parseRegionSegmentInfo(r)
	if err != nil {
		return nil, err
	}
	flags, err := r.readByte()
	if err != nil {
		return nil, &ParseError{Msg: "unexpected end of data reading generic region flags"}
	}

	useMMR := flags&0x01 != 0
	template := templateFromByte(flags >> 1)
	tpgdon := flags&0x08 != 0

	var atPixels []AdaptiveTemplatePixel
	if !useMMR {
		atPixels, err = parseAdaptiveTemplatePixels(r, template)
		if err != nil {
			return nil, err
		}
	}

	return &genericRegionHeader{
		info:                   info,
		mmr:                    useMMR,
		template:               template,
		tpgdon:                 tpgdon,
		adaptiveTemplatePixels: atPixels,
	}, nil
}

// decodeGenericRegion implements the generic region decoding procedure,
//6.2. hadUnknownLength is set when the segment header declared its data
// length as 0xFFFFFFFF (only legal for an immediate generic region in
// sequential organization): the actual row count is then the trailing
// 4-byte field of the data, not the region info's declared height.
func decodeGenericRegion(r *reader, hadUnknownLength bool) (*DecodedRegion, error) {
	header, err := parseGenericRegionHeader(r)
	if err != nil {
		return nil, err
	}
	encoded := r.tail()

	if hadUnknownLength {
		if len(encoded) < 4 {
			return nil, &FormatError{Msg: "unknown-length generic region shorter than its trailing row count field"}
		}
		head, tail := encoded[:len(encoded)-4], encoded[len(encoded)-4:]
		rowCount := uint32(tail[0])<<24 | uint32(tail[1])<<16 | uint32(tail[2])<<8 | uint32(tail[3])
		if rowCount > header.info.Height {
			return nil, &RegionError{Msg: "unknown-length generic region row count exceeds declared height"}
		}
		header.info.Height = rowCount
		encoded = head
	}

	bitmap := NewBitmap(int(header.info.Width), int(header.info.Height))

	if header.mmr {
		if err := decodeGenericBitmapMMR(bitmap, encoded); err != nil {
			return nil, &RegionError{Msg: err.Error()}
		}
	} else {
		decodeGenericBitmapArithmetic(bitmap, NewArithmeticDecoder(encoded), header.template, header.tpgdon, header.adaptiveTemplatePixels, nil)
	}

	return &DecodedRegion{
		Bitmap:              bitmap,
		X:                   int32(header.info.X),
		Y:                   int32(header.info.Y),
		CombinationOperator: header.info.CombinationOperator,
	}, nil
}

// bitmapSink adapts a Bitmap into the mmr.Decoder pixel-sink interface so
// the MMR path of a generic region can delegate to the standalone CCITT
// decoder instead of re-implementing it.
type bitmapSink struct {
	bitmap *Bitmap
	x, y   int
}

func (s *bitmapSink) PushByte(b byte) {
	for i := 0; i < 8 && s.x < s.bitmap.Width; i++ {
		bit := (b >> (7 - uint(i))) & 1
		s.bitmap.SetPixel(s.x, s.y, bit)
		s.x++
	}
}

func (s *bitmapSink) PushBytes(b byte, count int) {
	for i := 0; i < count; i++ {
		s.PushByte(b)
	}
}

func (s *bitmapSink) NextLine() {
	s.x = 0
	s.y++
}

func decodeGenericBitmapMMR(bitmap *Bitmap, data []byte) error {
	_, err := decodeGenericBitmapMMRConsumed(bitmap, data)
	return err
}

// decodeGenericBitmapMMRConsumed is decodeGenericBitmapMMR plus the number
// of bytes consumed, needed when more than one MMR-coded bitmap is packed
// back-to-back in a single segment's data (e.g. a halftone region's
// bitplanes, C.5).
func decodeGenericBitmapMMRConsumed(bitmap *Bitmap, data []byte) (int, error) {
	sink := &bitmapSink{bitmap: bitmap}
	settings := &mmr.DecodeSettings{
		Columns: bitmap.Width,
		Rows:    bitmap.Height,
		// "If the number of bytes contained in the encoded bitmap is known
		// in advance, then it is permissible for the data stream not to
		// contain an EOFB" (6.2.6), but it may, so keep scanning for one.
		EndOfBlock: true,
		Encoding:   mmr.Group4,
		// MMR "black" maps to JBIG2 pixel value 1; mmr.Decode's own
		// convention is the opposite, so invert at the sink boundary.
		InvertBlack: true,
	}
	return mmr.Decode(data, sink, settings)
}

// sltpContext is the fixed context value used to decode the SLTP bit for
// each template when TPGDON is set (6.2.5.7, Figures 8-11).
func sltpContext(t Template) uint32 {
	switch t {
	case Template0:
		return 0x9B25
	case Template1:
		return 0x0795
	case Template2:
		return 0x00E5
	default:
		return 0x0195
	}
}

// decodeGenericBitmapArithmetic implements 6.2.5: row-by-row arithmetic
// decoding with optional typical prediction (TPGDON). sharedContexts lets
// a refinement or text region's aggregate coding path reuse an existing
// context table across calls instead of starting each symbol fresh; pass
// nil to allocate one sized for the template.
func decodeGenericBitmapArithmetic(bitmap *Bitmap, ad *ArithmeticDecoder, template Template, tpgdon bool, at []AdaptiveTemplatePixel, sharedContexts []Context) []Context {
	contexts := sharedContexts
	if contexts == nil {
		contexts = make([]Context, 1<<template.contextBits())
	}

	ltp := false
	width, height := bitmap.Width, bitmap.Height

	for y := 0; y < height; y++ {
		if tpgdon {
			sctx := sltpContext(template)
			sltp := ad.Decode(&contexts[sctx])
			ltp = ltp != (sltp != 0)
		}

		if ltp {
			if y > 0 {
				for x := 0; x < width; x++ {
					bitmap.SetPixel(x, y, bitmap.GetPixel(x, y-1))
				}
			}
			continue
		}

		for x := 0; x < width; x++ {
			ctxBits := gatherGenericContext(bitmap, x, y, template, at)
			pixel := ad.Decode(&contexts[ctxBits])
			bitmap.SetPixel(x, y, uint8(pixel))
		}
	}

	return contexts
}

// decodeGenericBitmapArithmeticSkip is decodeGenericBitmapArithmetic's
// halftone variant (Annex C.5): pixels marked in skip are forced to 0
// without consuming an arithmetic decode, used when a grid cell's pattern
// would fall entirely outside the halftone bitmap.
func decodeGenericBitmapArithmeticSkip(bitmap *Bitmap, ad *ArithmeticDecoder, template Template, at []AdaptiveTemplatePixel, contexts []Context, skip *Bitmap) {
	width, height := bitmap.Width, bitmap.Height
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if skip != nil && skip.GetPixel(x, y) != 0 {
				bitmap.SetPixel(x, y, 0)
				continue
			}
			ctxBits := gatherGenericContext(bitmap, x, y, template, at)
			pixel := ad.Decode(&contexts[ctxBits])
			bitmap.SetPixel(x, y, uint8(pixel))
		}
	}
}

// gatherGenericContext builds the context index for pixel (x, y) per the
// per-template neighbourhood shown in Figures 3-6. Bit order is
// most-significant-first in the same left-to-right, top-to-bottom order
// the figures draw the neighbourhood, with AT pixels substituted at their
// marked positions.
func gatherGenericContext(bitmap *Bitmap, x, y int, template Template, at []AdaptiveTemplatePixel) uint32 {
	gp := func(dx, dy int) uint32 { return uint32(bitmap.GetPixel(x+dx, y+dy)) }
	atp := func(i int) uint32 { return gp(int(at[i].X), int(at[i].Y)) }

	var ctx uint32
	switch template {
	case Template0:
		ctx = (ctx << 1) | atp(3)
		ctx = (ctx << 1) | gp(-1, -2)
		ctx = (ctx << 1) | gp(0, -2)
		ctx = (ctx << 1) | gp(1, -2)
		ctx = (ctx << 1) | atp(2)

		ctx = (ctx << 1) | atp(1)
		ctx = (ctx << 1) | gp(-2, -1)
		ctx = (ctx << 1) | gp(-1, -1)
		ctx = (ctx << 1) | gp(0, -1)
		ctx = (ctx << 1) | gp(1, -1)
		ctx = (ctx << 1) | gp(2, -1)
		ctx = (ctx << 1) | atp(0)

		ctx = (ctx << 1) | gp(-4, 0)
		ctx = (ctx << 1) | gp(-3, 0)
		ctx = (ctx << 1) | gp(-2, 0)
		ctx = (ctx << 1) | gp(-1, 0)

	case Template1:
		ctx = (ctx << 1) | gp(-1, -2)
		ctx = (ctx << 1) | gp(0, -2)
		ctx = (ctx << 1) | gp(1, -2)
		ctx = (ctx << 1) | gp(2, -2)

		ctx = (ctx << 1) | gp(-2, -1)
		ctx = (ctx << 1) | gp(-1, -1)
		ctx = (ctx << 1) | gp(0, -1)
		ctx = (ctx << 1) | gp(1, -1)
		ctx = (ctx << 1) | gp(2, -1)
		ctx = (ctx << 1) | atp(0)

		ctx = (ctx << 1) | gp(-3, 0)
		ctx = (ctx << 1) | gp(-2, 0)
		ctx = (ctx << 1) | gp(-1, 0)

	case Template2:
		ctx = (ctx << 1) | gp(-1, -2)
		ctx = (ctx << 1) | gp(0, -2)
		ctx = (ctx << 1) | gp(1, -2)

		ctx = (ctx << 1) | gp(-2, -1)
		ctx = (ctx << 1) | gp(-1, -1)
		ctx = (ctx << 1) | gp(0, -1)
		ctx = (ctx << 1) | gp(1, -1)
		ctx = (ctx << 1) | atp(0)

		ctx = (ctx << 1) | gp(-2, 0)
		ctx = (ctx << 1) | gp(-1, 0)

	default: // Template3
		ctx = (ctx << 1) | gp(-3, -1)
		ctx = (ctx << 1) | gp(-2, -1)
		ctx = (ctx << 1) | gp(-1, -1)
		ctx = (ctx << 1) | gp(0, -1)
		ctx = (ctx << 1) | gp(1, -1)
		ctx = (ctx << 1) | atp(0)

		ctx = (ctx << 1) | gp(-4, 0)
		ctx = (ctx << 1) | gp(-3, 0)
		ctx = (ctx << 1) | gp(-2, 0)
		ctx = (ctx << 1) | gp(-1, 0)
	}

	return ctx
}
