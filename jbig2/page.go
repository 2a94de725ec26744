package jbig2

import "sort"

// PageInformation is the parsed page information segment (7.4.8): page
// dimensions, resolution, and the flags that set up the page bitmap's
// default pixel value and striping.
type PageInformation struct {
	Width, Height          uint32
	XResolution, YResolution uint32
	IsLossless               bool
	MightContainRefinements  bool
	DefaultPixelValue        uint8
	DefaultCombinationOperator CombinationOperator
	RequiresAuxiliaryBuffers bool
	CombinationOperatorOverridden bool
	Striped                  bool
	MaxStripeSize            uint32
}

const unknownPageHeight = 0xFFFFFFFF

func parsePageInformation(data []byte) (*PageInformation, error) {
	r := newReader(data)

	width, err := r.readU32()
	if err != nil {
		return nil, &ParseError{Msg: "unexpected end of data reading page width"}
	}
	height, err := r.readU32()
	if err != nil {
		return nil, &ParseError{Msg: "unexpected end of data reading page height"}
	}
	xRes, err := r.readU32()
	if err != nil {
		return nil, &ParseError{Msg: "unexpected end of data reading page x resolution"}
	}
	yRes, err := r.readU32()
	if err != nil {
		return nil, &ParseError{Msg: "unexpected end of data reading page y resolution"}
	}
	flags, err := r.readByte()
	if err != nil {
		return nil, &ParseError{Msg: "unexpected end of data reading page flags"}
	}
	striping, err := r.readU16()
	if err != nil {
		return nil, &ParseError{Msg: "unexpected end of data reading page striping info"}
	}

	return &PageInformation{
		Width:                         width,
		Height:                        height,
		XResolution:                   xRes,
		YResolution:                   yRes,
		IsLossless:                    flags&0x01 != 0,
		MightContainRefinements:       flags&0x02 != 0,
		DefaultPixelValue:             (flags >> 2) & 0x01,
		DefaultCombinationOperator:    CombinationOperator((flags >> 3) & 0x03),
		RequiresAuxiliaryBuffers:      flags&0x20 != 0,
		CombinationOperatorOverridden: flags&0x40 != 0,
		Striped:                       striping&0x8000 != 0,
		MaxStripeSize:                 uint32(striping & 0x7FFF),
	}, nil
}

type numberedRegion struct {
	number uint32
	bitmap *Bitmap
	x, y   int32
}

type numberedPatternDictionary struct {
	number uint32
	dict   *PatternDictionary
}

type numberedSymbolDictionary struct {
	number uint32
	dict   *SymbolDictionary
}

type numberedHuffmanTable struct {
	number uint32
	table  *HuffmanTable
}

// decodeContext is the page assembler's working state (5.9's "decoder
// frame"): the page bitmap under construction plus every intermediate
// store a later segment may reference by number.
type decodeContext struct {
	pageInfo *PageInformation
	page     *Bitmap

	referredRegions     []numberedRegion
	patternDictionaries []numberedPatternDictionary
	symbolDictionaries  []numberedSymbolDictionary
	huffmanTables       []numberedHuffmanTable

	standardTables *StandardHuffmanTables
}

func (c *decodeContext) storeRegion(num uint32, bm *Bitmap, x, y int32) {
	c.referredRegions = append(c.referredRegions, numberedRegion{num, bm, x, y})
}

func (c *decodeContext) getRegion(num uint32) *Bitmap {
	_, bm, _, _ := c.getRegionWithOrigin(num)
	return bm
}

func (c *decodeContext) getRegionWithOrigin(num uint32) (bool, *Bitmap, int32, int32) {
	i := sort.Search(len(c.referredRegions), func(i int) bool { return c.referredRegions[i].number >= num })
	if i < len(c.referredRegions) && c.referredRegions[i].number == num {
		r := c.referredRegions[i]
		return true, r.bitmap, r.x, r.y
	}
	return false, nil, 0, 0
}

func (c *decodeContext) storePatternDictionary(num uint32, d *PatternDictionary) {
	c.patternDictionaries = append(c.patternDictionaries, numberedPatternDictionary{num, d})
}

func (c *decodeContext) getPatternDictionary(num uint32) *PatternDictionary {
	i := sort.Search(len(c.patternDictionaries), func(i int) bool { return c.patternDictionaries[i].number >= num })
	if i < len(c.patternDictionaries) && c.patternDictionaries[i].number == num {
		return c.patternDictionaries[i].dict
	}
	return nil
}

func (c *decodeContext) storeSymbolDictionary(num uint32, d *SymbolDictionary) {
	c.symbolDictionaries = append(c.symbolDictionaries, numberedSymbolDictionary{num, d})
}

func (c *decodeContext) getSymbolDictionary(num uint32) *SymbolDictionary {
	i := sort.Search(len(c.symbolDictionaries), func(i int) bool { return c.symbolDictionaries[i].number >= num })
	if i < len(c.symbolDictionaries) && c.symbolDictionaries[i].number == num {
		return c.symbolDictionaries[i].dict
	}
	return nil
}

func (c *decodeContext) storeHuffmanTable(num uint32, t *HuffmanTable) {
	c.huffmanTables = append(c.huffmanTables, numberedHuffmanTable{num, t})
}

func (c *decodeContext) getHuffmanTable(num uint32) *HuffmanTable {
	i := sort.Search(len(c.huffmanTables), func(i int) bool { return c.huffmanTables[i].number >= num })
	if i < len(c.huffmanTables) && c.huffmanTables[i].number == num {
		return c.huffmanTables[i].table
	}
	return nil
}

// collectInputSymbols gathers SDINSYMS/SBSYMS: the concatenation, in
// referred-segment order, of every referred symbol dictionary's exported
// symbols (6.5.5 step 1 / 6.4.5 "composition of symbols").
func (c *decodeContext) collectInputSymbols(referred []uint32) []*Bitmap {
	var symbols []*Bitmap
	for _, num := range referred {
		if dict := c.getSymbolDictionary(num); dict != nil {
			symbols = append(symbols, dict.ExportedSymbols...)
		}
	}
	return symbols
}

// collectReferredTables gathers the Huffman tables a segment's referred
// table segments contribute, in referred-segment order.
func (c *decodeContext) collectReferredTables(referred []uint32) []*HuffmanTable {
	var tables []*HuffmanTable
	for _, num := range referred {
		if t := c.getHuffmanTable(num); t != nil {
			tables = append(tables, t)
		}
	}
	return tables
}

// scanStripeHeight implements the striped-page pre-scan (7.4.8.2, Section
// 4.9's "Striped pages demand a two-pass approach"): the maximum
// EndOfStripe row, plus one, across the whole segment list.
func scanStripeHeight(segments []*Segment) (uint32, bool) {
	var max uint32
	found := false
	for _, seg := range segments {
		if seg.Header.Type != SegmentEndOfStripe {
			continue
		}
		if len(seg.Data) < 4 {
			continue
		}
		row := uint32(seg.Data[0])<<24 | uint32(seg.Data[1])<<16 | uint32(seg.Data[2])<<8 | uint32(seg.Data[3])
		if row+1 > max {
			max = row + 1
		}
		found = true
	}
	return max, found
}

// newDecodeContext builds the initial decode context from a segment list's
// page information segment, per 7.4.8.2 / spec.md Section 3 "Page state".
func newDecodeContext(segments []*Segment) (*decodeContext, error) {
	var pageInfoSeg *Segment
	for _, seg := range segments {
		if seg.Header.Type == SegmentPageInformation {
			pageInfoSeg = seg
			break
		}
	}
	if pageInfoSeg == nil {
		return nil, &FormatError{Msg: "segment list has no page information segment"}
	}

	info, err := parsePageInformation(pageInfoSeg.Data)
	if err != nil {
		return nil, err
	}

	height := info.Height
	if height == unknownPageHeight {
		stripeHeight, ok := scanStripeHeight(segments)
		if !ok {
			return nil, &FormatError{Msg: "page height is unknown and no EndOfStripe segment determines it"}
		}
		height = stripeHeight
	}

	page := NewBitmap(int(info.Width), int(height))
	if info.DefaultPixelValue != 0 {
		page.Fill(1)
	}

	return &decodeContext{
		pageInfo:       info,
		page:           page,
		standardTables: NewStandardHuffmanTables(),
	}, nil
}

// decodeWithSegments runs the page assembler's segment dispatch loop
// (7.4, Table 7.1) over a fully parsed segment list and returns the
// finished page bitmap.
func decodeWithSegments(segments []*Segment) (*Bitmap, error) {
	ctx, err := newDecodeContext(segments)
	if err != nil {
		return nil, err
	}

	for _, seg := range segments {
		if err := dispatchSegment(ctx, seg); err != nil {
			return nil, wrapSegment(seg.Header.Number, seg.Header.Type, err)
		}
		if seg.Header.Type == SegmentEndOfPage || seg.Header.Type == SegmentEndOfFile {
			break
		}
	}

	return ctx.page, nil
}

func dispatchSegment(ctx *decodeContext, seg *Segment) error {
	r := newReader(seg.Data)

	switch seg.Header.Type {
	case SegmentPageInformation:
		// Already consumed by newDecodeContext.
		return nil

	case SegmentImmediateGenericRegion, SegmentImmediateLosslessGenericRegion:
		region, err := decodeGenericRegion(r, !seg.Header.lengthKnown())
		if err != nil {
			return err
		}
		Combine(ctx.page, region.Bitmap, int(region.X), int(region.Y), region.CombinationOperator)
		return nil

	case SegmentIntermediateGenericRegion:
		region, err := decodeGenericRegion(r, false)
		if err != nil {
			return err
		}
		ctx.storeRegion(seg.Header.Number, region.Bitmap, region.X, region.Y)
		return nil

	case SegmentPatternDictionary:
		dict, err := decodePatternDictionary(seg.Data)
		if err != nil {
			return err
		}
		ctx.storePatternDictionary(seg.Header.Number, dict)
		return nil

	case SegmentSymbolDictionary:
		inputSymbols := ctx.collectInputSymbols(seg.Header.ReferredSegments)
		referredTables := ctx.collectReferredTables(seg.Header.ReferredSegments)

		var retained *symbolDictionaryContexts
		if len(seg.Header.ReferredSegments) > 0 {
			last := seg.Header.ReferredSegments[len(seg.Header.ReferredSegments)-1]
			if dict := ctx.getSymbolDictionary(last); dict != nil {
				retained = dict.Contexts
			}
		}

		dict, err := decodeSymbolDictionary(seg.Data, inputSymbols, referredTables, ctx.standardTables, retained)
		if err != nil {
			return err
		}
		ctx.storeSymbolDictionary(seg.Header.Number, dict)
		return nil

	case SegmentImmediateTextRegion, SegmentImmediateLosslessTextRegion:
		region, err := decodeTextRegionSegment(ctx, seg)
		if err != nil {
			return err
		}
		Combine(ctx.page, region.Bitmap, int(region.X), int(region.Y), region.CombinationOperator)
		return nil

	case SegmentIntermediateTextRegion:
		region, err := decodeTextRegionSegment(ctx, seg)
		if err != nil {
			return err
		}
		ctx.storeRegion(seg.Header.Number, region.Bitmap, region.X, region.Y)
		return nil

	case SegmentImmediateHalftoneRegion, SegmentImmediateLosslessHalftoneRegion:
		dict, err := ctx.halftonePatternDictionary(seg)
		if err != nil {
			return err
		}
		region, err := decodeHalftoneRegion(r, dict)
		if err != nil {
			return err
		}
		Combine(ctx.page, region.Bitmap, int(region.X), int(region.Y), region.CombinationOperator)
		return nil

	case SegmentIntermediateHalftoneRegion:
		dict, err := ctx.halftonePatternDictionary(seg)
		if err != nil {
			return err
		}
		region, err := decodeHalftoneRegion(r, dict)
		if err != nil {
			return err
		}
		ctx.storeRegion(seg.Header.Number, region.Bitmap, region.X, region.Y)
		return nil

	case SegmentImmediateGenericRefinementRegion, SegmentImmediateLosslessGenericRefinementRegion:
		reference, refX, refY := ctx.refinementReference(seg)
		region, err := decodeGenericRefinementRegion(r, reference, refX, refY)
		if err != nil {
			return err
		}
		Combine(ctx.page, region.Bitmap, int(region.X), int(region.Y), region.CombinationOperator)
		return nil

	case SegmentIntermediateGenericRefinementRegion:
		reference, refX, refY := ctx.refinementReference(seg)
		region, err := decodeGenericRefinementRegion(r, reference, refX, refY)
		if err != nil {
			return err
		}
		ctx.storeRegion(seg.Header.Number, region.Bitmap, region.X, region.Y)
		return nil

	case SegmentTables:
		table, err := readCustomHuffmanTable(r)
		if err != nil {
			return err
		}
		ctx.storeHuffmanTable(seg.Header.Number, table)
		return nil

	case SegmentEndOfPage, SegmentEndOfStripe, SegmentEndOfFile,
		SegmentProfiles, SegmentColourPalette, SegmentExtension:
		return nil

	default:
		// Unknown segment types are skipped (7.2.1's "a reader encountering
		// a segment type it does not recognize shall skip over it").
		return nil
	}
}

// halftonePatternDictionary resolves a halftone region's single required
// referred pattern dictionary (6.6.2).
func (c *decodeContext) halftonePatternDictionary(seg *Segment) (*PatternDictionary, error) {
	if len(seg.Header.ReferredSegments) == 0 {
		return nil, &SegmentError{Msg: "halftone region has no referred pattern dictionary"}
	}
	dict := c.getPatternDictionary(seg.Header.ReferredSegments[0])
	if dict == nil {
		return nil, &SegmentError{Msg: "halftone region's referred pattern dictionary was not found"}
	}
	return dict, nil
}

// refinementReference resolves a refinement region's reference bitmap and
// its page-coordinate origin (7.4.7.5): the first referred region if any
// (at the origin it was stored under), else the page bitmap at (0, 0).
func (c *decodeContext) refinementReference(seg *Segment) (*Bitmap, int32, int32) {
	if len(seg.Header.ReferredSegments) > 0 {
		if ok, bm, x, y := c.getRegionWithOrigin(seg.Header.ReferredSegments[0]); ok {
			return bm, x, y
		}
	}
	return c.page, 0, 0
}

// decodeTextRegionSegment parses and decodes a text region segment's
// header and instance data (7.4.3), resolving its symbols and Huffman
// tables from the decode context.
func decodeTextRegionSegment(ctx *decodeContext, seg *Segment) (*DecodedRegion, error) {
	symbols := ctx.collectInputSymbols(seg.Header.ReferredSegments)
	referredTables := ctx.collectReferredTables(seg.Header.ReferredSegments)

	r := newReader(seg.Data)
	info, params, err := parseTextRegionHeader(r, referredTables, ctx.standardTables, len(symbols))
	if err != nil {
		return nil, err
	}
	params.symbols = symbols

	var state *textRegionState
	if !params.huffman {
		ad := NewArithmeticDecoder(r.tail())
		state = newTextRegionState(ad, params.symCodeLen, params.refTemplate)
	}

	bitmap, err := decodeTextRegionBitmap(params, state, r)
	if err != nil {
		return nil, err
	}

	return &DecodedRegion{
		Bitmap:              bitmap,
		X:                   int32(info.X),
		Y:                   int32(info.Y),
		CombinationOperator: info.CombinationOperator,
	}, nil
}
