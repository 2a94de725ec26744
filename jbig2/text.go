package jbig2

// Reference corner values selecting which symbol-bitmap corner anchors at
// the placement point (T.88 Table 14).
const (
	refCornerBottomLeft  uint8 = 0
	refCornerTopLeft     uint8 = 1
	refCornerBottomRight uint8 = 2
	refCornerTopRight    uint8 = 3
)

// textRegionParams carries every field the placement procedure (6.4) needs,
// whether it comes from a real text region segment's header or from a
// symbol dictionary's refinement/aggregate decoding path (6.5.8.2), which
// reuses this same procedure.
type textRegionParams struct {
	width, height uint32
	defaultPixel  uint8
	combOp        CombinationOperator

	huffman      bool
	refine       bool
	logStripSize uint8
	refCorner    uint8
	transposed   bool
	dsOffset     int32
	refTemplate  RefinementTemplate
	refAT        []AdaptiveTemplatePixel

	numInstances uint32
	symbols      []*Bitmap
	symCodeLen   uint32

	huffTables *textHuffmanTables
}

// textHuffmanTables holds the per-region Huffman tables selected for the
// Huffman coding path (7.4.3.1.6/7.4.3.1.7).
type textHuffmanTables struct {
	deltaT   *HuffmanTable
	firstS   *HuffmanTable
	deltaS   *HuffmanTable
	symbolID *HuffmanTable
}

// textRegionState bundles the arithmetic sub-decoders a text-instance
// placement pass needs. A standalone text region segment builds a fresh
// one; a symbol dictionary's aggregate-coding path supplies one that
// persists across the whole dictionary so contexts accumulate statistics
// the way 6.5.8.2.4 requires.
type textRegionState struct {
	ad           *ArithmeticDecoder
	iadt         *intDecoder
	iafs         *intDecoder
	iads         *intDecoder
	iait         *intDecoder
	iari         *intDecoder
	iardw        *intDecoder
	iardh        *intDecoder
	iardx        *intDecoder
	iardy        *intDecoder
	iaidCx       []Context
	refinementCx []Context
}

func newTextRegionState(ad *ArithmeticDecoder, symCodeLen uint32, refTemplate RefinementTemplate) *textRegionState {
	return &textRegionState{
		ad:           ad,
		iadt:         newIntDecoder(),
		iafs:         newIntDecoder(),
		iads:         newIntDecoder(),
		iait:         newIntDecoder(),
		iari:         newIntDecoder(),
		iardw:        newIntDecoder(),
		iardh:        newIntDecoder(),
		iardx:        newIntDecoder(),
		iardy:        newIntDecoder(),
		iaidCx:       make([]Context, 1<<symCodeLen),
		refinementCx: make([]Context, 1<<refTemplate.contextBits()),
	}
}

func symbolCodeLength(numSymbols int, huffman bool) uint32 {
	var n uint32
	for (1 << n) < numSymbols {
		n++
	}
	if huffman && n < 1 {
		n = 1
	}
	return n
}

func combinePixel(op CombinationOperator, dst, src uint8) uint8 {
	switch op {
	case CombOr:
		return dst | src
	case CombAnd:
		return dst & src
	case CombXor:
		return dst ^ src
	case CombXnor:
		if dst == src {
			return 1
		}
		return 0
	default:
		return src
	}
}

// parseTextRegionHeader parses a text region segment's header (7.4.3),
// stopping just before the arithmetic- or Huffman-coded instance data.
func parseTextRegionHeader(r *reader, referredTables []*HuffmanTable, std *StandardHuffmanTables, numSymbols int) (*RegionSegmentInfo, *textRegionParams, error) {
	info, err := parseRegionSegmentInfo(r)
	if err != nil {
		return nil, nil, err
	}

	flags, err := r.readBits(16)
	if err != nil {
		return nil, nil, &ParseError{Msg: "unexpected end of data reading text region flags"}
	}

	huffman := flags&0x1 != 0
	refine := (flags>>1)&0x1 != 0
	logStripSize := uint8((flags >> 2) & 0x3)
	refCorner := uint8((flags >> 4) & 0x3)
	transposed := (flags>>6)&0x1 != 0
	combOp := CombinationOperator((flags >> 7) & 0x3)
	defaultPixel := uint8((flags >> 9) & 0x1)
	dsOffsetRaw := int32((flags >> 10) & 0x1F)
	if dsOffsetRaw > 0x0F {
		dsOffsetRaw -= 0x20
	}
	refTemplate := RefinementTemplate((flags >> 15) & 0x1)

	params := &textRegionParams{
		width:        info.Width,
		height:       info.Height,
		defaultPixel: defaultPixel,
		combOp:       info.CombinationOperator,
		huffman:      huffman,
		refine:       refine,
		logStripSize: logStripSize,
		refCorner:    refCorner,
		transposed:   transposed,
		dsOffset:     dsOffsetRaw,
		refTemplate:  refTemplate,
	}
	_ = combOp // the header's internal SBCOMBOP; placement uses this value below
	params.combOp = combOp

	var huffFlags uint32
	if huffman {
		huffFlags, err = r.readBits(16)
		if err != nil {
			return nil, nil, &ParseError{Msg: "unexpected end of data reading text region huffman flags"}
		}
	}

	if refine && refTemplate == RefinementTemplate0 {
		params.refAT, err = parseRefinementAtPixels(r)
		if err != nil {
			return nil, nil, err
		}
	}

	numInstances, err := r.readU32()
	if err != nil {
		return nil, nil, &ParseError{Msg: "unexpected end of data reading text region instance count"}
	}
	params.numInstances = numInstances
	params.symCodeLen = symbolCodeLength(numSymbols, huffman)

	if huffman {
		sbHuffFS := (huffFlags >> 0) & 0x3
		sbHuffDS := (huffFlags >> 2) & 0x3
		sbHuffDT := (huffFlags >> 4) & 0x3

		next := 0
		take := func() (*HuffmanTable, error) {
			if next >= len(referredTables) {
				return nil, &HuffmanError{Msg: "text region refers to a custom table that was not supplied"}
			}
			t := referredTables[next]
			next++
			return t, nil
		}

		tables := &textHuffmanTables{}
		switch sbHuffFS {
		case 0:
			tables.firstS = std.Get(6)
		case 1:
			tables.firstS = std.Get(7)
		default:
			if tables.firstS, err = take(); err != nil {
				return nil, nil, err
			}
		}
		switch sbHuffDS {
		case 0:
			tables.deltaS = std.Get(8)
		case 1:
			tables.deltaS = std.Get(9)
		case 2:
			tables.deltaS = std.Get(10)
		default:
			if tables.deltaS, err = take(); err != nil {
				return nil, nil, err
			}
		}
		switch sbHuffDT {
		case 0:
			tables.deltaT = std.Get(11)
		case 1:
			tables.deltaT = std.Get(12)
		default:
			if tables.deltaT, err = take(); err != nil {
				return nil, nil, err
			}
		}

		tables.symbolID, err = readSymbolIDHuffmanTable(r, numSymbols)
		if err != nil {
			return nil, nil, err
		}
		params.huffTables = tables
	}

	return info, params, nil
}

// readSymbolIDHuffmanTable implements 7.4.3.1.7: a 35-entry run-code table
// (4-bit prefix lengths) that itself encodes the per-symbol code lengths,
// with run codes 32-34 repeating the previous length or zero.
func readSymbolIDHuffmanTable(r *reader, numSymbols int) (*HuffmanTable, error) {
	runCodeLens := make([]uint8, 35)
	for i := range runCodeLens {
		v, err := r.readBits(4)
		if err != nil {
			return nil, &HuffmanError{Msg: "unexpected end of data reading symbol ID run-code lengths"}
		}
		runCodeLens[i] = uint8(v)
	}

	runLines := make([]huffmanLine, 35)
	for i, l := range runCodeLens {
		runLines[i] = line(l, 0, int32(i))
	}
	runTable := newHuffmanTable(runLines)

	codeLens := make([]uint8, numSymbols)
	var prevLen uint8
	for i := 0; i < numSymbols; {
		code, oob, err := runTable.Decode(r)
		if err != nil {
			return nil, err
		}
		if oob {
			return nil, &HuffmanError{Msg: "unexpected out-of-band code in symbol ID run-code stream"}
		}
		switch {
		case code < 32:
			codeLens[i] = uint8(code)
			prevLen = uint8(code)
			i++
		case code == 32:
			n, err := r.readBits(2)
			if err != nil {
				return nil, &HuffmanError{Msg: "unexpected end of data reading symbol ID repeat count"}
			}
			repeat := int(n) + 3
			for j := 0; j < repeat && i < numSymbols; j++ {
				codeLens[i] = prevLen
				i++
			}
		case code == 33:
			n, err := r.readBits(3)
			if err != nil {
				return nil, &HuffmanError{Msg: "unexpected end of data reading symbol ID repeat count"}
			}
			repeat := int(n) + 3
			for j := 0; j < repeat && i < numSymbols; j++ {
				codeLens[i] = 0
				i++
			}
		default: // 34
			n, err := r.readBits(7)
			if err != nil {
				return nil, &HuffmanError{Msg: "unexpected end of data reading symbol ID repeat count"}
			}
			repeat := int(n) + 11
			for j := 0; j < repeat && i < numSymbols; j++ {
				codeLens[i] = 0
				i++
			}
		}
	}

	lines := make([]huffmanLine, numSymbols)
	for i, l := range codeLens {
		lines[i] = line(l, 0, int32(i))
	}
	return newHuffmanTable(lines), nil
}

// decodeTextRegionBitmap implements the symbol placement procedure (6.4.5),
// generalized to all four interior combination operators.
func decodeTextRegionBitmap(params *textRegionParams, state *textRegionState, r *reader) (*Bitmap, error) {
	if params.huffman && params.refine {
		return nil, &RegionError{Msg: "text region refinement with huffman coding is not supported"}
	}

	bitmap := NewBitmap(int(params.width), int(params.height))
	if params.defaultPixel != 0 {
		bitmap.Fill(1)
	}

	stripSize := int32(1) << params.logStripSize

	readStripDelta := func() (int32, error) {
		if params.huffman {
			v, oob, err := params.huffTables.deltaT.Decode(r)
			if err != nil {
				return 0, err
			}
			if oob {
				return 0, &HuffmanError{Msg: "unexpected out-of-band stripT delta"}
			}
			return v, nil
		}
		v, ok := state.iadt.decode(state.ad)
		if !ok {
			return 0, &SymbolError{Msg: "unexpected out-of-band stripT delta"}
		}
		return v, nil
	}

	firstDT, err := readStripDelta()
	if err != nil {
		return nil, err
	}
	stripT := -firstDT

	var firstS int32
	var instancesDecoded uint32

	for instancesDecoded < params.numInstances {
		deltaT, err := readStripDelta()
		if err != nil {
			return nil, err
		}
		stripT += deltaT

		var deltaFirstS int32
		if params.huffman {
			v, oob, err := params.huffTables.firstS.Decode(r)
			if err != nil {
				return nil, err
			}
			if oob {
				return nil, &HuffmanError{Msg: "unexpected out-of-band deltaFirstS"}
			}
			deltaFirstS = v
		} else {
			v, ok := state.iafs.decode(state.ad)
			if !ok {
				return nil, &SymbolError{Msg: "unexpected out-of-band deltaFirstS"}
			}
			deltaFirstS = v
		}
		firstS += deltaFirstS
		currentS := firstS

		for {
			var currentT int32
			if stripSize > 1 {
				if params.huffman {
					v, err := r.readBits(uint8(params.logStripSize))
					if err != nil {
						return nil, &ParseError{Msg: "unexpected end of data reading currentT"}
					}
					currentT = int32(v)
				} else {
					v, ok := state.iait.decode(state.ad)
					if !ok {
						return nil, &SymbolError{Msg: "unexpected out-of-band currentT"}
					}
					currentT = v
				}
			}
			t := stripSize*stripT + currentT

			var symbolID uint32
			if params.huffman {
				v, oob, err := params.huffTables.symbolID.Decode(r)
				if err != nil {
					return nil, err
				}
				if oob {
					return nil, &HuffmanError{Msg: "unexpected out-of-band symbol ID"}
				}
				symbolID = uint32(v)
			} else {
				symbolID = decodeIAID(state.ad, state.iaidCx, params.symCodeLen)
			}
			if int(symbolID) >= len(params.symbols) {
				return nil, &SymbolError{Msg: "text region symbol ID out of range"}
			}

			applyRefinement := false
			if params.refine {
				if params.huffman {
					v, err := r.readBits(1)
					if err != nil {
						return nil, &ParseError{Msg: "unexpected end of data reading refinement flag"}
					}
					applyRefinement = v != 0
				} else {
					v, ok := state.iari.decode(state.ad)
					if !ok {
						return nil, &SymbolError{Msg: "unexpected out-of-band refinement flag"}
					}
					applyRefinement = v != 0
				}
			}

			symbolBitmap := params.symbols[symbolID]
			symbolWidth := symbolBitmap.Width
			symbolHeight := symbolBitmap.Height

			if applyRefinement {
				rdw, ok := state.iardw.decode(state.ad)
				if !ok {
					return nil, &SymbolError{Msg: "unexpected out-of-band RDW"}
				}
				rdh, ok := state.iardh.decode(state.ad)
				if !ok {
					return nil, &SymbolError{Msg: "unexpected out-of-band RDH"}
				}
				rdx, ok := state.iardx.decode(state.ad)
				if !ok {
					return nil, &SymbolError{Msg: "unexpected out-of-band RDX"}
				}
				rdy, ok := state.iardy.decode(state.ad)
				if !ok {
					return nil, &SymbolError{Msg: "unexpected out-of-band RDY"}
				}

				newWidth := symbolWidth + int(rdw)
				newHeight := symbolHeight + int(rdh)
				refDX := int(rdw>>1) + int(rdx)
				refDY := int(rdh>>1) + int(rdy)

				refined := NewBitmap(newWidth, newHeight)
				decodeRefinementBitmap(state.ad, state.refinementCx, refined, symbolBitmap, refDX, refDY, params.refTemplate, params.refAT, false)
				symbolBitmap = refined
				symbolWidth = newWidth
				symbolHeight = newHeight
			}

			var increment int32
			if !params.transposed {
				if params.refCorner == refCornerBottomRight || params.refCorner == refCornerTopRight {
					currentS += int32(symbolWidth) - 1
				} else {
					increment = int32(symbolWidth) - 1
				}
			} else if params.refCorner == refCornerBottomLeft || params.refCorner == refCornerBottomRight {
				currentS += int32(symbolHeight) - 1
			} else {
				increment = int32(symbolHeight) - 1
			}

			var offsetT int32
			if params.refCorner == refCornerTopLeft || params.refCorner == refCornerTopRight {
				offsetT = t
			} else {
				offsetT = t - (int32(symbolHeight) - 1)
			}
			var offsetS int32
			if params.refCorner == refCornerTopRight || params.refCorner == refCornerBottomRight {
				offsetS = currentS - (int32(symbolWidth) - 1)
			} else {
				offsetS = currentS
			}

			if params.transposed {
				for s2 := 0; s2 < symbolHeight; s2++ {
					y := int(offsetS) + s2
					for t2 := 0; t2 < symbolWidth; t2++ {
						x := int(offsetT) + t2
						px := symbolBitmap.GetPixel(t2, s2)
						bitmap.SetPixel(x, y, combinePixel(params.combOp, bitmap.GetPixel(x, y), px))
					}
				}
			} else {
				for t2 := 0; t2 < symbolHeight; t2++ {
					y := int(offsetT) + t2
					for s2 := 0; s2 < symbolWidth; s2++ {
						x := int(offsetS) + s2
						px := symbolBitmap.GetPixel(s2, t2)
						bitmap.SetPixel(x, y, combinePixel(params.combOp, bitmap.GetPixel(x, y), px))
					}
				}
			}

			instancesDecoded++

			var deltaS int32
			var isOOB bool
			if params.huffman {
				v, oob, err := params.huffTables.deltaS.Decode(r)
				if err != nil {
					return nil, err
				}
				deltaS, isOOB = v, oob
			} else {
				v, ok := state.iads.decode(state.ad)
				deltaS, isOOB = v, !ok
			}
			if isOOB {
				break
			}
			currentS += increment + deltaS + params.dsOffset
		}
	}

	return bitmap, nil
}
