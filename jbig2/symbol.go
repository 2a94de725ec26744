package jbig2

// symbolDictionaryFlags is the 2-byte flags field at 7.4.3.1.1 (Table 12).
type symbolDictionaryFlags struct {
	huffman                     bool
	refAgg                      bool
	huffDH                      uint32
	huffDW                      uint32
	huffBMSize                  uint32
	huffAggInst                 uint32
	bitmapCodingContextUsed     bool
	bitmapCodingContextRetained bool
	template                    Template
	rTemplate                   RefinementTemplate
}

func parseSymbolDictionaryFlags(r *reader) (*symbolDictionaryFlags, error) {
	v, err := r.readBits(16)
	if err != nil {
		return nil, &ParseError{Msg: "unexpected end of data reading symbol dictionary flags"}
	}
	return &symbolDictionaryFlags{
		huffman:                     v&0x0001 != 0,
		refAgg:                      (v>>1)&0x1 != 0,
		huffDH:                      (v >> 2) & 0x3,
		huffDW:                      (v >> 4) & 0x3,
		huffBMSize:                  (v >> 6) & 0x1,
		huffAggInst:                 (v >> 7) & 0x1,
		bitmapCodingContextUsed:     (v>>8)&0x1 != 0,
		bitmapCodingContextRetained: (v>>9)&0x1 != 0,
		template:                    Template((v >> 10) & 0x3),
		rTemplate:                   RefinementTemplate((v >> 12) & 0x1),
	}, nil
}

// symbolDictionaryContexts are the arithmetic contexts a symbol dictionary
// decode accumulates statistics in across its whole height-class loop
// (6.5.8.1/6.5.8.2.4). A later dictionary reuses the retained contexts
// when its bitmapCodingContextUsed flag is set; the two dictionaries'
// template selections are not compared.
type symbolDictionaryContexts struct {
	generic    []Context
	refinement []Context
	iadh       *intDecoder
	iadw       *intDecoder
	iaex       *intDecoder
	iaai       *intDecoder
	iardx      *intDecoder
	iardy      *intDecoder
	iaid       []Context
	text       *textRegionState
}

func newSymbolDictionaryContexts(template Template, rTemplate RefinementTemplate, symCodeLen uint32) *symbolDictionaryContexts {
	return &symbolDictionaryContexts{
		generic:    make([]Context, 1<<template.contextBits()),
		refinement: make([]Context, 1<<rTemplate.contextBits()),
		iadh:       newIntDecoder(),
		iadw:       newIntDecoder(),
		iaex:       newIntDecoder(),
		iaai:       newIntDecoder(),
		iardx:      newIntDecoder(),
		iardy:      newIntDecoder(),
		iaid:       make([]Context, 1<<symCodeLen),
	}
}

// SymbolDictionary is a decoded symbol dictionary segment: its exported
// symbol bitmaps plus, optionally, the arithmetic contexts a later
// dictionary can retain (6.5).
type SymbolDictionary struct {
	ExportedSymbols []*Bitmap
	Contexts        *symbolDictionaryContexts
}

// decodeSymbolDictionary implements 6.5: the symbol dictionary decoding
// procedure, covering both the Huffman and arithmetic coding paths and
// both direct generic-region-coded symbols and refinement/aggregate-coded
// symbols (6.5.8.2).
func decodeSymbolDictionary(data []byte, inputSymbols []*Bitmap, referredTables []*HuffmanTable, std *StandardHuffmanTables, retained *symbolDictionaryContexts) (*SymbolDictionary, error) {
	r := newReader(data)
	flags, err := parseSymbolDictionaryFlags(r)
	if err != nil {
		return nil, err
	}

	var at []AdaptiveTemplatePixel
	if !flags.huffman {
		at, err = parseAdaptiveTemplatePixels(r, flags.template)
		if err != nil {
			return nil, err
		}
	}
	var rAt []AdaptiveTemplatePixel
	if flags.refAgg && flags.rTemplate == RefinementTemplate0 {
		rAt, err = parseRefinementAtPixels(r)
		if err != nil {
			return nil, err
		}
	}

	numExported, err := r.readU32()
	if err != nil {
		return nil, &ParseError{Msg: "unexpected end of data reading number of exported symbols"}
	}
	numNew, err := r.readU32()
	if err != nil {
		return nil, &ParseError{Msg: "unexpected end of data reading number of new symbols"}
	}

	numInput := len(inputSymbols)
	symCodeLen := symbolCodeLength(numInput+int(numNew), flags.huffman || flags.refAgg)

	var dhTable, dwTable, bmSizeTable, aggInstTable *HuffmanTable
	nextTable := 0
	take := func() (*HuffmanTable, error) {
		if nextTable >= len(referredTables) {
			return nil, &HuffmanError{Msg: "symbol dictionary refers to a custom table that was not supplied"}
		}
		t := referredTables[nextTable]
		nextTable++
		return t, nil
	}
	if flags.huffman {
		switch flags.huffDH {
		case 0:
			dhTable = std.Get(4)
		case 1:
			dhTable = std.Get(5)
		default:
			if dhTable, err = take(); err != nil {
				return nil, err
			}
		}
		switch flags.huffDW {
		case 0:
			dwTable = std.Get(2)
		case 1:
			dwTable = std.Get(3)
		default:
			if dwTable, err = take(); err != nil {
				return nil, err
			}
		}
		if flags.huffBMSize == 0 {
			bmSizeTable = std.Get(1)
		} else if bmSizeTable, err = take(); err != nil {
			return nil, err
		}
		if flags.huffAggInst == 0 {
			aggInstTable = std.Get(1)
		} else if aggInstTable, err = take(); err != nil {
			return nil, err
		}
	}

	var ctx *symbolDictionaryContexts
	if flags.bitmapCodingContextUsed && retained != nil {
		ctx = retained
	} else {
		ctx = newSymbolDictionaryContexts(flags.template, flags.rTemplate, symCodeLen)
	}

	var ad *ArithmeticDecoder
	if !flags.huffman || flags.refAgg {
		ad = NewArithmeticDecoder(r.tail())
	}

	newSymbols := make([]*Bitmap, 0, numNew)
	var hcHeight int32

	for uint32(len(newSymbols)) < numNew {
		var deltaHeight int32
		if flags.huffman {
			v, oob, herr := dhTable.Decode(r)
			if herr != nil {
				return nil, herr
			}
			if oob {
				return nil, &HuffmanError{Msg: "unexpected out-of-band height class delta"}
			}
			deltaHeight = v
		} else {
			v, ok := ctx.iadh.decode(ad)
			if !ok {
				return nil, &SymbolError{Msg: "unexpected out-of-band height class delta"}
			}
			deltaHeight = v
		}
		hcHeight += deltaHeight
		if hcHeight <= 0 || hcHeight > 0xFFFF {
			return nil, &SymbolError{Msg: "symbol dictionary height class out of range"}
		}

		var symWidth int32
		var totalWidth int32
		hcFirstIndex := len(newSymbols)

		for {
			var deltaWidth int32
			var isOOB bool
			if flags.huffman {
				v, oob, herr := dwTable.Decode(r)
				if herr != nil {
					return nil, herr
				}
				deltaWidth, isOOB = v, oob
			} else {
				v, ok := ctx.iadw.decode(ad)
				deltaWidth, isOOB = v, !ok
			}
			if isOOB {
				break
			}
			symWidth += deltaWidth
			if symWidth <= 0 || symWidth > 0xFFFF {
				return nil, &SymbolError{Msg: "symbol dictionary symbol width out of range"}
			}
			totalWidth += symWidth

			if flags.huffman && !flags.refAgg {
				newSymbols = append(newSymbols, NewBitmap(int(symWidth), int(hcHeight)))
				continue
			}

			if !flags.refAgg {
				bitmap := NewBitmap(int(symWidth), int(hcHeight))
				decodeGenericBitmapArithmetic(bitmap, ad, flags.template, false, at, ctx.generic)
				newSymbols = append(newSymbols, bitmap)
				continue
			}

			var numInstances int32
			if flags.huffman {
				v, oob, herr := aggInstTable.Decode(r)
				if herr != nil {
					return nil, herr
				}
				if oob {
					return nil, &HuffmanError{Msg: "unexpected out-of-band aggregate instance count"}
				}
				numInstances = v
			} else {
				v, ok := ctx.iaai.decode(ad)
				if !ok {
					return nil, &SymbolError{Msg: "unexpected out-of-band aggregate instance count"}
				}
				numInstances = v
			}

			allSymbols := make([]*Bitmap, 0, numInput+len(newSymbols))
			allSymbols = append(allSymbols, inputSymbols...)
			allSymbols = append(allSymbols, newSymbols...)

			switch {
			case numInstances == 1:
				bitmap, err := decodeRefinedSymbol(r, ad, ctx, flags, std, allSymbols, symCodeLen, int(symWidth), int(hcHeight), rAt)
				if err != nil {
					return nil, err
				}
				newSymbols = append(newSymbols, bitmap)
			case numInstances > 1:
				bitmap, err := decodeAggregateSymbol(r, ad, ctx, flags, std, allSymbols, symCodeLen, int(symWidth), int(hcHeight), uint32(numInstances), rAt)
				if err != nil {
					return nil, err
				}
				newSymbols = append(newSymbols, bitmap)
			default:
				return nil, &SymbolError{Msg: "symbol dictionary aggregate instance count must be at least 1"}
			}
		}

		if flags.huffman && !flags.refAgg {
			bmSize, oob, herr := bmSizeTable.Decode(r)
			if herr != nil {
				return nil, herr
			}
			if oob {
				return nil, &HuffmanError{Msg: "unexpected out-of-band collective bitmap size"}
			}
			r.alignByte()
			collective := NewBitmap(int(totalWidth), int(hcHeight))
			if bmSize == 0 {
				raw, rerr := readPackedBitmap(r, collective)
				if rerr != nil {
					return nil, rerr
				}
				_ = raw
			} else {
				bytes, rerr := r.readBytes(int(bmSize))
				if rerr != nil {
					return nil, &ParseError{Msg: "unexpected end of data reading collective bitmap"}
				}
				if merr := decodeGenericBitmapMMR(collective, bytes); merr != nil {
					return nil, &RegionError{Msg: merr.Error()}
				}
			}
			xOffset := 0
			for i := hcFirstIndex; i < len(newSymbols); i++ {
				w := newSymbols[i].Width
				sym := NewBitmap(w, int(hcHeight))
				for y := 0; y < int(hcHeight); y++ {
					for x := 0; x < w; x++ {
						sym.SetPixel(x, y, collective.GetPixel(xOffset+x, y))
					}
				}
				newSymbols[i] = sym
				xOffset += w
			}
		}
	}

	allDecoded := make([]*Bitmap, 0, numInput+len(newSymbols))
	allDecoded = append(allDecoded, inputSymbols...)
	allDecoded = append(allDecoded, newSymbols...)

	exported, err := decodeExportFlags(r, ad, flags.huffman, ctx, std, allDecoded, int(numExported))
	if err != nil {
		return nil, err
	}

	var keepContexts *symbolDictionaryContexts
	if flags.bitmapCodingContextRetained {
		keepContexts = ctx
	}

	return &SymbolDictionary{ExportedSymbols: exported, Contexts: keepContexts}, nil
}

// readPackedBitmap reads a bitmap's rows as raw packed bits (used when a
// Huffman-coded height class's collective bitmap size is given as 0,
// meaning uncompressed, 6.5.9).
func readPackedBitmap(r *reader, bitmap *Bitmap) (bool, error) {
	stride := (bitmap.Width + 7) / 8
	for y := 0; y < bitmap.Height; y++ {
		row, err := r.readBytes(stride)
		if err != nil {
			return false, &ParseError{Msg: "unexpected end of data reading uncompressed collective bitmap"}
		}
		for x := 0; x < bitmap.Width; x++ {
			b := row[x/8]
			bit := (b >> (7 - uint(x%8))) & 1
			bitmap.SetPixel(x, y, bit)
		}
	}
	return true, nil
}

// decodeRefinedSymbol decodes a single refinement-coded symbol (6.5.8.2.2):
// IAAI was 1, so this symbol refines one existing symbol directly rather
// than going through the full text region aggregate procedure.
func decodeRefinedSymbol(r *reader, ad *ArithmeticDecoder, ctx *symbolDictionaryContexts, flags *symbolDictionaryFlags, std *StandardHuffmanTables, allSymbols []*Bitmap, symCodeLen uint32, width, height int, rAt []AdaptiveTemplatePixel) (*Bitmap, error) {
	var symbolID uint32
	var rdx, rdy int32

	if flags.huffman {
		v, err := r.readBits(uint8(symCodeLen))
		if err != nil {
			return nil, &ParseError{Msg: "unexpected end of data reading refined symbol ID"}
		}
		symbolID = v
	} else {
		symbolID = decodeIAID(ad, ctx.iaid, symCodeLen)
	}

	if flags.huffman {
		rdxv, oob, err := std.Get(15).Decode(r)
		if err != nil {
			return nil, err
		}
		if oob {
			return nil, &HuffmanError{Msg: "unexpected out-of-band RDX"}
		}
		rdx = rdxv
		rdyv, oob, err := std.Get(15).Decode(r)
		if err != nil {
			return nil, err
		}
		if oob {
			return nil, &HuffmanError{Msg: "unexpected out-of-band RDY"}
		}
		rdy = rdyv
		bmSize, oob, err := std.Get(1).Decode(r)
		if err != nil {
			return nil, err
		}
		if oob {
			return nil, &HuffmanError{Msg: "unexpected out-of-band refined symbol BMSIZE"}
		}
		r.alignByte()
		_ = bmSize
	} else {
		v, ok := ctx.iardx.decode(ad)
		if !ok {
			return nil, &SymbolError{Msg: "unexpected out-of-band RDX"}
		}
		rdx = v
		v, ok = ctx.iardy.decode(ad)
		if !ok {
			return nil, &SymbolError{Msg: "unexpected out-of-band RDY"}
		}
		rdy = v
	}

	if int(symbolID) >= len(allSymbols) {
		return nil, &SymbolError{Msg: "refined symbol references an out-of-range symbol ID"}
	}
	reference := allSymbols[symbolID]

	if flags.huffman {
		ad = NewArithmeticDecoder(r.tail())
	}
	bitmap := NewBitmap(width, height)
	decodeRefinementBitmap(ad, ctx.refinement, bitmap, reference, int(rdx), int(rdy), flags.rTemplate, rAt, false)
	return bitmap, nil
}

// decodeAggregateSymbol decodes a symbol built from more than one symbol
// instance (6.5.8.2.3) by running the full text region placement
// procedure over a canvas the size of the new symbol.
func decodeAggregateSymbol(r *reader, ad *ArithmeticDecoder, ctx *symbolDictionaryContexts, flags *symbolDictionaryFlags, std *StandardHuffmanTables, allSymbols []*Bitmap, symCodeLen uint32, width, height int, numInstances uint32, rAt []AdaptiveTemplatePixel) (*Bitmap, error) {
	if ctx.text == nil {
		ctx.text = newTextRegionState(ad, symCodeLen, flags.rTemplate)
	}
	ctx.text.refinementCx = ctx.refinement

	params := &textRegionParams{
		width:        uint32(width),
		height:       uint32(height),
		combOp:       CombOr,
		refine:       true,
		logStripSize: 0,
		refCorner:    refCornerTopLeft,
		dsOffset:     0,
		refTemplate:  flags.rTemplate,
		refAT:        rAt,
		numInstances: numInstances,
		symbols:      allSymbols,
		symCodeLen:   symCodeLen,
	}

	return decodeTextRegionBitmap(params, ctx.text, r)
}

// decodeExportFlags implements 6.5.10: an alternating run-length code over
// every available symbol (imported then new, in order) selecting which
// ones this dictionary exports.
func decodeExportFlags(r *reader, ad *ArithmeticDecoder, huffman bool, ctx *symbolDictionaryContexts, std *StandardHuffmanTables, allSymbols []*Bitmap, numExported int) ([]*Bitmap, error) {
	exported := make([]*Bitmap, 0, numExported)
	exportFlag := false
	i := 0
	for i < len(allSymbols) {
		var runLength int32
		if huffman {
			v, oob, err := std.Get(1).Decode(r)
			if err != nil {
				return nil, err
			}
			if oob {
				return nil, &HuffmanError{Msg: "unexpected out-of-band export run length"}
			}
			runLength = v
		} else {
			v, ok := ctx.iaex.decode(ad)
			if !ok {
				return nil, &SymbolError{Msg: "unexpected out-of-band export run length"}
			}
			runLength = v
		}
		if runLength < 0 || int(runLength) > len(allSymbols)-i {
			return nil, &SymbolError{Msg: "symbol dictionary export run length out of range"}
		}
		if exportFlag {
			for j := 0; j < int(runLength); j++ {
				exported = append(exported, allSymbols[i+j])
			}
		}
		i += int(runLength)
		exportFlag = !exportFlag
		if runLength == 0 && i == 0 && len(allSymbols) == 0 {
			break
		}
	}
	if len(exported) != numExported {
		return nil, &SymbolError{Msg: "symbol dictionary exported symbol count mismatch"}
	}
	return exported, nil
}
