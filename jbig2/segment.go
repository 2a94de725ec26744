package jbig2

import "fmt"

// SegmentType identifies what a segment's data part contains (T.88 7.3).
// Not all values 0-63 are assigned; everything else is reserved.
type SegmentType uint8

const (
	SegmentSymbolDictionary                        SegmentType = 0
	SegmentIntermediateTextRegion                   SegmentType = 4
	SegmentImmediateTextRegion                      SegmentType = 6
	SegmentImmediateLosslessTextRegion              SegmentType = 7
	SegmentPatternDictionary                        SegmentType = 16
	SegmentIntermediateHalftoneRegion                SegmentType = 20
	SegmentImmediateHalftoneRegion                   SegmentType = 22
	SegmentImmediateLosslessHalftoneRegion           SegmentType = 23
	SegmentIntermediateGenericRegion                 SegmentType = 36
	SegmentImmediateGenericRegion                    SegmentType = 38
	SegmentImmediateLosslessGenericRegion            SegmentType = 39
	SegmentIntermediateGenericRefinementRegion       SegmentType = 40
	SegmentImmediateGenericRefinementRegion          SegmentType = 42
	SegmentImmediateLosslessGenericRefinementRegion  SegmentType = 43
	SegmentPageInformation                           SegmentType = 48
	SegmentEndOfPage                                 SegmentType = 49
	SegmentEndOfStripe                               SegmentType = 50
	SegmentEndOfFile                                 SegmentType = 51
	SegmentProfiles                                  SegmentType = 52
	SegmentTables                                    SegmentType = 53
	SegmentColourPalette                             SegmentType = 54
	SegmentExtension                                 SegmentType = 62
)

func (t SegmentType) String() string {
	switch t {
	case SegmentSymbolDictionary:
		return "symbol dictionary"
	case SegmentIntermediateTextRegion:
		return "intermediate text region"
	case SegmentImmediateTextRegion:
		return "immediate text region"
	case SegmentImmediateLosslessTextRegion:
		return "immediate lossless text region"
	case SegmentPatternDictionary:
		return "pattern dictionary"
	case SegmentIntermediateHalftoneRegion:
		return "intermediate halftone region"
	case SegmentImmediateHalftoneRegion:
		return "immediate halftone region"
	case SegmentImmediateLosslessHalftoneRegion:
		return "immediate lossless halftone region"
	case SegmentIntermediateGenericRegion:
		return "intermediate generic region"
	case SegmentImmediateGenericRegion:
		return "immediate generic region"
	case SegmentImmediateLosslessGenericRegion:
		return "immediate lossless generic region"
	case SegmentIntermediateGenericRefinementRegion:
		return "intermediate generic refinement region"
	case SegmentImmediateGenericRefinementRegion:
		return "immediate generic refinement region"
	case SegmentImmediateLosslessGenericRefinementRegion:
		return "immediate lossless generic refinement region"
	case SegmentPageInformation:
		return "page information"
	case SegmentEndOfPage:
		return "end of page"
	case SegmentEndOfStripe:
		return "end of stripe"
	case SegmentEndOfFile:
		return "end of file"
	case SegmentProfiles:
		return "profiles"
	case SegmentTables:
		return "tables"
	case SegmentColourPalette:
		return "colour palette"
	case SegmentExtension:
		return "extension"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

func segmentTypeFromValue(v uint8) (SegmentType, error) {
	switch SegmentType(v) {
	case SegmentSymbolDictionary, SegmentIntermediateTextRegion, SegmentImmediateTextRegion,
		SegmentImmediateLosslessTextRegion, SegmentPatternDictionary, SegmentIntermediateHalftoneRegion,
		SegmentImmediateHalftoneRegion, SegmentImmediateLosslessHalftoneRegion, SegmentIntermediateGenericRegion,
		SegmentImmediateGenericRegion, SegmentImmediateLosslessGenericRegion, SegmentIntermediateGenericRefinementRegion,
		SegmentImmediateGenericRefinementRegion, SegmentImmediateLosslessGenericRefinementRegion,
		SegmentPageInformation, SegmentEndOfPage, SegmentEndOfStripe, SegmentEndOfFile,
		SegmentProfiles, SegmentTables, SegmentColourPalette, SegmentExtension:
		return SegmentType(v), nil
	default:
		return 0, fmt.Errorf("unknown or reserved segment type %d", v)
	}
}

// SegmentHeader is a parsed segment header (T.88 7.2.1).
type SegmentHeader struct {
	Number            uint32
	Type              SegmentType
	RetainFlag        bool
	PageAssociation   uint32
	ReferredSegments  []uint32
	// DataLength is the length of the segment's data in bytes, or -1 if
	// unknown (only valid for an immediate generic region in sequential
	// organization, signalled by the raw field value 0xFFFFFFFF).
	DataLength int64
}

func (h *SegmentHeader) lengthKnown() bool { return h.DataLength >= 0 }

// parseSegmentHeader parses one segment header, T.88 7.2.
func parseSegmentHeader(r *reader) (*SegmentHeader, error) {
	number, err := r.readU32()
	if err != nil {
		return nil, &ParseError{Msg: "unexpected end of data reading segment number"}
	}

	flags, err := r.readByte()
	if err != nil {
		return nil, &ParseError{Segment: number, Msg: "unexpected end of data reading segment flags"}
	}

	segType, err := segmentTypeFromValue(flags & 0x3F)
	if err != nil {
		return nil, &ParseError{Segment: number, Msg: err.Error()}
	}

	pageAssocLong := flags&0x40 != 0
	retainFlag := flags&0x80 == 0

	countAndRetention, err := r.readByte()
	if err != nil {
		return nil, &ParseError{Segment: number, Msg: "unexpected end of data reading referred-to count"}
	}
	shortCount := (countAndRetention >> 5) & 0x07

	if shortCount == 5 || shortCount == 6 {
		return nil, &ParseError{Segment: number, Msg: "invalid referred-to segment count (values 5 and 6 are reserved)"}
	}

	var referredCount uint32
	if shortCount < 7 {
		referredCount = uint32(shortCount)
	} else {
		rest, err := r.readBytes(3)
		if err != nil {
			return nil, &ParseError{Segment: number, Msg: "unexpected end of data reading long-form referred-to count"}
		}
		referredCount = uint32(countAndRetention&0x1F)<<24 | uint32(rest[0])<<16 | uint32(rest[1])<<8 | uint32(rest[2])

		retentionBytes := (int(referredCount) + 1 + 7) / 8
		if err := r.skip(retentionBytes); err != nil {
			return nil, &ParseError{Segment: number, Msg: "unexpected end of data skipping retention flags"}
		}
	}

	referred := make([]uint32, 0, referredCount)
	for i := uint32(0); i < referredCount; i++ {
		var ref uint32
		var err error
		switch {
		case number <= 256:
			var b byte
			b, err = r.readByte()
			ref = uint32(b)
		case number <= 65536:
			var u uint16
			u, err = r.readU16()
			ref = uint32(u)
		default:
			ref, err = r.readU32()
		}
		if err != nil {
			return nil, &ParseError{Segment: number, Msg: "unexpected end of data reading referred-to segment number"}
		}
		if ref >= number {
			return nil, &SegmentError{Segment: number, Referred: ref, Msg: "segment referred to segment with equal or larger segment number"}
		}
		referred = append(referred, ref)
	}

	var pageAssoc uint32
	if pageAssocLong {
		pageAssoc, err = r.readU32()
	} else {
		var b byte
		b, err = r.readByte()
		pageAssoc = uint32(b)
	}
	if err != nil {
		return nil, &ParseError{Segment: number, Msg: "unexpected end of data reading page association"}
	}

	rawLen, err := r.readU32()
	if err != nil {
		return nil, &ParseError{Segment: number, Msg: "unexpected end of data reading data length"}
	}

	dataLength := int64(rawLen)
	if rawLen == 0xFFFFFFFF {
		dataLength = -1
	}

	return &SegmentHeader{
		Number:           number,
		Type:             segType,
		RetainFlag:       retainFlag,
		PageAssociation:  pageAssoc,
		ReferredSegments: referred,
		DataLength:       dataLength,
	}, nil
}

// Segment is a parsed header plus its data slice.
type Segment struct {
	Header *SegmentHeader
	Data   []byte
}

func parseSegmentData(r *reader, header *SegmentHeader) (*Segment, error) {
	var data []byte
	if header.lengthKnown() {
		b, err := r.readBytes(int(header.DataLength))
		if err != nil {
			return nil, &ParseError{Segment: header.Number, Msg: "unexpected end of data reading segment body"}
		}
		data = b
	} else {
		n, err := scanForImmediateGenericRegionSize(r)
		if err != nil {
			return nil, err
		}
		b, err := r.readBytes(n)
		if err != nil {
			return nil, &ParseError{Segment: header.Number, Msg: "unexpected end of data reading unknown-length region"}
		}
		data = b
	}
	return &Segment{Header: header, Data: data}, nil
}

// scanForImmediateGenericRegionSize finds the end of an immediate generic
// region with declared length 0xFFFFFFFF, per T.88 7.2.7: the form of
// encoding is visible at byte 17 of the region's data, and the terminating
// 2-byte marker (followed by a 4-byte row count) can occur anywhere after
// that.
func scanForImmediateGenericRegionSize(r *reader) (int, error) {
	scan := &reader{data: r.data, pos: r.pos}
	startOffset := scan.pos

	if err := scan.skip(17); err != nil {
		return 0, &ParseError{Msg: "unexpected end of data scanning for unknown-length region size"}
	}
	flags, err := scan.readByte()
	if err != nil {
		return 0, &ParseError{Msg: "unexpected end of data scanning for unknown-length region size"}
	}
	usesMMR := flags&1 != 0

	marker := [2]byte{0xFF, 0xAC}
	if usesMMR {
		marker = [2]byte{0x00, 0x00}
	}

	for {
		peek, err := scan.peekBytes(6)
		if err != nil {
			return 0, &FormatError{Msg: "could not find end marker in unknown-length generic region"}
		}
		if peek[0] == marker[0] && peek[1] == marker[1] {
			return scan.pos - startOffset + 2 + 4, nil
		}
		if err := scan.skip(1); err != nil {
			return 0, &FormatError{Msg: "could not find end marker in unknown-length generic region"}
		}
	}
}
