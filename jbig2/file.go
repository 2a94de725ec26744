package jbig2

// fileHeaderMagic is the 8-byte signature that opens a standalone JBIG2
// file (Annex D.4.1).
var fileHeaderMagic = [8]byte{0x97, 0x4A, 0x42, 0x32, 0x0D, 0x0A, 0x1A, 0x0A}

func hasFileHeader(data []byte) bool {
	if len(data) < 8 {
		return false
	}
	for i, b := range fileHeaderMagic {
		if data[i] != b {
			return false
		}
	}
	return true
}

// fileHeaderFlags is the 1-byte flags field following the magic (Annex
// D.4.2): bit 0 set means the number of pages is unknown (no page-count
// field follows); bit 1 selects random-access organization over the
// sequential default.
type fileHeaderFlags struct {
	unknownPageCount bool
	randomAccess     bool
}

// stripFileHeader consumes the file header (magic + flags + optional page
// count) if data opens with one, and reports the organization to parse the
// remainder under. Embedded JBIG2 data (Annex D.3) never carries this
// header; globals and page data are parsed straight as segment streams.
func stripFileHeader(data []byte) ([]byte, fileHeaderFlags, error) {
	if !hasFileHeader(data) {
		return data, fileHeaderFlags{}, nil
	}

	r := newReader(data)
	if err := r.skip(8); err != nil {
		return nil, fileHeaderFlags{}, &ParseError{Msg: "unexpected end of data reading file header magic"}
	}
	flagByte, err := r.readByte()
	if err != nil {
		return nil, fileHeaderFlags{}, &ParseError{Msg: "unexpected end of data reading file header flags"}
	}
	flags := fileHeaderFlags{
		unknownPageCount: flagByte&0x01 != 0,
		randomAccess:     flagByte&0x02 != 0,
	}
	if !flags.unknownPageCount {
		if err := r.skip(4); err != nil {
			return nil, fileHeaderFlags{}, &ParseError{Msg: "unexpected end of data reading file header page count"}
		}
	}
	return r.tail(), flags, nil
}

// parseSegmentsSequential parses a sequential-organization segment stream
// (Annex D.1): each segment's header is immediately followed by its data.
func parseSegmentsSequential(data []byte) ([]*Segment, error) {
	r := newReader(data)
	var segments []*Segment
	for r.len() > 0 {
		header, err := parseSegmentHeader(r)
		if err != nil {
			return nil, err
		}
		seg, err := parseSegmentData(r, header)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
		if header.Type == SegmentEndOfFile {
			break
		}
	}
	return segments, nil
}

// parseSegmentsRandomAccess parses a random-access-organization segment
// stream (Annex D.2): every segment header is parsed first (each declaring
// a known data length), then the data parts follow in the same order.
func parseSegmentsRandomAccess(data []byte) ([]*Segment, error) {
	r := newReader(data)
	var headers []*SegmentHeader
	for r.len() > 0 {
		header, err := parseSegmentHeader(r)
		if err != nil {
			return nil, err
		}
		headers = append(headers, header)
		if header.Type == SegmentEndOfFile {
			break
		}
	}

	segments := make([]*Segment, 0, len(headers))
	for _, header := range headers {
		if !header.lengthKnown() {
			return nil, &FormatError{Msg: "random-access organization requires every segment to declare a known data length"}
		}
		b, err := r.readBytes(int(header.DataLength))
		if err != nil {
			return nil, &ParseError{Segment: header.Number, Msg: "unexpected end of data reading segment body"}
		}
		segments = append(segments, &Segment{Header: header, Data: b})
	}
	return segments, nil
}

// parseSegments parses data (with or without a leading file header) into
// an ordered segment list, per whichever organization its file header (or
// the caller's assumption, for header-less embedded data) declares.
func parseSegments(data []byte) ([]*Segment, error) {
	stripped, flags, err := stripFileHeader(data)
	if err != nil {
		return nil, err
	}
	if flags.randomAccess {
		return parseSegmentsRandomAccess(stripped)
	}
	return parseSegmentsSequential(stripped)
}
