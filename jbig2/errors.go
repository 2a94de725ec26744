package jbig2

import "fmt"

// ParseError reports a malformed segment header or region info field that
// prevents any further interpretation of the segment.
type ParseError struct {
	Segment uint32
	Msg     string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("jbig2: segment %d: parse error: %s", e.Segment, e.Msg)
}

// FormatError reports a value that parses but violates a structural
// constraint (e.g. a segment list with no page information segment, or an
// unknown-length generic region whose terminator is missing).
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string { return fmt.Sprintf("jbig2: format error: %s", e.Msg) }

// RegionError reports an inconsistency in a region's geometry, such as a
// refinement region larger than its reference bitmap or a zero-sized
// pattern.
type RegionError struct {
	Msg string
}

func (e *RegionError) Error() string { return fmt.Sprintf("jbig2: region error: %s", e.Msg) }

// TemplateError reports an invalid generic or refinement coding template,
// or an adaptive template pixel placed somewhere not yet decoded.
type TemplateError struct {
	Msg string
}

func (e *TemplateError) Error() string { return fmt.Sprintf("jbig2: template error: %s", e.Msg) }

// HuffmanError reports a failure to decode a Huffman-coded value: an
// out-of-band code where none was expected, or a code with no table entry.
type HuffmanError struct {
	Msg string
}

func (e *HuffmanError) Error() string { return fmt.Sprintf("jbig2: huffman error: %s", e.Msg) }

// SymbolError reports an inconsistency while building or referencing a
// symbol dictionary: a missing input symbol, a bad export run, or a symbol
// index out of range in a text region.
type SymbolError struct {
	Msg string
}

func (e *SymbolError) Error() string { return fmt.Sprintf("jbig2: symbol error: %s", e.Msg) }

// SegmentError reports a segment referencing another segment that either
// doesn't exist or violates causality (a forward reference).
type SegmentError struct {
	Segment  uint32
	Referred uint32
	Msg      string
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("jbig2: segment %d referring to %d: %s", e.Segment, e.Referred, e.Msg)
}

// DecodeError wraps any of the above with the segment number and type that
// were being processed when it occurred, using the same "...: %w" wrapping
// convention as the rest of the package.
type DecodeError struct {
	Segment uint32
	Type    SegmentType
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("jbig2: decoding segment %d (%s): %v", e.Segment, e.Type, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func wrapSegment(num uint32, typ SegmentType, err error) error {
	if err == nil {
		return nil
	}
	return &DecodeError{Segment: num, Type: typ, Err: err}
}
