// Package mmr implements the CCITT Group 3/Group 4 two-dimensional
// bi-level image decoder (ITU-T T.4/T.6), usable standalone or as the
// delegate a JBIG2 generic region falls back to when MMR=1.
package mmr

import "errors"

var (
	errInvalidCode  = errors.New("mmr: invalid run or mode code")
	errUnsupported  = errors.New("mmr: unsupported encoding mode")
	errWrongRowSize = errors.New("mmr: coding line has wrong length")
)

// EncodingMode selects the PDF-facing CCITT encoding variant.
type EncodingMode int

const (
	// Group4 is pure two-dimensional (2D) encoding with no EOL codes (PDF K < 0).
	Group4 EncodingMode = iota
	// Group3_1D is pure one-dimensional Modified Huffman encoding with
	// mandatory EOL codes between lines (PDF K = 0).
	Group3_1D
	// Group3_2D mixes 1D reference lines with 2D-coded lines (PDF K > 0).
	// Unsupported: rejected by Decode.
	Group3_2D
)

// DecodeSettings configures a single Decode call.
type DecodeSettings struct {
	Columns             int
	Rows                int
	EndOfBlock          bool
	RowsAreByteAligned  bool
	Encoding            EncodingMode
	// InvertBlack swaps the default polarity (1=white, 0=black) to
	// (1=black, 0=white) for JBIG2 callers, without changing decode logic.
	InvertBlack bool
}

// Decoder is the pixel sink a Decode call writes into.
type Decoder interface {
	// PushByte pushes one packed byte of 8 pixels, MSB = first pixel.
	PushByte(b byte)
	// PushBytes pushes count copies of the same packed byte.
	PushBytes(b byte, count int)
	// NextLine is called when a line is complete.
	NextLine()
}

// bitPacker accumulates individual pixels (MSB-first) into bytes.
type bitPacker struct {
	buffer byte
	count  uint8
}

func (p *bitPacker) pushBit(white bool) (byte, bool) {
	var bit byte
	if white {
		bit = 1
	}
	p.buffer = (p.buffer << 1) | bit
	p.count++
	if p.count == 8 {
		b := p.buffer
		p.buffer, p.count = 0, 0
		return b, true
	}
	return 0, false
}

func (p *bitPacker) hasPending() bool { return p.count > 0 }

func (p *bitPacker) flush() (byte, bool) {
	if p.count == 0 {
		return 0, false
	}
	b := p.buffer << (8 - p.count)
	p.buffer, p.count = 0, 0
	return b, true
}

// decoderContext holds the per-line decoding state: the reference line
// (the line already decoded, or an imaginary all-white line for row 0) and
// the line currently being built, represented as per-pixel color arrays
// indexed 0..columns, with an extra padding slot at columns so pointers
// that reach the right edge don't need a bounds special case.
type decoderContext struct {
	referenceLine []uint8
	codingLine    []uint8
	sink          Decoder
	packer        bitPacker
	b1, b2        int
	maxIdx        int
	isWhite       bool
	decodedRows   int
	settings      *DecodeSettings
}

func newDecoderContext(sink Decoder, settings *DecodeSettings) *decoderContext {
	maxIdx := settings.Columns
	ref := make([]uint8, maxIdx+1)
	return &decoderContext{
		referenceLine: ref,
		codingLine:    make([]uint8, 0, maxIdx+1),
		sink:          sink,
		b1:            maxIdx,
		b2:            maxIdx,
		maxIdx:        maxIdx,
		isWhite:       true,
		settings:      settings,
	}
}

// a0 is the index of the first changing element on the coding line; (-1,
// false) conceptually before any element has been decoded on this line.
func (c *decoderContext) a0() (int, bool) {
	if len(c.codingLine) == 0 {
		return 0, false
	}
	return len(c.codingLine), true
}

func (c *decoderContext) curColor() uint8 {
	if c.isWhite {
		return 0
	}
	return 1
}

func (c *decoderContext) findB1() {
	targetColor := c.curColor() ^ 1

	start := 0
	lastColor := uint8(0)
	if a0, ok := c.a0(); ok {
		start = a0 + 1
		lastColor = c.referenceLine[a0]
	}

	c.b1 = start
	for c.b1 < c.maxIdx {
		cur := c.referenceLine[c.b1]
		if cur != lastColor && cur == targetColor {
			break
		}
		lastColor = cur
		c.b1++
	}
}

func (c *decoderContext) findB2() {
	c.b2 = c.b1
	b1Color := c.referenceLine[c.b1]
	for c.b2 < c.maxIdx {
		if c.referenceLine[c.b2] != b1Color {
			break
		}
		c.b2++
	}
}

func (c *decoderContext) startRun() {
	c.findB1()
	c.findB2()
}

// pushPixels emits count pixels of the current color to both the sink and
// the in-progress coding line.
func (c *decoderContext) pushPixels(count int) {
	white := c.isWhite
	byteVal := byte(0x00)
	if white {
		byteVal = 0xFF
	}
	remaining := count

	for c.packer.hasPending() && remaining > 0 {
		if b, full := c.packer.pushBit(white); full {
			c.sink.PushByte(b)
		}
		remaining--
	}

	if full := remaining / 8; full > 0 {
		c.sink.PushBytes(byteVal, full)
		remaining %= 8
	}

	for i := 0; i < remaining; i++ {
		if b, full := c.packer.pushBit(white); full {
			c.sink.PushByte(b)
		}
	}

	cur := c.curColor()
	for i := 0; i < count; i++ {
		c.codingLine = append(c.codingLine, cur)
	}
}

// checkEOL advances to the next reference line once the coding line has
// reached the right edge, validating the row length.
func (c *decoderContext) checkEOL(r *bitReader) error {
	a0, ok := c.a0()
	if !ok {
		a0 = 0
	}
	if a0 >= c.maxIdx {
		if len(c.codingLine) != c.settings.Columns {
			return errWrongRowSize
		}

		if b, ok := c.packer.flush(); ok {
			c.sink.PushByte(b)
		}

		padded := make([]uint8, c.maxIdx+1)
		copy(padded, c.codingLine)
		c.referenceLine = padded
		c.codingLine = c.codingLine[:0]

		c.isWhite = true
		c.decodedRows++
		c.sink.NextLine()

		if c.settings.RowsAreByteAligned {
			r.align()
		}
	}

	c.startRun()
	return nil
}

// Decode decodes data into sink according to settings, returning the number
// of bytes of data consumed (aligned to a byte boundary).
func Decode(data []byte, sink Decoder, settings *DecodeSettings) (int, error) {
	wrapped := sink
	if settings.InvertBlack {
		wrapped = &invertingSink{sink}
	}

	ctx := newDecoderContext(wrapped, settings)
	r := newBitReader(data)

	var err error
	switch settings.Encoding {
	case Group4:
		err = decodeGroup4(ctx, r)
	case Group3_1D:
		err = decodeGroup3_1D(ctx, r)
	case Group3_2D:
		err = errUnsupported
	default:
		err = errUnsupported
	}
	if err != nil {
		return 0, err
	}

	r.align()
	return r.bytePos(), nil
}

// invertingSink swaps the white/black convention so a JBIG2 caller, which
// treats MMR "black" as pixel value 1, sees the expected polarity.
type invertingSink struct {
	inner Decoder
}

func (s *invertingSink) PushByte(b byte)            { s.inner.PushByte(^b) }
func (s *invertingSink) PushBytes(b byte, count int) { s.inner.PushBytes(^b, count) }
func (s *invertingSink) NextLine()                  { s.inner.NextLine() }

func decodeGroup3_1D(ctx *decoderContext, r *bitReader) error {
	r.readEOLIfAvailable()

	for {
		for {
			a0, ok := ctx.a0()
			if ok && a0 >= ctx.maxIdx {
				break
			}
			run, err := r.decodeRun(ctx.isWhite)
			if err != nil {
				return err
			}
			ctx.pushPixels(run)
			ctx.isWhite = !ctx.isWhite
		}

		if err := ctx.checkEOL(r); err != nil {
			return err
		}

		if r.readEOLIfAvailable() == 6 {
			break
		}
	}
	return nil
}

func decodeGroup4(ctx *decoderContext, r *bitReader) error {
	for {
		if ctx.settings.EndOfBlock {
			if v, ok := r.peekBits(24); ok && v == eofb {
				r.skipBits(24)
				break
			}
			if ctx.settings.Rows > 0 && ctx.decodedRows >= ctx.settings.Rows {
				break
			}
		} else if ctx.decodedRows == ctx.settings.Rows {
			break
		}

		mode, err := r.decodeMode()
		if err != nil {
			return err
		}

		switch mode {
		case modePass:
			a0, _ := ctx.a0()
			ctx.pushPixels(ctx.b2 - a0)
			ctx.startRun()

		case modeHorizontal:
			a0a1, err := r.decodeRun(ctx.isWhite)
			if err != nil {
				return err
			}
			ctx.pushPixels(a0a1)
			ctx.isWhite = !ctx.isWhite

			a1a2, err := r.decodeRun(ctx.isWhite)
			if err != nil {
				return err
			}
			ctx.pushPixels(a1a2)
			ctx.isWhite = !ctx.isWhite

			if err := ctx.checkEOL(r); err != nil {
				return err
			}

		case modeV0, modeVR1, modeVR2, modeVR3, modeVL1, modeVL2, modeVL3:
			delta := verticalDelta(mode)
			a1 := ctx.b1 + delta
			a0, _ := ctx.a0()
			if a1 < a0 {
				return errWrongRowSize
			}
			ctx.pushPixels(a1 - a0)
			ctx.isWhite = !ctx.isWhite

			if err := ctx.checkEOL(r); err != nil {
				return err
			}

		default:
			return errInvalidCode
		}
	}
	return nil
}

func verticalDelta(mode int) int {
	switch mode {
	case modeV0:
		return 0
	case modeVR1:
		return 1
	case modeVR2:
		return 2
	case modeVR3:
		return 3
	case modeVL1:
		return -1
	case modeVL2:
		return -2
	case modeVL3:
		return -3
	}
	return 0
}
