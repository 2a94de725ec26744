package jbig2

// ArithmeticDecoder implements the MQ-coder defined in ITU-T T.88 Annex E,
// the binary arithmetic entropy coder all arithmetic-coded segment types
// decode through.
type ArithmeticDecoder struct {
	data []byte
	pos  int
	a    uint32
	c    uint32
	ct   int
}

// Context is one entry of a context table: a probability-estimation state
// index paired with the current more-probable-symbol value. Each coding
// procedure (generic region, refinement, symbol ID, integer arithmetic
// decoding) owns its own slice of Contexts, sized and indexed per T.88.
type Context struct {
	index uint8
	mps   uint8
}

// qeTable through switchTable are the QM-coder probability estimation
// states (T.88 Table E.1): Qe magnitude, next state on an MPS exchange,
// next state on an LPS exchange, and whether that exchange also flips MPS.
var qeTable = []uint32{
	0x5601, 0x3401, 0x1801, 0x0AC1, 0x0521, 0x0221, 0x5601, 0x5401,
	0x4801, 0x3801, 0x3001, 0x2401, 0x1C01, 0x1601, 0x5601, 0x5401,
	0x5101, 0x4801, 0x3801, 0x3401, 0x3001, 0x2801, 0x2401, 0x2201,
	0x1C01, 0x1801, 0x1601, 0x1401, 0x1201, 0x1101, 0x0AC1, 0x09C1,
	0x08A1, 0x0521, 0x0441, 0x02A1, 0x0221, 0x0141, 0x0111, 0x0085,
	0x0049, 0x0025, 0x0015, 0x0009, 0x0005, 0x0001, 0x5601,
}

var nmpsTable = []uint8{
	1, 2, 3, 4, 5, 38, 7, 8, 9, 10, 11, 12, 13, 29, 15, 16,
	17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32,
	33, 34, 35, 36, 37, 38, 39, 40, 41, 42, 43, 44, 45, 45, 46,
}

var nlpsTable = []uint8{
	1, 6, 9, 12, 29, 33, 6, 14, 14, 14, 17, 18, 20, 21, 14, 14,
	15, 16, 17, 18, 19, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29,
	30, 31, 32, 33, 34, 35, 36, 37, 38, 39, 40, 41, 42, 43, 46,
}

// switchTable marks the three QM-coder states where an LPS/MPS exchange
// also flips MPS, T.88 Table E.1.
var switchTable = []uint8{
	1, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 1, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// NewArithmeticDecoder initializes the decoder's A and C registers from
// the first two bytes of data (INITDEC, T.88 Annex E.3.5).
func NewArithmeticDecoder(data []byte) *ArithmeticDecoder {
	d := &ArithmeticDecoder{data: data, a: 0x8000}
	d.c = uint32(d.nextByte()) << 16
	d.byteIn()
	d.c <<= 7
	d.ct -= 7
	return d
}

func (d *ArithmeticDecoder) nextByte() byte {
	if d.pos >= len(d.data) {
		return 0xFF
	}
	b := d.data[d.pos]
	d.pos++
	return b
}

func (d *ArithmeticDecoder) peekByte() byte {
	if d.pos >= len(d.data) {
		return 0xFF
	}
	return d.data[d.pos]
}

// byteIn implements the BYTEIN procedure, which stuffs a 0 bit after any
// 0xFF byte so the coder never produces a false marker sequence.
func (d *ArithmeticDecoder) byteIn() {
	if d.pos > 0 && d.data[minInt(d.pos-1, len(d.data)-1)] == 0xFF {
		if d.peekByte() > 0x8F {
			d.c += 0xFF00
			d.ct = 8
		} else {
			d.c += uint32(d.nextByte()) << 9
			d.ct = 7
		}
	} else {
		d.c += uint32(d.nextByte()) << 8
		d.ct = 8
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Decode decodes one bit under cx, updating cx's probability state in
// place (T.88 Annex E.3.2, DECODE procedure).
func (d *ArithmeticDecoder) Decode(cx *Context) int {
	qe := qeTable[cx.index]
	d.a -= qe

	var bit int
	if (d.c >> 16) < qe {
		// LPS exchange path (C_high < Qe selects the smaller sub-interval).
		if d.a < qe {
			bit = int(cx.mps)
			cx.index = nmpsTable[cx.index]
		} else {
			bit = int(1 - cx.mps)
			if switchTable[cx.index] == 1 {
				cx.mps = 1 - cx.mps
			}
			cx.index = nlpsTable[cx.index]
		}
		d.a = qe
	} else {
		d.c -= qe << 16
		if d.a&0x8000 != 0 {
			return int(cx.mps)
		}
		if d.a < qe {
			bit = int(1 - cx.mps)
			if switchTable[cx.index] == 1 {
				cx.mps = 1 - cx.mps
			}
			cx.index = nlpsTable[cx.index]
		} else {
			bit = int(cx.mps)
			cx.index = nmpsTable[cx.index]
		}
	}

	for d.a&0x8000 == 0 {
		if d.ct == 0 {
			d.byteIn()
		}
		d.a <<= 1
		d.c <<= 1
		d.ct--
	}

	return bit
}
