package jbig2

// huffmanLine is one row of a Huffman table assignment: a prefix length to
// be canonically coded, a range length (bits of an unsigned offset that
// follow the prefix), and the value the offset is added to (or, for a
// "lower range" line, subtracted from). ITU-T T.88 Annex B.1-B.3.
type huffmanLine struct {
	prefLen  uint8
	rangeLen uint8
	rangeLow int32
	isLower  bool
	isOOB    bool
	code     uint32
}

// HuffmanTable decodes values via canonical Huffman codes built from a set
// of (prefix length, range length, range low) lines.
type HuffmanTable struct {
	lines []huffmanLine
}

// newHuffmanTable assigns canonical codes to lines (Annex B.3) and returns
// the constructed table. Lines with prefLen == 0 are unused placeholders
// and receive no code.
func newHuffmanTable(lines []huffmanLine) *HuffmanTable {
	assignCanonicalCodes(lines)
	return &HuffmanTable{lines: lines}
}

func assignCanonicalCodes(lines []huffmanLine) {
	var maxLen uint8
	for _, l := range lines {
		if l.prefLen > maxLen {
			maxLen = l.prefLen
		}
	}
	if maxLen == 0 {
		return
	}

	lenCount := make([]int, maxLen+1)
	for _, l := range lines {
		if l.prefLen > 0 {
			lenCount[l.prefLen]++
		}
	}

	firstCode := make([]uint32, maxLen+1)
	for length := uint8(1); length <= maxLen; length++ {
		firstCode[length] = (firstCode[length-1] + uint32(lenCount[length-1])) << 1
	}

	next := append([]uint32(nil), firstCode...)
	for i := range lines {
		l := &lines[i]
		if l.prefLen == 0 {
			continue
		}
		l.code = next[l.prefLen]
		next[l.prefLen]++
	}
}

// huffmanOOB is the out-of-band sentinel a table decode can return in
// place of a value.
const huffmanOOB = true

// Decode reads one Huffman code from r and returns its decoded value. The
// second return value is true when the code decoded to the out-of-band
// marker, in which case the int32 result is meaningless.
func (t *HuffmanTable) Decode(r *reader) (int32, bool, error) {
	var code uint32
	var length uint8

	for length < 32 {
		bit, err := r.readBits(1)
		if err != nil {
			return 0, false, &HuffmanError{Msg: "unexpected end of data decoding huffman code"}
		}
		code = (code << 1) | bit
		length++

		for i := range t.lines {
			l := &t.lines[i]
			if l.prefLen != length || l.code != code {
				continue
			}
			if l.isOOB {
				return 0, huffmanOOB, nil
			}
			var offset uint32
			if l.rangeLen > 0 {
				offset, err = r.readBits(l.rangeLen)
				if err != nil {
					return 0, false, &HuffmanError{Msg: "unexpected end of data decoding huffman range value"}
				}
			}
			if l.isLower {
				return l.rangeLow - int32(offset), false, nil
			}
			return l.rangeLow + int32(offset), false, nil
		}
	}

	return 0, false, &HuffmanError{Msg: "no matching huffman code found for input bits"}
}

// StandardHuffmanTables holds the fifteen fixed tables of Annex B.5
// (Tables B.1 through B.15), built once per decoder run.
type StandardHuffmanTables struct {
	tables [16]*HuffmanTable
}

// NewStandardHuffmanTables constructs all fifteen standard tables. Indices
// are 1-based (index 0 is unused) to match the table numbers used by
// SDHUFF/SBHUFF selector fields throughout the format.
func NewStandardHuffmanTables() *StandardHuffmanTables {
	s := &StandardHuffmanTables{}
	for i := 1; i <= 15; i++ {
		s.tables[i] = newHuffmanTable(standardTableLines(i))
	}
	return s
}

func (s *StandardHuffmanTables) Get(n int) *HuffmanTable {
	if n < 1 || n > 15 {
		return nil
	}
	return s.tables[n]
}

func line(prefLen, rangeLen uint8, rangeLow int32) huffmanLine {
	return huffmanLine{prefLen: prefLen, rangeLen: rangeLen, rangeLow: rangeLow}
}

func lowerLine(prefLen uint8, rangeLow int32) huffmanLine {
	return huffmanLine{prefLen: prefLen, rangeLen: 32, rangeLow: rangeLow, isLower: true}
}

func oobLine(prefLen uint8) huffmanLine {
	return huffmanLine{prefLen: prefLen, isOOB: true}
}

// standardTableLines returns the (prefix length, range length, range low)
// rows for standard table B.n, per ITU-T T.88 Annex B.5.
func standardTableLines(n int) []huffmanLine {
	switch n {
	case 1:
		return []huffmanLine{
			line(1, 4, 0), line(2, 8, 16), line(3, 16, 272), line(3, 32, 65808),
		}
	case 2:
		return []huffmanLine{
			line(1, 0, 0), line(2, 0, 1), line(3, 0, 2), line(4, 3, 3),
			line(5, 6, 11), line(6, 32, 75), oobLine(6),
		}
	case 3:
		return []huffmanLine{
			line(8, 8, -256), line(1, 0, 0), line(2, 0, 1), line(3, 0, 2),
			line(4, 3, 3), line(5, 6, 11), lowerLine(8, -257), line(7, 32, 75),
			oobLine(6),
		}
	case 4:
		return []huffmanLine{
			line(1, 0, 1), line(2, 0, 2), line(3, 0, 3), line(4, 3, 4),
			line(5, 6, 12), line(5, 32, 76),
		}
	case 5:
		return []huffmanLine{
			line(7, 8, -255), line(1, 0, 1), line(2, 0, 2), line(3, 0, 3),
			line(4, 3, 4), line(5, 6, 12), lowerLine(7, -256), line(6, 32, 76),
		}
	case 6:
		return []huffmanLine{
			line(5, 10, -2048), line(4, 9, -1024), line(4, 8, -512), line(4, 7, -256),
			line(5, 6, -128), line(5, 5, -64), line(4, 5, -32), line(2, 7, 0),
			line(3, 7, 128), line(3, 8, 256), line(4, 9, 512), line(4, 10, 1024),
			lowerLine(6, -2049), line(6, 32, 2048),
		}
	case 7:
		return []huffmanLine{
			line(4, 9, -1024), line(3, 8, -512), line(4, 7, -256), line(5, 6, -128),
			line(5, 5, -64), line(4, 5, -32), line(4, 5, 0), line(5, 5, 32),
			line(5, 6, 64), line(4, 7, 128), line(3, 8, 256), line(3, 9, 512),
			line(3, 10, 1024), lowerLine(5, -1025), line(5, 32, 2048),
		}
	case 8:
		return []huffmanLine{
			line(8, 3, -15), line(9, 1, -7), line(8, 1, -5), line(9, 0, -3),
			line(7, 0, -2), line(4, 0, -1), line(2, 1, 0), line(5, 0, 2),
			line(6, 0, 3), line(3, 4, 4), line(6, 1, 20), line(4, 4, 22),
			line(4, 5, 38), line(5, 6, 70), line(5, 7, 134), line(6, 7, 262),
			line(7, 8, 390), line(6, 10, 646), lowerLine(9, -16), line(9, 32, 1670),
			oobLine(2),
		}
	case 9:
		return []huffmanLine{
			line(8, 4, -31), line(9, 2, -15), line(8, 2, -11), line(9, 1, -7),
			line(7, 1, -5), line(4, 1, -3), line(3, 1, -1), line(3, 1, 1),
			line(5, 1, 3), line(6, 1, 5), line(3, 5, 7), line(6, 2, 39),
			line(4, 5, 43), line(4, 6, 75), line(5, 7, 139), line(5, 8, 267),
			line(6, 8, 523), line(7, 9, 779), line(6, 11, 1291), lowerLine(9, -32),
			line(9, 32, 3339), oobLine(2),
		}
	case 10:
		return []huffmanLine{
			line(7, 4, -21), line(8, 0, -5), line(7, 0, -4), line(5, 0, -3),
			line(2, 2, -2), line(5, 0, 2), line(6, 0, 3), line(7, 0, 4),
			line(8, 0, 5), line(2, 6, 6), line(5, 5, 70), line(6, 5, 102),
			line(6, 6, 134), line(6, 7, 198), line(6, 8, 326), line(6, 9, 582),
			line(6, 10, 1094), line(7, 11, 2118), lowerLine(8, -22), line(8, 32, 4166),
			oobLine(2),
		}
	case 11:
		return []huffmanLine{
			line(1, 0, 1), line(2, 1, 2), line(4, 0, 4), line(4, 1, 5),
			line(5, 1, 7), line(5, 2, 9), line(6, 2, 13), line(7, 2, 17),
			line(7, 3, 21), line(7, 4, 29), line(7, 5, 45), line(7, 6, 77),
			line(7, 32, 141),
		}
	case 12:
		return []huffmanLine{
			line(1, 0, 1), line(2, 0, 2), line(3, 1, 3), line(5, 0, 5),
			line(5, 1, 6), line(6, 1, 8), line(7, 0, 10), line(7, 1, 11),
			line(7, 2, 13), line(7, 3, 17), line(7, 4, 25), line(8, 5, 41),
			line(8, 32, 73),
		}
	case 13:
		return []huffmanLine{
			line(1, 0, 1), line(3, 0, 2), line(4, 0, 3), line(5, 0, 4),
			line(4, 1, 5), line(3, 3, 7), line(6, 1, 15), line(6, 2, 17),
			line(6, 3, 21), line(6, 4, 29), line(6, 5, 45), line(7, 6, 77),
			line(7, 32, 141),
		}
	case 14:
		return []huffmanLine{
			line(3, 0, -2), line(3, 0, -1), line(1, 0, 0), line(3, 0, 1), line(3, 0, 2),
		}
	case 15:
		return []huffmanLine{
			line(7, 4, -24), line(6, 2, -8), line(5, 1, -4), line(4, 0, -2),
			line(3, 0, -1), line(1, 0, 0), line(3, 0, 1), line(4, 0, 2),
			line(5, 1, 3), line(6, 2, 5), line(7, 4, 9), lowerLine(7, -25),
			line(7, 32, 25),
		}
	default:
		return nil
	}
}

// readCustomHuffmanTable parses a user-supplied Huffman table segment
// (type 53), per T.88 Annex B.2 ("Code table structure"). The code table
// flags byte packs, MSB first: a reserved bit, HTRS-1 (3 bits), HTPS-1 (3
// bits), HTOOB (1 bit).
func readCustomHuffmanTable(r *reader) (*HuffmanTable, error) {
	reserved, err := r.readBits(1)
	if err != nil {
		return nil, &HuffmanError{Msg: "unexpected end of data reading table segment flags"}
	}
	if reserved != 0 {
		return nil, &HuffmanError{Msg: "table segment flags: reserved bit must be zero"}
	}

	htrsBits, err := r.readBits(3)
	if err != nil {
		return nil, &HuffmanError{Msg: "unexpected end of data reading table range-length size"}
	}
	htpsBits, err := r.readBits(3)
	if err != nil {
		return nil, &HuffmanError{Msg: "unexpected end of data reading table prefix-length size"}
	}
	htoobBit, err := r.readBits(1)
	if err != nil {
		return nil, &HuffmanError{Msg: "unexpected end of data reading table OOB flag"}
	}

	htrs := uint8(htrsBits) + 1
	htps := uint8(htpsBits) + 1
	hasOOB := htoobBit != 0

	htLowU, err := r.readU32()
	if err != nil {
		return nil, &HuffmanError{Msg: "unexpected end of data reading table low value"}
	}
	htHighU, err := r.readU32()
	if err != nil {
		return nil, &HuffmanError{Msg: "unexpected end of data reading table high value"}
	}
	htLow := int32(htLowU)
	htHigh := int32(htHighU)

	var lines []huffmanLine
	current := htLow
	for current < htHigh {
		prefLen, err := r.readBits(uint8(htps))
		if err != nil {
			return nil, &HuffmanError{Msg: "unexpected end of data reading table prefix length"}
		}
		rangeLen, err := r.readBits(uint8(htrs))
		if err != nil {
			return nil, &HuffmanError{Msg: "unexpected end of data reading table range length"}
		}
		lines = append(lines, line(uint8(prefLen), uint8(rangeLen), current))
		current += int32(1) << rangeLen
	}

	lowerPrefLen, err := r.readBits(uint8(htps))
	if err != nil {
		return nil, &HuffmanError{Msg: "unexpected end of data reading table lower-range prefix length"}
	}
	lines = append(lines, lowerLine(uint8(lowerPrefLen), htLow-1))

	upperPrefLen, err := r.readBits(uint8(htps))
	if err != nil {
		return nil, &HuffmanError{Msg: "unexpected end of data reading table upper-range prefix length"}
	}
	lines = append(lines, line(uint8(upperPrefLen), 32, htHigh))

	if hasOOB {
		oobPrefLen, err := r.readBits(uint8(htps))
		if err != nil {
			return nil, &HuffmanError{Msg: "unexpected end of data reading table OOB prefix length"}
		}
		lines = append(lines, oobLine(uint8(oobPrefLen)))
	}

	return newHuffmanTable(lines), nil
}
