package jbig2

import "io"

// reader is a forward-only byte cursor over a segment's data with bit-level
// access for the handful of fields (region flags, segment header bytes)
// that are packed tighter than a byte.
type reader struct {
	data   []byte
	pos    int
	bitBuf byte
	bitCnt uint8
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

func (r *reader) len() int { return len(r.data) - r.pos }

func (r *reader) tail() []byte { return r.data[r.pos:] }

func (r *reader) skip(n int) error {
	if n < 0 || r.pos+n > len(r.data) {
		return io.ErrUnexpectedEOF
	}
	r.pos += n
	r.bitBuf, r.bitCnt = 0, 0
	return nil
}

func (r *reader) readByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, io.ErrUnexpectedEOF
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) peekByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, io.ErrUnexpectedEOF
	}
	return r.data[r.pos], nil
}

func (r *reader) readBytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, io.ErrUnexpectedEOF
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) peekBytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, io.ErrUnexpectedEOF
	}
	return r.data[r.pos : r.pos+n], nil
}

func (r *reader) readU16() (uint16, error) {
	b, err := r.readBytes(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

func (r *reader) readU32() (uint32, error) {
	b, err := r.readBytes(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

func (r *reader) readI8() (int8, error) {
	b, err := r.readByte()
	return int8(b), err
}

// readBits reads n (<= 32) bits MSB-first, starting a fresh bit group at the
// current byte if none is in progress. Callers that mix bit reads with byte
// reads must finish a bit group (or call alignByte) before reading bytes.
func (r *reader) readBits(n uint8) (uint32, error) {
	var v uint32
	for i := uint8(0); i < n; i++ {
		if r.bitCnt == 0 {
			b, err := r.readByte()
			if err != nil {
				return 0, err
			}
			r.bitBuf = b
			r.bitCnt = 8
		}
		bit := (r.bitBuf >> 7) & 1
		r.bitBuf <<= 1
		r.bitCnt--
		v = (v << 1) | uint32(bit)
	}
	return v, nil
}

func (r *reader) alignByte() {
	r.bitBuf, r.bitCnt = 0, 0
}
