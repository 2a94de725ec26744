package jbig2

import "sort"

// Decoder is the pixel sink a decoded Image is streamed into. PushPixel is
// the one-bit-at-a-time fallback; PushPixelChunk is only ever called at a
// byte-aligned run of identical pixels, letting a sink that packs its own
// output (a PBM writer, a byte-aligned bitmap) skip per-pixel work.
type Decoder interface {
	PushPixel(black bool)
	PushPixelChunk(black bool, count uint32)
	NextLine()
}

// Image is a fully decoded JBIG2 page.
type Image struct {
	Bitmap *Bitmap
}

func (img *Image) Width() int  { return img.Bitmap.Width }
func (img *Image) Height() int { return img.Bitmap.Height }

// Decode streams the image's pixels into d, one row at a time, chunking
// whole identical bytes through PushPixelChunk and falling back to
// PushPixel for a row's unaligned tail.
func (img *Image) Decode(d Decoder) {
	bm := img.Bitmap
	fullBytes := bm.Width / 8
	remainder := bm.Width % 8

	for y := 0; y < bm.Height; y++ {
		rowStart := y * bm.Stride
		for bi := 0; bi < fullBytes; bi++ {
			b := bm.Data[rowStart+bi]
			switch b {
			case 0xFF:
				d.PushPixelChunk(true, 8)
			case 0x00:
				d.PushPixelChunk(false, 8)
			default:
				for bit := 7; bit >= 0; bit-- {
					d.PushPixel((b>>uint(bit))&1 != 0)
				}
			}
		}
		if remainder > 0 {
			b := bm.Data[rowStart+fullBytes]
			for bit := 7; bit >= 8-remainder; bit-- {
				d.PushPixel((b>>uint(bit))&1 != 0)
			}
		}
		d.NextLine()
	}
}

// Decode parses and decodes a standalone JBIG2 file or a bare sequential
// segment stream, Annex D.1/D.2/D.4.
func Decode(data []byte) (*Image, error) {
	segments, err := parseSegments(data)
	if err != nil {
		return nil, err
	}
	page, err := decodeWithSegments(segments)
	if err != nil {
		return nil, err
	}
	return &Image{Bitmap: page}, nil
}

// DecodeEmbedded decodes a JBIG2 stream embedded in a container format
// (Annex D.3, e.g. PDF's JBIG2Decode filter): globals and data each carry
// their own sequential segment stream with no file header, and every
// segment's number must be unique across the two once merged.
func DecodeEmbedded(data []byte, globals []byte) (*Image, error) {
	var segments []*Segment

	if len(globals) > 0 {
		globalSegments, err := parseSegmentsSequential(globals)
		if err != nil {
			return nil, err
		}
		segments = append(segments, globalSegments...)
	}

	dataSegments, err := parseSegmentsSequential(data)
	if err != nil {
		return nil, err
	}
	segments = append(segments, dataSegments...)

	sort.Slice(segments, func(i, j int) bool {
		return segments[i].Header.Number < segments[j].Header.Number
	})

	page, err := decodeWithSegments(segments)
	if err != nil {
		return nil, err
	}
	return &Image{Bitmap: page}, nil
}
