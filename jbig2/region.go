package jbig2

// RegionSegmentInfo is the 17-byte region segment information field that
// starts every region segment's data (generic, refinement, text, halftone):
// width, height, x/y location in page coordinates, and the external
// combination operator to apply when compositing onto the page (T.88
// 7.4.1).
type RegionSegmentInfo struct {
	Width               uint32
	Height               uint32
	X                    uint32
	Y                    uint32
	CombinationOperator  CombinationOperator
}

func parseRegionSegmentInfo(r *reader) (*RegionSegmentInfo, error) {
	width, err := r.readU32()
	if err != nil {
		return nil, &ParseError{Msg: "unexpected end of data reading region width"}
	}
	height, err := r.readU32()
	if err != nil {
		return nil, &ParseError{Msg: "unexpected end of data reading region height"}
	}
	x, err := r.readU32()
	if err != nil {
		return nil, &ParseError{Msg: "unexpected end of data reading region x location"}
	}
	y, err := r.readU32()
	if err != nil {
		return nil, &ParseError{Msg: "unexpected end of data reading region y location"}
	}
	flags, err := r.readByte()
	if err != nil {
		return nil, &ParseError{Msg: "unexpected end of data reading region flags"}
	}

	return &RegionSegmentInfo{
		Width:               width,
		Height:               height,
		X:                    x,
		Y:                    y,
		CombinationOperator:  CombinationOperator(flags & 0x07),
	}, nil
}

// Template selects the generic region context shape (6.2.5.3, Figures 3-6).
type Template uint8

const (
	Template0 Template = iota
	Template1
	Template2
	Template3
)

func templateFromByte(b byte) Template {
	switch b & 0x03 {
	case 0:
		return Template0
	case 1:
		return Template1
	case 2:
		return Template2
	default:
		return Template3
	}
}

// adaptiveTemplatePixelCount returns how many AT pixel pairs a generic
// region header carries for this template (6.2.5.3).
func (t Template) adaptiveTemplatePixelCount() int {
	if t == Template0 {
		return 4
	}
	return 1
}

// contextBits returns the context size in bits for this template.
func (t Template) contextBits() uint {
	switch t {
	case Template0:
		return 16
	case Template1:
		return 13
	case Template2:
		return 10
	default:
		return 10
	}
}

// AdaptiveTemplatePixel is one AT pixel offset from the current pixel
// (6.2.5.3).
type AdaptiveTemplatePixel struct {
	X, Y int8
}

// parseAdaptiveTemplatePixels reads a generic region's AT pixel offsets
// and validates each references an already-decoded location (6.2.5.3,
// Figure 7): strictly above, or on the current row and strictly to the
// left.
func parseAdaptiveTemplatePixels(r *reader, template Template) ([]AdaptiveTemplatePixel, error) {
	n := template.adaptiveTemplatePixelCount()
	pixels := make([]AdaptiveTemplatePixel, 0, n)
	for i := 0; i < n; i++ {
		x, err := r.readI8()
		if err != nil {
			return nil, &ParseError{Msg: "unexpected end of data reading adaptive template pixel"}
		}
		y, err := r.readI8()
		if err != nil {
			return nil, &ParseError{Msg: "unexpected end of data reading adaptive template pixel"}
		}
		if y > 0 || (y == 0 && x >= 0) {
			return nil, &TemplateError{Msg: "adaptive template pixel does not reference an already-decoded position"}
		}
		pixels = append(pixels, AdaptiveTemplatePixel{X: x, Y: y})
	}
	return pixels, nil
}

// RefinementTemplate selects the generic refinement region context shape
// (6.3.5.3, Figures 12-13).
type RefinementTemplate uint8

const (
	RefinementTemplate0 RefinementTemplate = iota
	RefinementTemplate1
)

func refinementTemplateFromByte(b byte) RefinementTemplate {
	if b&0x01 != 0 {
		return RefinementTemplate1
	}
	return RefinementTemplate0
}

func (t RefinementTemplate) contextBits() uint {
	if t == RefinementTemplate0 {
		return 13
	}
	return 10
}

// parseRefinementAtPixels reads the two AT pixel pairs a template-0
// refinement region header carries (6.3.5.3).
func parseRefinementAtPixels(r *reader) ([]AdaptiveTemplatePixel, error) {
	pixels := make([]AdaptiveTemplatePixel, 0, 2)
	for i := 0; i < 2; i++ {
		x, err := r.readI8()
		if err != nil {
			return nil, &ParseError{Msg: "unexpected end of data reading refinement adaptive template pixel"}
		}
		y, err := r.readI8()
		if err != nil {
			return nil, &ParseError{Msg: "unexpected end of data reading refinement adaptive template pixel"}
		}
		pixels = append(pixels, AdaptiveTemplatePixel{X: x, Y: y})
	}
	return pixels, nil
}
