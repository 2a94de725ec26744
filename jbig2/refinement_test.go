package jbig2

import "testing"

// TestRefinementReferenceFallsBackToPage exercises refinementReference's
// fallback path: a refinement segment with no referred segments uses the
// page bitmap as its reference, at origin (0,0).
func TestRefinementReferenceFallsBackToPage(t *testing.T) {
	page := NewBitmap(4, 4)
	page.SetPixel(1, 1, 1)

	ctx := &decodeContext{page: page}
	seg := &Segment{Header: &SegmentHeader{ReferredSegments: nil}}

	bm, x, y := ctx.refinementReference(seg)
	if bm != page {
		t.Fatalf("refinementReference returned bitmap %p, want page %p", bm, page)
	}
	if x != 0 || y != 0 {
		t.Fatalf("refinementReference origin = (%d,%d), want (0,0)", x, y)
	}
}

// TestRefinementReferenceUsesReferredRegion exercises the non-fallback
// branch: when the referenced segment number has a stored region, that
// region and its origin are returned instead of the page.
func TestRefinementReferenceUsesReferredRegion(t *testing.T) {
	page := NewBitmap(4, 4)
	ctx := &decodeContext{page: page}

	referred := NewBitmap(2, 2)
	ctx.storeRegion(7, referred, 3, 5)

	seg := &Segment{Header: &SegmentHeader{ReferredSegments: []uint32{7}}}

	bm, x, y := ctx.refinementReference(seg)
	if bm != referred {
		t.Fatalf("refinementReference returned bitmap %p, want referred region %p", bm, referred)
	}
	if x != 3 || y != 5 {
		t.Fatalf("refinementReference origin = (%d,%d), want (3,5)", x, y)
	}
}
