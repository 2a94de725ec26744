package jbig2

import "testing"

// TestDecodeSymbolDictionaryTemplate3 exercises the non-Huffman,
// non-refinement/aggregate path of decodeSymbolDictionary end to end: one
// new symbol is generic-region-coded under template 3, then exported via
// the IAEX run-length alternation (skip 0, export 1).
func TestDecodeSymbolDictionaryTemplate3(t *testing.T) {
	data := []byte{
		0x0C, 0x00, // flags: huffman=0, refAgg=0, template=3
		0x02, 0xFF, // AT pixel (2, -1)
		0, 0, 0, 1, // number of exported symbols
		0, 0, 0, 1, // number of new symbols
		0x7D, 0x7F, 0xD0, 0x35, 0x74, // arithmetic-coded data
	}

	dict, err := decodeSymbolDictionary(data, nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("decodeSymbolDictionary: %v", err)
	}
	if len(dict.ExportedSymbols) != 1 {
		t.Fatalf("exported %d symbols, want 1", len(dict.ExportedSymbols))
	}

	sym := dict.ExportedSymbols[0]
	if sym.Width != 2 || sym.Height != 2 {
		t.Fatalf("symbol size = %dx%d, want 2x2", sym.Width, sym.Height)
	}
	want := [][]uint8{{1, 0}, {0, 1}}
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			if got := sym.GetPixel(x, y); got != want[y][x] {
				t.Errorf("pixel (%d,%d) = %d, want %d", x, y, got, want[y][x])
			}
		}
	}
}

// TestDecodeSymbolDictionaryExportRunLengthMismatch rejects a dictionary
// whose decoded export flags don't select exactly the declared number of
// exported symbols.
func TestDecodeSymbolDictionaryExportRunLengthMismatch(t *testing.T) {
	data := []byte{
		0x0C, 0x00, // flags: huffman=0, refAgg=0, template=3
		0x02, 0xFF, // AT pixel (2, -1)
		0, 0, 0, 2, // claims 2 exported symbols, but only 1 is ever new
		0, 0, 0, 1,
		0x7D, 0x7F, 0xD0, 0x35, 0x74,
	}

	if _, err := decodeSymbolDictionary(data, nil, nil, nil, nil); err == nil {
		t.Fatal("decodeSymbolDictionary: expected error for export count mismatch")
	}
}
