package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/novvoo/jbig2/jbig2"
)

var (
	globalsFile string
	outputFile  string
	printInfo   bool
	printVersion bool
	printHelp   bool
)

func init() {
	flag.StringVar(&globalsFile, "globals", "", "globals stream to decode alongside an embedded data stream")
	flag.StringVar(&outputFile, "o", "", "output PBM file (default: stdout)")
	flag.BoolVar(&printInfo, "info", false, "print page dimensions instead of writing a PBM")
	flag.BoolVar(&printVersion, "v", false, "print version info")
	flag.BoolVar(&printHelp, "h", false, "print usage information")
	flag.BoolVar(&printHelp, "help", false, "print usage information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "jbig2dump version 1.0.0\n\n")
		fmt.Fprintf(os.Stderr, "Usage: jbig2dump [options] <jbig2-file>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fmt.Fprintf(os.Stderr, "  -globals <string> : globals stream to decode alongside an embedded data stream\n")
		fmt.Fprintf(os.Stderr, "  -o <string>       : output PBM file (default: stdout)\n")
		fmt.Fprintf(os.Stderr, "  -info             : print page dimensions instead of writing a PBM\n")
		fmt.Fprintf(os.Stderr, "  -v                : print version info\n")
		fmt.Fprintf(os.Stderr, "  -h                : print usage information\n")
	}
}

func main() {
	flag.Parse()

	if printVersion {
		fmt.Println("jbig2dump version 1.0.0")
		os.Exit(0)
	}
	if printHelp {
		flag.Usage()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Couldn't open file '%s': %v\n", args[0], err)
		os.Exit(1)
	}

	var img *jbig2.Image
	if globalsFile != "" {
		globals, gerr := os.ReadFile(globalsFile)
		if gerr != nil {
			fmt.Fprintf(os.Stderr, "Error: Couldn't open globals file '%s': %v\n", globalsFile, gerr)
			os.Exit(1)
		}
		img, err = jbig2.DecodeEmbedded(data, globals)
	} else {
		img, err = jbig2.Decode(data)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Couldn't decode '%s': %v\n", args[0], err)
		os.Exit(1)
	}

	if printInfo {
		fmt.Printf("Width:  %d\n", img.Width())
		fmt.Printf("Height: %d\n", img.Height())
		os.Exit(0)
	}

	out := os.Stdout
	if outputFile != "" {
		f, cerr := os.Create(outputFile)
		if cerr != nil {
			fmt.Fprintf(os.Stderr, "Error: Couldn't create file '%s': %v\n", outputFile, cerr)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	if err := writePBM(out, img); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Couldn't write PBM: %v\n", err)
		os.Exit(1)
	}
}

// pbmWriter adapts jbig2.Decoder to emit a P4 (binary) PBM, packing pixels
// MSB-first per row with 1 meaning black, matching the JBIG2 convention.
type pbmWriter struct {
	w       *bufio.Writer
	buf     byte
	nbits   uint8
	written int
}

func (p *pbmWriter) PushPixel(black bool) {
	var bit byte
	if black {
		bit = 1
	}
	p.buf = (p.buf << 1) | bit
	p.nbits++
	if p.nbits == 8 {
		p.w.WriteByte(p.buf)
		p.buf, p.nbits = 0, 0
	}
}

func (p *pbmWriter) PushPixelChunk(black bool, count uint32) {
	for i := uint32(0); i < count; i++ {
		p.PushPixel(black)
	}
}

func (p *pbmWriter) NextLine() {
	if p.nbits > 0 {
		p.w.WriteByte(p.buf << (8 - p.nbits))
		p.buf, p.nbits = 0, 0
	}
}

func writePBM(f *os.File, img *jbig2.Image) error {
	w := bufio.NewWriter(f)
	if _, err := fmt.Fprintf(w, "P4\n%d %d\n", img.Width(), img.Height()); err != nil {
		return err
	}
	sink := &pbmWriter{w: w}
	img.Decode(sink)
	return w.Flush()
}
