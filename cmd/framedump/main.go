// Command framedump loads an IPL BIOS image and a disc image path, runs
// a fixed number of frames headless through the orchestrator, and
// writes the final framebuffer out as a raw XRGB8888 file. A smoke-test
// tool in the same spirit as the teacher's font-rasterization dump
// tools: no GUI, no audio device, just "does a frame come out".
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	saturn "github.com/zaynotley/brimir-saturn-core"
)

// stubDiscLoader treats the file at path as a single-session disc image
// and derives a title from its filename. Real disc image parsing (ISO
// 9660, MDF/MDS, CCD/BIN session tables) is a host application's
// concern, not this core's; framedump only needs enough of a session to
// drive RunFrame.
type stubDiscLoader struct {
	region byte
}

func (s stubDiscLoader) Load(path string) ([]saturn.DiscSession, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return []saturn.DiscSession{{Title: title, Region: s.region}}, nil
}

func main() {
	biosPath := flag.String("bios", "", "Path to a 512KiB IPL BIOS image (required)")
	discPath := flag.String("disc", "", "Path to a disc image (required)")
	frames := flag.Int("frames", 60, "Number of frames to run before dumping")
	outPath := flag.String("out", "framedump.raw", "Output path for the final framebuffer")
	saveDir := flag.String("save-dir", ".", "Directory for backup RAM / save files")
	systemDir := flag.String("system-dir", ".", "Directory for RTC persistence")
	region := flag.Int("region", 0x01, "Region byte to report for the disc session")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: framedump -bios ipl.bin -disc game.iso [options]\n\nRuns N frames headless and dumps the final framebuffer.\n\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *biosPath == "" || *discPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	o := saturn.NewOrchestrator(stubDiscLoader{region: byte(*region)})
	if err := o.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "error: initialize: %v\n", err)
		os.Exit(1)
	}
	if err := o.LoadIPLFromFile(*biosPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: loading bios: %v\n", err)
		os.Exit(1)
	}
	if err := o.LoadGame(*discPath, *saveDir, *systemDir); err != nil {
		fmt.Fprintf(os.Stderr, "error: loading game: %v\n", err)
		os.Exit(1)
	}

	for i := 0; i < *frames; i++ {
		if err := o.RunFrame(); err != nil {
			fmt.Fprintf(os.Stderr, "error: frame %d: %v\n", i, err)
			os.Exit(1)
		}
	}

	fb := o.GetFramebuffer()
	if err := os.WriteFile(*outPath, fb, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error: writing %s: %v\n", *outPath, err)
		os.Exit(1)
	}

	w, h := o.FramebufferWidth(), o.FramebufferHeight()
	fmt.Printf("wrote %d bytes (%dx%d, pitch %d) to %s after %d frames\n",
		len(fb), w, h, o.FramebufferPitch(), *outPath, *frames)
}
