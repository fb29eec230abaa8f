package renderer

import (
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
)

// Target selects the framebuffer a capture hook reads.
type Target int

const (
	Visible Target = iota
	Offscreen
)

// Capture returns a hook that reads back target on every frame selected by
// want and passes the image to sink.
func Capture(target Target, want func(frame int) bool, sink func(img *image.RGBA, frame int) error) FrameHook {
	return func(r *Renderer, frame int) error {
		if !want(frame) {
			return nil
		}
		var img *image.RGBA
		var err error
		if target == Offscreen {
			img, err = r.OffscreenSnapshot()
		} else {
			img, err = r.Snapshot()
		}
		if err != nil {
			return fmt.Errorf("read back failed: %w", err)
		}
		return sink(img, frame)
	}
}

// PNGSink returns a capture sink that writes each image to path.
func PNGSink(path string) func(img *image.RGBA, frame int) error {
	return func(img *image.RGBA, frame int) error {
		if err := WritePNG(path, img); err != nil {
			return err
		}
		log.Printf("Wrote frame %d to %s", frame, path)
		return nil
	}
}

func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
