package renderer

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestCapturePNG(t *testing.T) {
	path, src := writeCorners(t)
	r, ctx, _ := newTestRenderer(t, 64, 64)
	if err := r.Init(path); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "snap.png")
	fboOut := filepath.Join(t.TempDir(), "fbo.png")
	last := func(frame int) bool { return frame == 1 }
	hooks := []FrameHook{
		Capture(Visible, last, PNGSink(out)),
		Capture(Offscreen, last, PNGSink(fboOut)),
		func(r *Renderer, frame int) error {
			if frame == 1 {
				ctx.closed = true
			}
			return nil
		},
	}
	if err := r.Run(hooks...); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	snap := readPNG(t, out)
	if snap.Bounds().Dx() != 64 || snap.Bounds().Dy() != 64 {
		t.Fatalf("snapshot size = %v, want 64x64", snap.Bounds())
	}
	r0, g0, b0, _ := snap.At(0, 0).RGBA()
	if r0>>8 != uint32(src.RGBAAt(0, 0).R) || g0>>8 != 0 || b0>>8 != 0 {
		t.Errorf("snapshot top left = %v, want red", snap.At(0, 0))
	}

	fbo := readPNG(t, fboOut)
	if fbo.Bounds().Dx() != 2 || fbo.Bounds().Dy() != 2 {
		t.Errorf("off-screen snapshot size = %v, want 2x2", fbo.Bounds())
	}
}

func TestCaptureSkipsUnwantedFrames(t *testing.T) {
	path, _ := writeCorners(t)
	r, _, _ := newTestRenderer(t, 8, 8)
	if err := r.Init(path); err != nil {
		t.Fatal(err)
	}
	calls := 0
	hook := Capture(Visible, func(frame int) bool { return frame%2 == 0 }, func(img *image.RGBA, frame int) error {
		calls++
		return nil
	})
	for i := 0; i < 4; i++ {
		if err := r.renderFrame([]FrameHook{hook}); err != nil {
			t.Fatal(err)
		}
	}
	if calls != 2 {
		t.Errorf("sink called %d times, want 2", calls)
	}
}

func readPNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	return img
}
