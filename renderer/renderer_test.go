package renderer

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/richinsley/gofboview/gpu"
	"github.com/richinsley/gofboview/softgpu"
	"github.com/richinsley/gofboview/texture"
)

// fakeContext is a windowless graphics.Context whose close flag is driven by
// the test.
type fakeContext struct {
	width, height int
	closed        bool
	swaps         int
	polls         int
	shutdown      bool
}

func (c *fakeContext) MakeCurrent()                   {}
func (c *fakeContext) Shutdown()                      { c.shutdown = true }
func (c *fakeContext) ShouldClose() bool              { return c.closed }
func (c *fakeContext) SwapBuffers()                   { c.swaps++ }
func (c *fakeContext) PollEvents()                    { c.polls++ }
func (c *fakeContext) GetFramebufferSize() (int, int) { return c.width, c.height }
func (c *fakeContext) Time() float64                  { return float64(c.swaps) / 60 }
func (c *fakeContext) IsGLES() bool                   { return false }

var (
	red    = color.RGBA{255, 0, 0, 255}
	green  = color.RGBA{0, 255, 0, 255}
	blue   = color.RGBA{0, 0, 255, 255}
	yellow = color.RGBA{255, 255, 0, 255}
)

// writeCorners writes a 2x2 PNG: red green on top, blue yellow below.
func writeCorners(t *testing.T) (string, *image.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(0, 0, red)
	img.SetRGBA(1, 0, green)
	img.SetRGBA(0, 1, blue)
	img.SetRGBA(1, 1, yellow)

	path := filepath.Join(t.TempDir(), "corners.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path, img
}

func newTestRenderer(t *testing.T, width, height int) (*Renderer, *fakeContext, *softgpu.Device) {
	t.Helper()
	ctx := &fakeContext{width: width, height: height}
	dev := softgpu.New(width, height)
	return New(ctx, dev), ctx, dev
}

func near(a, b color.RGBA, tolerance int) bool {
	d := func(x, y uint8) bool {
		diff := int(x) - int(y)
		return diff <= tolerance && diff >= -tolerance
	}
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B) && d(a.A, b.A)
}

func TestInit(t *testing.T) {
	path, _ := writeCorners(t)
	r, _, dev := newTestRenderer(t, 512, 512)

	if r.State() != StateUninitialized {
		t.Fatalf("State() = %v before Init", r.State())
	}
	if err := r.Init(path); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if r.State() != StateInitialized {
		t.Errorf("State() = %v, want initialized", r.State())
	}
	if w, h := r.ImageSize(); w != 2 || h != 2 {
		t.Errorf("ImageSize() = %dx%d, want 2x2", w, h)
	}
	if r.Framebuffer() == gpu.DefaultFramebuffer {
		t.Error("no framebuffer object was created")
	}
	if r.Texture() == 0 {
		t.Error("no texture was created")
	}
	if dev.BoundFramebuffer() != gpu.DefaultFramebuffer {
		t.Errorf("BoundFramebuffer() = %d after Init, want default", dev.BoundFramebuffer())
	}
	// source texture plus the framebuffer attachment
	if dev.Textures() != 2 || dev.Framebuffers() != 1 {
		t.Errorf("Textures() = %d, Framebuffers() = %d, want 2 and 1", dev.Textures(), dev.Framebuffers())
	}

	if err := r.Init(path); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second Init() error = %v, want ErrAlreadyInitialized", err)
	}
}

func TestInitMissingImage(t *testing.T) {
	r, _, dev := newTestRenderer(t, 64, 64)
	err := r.Init(filepath.Join(t.TempDir(), "missing.jpg"))
	if !errors.Is(err, texture.ErrDecode) {
		t.Fatalf("Init() error = %v, want ErrDecode", err)
	}
	if r.State() != StateUninitialized {
		t.Errorf("State() = %v after failed Init", r.State())
	}
	if dev.Textures() != 0 || dev.Framebuffers() != 0 {
		t.Errorf("failed Init left %d textures and %d framebuffers", dev.Textures(), dev.Framebuffers())
	}
	if err := r.RenderFrame(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("RenderFrame() error = %v, want ErrNotInitialized", err)
	}
}

func TestZeroSizeAttachmentIsIncomplete(t *testing.T) {
	r, _, dev := newTestRenderer(t, 64, 64)
	err := r.createFramebuffer(0, 0)
	if !errors.Is(err, gpu.ErrFramebufferIncomplete) {
		t.Fatalf("createFramebuffer(0, 0) error = %v, want ErrFramebufferIncomplete", err)
	}
	if dev.Textures() != 0 || dev.Framebuffers() != 0 {
		t.Errorf("incomplete framebuffer left %d textures and %d framebuffers", dev.Textures(), dev.Framebuffers())
	}
}

func TestRenderFrameLeavesDefaultBound(t *testing.T) {
	path, _ := writeCorners(t)
	r, ctx, dev := newTestRenderer(t, 32, 32)
	if err := r.Init(path); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		// start each frame with the off-screen target bound
		if err := dev.BindFramebuffer(r.Framebuffer()); err != nil {
			t.Fatal(err)
		}
		if err := r.RenderFrame(); err != nil {
			t.Fatalf("RenderFrame() #%d error = %v", i, err)
		}
		if got := dev.BoundFramebuffer(); got != gpu.DefaultFramebuffer {
			t.Fatalf("after frame %d BoundFramebuffer() = %d, want default", i, got)
		}
		if dev.BoundTexture() != 0 {
			t.Fatalf("after frame %d texture %d is still bound", i, dev.BoundTexture())
		}
	}
	if ctx.swaps != 5 || r.Frames() != 5 {
		t.Errorf("swaps = %d, Frames() = %d, want 5", ctx.swaps, r.Frames())
	}
}

func TestRenderCorners(t *testing.T) {
	path, src := writeCorners(t)
	r, _, _ := newTestRenderer(t, 512, 512)
	if err := r.Init(path); err != nil {
		t.Fatal(err)
	}
	if err := r.RenderFrame(); err != nil {
		t.Fatal(err)
	}

	img, err := r.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if img.Rect.Dx() != 512 || img.Rect.Dy() != 512 {
		t.Fatalf("Snapshot() size = %v, want 512x512", img.Rect)
	}
	corners := []struct {
		name   string
		x, y   int
		sx, sy int
	}{
		{"top left", 0, 0, 0, 0},
		{"top right", 511, 0, 1, 0},
		{"bottom left", 0, 511, 0, 1},
		{"bottom right", 511, 511, 1, 1},
	}
	for _, c := range corners {
		got := img.RGBAAt(c.x, c.y)
		want := src.RGBAAt(c.sx, c.sy)
		if !near(got, want, 2) {
			t.Errorf("%s = %v, want %v", c.name, got, want)
		}
	}
}

func TestOffscreenPass(t *testing.T) {
	path, src := writeCorners(t)
	r, _, _ := newTestRenderer(t, 128, 128)
	if _, err := r.OffscreenSnapshot(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("OffscreenSnapshot() before Init error = %v", err)
	}
	if err := r.Init(path); err != nil {
		t.Fatal(err)
	}
	if err := r.RenderFrame(); err != nil {
		t.Fatal(err)
	}

	img, err := r.OffscreenSnapshot()
	if err != nil {
		t.Fatalf("OffscreenSnapshot() error = %v", err)
	}
	// attachment has the image's size so the pass is a straight copy
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			if got, want := img.RGBAAt(x, y), src.RGBAAt(x, y); got != want {
				t.Errorf("off-screen pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestRunStopsWhenClosed(t *testing.T) {
	path, _ := writeCorners(t)
	r, ctx, _ := newTestRenderer(t, 16, 16)
	if err := r.Run(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("Run() before Init error = %v", err)
	}
	if err := r.Init(path); err != nil {
		t.Fatal(err)
	}

	var rendered []int
	closeAt := func(r *Renderer, frame int) error {
		rendered = append(rendered, frame)
		if frame == 2 {
			ctx.closed = true
		}
		return nil
	}
	if err := r.Run(closeAt); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(rendered) != 3 || r.Frames() != 3 {
		t.Errorf("rendered %v (%d frames), want exactly frames 0..2", rendered, r.Frames())
	}
	if ctx.polls != 3 {
		t.Errorf("polls = %d, want 3", ctx.polls)
	}
	if r.State() != StateRunning {
		t.Errorf("State() = %v after Run, want running", r.State())
	}
	if err := r.Run(); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() error = %v, want ErrAlreadyRunning", err)
	}
}

func TestRunClosedBeforeFirstFrame(t *testing.T) {
	path, _ := writeCorners(t)
	r, ctx, _ := newTestRenderer(t, 16, 16)
	if err := r.Init(path); err != nil {
		t.Fatal(err)
	}
	ctx.closed = true
	if err := r.Run(); err != nil {
		t.Fatal(err)
	}
	if r.Frames() != 0 || ctx.swaps != 0 {
		t.Errorf("rendered %d frames after close was requested", r.Frames())
	}
}

func TestHookErrorStopsRun(t *testing.T) {
	path, _ := writeCorners(t)
	r, ctx, _ := newTestRenderer(t, 16, 16)
	if err := r.Init(path); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	err := r.Run(func(r *Renderer, frame int) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want hook error", err)
	}
	if ctx.swaps != 0 {
		t.Errorf("frame was presented after its hook failed")
	}
}

func TestShutdown(t *testing.T) {
	path, _ := writeCorners(t)
	r, ctx, dev := newTestRenderer(t, 16, 16)
	if err := r.Init(path); err != nil {
		t.Fatal(err)
	}
	r.Shutdown()
	if dev.Textures() != 0 || dev.Framebuffers() != 0 {
		t.Errorf("Shutdown() left %d textures and %d framebuffers", dev.Textures(), dev.Framebuffers())
	}
	if !ctx.shutdown {
		t.Error("Shutdown() did not shut down the context")
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateUninitialized: "uninitialized",
		StateInitialized:   "initialized",
		StateRunning:       "running",
		State(42):          "unknown",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), s.String(), want)
		}
	}
}
