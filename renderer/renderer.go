// Package renderer draws a loaded image texture into an off-screen
// framebuffer object and onto the visible surface of a graphics context.
package renderer

import (
	"errors"
	"fmt"
	"image"
	"log"

	"github.com/richinsley/gofboview/gpu"
	"github.com/richinsley/gofboview/graphics"
	"github.com/richinsley/gofboview/texture"
)

var (
	// ErrNotInitialized is returned when drawing or reading back before a
	// successful Init.
	ErrNotInitialized = errors.New("renderer is not initialized")
	// ErrAlreadyInitialized is returned by a second call to Init.
	ErrAlreadyInitialized = errors.New("renderer is already initialized")
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("renderer is already running")
)

// FrameHook runs after a frame is drawn and before it is presented, while the
// visible framebuffer still holds the frame.
type FrameHook func(r *Renderer, frame int) error

type Renderer struct {
	context graphics.Context
	device  gpu.Device

	fbo        gpu.Framebuffer
	attachment gpu.Texture // sole color attachment of fbo
	texture    gpu.Texture

	// recorded at load time only
	imageWidth  int
	imageHeight int

	state  State
	frames int
}

func New(ctx graphics.Context, dev gpu.Device) *Renderer {
	return &Renderer{
		context: ctx,
		device:  dev,
	}
}

// Init loads the texture from imagePath and builds the off-screen
// framebuffer. Nothing is left allocated when it fails.
func (r *Renderer) Init(imagePath string) error {
	if r.state != StateUninitialized {
		return ErrAlreadyInitialized
	}

	img, err := texture.Load(r.device, imagePath)
	if err != nil {
		return fmt.Errorf("failed to load texture: %w", err)
	}
	r.texture = img.Texture
	r.imageWidth = img.Width
	r.imageHeight = img.Height

	if err := r.createFramebuffer(img.Width, img.Height); err != nil {
		r.device.DeleteTexture(r.texture)
		r.texture = 0
		return err
	}

	r.state = StateInitialized
	log.Printf("Renderer initialized: %dx%d texture, framebuffer %d", r.imageWidth, r.imageHeight, r.fbo)
	return nil
}

// createFramebuffer builds the off-screen target with a color attachment of
// the given size and leaves the default framebuffer bound.
func (r *Renderer) createFramebuffer(width, height int) error {
	attachment, err := r.device.CreateTexture(width, height, gpu.FormatRGBA, nil)
	if err != nil {
		return fmt.Errorf("failed to create framebuffer attachment: %w", err)
	}
	fbo, err := r.device.CreateFramebuffer(attachment)
	if err != nil {
		r.device.DeleteTexture(attachment)
		return fmt.Errorf("failed to create framebuffer: %w", err)
	}
	if err := r.device.BindFramebuffer(gpu.DefaultFramebuffer); err != nil {
		r.device.DeleteFramebuffer(fbo)
		r.device.DeleteTexture(attachment)
		return err
	}
	r.fbo = fbo
	r.attachment = attachment
	return nil
}

// RenderFrame draws and presents one frame. The default framebuffer is bound
// when it returns.
func (r *Renderer) RenderFrame() error {
	return r.renderFrame(nil)
}

func (r *Renderer) renderFrame(hooks []FrameHook) error {
	if r.state == StateUninitialized {
		return ErrNotInitialized
	}
	if err := r.draw(); err != nil {
		return err
	}
	for _, hook := range hooks {
		if err := hook(r, r.frames); err != nil {
			return fmt.Errorf("frame %d: %w", r.frames, err)
		}
	}
	r.context.SwapBuffers()
	r.frames++
	return nil
}

func (r *Renderer) draw() error {
	width, height := r.context.GetFramebufferSize()
	r.device.SetDefaultSize(width, height)

	// off-screen pass, the texture stays bound afterwards
	if err := r.drawPass(r.fbo, gpu.Black); err != nil {
		return fmt.Errorf("off-screen pass: %w", err)
	}
	if err := r.device.BindFramebuffer(gpu.DefaultFramebuffer); err != nil {
		return err
	}

	// visible pass
	if err := r.drawPass(gpu.DefaultFramebuffer, gpu.White); err != nil {
		return fmt.Errorf("visible pass: %w", err)
	}
	r.device.UnbindTexture()
	return nil
}

func (r *Renderer) drawPass(target gpu.Framebuffer, clear gpu.Color) error {
	if err := r.device.Clear(target, clear); err != nil {
		return err
	}
	return r.device.DrawQuad(target, r.texture)
}

// Run renders frames until the context asks to close, polling events after
// each frame. The close flag is checked before every frame.
func (r *Renderer) Run(hooks ...FrameHook) error {
	switch r.state {
	case StateUninitialized:
		return ErrNotInitialized
	case StateRunning:
		return ErrAlreadyRunning
	}
	r.state = StateRunning

	log.Println("Starting render loop...")
	for !r.context.ShouldClose() {
		if err := r.renderFrame(hooks); err != nil {
			return err
		}
		r.context.PollEvents()
	}
	log.Printf("Render loop finished after %d frame(s)", r.frames)
	return nil
}

// Snapshot reads back the visible framebuffer as a top-down image.
func (r *Renderer) Snapshot() (*image.RGBA, error) {
	if r.state == StateUninitialized {
		return nil, ErrNotInitialized
	}
	return r.device.ReadPixels(gpu.DefaultFramebuffer)
}

// OffscreenSnapshot reads back the off-screen framebuffer as a top-down
// image.
func (r *Renderer) OffscreenSnapshot() (*image.RGBA, error) {
	if r.state == StateUninitialized {
		return nil, ErrNotInitialized
	}
	return r.device.ReadPixels(r.fbo)
}

// Shutdown releases the framebuffer before the textures it depends on, then
// the device and the context.
func (r *Renderer) Shutdown() {
	if r.fbo != 0 {
		r.device.DeleteFramebuffer(r.fbo)
		r.fbo = 0
	}
	if r.attachment != 0 {
		r.device.DeleteTexture(r.attachment)
		r.attachment = 0
	}
	if r.texture != 0 {
		r.device.DeleteTexture(r.texture)
		r.texture = 0
	}
	r.device.Destroy()
	r.context.Shutdown()
}

func (r *Renderer) State() State { return r.state }

// Frames returns the number of frames presented.
func (r *Renderer) Frames() int { return r.frames }

// ImageSize returns the dimensions recorded when the image was loaded.
func (r *Renderer) ImageSize() (int, int) { return r.imageWidth, r.imageHeight }

func (r *Renderer) Texture() gpu.Texture { return r.texture }

func (r *Renderer) Framebuffer() gpu.Framebuffer { return r.fbo }
