package gpu

import (
	"errors"
	"image"
)

// ErrFramebufferIncomplete is returned when a framebuffer object fails its
// completeness check.
var ErrFramebufferIncomplete = errors.New("framebuffer is not complete")

// ErrUnknownHandle is returned when a texture or framebuffer handle was
// never created by the device or has already been deleted.
var ErrUnknownHandle = errors.New("unknown gpu handle")

// Texture is a device texture object handle. Zero is never a valid texture.
type Texture uint32

// Framebuffer is a device framebuffer object handle.
type Framebuffer uint32

// DefaultFramebuffer is the visible window surface.
const DefaultFramebuffer Framebuffer = 0

// PixelFormat describes the layout of pixel data handed to CreateTexture.
type PixelFormat int

const (
	// FormatRGB is tightly packed 8-bit red, green, blue.
	FormatRGB PixelFormat = iota
	// FormatRGBA is tightly packed 8-bit red, green, blue, alpha.
	FormatRGBA
)

// BytesPerPixel returns the size of one pixel in the format.
func (f PixelFormat) BytesPerPixel() int {
	if f == FormatRGB {
		return 3
	}
	return 4
}

func (f PixelFormat) String() string {
	switch f {
	case FormatRGB:
		return "RGB"
	case FormatRGBA:
		return "RGBA"
	}
	return "unknown"
}

// Color is a normalised clear color.
type Color struct {
	R, G, B, A float32
}

var (
	Black = Color{0, 0, 0, 1}
	White = Color{1, 1, 1, 1}
)

// Device is the set of GPU operations the viewer needs. Every call names the
// object it operates on; the only state a Device keeps between calls is the
// currently bound framebuffer, which BoundFramebuffer reports.
//
// Pixel rows passed to CreateTexture are bottom row first, the GL
// convention. ReadPixels returns a top-down image.
type Device interface {
	// CreateTexture allocates a 2D texture with linear min and mag
	// filtering and uploads pixels. A nil pixels slice allocates
	// uninitialised storage.
	CreateTexture(width, height int, format PixelFormat, pixels []byte) (Texture, error)
	DeleteTexture(tex Texture)

	// CreateFramebuffer creates a framebuffer object whose sole color
	// attachment is the texture and checks it for completeness. An
	// incomplete framebuffer is deleted and ErrFramebufferIncomplete is
	// returned.
	CreateFramebuffer(attachment Texture) (Framebuffer, error)
	DeleteFramebuffer(fb Framebuffer)

	// SetDefaultSize tells the device the size of the visible surface.
	SetDefaultSize(width, height int)

	BindFramebuffer(fb Framebuffer) error
	BoundFramebuffer() Framebuffer

	// Clear binds fb and clears its color buffer to c.
	Clear(fb Framebuffer, c Color) error

	// DrawQuad binds fb, sets the viewport to its full size and draws the
	// unit quad spanning [-1,1] in both axes, texture-mapped corner to
	// corner. The texture stays bound afterwards.
	DrawQuad(fb Framebuffer, tex Texture) error

	// UnbindTexture releases whatever texture a DrawQuad left bound.
	UnbindTexture()

	// ReadPixels reads back the color buffer of fb.
	ReadPixels(fb Framebuffer) (*image.RGBA, error)

	// Destroy releases device-wide resources (programs, vertex arrays).
	Destroy()
}
