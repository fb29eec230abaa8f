// Package softgpu implements gpu.Device in memory. Texture and framebuffer
// storage is kept in GL row order (bottom row first) so that draws map
// texture coordinates exactly as the GL backend does.
package softgpu

import (
	"fmt"
	"image"
	"image/color"

	"github.com/richinsley/gofboview/gpu"
	xdraw "golang.org/x/image/draw"
)

type Device struct {
	textures     map[gpu.Texture]*image.RGBA
	framebuffers map[gpu.Framebuffer]gpu.Texture
	surface      *image.RGBA

	nextTexture     gpu.Texture
	nextFramebuffer gpu.Framebuffer

	bound        gpu.Framebuffer
	boundTexture gpu.Texture
}

// New returns a device whose default framebuffer is width x height.
func New(width, height int) *Device {
	d := &Device{
		textures:     make(map[gpu.Texture]*image.RGBA),
		framebuffers: make(map[gpu.Framebuffer]gpu.Texture),
	}
	d.SetDefaultSize(width, height)
	return d
}

func (d *Device) CreateTexture(width, height int, format gpu.PixelFormat, pixels []byte) (gpu.Texture, error) {
	if width < 0 || height < 0 {
		return 0, fmt.Errorf("invalid texture size %dx%d", width, height)
	}
	bpp := format.BytesPerPixel()
	if pixels != nil && len(pixels) < width*height*bpp {
		return 0, fmt.Errorf("texture data too short: got %d bytes, want %d", len(pixels), width*height*bpp)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if pixels != nil {
		for i := 0; i < width*height; i++ {
			src := pixels[i*bpp:]
			dst := img.Pix[i*4:]
			dst[0], dst[1], dst[2] = src[0], src[1], src[2]
			if format == gpu.FormatRGBA {
				dst[3] = src[3]
			} else {
				dst[3] = 0xff
			}
		}
	}

	d.nextTexture++
	d.textures[d.nextTexture] = img
	return d.nextTexture, nil
}

func (d *Device) DeleteTexture(tex gpu.Texture) {
	delete(d.textures, tex)
	if d.boundTexture == tex {
		d.boundTexture = 0
	}
}

func (d *Device) CreateFramebuffer(attachment gpu.Texture) (gpu.Framebuffer, error) {
	img, ok := d.textures[attachment]
	if !ok {
		return 0, fmt.Errorf("missing color attachment %d: %w", attachment, gpu.ErrFramebufferIncomplete)
	}
	if img.Rect.Empty() {
		return 0, fmt.Errorf("color attachment %d has zero size: %w", attachment, gpu.ErrFramebufferIncomplete)
	}

	d.nextFramebuffer++
	d.framebuffers[d.nextFramebuffer] = attachment
	return d.nextFramebuffer, nil
}

func (d *Device) DeleteFramebuffer(fb gpu.Framebuffer) {
	if fb == gpu.DefaultFramebuffer {
		return
	}
	delete(d.framebuffers, fb)
	if d.bound == fb {
		d.bound = gpu.DefaultFramebuffer
	}
}

func (d *Device) SetDefaultSize(width, height int) {
	if d.surface != nil && d.surface.Rect.Dx() == width && d.surface.Rect.Dy() == height {
		return
	}
	d.surface = image.NewRGBA(image.Rect(0, 0, width, height))
}

func (d *Device) BindFramebuffer(fb gpu.Framebuffer) error {
	if fb != gpu.DefaultFramebuffer {
		if _, ok := d.framebuffers[fb]; !ok {
			return fmt.Errorf("framebuffer %d: %w", fb, gpu.ErrUnknownHandle)
		}
	}
	d.bound = fb
	return nil
}

func (d *Device) BoundFramebuffer() gpu.Framebuffer {
	return d.bound
}

// BoundTexture returns the texture left bound by the last DrawQuad, or zero.
func (d *Device) BoundTexture() gpu.Texture {
	return d.boundTexture
}

// Textures returns the number of live textures.
func (d *Device) Textures() int {
	return len(d.textures)
}

// Framebuffers returns the number of live framebuffer objects.
func (d *Device) Framebuffers() int {
	return len(d.framebuffers)
}

func (d *Device) target(fb gpu.Framebuffer) (*image.RGBA, error) {
	if fb == gpu.DefaultFramebuffer {
		return d.surface, nil
	}
	tex, ok := d.framebuffers[fb]
	if !ok {
		return nil, fmt.Errorf("framebuffer %d: %w", fb, gpu.ErrUnknownHandle)
	}
	img, ok := d.textures[tex]
	if !ok {
		return nil, fmt.Errorf("framebuffer %d attachment %d: %w", fb, tex, gpu.ErrFramebufferIncomplete)
	}
	return img, nil
}

func (d *Device) Clear(fb gpu.Framebuffer, c gpu.Color) error {
	if err := d.BindFramebuffer(fb); err != nil {
		return err
	}
	dst, err := d.target(fb)
	if err != nil {
		return err
	}
	fill := image.NewUniform(color.RGBA{
		R: channel(c.R),
		G: channel(c.G),
		B: channel(c.B),
		A: channel(c.A),
	})
	xdraw.Draw(dst, dst.Bounds(), fill, image.Point{}, xdraw.Src)
	return nil
}

func (d *Device) DrawQuad(fb gpu.Framebuffer, tex gpu.Texture) error {
	if err := d.BindFramebuffer(fb); err != nil {
		return err
	}
	dst, err := d.target(fb)
	if err != nil {
		return err
	}
	src, ok := d.textures[tex]
	if !ok {
		return fmt.Errorf("texture %d: %w", tex, gpu.ErrUnknownHandle)
	}
	d.boundTexture = tex

	if src.Rect.Empty() || dst.Rect.Empty() {
		return nil
	}
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return nil
}

func (d *Device) UnbindTexture() {
	d.boundTexture = 0
}

func (d *Device) ReadPixels(fb gpu.Framebuffer) (*image.RGBA, error) {
	src, err := d.target(fb)
	if err != nil {
		return nil, err
	}
	out := image.NewRGBA(src.Rect)
	out.Pix = gpu.FlipRows(src.Pix, src.Stride, src.Rect.Dy())
	return out, nil
}

func (d *Device) Destroy() {
	d.textures = make(map[gpu.Texture]*image.RGBA)
	d.framebuffers = make(map[gpu.Framebuffer]gpu.Texture)
	d.bound = gpu.DefaultFramebuffer
	d.boundTexture = 0
}

func channel(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 0xff
	}
	return uint8(v*255 + 0.5)
}
