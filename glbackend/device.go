// Package glbackend implements gpu.Device on an OpenGL 4.1 core or OpenGL ES
// 3 context.
package glbackend

import (
	"fmt"
	"image"
	"log"
	"sync"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/richinsley/gofboview/gpu"
	"github.com/richinsley/gofboview/graphics"
	"github.com/richinsley/gofboview/shader"
)

// loader runs init once per process and reports its result to every caller.
type loader struct {
	once sync.Once
	init func() error
	err  error
}

func (l *loader) load() error {
	l.once.Do(func() {
		l.err = l.init()
	})
	return l.err
}

// gl.Init loads function pointers for the whole process.
var glLoader = &loader{init: gl.Init}

var quadVertices = []float32{
	-1.0, 1.0, -1.0, -1.0, 1.0, -1.0,
	-1.0, 1.0, 1.0, -1.0, 1.0, 1.0,
}

type textureInfo struct {
	width  int
	height int
}

type Device struct {
	quadVAO       uint32
	quadVBO       uint32
	blitProgram   uint32
	textureLoc    int32
	resolutionLoc int32

	textures     map[gpu.Texture]textureInfo
	framebuffers map[gpu.Framebuffer]gpu.Texture

	defaultWidth  int
	defaultHeight int
	bound         gpu.Framebuffer
}

// New makes ctx current, loads the OpenGL function pointers and builds the
// quad geometry and blit program.
func New(ctx graphics.Context) (*Device, error) {
	// Make the context current BEFORE initializing OpenGL.
	ctx.MakeCurrent()

	if err := glLoader.load(); err != nil {
		return nil, fmt.Errorf("%w: %v", graphics.ErrLoader, err)
	}
	log.Printf("OpenGL version '%s'", gl.GoStr(gl.GetString(gl.VERSION)))

	d := &Device{
		textures:     make(map[gpu.Texture]textureInfo),
		framebuffers: make(map[gpu.Framebuffer]gpu.Texture),
	}
	d.defaultWidth, d.defaultHeight = ctx.GetFramebufferSize()

	gl.GenVertexArrays(1, &d.quadVAO)
	gl.GenBuffers(1, &d.quadVBO)
	gl.BindVertexArray(d.quadVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.quadVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVertices)*4, gl.Ptr(quadVertices), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, gl.PtrOffset(0))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	blit := shader.NewBlit(ctx.IsGLES())
	program, err := newProgram(blit.Vertex, blit.Fragment)
	if err != nil && blit.Translated {
		log.Printf("Translated blit shader failed to build, using built-in shader: %v", err)
		blit = shader.Static(ctx.IsGLES())
		program, err = newProgram(blit.Vertex, blit.Fragment)
	}
	if err != nil {
		d.Destroy()
		return nil, fmt.Errorf("failed to create blit program: %w", err)
	}
	d.blitProgram = program
	d.textureLoc = gl.GetUniformLocation(program, gl.Str(blit.Texture+"\x00"))
	d.resolutionLoc = gl.GetUniformLocation(program, gl.Str(blit.Resolution+"\x00"))

	return d, nil
}

func pixelFormat(format gpu.PixelFormat) (internalFormat int32, pixFormat uint32) {
	if format == gpu.FormatRGB {
		return gl.RGB8, gl.RGB
	}
	return gl.RGBA8, gl.RGBA
}

func (d *Device) CreateTexture(width, height int, format gpu.PixelFormat, pixels []byte) (gpu.Texture, error) {
	if width < 0 || height < 0 {
		return 0, fmt.Errorf("invalid texture size %dx%d", width, height)
	}
	if pixels != nil && len(pixels) < width*height*format.BytesPerPixel() {
		return 0, fmt.Errorf("texture data too short: got %d bytes, want %d", len(pixels), width*height*format.BytesPerPixel())
	}

	var data unsafe.Pointer
	if len(pixels) > 0 {
		data = gl.Ptr(pixels)
	}
	internalFormat, pixFormat := pixelFormat(format)

	var textureID uint32
	gl.GenTextures(1, &textureID)
	gl.BindTexture(gl.TEXTURE_2D, textureID)

	// RGB rows are not 4-byte aligned.
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internalFormat, int32(width), int32(height), 0, pixFormat, gl.UNSIGNED_BYTE, data)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if e := gl.GetError(); e != gl.NO_ERROR {
		gl.DeleteTextures(1, &textureID)
		return 0, fmt.Errorf("texture upload failed: gl error 0x%x", e)
	}

	tex := gpu.Texture(textureID)
	d.textures[tex] = textureInfo{width: width, height: height}
	return tex, nil
}

func (d *Device) DeleteTexture(tex gpu.Texture) {
	if _, ok := d.textures[tex]; !ok {
		return
	}
	id := uint32(tex)
	gl.DeleteTextures(1, &id)
	delete(d.textures, tex)
}

func (d *Device) CreateFramebuffer(attachment gpu.Texture) (gpu.Framebuffer, error) {
	var fbo uint32
	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, uint32(attachment), 0)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)

	// Unbind to avoid accidental modifications
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	d.bound = gpu.DefaultFramebuffer

	if status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteFramebuffers(1, &fbo)
		return 0, fmt.Errorf("status 0x%x: %w", status, gpu.ErrFramebufferIncomplete)
	}

	fb := gpu.Framebuffer(fbo)
	d.framebuffers[fb] = attachment
	return fb, nil
}

func (d *Device) DeleteFramebuffer(fb gpu.Framebuffer) {
	if _, ok := d.framebuffers[fb]; !ok {
		return
	}
	if d.bound == fb {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		d.bound = gpu.DefaultFramebuffer
	}
	id := uint32(fb)
	gl.DeleteFramebuffers(1, &id)
	delete(d.framebuffers, fb)
}

func (d *Device) SetDefaultSize(width, height int) {
	d.defaultWidth = width
	d.defaultHeight = height
}

func (d *Device) size(fb gpu.Framebuffer) (int, int, error) {
	if fb == gpu.DefaultFramebuffer {
		return d.defaultWidth, d.defaultHeight, nil
	}
	tex, ok := d.framebuffers[fb]
	if !ok {
		return 0, 0, fmt.Errorf("framebuffer %d: %w", fb, gpu.ErrUnknownHandle)
	}
	info := d.textures[tex]
	return info.width, info.height, nil
}

func (d *Device) BindFramebuffer(fb gpu.Framebuffer) error {
	if fb != gpu.DefaultFramebuffer {
		if _, ok := d.framebuffers[fb]; !ok {
			return fmt.Errorf("framebuffer %d: %w", fb, gpu.ErrUnknownHandle)
		}
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(fb))
	d.bound = fb
	return nil
}

func (d *Device) BoundFramebuffer() gpu.Framebuffer {
	return d.bound
}

func (d *Device) Clear(fb gpu.Framebuffer, c gpu.Color) error {
	width, height, err := d.size(fb)
	if err != nil {
		return err
	}
	if err := d.BindFramebuffer(fb); err != nil {
		return err
	}
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.ClearColor(c.R, c.G, c.B, c.A)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	return nil
}

func (d *Device) DrawQuad(fb gpu.Framebuffer, tex gpu.Texture) error {
	if _, ok := d.textures[tex]; !ok {
		return fmt.Errorf("texture %d: %w", tex, gpu.ErrUnknownHandle)
	}
	width, height, err := d.size(fb)
	if err != nil {
		return err
	}
	if err := d.BindFramebuffer(fb); err != nil {
		return err
	}

	gl.Viewport(0, 0, int32(width), int32(height))
	gl.UseProgram(d.blitProgram)
	if d.resolutionLoc != -1 {
		gl.Uniform2f(d.resolutionLoc, float32(width), float32(height))
	}
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, uint32(tex))
	if d.textureLoc != -1 {
		gl.Uniform1i(d.textureLoc, 0)
	}
	gl.BindVertexArray(d.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)
	return nil
}

func (d *Device) UnbindTexture() {
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.UseProgram(0)
}

func (d *Device) ReadPixels(fb gpu.Framebuffer) (*image.RGBA, error) {
	width, height, err := d.size(fb)
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if width == 0 || height == 0 {
		return img, nil
	}

	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, uint32(fb))
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, uint32(d.bound))

	if e := gl.GetError(); e != gl.NO_ERROR {
		return nil, fmt.Errorf("read back of framebuffer %d failed: gl error 0x%x", fb, e)
	}
	img.Pix = gpu.FlipRows(img.Pix, img.Stride, height)
	return img, nil
}

func (d *Device) Destroy() {
	if d.blitProgram != 0 {
		gl.DeleteProgram(d.blitProgram)
		d.blitProgram = 0
	}
	if d.quadVBO != 0 {
		gl.DeleteBuffers(1, &d.quadVBO)
		d.quadVBO = 0
	}
	if d.quadVAO != 0 {
		gl.DeleteVertexArrays(1, &d.quadVAO)
		d.quadVAO = 0
	}
}
