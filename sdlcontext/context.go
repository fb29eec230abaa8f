// Package sdlcontext provides a graphics.Context backed by an SDL2 window
// with an OpenGL 4.1 core context.
package sdlcontext

import (
	"fmt"
	"log"
	"runtime"

	"github.com/richinsley/gofboview/graphics"
	"github.com/veandco/go-sdl2/sdl"
)

type Context struct {
	window    *sdl.Window
	glContext sdl.GLContext

	shouldClose  bool
	start        uint64
	keyCallbacks map[sdl.Scancode]func()
}

// InitGraphics initializes the SDL video subsystem. Must be called from the
// main thread.
func InitGraphics() error {
	runtime.LockOSThread()
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return fmt.Errorf("%w: %v", graphics.ErrContext, err)
	}
	log.Printf("SDL Initialized")
	return nil
}

func TerminateGraphics() {
	sdl.Quit()
	log.Printf("SDL Terminated")
}

// New opens a fixed-size window and makes its OpenGL context current.
func New(width, height int, title string) (*Context, error) {
	_ = sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 4)
	_ = sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 1)
	_ = sdl.GLSetAttribute(sdl.GL_CONTEXT_FLAGS, sdl.GL_CONTEXT_FORWARD_COMPATIBLE_FLAG)
	_ = sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)
	_ = sdl.GLSetAttribute(sdl.GL_DOUBLEBUFFER, 1)

	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED, int32(width), int32(height), sdl.WINDOW_OPENGL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", graphics.ErrWindow, err)
	}

	glContext, err := window.GLCreateContext()
	if err != nil {
		_ = window.Destroy()
		return nil, fmt.Errorf("%w: failed to create OpenGL context: %v", graphics.ErrWindow, err)
	}

	c := &Context{
		window:       window,
		glContext:    glContext,
		start:        sdl.GetPerformanceCounter(),
		keyCallbacks: make(map[sdl.Scancode]func()),
	}
	c.MakeCurrent()
	_ = sdl.GLSetSwapInterval(1)
	return c, nil
}

// RegisterKeyCallback calls f whenever the key with the given scancode is
// pressed.
func (c *Context) RegisterKeyCallback(key sdl.Scancode, f func()) {
	c.keyCallbacks[key] = f
}

func (c *Context) MakeCurrent() {
	if err := c.window.GLMakeCurrent(c.glContext); err != nil {
		log.Printf("failed to make OpenGL context current: %v", err)
	}
}

// Shutdown destroys the OpenGL context and the window. TerminateGraphics
// releases SDL.
func (c *Context) Shutdown() {
	sdl.GLDeleteContext(c.glContext)
	_ = c.window.Destroy()
}

func (c *Context) ShouldClose() bool {
	return c.shouldClose
}

func (c *Context) SwapBuffers() {
	c.window.GLSwap()
}

// PollEvents drains the SDL event queue. Quitting or pressing Escape raises
// the close flag.
func (c *Context) PollEvents() {
	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		switch ev := ev.(type) {
		case *sdl.QuitEvent:
			c.shouldClose = true
		case *sdl.KeyboardEvent:
			if ev.Type != sdl.KEYDOWN || ev.Repeat != 0 {
				continue
			}
			if ev.Keysym.Scancode == sdl.SCANCODE_ESCAPE {
				c.shouldClose = true
			}
			if callback, ok := c.keyCallbacks[ev.Keysym.Scancode]; ok {
				callback()
			}
		}
	}
}

func (c *Context) GetFramebufferSize() (int, int) {
	w, h := c.window.GLGetDrawableSize()
	return int(w), int(h)
}

func (c *Context) Time() float64 {
	return float64(sdl.GetPerformanceCounter()-c.start) / float64(sdl.GetPerformanceFrequency())
}

func (c *Context) IsGLES() bool {
	return false
}
