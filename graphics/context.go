package graphics

import "errors"

var (
	// ErrContext is returned when the windowing subsystem cannot be initialised.
	ErrContext = errors.New("graphics subsystem initialisation failed")
	// ErrWindow is returned when a window or rendering surface cannot be created.
	ErrWindow = errors.New("window creation failed")
	// ErrLoader is returned when the OpenGL function pointers cannot be loaded.
	ErrLoader = errors.New("opengl function loader failed")
)

// Context defines the interface for a rendering context and its surface.
type Context interface {
	MakeCurrent()
	Shutdown()
	ShouldClose() bool
	// SwapBuffers presents the default framebuffer.
	SwapBuffers()
	PollEvents()
	GetFramebufferSize() (int, int)
	Time() float64
	IsGLES() bool
}
