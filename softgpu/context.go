package softgpu

import (
	"log"
	"time"

	"github.com/richinsley/gofboview/graphics"
)

// Context is a graphics.Context for the software device. It has no window;
// it closes after a fixed number of presented frames.
type Context struct {
	graphics.FrameLimit
	width  int
	height int
	start  time.Time
}

func NewContext(width, height, frames int) *Context {
	log.Printf("Software context %dx%d, %d frame(s)", width, height, frames)
	return &Context{
		FrameLimit: graphics.FrameLimit{Limit: frames},
		width:      width,
		height:     height,
		start:      time.Now(),
	}
}

func (c *Context) MakeCurrent() {}

func (c *Context) Shutdown() {}

func (c *Context) SwapBuffers() {
	c.Presented()
}

func (c *Context) PollEvents() {}

func (c *Context) GetFramebufferSize() (int, int) {
	return c.width, c.height
}

func (c *Context) Time() float64 {
	return time.Since(c.start).Seconds()
}

func (c *Context) IsGLES() bool {
	return false
}
