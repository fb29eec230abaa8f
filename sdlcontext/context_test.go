package sdlcontext

import (
	"testing"

	"github.com/richinsley/gofboview/graphics"
	"github.com/veandco/go-sdl2/sdl"
)

var _ graphics.Context = (*Context)(nil)

func TestClosedContextReportsClose(t *testing.T) {
	c := &Context{shouldClose: true, keyCallbacks: make(map[sdl.Scancode]func())}
	if !c.ShouldClose() {
		t.Error("ShouldClose() = false after close was requested")
	}
}
