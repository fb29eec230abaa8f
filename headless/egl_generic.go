//go:build !linux

package headless

import (
	"fmt"

	"github.com/richinsley/gofboview/graphics"
)

func New(width, height, frames int) (graphics.Context, error) {
	return nil, fmt.Errorf("%w: egl headless rendering is not supported on this platform", graphics.ErrContext)
}
