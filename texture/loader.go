// Package texture decodes image files and uploads them as device textures.
package texture

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"log"
	"os"

	// Blank imports for image decoders so image.Decode can handle them.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/richinsley/gofboview/gpu"
)

// ErrDecode is returned when an image file cannot be opened or decoded.
var ErrDecode = errors.New("cannot decode image")

// Image is a texture created from an image file.
type Image struct {
	Texture gpu.Texture
	Width   int
	Height  int
	Format  string // decoder name reported by image.Decode
}

// Load decodes the file at path to 3-channel RGB at its native resolution and
// uploads it to dev as a single texture. On failure no texture is created.
func Load(dev gpu.Device, path string) (*Image, error) {
	img, format, err := decodeFile(path)
	if err != nil {
		log.Printf("Unable to load image %s: %v", path, err)
		return nil, fmt.Errorf("%s: %w: %v", path, ErrDecode, err)
	}

	width := img.Bounds().Dx()
	height := img.Bounds().Dy()
	pixels := gpu.FlipRows(ToRGB(img), width*3, height)

	tex, err := dev.CreateTexture(width, height, gpu.FormatRGB, pixels)
	if err != nil {
		return nil, fmt.Errorf("failed to create texture for %s: %w", path, err)
	}

	log.Printf("Loaded %s image %s (%dx%d)", format, path, width, height)
	return &Image{
		Texture: tex,
		Width:   width,
		Height:  height,
		Format:  format,
	}, nil
}

func decodeFile(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	return image.Decode(f)
}

// ToRGB returns the pixels of img as tightly packed, top-down 8-bit RGB.
// Alpha is discarded.
func ToRGB(img image.Image) []byte {
	// Convert source image to RGBA for consistency.
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	}

	width := rgba.Rect.Dx()
	height := rgba.Rect.Dy()
	rgb := make([]byte, width*height*3)
	for y := 0; y < height; y++ {
		row := rgba.Pix[y*rgba.Stride:]
		out := rgb[y*width*3:]
		for x := 0; x < width; x++ {
			copy(out[x*3:x*3+3], row[x*4:x*4+3])
		}
	}
	return rgb
}
