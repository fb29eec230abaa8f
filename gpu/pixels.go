package gpu

// FlipRows returns a copy of pix with its rows in reverse order. It converts
// between top-down image memory and the bottom-up row order GL uses.
func FlipRows(pix []byte, stride, height int) []byte {
	flipped := make([]byte, len(pix))
	for y := 0; y < height; y++ {
		srcRow := pix[((height-1)-y)*stride:]
		dstRow := flipped[y*stride:]
		copy(dstRow, srcRow[:stride])
	}
	return flipped
}
