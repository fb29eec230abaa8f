package graphics

// FrameLimit gives surfaces with no user to close them a close flag that is
// raised once Limit frames have been presented. A Limit of zero or less never
// closes.
type FrameLimit struct {
	Limit  int
	frames int
}

func (f *FrameLimit) ShouldClose() bool {
	return f.Limit > 0 && f.frames >= f.Limit
}

// Presented counts one presented frame.
func (f *FrameLimit) Presented() {
	f.frames++
}

// Frames returns the number of frames presented so far.
func (f *FrameLimit) Frames() int {
	return f.frames
}

type limited struct {
	Context
	limit FrameLimit
}

// Limit wraps ctx so that it also reports close once frames frames have been
// presented.
func Limit(ctx Context, frames int) Context {
	return &limited{Context: ctx, limit: FrameLimit{Limit: frames}}
}

func (l *limited) ShouldClose() bool {
	return l.Context.ShouldClose() || l.limit.ShouldClose()
}

func (l *limited) SwapBuffers() {
	l.Context.SwapBuffers()
	l.limit.Presented()
}
