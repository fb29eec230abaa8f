package options

import (
	"flag"
	"fmt"
)

const (
	DefaultImagePath = "testfbo.jpg"
	DefaultTitle     = "OpenGL FBO Image Display"
	DefaultWidth     = 512
	DefaultHeight    = 512

	// ImageEnv names the environment variable consulted when -image is not set.
	ImageEnv = "FBOVIEW_IMAGE"
)

// Backends accepted by -backend.
const (
	BackendGL   = "gl"
	BackendSDL  = "sdl"
	BackendEGL  = "egl"
	BackendSoft = "soft"
)

type ViewerOptions struct {
	ImagePath   *string
	Width       *int
	Height      *int
	Title       *string
	Help        *bool
	Backend     *string
	Frames      *int    // frame budget for headless backends; 0 runs until closed
	Snapshot    *string // PNG of the visible framebuffer
	FBOSnapshot *string // PNG of the off-screen framebuffer
	Record      *string // video file written through ffmpeg
	FPS         *int
	Codec       *string
	FFMPEGPath  *string
}

// Register defines the viewer flags on fs.
func Register(fs *flag.FlagSet) *ViewerOptions {
	return &ViewerOptions{
		ImagePath:   fs.String("image", "", "Image file to display (from "+ImageEnv+" env var if not set)"),
		Width:       fs.Int("width", DefaultWidth, "Width of the window"),
		Height:      fs.Int("height", DefaultHeight, "Height of the window"),
		Title:       fs.String("title", DefaultTitle, "Window title"),
		Help:        fs.Bool("help", false, "Show help message"),
		Backend:     fs.String("backend", BackendGL, "Rendering backend: gl (GLFW window), sdl (SDL window), egl (headless GPU, linux only) or soft (software)"),
		Frames:      fs.Int("frames", 0, "Number of frames to render before exiting (0 renders until the window is closed; headless backends default to 1)"),
		Snapshot:    fs.String("snapshot", "", "Write the visible framebuffer to this PNG file"),
		FBOSnapshot: fs.String("fbo-snapshot", "", "Write the off-screen framebuffer to this PNG file"),
		Record:      fs.String("record", "", "Record the visible framebuffer to this video file with ffmpeg"),
		FPS:         fs.Int("fps", 60, "Frames per second for recording"),
		Codec:       fs.String("codec", "h264", "Video codec for recording: h264 or hevc"),
		FFMPEGPath:  fs.String("ffmpeg", "", "Path to ffmpeg executable"),
	}
}

// ApplyEnvironment fills in settings that were not given on the command
// line.
func (o *ViewerOptions) ApplyEnvironment(getenv func(string) string) {
	if *o.ImagePath == "" {
		*o.ImagePath = getenv(ImageEnv)
	}
	if *o.ImagePath == "" {
		*o.ImagePath = DefaultImagePath
	}
	if o.Headless() && *o.Frames == 0 {
		*o.Frames = 1
	}
}

// Headless reports whether the backend renders without a window.
func (o *ViewerOptions) Headless() bool {
	return *o.Backend == BackendEGL || *o.Backend == BackendSoft
}

func (o *ViewerOptions) Validate() error {
	if *o.Width <= 0 || *o.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", *o.Width, *o.Height)
	}
	switch *o.Backend {
	case BackendGL, BackendSDL, BackendEGL, BackendSoft:
	default:
		return fmt.Errorf("unknown backend %q", *o.Backend)
	}
	if *o.Frames < 0 {
		return fmt.Errorf("frame count must not be negative, got %d", *o.Frames)
	}
	if o.Headless() && *o.Frames == 0 {
		return fmt.Errorf("backend %q needs a frame count", *o.Backend)
	}
	if *o.Record != "" {
		if *o.FPS <= 0 {
			return fmt.Errorf("frames per second must be positive, got %d", *o.FPS)
		}
		if *o.Codec != "h264" && *o.Codec != "hevc" {
			return fmt.Errorf("unsupported codec %q", *o.Codec)
		}
	}
	return nil
}
