package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"runtime"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/richinsley/gofboview/glbackend"
	"github.com/richinsley/gofboview/glfwcontext"
	"github.com/richinsley/gofboview/gpu"
	"github.com/richinsley/gofboview/graphics"
	"github.com/richinsley/gofboview/headless"
	"github.com/richinsley/gofboview/options"
	"github.com/richinsley/gofboview/recorder"
	"github.com/richinsley/gofboview/renderer"
	"github.com/richinsley/gofboview/sdlcontext"
	"github.com/richinsley/gofboview/softgpu"
	"github.com/veandco/go-sdl2/sdl"
)

// backend is an opened context and device pair. cleanup releases the
// windowing subsystem after the renderer has shut down.
type backend struct {
	context graphics.Context
	device  gpu.Device
	cleanup func()

	// requested from the window's key callback
	snapshots *snapshotSchedule
}

func openBackend(opts *options.ViewerOptions) (*backend, error) {
	width, height := *opts.Width, *opts.Height
	b := &backend{
		cleanup:   func() {},
		snapshots: newSnapshotSchedule(*opts.Frames),
	}

	switch *opts.Backend {
	case options.BackendSoft:
		b.context = softgpu.NewContext(width, height, *opts.Frames)
		b.device = softgpu.New(width, height)
		return b, nil

	case options.BackendEGL:
		ctx, err := headless.New(width, height, *opts.Frames)
		if err != nil {
			return nil, err
		}
		dev, err := glbackend.New(ctx)
		if err != nil {
			ctx.Shutdown()
			return nil, err
		}
		b.context, b.device = ctx, dev
		return b, nil

	case options.BackendSDL:
		if err := sdlcontext.InitGraphics(); err != nil {
			return nil, err
		}
		win, err := sdlcontext.New(width, height, *opts.Title)
		if err != nil {
			sdlcontext.TerminateGraphics()
			return nil, err
		}
		win.RegisterKeyCallback(sdl.SCANCODE_S, b.requestSnapshot)
		return b.windowed(win, opts, sdlcontext.TerminateGraphics)
	}

	if err := glfwcontext.InitGraphics(); err != nil {
		return nil, err
	}
	win, err := glfwcontext.New(width, height, *opts.Title)
	if err != nil {
		glfwcontext.TerminateGraphics()
		return nil, err
	}
	win.RegisterKeyCallback(glfw.KeyS, b.requestSnapshot)
	return b.windowed(win, opts, glfwcontext.TerminateGraphics)
}

// windowed finishes opening a window backend. terminate releases the
// windowing subsystem.
func (b *backend) windowed(win graphics.Context, opts *options.ViewerOptions, terminate func()) (*backend, error) {
	dev, err := glbackend.New(win)
	if err != nil {
		win.Shutdown()
		terminate()
		return nil, err
	}
	b.context = win
	if *opts.Frames > 0 {
		b.context = graphics.Limit(win, *opts.Frames)
	}
	b.device = dev
	b.cleanup = terminate
	return b, nil
}

func (b *backend) requestSnapshot() {
	b.snapshots.request()
}

func run(opts *options.ViewerOptions) error {
	b, err := openBackend(opts)
	if err != nil {
		return err
	}
	defer b.cleanup()

	r := renderer.New(b.context, b.device)
	defer r.Shutdown()

	if err := r.Init(*opts.ImagePath); err != nil {
		return err
	}

	var hooks []renderer.FrameHook
	if *opts.Snapshot != "" {
		hooks = append(hooks, renderer.Capture(renderer.Visible, b.snapshots.want, renderer.PNGSink(*opts.Snapshot)))
	}
	if *opts.FBOSnapshot != "" {
		hooks = append(hooks, renderer.Capture(renderer.Offscreen, b.snapshots.want, renderer.PNGSink(*opts.FBOSnapshot)))
	}
	if *opts.Snapshot != "" || *opts.FBOSnapshot != "" {
		hooks = append(hooks, b.snapshots.taken)
	}

	var rec *recorder.Recorder
	if *opts.Record != "" {
		width, height := b.context.GetFramebufferSize()
		rec, err = recorder.New(recorder.Config{
			OutputFile: *opts.Record,
			Width:      width,
			Height:     height,
			FPS:        *opts.FPS,
			Codec:      *opts.Codec,
			FFMPEGPath: *opts.FFMPEGPath,
		})
		if err != nil {
			return err
		}
		always := func(int) bool { return true }
		hooks = append(hooks, renderer.Capture(renderer.Visible, always, func(img *image.RGBA, frame int) error {
			return rec.WriteFrame(img)
		}))
	}

	runErr := r.Run(hooks...)
	if rec != nil {
		if err := rec.Close(); err != nil && runErr == nil {
			runErr = err
		}
	}
	return runErr
}

func init() {
	runtime.LockOSThread()
}

func main() {
	opts := options.Register(flag.CommandLine)
	flag.Parse()

	if *opts.Help {
		fmt.Println("OpenGL FBO Image Viewer")
		flag.PrintDefaults()
		return
	}

	opts.ApplyEnvironment(os.Getenv)
	if err := opts.Validate(); err != nil {
		log.Printf("Invalid options: %v", err)
		os.Exit(1)
	}

	log.Printf("Displaying %s with the %s backend", *opts.ImagePath, *opts.Backend)
	if err := run(opts); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}
