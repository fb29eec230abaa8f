// Package recorder encodes read-back frames to a video file by piping raw
// RGBA pixels into an ffmpeg process.
package recorder

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"runtime"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ErrFrameSize is returned when a frame does not match the recording size.
var ErrFrameSize = errors.New("frame size does not match recording size")

type Config struct {
	OutputFile string
	Width      int
	Height     int
	FPS        int
	Codec      string // h264 or hevc
	FFMPEGPath string
}

type Recorder struct {
	cfg    Config
	writer *io.PipeWriter
	errc   chan error
	frames int
	closed bool
}

// InputArgs describes the raw frames written to ffmpeg's stdin.
func InputArgs(cfg Config) ffmpeg.KwArgs {
	return ffmpeg.KwArgs{
		"f":         "rawvideo",
		"pix_fmt":   "rgba",
		"s":         fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"framerate": cfg.FPS,
	}
}

// OutputArgs picks the encoder for cfg.Codec on goos.
func OutputArgs(cfg Config, goos string) ffmpeg.KwArgs {
	outputArgs := ffmpeg.KwArgs{}

	switch goos {
	case "darwin":
		if cfg.Codec == "hevc" {
			outputArgs["c:v"] = "hevc_videotoolbox"
		} else {
			outputArgs["c:v"] = "h264_videotoolbox"
		}
	default:
		if cfg.Codec == "hevc" {
			outputArgs["c:v"] = "libx265"
		} else {
			outputArgs["c:v"] = "libx264"
		}
	}
	outputArgs["pix_fmt"] = "yuv420p"

	if cfg.Codec == "hevc" && strings.HasSuffix(cfg.OutputFile, ".mp4") {
		outputArgs["tag:v"] = "hvc1"
	}
	return outputArgs
}

// New starts ffmpeg writing to cfg.OutputFile. Frames are fed with
// WriteFrame and the file is finalized by Close.
func New(cfg Config) (*Recorder, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid recording size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.FPS <= 0 {
		return nil, fmt.Errorf("invalid frame rate %d", cfg.FPS)
	}

	pipeReader, pipeWriter := io.Pipe()
	ffmpegCmd := ffmpeg.Input("pipe:", InputArgs(cfg)).
		Output(cfg.OutputFile, OutputArgs(cfg, runtime.GOOS)).
		OverWriteOutput().WithInput(pipeReader).ErrorToStdOut()

	if cfg.FFMPEGPath != "" {
		ffmpegCmd = ffmpegCmd.SetFfmpegPath(cfg.FFMPEGPath)
	}

	errc := make(chan error, 1)
	go func() {
		err := ffmpegCmd.Run()
		// unblock WriteFrame if ffmpeg exits early
		if err != nil {
			pipeReader.CloseWithError(fmt.Errorf("ffmpeg exited: %w", err))
		} else {
			pipeReader.CloseWithError(errors.New("ffmpeg exited"))
		}
		errc <- err
	}()

	log.Printf("Recording %dx%d at %d fps to %s", cfg.Width, cfg.Height, cfg.FPS, cfg.OutputFile)
	return &Recorder{
		cfg:    cfg,
		writer: pipeWriter,
		errc:   errc,
	}, nil
}

// WriteFrame sends one top-down frame to the encoder.
func (r *Recorder) WriteFrame(img *image.RGBA) error {
	if r.closed {
		return io.ErrClosedPipe
	}
	if err := writeFrame(r.writer, img, r.cfg.Width, r.cfg.Height); err != nil {
		return fmt.Errorf("frame %d: %w", r.frames, err)
	}
	r.frames++
	return nil
}

func writeFrame(w io.Writer, img *image.RGBA, width, height int) error {
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrFrameSize, b.Dx(), b.Dy(), width, height)
	}
	rowBytes := width * 4
	if img.Stride == rowBytes {
		start := img.PixOffset(b.Min.X, b.Min.Y)
		_, err := w.Write(img.Pix[start : start+rowBytes*height])
		return err
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		start := img.PixOffset(b.Min.X, y)
		if _, err := w.Write(img.Pix[start : start+rowBytes]); err != nil {
			return err
		}
	}
	return nil
}

// Frames returns the number of frames written.
func (r *Recorder) Frames() int {
	return r.frames
}

// Close flushes the pipe and waits for ffmpeg to finish.
func (r *Recorder) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.writer.Close()
	if err := <-r.errc; err != nil {
		return fmt.Errorf("ffmpeg failed: %w", err)
	}
	log.Printf("Recorded %d frame(s) to %s", r.frames, r.cfg.OutputFile)
	return nil
}
