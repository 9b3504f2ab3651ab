package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// EncodeOptions configures a raw RGBA encode pipe
type EncodeOptions struct {
	Width  int
	Height int
	FPS    float64
	Codec  string
	CRF    int
	Preset string
}

// FrameWriter streams raw RGBA frames into an ffmpeg encoder writing an
// H.264 file. Frames must arrive in presentation order.
type FrameWriter struct {
	logger zerolog.Logger
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	width  int
	height int
	frame  int
}

// NewFrameWriter starts an ffmpeg encode pipe targeting the given output file.
func (e *Executor) NewFrameWriter(ctx context.Context, output string, opts EncodeOptions) (*FrameWriter, error) {
	if output == "" {
		return nil, fmt.Errorf("output path is required")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", opts.Width, opts.Height)
	}
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("invalid fps: %v", opts.FPS)
	}

	codec := opts.Codec
	if codec == "" {
		codec = DefaultVideoCodec
	}
	crf := opts.CRF
	if crf == 0 {
		crf = DefaultCRF
	}
	preset := opts.Preset
	if preset == "" {
		preset = DefaultPreset
	}

	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"-framerate", fmt.Sprintf("%g", opts.FPS),
		"-i", "-",
		"-c:v", codec,
		"-crf", fmt.Sprintf("%d", crf),
		"-preset", preset,
		"-pix_fmt", "yuv420p",
		output,
	}

	w := &FrameWriter{
		logger: e.logger.With().Str("pipe", "encode").Logger(),
		width:  opts.Width,
		height: opts.Height,
	}

	w.cmd = exec.CommandContext(ctx, e.ffmpegPath, args...)
	w.cmd.Stderr = &w.stderr

	stdin, err := w.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	w.stdin = stdin

	if err := w.cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg encode: %w", err)
	}

	w.logger.Debug().
		Str("output", output).
		Int("width", opts.Width).
		Int("height", opts.Height).
		Float64("fps", opts.FPS).
		Msg("encode pipe started")

	return w, nil
}

// Write sends one frame down the pipe
func (w *FrameWriter) Write(img *image.RGBA) error {
	b := img.Bounds()
	if b.Dx() != w.width || b.Dy() != w.height {
		return fmt.Errorf("frame %d is %dx%d, writer expects %dx%d",
			w.frame, b.Dx(), b.Dy(), w.width, w.height)
	}

	// Pix is only a contiguous frame when the image starts at the origin
	// with a packed stride; otherwise repack.
	if img.Stride != w.width*4 || b.Min.X != 0 || b.Min.Y != 0 {
		packed := image.NewRGBA(image.Rect(0, 0, w.width, w.height))
		draw.Draw(packed, packed.Bounds(), img, b.Min, draw.Src)
		img = packed
	}

	if _, err := w.stdin.Write(img.Pix); err != nil {
		return fmt.Errorf("failed to write frame %d: %w", w.frame, err)
	}
	w.frame++
	return nil
}

// Frames returns how many frames have been written so far.
func (w *FrameWriter) Frames() int {
	return w.frame
}

// Close finishes the stream and waits for the encoder to flush the file
func (w *FrameWriter) Close() error {
	_ = w.stdin.Close()
	if err := w.cmd.Wait(); err != nil {
		msg := strings.TrimSpace(w.stderr.String())
		if msg != "" {
			return fmt.Errorf("ffmpeg encode failed: %w: %s", err, msg)
		}
		return fmt.Errorf("ffmpeg encode failed: %w", err)
	}
	w.logger.Debug().Int("frames", w.frame).Msg("encode pipe finished")
	return nil
}
