package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// FrameReader streams decoded frames from a video as raw RGBA images.
// ffmpeg writes rawvideo to its stdout and Next slices it into frames of
// width*height*4 bytes.
type FrameReader struct {
	logger zerolog.Logger
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr bytes.Buffer
	width  int
	height int
	frame  int
	eof    bool
}

// NewFrameReader starts an ffmpeg decode pipe for the given video. The
// dimensions must match the source stream (use ProbeVideo first).
func (e *Executor) NewFrameReader(ctx context.Context, input string, width, height int) (*FrameReader, error) {
	if input == "" {
		return nil, fmt.Errorf("input path is required")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", input,
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"pipe:1",
	}

	r := &FrameReader{
		logger: e.logger.With().Str("pipe", "decode").Logger(),
		width:  width,
		height: height,
	}

	r.cmd = exec.CommandContext(ctx, e.ffmpegPath, args...)
	r.cmd.Stderr = &r.stderr

	stdout, err := r.cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	r.stdout = stdout

	if err := r.cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg decode: %w", err)
	}

	r.logger.Debug().
		Str("input", input).
		Int("width", width).
		Int("height", height).
		Msg("decode pipe started")

	return r, nil
}

// Next returns the next decoded frame, or io.EOF after the last one. Each
// call allocates a fresh image so frames can flow through channels safely.
func (r *FrameReader) Next() (*image.RGBA, error) {
	if r.eof {
		return nil, io.EOF
	}

	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	if _, err := io.ReadFull(r.stdout, img.Pix); err != nil {
		if err == io.EOF {
			r.eof = true
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read frame %d: %w", r.frame, err)
	}

	r.frame++
	return img, nil
}

// Frames returns how many frames have been decoded so far.
func (r *FrameReader) Frames() int {
	return r.frame
}

// Close shuts the pipe down and reaps ffmpeg. Closing before EOF abandons
// the remaining stream, which is not an error.
func (r *FrameReader) Close() error {
	_ = r.stdout.Close()
	err := r.cmd.Wait()

	if err != nil && r.eof {
		msg := strings.TrimSpace(r.stderr.String())
		if msg != "" {
			return fmt.Errorf("ffmpeg decode failed: %w: %s", err, msg)
		}
		return fmt.Errorf("ffmpeg decode failed: %w", err)
	}
	if err != nil {
		// Abandoned mid-stream; ffmpeg exits on the broken pipe.
		r.logger.Debug().Err(err).Int("frames", r.frame).Msg("decode pipe closed early")
	}
	return nil
}
