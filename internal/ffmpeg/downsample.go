package ffmpeg

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/kikiluvv/shotline/pkg/util"
)

// DownsampleOptions defines frame-rate reduction parameters
type DownsampleOptions struct {
	FPS          float64
	OutputDir    string
	ProgressFunc ProgressFunc
}

// Downsample re-encodes a video at a lower frame rate with audio stripped,
// returning the output path. The result is the sampling a frame-by-frame
// analysis pass walks, so the rate must not exceed the source rate.
func (e *Executor) Downsample(ctx context.Context, input string, opts DownsampleOptions) (string, error) {
	if opts.FPS <= 0 {
		return "", fmt.Errorf("invalid target fps: %v", opts.FPS)
	}

	output := filepath.Join(opts.OutputDir, downsampleName(input, opts.FPS))

	e.logger.Info().
		Str("input", input).
		Str("output", output).
		Float64("fps", opts.FPS).
		Msg("downsampling video")

	if err := util.EnsureDir(opts.OutputDir); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	args := []string{
		"-i", input,
		"-r", fmt.Sprintf("%g", opts.FPS),
		"-an",
		output,
	}

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("downsample")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return "", fmt.Errorf("downsample to %gfps failed: %w", opts.FPS, err)
	}

	e.logger.Info().Str("output", output).Msg("downsample complete")
	return output, nil
}

// downsampleName derives the output filename, e.g. clip.mp4 at 4fps
// becomes clip_4fps.mp4.
func downsampleName(input string, fps float64) string {
	ext := filepath.Ext(input)
	if ext == "" {
		ext = ".mp4"
	}
	return fmt.Sprintf("%s_%gfps%s", util.BaseName(input), fps, ext)
}
