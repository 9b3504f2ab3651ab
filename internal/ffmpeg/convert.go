package ffmpeg

import (
	"context"
	"fmt"
	"os"
)

// Twitter upload constraints
const (
	twitterWidth    = 1280
	twitterHeight   = 720
	twitterFPS      = 30
	twitterMaxBytes = int64(512) << 20
)

// ConvertForTwitter re-encodes a video to the platform's upload profile:
// 720p H.264 at 30fps with faststart so playback begins before the file
// finishes downloading.
func (e *Executor) ConvertForTwitter(ctx context.Context, input, output string, progressFunc ProgressFunc) error {
	if input == "" {
		return fmt.Errorf("input path is required")
	}
	if output == "" {
		return fmt.Errorf("output path is required")
	}

	e.logger.Info().
		Str("input", input).
		Str("output", output).
		Msg("converting for twitter")

	filter := NewFilterBuilder().Scale(twitterWidth, twitterHeight).Build()

	args := []string{
		"-i", input,
		"-c:v", DefaultVideoCodec,
		"-preset", "slow",
		"-crf", fmt.Sprintf("%d", DefaultCRF),
		"-c:a", DefaultAudioCodec,
		"-b:a", "128k",
		"-movflags", "+faststart",
		"-pix_fmt", "yuv420p",
		"-vf", filter,
		"-r", fmt.Sprintf("%d", twitterFPS),
		"-maxrate", "5M",
		"-bufsize", "10M",
		output,
	}

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: progressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("twitter conversion")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("twitter conversion failed: %w", err)
	}

	if stat, err := os.Stat(output); err == nil {
		sizeMB := float64(stat.Size()) / (1 << 20)
		if stat.Size() > twitterMaxBytes {
			e.logger.Warn().
				Float64("size_mb", sizeMB).
				Int64("limit_mb", twitterMaxBytes>>20).
				Msg("output exceeds twitter size limit")
		} else {
			e.logger.Info().Float64("size_mb", sizeMB).Msg("twitter conversion complete")
		}
	}

	return nil
}
