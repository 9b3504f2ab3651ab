package ffmpeg

import (
	"context"
	"fmt"
)

// MuxAudio copies the video stream from video and the audio stream from
// audioSource into output. The raw RGBA encode pipe produces silent files,
// so the final deliverable gets its sound back from the source footage.
func (e *Executor) MuxAudio(ctx context.Context, video, audioSource, output string, progressFunc ProgressFunc) error {
	if video == "" || audioSource == "" {
		return fmt.Errorf("video and audio source paths are required")
	}
	if output == "" {
		return fmt.Errorf("output path is required")
	}

	e.logger.Info().
		Str("video", video).
		Str("audio_source", audioSource).
		Str("output", output).
		Msg("muxing audio")

	args := []string{
		"-i", video,
		"-i", audioSource,
		"-map", "0:v",
		"-map", "1:a",
		"-c:v", "copy",
		"-c:a", DefaultAudioCodec,
		"-b:a", "128k",
		"-shortest",
		output,
	}

	opts := RunOptions{
		Args:            args,
		ProgressHandler: progressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("audio mux")
		},
	}

	if err := e.Run(ctx, opts); err != nil {
		return fmt.Errorf("audio mux failed: %w", err)
	}

	e.logger.Info().Str("output", output).Msg("audio mux complete")
	return nil
}
