package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kikiluvv/shotline/pkg/util"
)

// DefaultSceneThreshold is the scene-change score cutoff
const DefaultSceneThreshold = 0.3

// DetectScenes finds scene-change timestamps in a video. The caller maps
// them onto frame numbers; they are advisory candidates for kick and
// result boundaries, not authoritative annotations.
func (e *Executor) DetectScenes(ctx context.Context, input string, threshold float64) ([]time.Duration, error) {
	if input == "" {
		return nil, fmt.Errorf("input path is required")
	}
	if threshold <= 0 || threshold >= 1 {
		return nil, fmt.Errorf("scene threshold must be in (0,1), got %v", threshold)
	}

	e.logger.Info().
		Str("input", input).
		Float64("threshold", threshold).
		Msg("detecting scene changes")

	filter := NewFilterBuilder().
		Custom(fmt.Sprintf("select='gt(scene,%f)'", threshold)).
		Custom("showinfo").
		Build()

	var stderrBuf bytes.Buffer
	var mu sync.Mutex

	opts := RunOptions{
		Args: []string{
			"-i", input,
			"-vf", filter,
			"-f", "null",
			"-",
		},
		LogHandler: func(line string) {
			mu.Lock()
			stderrBuf.WriteString(line + "\n")
			mu.Unlock()
		},
	}

	err := e.Run(ctx, opts)

	mu.Lock()
	output := stderrBuf.String()
	mu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Null-muxer runs can report conversion noise even when showinfo
		// produced usable output
		if !strings.Contains(err.Error(), "Conversion failed") &&
			!strings.Contains(err.Error(), "Invalid return value") &&
			!strings.Contains(err.Error(), "Output file is empty") {
			return nil, fmt.Errorf("scene detection failed: %w", err)
		}
	}

	scenes := parseSceneOutput(output)
	e.logger.Info().Int("scenes", len(scenes)).Msg("scene detection complete")
	return scenes, nil
}

// parseSceneOutput extracts pts_time values from showinfo lines
func parseSceneOutput(output string) []time.Duration {
	var scenes []time.Duration

	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "pts_time:") {
			continue
		}
		parts := strings.Split(line, "pts_time:")
		if len(parts) != 2 {
			continue
		}
		fields := strings.Fields(strings.TrimSpace(parts[1]))
		if len(fields) == 0 {
			continue
		}
		if ts, err := util.ParseTimestamp(fields[0]); err == nil {
			scenes = append(scenes, ts)
		}
	}

	return scenes
}
