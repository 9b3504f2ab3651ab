package pose

import (
	"context"
	"fmt"
	"image"
	"io"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kikiluvv/shotline/internal/ffmpeg"
)

// progressEvery is the stage's progress log cadence in frames
const progressEvery = 10

// DefaultFrameDepth bounds decode read-ahead when no sizing is supplied
const DefaultFrameDepth = 8

// Stage runs pose estimation over every frame of the pose-rate variant and
// assembles the pose artifact.
type Stage struct {
	logger   zerolog.Logger
	ffmpeg   *ffmpeg.Executor
	analyzer Analyzer
	depth    int
}

// NewStage wires a stage together. depth bounds the decode read-ahead
// channel; pass 0 for the default.
func NewStage(logger zerolog.Logger, exec *ffmpeg.Executor, analyzer Analyzer, depth int) *Stage {
	if depth <= 0 {
		depth = DefaultFrameDepth
	}
	return &Stage{
		logger:   logger.With().Str("component", "pose").Logger(),
		ffmpeg:   exec,
		analyzer: analyzer,
		depth:    depth,
	}
}

// Run analyzes every decoded frame of input and writes the artifact to
// outputPath. A frame whose inference fails is recorded with no persons
// rather than failing the stage.
func (s *Stage) Run(ctx context.Context, input, outputPath string) (*Artifact, error) {
	info, err := s.ffmpeg.ProbeVideo(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("probe failed: %w", err)
	}

	s.logger.Info().
		Str("input", input).
		Int("width", info.Width).
		Int("height", info.Height).
		Float64("fps", info.FPS).
		Int("reported_frames", info.FrameCount).
		Msg("starting pose analysis")

	reader, err := s.ffmpeg.NewFrameReader(ctx, input, info.Width, info.Height)
	if err != nil {
		return nil, fmt.Errorf("failed to start decode: %w", err)
	}
	defer reader.Close()

	frames := make(chan *image.RGBA, s.depth)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(frames)
		for {
			img, err := reader.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			select {
			case frames <- img:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	art := &Artifact{
		VideoInfo: VideoInfo{
			Path:       input,
			FPS:        info.FPS,
			Width:      info.Width,
			Height:     info.Height,
			FrameCount: info.FrameCount,
		},
	}

	n := 0
	for img := range frames {
		persons, err := s.analyzer.Detect(img)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Int("frame", n).
				Msg("pose inference failed, recording empty frame")
			persons = []Person{}
		}
		art.Frames = append(art.Frames, Frame{FrameNumber: n, Persons: persons})
		n++

		if n%progressEvery == 0 {
			s.logger.Info().Int("frames", n).Msg("pose progress")
		}
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("no frames decoded from %s", input)
	}
	if info.FrameCount != 0 && info.FrameCount != n {
		s.logger.Warn().
			Int("reported", info.FrameCount).
			Int("decoded", n).
			Msg("decoded frame count differs from probe")
	}

	if outputPath != "" {
		if err := art.Write(outputPath); err != nil {
			return nil, fmt.Errorf("failed to write pose artifact: %w", err)
		}
	}

	s.logger.Info().
		Int("frames", n).
		Str("output", outputPath).
		Msg("pose analysis complete")

	return art, nil
}
