package describe

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kikiluvv/shotline/internal/ffmpeg"
)

// jpegQuality for frames uploaded to the vision model
const jpegQuality = 90

// DefaultFrameDepth bounds decode read-ahead when no sizing is supplied
const DefaultFrameDepth = 8

// Stage sends every frame of the action-rate variant to the vision model
// and assembles the action artifact.
type Stage struct {
	logger    zerolog.Logger
	ffmpeg    *ffmpeg.Executor
	describer Describer
	depth     int
}

// NewStage wires a stage together. depth bounds the decode read-ahead
// channel; pass 0 for the default.
func NewStage(logger zerolog.Logger, exec *ffmpeg.Executor, describer Describer, depth int) *Stage {
	if depth <= 0 {
		depth = DefaultFrameDepth
	}
	return &Stage{
		logger:    logger.With().Str("component", "describe").Logger(),
		ffmpeg:    exec,
		describer: describer,
		depth:     depth,
	}
}

// Run describes every decoded frame of input and writes the artifact to
// outputPath. A frame whose API call or reply parse fails is recorded with
// the placeholder rather than failing the stage.
func (s *Stage) Run(ctx context.Context, input, outputPath string) (*Artifact, error) {
	info, err := s.ffmpeg.ProbeVideo(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("probe failed: %w", err)
	}

	s.logger.Info().
		Str("input", input).
		Float64("fps", info.FPS).
		Int("reported_frames", info.FrameCount).
		Msg("starting action analysis")

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

	art := &Artifact{}

	n := 0
	for img := range frames {
		frame, err := s.describeFrame(ctx, n, img)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Int("frame", n).
				Msg("action analysis failed, recording placeholder")
			frame = Placeholder(n)
		}
		art.Frames = append(art.Frames, frame)
		n++

		// One hosted call per frame, logged per frame
		s.logger.Info().
			Int("frame", n).
			Int("total", info.FrameCount).
			Msg("analyzed frame")
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("no frames decoded from %s", input)
	}

	if outputPath != "" {
		if err := art.Write(outputPath); err != nil {
			return nil, fmt.Errorf("failed to write action artifact: %w", err)
		}
	}

	s.logger.Info().
		Int("frames", n).
		Str("output", outputPath).
		Msg("action analysis complete")

	return art, nil
}

// describeFrame encodes one frame as JPEG and asks the model about it
func (s *Stage) describeFrame(ctx context.Context, n int, img *image.RGBA) (Frame, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Frame{}, fmt.Errorf("jpeg encode failed: %w", err)
	}

	analysis, err := s.describer.Describe(ctx, buf.Bytes())
	if err != nil {
		return Frame{}, err
	}

	return Frame{
		FrameNumber:       n,
		ActionDescription: analysis.ActionDescription,
		KickAnalysis:      analysis.KickAnalysis,
	}, nil
}
