package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kikiluvv/shotline/internal/config"
	"github.com/kikiluvv/shotline/internal/describe"
	"github.com/kikiluvv/shotline/internal/ffmpeg"
	"github.com/kikiluvv/shotline/internal/pose"
	"github.com/kikiluvv/shotline/internal/render"
	"github.com/kikiluvv/shotline/internal/timeline"
	"github.com/kikiluvv/shotline/pkg/util"
)

// Pipeline orchestrates a full analysis run: downsample, pose, describe,
// timeline, render.
type Pipeline struct {
	logger zerolog.Logger
	cfg    *config.Config
	ffmpeg *ffmpeg.Executor
}

// New creates a pipeline from application configuration.
func New(logger zerolog.Logger, cfg *config.Config) (*Pipeline, error) {
	ffmpegExec, err := ffmpeg.New(logger, cfg.FFmpeg.BinaryPath, cfg.FFmpeg.ProbePath, cfg.FFmpeg.Threads)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ffmpeg: %w", err)
	}

	return &Pipeline{
		logger: logger.With().Str("component", "pipeline").Logger(),
		cfg:    cfg,
		ffmpeg: ffmpegExec,
	}, nil
}

// Run executes every stage against the source video and returns where each
// artifact landed. Stage order matters: timeline joins the pose and action
// artifacts, render consumes the timeline.
func (p *Pipeline) Run(ctx context.Context, input string) (*Result, error) {
	if input == "" {
		return nil, fmt.Errorf("input path cannot be empty")
	}
	if !util.FileExists(input) {
		return nil, fmt.Errorf("input video not found: %s", input)
	}

	runID := uuid.New().String()
	logger := p.logger.With().Str("run_id", runID).Logger()
	start := time.Now()

	EnvironmentReport(logger)
	logger.Info().Str("input", input).Msg("starting analysis pipeline")

	info, err := p.ffmpeg.ProbeVideo(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to probe video: %w", err)
	}
	logger.Info().
		Dur("duration", info.Duration).
		Int("width", info.Width).
		Int("height", info.Height).
		Float64("fps", info.FPS).
		Msg("video metadata extracted")

	depth := FrameBufferDepth(logger, info.Width, info.Height)
	result := &Result{RunID: runID, Input: input}

	downsampleDir := filepath.Join(p.cfg.DataDir, "downsampled")
	err = p.stage(logger, result, "downsample", func() error {
		var err error
		result.PoseVariant, err = p.ffmpeg.Downsample(ctx, input, ffmpeg.DownsampleOptions{
			FPS:       p.cfg.Pose.FPS,
			OutputDir: downsampleDir,
		})
		if err != nil {
			return err
		}
		result.ActionVariant, err = p.ffmpeg.Downsample(ctx, input, ffmpeg.DownsampleOptions{
			FPS:       p.cfg.Describe.FPS,
			OutputDir: downsampleDir,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	var poseArt *pose.Artifact
	err = p.stage(logger, result, "pose", func() error {
		model, err := pose.NewModel(logger, p.cfg.Pose.ModelPath, p.cfg.Pose.InputSize,
			p.cfg.Pose.Confidence, p.cfg.Pose.IOU)
		if err != nil {
			return err
		}
		defer model.Close()

		stage := pose.NewStage(logger, p.ffmpeg, model, depth)
		result.PoseArtifact = filepath.Join(p.cfg.WorkDir,
			fmt.Sprintf("pose_analysis_%gfps.json", p.cfg.Pose.FPS))
		poseArt, err = stage.Run(ctx, result.PoseVariant, result.PoseArtifact)
		return err
	})
	if err != nil {
		return nil, err
	}

	var actionArt *describe.Artifact
	err = p.stage(logger, result, "describe", func() error {
		client, err := describe.NewClient(logger, describe.ClientOptions{
			BaseURL:   p.cfg.Describe.BaseURL,
			APIKey:    os.Getenv("OPENAI_API_KEY"),
			Model:     p.cfg.Describe.Model,
			MaxTokens: p.cfg.Describe.MaxTokens,
			Timeout:   time.Duration(p.cfg.Describe.TimeoutSec) * time.Second,
		})
		if err != nil {
			return err
		}

		stage := describe.NewStage(logger, p.ffmpeg, client, depth)
		result.ActionArtifact = filepath.Join(p.cfg.WorkDir,
			fmt.Sprintf("action_descriptions_%gfps.json", p.cfg.Describe.FPS))
		actionArt, err = stage.Run(ctx, result.ActionVariant, result.ActionArtifact)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(logger, result, "timeline", func() error {
		shots, err := timeline.LoadList(p.cfg.ShotsPath, p.cfg.Video.OriginalFPS, p.cfg.Describe.FPS, logger)
		if err != nil {
			return err
		}

		rates := timeline.Rates{
			Original: p.cfg.Video.OriginalFPS,
			Pose:     p.cfg.Pose.FPS,
			Action:   p.cfg.Describe.FPS,
		}
		builder, err := timeline.NewBuilder(logger, rates)
		if err != nil {
			return err
		}
		records, err := builder.Build(poseArt, actionArt, shots)
		if err != nil {
			return err
		}

		art := timeline.NewArtifact(records, shots, rates, runID)
		result.TimelinePath = filepath.Join(p.cfg.WorkDir, "timeline.json")
		if err := art.Write(result.TimelinePath); err != nil {
			return err
		}

		logger.Info().
			Int("frames", len(records)).
			Int("shots", shots.Len()).
			Int("made", shots.Made()).
			Int("missed", shots.Missed()).
			Msg("timeline built")
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(logger, result, "render", func() error {
		renderer, err := render.NewRenderer(logger, p.ffmpeg, depth)
		if err != nil {
			return err
		}
		result.OutputPath, err = renderer.Run(ctx, input, result.TimelinePath, p.cfg.OutputDir)
		return err
	})
	if err != nil {
		return nil, err
	}

	result.Elapsed = time.Since(start)
	logger.Info().
		Str("output", result.OutputPath).
		Str("elapsed", util.FormatDuration(result.Elapsed)).
		Msg("analysis pipeline complete")
	return result, nil
}

// stage runs one named stage, records its timing and wraps its error.
func (p *Pipeline) stage(logger zerolog.Logger, result *Result, name string, fn func() error) error {
	start := time.Now()
	logger.Info().Str("stage", name).Msg("stage starting")

	if err := fn(); err != nil {
		logger.Error().
			Str("stage", name).
			Dur("elapsed", time.Since(start)).
			Err(err).
			Msg("stage failed")
		return fmt.Errorf("%s stage: %w", name, err)
	}

	elapsed := time.Since(start)
	result.Stages = append(result.Stages, StageTiming{Stage: name, Elapsed: elapsed})
	logger.Info().
		Str("stage", name).
		Str("elapsed", util.FormatDuration(elapsed)).
		Msg("stage complete")
	return nil
}
