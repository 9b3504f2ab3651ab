package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kikiluvv/shotline/internal/config"
	"github.com/kikiluvv/shotline/internal/describe"
	"github.com/kikiluvv/shotline/internal/ffmpeg"
	"github.com/kikiluvv/shotline/internal/pipeline"
	"github.com/kikiluvv/shotline/internal/pose"
	"github.com/kikiluvv/shotline/internal/timeline"
)

var (
	downsampleFPS  float64
	poseModelPath  string
	poseOutput     string
	describeOutput string
	tlPosePath     string
	tlActionPath   string
	tlShotsPath    string
	tlOutput       string
)

func init() {
	downsampleCmd.Flags().Float64Var(&downsampleFPS, "fps", 0, "single target rate (default: both configured analysis rates)")
	poseCmd.Flags().StringVar(&poseModelPath, "model", "", "pose model path (default from config)")
	poseCmd.Flags().StringVar(&poseOutput, "output", "", "artifact path (default under work dir)")
	describeCmd.Flags().StringVar(&describeOutput, "output", "", "artifact path (default under work dir)")
	timelineCmd.Flags().StringVar(&tlPosePath, "pose", "", "pose artifact path (default under work dir)")
	timelineCmd.Flags().StringVar(&tlActionPath, "actions", "", "action artifact path (default under work dir)")
	timelineCmd.Flags().StringVar(&tlShotsPath, "shots", "", "shots file path (default from config)")
	timelineCmd.Flags().StringVar(&tlOutput, "output", "", "timeline path (default under work dir)")
}

// poseArtifactPath is the default location of the pose artifact.
func poseArtifactPath(cfg *config.Config) string {
	return filepath.Join(cfg.WorkDir, fmt.Sprintf("pose_analysis_%gfps.json", cfg.Pose.FPS))
}

// actionArtifactPath is the default location of the action artifact.
func actionArtifactPath(cfg *config.Config) string {
	return filepath.Join(cfg.WorkDir, fmt.Sprintf("action_descriptions_%gfps.json", cfg.Describe.FPS))
}

var probeCmd = &cobra.Command{
	Use:   "probe [video]",
	Short: "Inspect a video's stream metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		exec, err := newExecutor(cfg)
		if err != nil {
			return err
		}

		info, err := exec.ProbeVideo(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		log.Info().
			Str("file", info.FilePath).
			Dur("duration", info.Duration).
			Int("width", info.Width).
			Int("height", info.Height).
			Float64("fps", info.FPS).
			Int("frames", info.FrameCount).
			Str("video_codec", info.VideoCodec).
			Bool("audio", info.HasAudio).
			Msg("probe complete")
		return nil
	},
}

var downsampleCmd = &cobra.Command{
	Use:   "downsample [video]",
	Short: "Produce the analysis-rate variants of a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		exec, err := newExecutor(cfg)
		if err != nil {
			return err
		}

		rates := []float64{cfg.Pose.FPS, cfg.Describe.FPS}
		if downsampleFPS > 0 {
			rates = []float64{downsampleFPS}
		}

		outputDir := filepath.Join(cfg.DataDir, "downsampled")
		for _, fps := range rates {
			out, err := exec.Downsample(cmd.Context(), args[0], ffmpeg.DownsampleOptions{
				FPS:       fps,
				OutputDir: outputDir,
			})
			if err != nil {
				return err
			}
			log.Info().Float64("fps", fps).Str("output", out).Msg("downsample complete")
		}
		return nil
	},
}

var poseCmd = &cobra.Command{
	Use:   "pose [video]",
	Short: "Run pose estimation over the pose-rate variant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		exec, err := newExecutor(cfg)
		if err != nil {
			return err
		}

		modelPath := cfg.Pose.ModelPath
		if poseModelPath != "" {
			modelPath = poseModelPath
		}
		model, err := pose.NewModel(log.Logger, modelPath, cfg.Pose.InputSize,
			cfg.Pose.Confidence, cfg.Pose.IOU)
		if err != nil {
			return err
		}
		defer model.Close()

		info, err := exec.ProbeVideo(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		depth := pipeline.FrameBufferDepth(log.Logger, info.Width, info.Height)

		output := poseOutput
		if output == "" {
			output = poseArtifactPath(cfg)
		}

		stage := pose.NewStage(log.Logger, exec, model, depth)
		art, err := stage.Run(cmd.Context(), args[0], output)
		if err != nil {
			return err
		}

		log.Info().Int("frames", len(art.Frames)).Str("output", output).Msg("pose analysis complete")
		return nil
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe [video]",
	Short: "Run action analysis over the action-rate variant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		exec, err := newExecutor(cfg)
		if err != nil {
			return err
		}

		// Best effort; the key may equally come from the real environment
		_ = godotenv.Load()

		client, err := describe.NewClient(log.Logger, describe.ClientOptions{
			BaseURL:   cfg.Describe.BaseURL,
			APIKey:    os.Getenv("OPENAI_API_KEY"),
			Model:     cfg.Describe.Model,
			MaxTokens: cfg.Describe.MaxTokens,
			Timeout:   time.Duration(cfg.Describe.TimeoutSec) * time.Second,
		})
		if err != nil {
			return err
		}

		info, err := exec.ProbeVideo(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		depth := pipeline.FrameBufferDepth(log.Logger, info.Width, info.Height)

		output := describeOutput
		if output == "" {
			output = actionArtifactPath(cfg)
		}

		stage := describe.NewStage(log.Logger, exec, client, depth)
		art, err := stage.Run(cmd.Context(), args[0], output)
		if err != nil {
			return err
		}

		log.Info().Int("frames", len(art.Frames)).Str("output", output).Msg("action analysis complete")
		return nil
	},
}

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Join the analysis artifacts and shots file into the frame timeline",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		posePath := tlPosePath
		if posePath == "" {
			posePath = poseArtifactPath(cfg)
		}
		actionPath := tlActionPath
		if actionPath == "" {
			actionPath = actionArtifactPath(cfg)
		}
		shotsPath := tlShotsPath
		if shotsPath == "" {
			shotsPath = cfg.ShotsPath
		}
		output := tlOutput
		if output == "" {
			output = filepath.Join(cfg.WorkDir, "timeline.json")
		}

		poseArt, err := pose.ReadArtifact(posePath)
		if err != nil {
			return err
		}
		actionArt, err := describe.ReadArtifact(actionPath)
		if err != nil {
			return err
		}
		shots, err := timeline.LoadList(shotsPath, cfg.Video.OriginalFPS, cfg.Describe.FPS, log.Logger)
		if err != nil {
			return err
		}

		rates := timeline.Rates{
			Original: cfg.Video.OriginalFPS,
			Pose:     cfg.Pose.FPS,
			Action:   cfg.Describe.FPS,
		}
		builder, err := timeline.NewBuilder(log.Logger, rates)
		if err != nil {
			return err
		}
		records, err := builder.Build(poseArt, actionArt, shots)
		if err != nil {
			return err
		}

		art := timeline.NewArtifact(records, shots, rates, uuid.New().String())
		if err := art.Write(output); err != nil {
			return err
		}

		log.Info().
			Int("frames", len(records)).
			Int("shots", shots.Len()).
			Int("made", shots.Made()).
			Int("missed", shots.Missed()).
			Str("output", output).
			Msg("timeline built")
		return nil
	},
}
