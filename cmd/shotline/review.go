package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kikiluvv/shotline/internal/config"
	"github.com/kikiluvv/shotline/internal/logging"
	"github.com/kikiluvv/shotline/internal/pipeline"
	"github.com/kikiluvv/shotline/internal/review"
	"github.com/kikiluvv/shotline/pkg/util"
)

var reviewVideoPath string

func init() {
	reviewCmd.Flags().StringVar(&reviewVideoPath, "video", "", "action-rate video used to bound the frame sliders")
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Edit the shots file in a GUI",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		maxFrame := 0
		if reviewVideoPath != "" {
			exec, err := newExecutor(cfg)
			if err != nil {
				return err
			}
			info, err := exec.ProbeVideo(cmd.Context(), reviewVideoPath)
			if err != nil {
				return err
			}
			maxFrame = int(info.Duration.Seconds() * cfg.Describe.FPS)
		}

		editor := review.NewEditor(log.Logger, cfg.ShotsPath, cfg.Video.OriginalFPS, cfg.Describe.FPS, maxFrame)
		return editor.Run()
	},
}

var runCmd = &cobra.Command{
	Use:   "run [video]",
	Short: "Run the full analysis pipeline",
	Long: "Downsamples the source to both analysis rates, runs pose and action analysis, " +
		"builds the frame timeline against the shots file, and renders the final " +
		"coaching video.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		// Best effort; the key may equally come from the real environment
		_ = godotenv.Load()

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		result, err := pipe.Run(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		logger := logging.WithRun(result.RunID)
		for _, st := range result.Stages {
			logger.Info().
				Str("stage", st.Stage).
				Str("elapsed", util.FormatDuration(st.Elapsed)).
				Msg("stage timing")
		}
		logger.Info().
			Str("output", result.OutputPath).
			Str("elapsed", util.FormatDuration(result.Elapsed)).
			Msg("pipeline complete")
		return nil
	},
}
