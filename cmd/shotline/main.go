package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kikiluvv/shotline/internal/config"
	"github.com/kikiluvv/shotline/internal/ffmpeg"
	"github.com/kikiluvv/shotline/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "shotline",
	Short: "shotline - penalty kick analysis pipeline",
	Long: "A Go-powered penalty analysis pipeline that downsamples footage, runs pose and " +
		"action analysis, joins the streams into a per-frame timeline, and renders an " +
		"annotated coaching video.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logging
		logging.Init(verbose)

		// Load config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// Store config in context
		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./shotline.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(downsampleCmd)
	rootCmd.AddCommand(poseCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(timelineCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(runCmd)
}

// newExecutor builds the ffmpeg executor from configuration.
func newExecutor(cfg *config.Config) (*ffmpeg.Executor, error) {
	return ffmpeg.New(log.Logger, cfg.FFmpeg.BinaryPath, cfg.FFmpeg.ProbePath, cfg.FFmpeg.Threads)
}
