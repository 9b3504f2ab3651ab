package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kikiluvv/shotline/internal/config"
	"github.com/kikiluvv/shotline/internal/ffmpeg"
	"github.com/kikiluvv/shotline/internal/pipeline"
	"github.com/kikiluvv/shotline/internal/render"
	"github.com/kikiluvv/shotline/pkg/util"
)

var (
	renderTimelinePath string
	suggestThreshold   float64
)

func init() {
	renderCmd.Flags().StringVar(&renderTimelinePath, "timeline", "", "timeline artifact path (default under work dir)")
	suggestCmd.Flags().Float64Var(&suggestThreshold, "threshold", ffmpeg.DefaultSceneThreshold, "scene-change score threshold (0-1)")
}

var renderCmd = &cobra.Command{
	Use:   "render [video]",
	Short: "Render the annotated coaching video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		exec, err := newExecutor(cfg)
		if err != nil {
			return err
		}

		timelinePath := renderTimelinePath
		if timelinePath == "" {
			timelinePath = filepath.Join(cfg.WorkDir, "timeline.json")
		}

		info, err := exec.ProbeVideo(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		depth := pipeline.FrameBufferDepth(log.Logger, info.Width, info.Height)

		renderer, err := render.NewRenderer(log.Logger, exec, depth)
		if err != nil {
			return err
		}

		output, err := renderer.Run(cmd.Context(), args[0], timelinePath, cfg.OutputDir)
		if err != nil {
			return err
		}

		log.Info().Str("output", output).Msg("render complete")
		return nil
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert [video] [output]",
	Short: "Convert a rendered video to the Twitter upload profile",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		exec, err := newExecutor(cfg)
		if err != nil {
			return err
		}

		input := args[0]
		output := ""
		if len(args) == 2 {
			output = args[1]
		} else {
			output = filepath.Join(filepath.Dir(input), util.BaseName(input)+"_twitter.mp4")
		}

		progress := func(p *ffmpeg.Progress) {
			log.Debug().Int("frame", p.Frame).Str("speed", p.Speed).Msg("converting")
		}
		if err := exec.ConvertForTwitter(cmd.Context(), input, output, progress); err != nil {
			return err
		}

		log.Info().Str("output", output).Msg("conversion complete")
		return nil
	},
}

var suggestCmd = &cobra.Command{
	Use:   "suggest [video]",
	Short: "Suggest shot boundary candidates from scene changes",
	Long: "Runs scene-change detection over the source footage and prints candidate " +
		"kick/result boundaries, in both original and action-rate frame numbers, for " +
		"seeding the shots file. Advisory only; the shots file is never written.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		exec, err := newExecutor(cfg)
		if err != nil {
			return err
		}

		scenes, err := exec.DetectScenes(cmd.Context(), args[0], suggestThreshold)
		if err != nil {
			return err
		}

		if len(scenes) == 0 {
			fmt.Printf("no scene changes above threshold %.2f\n", suggestThreshold)
			return nil
		}

		fmt.Printf("%d scene changes above threshold %.2f\n", len(scenes), suggestThreshold)
		fmt.Println(strings.Repeat("-", 56))
		for i, ts := range scenes {
			originalFrame := int(ts.Seconds() * cfg.Video.OriginalFPS)
			actionFrame := int(ts.Seconds() * cfg.Describe.FPS)
			fmt.Printf("%3d.  t=%-9s original frame %-6d action frame %d\n",
				i+1, util.FormatDuration(ts), originalFrame, actionFrame)
		}
		fmt.Println(strings.Repeat("-", 56))
		fmt.Println("action-rate frames are what shots.yaml kick_frame/result_frame use")
		return nil
	},
}
