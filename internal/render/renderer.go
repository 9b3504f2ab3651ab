package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kikiluvv/shotline/internal/ffmpeg"
	"github.com/kikiluvv/shotline/internal/timeline"
	"github.com/kikiluvv/shotline/pkg/util"
)

// progressEvery is the renderer's progress log cadence in frames
const progressEvery = 60

// DefaultFrameDepth bounds decode read-ahead when no sizing is supplied
const DefaultFrameDepth = 8

// Renderer composes the final coaching video: the original footage with the
// pose skeleton on the left, the analysis panel on the right.
type Renderer struct {
	logger zerolog.Logger
	ffmpeg *ffmpeg.Executor
	faces  *faces
	depth  int
}

// NewRenderer wires a renderer together. depth bounds the decode read-ahead
// channel; pass 0 for the default.
func NewRenderer(logger zerolog.Logger, exec *ffmpeg.Executor, depth int) (*Renderer, error) {
	f, err := newFaces()
	if err != nil {
		return nil, err
	}
	if depth <= 0 {
		depth = DefaultFrameDepth
	}
	return &Renderer{
		logger: logger.With().Str("component", "render").Logger(),
		ffmpeg: exec,
		faces:  f,
		depth:  depth,
	}, nil
}

// Run renders the coaching video for videoPath against the timeline artifact
// at timelinePath and returns the output file path. Record i is paired with
// decoded frame i; rendering stops at the shorter of the two streams.
func (r *Renderer) Run(ctx context.Context, videoPath, timelinePath, outputDir string) (string, error) {
	art, err := timeline.ReadArtifact(timelinePath)
	if err != nil {
		return "", err
	}

	info, err := r.ffmpeg.ProbeVideo(ctx, videoPath)
	if err != nil {
		return "", fmt.Errorf("probe failed: %w", err)
	}

	fps := art.VideoInfo.OriginalFPS
	if fps <= 0 {
		fps = info.FPS
	}

	if err := util.EnsureDir(outputDir); err != nil {
		return "", err
	}
	outputPath := filepath.Join(outputDir,
		fmt.Sprintf("soccer_coach_final_%s.mp4", util.RunTimestamp(time.Now())))

	limit := len(art.TimelineMappings)
	r.logger.Info().
		Str("video", videoPath).
		Int("timeline_frames", limit).
		Int("width", info.Width).
		Int("height", info.Height).
		Float64("fps", fps).
		Bool("audio", info.HasAudio).
		Msg("starting render")

	// The raw encode pipe produces a silent file; when the source carries
	// audio, encode to an intermediate and mux afterwards.
	encodePath := outputPath
	if info.HasAudio {
		encodePath = strings.TrimSuffix(outputPath, ".mp4") + "_silent.mp4"
	}

	reader, err := r.ffmpeg.NewFrameReader(ctx, videoPath, info.Width, info.Height)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	writer, err := r.ffmpeg.NewFrameWriter(ctx, encodePath, ffmpeg.EncodeOptions{
		Width:  info.Width * 2,
		Height: info.Height,
		FPS:    fps,
	})
	if err != nil {
		return "", err
	}

	renderCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := make(chan *image.RGBA, r.depth)
	g, gctx := errgroup.WithContext(renderCtx)
	g.Go(func() error {
		defer close(frames)
		for i := 0; i < limit; i++ {
			img, err := reader.Next()
			if errors.Is(err, io.EOF) {
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
		return nil
	})

	leftHalf := image.Rect(0, 0, info.Width, info.Height)
	rightHalf := image.Rect(info.Width, 0, info.Width*2, info.Height)
	combined := image.NewRGBA(image.Rect(0, 0, info.Width*2, info.Height))
	panel := image.NewRGBA(image.Rect(0, 0, info.Width, info.Height))

	n := 0
	var encodeErr error
	for img := range frames {
		rec := art.TimelineMappings[n]

		DrawSkeleton(img, rec.PoseAnalysis.Persons)
		draw.Draw(combined, leftHalf, img, image.Point{}, draw.Src)

		drawPanel(panel, r.faces, rec)
		draw.Draw(combined, rightHalf, panel, image.Point{}, draw.Src)

		if err := writer.Write(combined); err != nil {
			encodeErr = fmt.Errorf("encode frame %d: %w", n, err)
			cancel()
			break
		}

		n++
		if n%progressEvery == 0 {
			r.logger.Info().Int("frame", n).Int("total", limit).Msg("rendering")
		}
	}

	waitErr := g.Wait()
	if encodeErr != nil {
		return "", encodeErr
	}
	if waitErr != nil {
		return "", fmt.Errorf("decode failed: %w", waitErr)
	}
	if n == 0 {
		return "", fmt.Errorf("no frames decoded from %s", videoPath)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize encode: %w", err)
	}

	switch {
	case n < limit:
		r.logger.Warn().
			Int("frames_rendered", n).
			Int("timeline_frames", limit).
			Msg("video ended before the timeline; rendered the shorter length")
	case info.FrameCount > limit:
		r.logger.Warn().
			Int("frames_rendered", n).
			Int("video_frames", info.FrameCount).
			Msg("video continues past the timeline; rendered the shorter length")
	}

	if info.HasAudio {
		r.logger.Info().Msg("muxing source audio")
		if err := r.ffmpeg.MuxAudio(ctx, encodePath, videoPath, outputPath, nil); err != nil {
			return "", fmt.Errorf("mux audio: %w", err)
		}
		util.CleanupFiles(encodePath)
	}

	r.logger.Info().
		Int("frames", n).
		Str("output", outputPath).
		Msg("render complete")
	return outputPath, nil
}
