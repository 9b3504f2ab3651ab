package timeline

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/shotline/internal/describe"
	"github.com/kikiluvv/shotline/internal/pose"
)

// ErrEmptyStream is returned when an analysis stream has no frames. A
// degenerate timeline is never emitted; this aborts the run.
var ErrEmptyStream = errors.New("analysis stream is empty")

// Rates groups the three sampling rates of one pipeline run.
type Rates struct {
	Original float64
	Pose     float64
	Action   float64
}

// Record is the merged view of one original-framerate frame. It owns copies
// of the joined analysis records, so the timeline can be serialized and
// replayed without the analysis artifacts.
type Record struct {
	OriginalFrame  int            `json:"original_frame"`
	PoseAnalysis   pose.Frame     `json:"pose_analysis"`
	ActionAnalysis describe.Frame `json:"action_analysis"`
	ShotStatus     ShotStatus     `json:"shot_status"`
}

// Builder joins the pose stream, the action stream and the shot timeline into
// one record per original frame.
type Builder struct {
	logger zerolog.Logger
	rates  Rates
}

// NewBuilder validates the rate relationships once so Build can treat mapping
// failures as contract violations.
func NewBuilder(logger zerolog.Logger, rates Rates) (*Builder, error) {
	if rates.Original <= 0 || rates.Pose <= 0 || rates.Action <= 0 {
		return nil, fmt.Errorf("invalid rates: original=%v pose=%v action=%v",
			rates.Original, rates.Pose, rates.Action)
	}
	if rates.Pose > rates.Original {
		return nil, fmt.Errorf("pose rate %v vs original %v: %w", rates.Pose, rates.Original, ErrUpsample)
	}
	if rates.Action > rates.Original {
		return nil, fmt.Errorf("action rate %v vs original %v: %w", rates.Action, rates.Original, ErrUpsample)
	}
	return &Builder{logger: logger, rates: rates}, nil
}

// Build produces exactly one Record per original frame index in
// [0, num_original), in increasing order. num_original is the pose stream's
// reported frame count projected to the original rate, floored: the floored
// count is the largest every join can satisfy, and a trailing fractional
// frame is dropped deliberately (and logged).
func (b *Builder) Build(poseArt *pose.Artifact, actionArt *describe.Artifact, shots *List) ([]Record, error) {
	if len(poseArt.Frames) == 0 {
		return nil, fmt.Errorf("pose: %w", ErrEmptyStream)
	}
	if len(actionArt.Frames) == 0 {
		return nil, fmt.Errorf("action: %w", ErrEmptyStream)
	}

	reported := poseArt.VideoInfo.FrameCount
	if reported <= 0 {
		b.logger.Warn().
			Int("reported", reported).
			Int("actual", len(poseArt.Frames)).
			Msg("pose artifact reports no frame count, using actual record count")
		reported = len(poseArt.Frames)
	} else if reported != len(poseArt.Frames) {
		b.logger.Warn().
			Int("reported", reported).
			Int("actual", len(poseArt.Frames)).
			Msg("pose frame count mismatch, joins are clamped to actual records")
	}

	exact := float64(reported) * b.rates.Original / b.rates.Pose
	num := int(exact)
	if float64(num) != exact {
		b.logger.Debug().
			Float64("exact", exact).
			Int("floored", num).
			Msg("flooring fractional original frame count")
	}

	b.logger.Info().
		Int("original_frames", num).
		Int("pose_frames", len(poseArt.Frames)).
		Int("action_frames", len(actionArt.Frames)).
		Int("shots", shots.Len()).
		Msg("building timeline")

	records := make([]Record, 0, num)
	lastPose, lastAction := -1, -1

	for i := 0; i < num; i++ {
		poseIdx, err := Map(i, b.rates.Pose, b.rates.Original, len(poseArt.Frames)-1)
		if err != nil {
			return nil, fmt.Errorf("map frame %d to pose stream: %w", i, err)
		}
		actionIdx, err := Map(i, b.rates.Action, b.rates.Original, len(actionArt.Frames)-1)
		if err != nil {
			return nil, fmt.Errorf("map frame %d to action stream: %w", i, err)
		}

		// The mapping must never step backwards as i increases.
		if poseIdx < lastPose || actionIdx < lastAction {
			return nil, fmt.Errorf("non-monotonic join at frame %d: pose %d->%d action %d->%d",
				i, lastPose, poseIdx, lastAction, actionIdx)
		}
		lastPose, lastAction = poseIdx, actionIdx

		records = append(records, Record{
			OriginalFrame:  i,
			PoseAnalysis:   poseArt.Frames[poseIdx].Clone(),
			ActionAnalysis: actionArt.Frames[actionIdx],
			ShotStatus:     shots.Resolve(i),
		})
	}

	b.logger.Info().Int("records", len(records)).Msg("timeline built")
	return records, nil
}
