package timeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// AnalysisFPS records the sampling rate of each analysis stream.
type AnalysisFPS struct {
	Pose   float64 `json:"pose"`
	Action float64 `json:"action"`
}

// VideoMeta describes the original stream the timeline is indexed against.
type VideoMeta struct {
	OriginalFPS        float64     `json:"original_fps"`
	OriginalFrameCount int         `json:"original_frame_count"`
	AnalysisFPS        AnalysisFPS `json:"analysis_fps"`
}

// ShotSummary aggregates the shot timeline for the artifact header.
type ShotSummary struct {
	TotalShots  int    `json:"total_shots"`
	MadeShots   int    `json:"made_shots"`
	MissedShots int    `json:"missed_shots"`
	Shots       []Shot `json:"shots"`
}

// Artifact is the merged timeline written by the build stage and consumed by
// the renderer. It round-trips through JSON without loss.
type Artifact struct {
	RunID            string      `json:"run_id,omitempty"`
	GeneratedAt      string      `json:"generated_at"`
	VideoInfo        VideoMeta   `json:"video_info"`
	ShotInfo         ShotSummary `json:"shot_info"`
	TimelineMappings []Record    `json:"timeline_mappings"`
}

// NewArtifact assembles the timeline artifact from built records.
func NewArtifact(records []Record, shots *List, rates Rates, runID string) *Artifact {
	return &Artifact{
		RunID:       runID,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		VideoInfo: VideoMeta{
			OriginalFPS:        rates.Original,
			OriginalFrameCount: len(records),
			AnalysisFPS:        AnalysisFPS{Pose: rates.Pose, Action: rates.Action},
		},
		ShotInfo: ShotSummary{
			TotalShots:  shots.Len(),
			MadeShots:   shots.Made(),
			MissedShots: shots.Missed(),
			Shots:       shots.Shots(),
		},
		TimelineMappings: records,
	}
}

// Validate checks the invariants the renderer's lockstep walk relies on.
func (a *Artifact) Validate() error {
	if len(a.TimelineMappings) == 0 {
		return fmt.Errorf("timeline artifact has no mappings")
	}
	if len(a.TimelineMappings) != a.VideoInfo.OriginalFrameCount {
		return fmt.Errorf("timeline artifact reports %d frames but has %d mappings",
			a.VideoInfo.OriginalFrameCount, len(a.TimelineMappings))
	}
	for i, r := range a.TimelineMappings {
		if r.OriginalFrame != i {
			return fmt.Errorf("timeline mapping at position %d has original_frame %d", i, r.OriginalFrame)
		}
	}
	return nil
}

// ReadArtifact loads and validates a timeline artifact.
func ReadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read timeline artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse timeline artifact %s: %w", path, err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("timeline artifact %s: %w", path, err)
	}
	return &a, nil
}

// Write saves the artifact as indented JSON.
func (a *Artifact) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
