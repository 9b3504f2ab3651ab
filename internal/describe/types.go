package describe

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// PlaceholderDescription marks frames whose hosted analysis failed. The
// timeline stays complete; the renderer shows this text like any other.
const PlaceholderDescription = "Analysis could not be performed for this frame."

// KickAnalysis is the structured part of an action description.
type KickAnalysis struct {
	IsKick   bool   `json:"is_kick"`
	FootPart string `json:"foot_part,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

// Frame is the action record for one sampled frame.
type Frame struct {
	FrameNumber       int          `json:"frame_number"`
	ActionDescription string       `json:"action_description"`
	KickAnalysis      KickAnalysis `json:"kick_analysis"`
}

// Placeholder returns the degraded record substituted when analysis of a
// single frame fails.
func Placeholder(frameNumber int) Frame {
	return Frame{
		FrameNumber:       frameNumber,
		ActionDescription: PlaceholderDescription,
		KickAnalysis:      KickAnalysis{IsKick: false},
	}
}

// Artifact is the action analysis output for one video.
type Artifact struct {
	Frames []Frame `json:"frames"`
}

// Validate checks that frame records are stored in position order with
// matching frame numbers.
func (a *Artifact) Validate() error {
	for i, f := range a.Frames {
		if f.FrameNumber != i {
			return fmt.Errorf("action frame at position %d has frame_number %d", i, f.FrameNumber)
		}
	}
	return nil
}

// ReadArtifact loads and validates an action artifact.
func ReadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read action artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse action artifact %s: %w", path, err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("action artifact %s: %w", path, err)
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
