package pose

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// COCO keypoint indices, in model output order.
const (
	Nose = iota
	LeftEye
	RightEye
	LeftEar
	RightEar
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle

	// NumKeypoints is the fixed keypoint count per person.
	NumKeypoints = 17
)

// Keypoint is one joint estimate in source-pixel coordinates.
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// Person is one detected person's ordered keypoint sequence.
type Person []Keypoint

// Frame is the pose record for one sampled frame.
type Frame struct {
	FrameNumber int      `json:"frame_number"`
	Persons     []Person `json:"pose_estimation"`
}

// Clone returns a deep copy of the frame.
func (f Frame) Clone() Frame {
	out := Frame{FrameNumber: f.FrameNumber}
	if f.Persons == nil {
		return out
	}
	out.Persons = make([]Person, len(f.Persons))
	for i, p := range f.Persons {
		cp := make(Person, len(p))
		copy(cp, p)
		out.Persons[i] = cp
	}
	return out
}

// VideoInfo describes the analysed video stream.
type VideoInfo struct {
	Path       string  `json:"path"`
	FPS        float64 `json:"fps"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	FrameCount int     `json:"frame_count"`
}

// Artifact is the pose analysis output for one video.
type Artifact struct {
	VideoInfo VideoInfo `json:"video_info"`
	Frames    []Frame   `json:"frames"`
}

// Validate checks the structural contract downstream joins rely on: frame
// records are stored in position order with matching frame numbers.
func (a *Artifact) Validate() error {
	for i, f := range a.Frames {
		if f.FrameNumber != i {
			return fmt.Errorf("pose frame at position %d has frame_number %d", i, f.FrameNumber)
		}
	}
	return nil
}

// ReadArtifact loads and validates a pose artifact.
func ReadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pose artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse pose artifact %s: %w", path, err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("pose artifact %s: %w", path, err)
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
