package timeline

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	// PreShotLead is how many original-rate frames before the kick the
	// pre_shot window opens.
	PreShotLead = 45

	// PostResultHold is how many original-rate frames the post_result window
	// stays up after the result.
	PostResultHold = 30
)

// Shot is one scoring attempt. Kick and result frames are authored in the
// action stream's frame numbering; the original-rate boundaries are derived
// once when the list is built and cached.
type Shot struct {
	ShotNum     int    `json:"shot_num" yaml:"shot_num"`
	Made        bool   `json:"made" yaml:"made"`
	KickFrame   int    `json:"kick_frame" yaml:"kick_frame"`
	ResultFrame int    `json:"result_frame" yaml:"result_frame"`
	FootContact string `json:"foot_contact" yaml:"foot_contact"`
	Location    string `json:"location" yaml:"location"`
	Details     string `json:"details" yaml:"details"`

	KickFrameOriginal   int `json:"kick_frame_original" yaml:"-"`
	ResultFrameOriginal int `json:"result_frame_original" yaml:"-"`
}

// PreShotStart returns the first frame of the pre_shot window. It can be
// negative for a shot early in the clip; window checks treat that naturally.
func (s Shot) PreShotStart() int {
	return s.KickFrameOriginal - PreShotLead
}

// PostResultEnd returns the frame just past the post_result window.
func (s Shot) PostResultEnd() int {
	return s.ResultFrameOriginal + PostResultHold
}

// List holds the validated, immutable shot timeline for one clip.
type List struct {
	shots []Shot
}

type shotsFile struct {
	Shots []Shot `yaml:"shots"`
}

// LoadList reads a shots YAML file, derives original-rate boundaries and
// validates the result.
func LoadList(path string, originalFPS, actionFPS float64, logger zerolog.Logger) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read shots file: %w", err)
	}

	var f shotsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse shots file %s: %w", path, err)
	}

	list, err := NewList(f.Shots, originalFPS, actionFPS, logger)
	if err != nil {
		return nil, fmt.Errorf("shots file %s: %w", path, err)
	}
	return list, nil
}

// NewList derives original-rate kick/result boundaries for each shot and
// validates ordering. Overlapping pre/post windows between consecutive shots
// are legal (the resolver's first-match rule arbitrates them) and are logged
// at debug level.
func NewList(shots []Shot, originalFPS, actionFPS float64, logger zerolog.Logger) (*List, error) {
	if len(shots) == 0 {
		return nil, fmt.Errorf("no shots defined")
	}
	if actionFPS <= 0 || originalFPS <= 0 {
		return nil, fmt.Errorf("invalid frame rates: original=%v action=%v", originalFPS, actionFPS)
	}
	if actionFPS > originalFPS {
		return nil, fmt.Errorf("shot frames authored at %v fps but original is %v fps: %w", actionFPS, originalFPS, ErrUpsample)
	}

	out := make([]Shot, len(shots))
	copy(out, shots)

	for i := range out {
		s := &out[i]
		if s.ShotNum != i+1 {
			return nil, fmt.Errorf("shot at position %d has shot_num %d, want %d", i, s.ShotNum, i+1)
		}
		if s.KickFrame < 0 {
			return nil, fmt.Errorf("shot %d: negative kick_frame %d", s.ShotNum, s.KickFrame)
		}
		if s.KickFrame >= s.ResultFrame {
			return nil, fmt.Errorf("shot %d: kick_frame %d not before result_frame %d", s.ShotNum, s.KickFrame, s.ResultFrame)
		}

		s.KickFrameOriginal = originalFrame(s.KickFrame, originalFPS, actionFPS)
		s.ResultFrameOriginal = originalFrame(s.ResultFrame, originalFPS, actionFPS)
	}

	for i := 1; i < len(out); i++ {
		prev, cur := out[i-1], out[i]
		if cur.KickFrameOriginal < prev.ResultFrameOriginal {
			return nil, fmt.Errorf("shot %d kicks at original frame %d before shot %d resolves at %d",
				cur.ShotNum, cur.KickFrameOriginal, prev.ShotNum, prev.ResultFrameOriginal)
		}
		if cur.PreShotStart() < prev.PostResultEnd() {
			logger.Debug().
				Int("shot", cur.ShotNum).
				Int("prev_shot", prev.ShotNum).
				Int("pre_shot_start", cur.PreShotStart()).
				Int("prev_post_result_end", prev.PostResultEnd()).
				Msg("shot windows overlap, earlier shot wins in the overlap")
		}
	}

	return &List{shots: out}, nil
}

// originalFrame converts a frame index authored at an analysis rate to the
// original rate. No clamping here: shot boundaries may legitimately sit past
// the analysed portion of the clip.
func originalFrame(analysisFrame int, originalFPS, analysisFPS float64) int {
	return int(float64(analysisFrame) * originalFPS / analysisFPS)
}

// Shots returns a copy of the shot list in chronological order.
func (l *List) Shots() []Shot {
	out := make([]Shot, len(l.shots))
	copy(out, l.shots)
	return out
}

// Len returns the number of shots.
func (l *List) Len() int {
	return len(l.shots)
}

// Made returns the number of made shots.
func (l *List) Made() int {
	n := 0
	for _, s := range l.shots {
		if s.Made {
			n++
		}
	}
	return n
}

// Missed returns the number of missed shots.
func (l *List) Missed() int {
	return len(l.shots) - l.Made()
}

// SaveShots writes a shots YAML file. Derived fields are not persisted; they
// are recomputed on every load.
func SaveShots(path string, shots []Shot) error {
	data, err := yaml.Marshal(shotsFile{Shots: shots})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
