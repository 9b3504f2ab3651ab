package render

import (
	"fmt"
	"image/color"

	"github.com/kikiluvv/shotline/internal/timeline"
)

// Panel palette.
var (
	colorText       = color.RGBA{255, 255, 255, 255}
	colorPanelBG    = color.RGBA{20, 20, 30, 255}
	colorAccent     = color.RGBA{255, 215, 0, 255}
	colorSecondary  = color.RGBA{180, 180, 180, 255}
	colorGoal       = color.RGBA{0, 255, 100, 255}
	colorSave       = color.RGBA{255, 50, 50, 255}
	colorInProgress = color.RGBA{255, 165, 0, 255}
	colorPose       = color.RGBA{255, 255, 0, 255}
)

// StatusStyle is the headline and color drawn for a non-idle shot status.
type StatusStyle struct {
	Headline string
	Color    color.RGBA
}

// StyleFor maps a frame's shot status to its panel headline. Idle frames
// have no headline; ok is false.
func StyleFor(st timeline.ShotStatus) (StatusStyle, bool) {
	if st.Status == timeline.StatusIdle || st.Shot == nil {
		return StatusStyle{}, false
	}

	// pre_shot and post_result color by outcome, in_flight stays neutral
	outcome := colorSave
	if st.Shot.Made {
		outcome = colorGoal
	}

	switch st.Status {
	case timeline.StatusInFlight:
		return StatusStyle{
			Headline: fmt.Sprintf("SHOT #%d IN PROGRESS", st.ShotNum),
			Color:    colorInProgress,
		}, true
	case timeline.StatusPostResult:
		verdict := "SAVED!"
		if st.Shot.Made {
			verdict = "GOAL!"
		}
		return StatusStyle{
			Headline: fmt.Sprintf("SHOT #%d: %s", st.ShotNum, verdict),
			Color:    outcome,
		}, true
	default:
		return StatusStyle{
			Headline: fmt.Sprintf("SHOT #%d PREPARING...", st.ShotNum),
			Color:    outcome,
		}, true
	}
}
