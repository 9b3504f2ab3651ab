package review

import (
	"fmt"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/kikiluvv/shotline/internal/timeline"
)

// defaultMaxFrame bounds the frame sliders when no video was probed.
const defaultMaxFrame = 10000

// Editor is the shots-file review GUI. It loads the file leniently so a
// broken timeline can be repaired, but saves only what passes the same
// validation the timeline loader applies.
type Editor struct {
	logger      zerolog.Logger
	shotsPath   string
	originalFPS float64
	actionFPS   float64
	maxFrame    int

	shots    []timeline.Shot
	selected int
}

// NewEditor wires an editor for the shots file at shotsPath. maxFrame bounds
// the kick/result sliders (action-rate frames); pass 0 when no video was
// probed.
func NewEditor(logger zerolog.Logger, shotsPath string, originalFPS, actionFPS float64, maxFrame int) *Editor {
	if maxFrame <= 0 {
		maxFrame = defaultMaxFrame
	}
	return &Editor{
		logger:      logger.With().Str("component", "review").Logger(),
		shotsPath:   shotsPath,
		originalFPS: originalFPS,
		actionFPS:   actionFPS,
		maxFrame:    maxFrame,
		selected:    -1,
	}
}

// loadShotsLenient reads the shots file without boundary validation. A
// missing file starts an empty session.
func loadShotsLenient(path string) ([]timeline.Shot, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read shots file: %w", err)
	}

	var f struct {
		Shots []timeline.Shot `yaml:"shots"`
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse shots file %s: %w", path, err)
	}
	return f.Shots, nil
}

// rowText is the one-line list entry for a shot.
func rowText(s timeline.Shot) string {
	outcome := "SAVED"
	if s.Made {
		outcome = "GOAL"
	}
	return fmt.Sprintf("Shot %d: kick %d -> result %d (%s)", s.ShotNum, s.KickFrame, s.ResultFrame, outcome)
}

// Run opens the editor window and blocks until it is closed.
func (e *Editor) Run() error {
	shots, err := loadShotsLenient(e.shotsPath)
	if err != nil {
		return err
	}
	e.shots = shots
	e.logger.Info().Str("path", e.shotsPath).Int("shots", len(shots)).Msg("editing shots file")

	a := app.NewWithID("shotline")
	w := a.NewWindow("shotline - shot review")
	w.Resize(fyne.NewSize(760, 480))

	kickLabel := widget.NewLabel("Kick frame: -")
	resultLabel := widget.NewLabel("Result frame: -")
	kickSlider := widget.NewSlider(0, float64(e.maxFrame))
	resultSlider := widget.NewSlider(0, float64(e.maxFrame))
	kickSlider.Step = 1
	resultSlider.Step = 1
	madeCheck := widget.NewCheck("Goal scored", nil)
	locationEntry := widget.NewEntry()
	locationEntry.SetPlaceHolder("Location (e.g. Top-left corner)")
	detailsEntry := widget.NewEntry()
	detailsEntry.SetPlaceHolder("Details")
	footEntry := widget.NewEntry()
	footEntry.SetPlaceHolder("Foot contact (e.g. laces)")

	list := widget.NewList(
		func() int { return len(e.shots) },
		func() fyne.CanvasObject { return widget.NewLabel("shot") },
		func(i widget.ListItemID, obj fyne.CanvasObject) {
			obj.(*widget.Label).SetText(rowText(e.shots[i]))
		},
	)

	showShot := func(i int) {
		s := e.shots[i]
		kickSlider.SetValue(float64(s.KickFrame))
		resultSlider.SetValue(float64(s.ResultFrame))
		kickLabel.SetText(fmt.Sprintf("Kick frame: %d (%.2fs)", s.KickFrame, float64(s.KickFrame)/e.actionFPS))
		resultLabel.SetText(fmt.Sprintf("Result frame: %d (%.2fs)", s.ResultFrame, float64(s.ResultFrame)/e.actionFPS))
		madeCheck.SetChecked(s.Made)
		locationEntry.SetText(s.Location)
		detailsEntry.SetText(s.Details)
		footEntry.SetText(s.FootContact)
	}

	list.OnSelected = func(i widget.ListItemID) {
		e.selected = i
		showShot(i)
	}

	kickSlider.OnChanged = func(val float64) {
		if e.selected < 0 {
			return
		}
		s := &e.shots[e.selected]
		s.KickFrame = int(val)
		kickLabel.SetText(fmt.Sprintf("Kick frame: %d (%.2fs)", s.KickFrame, float64(s.KickFrame)/e.actionFPS))
		list.Refresh()
	}
	resultSlider.OnChanged = func(val float64) {
		if e.selected < 0 {
			return
		}
		s := &e.shots[e.selected]
		s.ResultFrame = int(val)
		resultLabel.SetText(fmt.Sprintf("Result frame: %d (%.2fs)", s.ResultFrame, float64(s.ResultFrame)/e.actionFPS))
		list.Refresh()
	}
	madeCheck.OnChanged = func(checked bool) {
		if e.selected < 0 {
			return
		}
		e.shots[e.selected].Made = checked
		list.Refresh()
	}
	locationEntry.OnChanged = func(text string) {
		if e.selected >= 0 {
			e.shots[e.selected].Location = text
		}
	}
	detailsEntry.OnChanged = func(text string) {
		if e.selected >= 0 {
			e.shots[e.selected].Details = text
		}
	}
	footEntry.OnChanged = func(text string) {
		if e.selected >= 0 {
			e.shots[e.selected].FootContact = text
		}
	}

	addButton := widget.NewButton("Add Shot", func() {
		next := len(e.shots) + 1
		kick := 0
		if n := len(e.shots); n > 0 {
			kick = e.shots[n-1].ResultFrame + 1
		}
		e.shots = append(e.shots, timeline.Shot{
			ShotNum:     next,
			KickFrame:   kick,
			ResultFrame: kick + 1,
		})
		list.Refresh()
		list.Select(len(e.shots) - 1)
	})

	removeButton := widget.NewButton("Remove Last", func() {
		if len(e.shots) == 0 {
			return
		}
		e.shots = e.shots[:len(e.shots)-1]
		if e.selected >= len(e.shots) {
			e.selected = -1
			list.UnselectAll()
		}
		list.Refresh()
	})

	saveButton := widget.NewButton("Save", func() {
		// Same checks the timeline loader runs, so a saved file always loads
		if _, err := timeline.NewList(e.shots, e.originalFPS, e.actionFPS, e.logger); err != nil {
			dialog.ShowError(err, w)
			return
		}
		if err := timeline.SaveShots(e.shotsPath, e.shots); err != nil {
			dialog.ShowError(err, w)
			return
		}
		e.logger.Info().Str("path", e.shotsPath).Int("shots", len(e.shots)).Msg("shots file saved")
		dialog.ShowInformation("Saved", fmt.Sprintf("%d shots written to %s", len(e.shots), e.shotsPath), w)
	})

	form := container.NewVBox(
		kickLabel, kickSlider,
		resultLabel, resultSlider,
		madeCheck,
		locationEntry, detailsEntry, footEntry,
		container.NewHBox(addButton, removeButton, saveButton),
	)

	w.SetContent(container.NewHSplit(list, form))
	w.ShowAndRun()
	return nil
}
