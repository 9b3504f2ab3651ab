package render

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/kikiluvv/shotline/internal/timeline"
)

// Panel layout, in pixels. Wrapped text gets panelTextInset of total
// horizontal margin.
const (
	panelMarginX   = 20
	panelTextInset = 40
	panelStartY    = 40
	headerAdvance  = 30
	lineAdvance    = 20
	maxDescLines   = 3
)

// drawPanel paints the analysis panel for one timeline record. The panel
// image is reused across frames, so the background fill also clears the
// previous frame's text.
func drawPanel(panel *image.RGBA, f *faces, rec timeline.Record) {
	draw.Draw(panel, panel.Bounds(), image.NewUniform(colorPanelBG), image.Point{}, draw.Src)

	width := panel.Bounds().Dx()
	y := panelStartY

	drawString(panel, f.header, "ACTION DESCRIPTION", panelMarginX, y, colorAccent)
	y += headerAdvance

	desc := wrapText(f.body, rec.ActionAnalysis.ActionDescription, width-panelTextInset)
	if len(desc) > maxDescLines {
		desc = desc[:maxDescLines]
	}
	for _, line := range desc {
		drawString(panel, f.body, line, panelMarginX, y, colorText)
		y += lineAdvance
	}
	y += lineAdvance

	style, ok := StyleFor(rec.ShotStatus)
	if !ok {
		return
	}
	drawString(panel, f.header, style.Headline, panelMarginX, y, style.Color)
	y += headerAdvance

	shot := rec.ShotStatus.Shot
	details := wrapText(f.body, fmt.Sprintf("%s - %s", shot.Location, shot.Details), width-panelTextInset)
	for _, line := range details {
		drawString(panel, f.body, line, panelMarginX, y, colorSecondary)
		y += lineAdvance
	}
}
