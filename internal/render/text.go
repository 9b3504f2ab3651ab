package render

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	headerFontSize = 18
	bodyFontSize   = 13
	fontDPI        = 72
)

// faces holds the two panel typefaces. Parsing the TTF data is not free, so
// construction happens once per renderer.
type faces struct {
	header font.Face
	body   font.Face
}

func newFaces() (*faces, error) {
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}

	header, err := opentype.NewFace(bold, &opentype.FaceOptions{
		Size:    headerFontSize,
		DPI:     fontDPI,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create header face: %w", err)
	}
	body, err := opentype.NewFace(regular, &opentype.FaceOptions{
		Size:    bodyFontSize,
		DPI:     fontDPI,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create body face: %w", err)
	}

	return &faces{header: header, body: body}, nil
}

// wrapText greedily packs words into lines that each measure under maxWidth
// pixels. A single word wider than maxWidth gets a line to itself.
func wrapText(face font.Face, text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	d := font.Drawer{Face: face}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		candidate := line + " " + w
		if d.MeasureString(candidate).Ceil() < maxWidth {
			line = candidate
			continue
		}
		lines = append(lines, line)
		line = w
	}
	return append(lines, line)
}

// drawString paints text with its baseline at (x, y).
func drawString(img *image.RGBA, face font.Face, text string, x, y int, c color.RGBA) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
