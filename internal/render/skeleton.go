package render

import (
	"image"
	"image/color"

	"github.com/kikiluvv/shotline/internal/pose"
)

// boneConfidence is the minimum confidence both endpoints of a bone need
// before the bone is drawn.
const boneConfidence = 0.5

// lineThickness is the skeleton stroke width in pixels.
const lineThickness = 2

// bones are the COCO skeleton edges: shoulders, arms, torso and legs. Face
// keypoints are detected but not connected.
var bones = [][2]int{
	{pose.LeftShoulder, pose.RightShoulder},
	{pose.LeftShoulder, pose.LeftElbow},
	{pose.LeftElbow, pose.LeftWrist},
	{pose.RightShoulder, pose.RightElbow},
	{pose.RightElbow, pose.RightWrist},
	{pose.LeftShoulder, pose.LeftHip},
	{pose.RightShoulder, pose.RightHip},
	{pose.LeftHip, pose.RightHip},
	{pose.LeftHip, pose.LeftKnee},
	{pose.LeftKnee, pose.LeftAnkle},
	{pose.RightHip, pose.RightKnee},
	{pose.RightKnee, pose.RightAnkle},
}

// DrawSkeleton draws the first detected person's skeleton onto img in place.
// Frames with no detections are left untouched.
func DrawSkeleton(img *image.RGBA, persons []pose.Person) {
	if len(persons) == 0 {
		return
	}
	p := persons[0]
	if len(p) < pose.NumKeypoints {
		return
	}

	for _, b := range bones {
		a, c := p[b[0]], p[b[1]]
		if a.Confidence <= boneConfidence || c.Confidence <= boneConfidence {
			continue
		}
		drawLine(img, int(a.X), int(a.Y), int(c.X), int(c.Y), colorPose)
	}
}

// drawLine rasterizes a straight segment with a square brush. Bresenham over
// integer pixels; good enough for overlay strokes.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	err := dx + dy
	for {
		setBrush(img, x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// setBrush stamps a lineThickness square. SetRGBA ignores out-of-bounds
// points, so strokes clip at the frame edge.
func setBrush(img *image.RGBA, x, y int, c color.RGBA) {
	for oy := 0; oy < lineThickness; oy++ {
		for ox := 0; ox < lineThickness; ox++ {
			img.SetRGBA(x+ox, y+oy, c)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
