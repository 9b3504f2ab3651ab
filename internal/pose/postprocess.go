package pose

import (
	"math"
	"sort"
)

// detection is one raw model hit before coordinate mapping
type detection struct {
	x1, y1, x2, y2 float32
	score          float32
	keypoints      []float32 // kx, ky, kv per keypoint, model coordinates
}

// letterbox records how a source frame was fitted into the square model
// input, so detections can be mapped back
type letterbox struct {
	scale float64
	padX  float64
	padY  float64
	srcW  int
	srcH  int
}

func newLetterbox(srcW, srcH, inputSize int) letterbox {
	scale := math.Min(float64(inputSize)/float64(srcW), float64(inputSize)/float64(srcH))
	newW := math.Round(float64(srcW) * scale)
	newH := math.Round(float64(srcH) * scale)
	return letterbox{
		scale: scale,
		padX:  (float64(inputSize) - newW) / 2,
		padY:  (float64(inputSize) - newH) / 2,
		srcW:  srcW,
		srcH:  srcH,
	}
}

// toSource maps a model-space coordinate back onto the source frame,
// clamped to its bounds
func (lb letterbox) toSource(x, y float64) (float64, float64) {
	sx := (x - lb.padX) / lb.scale
	sy := (y - lb.padY) / lb.scale
	sx = math.Max(0, math.Min(sx, float64(lb.srcW)))
	sy = math.Max(0, math.Min(sy, float64(lb.srcH)))
	return sx, sy
}

// decodeOutput extracts confident detections from the model's output
// tensor. The layout is channel-major: 4 box values (cx, cy, w, h), one
// confidence, then x/y/visibility per keypoint, each channel spanning
// anchors consecutive values.
func decodeOutput(preds []float32, anchors int, confThreshold float32) []detection {
	var dets []detection

	channels := 5 + NumKeypoints*3
	if len(preds) < channels*anchors {
		return nil
	}

	at := func(c, a int) float32 { return preds[c*anchors+a] }

	for a := 0; a < anchors; a++ {
		score := at(4, a)
		if score < confThreshold {
			continue
		}

		cx, cy := at(0, a), at(1, a)
		w, h := at(2, a), at(3, a)

		kpts := make([]float32, 0, NumKeypoints*3)
		for k := 0; k < NumKeypoints; k++ {
			base := 5 + k*3
			kpts = append(kpts, at(base, a), at(base+1, a), at(base+2, a))
		}

		dets = append(dets, detection{
			x1:        cx - w/2,
			y1:        cy - h/2,
			x2:        cx + w/2,
			y2:        cy + h/2,
			score:     score,
			keypoints: kpts,
		})
	}

	return dets
}

// iou computes intersection-over-union of two detections' boxes
func iou(a, b detection) float32 {
	ix1 := float32(math.Max(float64(a.x1), float64(b.x1)))
	iy1 := float32(math.Max(float64(a.y1), float64(b.y1)))
	ix2 := float32(math.Min(float64(a.x2), float64(b.x2)))
	iy2 := float32(math.Min(float64(a.y2), float64(b.y2)))

	iw := ix2 - ix1
	ih := iy2 - iy1
	if iw <= 0 || ih <= 0 {
		return 0
	}

	inter := iw * ih
	areaA := (a.x2 - a.x1) * (a.y2 - a.y1)
	areaB := (b.x2 - b.x1) * (b.y2 - b.y1)
	union := areaA + areaB - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// nms keeps the highest-scoring detection out of each overlapping group
func nms(dets []detection, iouThreshold float32) []detection {
	sort.Slice(dets, func(i, j int) bool { return dets[i].score > dets[j].score })

	var kept []detection
	suppressed := make([]bool, len(dets))

	for i := range dets {
		if suppressed[i] {
			continue
		}
		kept = append(kept, dets[i])
		for j := i + 1; j < len(dets); j++ {
			if !suppressed[j] && iou(dets[i], dets[j]) > iouThreshold {
				suppressed[j] = true
			}
		}
	}

	return kept
}

// toPersons converts surviving detections into source-space keypoint sets,
// ordered by confidence so index 0 is the most likely subject
func toPersons(dets []detection, lb letterbox) []Person {
	persons := make([]Person, 0, len(dets))

	for _, d := range dets {
		person := make(Person, 0, NumKeypoints)
		for k := 0; k < NumKeypoints; k++ {
			kx := float64(d.keypoints[k*3])
			ky := float64(d.keypoints[k*3+1])
			kv := float64(d.keypoints[k*3+2])
			sx, sy := lb.toSource(kx, ky)
			person = append(person, Keypoint{X: sx, Y: sy, Confidence: kv})
		}
		persons = append(persons, person)
	}

	return persons
}
