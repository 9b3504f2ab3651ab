package pose

import (
	"math"
	"testing"
)

func TestLetterboxWide(t *testing.T) {
	// 1280x720 into a 640 square: scale 0.5, content 640x360, vertical pads
	lb := newLetterbox(1280, 720, 640)

	if lb.scale != 0.5 {
		t.Errorf("scale = %v, want 0.5", lb.scale)
	}
	if lb.padX != 0 || lb.padY != 140 {
		t.Errorf("pads = (%v, %v), want (0, 140)", lb.padX, lb.padY)
	}

	cases := []struct {
		mx, my float64
		wx, wy float64
	}{
		{0, 140, 0, 0},
		{640, 500, 1280, 720},
		{320, 320, 640, 360},
	}
	for _, tc := range cases {
		gx, gy := lb.toSource(tc.mx, tc.my)
		if gx != tc.wx || gy != tc.wy {
			t.Errorf("toSource(%v, %v) = (%v, %v), want (%v, %v)", tc.mx, tc.my, gx, gy, tc.wx, tc.wy)
		}
	}
}

func TestLetterboxClampsToFrame(t *testing.T) {
	lb := newLetterbox(1280, 720, 640)

	if gx, gy := lb.toSource(-50, 0); gx != 0 || gy != 0 {
		t.Errorf("negative coords mapped to (%v, %v)", gx, gy)
	}
	if gx, gy := lb.toSource(9999, 9999); gx != 1280 || gy != 720 {
		t.Errorf("overflow coords mapped to (%v, %v)", gx, gy)
	}
}

func TestLetterboxSquareIsIdentity(t *testing.T) {
	lb := newLetterbox(640, 640, 640)

	if lb.scale != 1 || lb.padX != 0 || lb.padY != 0 {
		t.Fatalf("square letterbox = %+v", lb)
	}
	if gx, gy := lb.toSource(123, 456); gx != 123 || gy != 456 {
		t.Errorf("identity mapping broken: (%v, %v)", gx, gy)
	}
}

// makePreds builds an all-zero channel-major output tensor
func makePreds(anchors int) []float32 {
	return make([]float32, (5+NumKeypoints*3)*anchors)
}

// setDetection writes a detection into anchor a
func setDetection(preds []float32, anchors, a int, cx, cy, w, h, score float32) {
	preds[0*anchors+a] = cx
	preds[1*anchors+a] = cy
	preds[2*anchors+a] = w
	preds[3*anchors+a] = h
	preds[4*anchors+a] = score
	for k := 0; k < NumKeypoints; k++ {
		preds[(5+k*3)*anchors+a] = cx + float32(k)
		preds[(5+k*3+1)*anchors+a] = cy + float32(k)
		preds[(5+k*3+2)*anchors+a] = 0.8
	}
}

func TestDecodeOutputFiltersByConfidence(t *testing.T) {
	const anchors = 16
	preds := makePreds(anchors)
	setDetection(preds, anchors, 2, 100, 100, 40, 80, 0.9)
	setDetection(preds, anchors, 7, 300, 300, 40, 80, 0.2)

	dets := decodeOutput(preds, anchors, 0.5)
	if len(dets) != 1 {
		t.Fatalf("got %d detections, want 1", len(dets))
	}

	d := dets[0]
	if d.x1 != 80 || d.y1 != 60 || d.x2 != 120 || d.y2 != 140 {
		t.Errorf("box = (%v,%v,%v,%v)", d.x1, d.y1, d.x2, d.y2)
	}
	if d.score != 0.9 {
		t.Errorf("score = %v", d.score)
	}
	if len(d.keypoints) != NumKeypoints*3 {
		t.Errorf("keypoint values = %d", len(d.keypoints))
	}
}

func TestDecodeOutputTruncatedTensor(t *testing.T) {
	if dets := decodeOutput(make([]float32, 10), 8400, 0.5); dets != nil {
		t.Errorf("truncated tensor produced %d detections", len(dets))
	}
}

func TestIoU(t *testing.T) {
	a := detection{x1: 0, y1: 0, x2: 10, y2: 10}

	if v := iou(a, a); v != 1 {
		t.Errorf("identical boxes iou = %v", v)
	}
	if v := iou(a, detection{x1: 20, y1: 20, x2: 30, y2: 30}); v != 0 {
		t.Errorf("disjoint boxes iou = %v", v)
	}

	// Half-overlapping: intersection 50, union 150
	b := detection{x1: 5, y1: 0, x2: 15, y2: 10}
	if v := iou(a, b); math.Abs(float64(v)-1.0/3.0) > 1e-6 {
		t.Errorf("overlap iou = %v, want 1/3", v)
	}
}

func TestNMSKeepsBestPerGroup(t *testing.T) {
	kpts := make([]float32, NumKeypoints*3)
	dets := []detection{
		{x1: 0, y1: 0, x2: 100, y2: 100, score: 0.7, keypoints: kpts},
		{x1: 5, y1: 5, x2: 105, y2: 105, score: 0.9, keypoints: kpts},
		{x1: 500, y1: 500, x2: 600, y2: 600, score: 0.6, keypoints: kpts},
	}

	kept := nms(dets, 0.45)
	if len(kept) != 2 {
		t.Fatalf("kept %d detections, want 2", len(kept))
	}
	if kept[0].score != 0.9 {
		t.Errorf("first kept score = %v, want the group winner 0.9", kept[0].score)
	}
	if kept[1].score != 0.6 {
		t.Errorf("second kept score = %v, want the distant 0.6", kept[1].score)
	}
}

func TestToPersonsMapsAndOrders(t *testing.T) {
	lb := newLetterbox(1280, 720, 640)

	kpts := make([]float32, NumKeypoints*3)
	for k := 0; k < NumKeypoints; k++ {
		kpts[k*3] = 320   // model x
		kpts[k*3+1] = 320 // model y
		kpts[k*3+2] = 0.75
	}
	dets := []detection{{score: 0.9, keypoints: kpts}}

	persons := toPersons(dets, lb)
	if len(persons) != 1 {
		t.Fatalf("got %d persons", len(persons))
	}
	if len(persons[0]) != NumKeypoints {
		t.Fatalf("got %d keypoints", len(persons[0]))
	}

	kp := persons[0][Nose]
	if kp.X != 640 || kp.Y != 360 {
		t.Errorf("nose mapped to (%v, %v), want (640, 360)", kp.X, kp.Y)
	}
	if kp.Confidence != 0.75 {
		t.Errorf("confidence = %v", kp.Confidence)
	}
}

func TestToPersonsEmptyIsNonNil(t *testing.T) {
	persons := toPersons(nil, newLetterbox(640, 640, 640))
	if persons == nil {
		t.Error("empty persons should marshal as [], not null")
	}
}
