package pose

import (
	"fmt"
	"image"
	"math"
	"os"

	"github.com/nfnt/resize"
	"github.com/rs/zerolog"
	ort "github.com/yalue/onnxruntime_go"
)

// Analyzer produces per-frame pose estimations. Implementations own their
// model resources and release them in Close.
type Analyzer interface {
	Detect(img image.Image) ([]Person, error)
	Close() error
}

// Model runs a YOLO-family pose estimation ONNX export. Detections carry 17
// COCO keypoints per person.
type Model struct {
	logger        zerolog.Logger
	modelPath     string
	inputSize     int
	anchors       int
	confThreshold float32
	iouThreshold  float32
	inputShape    ort.Shape
	outputShape   ort.Shape
	session       *ort.DynamicAdvancedSession
}

// NewModel loads the pose model and prepares an inference session.
func NewModel(logger zerolog.Logger, modelPath string, inputSize int, confThreshold, iouThreshold float64) (*Model, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", modelPath)
	}
	if inputSize <= 0 || inputSize%32 != 0 {
		return nil, fmt.Errorf("model input size must be a positive multiple of 32, got %d", inputSize)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}

	// Standard ultralytics pose export names
	inputNames := []string{"images"}
	outputNames := []string{"output0"}

	sess, err := ort.NewDynamicAdvancedSession(
		modelPath,
		inputNames,
		outputNames,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pose session: %w", err)
	}

	// One prediction per cell of the three detection strides
	anchors := (inputSize/8)*(inputSize/8) + (inputSize/16)*(inputSize/16) + (inputSize/32)*(inputSize/32)

	logger.Info().
		Str("model", modelPath).
		Int("input_size", inputSize).
		Int("anchors", anchors).
		Msg("pose model loaded")

	return &Model{
		logger:        logger.With().Str("component", "pose-model").Logger(),
		modelPath:     modelPath,
		inputSize:     inputSize,
		anchors:       anchors,
		confThreshold: float32(confThreshold),
		iouThreshold:  float32(iouThreshold),
		inputShape:    ort.NewShape(1, 3, int64(inputSize), int64(inputSize)),
		outputShape:   ort.NewShape(1, int64(5+NumKeypoints*3), int64(anchors)),
		session:       sess,
	}, nil
}

// Detect runs pose estimation on one frame and returns detected persons in
// source-frame coordinates, highest confidence first.
func (m *Model) Detect(img image.Image) ([]Person, error) {
	bounds := img.Bounds()
	lb := newLetterbox(bounds.Dx(), bounds.Dy(), m.inputSize)

	data := m.preprocessImage(img, lb)

	inputTensor, err := ort.NewTensor(m.inputShape, data)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](m.outputShape)
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	inputs := []ort.ArbitraryTensor{inputTensor}
	outputs := []ort.ArbitraryTensor{outputTensor}
	if err := m.session.Run(inputs, outputs); err != nil {
		return nil, fmt.Errorf("pose inference failed: %w", err)
	}

	dets := decodeOutput(outputTensor.GetData(), m.anchors, m.confThreshold)
	dets = nms(dets, m.iouThreshold)
	return toPersons(dets, lb), nil
}

// preprocessImage letterboxes the frame into a float32[1,3,S,S] NCHW buffer
// scaled to [0,1], gray padding where the aspect ratios differ.
func (m *Model) preprocessImage(img image.Image, lb letterbox) []float32 {
	bounds := img.Bounds()
	scaledW := uint(math.Round(float64(bounds.Dx()) * lb.scale))
	scaledH := uint(math.Round(float64(bounds.Dy()) * lb.scale))
	resized := resize.Resize(scaledW, scaledH, img, resize.Bilinear)

	size := m.inputSize
	data := make([]float32, 3*size*size)

	const pad = float32(114.0 / 255.0)
	for i := range data {
		data[i] = pad
	}

	rb := resized.Bounds()
	offX := int(lb.padX)
	offY := int(lb.padY)

	for y := rb.Min.Y; y < rb.Max.Y; y++ {
		for x := rb.Min.X; x < rb.Max.X; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			dx := x - rb.Min.X + offX
			dy := y - rb.Min.Y + offY
			if dx < 0 || dx >= size || dy < 0 || dy >= size {
				continue
			}
			data[0*size*size+dy*size+dx] = float32(r>>8) / 255.0
			data[1*size*size+dy*size+dx] = float32(g>>8) / 255.0
			data[2*size*size+dy*size+dx] = float32(b>>8) / 255.0
		}
	}

	return data
}

// Close releases the session and ONNX env.
func (m *Model) Close() error {
	m.logger.Info().Msg("closing pose model session")
	if m.session != nil {
		if err := m.session.Destroy(); err != nil {
			return err
		}
	}
	return ort.DestroyEnvironment()
}
