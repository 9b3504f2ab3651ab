package timeline

import (
	"errors"
	"fmt"
)

// ErrUpsample is returned when a mapping targets a stream sampled faster than
// the original. The pipeline only ever projects downward; anything else is a
// caller bug, not a runtime condition.
var ErrUpsample = errors.New("target rate exceeds original rate")

// Map converts an original-framerate frame index to the index of the
// corresponding frame in a lower-rate analysis stream. The result is clamped
// to [0, maxIdx] so rounding drift near the end of the video can never index
// past the shorter stream.
func Map(originalIdx int, targetFPS, originalFPS float64, maxIdx int) (int, error) {
	if targetFPS <= 0 || originalFPS <= 0 {
		return 0, fmt.Errorf("invalid frame rates: target=%v original=%v", targetFPS, originalFPS)
	}
	if targetFPS > originalFPS {
		return 0, fmt.Errorf("cannot map %v fps onto %v fps stream: %w", originalFPS, targetFPS, ErrUpsample)
	}
	if originalIdx < 0 {
		return 0, fmt.Errorf("negative original frame index %d", originalIdx)
	}
	if maxIdx < 0 {
		return 0, fmt.Errorf("negative max index %d", maxIdx)
	}

	idx := int(float64(originalIdx) * targetFPS / originalFPS)
	if idx > maxIdx {
		idx = maxIdx
	}
	if idx < 0 {
		idx = 0
	}
	return idx, nil
}
