package pipeline

import (
	"runtime"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Decode read-ahead sizing. The floor keeps the pipe from stalling on slow
// consumers; the ceiling keeps behavior deterministic on large machines.
const (
	minFrameDepth = 4
	maxFrameDepth = 64

	// memoryShare is the fraction of available memory the buffered frames
	// may occupy.
	memoryShare = 0.25
)

// FrameBufferDepth sizes a decode read-ahead channel for RGBA frames of the
// given dimensions from available memory.
func FrameBufferDepth(logger zerolog.Logger, width, height int) int {
	frameBytes := uint64(width) * uint64(height) * 4
	if frameBytes == 0 {
		return minFrameDepth
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		logger.Warn().Err(err).Msg("memory query failed, using minimum frame depth")
		return minFrameDepth
	}

	depth := int(uint64(float64(vm.Available)*memoryShare) / frameBytes)
	if depth < minFrameDepth {
		depth = minFrameDepth
	}
	if depth > maxFrameDepth {
		depth = maxFrameDepth
	}

	logger.Debug().
		Int("depth", depth).
		Uint64("frame_bytes", frameBytes).
		Uint64("memory_available_mb", vm.Available>>20).
		Msg("sized frame buffer")
	return depth
}

// EnvironmentReport logs the host resources a run starts with.
func EnvironmentReport(logger zerolog.Logger) {
	cores, err := cpu.Counts(true)
	if err != nil {
		cores = runtime.NumCPU()
	}

	evt := logger.Info().
		Int("cpu_cores", cores).
		Int("go_max_procs", runtime.GOMAXPROCS(0))
	if vm, err := mem.VirtualMemory(); err == nil {
		evt = evt.
			Uint64("memory_total_mb", vm.Total>>20).
			Uint64("memory_available_mb", vm.Available>>20)
	}
	evt.Msg("environment")
}
