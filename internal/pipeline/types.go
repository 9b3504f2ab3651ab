package pipeline

import "time"

// Result summarizes one full pipeline run.
type Result struct {
	RunID          string
	Input          string
	PoseVariant    string
	ActionVariant  string
	PoseArtifact   string
	ActionArtifact string
	TimelinePath   string
	OutputPath     string
	Stages         []StageTiming
	Elapsed        time.Duration
}

// StageTiming records one stage's wall-clock time.
type StageTiming struct {
	Stage   string
	Elapsed time.Duration
}
