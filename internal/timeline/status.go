package timeline

// StatusTag is the temporal phase of a frame relative to the shot timeline.
type StatusTag string

const (
	StatusIdle       StatusTag = "idle"
	StatusPreShot    StatusTag = "pre_shot"
	StatusInFlight   StatusTag = "in_flight"
	StatusPostResult StatusTag = "post_result"
)

// ShotStatus classifies one original frame. When the tag is not idle it
// carries the owning shot's number and a snapshot of its full record.
type ShotStatus struct {
	Status  StatusTag `json:"status"`
	ShotNum int       `json:"shot_num,omitempty"`
	Shot    *Shot     `json:"shot_data,omitempty"`
}

// Resolve classifies original frame f against the shot timeline. It is a pure
// function of its inputs: no state survives between calls, so identical
// inputs always produce identical output.
//
// Each shot owns three half-open windows. The first shot in list order whose
// window contains f wins; this arbitrates frames that fall in two shots'
// windows when a post_result hold runs into the next shot's lead-in.
func (l *List) Resolve(f int) ShotStatus {
	for i := range l.shots {
		s := l.shots[i]
		var tag StatusTag
		switch {
		case s.PreShotStart() <= f && f < s.KickFrameOriginal:
			tag = StatusPreShot
		case s.KickFrameOriginal <= f && f < s.ResultFrameOriginal:
			tag = StatusInFlight
		case s.ResultFrameOriginal <= f && f < s.PostResultEnd():
			tag = StatusPostResult
		default:
			continue
		}
		snap := s
		return ShotStatus{Status: tag, ShotNum: s.ShotNum, Shot: &snap}
	}
	return ShotStatus{Status: StatusIdle}
}
