package timeline

import (
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

func singleShotList(t *testing.T) *List {
	t.Helper()
	list, err := NewList([]Shot{
		{ShotNum: 1, Made: true, KickFrame: 3, ResultFrame: 13, Location: "Top-left corner"},
	}, 30, 12, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewList failed: %v", err)
	}
	return list
}

func TestResolveSingleShotPhases(t *testing.T) {
	// kick_frame 3 and result_frame 13 at 12fps land on original frames 7
	// and 32, so the phases are: pre_shot up to 6, in_flight 7..31,
	// post_result 32..61, idle from 62.
	list := singleShotList(t)

	cases := []struct {
		frame int
		want  StatusTag
	}{
		{0, StatusPreShot},
		{6, StatusPreShot},
		{7, StatusInFlight},
		{20, StatusInFlight},
		{31, StatusInFlight},
		{32, StatusPostResult},
		{61, StatusPostResult},
		{62, StatusIdle},
		{500, StatusIdle},
	}

	for _, tc := range cases {
		got := list.Resolve(tc.frame)
		if got.Status != tc.want {
			t.Errorf("Resolve(%d) = %s, want %s", tc.frame, got.Status, tc.want)
		}
		if tc.want == StatusIdle {
			if got.ShotNum != 0 || got.Shot != nil {
				t.Errorf("Resolve(%d) idle carries shot reference: %+v", tc.frame, got)
			}
		} else {
			if got.ShotNum != 1 {
				t.Errorf("Resolve(%d) shot_num = %d, want 1", tc.frame, got.ShotNum)
			}
			if got.Shot == nil {
				t.Fatalf("Resolve(%d) missing shot snapshot", tc.frame)
			}
			if got.Shot.Location != "Top-left corner" {
				t.Errorf("Resolve(%d) snapshot location = %q", tc.frame, got.Shot.Location)
			}
		}
	}
}

func TestResolveBeforePreShotWindow(t *testing.T) {
	list := singleShotList(t)

	// The pre_shot window for an early shot starts below frame zero; frames
	// before it are idle, frames inside it (even negative ones) are pre_shot.
	if got := list.Resolve(-39); got.Status != StatusIdle {
		t.Errorf("Resolve(-39) = %s, want idle", got.Status)
	}
	if got := list.Resolve(-38); got.Status != StatusPreShot {
		t.Errorf("Resolve(-38) = %s, want pre_shot", got.Status)
	}
}

func TestResolveFirstMatchWins(t *testing.T) {
	// Shot 1's post_result hold is [32,62); shot 2 kicks at original frame 40
	// and flies until 55. Frames 40..54 sit in both shots' windows and must
	// resolve to shot 1, in list order.
	list, err := NewList([]Shot{
		{ShotNum: 1, Made: true, KickFrame: 3, ResultFrame: 13},
		{ShotNum: 2, Made: false, KickFrame: 16, ResultFrame: 22},
	}, 30, 12, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewList failed: %v", err)
	}

	for _, f := range []int{40, 47, 54} {
		got := list.Resolve(f)
		if got.Status != StatusPostResult || got.ShotNum != 1 {
			t.Errorf("Resolve(%d) = %s shot %d, want post_result shot 1", f, got.Status, got.ShotNum)
		}
	}

	// Once shot 1's hold expires, shot 2 takes over mid-phase.
	got := list.Resolve(62)
	if got.Status != StatusPostResult || got.ShotNum != 2 {
		t.Errorf("Resolve(62) = %s shot %d, want post_result shot 2", got.Status, got.ShotNum)
	}
}

func TestResolveIdempotent(t *testing.T) {
	list := mustList(t, defaultShots())

	for _, f := range []int{0, 7, 45, 62, 150, 299} {
		first := list.Resolve(f)
		second := list.Resolve(f)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Resolve(%d) differs between calls:\nfirst:  %+v\nsecond: %+v", f, first, second)
		}
	}
}

func TestResolveSnapshotIsolated(t *testing.T) {
	list := mustList(t, defaultShots())

	status := list.Resolve(10)
	if status.Shot == nil {
		t.Fatal("expected a shot snapshot")
	}
	status.Shot.Details = "scribbled over"
	status.Shot.KickFrameOriginal = -1

	again := list.Resolve(10)
	if again.Shot.Details == "scribbled over" || again.Shot.KickFrameOriginal == -1 {
		t.Error("mutating a returned snapshot leaked into the list")
	}
}

func TestResolveAtMostOneMatch(t *testing.T) {
	// Exhaustive sweep: the resolver returns exactly one (status, shot) pair
	// per frame, and every non-idle pair maps back to a window that really
	// contains the frame.
	list := mustList(t, defaultShots())

	for f := -50; f < 320; f++ {
		got := list.Resolve(f)
		if got.Status == StatusIdle {
			continue
		}
		s := got.Shot
		inWindow := false
		switch got.Status {
		case StatusPreShot:
			inWindow = s.PreShotStart() <= f && f < s.KickFrameOriginal
		case StatusInFlight:
			inWindow = s.KickFrameOriginal <= f && f < s.ResultFrameOriginal
		case StatusPostResult:
			inWindow = s.ResultFrameOriginal <= f && f < s.PostResultEnd()
		}
		if !inWindow {
			t.Fatalf("Resolve(%d) returned %s for shot %d outside its window", f, got.Status, got.ShotNum)
		}
	}
}
