package timeline

import (
	"bytes"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/shotline/internal/logging"
)

// defaultShots mirrors the shots.yaml shipped with the repo: five penalty
// attempts authored against the 12fps action stream.
func defaultShots() []Shot {
	return []Shot{
		{ShotNum: 1, Made: true, KickFrame: 3, ResultFrame: 13, FootContact: "Right", Location: "Top-left corner", Details: "Goalkeeper stationary"},
		{ShotNum: 2, Made: false, KickFrame: 16, ResultFrame: 22, FootContact: "Right", Location: "Top-right, middle", Details: "Goalkeeper saves"},
		{ShotNum: 3, Made: true, KickFrame: 32, ResultFrame: 38, FootContact: "Right", Location: "Center", Details: "Ball deflects in"},
		{ShotNum: 4, Made: true, KickFrame: 44, ResultFrame: 52, FootContact: "Right", Location: "Low center", Details: "Fast shot, deflects in"},
		{ShotNum: 5, Made: true, KickFrame: 60, ResultFrame: 68, FootContact: "Right", Location: "Top-right corner", Details: "Curved shot, keeper gives up"},
	}
}

func mustList(t *testing.T, shots []Shot) *List {
	t.Helper()
	list, err := NewList(shots, 30, 12, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewList failed: %v", err)
	}
	return list
}

func TestShotDerivedBoundaries(t *testing.T) {
	list := mustList(t, defaultShots())

	want := []struct{ kick, result int }{
		{7, 32},
		{40, 55},
		{80, 95},
		{110, 130},
		{150, 170},
	}

	shots := list.Shots()
	if len(shots) != len(want) {
		t.Fatalf("got %d shots, want %d", len(shots), len(want))
	}
	for i, w := range want {
		if shots[i].KickFrameOriginal != w.kick {
			t.Errorf("shot %d kick_frame_original = %d, want %d", i+1, shots[i].KickFrameOriginal, w.kick)
		}
		if shots[i].ResultFrameOriginal != w.result {
			t.Errorf("shot %d result_frame_original = %d, want %d", i+1, shots[i].ResultFrameOriginal, w.result)
		}
	}
}

func TestShotWindowEdges(t *testing.T) {
	list := mustList(t, defaultShots())
	first := list.Shots()[0]

	if got := first.PreShotStart(); got != 7-PreShotLead {
		t.Errorf("PreShotStart = %d, want %d", got, 7-PreShotLead)
	}
	if got := first.PostResultEnd(); got != 32+PostResultHold {
		t.Errorf("PostResultEnd = %d, want %d", got, 32+PostResultHold)
	}
}

func TestShotCounts(t *testing.T) {
	list := mustList(t, defaultShots())

	if list.Len() != 5 {
		t.Errorf("Len = %d, want 5", list.Len())
	}
	if list.Made() != 4 {
		t.Errorf("Made = %d, want 4", list.Made())
	}
	if list.Missed() != 1 {
		t.Errorf("Missed = %d, want 1", list.Missed())
	}
}

func TestShotValidationFailures(t *testing.T) {
	cases := []struct {
		name  string
		shots []Shot
	}{
		{"empty list", nil},
		{"kick not before result", []Shot{{ShotNum: 1, KickFrame: 13, ResultFrame: 13}}},
		{"kick after result", []Shot{{ShotNum: 1, KickFrame: 20, ResultFrame: 13}}},
		{"negative kick frame", []Shot{{ShotNum: 1, KickFrame: -2, ResultFrame: 13}}},
		{"shot numbers out of order", []Shot{
			{ShotNum: 2, KickFrame: 3, ResultFrame: 13},
			{ShotNum: 1, KickFrame: 16, ResultFrame: 22},
		}},
		{"second shot kicks before first resolves", []Shot{
			{ShotNum: 1, KickFrame: 3, ResultFrame: 20},
			{ShotNum: 2, KickFrame: 10, ResultFrame: 25},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewList(tc.shots, 30, 12, zerolog.Nop()); err == nil {
				t.Error("NewList succeeded, want error")
			}
		})
	}
}

func TestShotUpsampleRateRejected(t *testing.T) {
	_, err := NewList(defaultShots(), 12, 30, zerolog.Nop())
	if err == nil {
		t.Fatal("expected error for action rate above original rate")
	}
}

func TestShotOverlappingWindowsAllowed(t *testing.T) {
	// With the default table, shot 1's post_result hold [32,62) runs past
	// shot 2's lead-in and flight. That is valid input; the resolver's
	// first-match rule owns the overlap, and the load logs it.
	var buf bytes.Buffer
	if _, err := NewList(defaultShots(), 30, 12, logging.NewLogger(&buf)); err != nil {
		t.Fatalf("overlapping windows rejected: %v", err)
	}
	if !strings.Contains(buf.String(), "shot windows overlap") {
		t.Error("window overlap was not logged")
	}
}

func TestShotListImmutable(t *testing.T) {
	list := mustList(t, defaultShots())

	shots := list.Shots()
	shots[0].Made = false
	shots[0].KickFrameOriginal = 999

	again := list.Shots()
	if !again[0].Made || again[0].KickFrameOriginal != 7 {
		t.Error("mutating the returned slice changed the list")
	}
}

func TestShotsYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shots.yaml")

	if err := SaveShots(path, defaultShots()); err != nil {
		t.Fatalf("SaveShots failed: %v", err)
	}

	list, err := LoadList(path, 30, 12, zerolog.Nop())
	if err != nil {
		t.Fatalf("LoadList failed: %v", err)
	}

	want := mustList(t, defaultShots())
	if !reflect.DeepEqual(list.Shots(), want.Shots()) {
		t.Errorf("loaded shots differ from saved shots\ngot:  %+v\nwant: %+v", list.Shots(), want.Shots())
	}
}

func TestLoadListMissingFile(t *testing.T) {
	if _, err := LoadList(filepath.Join(t.TempDir(), "absent.yaml"), 30, 12, zerolog.Nop()); err == nil {
		t.Error("LoadList succeeded for missing file")
	}
}
