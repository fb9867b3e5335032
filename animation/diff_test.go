package animation

import (
	"testing"

	"github.com/wfunc/spacerace/game"
)

func mustVariant(t *testing.T, id string) *game.Variant {
	t.Helper()
	v, ok := game.Lookup(id)
	if !ok {
		t.Fatalf("variant %s not registered", id)
	}
	return v
}

func snapshotPair(prevPos, prevCP, currPos int) (*game.Game, *game.Game) {
	prev := &game.Game{Players: []*game.Player{
		{ID: "p1", Name: "Alice", Position: prevPos, LastCheckpoint: prevCP},
	}}
	curr := &game.Game{Players: []*game.Player{
		{ID: "p1", Name: "Alice", Position: currPos, LastCheckpoint: prevCP},
	}}
	return prev, curr
}

func kinds(seq Sequence) []PhaseKind {
	out := make([]PhaseKind, len(seq.Events))
	for i, ev := range seq.Events {
		out[i] = ev.Kind
	}
	return out
}

func TestDiff_PlainAdvance(t *testing.T) {
	v := mustVariant(t, "galaxy")
	prev, curr := snapshotPair(5, 0, 8)

	seqs := Diff(v, prev, curr)
	if len(seqs) != 1 {
		t.Fatalf("Expected 1 sequence, got %d", len(seqs))
	}
	events := seqs[0].Events
	if len(events) != 3 {
		t.Fatalf("Expected 3 step events, got %d", len(events))
	}
	for i, ev := range events {
		if ev.Kind != PhaseStep {
			t.Errorf("Event %d: expected step, got %s", i, ev.Kind)
		}
		if ev.From != 5+i || ev.To != 6+i {
			t.Errorf("Event %d: expected %d->%d, got %d->%d", i, 5+i, 6+i, ev.From, ev.To)
		}
	}
}

func TestDiff_BoostJump(t *testing.T) {
	v := mustVariant(t, "galaxy")
	prev, curr := snapshotPair(0, 0, 18)

	seqs := Diff(v, prev, curr)
	if len(seqs) != 1 {
		t.Fatalf("Expected 1 sequence, got %d", len(seqs))
	}
	got := kinds(seqs[0])
	want := []PhaseKind{PhaseStep, PhaseStep, PhaseStep, PhaseStep, PhaseEffectPause, PhaseBoostJump}
	if len(got) != len(want) {
		t.Fatalf("Expected %d events, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	jump := seqs[0].Events[len(want)-1]
	if jump.From != 4 || jump.To != 18 {
		t.Errorf("Expected jump 4->18, got %d->%d", jump.From, jump.To)
	}
}

func TestDiff_HazardWalksBack(t *testing.T) {
	v := mustVariant(t, "galaxy")
	prev, curr := snapshotPair(85, 80, 80)

	seqs := Diff(v, prev, curr)
	if len(seqs) != 1 {
		t.Fatalf("Expected 1 sequence, got %d", len(seqs))
	}
	events := seqs[0].Events
	// 4 steps to 89, the pause, then 9 steps back to 80
	if len(events) != 14 {
		t.Fatalf("Expected 14 events, got %d: %v", len(events), kinds(seqs[0]))
	}
	if events[4].Kind != PhaseEffectPause || events[4].From != 89 {
		t.Errorf("Expected pause on 89, got %s on %d", events[4].Kind, events[4].From)
	}
	for i := 5; i < 14; i++ {
		if events[i].Kind != PhaseHazardStep {
			t.Fatalf("Event %d: expected hazard-step, got %s", i, events[i].Kind)
		}
	}
	last := events[len(events)-1]
	if last.To != 80 {
		t.Errorf("Expected walk-back to end on 80, got %d", last.To)
	}
}

func TestDiff_BoostIntoHazard(t *testing.T) {
	v := mustVariant(t, "galaxy")
	prev, curr := snapshotPair(52, 50, 70)

	seqs := Diff(v, prev, curr)
	if len(seqs) != 1 {
		t.Fatalf("Expected 1 sequence, got %d", len(seqs))
	}
	got := kinds(seqs[0])
	want := []PhaseKind{
		PhaseStep, PhaseStep, PhaseStep, PhaseStep, PhaseStep,
		PhaseEffectPause, PhaseBoostJump,
		PhaseEffectPause, PhaseHazardStep, PhaseHazardStep, PhaseHazardStep, PhaseHazardStep,
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d events, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	// The walk-back must target the checkpoint the jump advanced to, not the
	// one held before the roll.
	last := seqs[0].Events[len(want)-1]
	if last.To != 70 {
		t.Errorf("Expected walk-back to end on 70, got %d", last.To)
	}
}

func TestDiff_ReverseVariant(t *testing.T) {
	v := mustVariant(t, "blackhole")
	prev, curr := snapshotPair(50, 50, 31)

	seqs := Diff(v, prev, curr)
	if len(seqs) != 1 {
		t.Fatalf("Expected 1 sequence, got %d", len(seqs))
	}
	events := seqs[0].Events
	if events[0].From != 50 || events[0].To != 49 {
		t.Errorf("Expected first step 50->49, got %d->%d", events[0].From, events[0].To)
	}
	jump := events[len(events)-1]
	if jump.Kind != PhaseBoostJump || jump.From != 46 || jump.To != 31 {
		t.Errorf("Expected jump 46->31, got %s %d->%d", jump.Kind, jump.From, jump.To)
	}
}

func TestDiff_SnapFallback(t *testing.T) {
	v := mustVariant(t, "galaxy")
	// No single roll explains a 10 -> 90 delta: after a reset or a missed
	// snapshot the player just snaps into place.
	prev, curr := snapshotPair(10, 10, 90)

	seqs := Diff(v, prev, curr)
	if len(seqs) != 1 {
		t.Fatalf("Expected 1 sequence, got %d", len(seqs))
	}
	events := seqs[0].Events
	if len(events) != 1 || events[0].Kind != PhaseSnap {
		t.Fatalf("Expected a single snap, got %v", kinds(seqs[0]))
	}
	if events[0].From != 10 || events[0].To != 90 {
		t.Errorf("Expected snap 10->90, got %d->%d", events[0].From, events[0].To)
	}
}

func TestDiff_SkipsUnmovedAndUnknownPlayers(t *testing.T) {
	v := mustVariant(t, "galaxy")
	prev := &game.Game{Players: []*game.Player{
		{ID: "p1", Position: 5},
	}}
	curr := &game.Game{Players: []*game.Player{
		{ID: "p1", Position: 5}, // unchanged
		{ID: "p2", Position: 3}, // joined after prev, nothing to replay
	}}

	if seqs := Diff(v, prev, curr); len(seqs) != 0 {
		t.Errorf("Expected no sequences, got %d", len(seqs))
	}
	if seqs := Diff(v, nil, curr); seqs != nil {
		t.Errorf("Expected nil for a missing previous snapshot, got %v", seqs)
	}
}
