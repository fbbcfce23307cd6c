package models

import "testing"

func TestKnockoutPhaseOrder(t *testing.T) {
	for i, phase := range KnockoutPhases {
		if phase.Order() != i {
			t.Errorf("%s: order %d, want %d", phase, phase.Order(), i)
		}
		if !phase.IsKnockout() {
			t.Errorf("%s: expected IsKnockout", phase)
		}
	}
	if PhaseGroup.Order() != -1 {
		t.Errorf("GROUP: order %d, want -1", PhaseGroup.Order())
	}
	if PhaseGroup.IsKnockout() {
		t.Error("GROUP must not be a knockout phase")
	}
}

func TestKnockoutPhaseExpectedMatchCount(t *testing.T) {
	want := map[TournamentPhase]int{
		PhaseRoundOf32:     16,
		PhaseRoundOf16:     8,
		PhaseQuarterFinals: 4,
		PhaseSemiFinals:    2,
		PhaseFinal:         1,
		PhaseGroup:         0,
	}
	for phase, count := range want {
		if got := phase.ExpectedMatchCount(); got != count {
			t.Errorf("%s: expected match count %d, want %d", phase, got, count)
		}
	}
}

func TestKnockoutPhasePrevious(t *testing.T) {
	if _, ok := PhaseRoundOf32.Previous(); ok {
		t.Error("ROUND_OF_32 must not have a previous phase")
	}
	for i := 1; i < len(KnockoutPhases); i++ {
		prev, ok := KnockoutPhases[i].Previous()
		if !ok || prev != KnockoutPhases[i-1] {
			t.Errorf("%s: previous = %s/%t, want %s", KnockoutPhases[i], prev, ok, KnockoutPhases[i-1])
		}
	}
	if _, ok := PhaseGroup.Previous(); ok {
		t.Error("GROUP must not have a previous knockout phase")
	}
}
