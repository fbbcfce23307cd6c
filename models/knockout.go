package models

type TournamentPhase string

const (
	PhaseGroup         TournamentPhase = "GROUP"
	PhaseRoundOf32     TournamentPhase = "ROUND_OF_32"
	PhaseRoundOf16     TournamentPhase = "ROUND_OF_16"
	PhaseQuarterFinals TournamentPhase = "QUARTER_FINALS"
	PhaseSemiFinals    TournamentPhase = "SEMI_FINALS"
	PhaseFinal         TournamentPhase = "FINAL"
)

// KnockoutPhases перечислены в порядке проведения. Прогнозы принимаются
// строго в этом порядке, фаза за фазой.
var KnockoutPhases = []TournamentPhase{
	PhaseRoundOf32,
	PhaseRoundOf16,
	PhaseQuarterFinals,
	PhaseSemiFinals,
	PhaseFinal,
}

var knockoutMatchCounts = map[TournamentPhase]int{
	PhaseRoundOf32:     16,
	PhaseRoundOf16:     8,
	PhaseQuarterFinals: 4,
	PhaseSemiFinals:    2,
	PhaseFinal:         1,
}

func (p TournamentPhase) IsKnockout() bool {
	_, ok := knockoutMatchCounts[p]
	return ok
}

// ExpectedMatchCount возвращает фиксированное число матчей фазы (16/8/4/2/1).
// Для группового этапа и неизвестных фаз возвращает 0.
func (p TournamentPhase) ExpectedMatchCount() int {
	return knockoutMatchCounts[p]
}

// Order возвращает позицию фазы плей-офф (0 для ROUND_OF_32), -1 если фаза
// не относится к плей-офф.
func (p TournamentPhase) Order() int {
	for i, phase := range KnockoutPhases {
		if phase == p {
			return i
		}
	}
	return -1
}

// Previous возвращает предыдущую фазу плей-офф. Для ROUND_OF_32 предыдущей
// фазы нет - ok == false.
func (p TournamentPhase) Previous() (TournamentPhase, bool) {
	idx := p.Order()
	if idx <= 0 {
		return "", false
	}
	return KnockoutPhases[idx-1], true
}
