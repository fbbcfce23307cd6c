package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/Dosada05/prediction-pool/models"
)

func intPtr(v int) *int { return &v }

// testGroup строит группу с командами 1-4 и полным кругом из 6 матчей
// (ID матчей 101-106).
func testGroup() (GroupInput, []*models.Match) {
	group := &models.Group{ID: 1, Letter: "A"}
	teams := []*models.Team{
		{ID: 1, GroupID: 1}, {ID: 2, GroupID: 1}, {ID: 3, GroupID: 1}, {ID: 4, GroupID: 1},
	}
	pairs := [][2]int{{1, 2}, {1, 3}, {1, 4}, {2, 3}, {2, 4}, {3, 4}}
	matches := make([]*models.Match, 0, len(pairs))
	for i, pair := range pairs {
		home, away := pair[0], pair[1]
		matches = append(matches, &models.Match{
			ID:             101 + i,
			SequenceNumber: 1 + i,
			Phase:          models.PhaseGroup,
			GroupID:        intPtr(1),
			HomeTeamID:     intPtr(home),
			AwayTeamID:     intPtr(away),
		})
	}
	return GroupInput{Group: group, Teams: teams, Matches: matches}, matches
}

// predict заполняет прогнозы по результату функции score(home, away).
func predict(in *GroupInput, score func(home, away int) (int, int)) {
	in.Predictions = make(map[int]*models.MatchPrediction, len(in.Matches))
	for _, match := range in.Matches {
		hs, as := score(*match.HomeTeamID, *match.AwayTeamID)
		in.Predictions[match.ID] = &models.MatchPrediction{
			MatchID:   match.ID,
			HomeScore: hs,
			AwayScore: as,
		}
	}
}

// Чистый сценарий: каждый матч 1-0 в пользу команды с меньшим ID, строгий
// порядок без конфликтов.
func TestCalculateGroupStandingsCleanSweep(t *testing.T) {
	in, _ := testGroup()
	predict(&in, func(home, away int) (int, int) {
		if home < away {
			return 1, 0
		}
		return 0, 1
	})

	rows, err := CalculateGroupStandings(in)
	if err != nil {
		t.Fatalf("CalculateGroupStandings: %v", err)
	}
	if len(rows) != GroupTeamCount {
		t.Fatalf("got %d rows, want %d", len(rows), GroupTeamCount)
	}

	wantPoints := []int{9, 6, 3, 0}
	for i, row := range rows {
		if row.TeamID != i+1 {
			t.Errorf("position %d: got team %d, want %d", i+1, row.TeamID, i+1)
		}
		if row.Position != i+1 {
			t.Errorf("team %d: position %d, want %d", row.TeamID, row.Position, i+1)
		}
		if row.Points != wantPoints[i] {
			t.Errorf("team %d: points %d, want %d", row.TeamID, row.Points, wantPoints[i])
		}
		if row.TiebreakRequired || row.TiebreakGroup != nil {
			t.Errorf("team %d: unexpected tie-break flags", row.TeamID)
		}
		if row.Played != 3 {
			t.Errorf("team %d: played %d, want 3", row.TeamID, row.Played)
		}
		if row.Points != 3*row.Wins+row.Draws {
			t.Errorf("team %d: points %d != 3*%d + %d", row.TeamID, row.Points, row.Wins, row.Draws)
		}
		if row.GoalDifference != row.GoalsFor-row.GoalsAgainst {
			t.Errorf("team %d: goal difference mismatch", row.TeamID)
		}
	}
}

// Инварианты распределения: сумма разниц мячей равна нулю, очки согласованы
// с общим числом побед и ничьих.
func TestCalculateGroupStandingsConservation(t *testing.T) {
	scorelines := []func(home, away int) (int, int){
		func(home, away int) (int, int) { return 0, 0 },
		func(home, away int) (int, int) { return home % 3, away % 2 },
		func(home, away int) (int, int) { return 2, 2 },
		func(home, away int) (int, int) {
			if home%2 == 0 {
				return 3, 1
			}
			return 0, 4
		},
	}

	for i, score := range scorelines {
		in, _ := testGroup()
		predict(&in, score)
		rows, err := CalculateGroupStandings(in)
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}

		var points, wins, draws, diff, goalsFor, goalsAgainst int
		for _, row := range rows {
			points += row.Points
			wins += row.Wins
			diff += row.GoalDifference
			goalsFor += row.GoalsFor
			goalsAgainst += row.GoalsAgainst
			draws += row.Draws
		}
		if diff != 0 {
			t.Errorf("case %d: sum of goal differences = %d, want 0", i, diff)
		}
		if goalsFor != goalsAgainst {
			t.Errorf("case %d: goals for %d != goals against %d", i, goalsFor, goalsAgainst)
		}
		// Каждая ничья учитывается у обеих команд.
		if points != 3*wins+draws {
			t.Errorf("case %d: points %d != 3*wins %d + draw rows %d", i, points, wins, draws)
		}
		if wins*2+draws != 2*GroupMatchCount {
			t.Errorf("case %d: wins/draws do not partition the 6 matches", i)
		}
	}
}

func TestCalculateGroupStandingsTieCluster(t *testing.T) {
	in, _ := testGroup()
	predict(&in, func(home, away int) (int, int) { return 0, 0 })

	rows, err := CalculateGroupStandings(in)
	if err != nil {
		t.Fatalf("CalculateGroupStandings: %v", err)
	}

	for _, row := range rows {
		if !row.TiebreakRequired {
			t.Errorf("team %d: expected tie-break flag", row.TeamID)
		}
		if row.TiebreakGroup == nil || *row.TiebreakGroup != 1 {
			t.Errorf("team %d: expected tie-break cluster 1, got %v", row.TeamID, row.TiebreakGroup)
		}
	}

	// Симметрия: все члены кластера несут идентичные ключи сортировки.
	for _, a := range rows {
		for _, b := range rows {
			if *a.TiebreakGroup == *b.TiebreakGroup && !standingKey(a).equal(standingKey(b)) {
				t.Errorf("teams %d and %d share a cluster with different sort keys", a.TeamID, b.TeamID)
			}
		}
	}
}

func TestCalculateGroupStandingsDeterministic(t *testing.T) {
	in, _ := testGroup()
	predict(&in, func(home, away int) (int, int) { return home % 2, away % 2 })

	first, err := CalculateGroupStandings(in)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := CalculateGroupStandings(in)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	for i := range first {
		if first[i].TeamID != second[i].TeamID || first[i].Position != second[i].Position {
			t.Fatalf("row %d differs between runs: %d/%d vs %d/%d",
				i, first[i].TeamID, first[i].Position, second[i].TeamID, second[i].Position)
		}
	}
}

func TestCalculateGroupStandingsValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *GroupInput)
	}{
		{"three teams", func(in *GroupInput) { in.Teams = in.Teams[:3] }},
		{"five matches", func(in *GroupInput) {
			in.Matches = in.Matches[:5]
			delete(in.Predictions, 106)
		}},
		{"missing prediction", func(in *GroupInput) { delete(in.Predictions, 103) }},
		{"team outside group", func(in *GroupInput) { in.Matches[0].AwayTeamID = intPtr(99) }},
		{"duplicate pairing", func(in *GroupInput) {
			in.Matches[5].HomeTeamID = intPtr(1)
			in.Matches[5].AwayTeamID = intPtr(2)
		}},
		{"negative score", func(in *GroupInput) { in.Predictions[101].HomeScore = -1 }},
		{"extra time on group match", func(in *GroupInput) {
			in.Predictions[101].HomeScoreET = intPtr(1)
			in.Predictions[101].AwayScoreET = intPtr(1)
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in, _ := testGroup()
			predict(&in, func(home, away int) (int, int) { return 1, 1 })
			tc.mutate(&in)
			_, err := CalculateGroupStandings(in)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !IsValidationError(err) {
				t.Fatalf("expected *ValidationError, got %T: %v", err, err)
			}
		})
	}
}

func TestVerifyGroupStandingsMatch(t *testing.T) {
	in, _ := testGroup()
	predict(&in, func(home, away int) (int, int) {
		if home < away {
			return 2, 1
		}
		return 0, 1
	})

	computed, err := CalculateGroupStandings(in)
	if err != nil {
		t.Fatalf("CalculateGroupStandings: %v", err)
	}
	if err := VerifyGroupStandings(in, computed); err != nil {
		t.Fatalf("verification of own recomputation failed: %v", err)
	}
}

func TestVerifyGroupStandingsEnumeratesMismatches(t *testing.T) {
	in, _ := testGroup()
	predict(&in, func(home, away int) (int, int) {
		if home < away {
			return 1, 0
		}
		return 0, 1
	})

	computed, err := CalculateGroupStandings(in)
	if err != nil {
		t.Fatalf("CalculateGroupStandings: %v", err)
	}
	tampered := make([]*models.GroupStandingPrediction, len(computed))
	for i, row := range computed {
		clone := *row
		tampered[i] = &clone
	}
	tampered[0].Points += 2
	tampered[1].GoalsFor = 99

	err = VerifyGroupStandings(in, tampered)
	if err == nil {
		t.Fatal("expected mismatch error")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(ve.Fields) != 2 {
		t.Fatalf("expected 2 mismatched fields, got %d: %v", len(ve.Fields), ve.Fields)
	}
	if _, ok := ve.Fields["team_1.points"]; !ok {
		t.Errorf("missing team_1.points in %v", ve.Fields)
	}
	if _, ok := ve.Fields["team_2.goals_for"]; !ok {
		t.Errorf("missing team_2.goals_for in %v", ve.Fields)
	}
}

func TestVerifyGroupStandingsManualOrder(t *testing.T) {
	in, _ := testGroup()
	// Все 0-0: один кластер из четырех команд.
	predict(&in, func(home, away int) (int, int) { return 0, 0 })

	computed, err := CalculateGroupStandings(in)
	if err != nil {
		t.Fatalf("CalculateGroupStandings: %v", err)
	}

	submitted := make([]*models.GroupStandingPrediction, len(computed))
	for i, row := range computed {
		clone := *row
		submitted[i] = &clone
	}

	// Валидная перестановка позиций 1-4 внутри кластера.
	order := []int{4, 3, 2, 1}
	for i, row := range submitted {
		row.ManualPosition = intPtr(order[i])
	}
	if err := VerifyGroupStandings(in, submitted); err != nil {
		t.Fatalf("valid manual order rejected: %v", err)
	}

	// Дубль позиции внутри кластера.
	submitted[0].ManualPosition = intPtr(3)
	err = VerifyGroupStandings(in, submitted)
	if err == nil {
		t.Fatal("expected duplicate manual position to be rejected")
	}
	if !IsValidationError(err) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if !strings.Contains(err.Error(), "manual_position") {
		t.Errorf("error does not name manual_position: %v", err)
	}
}

func TestVerifyGroupStandingsManualOrderWithoutTie(t *testing.T) {
	in, _ := testGroup()
	predict(&in, func(home, away int) (int, int) {
		if home < away {
			return 1, 0
		}
		return 0, 1
	})

	computed, err := CalculateGroupStandings(in)
	if err != nil {
		t.Fatalf("CalculateGroupStandings: %v", err)
	}
	computed[0].ManualPosition = intPtr(2)

	err = VerifyGroupStandings(in, computed)
	if err == nil || !IsValidationError(err) {
		t.Fatalf("expected validation error for manual order on untied row, got %v", err)
	}
}
