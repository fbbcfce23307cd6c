package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Dosada05/prediction-pool/models"
)

type mapLetterSource map[int]string

func (m mapLetterSource) GroupLetter(groupID int) (string, error) {
	letter, ok := m[groupID]
	if !ok {
		return "", fmt.Errorf("unknown group %d", groupID)
	}
	return letter, nil
}

var groupLetters = []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L"}

// testLetterSource: группа с ID n имеет букву groupLetters[n-1].
func testLetterSource() mapLetterSource {
	src := make(mapLetterSource, GroupCount)
	for i, letter := range groupLetters {
		src[i+1] = letter
	}
	return src
}

// fullStandings строит финальные таблицы всех 12 групп: в группе n команды
// n*10+1 .. n*10+4 на позициях 1-4.
func fullStandings() []*models.GroupStandingPrediction {
	rows := make([]*models.GroupStandingPrediction, 0, GroupCount*GroupTeamCount)
	for g := 1; g <= GroupCount; g++ {
		for pos := 1; pos <= GroupTeamCount; pos++ {
			rows = append(rows, &models.GroupStandingPrediction{
				GroupID:  g,
				TeamID:   g*10 + pos,
				Points:   10 - pos,
				Position: pos,
			})
		}
	}
	return rows
}

// qualifyingThirds: третьи места групп A-H проходят с рангами 1-8.
func qualifyingThirds() []*models.BestThirdPlacePrediction {
	thirds := make([]*models.BestThirdPlacePrediction, 0, BestThirdPlaceCount)
	for g := 1; g <= BestThirdPlaceCount; g++ {
		thirds = append(thirds, &models.BestThirdPlacePrediction{
			GroupID:         g,
			TeamID:          g*10 + 3,
			RankingPosition: g,
		})
	}
	return thirds
}

func strPtr(s string) *string { return &s }

func r32Fixture(seq int, home, away string) *models.Match {
	return &models.Match{
		ID:              1000 + seq,
		SequenceNumber:  seq,
		Phase:           models.PhaseRoundOf32,
		HomePlaceholder: strPtr(home),
		AwayPlaceholder: strPtr(away),
	}
}

// r32Template - шаблон из 16 матчей: 8 слотов третьих мест, 4 пары
// победитель/второе место и 4 пары вторых мест.
func r32Template() []*models.Match {
	return []*models.Match{
		r32Fixture(73, "Group A winners", "Group A/B/C/D/F third place"),
		r32Fixture(74, "Group B winners", "Group C/D/F/G/H third place"),
		r32Fixture(75, "Group C winners", "Group B/E/F/I/J third place"),
		r32Fixture(76, "Group D winners", "Group A/E/H/I/J third place"),
		r32Fixture(77, "Group E winners", "Group E/I/J/K/L third place"),
		r32Fixture(78, "Group F winners", "Group D/G/H/K/L third place"),
		r32Fixture(79, "Group G winners", "Group B/C/G/J/K third place"),
		r32Fixture(80, "Group H winners", "Group A/D/G/I/L third place"),
		r32Fixture(81, "Group I winners", "Group J runners-up"),
		r32Fixture(82, "Group J winners", "Group I runners-up"),
		r32Fixture(83, "Group K winners", "Group L runners-up"),
		r32Fixture(84, "Group L winners", "Group K runners-up"),
		r32Fixture(85, "Group A runners-up", "Group B runners-up"),
		r32Fixture(86, "Group C runners-up", "Group D runners-up"),
		r32Fixture(87, "Group E runners-up", "Group F runners-up"),
		r32Fixture(88, "Group G runners-up", "Group H runners-up"),
	}
}

func newTestResolver() *BracketResolver {
	return NewBracketResolver(DefaultAllocationTable, testLetterSource())
}

func TestResolveRoundOf32FullResolution(t *testing.T) {
	resolver := newTestResolver()
	resolved, err := resolver.ResolveRoundOf32(fullStandings(), qualifyingThirds(), r32Template())
	if err != nil {
		t.Fatalf("ResolveRoundOf32: %v", err)
	}
	if len(resolved) != 16 {
		t.Fatalf("resolved %d fixtures, want 16", len(resolved))
	}

	// Комбинация прошедших групп ABCDEFGH покрыта таблицей распределения:
	// слоты 73-76 берутся из нее (A, C, B, E), дальше работает фолбэк по
	// лучшему рангу: 77 -> D, 78 -> G, 79 -> F, 80 -> H.
	wantThirdGroups := map[int]int{73: 1, 74: 3, 75: 2, 76: 5, 77: 4, 78: 7, 79: 6, 80: 8}
	for seq, group := range wantThirdGroups {
		pair := resolved[1000+seq]
		wantTeam := group*10 + 3
		if pair.AwayTeamID != wantTeam {
			t.Errorf("fixture %d: third-place team %d, want %d (group %s)",
				seq, pair.AwayTeamID, wantTeam, groupLetters[group-1])
		}
	}

	// Победители и вторые места резолвятся прямым поиском.
	if pair := resolved[1073]; pair.HomeTeamID != 11 {
		t.Errorf("fixture 73: home %d, want winner of group A (11)", pair.HomeTeamID)
	}
	if pair := resolved[1085]; pair.HomeTeamID != 12 || pair.AwayTeamID != 22 {
		t.Errorf("fixture 85: got %+v, want runners-up of A and B", pair)
	}
}

func TestResolveRoundOf32ThirdPlaceUniqueness(t *testing.T) {
	resolver := newTestResolver()
	resolved, err := resolver.ResolveRoundOf32(fullStandings(), qualifyingThirds(), r32Template())
	if err != nil {
		t.Fatalf("ResolveRoundOf32: %v", err)
	}

	seen := make(map[int]int)
	for id, pair := range resolved {
		for _, team := range []int{pair.HomeTeamID, pair.AwayTeamID} {
			if prev, dup := seen[team]; dup {
				t.Errorf("team %d assigned to both fixture %d and %d", team, prev, id)
			}
			seen[team] = id
		}
	}
	if len(seen) != 32 {
		t.Errorf("expected 32 distinct teams across the bracket, got %d", len(seen))
	}
}

// Комбинация прошедших групп без записи в таблице: все третьи места
// расставляются фолбэком, никто не теряется.
func TestResolveRoundOf32FallbackCombination(t *testing.T) {
	thirds := make([]*models.BestThirdPlacePrediction, 0, BestThirdPlaceCount)
	// Проходят A, B, C, D, E, F, G, L - комбинации ABCDEFGL в таблице нет.
	qualGroups := []int{1, 2, 3, 4, 5, 6, 7, 12}
	for rank, g := range qualGroups {
		thirds = append(thirds, &models.BestThirdPlacePrediction{
			GroupID:         g,
			TeamID:          g*10 + 3,
			RankingPosition: rank + 1,
		})
	}

	resolver := newTestResolver()
	resolved, err := resolver.ResolveRoundOf32(fullStandings(), thirds, r32Template())
	if err != nil {
		t.Fatalf("ResolveRoundOf32: %v", err)
	}

	assigned := make(map[int]bool)
	for _, seq := range []int{73, 74, 75, 76, 77, 78, 79, 80} {
		team := resolved[1000+seq].AwayTeamID
		if assigned[team] {
			t.Errorf("third-place team %d assigned twice", team)
		}
		assigned[team] = true
	}
	for _, g := range qualGroups {
		if !assigned[g*10+3] {
			t.Errorf("qualifying third of group %s was never placed", groupLetters[g-1])
		}
	}
}

// Ручной порядок внутри группы предпочитается расчетной позиции.
func TestResolveRoundOf32ManualOrderPreferred(t *testing.T) {
	standings := fullStandings()
	// В группе A вручную меняем местами первую и вторую команды.
	for _, row := range standings {
		if row.GroupID != 1 {
			continue
		}
		switch row.Position {
		case 1:
			row.ManualPosition = intPtr(2)
		case 2:
			row.ManualPosition = intPtr(1)
		}
	}

	resolver := newTestResolver()
	resolved, err := resolver.ResolveRoundOf32(standings, qualifyingThirds(), r32Template())
	if err != nil {
		t.Fatalf("ResolveRoundOf32: %v", err)
	}

	if pair := resolved[1073]; pair.HomeTeamID != 12 {
		t.Errorf("fixture 73: home %d, want manually promoted winner 12", pair.HomeTeamID)
	}
	if pair := resolved[1085]; pair.HomeTeamID != 11 {
		t.Errorf("fixture 85: home %d, want manually demoted runner-up 11", pair.HomeTeamID)
	}
}

func TestResolveRoundOf32Errors(t *testing.T) {
	resolver := newTestResolver()

	t.Run("unknown placeholder", func(t *testing.T) {
		fixtures := r32Template()
		fixtures[0].HomePlaceholder = strPtr("best of the rest")
		_, err := resolver.ResolveRoundOf32(fullStandings(), qualifyingThirds(), fixtures)
		if !errors.Is(err, ErrInvariant) {
			t.Fatalf("expected ErrInvariant, got %v", err)
		}
	})

	t.Run("incomplete standings", func(t *testing.T) {
		_, err := resolver.ResolveRoundOf32(fullStandings()[:47], qualifyingThirds(), r32Template())
		if err == nil || !IsValidationError(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("seven thirds", func(t *testing.T) {
		_, err := resolver.ResolveRoundOf32(fullStandings(), qualifyingThirds()[:7], r32Template())
		if !errors.Is(err, ErrInvariant) {
			t.Fatalf("expected ErrInvariant, got %v", err)
		}
	})

	t.Run("fifteen fixtures", func(t *testing.T) {
		_, err := resolver.ResolveRoundOf32(fullStandings(), qualifyingThirds(), r32Template()[:15])
		if err == nil || !IsValidationError(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestParsePlaceholder(t *testing.T) {
	tests := []struct {
		text    string
		kind    slotKind
		letters int
		wantErr bool
	}{
		{"Group A winners", slotWinner, 1, false},
		{"Group L runners-up", slotRunnerUp, 1, false},
		{"Group A/B/C/D/F third place", slotThird, 5, false},
		{"group e winners", slotWinner, 1, false},
		{"Group A/B winners", 0, 0, true},
		{"Group AB winners", 0, 0, true},
		{"Group A champions", 0, 0, true},
		{"winner of match 12", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tc := range tests {
		slot, err := parsePlaceholder(tc.text)
		if tc.wantErr {
			if !errors.Is(err, ErrInvariant) {
				t.Errorf("%q: expected ErrInvariant, got %v", tc.text, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error %v", tc.text, err)
			continue
		}
		if slot.kind != tc.kind || len(slot.letters) != tc.letters {
			t.Errorf("%q: got kind %d with %d letters, want %d/%d",
				tc.text, slot.kind, len(slot.letters), tc.kind, tc.letters)
		}
	}
}
