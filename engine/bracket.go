package engine

import (
	"sort"
	"strings"
	"sync"

	"github.com/Dosada05/prediction-pool/models"
)

// GroupLetterSource - read-only доступ к букве группы по ее ID.
// Соответствие группа-буква - статичные справочные данные, поэтому ответы
// безопасно кэшируются на весь срок жизни резолвера.
type GroupLetterSource interface {
	GroupLetter(groupID int) (string, error)
}

// TeamPair - конкретная пара участников одного матча R32.
type TeamPair struct {
	HomeTeamID int `json:"home_team_id"`
	AwayTeamID int `json:"away_team_id"`
}

// BracketResolver превращает символьные плейсхолдеры 16 матчей R32
// ("Group A winners", "Group A/B/C/D/F third place") в конкретные команды.
// Назначения не сохраняются как самостоятельная истина - они каждый раз
// выводятся из таблиц, третьих мест и таблицы распределения, поэтому не
// могут разойтись со своими источниками.
type BracketResolver struct {
	allocation AllocationTable
	letters    GroupLetterSource

	mu    sync.RWMutex
	cache map[int]string
}

func NewBracketResolver(allocation AllocationTable, letters GroupLetterSource) *BracketResolver {
	return &BracketResolver{
		allocation: allocation,
		letters:    letters,
		cache:      make(map[int]string),
	}
}

func (r *BracketResolver) groupLetter(groupID int) (string, error) {
	r.mu.RLock()
	letter, ok := r.cache[groupID]
	r.mu.RUnlock()
	if ok {
		return letter, nil
	}

	letter, err := r.letters.GroupLetter(groupID)
	if err != nil {
		return "", err
	}
	r.mu.Lock()
	r.cache[groupID] = letter
	r.mu.Unlock()
	return letter, nil
}

type slotKind int

const (
	slotWinner slotKind = iota
	slotRunnerUp
	slotThird
)

type bracketSlot struct {
	kind    slotKind
	letters []string
}

// parsePlaceholder разбирает грамматику плейсхолдеров шаблона расписания:
// "Group A winners", "Group B runners-up", "Group A/B/C/D/F third place".
// Любой другой текст - дефект шаблона, а не пользовательский ввод.
func parsePlaceholder(text string) (bracketSlot, error) {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "group ") {
		return bracketSlot{}, invariantErrorf("unknown placeholder %q", text)
	}

	rest := strings.TrimSpace(trimmed[len("group "):])
	parts := strings.SplitN(rest, " ", 2)
	if len(parts) != 2 {
		return bracketSlot{}, invariantErrorf("unknown placeholder %q", text)
	}

	letters := strings.Split(strings.ToUpper(parts[0]), "/")
	for _, letter := range letters {
		if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'Z' {
			return bracketSlot{}, invariantErrorf("placeholder %q names invalid group %q", text, letter)
		}
	}

	switch strings.ToLower(strings.TrimSpace(parts[1])) {
	case "winners":
		if len(letters) != 1 {
			return bracketSlot{}, invariantErrorf("placeholder %q must name a single group", text)
		}
		return bracketSlot{kind: slotWinner, letters: letters}, nil
	case "runners-up":
		if len(letters) != 1 {
			return bracketSlot{}, invariantErrorf("placeholder %q must name a single group", text)
		}
		return bracketSlot{kind: slotRunnerUp, letters: letters}, nil
	case "third place":
		return bracketSlot{kind: slotThird, letters: letters}, nil
	default:
		return bracketSlot{}, invariantErrorf("unknown placeholder %q", text)
	}
}

// ResolveRoundOf32 строит отображение match ID -> (home, away) для всех 16
// матчей R32. Входы: финальные таблицы всех 12 групп (ручной порядок
// предпочитается расчетному), 8 лучших третьих мест и сами матчи R32 с
// плейсхолдерами.
//
// Матчи обрабатываются строго по возрастанию sequence number: этот порядок
// служит tie-break'ом жадного назначения третьих мест, переставлять или
// параллелить его нельзя.
func (r *BracketResolver) ResolveRoundOf32(
	standings []*models.GroupStandingPrediction,
	thirds []*models.BestThirdPlacePrediction,
	fixtures []*models.Match,
) (map[int]TeamPair, error) {
	if len(standings) != GroupCount*GroupTeamCount {
		return nil, newValidationError("expected %d standing rows (%d groups of %d), got %d",
			GroupCount*GroupTeamCount, GroupCount, GroupTeamCount, len(standings))
	}
	if len(thirds) != BestThirdPlaceCount {
		return nil, invariantErrorf("expected %d qualifying third-place rows, got %d",
			BestThirdPlaceCount, len(thirds))
	}
	expectedFixtures := models.PhaseRoundOf32.ExpectedMatchCount()
	if len(fixtures) != expectedFixtures {
		return nil, newValidationError("expected %d round-of-32 fixtures, got %d",
			expectedFixtures, len(fixtures))
	}

	byLetter := make(map[string][]*models.GroupStandingPrediction, GroupCount)
	for _, row := range standings {
		letter, err := r.groupLetter(row.GroupID)
		if err != nil {
			return nil, err
		}
		byLetter[letter] = append(byLetter[letter], row)
	}

	winners := make(map[string]int, GroupCount)
	runnersUp := make(map[string]int, GroupCount)
	thirdTeams := make(map[string]int, GroupCount)
	for letter, rows := range byLetter {
		if len(rows) != GroupTeamCount {
			return nil, invariantErrorf("group %s has %d standing rows, want %d", letter, len(rows), GroupTeamCount)
		}
		sorted := make([]*models.GroupStandingPrediction, len(rows))
		copy(sorted, rows)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].EffectivePosition() < sorted[j].EffectivePosition()
		})
		winners[letter] = sorted[0].TeamID
		runnersUp[letter] = sorted[1].TeamID
		thirdTeams[letter] = sorted[2].TeamID
	}

	thirdRank := make(map[string]int, BestThirdPlaceCount)
	qualifying := make([]string, 0, BestThirdPlaceCount)
	for _, third := range thirds {
		letter, err := r.groupLetter(third.GroupID)
		if err != nil {
			return nil, err
		}
		thirdRank[letter] = third.RankingPosition
		qualifying = append(qualifying, letter)
	}
	qualKey := CombinationKey(qualifying)

	ordered := make([]*models.Match, len(fixtures))
	copy(ordered, fixtures)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].SequenceNumber < ordered[j].SequenceNumber
	})

	consumed := make(map[string]bool, BestThirdPlaceCount)
	resolved := make(map[int]TeamPair, len(ordered))

	for _, fixture := range ordered {
		if fixture.Phase != models.PhaseRoundOf32 {
			return nil, invariantErrorf("match %d is not a round-of-32 fixture", fixture.SequenceNumber)
		}
		if fixture.HomePlaceholder == nil || fixture.AwayPlaceholder == nil {
			return nil, invariantErrorf("round-of-32 match %d has no placeholders", fixture.SequenceNumber)
		}

		home, err := r.resolveSlot(*fixture.HomePlaceholder, winners, runnersUp, thirdTeams, thirdRank, qualKey, consumed)
		if err != nil {
			return nil, err
		}
		away, err := r.resolveSlot(*fixture.AwayPlaceholder, winners, runnersUp, thirdTeams, thirdRank, qualKey, consumed)
		if err != nil {
			return nil, err
		}
		resolved[fixture.ID] = TeamPair{HomeTeamID: home, AwayTeamID: away}
	}

	return resolved, nil
}

func (r *BracketResolver) resolveSlot(
	placeholder string,
	winners, runnersUp, thirdTeams map[string]int,
	thirdRank map[string]int,
	qualKey string,
	consumed map[string]bool,
) (int, error) {
	slot, err := parsePlaceholder(placeholder)
	if err != nil {
		return 0, err
	}

	switch slot.kind {
	case slotWinner:
		team, ok := winners[slot.letters[0]]
		if !ok {
			return 0, invariantErrorf("no winner found for group %s", slot.letters[0])
		}
		return team, nil
	case slotRunnerUp:
		team, ok := runnersUp[slot.letters[0]]
		if !ok {
			return 0, invariantErrorf("no runner-up found for group %s", slot.letters[0])
		}
		return team, nil
	default:
		letter, err := r.pickThirdPlaceGroup(slot.letters, thirdRank, qualKey, consumed)
		if err != nil {
			return 0, err
		}
		consumed[letter] = true
		team, ok := thirdTeams[letter]
		if !ok {
			return 0, invariantErrorf("no third-place team found for group %s", letter)
		}
		return team, nil
	}
}

// pickThirdPlaceGroup выбирает группу для слота третьего места:
//  1. точное попадание в таблицу распределения по комбинации всех
//     прошедших групп, если назначенная группа прошла и еще не занята;
//  2. иначе - кандидат слота с лучшим (наименьшим) рангом среди прошедших
//     и незанятых;
//  3. иначе - любая незанятая прошедшая группа с лучшим рангом. Фолбэк
//     гарантирует, что все 8 участников будут расставлены даже на
//     комбинациях, которых нет в таблице.
func (r *BracketResolver) pickThirdPlaceGroup(
	candidates []string,
	thirdRank map[string]int,
	qualKey string,
	consumed map[string]bool,
) (string, error) {
	if entry, ok := r.allocation[qualKey]; ok {
		if assigned, ok := entry[CombinationKey(candidates)]; ok {
			if _, qualifies := thirdRank[assigned]; qualifies && !consumed[assigned] {
				return assigned, nil
			}
		}
	}

	if letter, ok := bestRankedLetter(candidates, thirdRank, consumed); ok {
		return letter, nil
	}

	all := make([]string, 0, len(thirdRank))
	for letter := range thirdRank {
		all = append(all, letter)
	}
	sort.Strings(all)
	if letter, ok := bestRankedLetter(all, thirdRank, consumed); ok {
		return letter, nil
	}

	return "", invariantErrorf("no qualifying third-place group left for slot %s", CombinationKey(candidates))
}

func bestRankedLetter(letters []string, thirdRank map[string]int, consumed map[string]bool) (string, bool) {
	best := ""
	bestRank := 0
	for _, letter := range letters {
		rank, qualifies := thirdRank[letter]
		if !qualifies || consumed[letter] {
			continue
		}
		if best == "" || rank < bestRank {
			best = letter
			bestRank = rank
		}
	}
	return best, best != ""
}
