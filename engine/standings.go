package engine

import (
	"fmt"
	"sort"

	"github.com/Dosada05/prediction-pool/models"
)

const (
	pointsPerWin  = 3
	pointsPerDraw = 1

	// Размеры группового этапа: 12 групп по 4 команды, полный круг из
	// 6 матчей в каждой, дальше проходят 8 лучших третьих мест.
	GroupTeamCount      = 4
	GroupMatchCount     = 6
	GroupCount          = 12
	BestThirdPlaceCount = 8
)

// GroupInput - все, что нужно для расчета таблицы одной группы: сама
// группа, ее четыре команды, шесть матчей кругового этапа и прогнозы по ним
// (ключ - ID матча).
type GroupInput struct {
	Group       *models.Group
	Teams       []*models.Team
	Matches     []*models.Match
	Predictions map[int]*models.MatchPrediction
}

// sortKey - три критерия сортировки таблицы. Других критериев нет:
// ни личных встреч, ни fair play.
type sortKey struct {
	points         int
	goalDifference int
	goalsFor       int
}

func (k sortKey) less(other sortKey) bool {
	if k.points != other.points {
		return k.points > other.points
	}
	if k.goalDifference != other.goalDifference {
		return k.goalDifference > other.goalDifference
	}
	return k.goalsFor > other.goalsFor
}

func (k sortKey) equal(other sortKey) bool {
	return k == other
}

func standingKey(s *models.GroupStandingPrediction) sortKey {
	return sortKey{points: s.Points, goalDifference: s.GoalDifference, goalsFor: s.GoalsFor}
}

// CalculateGroupStandings строит таблицу группы из прогнозов полного круга.
// Команды получают 3 очка за победу и 1 за ничью, сортировка по
// (очки, разница мячей, забитые) по убыванию, равенство всех трех ключей
// образует tie-кластер. Кластеры не разрешаются автоматически - только
// через опциональный ручной порядок, который проставляется позже.
func CalculateGroupStandings(in GroupInput) ([]*models.GroupStandingPrediction, error) {
	if err := validateGroupInput(in); err != nil {
		return nil, err
	}

	rows := make(map[int]*models.GroupStandingPrediction, GroupTeamCount)
	for _, team := range in.Teams {
		rows[team.ID] = &models.GroupStandingPrediction{
			GroupID: in.Group.ID,
			TeamID:  team.ID,
		}
	}

	for _, match := range in.Matches {
		pred := in.Predictions[match.ID]
		home := rows[*match.HomeTeamID]
		away := rows[*match.AwayTeamID]
		applyScoreline(home, away, pred.HomeScore, pred.AwayScore)
	}

	ranked := make([]*models.GroupStandingPrediction, 0, GroupTeamCount)
	for _, row := range rows {
		row.GoalDifference = row.GoalsFor - row.GoalsAgainst
		ranked = append(ranked, row)
	}

	sort.Slice(ranked, func(i, j int) bool {
		ki, kj := standingKey(ranked[i]), standingKey(ranked[j])
		if !ki.equal(kj) {
			return ki.less(kj)
		}
		// Стабильный порядок внутри кластера, как в индексе таблицы:
		// team_id ASC.
		return ranked[i].TeamID < ranked[j].TeamID
	})

	keys := make([]sortKey, len(ranked))
	for i, row := range ranked {
		row.Position = i + 1
		keys[i] = standingKey(row)
	}
	for i, cluster := range tieClusters(keys, 1) {
		if cluster > 0 {
			c := cluster
			ranked[i].TiebreakRequired = true
			ranked[i].TiebreakGroup = &c
		}
	}

	return ranked, nil
}

func applyScoreline(home, away *models.GroupStandingPrediction, homeScore, awayScore int) {
	home.Played++
	away.Played++
	home.GoalsFor += homeScore
	home.GoalsAgainst += awayScore
	away.GoalsFor += awayScore
	away.GoalsAgainst += homeScore

	switch {
	case homeScore > awayScore:
		home.Wins++
		home.Points += pointsPerWin
		away.Losses++
	case homeScore < awayScore:
		away.Wins++
		away.Points += pointsPerWin
		home.Losses++
	default:
		home.Draws++
		away.Draws++
		home.Points += pointsPerDraw
		away.Points += pointsPerDraw
	}
}

// tieClusters находит максимальные серии соседних одинаковых ключей в уже
// отсортированном списке. Результат - ID кластера для каждой позиции
// (0 - не в кластере); каждая серия получает свежий номер начиная с
// firstCluster.
func tieClusters(keys []sortKey, firstCluster int) []int {
	clusters := make([]int, len(keys))
	nextCluster := firstCluster
	i := 0
	for i < len(keys) {
		j := i + 1
		for j < len(keys) && keys[j].equal(keys[i]) {
			j++
		}
		if j-i > 1 {
			for k := i; k < j; k++ {
				clusters[k] = nextCluster
			}
			nextCluster++
		}
		i = j
	}
	return clusters
}

func validateGroupInput(in GroupInput) error {
	if in.Group == nil {
		return newValidationError("group is required")
	}
	if len(in.Teams) != GroupTeamCount {
		return newValidationError("group %s must have exactly %d teams, got %d",
			in.Group.Letter, GroupTeamCount, len(in.Teams))
	}
	if len(in.Matches) != GroupMatchCount {
		return newValidationError("group %s must have exactly %d matches, got %d",
			in.Group.Letter, GroupMatchCount, len(in.Matches))
	}
	if len(in.Predictions) != GroupMatchCount {
		return newValidationError("group %s requires exactly %d match predictions, got %d",
			in.Group.Letter, GroupMatchCount, len(in.Predictions))
	}

	teamSet := make(map[int]bool, GroupTeamCount)
	for _, team := range in.Teams {
		if team == nil {
			return newValidationError("group %s contains a nil team", in.Group.Letter)
		}
		if teamSet[team.ID] {
			return newValidationError("group %s lists team %d twice", in.Group.Letter, team.ID)
		}
		teamSet[team.ID] = true
	}

	// Полный круг: каждая неупорядоченная пара встречается ровно один раз.
	pairSeen := make(map[[2]int]bool, GroupMatchCount)
	for _, match := range in.Matches {
		if match == nil {
			return newValidationError("group %s contains a nil match", in.Group.Letter)
		}
		if !match.IsGroupStage() || match.GroupID == nil || *match.GroupID != in.Group.ID {
			return newValidationError("match %d does not belong to group %s", match.ID, in.Group.Letter)
		}
		if match.HomeTeamID == nil || match.AwayTeamID == nil {
			return invariantErrorf("group-stage match %d has unresolved teams", match.ID)
		}
		if !teamSet[*match.HomeTeamID] || !teamSet[*match.AwayTeamID] {
			return newValidationError("match %d references a team outside group %s", match.ID, in.Group.Letter)
		}
		pair := orderedPair(*match.HomeTeamID, *match.AwayTeamID)
		if pairSeen[pair] {
			return newValidationError("group %s has a duplicate pairing in match %d", in.Group.Letter, match.ID)
		}
		pairSeen[pair] = true

		pred, ok := in.Predictions[match.ID]
		if !ok || pred == nil {
			return newValidationError("missing prediction for match %d", match.ID)
		}
		if pred.HomeScore < 0 || pred.AwayScore < 0 {
			return newValidationError("match %d: scores must be non-negative", match.ID)
		}
		if pred.HomeScoreET != nil || pred.AwayScoreET != nil || pred.PenaltiesWinner != nil {
			return newValidationError("match %d: group-stage predictions cannot carry extra time or penalties", match.ID)
		}
	}

	return nil
}

func orderedPair(a, b int) [2]int {
	if a < b {
		return [2]int{a, b}
	}
	return [2]int{b, a}
}

// VerifyGroupStandings пересчитывает таблицу по тем же прогнозам и сверяет
// с таблицей, присланной вызывающей стороной, поле за полем. Любое
// расхождение попадает в ValidationError.Fields. Так недоверенный клиент
// может сам отрисовать порядок (в т.ч. ручное разрешение ничьих), а
// источником истины остается пересчет.
func VerifyGroupStandings(in GroupInput, submitted []*models.GroupStandingPrediction) error {
	computed, err := CalculateGroupStandings(in)
	if err != nil {
		return err
	}

	if len(submitted) != len(computed) {
		return newValidationError("expected %d standing rows, got %d", len(computed), len(submitted))
	}

	byTeam := make(map[int]*models.GroupStandingPrediction, len(submitted))
	for _, row := range submitted {
		if row == nil {
			return newValidationError("submitted standings contain a nil row")
		}
		if _, dup := byTeam[row.TeamID]; dup {
			return newValidationError("submitted standings list team %d twice", row.TeamID)
		}
		byTeam[row.TeamID] = row
	}

	mismatch := newValidationError("submitted standings disagree with recomputation")
	for _, want := range computed {
		got, ok := byTeam[want.TeamID]
		if !ok {
			mismatch.addField(fmt.Sprintf("team_%d", want.TeamID), "row missing")
			continue
		}
		compareStandingRow(mismatch, want, got)
	}

	if err := verifyManualOrder(mismatch, computed, byTeam); err != nil {
		return err
	}

	if len(mismatch.Fields) > 0 {
		return mismatch
	}
	return nil
}

func compareStandingRow(mismatch *ValidationError, want, got *models.GroupStandingPrediction) {
	prefix := fmt.Sprintf("team_%d.", want.TeamID)
	checkInt := func(field string, wantV, gotV int) {
		if wantV != gotV {
			mismatch.addField(prefix+field, fmt.Sprintf("expected %d, got %d", wantV, gotV))
		}
	}
	checkInt("points", want.Points, got.Points)
	checkInt("played", want.Played, got.Played)
	checkInt("wins", want.Wins, got.Wins)
	checkInt("draws", want.Draws, got.Draws)
	checkInt("losses", want.Losses, got.Losses)
	checkInt("goals_for", want.GoalsFor, got.GoalsFor)
	checkInt("goals_against", want.GoalsAgainst, got.GoalsAgainst)
	checkInt("goal_difference", want.GoalDifference, got.GoalDifference)
	checkInt("position", want.Position, got.Position)

	if want.TiebreakRequired != got.TiebreakRequired {
		mismatch.addField(prefix+"tiebreak_required",
			fmt.Sprintf("expected %t, got %t", want.TiebreakRequired, got.TiebreakRequired))
	}
	wantCluster, gotCluster := derefInt(want.TiebreakGroup), derefInt(got.TiebreakGroup)
	if wantCluster != gotCluster {
		mismatch.addField(prefix+"tiebreak_group",
			fmt.Sprintf("expected %d, got %d", wantCluster, gotCluster))
	}
}

// verifyManualOrder проверяет присланный ручной порядок: он допустим только
// внутри tie-кластера, должен покрывать кластер целиком и быть перестановкой
// расчетных позиций его членов.
func verifyManualOrder(mismatch *ValidationError, computed []*models.GroupStandingPrediction, byTeam map[int]*models.GroupStandingPrediction) error {
	clusters := make(map[int][]*models.GroupStandingPrediction)
	for _, want := range computed {
		got, ok := byTeam[want.TeamID]
		if !ok {
			continue
		}
		if got.ManualPosition == nil {
			continue
		}
		if want.TiebreakGroup == nil {
			mismatch.addField(fmt.Sprintf("team_%d.manual_position", want.TeamID),
				"manual order is only allowed for tied teams")
			continue
		}
		clusters[*want.TiebreakGroup] = append(clusters[*want.TiebreakGroup], got)
	}

	for clusterID, members := range clusters {
		var size int
		allowed := make(map[int]bool)
		for _, want := range computed {
			if want.TiebreakGroup != nil && *want.TiebreakGroup == clusterID {
				size++
				allowed[want.Position] = true
			}
		}
		if len(members) != size {
			mismatch.addField(fmt.Sprintf("tiebreak_group_%d", clusterID),
				fmt.Sprintf("manual order must cover all %d tied teams, got %d", size, len(members)))
			continue
		}
		seen := make(map[int]bool, size)
		for _, row := range members {
			pos := *row.ManualPosition
			if !allowed[pos] || seen[pos] {
				mismatch.addField(fmt.Sprintf("team_%d.manual_position", row.TeamID),
					fmt.Sprintf("position %d is not a valid permutation of the tied positions", pos))
				continue
			}
			seen[pos] = true
		}
	}
	return nil
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
