package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/prediction-pool/engine"
	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/repositories"
)

// GroupScoreInput - счет основного времени одного группового матча.
type GroupScoreInput struct {
	MatchID   int `json:"match_id"`
	HomeScore int `json:"home_score"`
	AwayScore int `json:"away_score"`
}

// GroupPredictionResult - результат сохранения прогнозов группы: свежая
// таблица и, если после сохранения закрыты все двенадцать групп, рейтинг
// лучших третьих мест.
type GroupPredictionResult struct {
	Standings       []*models.GroupStandingPrediction `json:"standings"`
	BestThirdPlaces []*models.BestThirdPlacePrediction `json:"best_third_places,omitempty"`
}

type PredictionService interface {
	SaveGroupPredictions(ctx context.Context, userID, poolID, groupID int, scores []GroupScoreInput) (*GroupPredictionResult, error)
	SetManualGroupOrder(ctx context.Context, userID, poolID, groupID int, positions map[int]int) (*GroupPredictionResult, error)
	GetGroupStandings(ctx context.Context, userID, poolID, groupID int) ([]*models.GroupStandingPrediction, error)
	GetBestThirdPlaces(ctx context.Context, userID, poolID int) ([]*models.BestThirdPlacePrediction, error)
}

type predictionService struct {
	db             *sql.DB
	poolRepo       repositories.PoolRepository
	groupRepo      repositories.GroupRepository
	teamRepo       repositories.TeamRepository
	matchRepo      repositories.MatchRepository
	predictionRepo repositories.PredictionRepository
	matchPredRepo  repositories.MatchPredictionRepository
	standingRepo   repositories.GroupStandingRepository
	thirdsRepo     repositories.BestThirdPlaceRepository
}

func NewPredictionService(
	db *sql.DB,
	poolRepo repositories.PoolRepository,
	groupRepo repositories.GroupRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	predictionRepo repositories.PredictionRepository,
	matchPredRepo repositories.MatchPredictionRepository,
	standingRepo repositories.GroupStandingRepository,
	thirdsRepo repositories.BestThirdPlaceRepository,
) PredictionService {
	return &predictionService{
		db:             db,
		poolRepo:       poolRepo,
		groupRepo:      groupRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		predictionRepo: predictionRepo,
		matchPredRepo:  matchPredRepo,
		standingRepo:   standingRepo,
		thirdsRepo:     thirdsRepo,
	}
}

// SaveGroupPredictions принимает шесть счетов матчей группы, пересчитывает
// таблицу и атомарно заменяет старые строки новым набором. Когда после
// сохранения закрыты все группы, в той же транзакции пересчитывается и
// рейтинг лучших третьих мест.
func (s *predictionService) SaveGroupPredictions(ctx context.Context, userID, poolID, groupID int, scores []GroupScoreInput) (*GroupPredictionResult, error) {
	prediction, err := s.requireMembership(ctx, userID, poolID)
	if err != nil {
		return nil, err
	}

	input, err := s.loadGroupInput(ctx, groupID)
	if err != nil {
		return nil, err
	}

	// Прогнозы строятся заново из входных счетов: ручной порядок прошлого
	// расчета при смене счетов теряет силу.
	input.Predictions = make(map[int]*models.MatchPrediction, len(scores))
	for _, score := range scores {
		input.Predictions[score.MatchID] = &models.MatchPrediction{
			PredictionID: prediction.ID,
			MatchID:      score.MatchID,
			HomeScore:    score.HomeScore,
			AwayScore:    score.AwayScore,
		}
	}

	standings, err := engine.CalculateGroupStandings(input)
	if err != nil {
		return nil, err
	}
	for _, row := range standings {
		row.PredictionID = prediction.ID
	}

	result := &GroupPredictionResult{Standings: standings}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		preds := make([]*models.MatchPrediction, 0, len(input.Predictions))
		for _, p := range input.Predictions {
			preds = append(preds, p)
		}
		if err := s.matchPredRepo.UpsertBatch(ctx, tx, preds); err != nil {
			return err
		}
		if err := s.standingRepo.DeleteByPredictionAndGroup(ctx, tx, prediction.ID, groupID); err != nil {
			return err
		}
		if err := s.standingRepo.BatchCreate(ctx, tx, standings); err != nil {
			return err
		}
		thirds, err := s.recomputeBestThirds(ctx, tx, prediction.ID)
		if err != nil {
			return err
		}
		result.BestThirdPlaces = thirds
		return s.predictionRepo.Touch(ctx, tx, prediction.ID)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SetManualGroupOrder применяет ручной порядок внутри кластеров равных
// команд. Порядок сначала проверяется движком против пересчитанной таблицы.
func (s *predictionService) SetManualGroupOrder(ctx context.Context, userID, poolID, groupID int, positions map[int]int) (*GroupPredictionResult, error) {
	prediction, err := s.requireMembership(ctx, userID, poolID)
	if err != nil {
		return nil, err
	}

	input, err := s.loadGroupInput(ctx, groupID)
	if err != nil {
		return nil, err
	}
	input.Predictions, err = s.matchPredRepo.ListByPredictionAndGroup(ctx, prediction.ID, groupID)
	if err != nil {
		return nil, err
	}

	stored, err := s.standingRepo.ListByPredictionAndGroup(ctx, prediction.ID, groupID)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		return nil, ErrPredictionNotFound
	}

	submitted := make([]*models.GroupStandingPrediction, 0, len(stored))
	for _, row := range stored {
		copied := *row
		if position, ok := positions[row.TeamID]; ok {
			p := position
			copied.ManualPosition = &p
		} else {
			copied.ManualPosition = nil
		}
		submitted = append(submitted, &copied)
	}

	if err := engine.VerifyGroupStandings(input, submitted); err != nil {
		return nil, err
	}

	result := &GroupPredictionResult{Standings: submitted}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		// Сначала снимаем прежний ручной порядок со всей группы.
		if err := s.standingRepo.ClearManualPositions(ctx, tx, prediction.ID, groupID); err != nil {
			return err
		}
		if err := s.standingRepo.SetManualPositions(ctx, tx, prediction.ID, groupID, positions); err != nil {
			return err
		}
		thirds, err := s.recomputeBestThirds(ctx, tx, prediction.ID)
		if err != nil {
			return err
		}
		result.BestThirdPlaces = thirds
		return s.predictionRepo.Touch(ctx, tx, prediction.ID)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *predictionService) GetGroupStandings(ctx context.Context, userID, poolID, groupID int) ([]*models.GroupStandingPrediction, error) {
	prediction, err := s.requireMembership(ctx, userID, poolID)
	if err != nil {
		return nil, err
	}
	return s.standingRepo.ListByPredictionAndGroup(ctx, prediction.ID, groupID)
}

func (s *predictionService) GetBestThirdPlaces(ctx context.Context, userID, poolID int) ([]*models.BestThirdPlacePrediction, error) {
	prediction, err := s.requireMembership(ctx, userID, poolID)
	if err != nil {
		return nil, err
	}
	return s.thirdsRepo.ListByPrediction(ctx, prediction.ID)
}

// requireMembership проверяет участие в пуле и возвращает агрегат прогноза.
func (s *predictionService) requireMembership(ctx context.Context, userID, poolID int) (*models.Prediction, error) {
	isMember, err := s.poolRepo.IsMember(ctx, poolID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pool membership: %w", err)
	}
	if !isMember {
		return nil, ErrNotPoolMember
	}
	return s.predictionRepo.GetOrCreate(ctx, userID, poolID)
}

func (s *predictionService) loadGroupInput(ctx context.Context, groupID int) (engine.GroupInput, error) {
	var input engine.GroupInput

	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return input, ErrGroupNotFound
		}
		return input, err
	}

	teams, err := s.teamRepo.ListByGroup(ctx, groupID)
	if err != nil {
		return input, err
	}
	matches, err := s.matchRepo.ListByGroup(ctx, groupID)
	if err != nil {
		return input, err
	}

	input.Group = group
	input.Teams = make([]*models.Team, len(teams))
	for i := range teams {
		input.Teams[i] = &teams[i]
	}
	input.Matches = matches
	return input, nil
}

// recomputeBestThirds пересчитывает рейтинг лучших третьих мест, когда
// таблицы есть у всех двенадцати групп; иначе набор остается пустым.
func (s *predictionService) recomputeBestThirds(ctx context.Context, tx *sql.Tx, predictionID int) ([]*models.BestThirdPlacePrediction, error) {
	if err := s.thirdsRepo.DeleteByPrediction(ctx, tx, predictionID); err != nil {
		return nil, err
	}

	count, err := s.standingRepo.CountGroupsByPrediction(ctx, tx, predictionID)
	if err != nil {
		return nil, err
	}
	if count < engine.GroupCount {
		return nil, nil
	}

	thirdRows, err := s.standingRepo.ListThirdPlacesByPrediction(ctx, tx, predictionID)
	if err != nil {
		return nil, err
	}
	thirds, err := engine.RankBestThirdPlaces(thirdRows)
	if err != nil {
		return nil, err
	}
	for _, third := range thirds {
		third.PredictionID = predictionID
	}
	if err := s.thirdsRepo.BatchCreate(ctx, tx, thirds); err != nil {
		return nil, err
	}
	return thirds, nil
}
