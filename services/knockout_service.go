package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/prediction-pool/engine"
	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/repositories"
)

// KnockoutMatchInput - прогноз одного матча плей-офф: пара команд по версии
// пользователя и каскад счетов до решающего исхода.
type KnockoutMatchInput struct {
	MatchID         int                     `json:"match_id"`
	HomeTeamID      int                     `json:"home_team_id"`
	AwayTeamID      int                     `json:"away_team_id"`
	HomeScore       int                     `json:"home_score"`
	AwayScore       int                     `json:"away_score"`
	HomeScoreET     *int                    `json:"home_score_et,omitempty"`
	AwayScoreET     *int                    `json:"away_score_et,omitempty"`
	PenaltiesWinner *models.PenaltiesWinner `json:"penalties_winner,omitempty"`
}

type KnockoutService interface {
	SavePhasePredictions(ctx context.Context, userID, poolID int, phase models.TournamentPhase, inputs []KnockoutMatchInput) ([]*models.MatchPrediction, error)
	GetPhasePredictions(ctx context.Context, userID, poolID int, phase models.TournamentPhase) ([]*models.MatchPrediction, error)
}

type knockoutService struct {
	db             *sql.DB
	poolRepo       repositories.PoolRepository
	matchRepo      repositories.MatchRepository
	predictionRepo repositories.PredictionRepository
	matchPredRepo  repositories.MatchPredictionRepository
	brackets       BracketService
}

func NewKnockoutService(
	db *sql.DB,
	poolRepo repositories.PoolRepository,
	matchRepo repositories.MatchRepository,
	predictionRepo repositories.PredictionRepository,
	matchPredRepo repositories.MatchPredictionRepository,
	brackets BracketService,
) KnockoutService {
	return &knockoutService{
		db:             db,
		poolRepo:       poolRepo,
		matchRepo:      matchRepo,
		predictionRepo: predictionRepo,
		matchPredRepo:  matchPredRepo,
		brackets:       brackets,
	}
}

// SavePhasePredictions сохраняет прогнозы матчей одной фазы плей-офф. Фаза
// должна быть открыта: предыдущая полностью спрогнозирована с определенными
// победителями. Составы пар проверяются против собственных прогнозов
// пользователя: для R32 - против разрешенной сетки, дальше - против
// победителей матчей-источников.
func (s *knockoutService) SavePhasePredictions(ctx context.Context, userID, poolID int, phase models.TournamentPhase, inputs []KnockoutMatchInput) ([]*models.MatchPrediction, error) {
	prediction, err := s.requireMembership(ctx, userID, poolID)
	if err != nil {
		return nil, err
	}
	if !phase.IsKnockout() {
		return nil, fmt.Errorf("%w: %s is not a knockout phase", ErrValidationFailed, phase)
	}

	matches, err := s.matchRepo.ListByPhase(ctx, phase)
	if err != nil {
		return nil, err
	}
	matchesByID := make(map[int]*models.Match, len(matches))
	for _, match := range matches {
		matchesByID[match.ID] = match
	}

	var resolvedR32 map[int]engine.TeamPair
	upstreamMatches := make(map[int]*models.Match)
	upstreamPreds := make(map[int]*models.MatchPrediction)

	if phase == models.PhaseRoundOf32 {
		// Составы R32 выводятся из групповых прогнозов; ворота фазы -
		// разрешимость сетки.
		resolved, err := s.brackets.ResolveRoundOf32(ctx, userID, poolID)
		if err != nil {
			return nil, err
		}
		resolvedR32 = make(map[int]engine.TeamPair, len(resolved))
		for _, match := range resolved {
			resolvedR32[match.ID] = engine.TeamPair{
				HomeTeamID: *match.HomeTeamID,
				AwayTeamID: *match.AwayTeamID,
			}
		}
	} else {
		prev, _ := phase.Previous()
		prevMatches, err := s.matchRepo.ListByPhase(ctx, prev)
		if err != nil {
			return nil, err
		}
		prevPreds, err := s.matchPredRepo.ListByPredictionAndPhase(ctx, prediction.ID, prev)
		if err != nil {
			return nil, err
		}
		if err := engine.ValidatePhaseCanBePredicted(phase, prevMatches, prevPreds); err != nil {
			// Незакрытая предыдущая фаза - конфликт состояния, а не невалидный
			// ввод; нарушения инвариантов пробрасываются как есть.
			if engine.IsValidationError(err) {
				return nil, fmt.Errorf("%w: %v", ErrPhaseLocked, err)
			}
			return nil, err
		}
		for _, match := range prevMatches {
			upstreamMatches[match.SequenceNumber] = match
			if pred, ok := prevPreds[match.ID]; ok {
				upstreamPreds[match.SequenceNumber] = pred
			}
		}
	}

	saved := make([]*models.MatchPrediction, 0, len(inputs))
	for _, input := range inputs {
		match, ok := matchesByID[input.MatchID]
		if !ok {
			return nil, fmt.Errorf("%w: match %d is not part of %s", ErrMatchNotFound, input.MatchID, phase)
		}

		home, away := input.HomeTeamID, input.AwayTeamID
		pred := &models.MatchPrediction{
			PredictionID:    prediction.ID,
			MatchID:         input.MatchID,
			HomeTeamID:      &home,
			AwayTeamID:      &away,
			HomeScore:       input.HomeScore,
			AwayScore:       input.AwayScore,
			HomeScoreET:     input.HomeScoreET,
			AwayScoreET:     input.AwayScoreET,
			PenaltiesWinner: input.PenaltiesWinner,
		}

		if err := engine.ValidateMatchResult(pred); err != nil {
			return nil, err
		}

		if phase == models.PhaseRoundOf32 {
			pair, ok := resolvedR32[match.ID]
			if !ok {
				return nil, fmt.Errorf("%w: match %d was not resolved", ErrMatchNotFound, match.ID)
			}
			if pair.HomeTeamID != home || pair.AwayTeamID != away {
				return nil, fmt.Errorf("%w: match %d teams do not match the resolved bracket",
					ErrValidationFailed, match.SequenceNumber)
			}
		} else {
			if err := engine.ValidateMatchTeams(phase, match, home, away, upstreamMatches, upstreamPreds); err != nil {
				return nil, err
			}
		}

		saved = append(saved, pred)
	}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.matchPredRepo.UpsertBatch(ctx, tx, saved); err != nil {
			return err
		}
		return s.predictionRepo.Touch(ctx, tx, prediction.ID)
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *knockoutService) GetPhasePredictions(ctx context.Context, userID, poolID int, phase models.TournamentPhase) ([]*models.MatchPrediction, error) {
	prediction, err := s.requireMembership(ctx, userID, poolID)
	if err != nil {
		return nil, err
	}
	if !phase.IsKnockout() {
		return nil, fmt.Errorf("%w: %s is not a knockout phase", ErrValidationFailed, phase)
	}

	byMatch, err := s.matchPredRepo.ListByPredictionAndPhase(ctx, prediction.ID, phase)
	if err != nil {
		return nil, err
	}

	matches, err := s.matchRepo.ListByPhase(ctx, phase)
	if err != nil {
		return nil, err
	}

	// Порядок следования матчей фазы стабилен.
	preds := make([]*models.MatchPrediction, 0, len(byMatch))
	for _, match := range matches {
		if pred, ok := byMatch[match.ID]; ok {
			preds = append(preds, pred)
		}
	}
	return preds, nil
}

func (s *knockoutService) requireMembership(ctx context.Context, userID, poolID int) (*models.Prediction, error) {
	isMember, err := s.poolRepo.IsMember(ctx, poolID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pool membership: %w", err)
	}
	if !isMember {
		return nil, ErrNotPoolMember
	}
	return s.predictionRepo.GetOrCreate(ctx, userID, poolID)
}
