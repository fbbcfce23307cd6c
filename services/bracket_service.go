package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/prediction-pool/engine"
	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/repositories"
	"golang.org/x/sync/errgroup"
)

// BracketService выводит составы пар первого раунда плей-офф из сохраненных
// групповых прогнозов пользователя. Результат всегда производный и нигде не
// сохраняется: пересохранение любой группы немедленно меняет сетку.
type BracketService interface {
	ResolveRoundOf32(ctx context.Context, userID, poolID int) ([]*models.Match, error)
}

type bracketService struct {
	poolRepo       repositories.PoolRepository
	matchRepo      repositories.MatchRepository
	teamRepo       repositories.TeamRepository
	predictionRepo repositories.PredictionRepository
	standingRepo   repositories.GroupStandingRepository
	thirdsRepo     repositories.BestThirdPlaceRepository
	resolver       *engine.BracketResolver
}

func NewBracketService(
	poolRepo repositories.PoolRepository,
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	predictionRepo repositories.PredictionRepository,
	standingRepo repositories.GroupStandingRepository,
	thirdsRepo repositories.BestThirdPlaceRepository,
	resolver *engine.BracketResolver,
) BracketService {
	return &bracketService{
		poolRepo:       poolRepo,
		matchRepo:      matchRepo,
		teamRepo:       teamRepo,
		predictionRepo: predictionRepo,
		standingRepo:   standingRepo,
		thirdsRepo:     thirdsRepo,
		resolver:       resolver,
	}
}

// ResolveRoundOf32 возвращает матчи R32 с подставленными командами. Входные
// наборы данных независимы и загружаются параллельно.
func (s *bracketService) ResolveRoundOf32(ctx context.Context, userID, poolID int) ([]*models.Match, error) {
	isMember, err := s.poolRepo.IsMember(ctx, poolID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pool membership: %w", err)
	}
	if !isMember {
		return nil, ErrNotPoolMember
	}

	prediction, err := s.predictionRepo.GetByUserAndPool(ctx, userID, poolID)
	if err != nil {
		return nil, ErrGroupsIncomplete
	}

	var (
		standings []*models.GroupStandingPrediction
		thirds    []*models.BestThirdPlacePrediction
		fixtures  []*models.Match
		teams     []models.Team
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		standings, err = s.standingRepo.ListByPrediction(gctx, prediction.ID)
		return err
	})
	g.Go(func() error {
		var err error
		thirds, err = s.thirdsRepo.ListByPrediction(gctx, prediction.ID)
		return err
	})
	g.Go(func() error {
		var err error
		fixtures, err = s.matchRepo.ListByPhase(gctx, models.PhaseRoundOf32)
		return err
	})
	g.Go(func() error {
		var err error
		teams, err = s.teamRepo.ListAll(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(standings) < engine.GroupCount*engine.GroupTeamCount || len(thirds) < engine.BestThirdPlaceCount {
		return nil, ErrGroupsIncomplete
	}

	pairs, err := s.resolver.ResolveRoundOf32(standings, thirds, fixtures)
	if err != nil {
		return nil, err
	}

	teamsByID := make(map[int]*models.Team, len(teams))
	for i := range teams {
		teamsByID[teams[i].ID] = &teams[i]
	}

	resolved := make([]*models.Match, 0, len(fixtures))
	for _, fixture := range fixtures {
		pair, ok := pairs[fixture.ID]
		if !ok {
			continue
		}
		match := *fixture
		home, away := pair.HomeTeamID, pair.AwayTeamID
		match.HomeTeamID = &home
		match.AwayTeamID = &away
		match.HomeTeam = teamsByID[home]
		match.AwayTeam = teamsByID[away]
		resolved = append(resolved, &match)
	}
	return resolved, nil
}
