package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/repositories"
	"github.com/Dosada05/prediction-pool/storage"
)

// RosterService отдает справочные данные турнира: группы, команды и
// календарь матчей. Данные неизменны в течение турнира, меняются только
// эмблемы команд.
type RosterService interface {
	ListGroups(ctx context.Context) ([]*models.Group, error)
	GetTeam(ctx context.Context, id int) (*models.Team, error)
	ListMatches(ctx context.Context) ([]*models.Match, error)
	ListGroupMatches(ctx context.Context, groupID int) ([]*models.Match, error)
	ListPhaseMatches(ctx context.Context, phase models.TournamentPhase) ([]*models.Match, error)
	UploadTeamCrest(ctx context.Context, teamID int, contentType string, file io.Reader) (*models.Team, error)
}

type rosterService struct {
	groupRepo repositories.GroupRepository
	teamRepo  repositories.TeamRepository
	matchRepo repositories.MatchRepository
	uploader  storage.FileUploader
}

func NewRosterService(
	groupRepo repositories.GroupRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	uploader storage.FileUploader,
) RosterService {
	return &rosterService{
		groupRepo: groupRepo,
		teamRepo:  teamRepo,
		matchRepo: matchRepo,
		uploader:  uploader,
	}
}

func (s *rosterService) ListGroups(ctx context.Context) ([]*models.Group, error) {
	groups, err := s.groupRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	for _, group := range groups {
		for i := range group.Teams {
			populateTeamCrestURL(s.uploader, &group.Teams[i])
		}
	}
	return groups, nil
}

func (s *rosterService) GetTeam(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	populateTeamCrestURL(s.uploader, team)
	return team, nil
}

func (s *rosterService) ListMatches(ctx context.Context) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return s.populateMatchTeams(ctx, matches)
}

func (s *rosterService) ListGroupMatches(ctx context.Context, groupID int) ([]*models.Match, error) {
	if _, err := s.groupRepo.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	matches, err := s.matchRepo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return s.populateMatchTeams(ctx, matches)
}

func (s *rosterService) ListPhaseMatches(ctx context.Context, phase models.TournamentPhase) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListByPhase(ctx, phase)
	if err != nil {
		return nil, err
	}
	return s.populateMatchTeams(ctx, matches)
}

// UploadTeamCrest доступен только администратору (проверка в обработчике).
func (s *rosterService) UploadTeamCrest(ctx context.Context, teamID int, contentType string, file io.Reader) (*models.Team, error) {
	ext, err := imageExtension(contentType)
	if err != nil {
		return nil, err
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	key := storage.CrestKey(teamID, generateRandomToken(12), ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	oldKey := team.CrestKey
	if err := s.teamRepo.UpdateCrestKey(ctx, teamID, &key); err != nil {
		_ = s.uploader.Delete(ctx, key)
		return nil, err
	}
	if oldKey != nil {
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	team.CrestKey = &key
	populateTeamCrestURL(s.uploader, team)
	return team, nil
}

func (s *rosterService) populateMatchTeams(ctx context.Context, matches []*models.Match) ([]*models.Match, error) {
	teams, err := s.teamRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]*models.Team, len(teams))
	for i := range teams {
		populateTeamCrestURL(s.uploader, &teams[i])
		byID[teams[i].ID] = &teams[i]
	}
	for _, match := range matches {
		if match.HomeTeamID != nil {
			match.HomeTeam = byID[*match.HomeTeamID]
		}
		if match.AwayTeamID != nil {
			match.AwayTeam = byID[*match.AwayTeamID]
		}
	}
	return matches, nil
}
