package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/repositories"
	"github.com/Dosada05/prediction-pool/storage"
)

type PoolService interface {
	CreatePool(ctx context.Context, ownerID int, name string) (*models.Pool, error)
	JoinByInviteKey(ctx context.Context, userID int, inviteKey string) (*models.Pool, error)
	GetPool(ctx context.Context, userID, poolID int) (*models.Pool, error)
	ListUserPools(ctx context.Context, userID int) ([]*models.Pool, error)
	ListMembers(ctx context.Context, userID, poolID int) ([]models.User, error)
	LeavePool(ctx context.Context, userID, poolID int) error
}

type poolService struct {
	poolRepo repositories.PoolRepository
	uploader storage.FileUploader
}

func NewPoolService(poolRepo repositories.PoolRepository, uploader storage.FileUploader) PoolService {
	return &poolService{poolRepo: poolRepo, uploader: uploader}
}

func (s *poolService) CreatePool(ctx context.Context, ownerID int, name string) (*models.Pool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrPoolNameRequired
	}

	pool := &models.Pool{
		Name:      name,
		OwnerID:   ownerID,
		InviteKey: generateRandomToken(16),
	}
	if err := s.poolRepo.Create(ctx, pool); err != nil {
		if errors.Is(err, repositories.ErrPoolNameConflict) {
			return nil, ErrPoolNameConflict
		}
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	return pool, nil
}

func (s *poolService) JoinByInviteKey(ctx context.Context, userID int, inviteKey string) (*models.Pool, error) {
	pool, err := s.poolRepo.GetByInviteKey(ctx, inviteKey)
	if err != nil {
		if errors.Is(err, repositories.ErrPoolNotFound) {
			return nil, ErrPoolNotFound
		}
		return nil, err
	}

	if err := s.poolRepo.AddMember(ctx, pool.ID, userID); err != nil {
		if errors.Is(err, repositories.ErrPoolMemberConflict) {
			return nil, ErrAlreadyPoolMember
		}
		return nil, err
	}
	return pool, nil
}

func (s *poolService) GetPool(ctx context.Context, userID, poolID int) (*models.Pool, error) {
	if err := s.requireMembership(ctx, poolID, userID); err != nil {
		return nil, err
	}
	pool, err := s.poolRepo.GetByID(ctx, poolID)
	if err != nil {
		if errors.Is(err, repositories.ErrPoolNotFound) {
			return nil, ErrPoolNotFound
		}
		return nil, err
	}
	// Ключ приглашения виден только владельцу.
	if pool.OwnerID != userID {
		pool.InviteKey = ""
	}
	return pool, nil
}

func (s *poolService) ListUserPools(ctx context.Context, userID int) ([]*models.Pool, error) {
	pools, err := s.poolRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, pool := range pools {
		if pool.OwnerID != userID {
			pool.InviteKey = ""
		}
	}
	return pools, nil
}

func (s *poolService) ListMembers(ctx context.Context, userID, poolID int) ([]models.User, error) {
	if err := s.requireMembership(ctx, poolID, userID); err != nil {
		return nil, err
	}
	members, err := s.poolRepo.ListMembers(ctx, poolID)
	if err != nil {
		return nil, err
	}
	for i := range members {
		populateUserAvatarURL(s.uploader, &members[i])
	}
	return members, nil
}

func (s *poolService) LeavePool(ctx context.Context, userID, poolID int) error {
	pool, err := s.poolRepo.GetByID(ctx, poolID)
	if err != nil {
		if errors.Is(err, repositories.ErrPoolNotFound) {
			return ErrPoolNotFound
		}
		return err
	}
	if pool.OwnerID == userID {
		return ErrForbiddenOperation
	}
	if err := s.poolRepo.RemoveMember(ctx, poolID, userID); err != nil {
		if errors.Is(err, repositories.ErrPoolMemberNotFound) {
			return ErrNotPoolMember
		}
		return err
	}
	return nil
}

func (s *poolService) requireMembership(ctx context.Context, poolID, userID int) error {
	isMember, err := s.poolRepo.IsMember(ctx, poolID, userID)
	if err != nil {
		return fmt.Errorf("failed to check pool membership: %w", err)
	}
	if !isMember {
		return ErrNotPoolMember
	}
	return nil
}
