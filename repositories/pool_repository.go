package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/prediction-pool/models"
	"github.com/lib/pq"
)

var (
	ErrPoolNotFound       = errors.New("pool not found")
	ErrPoolNameConflict   = errors.New("pool name conflict")
	ErrPoolMemberConflict = errors.New("user already joined this pool")
	ErrPoolMemberNotFound = errors.New("pool member not found")
)

type PoolRepository interface {
	Create(ctx context.Context, pool *models.Pool) error
	GetByID(ctx context.Context, id int) (*models.Pool, error)
	GetByInviteKey(ctx context.Context, key string) (*models.Pool, error)
	ListByUser(ctx context.Context, userID int) ([]*models.Pool, error)
	AddMember(ctx context.Context, poolID, userID int) error
	RemoveMember(ctx context.Context, poolID, userID int) error
	IsMember(ctx context.Context, poolID, userID int) (bool, error)
	ListMembers(ctx context.Context, poolID int) ([]models.User, error)
	Delete(ctx context.Context, id int) error
}

type postgresPoolRepository struct {
	db *sql.DB
}

func NewPostgresPoolRepository(db *sql.DB) PoolRepository {
	return &postgresPoolRepository{db: db}
}

func (r *postgresPoolRepository) scanPool(row interface{ Scan(...interface{}) error }) (*models.Pool, error) {
	var pool models.Pool
	err := row.Scan(&pool.ID, &pool.Name, &pool.OwnerID, &pool.InviteKey, &pool.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPoolNotFound
		}
		return nil, err
	}
	return &pool, nil
}

func (r *postgresPoolRepository) Create(ctx context.Context, pool *models.Pool) error {
	query := `
		INSERT INTO pools (name, owner_id, invite_key)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, pool.Name, pool.OwnerID, pool.InviteKey).
		Scan(&pool.ID, &pool.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" && pqErr.Constraint == "pools_name_key" {
			return ErrPoolNameConflict
		}
		return err
	}

	// Владелец автоматически становится участником.
	return r.AddMember(ctx, pool.ID, pool.OwnerID)
}

func (r *postgresPoolRepository) GetByID(ctx context.Context, id int) (*models.Pool, error) {
	query := `SELECT id, name, owner_id, invite_key, created_at FROM pools WHERE id = $1`
	return r.scanPool(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresPoolRepository) GetByInviteKey(ctx context.Context, key string) (*models.Pool, error) {
	query := `SELECT id, name, owner_id, invite_key, created_at FROM pools WHERE invite_key = $1`
	return r.scanPool(r.db.QueryRowContext(ctx, query, key))
}

func (r *postgresPoolRepository) ListByUser(ctx context.Context, userID int) ([]*models.Pool, error) {
	query := `
		SELECT p.id, p.name, p.owner_id, p.invite_key, p.created_at
		FROM pools p
		JOIN pool_members pm ON pm.pool_id = p.id
		WHERE pm.user_id = $1
		ORDER BY p.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pools := make([]*models.Pool, 0)
	for rows.Next() {
		pool, errScan := r.scanPool(rows)
		if errScan != nil {
			return nil, errScan
		}
		pools = append(pools, pool)
	}
	return pools, rows.Err()
}

func (r *postgresPoolRepository) AddMember(ctx context.Context, poolID, userID int) error {
	query := `INSERT INTO pool_members (pool_id, user_id) VALUES ($1, $2)`
	_, err := r.db.ExecContext(ctx, query, poolID, userID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				return ErrPoolMemberConflict
			case "23503":
				return ErrPoolNotFound
			}
		}
		return err
	}
	return nil
}

func (r *postgresPoolRepository) RemoveMember(ctx context.Context, poolID, userID int) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM pool_members WHERE pool_id = $1 AND user_id = $2`, poolID, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPoolMemberNotFound)
}

func (r *postgresPoolRepository) IsMember(ctx context.Context, poolID, userID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM pool_members WHERE pool_id = $1 AND user_id = $2)`,
		poolID, userID,
	).Scan(&exists)
	return exists, err
}

func (r *postgresPoolRepository) ListMembers(ctx context.Context, poolID int) ([]models.User, error) {
	query := `
		SELECT u.id, u.first_name, u.last_name, u.nickname, u.email, u.role, u.avatar_key, u.created_at
		FROM users u
		JOIN pool_members pm ON pm.user_id = u.id
		WHERE pm.pool_id = $1
		ORDER BY u.id ASC`

	rows, err := r.db.QueryContext(ctx, query, poolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Nickname, &u.Email, &u.Role, &u.AvatarKey, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *postgresPoolRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM pools WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPoolNotFound)
}
