package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/prediction-pool/models"
)

var ErrGroupNotFound = errors.New("group not found")

type GroupRepository interface {
	GetByID(ctx context.Context, id int) (*models.Group, error)
	GetLetter(ctx context.Context, id int) (string, error)
	ListAll(ctx context.Context) ([]*models.Group, error)
	Count(ctx context.Context) (int, error)
}

type postgresGroupRepository struct {
	db *sql.DB
}

func NewPostgresGroupRepository(db *sql.DB) GroupRepository {
	return &postgresGroupRepository{db: db}
}

func (r *postgresGroupRepository) GetByID(ctx context.Context, id int) (*models.Group, error) {
	var g models.Group
	err := r.db.QueryRowContext(ctx,
		`SELECT id, letter FROM groups WHERE id = $1`, id,
	).Scan(&g.ID, &g.Letter)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *postgresGroupRepository) GetLetter(ctx context.Context, id int) (string, error) {
	var letter string
	err := r.db.QueryRowContext(ctx,
		`SELECT letter FROM groups WHERE id = $1`, id,
	).Scan(&letter)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrGroupNotFound
		}
		return "", err
	}
	return letter, nil
}

// ListAll возвращает группы вместе с командами, по четыре на группу.
func (r *postgresGroupRepository) ListAll(ctx context.Context) ([]*models.Group, error) {
	query := `
		SELECT g.id, g.letter, t.id, t.name, t.fifa_code, t.confederation, t.group_id, t.crest_key
		FROM groups g
		JOIN teams t ON t.group_id = g.id
		ORDER BY g.letter ASC, t.id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]*models.Group, 0)
	byID := make(map[int]*models.Group)

	for rows.Next() {
		var groupID int
		var letter string
		var t models.Team
		if err := rows.Scan(&groupID, &letter, &t.ID, &t.Name, &t.FifaCode, &t.Confederation, &t.GroupID, &t.CrestKey); err != nil {
			return nil, err
		}
		group, ok := byID[groupID]
		if !ok {
			group = &models.Group{ID: groupID, Letter: letter}
			byID[groupID] = group
			groups = append(groups, group)
		}
		group.Teams = append(group.Teams, t)
	}
	return groups, rows.Err()
}

func (r *postgresGroupRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM groups`).Scan(&count)
	return count, err
}
