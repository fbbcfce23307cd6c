package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/prediction-pool/models"
)

var ErrTeamNotFound = errors.New("team not found")

type TeamRepository interface {
	GetByID(ctx context.Context, id int) (*models.Team, error)
	ListAll(ctx context.Context) ([]models.Team, error)
	ListByGroup(ctx context.Context, groupID int) ([]models.Team, error)
	UpdateCrestKey(ctx context.Context, id int, key *string) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

const teamColumns = `id, name, fifa_code, confederation, group_id, crest_key`

func (r *postgresTeamRepository) scanTeam(row interface{ Scan(...interface{}) error }) (*models.Team, error) {
	var t models.Team
	err := row.Scan(&t.ID, &t.Name, &t.FifaCode, &t.Confederation, &t.GroupID, &t.CrestKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`
	return r.scanTeam(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresTeamRepository) ListAll(ctx context.Context) ([]models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams ORDER BY group_id ASC, id ASC`
	return r.listTeams(ctx, query)
}

func (r *postgresTeamRepository) ListByGroup(ctx context.Context, groupID int) ([]models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE group_id = $1 ORDER BY id ASC`
	return r.listTeams(ctx, query, groupID)
}

func (r *postgresTeamRepository) listTeams(ctx context.Context, query string, args ...interface{}) ([]models.Team, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		t, errScan := r.scanTeam(rows)
		if errScan != nil {
			return nil, errScan
		}
		teams = append(teams, *t)
	}
	return teams, rows.Err()
}

func (r *postgresTeamRepository) UpdateCrestKey(ctx context.Context, id int, key *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE teams SET crest_key = $1 WHERE id = $2`, key, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}
