package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/prediction-pool/models"
)

var ErrMatchNotFound = errors.New("match not found")

type MatchRepository interface {
	GetByID(ctx context.Context, id int) (*models.Match, error)
	GetBySequenceNumber(ctx context.Context, seq int) (*models.Match, error)
	ListByGroup(ctx context.Context, groupID int) ([]*models.Match, error)
	ListByPhase(ctx context.Context, phase models.TournamentPhase) ([]*models.Match, error)
	ListAll(ctx context.Context) ([]*models.Match, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `
	id, sequence_number, phase, group_id,
	home_team_id, away_team_id, home_placeholder, away_placeholder,
	home_source_seq, away_source_seq`

// Пары матчей-источников хранятся двумя nullable колонками; в модели они
// собираются в DependsOn в порядке (домашняя сторона, гостевая).
func (r *postgresMatchRepository) scanMatch(row interface{ Scan(...interface{}) error }) (*models.Match, error) {
	var m models.Match
	var homeSource, awaySource sql.NullInt64
	err := row.Scan(
		&m.ID, &m.SequenceNumber, &m.Phase, &m.GroupID,
		&m.HomeTeamID, &m.AwayTeamID, &m.HomePlaceholder, &m.AwayPlaceholder,
		&homeSource, &awaySource,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if homeSource.Valid && awaySource.Valid {
		m.DependsOn = []int{int(homeSource.Int64), int(awaySource.Int64)}
	}
	return &m, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return r.scanMatch(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) GetBySequenceNumber(ctx context.Context, seq int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE sequence_number = $1`
	return r.scanMatch(r.db.QueryRowContext(ctx, query, seq))
}

func (r *postgresMatchRepository) ListByGroup(ctx context.Context, groupID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE group_id = $1 ORDER BY sequence_number ASC`
	return r.listMatches(ctx, query, groupID)
}

func (r *postgresMatchRepository) ListByPhase(ctx context.Context, phase models.TournamentPhase) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE phase = $1 ORDER BY sequence_number ASC`
	return r.listMatches(ctx, query, string(phase))
}

func (r *postgresMatchRepository) ListAll(ctx context.Context) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches ORDER BY sequence_number ASC`
	return r.listMatches(ctx, query)
}

func (r *postgresMatchRepository) listMatches(ctx context.Context, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, errScan := r.scanMatch(rows)
		if errScan != nil {
			return nil, errScan
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
