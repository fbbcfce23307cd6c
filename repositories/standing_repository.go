package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/prediction-pool/models"
)

var (
	ErrGroupStandingNotFound = errors.New("group standing prediction not found")
	ErrBestThirdNotFound     = errors.New("best third place prediction not found")
)

// Строки таблиц никогда не обновляются по полям: сервис в одной транзакции
// удаляет старый набор и вставляет пересчитанный.
type GroupStandingRepository interface {
	BatchCreate(ctx context.Context, exec SQLExecutor, rows []*models.GroupStandingPrediction) error
	DeleteByPredictionAndGroup(ctx context.Context, exec SQLExecutor, predictionID, groupID int) error
	ListByPredictionAndGroup(ctx context.Context, predictionID, groupID int) ([]*models.GroupStandingPrediction, error)
	ListByPrediction(ctx context.Context, predictionID int) ([]*models.GroupStandingPrediction, error)
	ListThirdPlacesByPrediction(ctx context.Context, exec SQLExecutor, predictionID int) ([]*models.GroupStandingPrediction, error)
	CountGroupsByPrediction(ctx context.Context, exec SQLExecutor, predictionID int) (int, error)
	SetManualPositions(ctx context.Context, exec SQLExecutor, predictionID, groupID int, positions map[int]int) error
	ClearManualPositions(ctx context.Context, exec SQLExecutor, predictionID, groupID int) error
}

type BestThirdPlaceRepository interface {
	BatchCreate(ctx context.Context, exec SQLExecutor, rows []*models.BestThirdPlacePrediction) error
	DeleteByPrediction(ctx context.Context, exec SQLExecutor, predictionID int) error
	ListByPrediction(ctx context.Context, predictionID int) ([]*models.BestThirdPlacePrediction, error)
}

type postgresGroupStandingRepository struct {
	db *sql.DB
}

func NewPostgresGroupStandingRepository(db *sql.DB) GroupStandingRepository {
	return &postgresGroupStandingRepository{db: db}
}

func (r *postgresGroupStandingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const groupStandingColumns = `
	id, prediction_id, group_id, team_id,
	points, played, wins, draws, losses, goals_for, goals_against, goal_difference,
	position, tiebreak_required, tiebreak_group, manual_position, updated_at`

func (r *postgresGroupStandingRepository) scanStanding(row interface{ Scan(...interface{}) error }) (*models.GroupStandingPrediction, error) {
	var s models.GroupStandingPrediction
	err := row.Scan(
		&s.ID, &s.PredictionID, &s.GroupID, &s.TeamID,
		&s.Points, &s.Played, &s.Wins, &s.Draws, &s.Losses,
		&s.GoalsFor, &s.GoalsAgainst, &s.GoalDifference,
		&s.Position, &s.TiebreakRequired, &s.TiebreakGroup, &s.ManualPosition, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupStandingNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresGroupStandingRepository) BatchCreate(ctx context.Context, exec SQLExecutor, rows []*models.GroupStandingPrediction) error {
	executor := r.getExecutor(exec)
	if len(rows) == 0 {
		return nil
	}

	query := `
		INSERT INTO group_standing_predictions
		    (prediction_id, group_id, team_id,
		     points, played, wins, draws, losses, goals_for, goals_against, goal_difference,
		     position, tiebreak_required, tiebreak_group, manual_position, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id`

	now := time.Now()
	for _, row := range rows {
		row.UpdatedAt = now
		err := executor.QueryRowContext(ctx, query,
			row.PredictionID, row.GroupID, row.TeamID,
			row.Points, row.Played, row.Wins, row.Draws, row.Losses,
			row.GoalsFor, row.GoalsAgainst, row.GoalDifference,
			row.Position, row.TiebreakRequired, row.TiebreakGroup, row.ManualPosition, row.UpdatedAt,
		).Scan(&row.ID)
		if err != nil {
			return fmt.Errorf("BatchCreate failed for team %d: %w", row.TeamID, err)
		}
	}
	return nil
}

func (r *postgresGroupStandingRepository) DeleteByPredictionAndGroup(ctx context.Context, exec SQLExecutor, predictionID, groupID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx,
		`DELETE FROM group_standing_predictions WHERE prediction_id = $1 AND group_id = $2`,
		predictionID, groupID)
	return err
}

func (r *postgresGroupStandingRepository) ListByPredictionAndGroup(ctx context.Context, predictionID, groupID int) ([]*models.GroupStandingPrediction, error) {
	query := `
		SELECT ` + groupStandingColumns + `
		FROM group_standing_predictions
		WHERE prediction_id = $1 AND group_id = $2
		ORDER BY position ASC`
	return r.listStandings(ctx, r.db, query, predictionID, groupID)
}

func (r *postgresGroupStandingRepository) ListByPrediction(ctx context.Context, predictionID int) ([]*models.GroupStandingPrediction, error) {
	query := `
		SELECT ` + groupStandingColumns + `
		FROM group_standing_predictions
		WHERE prediction_id = $1
		ORDER BY group_id ASC, position ASC`
	return r.listStandings(ctx, r.db, query, predictionID)
}

// ListThirdPlacesByPrediction выбирает по одной строке на группу с
// эффективной позицией 3 (ручной порядок имеет приоритет). Принимает
// executor, так как вызывается внутри транзакции сохранения, до коммита
// только что записанных таблиц.
func (r *postgresGroupStandingRepository) ListThirdPlacesByPrediction(ctx context.Context, exec SQLExecutor, predictionID int) ([]*models.GroupStandingPrediction, error) {
	query := `
		SELECT ` + groupStandingColumns + `
		FROM group_standing_predictions
		WHERE prediction_id = $1 AND COALESCE(manual_position, position) = 3
		ORDER BY group_id ASC`
	return r.listStandings(ctx, r.getExecutor(exec), query, predictionID)
}

func (r *postgresGroupStandingRepository) listStandings(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) ([]*models.GroupStandingPrediction, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	standings := make([]*models.GroupStandingPrediction, 0)
	for rows.Next() {
		s, errScan := r.scanStanding(rows)
		if errScan != nil {
			return nil, errScan
		}
		standings = append(standings, s)
	}
	return standings, rows.Err()
}

func (r *postgresGroupStandingRepository) CountGroupsByPrediction(ctx context.Context, exec SQLExecutor, predictionID int) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT group_id) FROM group_standing_predictions WHERE prediction_id = $1`,
		predictionID,
	).Scan(&count)
	return count, err
}

func (r *postgresGroupStandingRepository) SetManualPositions(ctx context.Context, exec SQLExecutor, predictionID, groupID int, positions map[int]int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE group_standing_predictions
		SET manual_position = $1, updated_at = $2
		WHERE prediction_id = $3 AND group_id = $4 AND team_id = $5`

	now := time.Now()
	for teamID, position := range positions {
		result, err := executor.ExecContext(ctx, query, position, now, predictionID, groupID, teamID)
		if err != nil {
			return err
		}
		if err := checkAffectedRows(result, ErrGroupStandingNotFound); err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresGroupStandingRepository) ClearManualPositions(ctx context.Context, exec SQLExecutor, predictionID, groupID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx,
		`UPDATE group_standing_predictions SET manual_position = NULL, updated_at = $1
		 WHERE prediction_id = $2 AND group_id = $3`,
		time.Now(), predictionID, groupID)
	return err
}

type postgresBestThirdPlaceRepository struct {
	db *sql.DB
}

func NewPostgresBestThirdPlaceRepository(db *sql.DB) BestThirdPlaceRepository {
	return &postgresBestThirdPlaceRepository{db: db}
}

func (r *postgresBestThirdPlaceRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresBestThirdPlaceRepository) BatchCreate(ctx context.Context, exec SQLExecutor, rows []*models.BestThirdPlacePrediction) error {
	executor := r.getExecutor(exec)
	if len(rows) == 0 {
		return nil
	}

	query := `
		INSERT INTO best_third_place_predictions
		    (prediction_id, group_id, team_id,
		     points, played, wins, draws, losses, goals_for, goals_against, goal_difference,
		     ranking_position, tiebreak_required, tiebreak_group, manual_position, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id`

	now := time.Now()
	for _, row := range rows {
		row.UpdatedAt = now
		err := executor.QueryRowContext(ctx, query,
			row.PredictionID, row.GroupID, row.TeamID,
			row.Points, row.Played, row.Wins, row.Draws, row.Losses,
			row.GoalsFor, row.GoalsAgainst, row.GoalDifference,
			row.RankingPosition, row.TiebreakRequired, row.TiebreakGroup, row.ManualPosition, row.UpdatedAt,
		).Scan(&row.ID)
		if err != nil {
			return fmt.Errorf("BatchCreate failed for team %d: %w", row.TeamID, err)
		}
	}
	return nil
}

func (r *postgresBestThirdPlaceRepository) DeleteByPrediction(ctx context.Context, exec SQLExecutor, predictionID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx,
		`DELETE FROM best_third_place_predictions WHERE prediction_id = $1`, predictionID)
	return err
}

func (r *postgresBestThirdPlaceRepository) ListByPrediction(ctx context.Context, predictionID int) ([]*models.BestThirdPlacePrediction, error) {
	query := `
		SELECT id, prediction_id, group_id, team_id,
		       points, played, wins, draws, losses, goals_for, goals_against, goal_difference,
		       ranking_position, tiebreak_required, tiebreak_group, manual_position, updated_at
		FROM best_third_place_predictions
		WHERE prediction_id = $1
		ORDER BY ranking_position ASC`

	rows, err := r.db.QueryContext(ctx, query, predictionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	thirds := make([]*models.BestThirdPlacePrediction, 0)
	for rows.Next() {
		var t models.BestThirdPlacePrediction
		err := rows.Scan(
			&t.ID, &t.PredictionID, &t.GroupID, &t.TeamID,
			&t.Points, &t.Played, &t.Wins, &t.Draws, &t.Losses,
			&t.GoalsFor, &t.GoalsAgainst, &t.GoalDifference,
			&t.RankingPosition, &t.TiebreakRequired, &t.TiebreakGroup, &t.ManualPosition, &t.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		thirds = append(thirds, &t)
	}
	return thirds, rows.Err()
}
