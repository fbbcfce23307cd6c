package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/prediction-pool/models"
	"github.com/lib/pq"
)

var (
	ErrPredictionNotFound      = errors.New("prediction not found")
	ErrMatchPredictionNotFound = errors.New("match prediction not found")
	ErrPredictionMatchInvalid  = errors.New("match prediction references unknown match")
)

type PredictionRepository interface {
	GetByID(ctx context.Context, id int) (*models.Prediction, error)
	GetByUserAndPool(ctx context.Context, userID, poolID int) (*models.Prediction, error)
	GetOrCreate(ctx context.Context, userID, poolID int) (*models.Prediction, error)
	Touch(ctx context.Context, exec SQLExecutor, id int) error
	ListByPool(ctx context.Context, poolID int) ([]*models.Prediction, error)
}

type MatchPredictionRepository interface {
	UpsertBatch(ctx context.Context, exec SQLExecutor, preds []*models.MatchPrediction) error
	ListByPredictionAndGroup(ctx context.Context, predictionID, groupID int) (map[int]*models.MatchPrediction, error)
	ListByPredictionAndPhase(ctx context.Context, predictionID int, phase models.TournamentPhase) (map[int]*models.MatchPrediction, error)
	ListByPrediction(ctx context.Context, predictionID int) ([]*models.MatchPrediction, error)
}

type postgresPredictionRepository struct {
	db *sql.DB
}

func NewPostgresPredictionRepository(db *sql.DB) PredictionRepository {
	return &postgresPredictionRepository{db: db}
}

func (r *postgresPredictionRepository) scanPrediction(row interface{ Scan(...interface{}) error }) (*models.Prediction, error) {
	var p models.Prediction
	err := row.Scan(&p.ID, &p.UserID, &p.PoolID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPredictionNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresPredictionRepository) GetByID(ctx context.Context, id int) (*models.Prediction, error) {
	query := `SELECT id, user_id, pool_id, created_at, updated_at FROM predictions WHERE id = $1`
	return r.scanPrediction(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresPredictionRepository) GetByUserAndPool(ctx context.Context, userID, poolID int) (*models.Prediction, error) {
	query := `SELECT id, user_id, pool_id, created_at, updated_at FROM predictions WHERE user_id = $1 AND pool_id = $2`
	return r.scanPrediction(r.db.QueryRowContext(ctx, query, userID, poolID))
}

// GetOrCreate опирается на уникальность пары (user_id, pool_id): гонка двух
// вставок разрешается повторным чтением.
func (r *postgresPredictionRepository) GetOrCreate(ctx context.Context, userID, poolID int) (*models.Prediction, error) {
	prediction, err := r.GetByUserAndPool(ctx, userID, poolID)
	if err == nil {
		return prediction, nil
	}
	if !errors.Is(err, ErrPredictionNotFound) {
		return nil, err
	}

	query := `
		INSERT INTO predictions (user_id, pool_id)
		VALUES ($1, $2)
		RETURNING id, user_id, pool_id, created_at, updated_at`
	prediction, err = r.scanPrediction(r.db.QueryRowContext(ctx, query, userID, poolID))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return r.GetByUserAndPool(ctx, userID, poolID)
		}
		return nil, err
	}
	return prediction, nil
}

func (r *postgresPredictionRepository) Touch(ctx context.Context, exec SQLExecutor, id int) error {
	if exec == nil {
		exec = r.db
	}
	result, err := exec.ExecContext(ctx, `UPDATE predictions SET updated_at = $1 WHERE id = $2`, time.Now(), id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPredictionNotFound)
}

func (r *postgresPredictionRepository) ListByPool(ctx context.Context, poolID int) ([]*models.Prediction, error) {
	query := `SELECT id, user_id, pool_id, created_at, updated_at FROM predictions WHERE pool_id = $1 ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, poolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	predictions := make([]*models.Prediction, 0)
	for rows.Next() {
		p, errScan := r.scanPrediction(rows)
		if errScan != nil {
			return nil, errScan
		}
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}

type postgresMatchPredictionRepository struct {
	db *sql.DB
}

func NewPostgresMatchPredictionRepository(db *sql.DB) MatchPredictionRepository {
	return &postgresMatchPredictionRepository{db: db}
}

const matchPredictionColumns = `
	id, prediction_id, match_id, home_team_id, away_team_id,
	home_score, away_score, home_score_et, away_score_et,
	penalties_winner, updated_at`

const joinedMatchPredictionColumns = `
	mp.id, mp.prediction_id, mp.match_id, mp.home_team_id, mp.away_team_id,
	mp.home_score, mp.away_score, mp.home_score_et, mp.away_score_et,
	mp.penalties_winner, mp.updated_at`

func (r *postgresMatchPredictionRepository) scanMatchPrediction(row interface{ Scan(...interface{}) error }) (*models.MatchPrediction, error) {
	var p models.MatchPrediction
	err := row.Scan(
		&p.ID, &p.PredictionID, &p.MatchID, &p.HomeTeamID, &p.AwayTeamID,
		&p.HomeScore, &p.AwayScore, &p.HomeScoreET, &p.AwayScoreET,
		&p.PenaltiesWinner, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchPredictionNotFound
		}
		return nil, err
	}
	return &p, nil
}

// UpsertBatch перезаписывает прогнозы по ключу (prediction_id, match_id).
// Очистка полей дополнительного времени и пенальти происходит естественно:
// NULL в модели становится NULL в строке.
func (r *postgresMatchPredictionRepository) UpsertBatch(ctx context.Context, exec SQLExecutor, preds []*models.MatchPrediction) error {
	if exec == nil {
		exec = r.db
	}
	if len(preds) == 0 {
		return nil
	}

	query := `
		INSERT INTO match_predictions
		    (prediction_id, match_id, home_team_id, away_team_id,
		     home_score, away_score, home_score_et, away_score_et,
		     penalties_winner, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (prediction_id, match_id) DO UPDATE SET
		    home_team_id = EXCLUDED.home_team_id,
		    away_team_id = EXCLUDED.away_team_id,
		    home_score = EXCLUDED.home_score,
		    away_score = EXCLUDED.away_score,
		    home_score_et = EXCLUDED.home_score_et,
		    away_score_et = EXCLUDED.away_score_et,
		    penalties_winner = EXCLUDED.penalties_winner,
		    updated_at = EXCLUDED.updated_at
		RETURNING id`

	now := time.Now()
	for _, pred := range preds {
		pred.UpdatedAt = now
		err := exec.QueryRowContext(ctx, query,
			pred.PredictionID, pred.MatchID, pred.HomeTeamID, pred.AwayTeamID,
			pred.HomeScore, pred.AwayScore, pred.HomeScoreET, pred.AwayScoreET,
			pred.PenaltiesWinner, pred.UpdatedAt,
		).Scan(&pred.ID)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
				return ErrPredictionMatchInvalid
			}
			return fmt.Errorf("upsert prediction for match %d: %w", pred.MatchID, err)
		}
	}
	return nil
}

func (r *postgresMatchPredictionRepository) ListByPredictionAndGroup(ctx context.Context, predictionID, groupID int) (map[int]*models.MatchPrediction, error) {
	query := `
		SELECT ` + joinedMatchPredictionColumns + `
		FROM match_predictions mp
		JOIN matches m ON m.id = mp.match_id
		WHERE mp.prediction_id = $1 AND m.group_id = $2`
	return r.mapByMatchID(ctx, query, predictionID, groupID)
}

func (r *postgresMatchPredictionRepository) ListByPredictionAndPhase(ctx context.Context, predictionID int, phase models.TournamentPhase) (map[int]*models.MatchPrediction, error) {
	query := `
		SELECT ` + joinedMatchPredictionColumns + `
		FROM match_predictions mp
		JOIN matches m ON m.id = mp.match_id
		WHERE mp.prediction_id = $1 AND m.phase = $2`
	return r.mapByMatchID(ctx, query, predictionID, string(phase))
}

func (r *postgresMatchPredictionRepository) ListByPrediction(ctx context.Context, predictionID int) ([]*models.MatchPrediction, error) {
	query := `SELECT ` + matchPredictionColumns + ` FROM match_predictions WHERE prediction_id = $1 ORDER BY match_id ASC`
	rows, err := r.db.QueryContext(ctx, query, predictionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	preds := make([]*models.MatchPrediction, 0)
	for rows.Next() {
		p, errScan := r.scanMatchPrediction(rows)
		if errScan != nil {
			return nil, errScan
		}
		preds = append(preds, p)
	}
	return preds, rows.Err()
}

func (r *postgresMatchPredictionRepository) mapByMatchID(ctx context.Context, query string, args ...interface{}) (map[int]*models.MatchPrediction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	preds := make(map[int]*models.MatchPrediction)
	for rows.Next() {
		p, errScan := r.scanMatchPrediction(rows)
		if errScan != nil {
			return nil, errScan
		}
		preds[p.MatchID] = p
	}
	return preds, rows.Err()
}
