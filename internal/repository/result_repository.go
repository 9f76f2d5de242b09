package repository

import (
	"context"
	"fmt"

	"github.com/Scardubu/sabiscore/internal/database"
	"github.com/Scardubu/sabiscore/internal/models"
)

// PostgresResultRepository implements ResultRepository for PostgreSQL
type PostgresResultRepository struct {
	db *database.DB
}

// NewPostgresResultRepository creates a new result repository
func NewPostgresResultRepository(db *database.DB) ResultRepository {
	return &PostgresResultRepository{db: db}
}

// Append durably records a finished-match result. Duplicate reports for
// the same match are idempotent.
func (r *PostgresResultRepository) Append(ctx context.Context, rec *models.LiveResultRecord) error {
	query := `
		INSERT INTO live_results (league, match_id, outcome, reported_at, raw_home, raw_draw, raw_away)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (league, match_id) DO NOTHING
	`
	_, err := r.db.GetPool().Exec(ctx, query,
		rec.League, rec.MatchID, string(rec.Outcome), rec.Timestamp,
		rec.RawProbs[0], rec.RawProbs[1], rec.RawProbs[2],
	)
	if err != nil {
		return fmt.Errorf("failed to append live result: %w", err)
	}
	return nil
}

// GetRecent returns the latest results for a league, newest first
func (r *PostgresResultRepository) GetRecent(ctx context.Context, league string, limit int) ([]*models.LiveResultRecord, error) {
	query := `
		SELECT league, match_id, outcome, reported_at, raw_home, raw_draw, raw_away
		FROM live_results
		WHERE league = $1
		ORDER BY reported_at DESC
		LIMIT $2
	`
	rows, err := r.db.GetPool().Query(ctx, query, league, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query live results: %w", err)
	}
	defer rows.Close()

	var records []*models.LiveResultRecord
	for rows.Next() {
		var (
			rec     models.LiveResultRecord
			outcome string
		)
		if err := rows.Scan(&rec.League, &rec.MatchID, &outcome, &rec.Timestamp,
			&rec.RawProbs[0], &rec.RawProbs[1], &rec.RawProbs[2]); err != nil {
			return nil, fmt.Errorf("failed to scan live result: %w", err)
		}
		rec.Outcome = models.Outcome(outcome)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return records, nil
}
