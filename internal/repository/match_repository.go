package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Scardubu/sabiscore/internal/database"
	"github.com/Scardubu/sabiscore/internal/models"
)

const errScanMatch = "failed to scan historical match: %w"

// PostgresMatchRepository implements MatchRepository for PostgreSQL
type PostgresMatchRepository struct {
	db *database.DB
}

// NewPostgresMatchRepository creates a new match repository
func NewPostgresMatchRepository(db *database.DB) MatchRepository {
	return &PostgresMatchRepository{db: db}
}

// Create inserts a historical match with its context stored as JSONB
func (r *PostgresMatchRepository) Create(ctx context.Context, match *models.HistoricalMatch) error {
	contextJSON, err := json.Marshal(match.Context)
	if err != nil {
		return fmt.Errorf("failed to encode match context: %w", err)
	}

	query := `
		INSERT INTO historical_matches (league, match_id, kickoff_at, context, outcome)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (league, match_id) DO UPDATE
		SET kickoff_at = EXCLUDED.kickoff_at, context = EXCLUDED.context, outcome = EXCLUDED.outcome
	`
	_, err = r.db.GetPool().Exec(ctx, query,
		match.League, match.MatchID, match.KickoffAt, contextJSON, string(match.Outcome),
	)
	if err != nil {
		return fmt.Errorf("failed to create historical match: %w", err)
	}
	return nil
}

// GetByLeague returns the most recent matches for a league
func (r *PostgresMatchRepository) GetByLeague(ctx context.Context, league string, limit int) ([]*models.HistoricalMatch, error) {
	query := `
		SELECT league, match_id, kickoff_at, context, outcome
		FROM historical_matches
		WHERE league = $1
		ORDER BY kickoff_at DESC
		LIMIT $2
	`
	rows, err := r.db.GetPool().Query(ctx, query, league, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query historical matches: %w", err)
	}
	defer rows.Close()
	return scanMatches(rows)
}

// GetByLeagueSince returns matches kicked off at or after the given time
func (r *PostgresMatchRepository) GetByLeagueSince(ctx context.Context, league string, since time.Time) ([]*models.HistoricalMatch, error) {
	query := `
		SELECT league, match_id, kickoff_at, context, outcome
		FROM historical_matches
		WHERE league = $1 AND kickoff_at >= $2
		ORDER BY kickoff_at ASC
	`
	rows, err := r.db.GetPool().Query(ctx, query, league, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query historical matches: %w", err)
	}
	defer rows.Close()
	return scanMatches(rows)
}

// CountByLeague returns the number of stored matches for a league
func (r *PostgresMatchRepository) CountByLeague(ctx context.Context, league string) (int, error) {
	var count int
	err := r.db.GetPool().QueryRow(ctx,
		`SELECT COUNT(*) FROM historical_matches WHERE league = $1`, league,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count historical matches: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanMatches(rows rowScanner) ([]*models.HistoricalMatch, error) {
	var matches []*models.HistoricalMatch
	for rows.Next() {
		var (
			match       models.HistoricalMatch
			contextJSON []byte
			outcome     string
		)
		if err := rows.Scan(&match.League, &match.MatchID, &match.KickoffAt, &contextJSON, &outcome); err != nil {
			return nil, fmt.Errorf(errScanMatch, err)
		}
		if err := json.Unmarshal(contextJSON, &match.Context); err != nil {
			return nil, fmt.Errorf(errScanMatch, err)
		}
		match.Outcome = models.Outcome(outcome)
		matches = append(matches, &match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return matches, nil
}
