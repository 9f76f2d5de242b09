// Package repository provides persistence for historical matches and live
// results. The prediction hot path never touches it; training reads from
// it and result ingestion appends to it.
package repository

import (
	"context"
	"time"

	"github.com/Scardubu/sabiscore/internal/models"
)

// MatchRepository reads and writes historical matches used for training
type MatchRepository interface {
	Create(ctx context.Context, match *models.HistoricalMatch) error
	GetByLeague(ctx context.Context, league string, limit int) ([]*models.HistoricalMatch, error)
	GetByLeagueSince(ctx context.Context, league string, since time.Time) ([]*models.HistoricalMatch, error)
	CountByLeague(ctx context.Context, league string) (int, error)
}

// ResultRepository durably appends finished-match results
type ResultRepository interface {
	Append(ctx context.Context, rec *models.LiveResultRecord) error
	GetRecent(ctx context.Context, league string, limit int) ([]*models.LiveResultRecord, error)
}
