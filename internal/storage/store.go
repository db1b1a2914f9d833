package storage

import (
	"context"

	"github.com/google/uuid"
)

// Store archives computed comparison tables so earlier analyses can be
// listed and compared.
type Store interface {
	Init(ctx context.Context) error
	SaveAnalysis(ctx context.Context, analysis Analysis) error
	GetAnalysis(ctx context.Context, id uuid.UUID) (Analysis, bool, error)
	// ListAnalyses returns the newest analyses first. A limit <= 0 returns
	// all of them.
	ListAnalyses(ctx context.Context, limit int) ([]Analysis, error)
}
