package ledger

import (
	"context"

	"github.com/parentrebuild/backend/internal/domain"
)

// Noop discards submissions. Used when no database is configured.
type Noop struct{}

func (Noop) Record(ctx context.Context, s *domain.FeedSubmission) error {
	return nil
}

func (Noop) ListRun(ctx context.Context, runID string) ([]domain.FeedSubmission, error) {
	return nil, nil
}
