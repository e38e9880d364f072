package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// FeedsClient defines the interface for the SP-API Feeds lifecycle
type FeedsClient interface {
	CreateFeedDocument(ctx context.Context, contentType string) (*FeedDocumentUpload, error)
	UploadDocument(ctx context.Context, url string, body []byte, contentType string) error
	CreateFeed(ctx context.Context, feedType string, marketplaceIDs []string, documentID string) (string, error)
	GetFeed(ctx context.Context, feedID string) (*Feed, error)
	GetFeedDocument(ctx context.Context, documentID string) (*FeedDocument, error)
	DownloadDocument(ctx context.Context, url string) ([]byte, error)
}

// SubmissionLedger records phase submissions so partial runs can be resumed
type SubmissionLedger interface {
	Record(ctx context.Context, submission *FeedSubmission) error
	ListRun(ctx context.Context, runID string) ([]FeedSubmission, error)
}

// EventPublisher publishes phase outcomes
type EventPublisher interface {
	PublishPhase(ctx context.Context, event PhaseEvent) error
}
