package usecase

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/parentrebuild/backend/internal/domain"
)

const (
	defaultPollInterval = 30 * time.Second
	defaultPollTimeout  = 20 * time.Minute

	compressionGzip = "GZIP"
)

// FeedEngineConfig holds configuration for the feed engine
type FeedEngineConfig struct {
	SellerID           string
	IssueLocale        string
	MarketplaceIDs     []string
	PollInterval       time.Duration
	PollTimeout        time.Duration
	EnableDebugLogging bool
}

// FeedEngine submits feed documents and polls them to a terminal status.
// Nothing is retried: any remote failure is returned to the caller.
type FeedEngine struct {
	client             domain.FeedsClient
	sellerID           string
	issueLocale        string
	marketplaceIDs     []string
	pollInterval       time.Duration
	pollTimeout        time.Duration
	enableDebugLogging bool
}

// NewFeedEngine creates a feed engine over a Feeds API client
func NewFeedEngine(client domain.FeedsClient, config FeedEngineConfig) *FeedEngine {
	pollInterval := config.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	pollTimeout := config.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}
	return &FeedEngine{
		client:             client,
		sellerID:           config.SellerID,
		issueLocale:        config.IssueLocale,
		marketplaceIDs:     config.MarketplaceIDs,
		pollInterval:       pollInterval,
		pollTimeout:        pollTimeout,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// RenumberMessages assigns sequential 1-based message IDs, overwriting any existing ones
func RenumberMessages(messages []domain.Message) []domain.Message {
	for i := range messages {
		messages[i].MessageID = i + 1
	}
	return messages
}

// EncodeListings renumbers the batch and serializes it as a JSON_LISTINGS_FEED document
func (e *FeedEngine) EncodeListings(batch *domain.Batch) ([]byte, error) {
	RenumberMessages(batch.Messages)
	doc := domain.ListingsFeedDocument{
		Header: domain.FeedHeader{
			SellerID:    e.sellerID,
			Version:     domain.ListingsFeedVersion,
			IssueLocale: e.issueLocale,
		},
		Messages: batch.Messages,
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s feed: %w", batch.Label, err)
	}
	return body, nil
}

// SubmitListings uploads a listings batch and registers it as a JSON listings feed
func (e *FeedEngine) SubmitListings(ctx context.Context, batch *domain.Batch) (string, error) {
	body, err := e.EncodeListings(batch)
	if err != nil {
		return "", err
	}
	log.Printf("[FEED] Submitting %s batch: %d messages", batch.Label, len(batch.Messages))
	return e.SubmitDocument(ctx, domain.FeedTypeJSONListings, domain.ContentTypeJSON, body)
}

// SubmitDocument runs the three-step submission: create document, upload, create feed
func (e *FeedEngine) SubmitDocument(ctx context.Context, feedType, contentType string, body []byte) (string, error) {
	upload, err := e.client.CreateFeedDocument(ctx, contentType)
	if err != nil {
		return "", fmt.Errorf("%w: create feed document: %v", domain.ErrFeedAPIFailure, err)
	}

	if err := e.client.UploadDocument(ctx, upload.URL, body, contentType); err != nil {
		return "", fmt.Errorf("%w: document %s: %v", domain.ErrUploadFailed, upload.FeedDocumentID, err)
	}

	feedID, err := e.client.CreateFeed(ctx, feedType, e.marketplaceIDs, upload.FeedDocumentID)
	if err != nil {
		return "", fmt.Errorf("%w: create feed: %v", domain.ErrFeedAPIFailure, err)
	}

	log.Printf("[FEED] Created %s feed %s (document %s, %d bytes)", feedType, feedID, upload.FeedDocumentID, len(body))
	return feedID, nil
}

// Poll waits one interval between status checks until the feed reaches a terminal status.
// Past the timeout it returns StatusTimeout; the remote feed is left running.
func (e *FeedEngine) Poll(ctx context.Context, feedID string) (*domain.PollResult, error) {
	start := time.Now()
	result := &domain.PollResult{FeedID: feedID}

	for {
		timer := time.NewTimer(e.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		feed, err := e.client.GetFeed(ctx, feedID)
		if err != nil {
			return nil, fmt.Errorf("%w: get feed %s: %v", domain.ErrFeedAPIFailure, feedID, err)
		}
		result.Polls++
		result.Feed = feed
		result.Status = feed.ProcessingStatus
		result.Elapsed = time.Since(start)

		if e.enableDebugLogging {
			log.Printf("[FEED] Feed %s status %s after %s", feedID, feed.ProcessingStatus, result.Elapsed.Round(time.Millisecond))
		}

		if feed.ProcessingStatus.IsTerminal() {
			return result, nil
		}
		if result.Elapsed >= e.pollTimeout {
			log.Printf("[FEED] Feed %s still %s after %s, giving up polling", feedID, feed.ProcessingStatus, result.Elapsed.Round(time.Second))
			result.Status = domain.StatusTimeout
			return result, nil
		}
	}
}

// FetchReport downloads the processing report referenced by a feed.
// A feed without a result document yields an unavailable report, not an error.
func (e *FeedEngine) FetchReport(ctx context.Context, feed *domain.Feed) (*domain.Report, error) {
	report := &domain.Report{FeedID: feed.FeedID, DocumentID: feed.ResultFeedDocumentID}
	if feed.ResultFeedDocumentID == "" {
		return report, nil
	}

	doc, err := e.client.GetFeedDocument(ctx, feed.ResultFeedDocumentID)
	if err != nil {
		return nil, fmt.Errorf("%w: get feed document %s: %v", domain.ErrFeedAPIFailure, feed.ResultFeedDocumentID, err)
	}
	raw, err := e.client.DownloadDocument(ctx, doc.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: download report %s: %v", domain.ErrFeedAPIFailure, doc.FeedDocumentID, err)
	}

	if strings.EqualFold(doc.CompressionAlgorithm, compressionGzip) {
		raw, err = gunzip(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress report %s: %w", doc.FeedDocumentID, err)
		}
	}

	report.Available = true
	report.Body = string(raw)
	return report, nil
}

// Status fetches the current state of any feed by ID
func (e *FeedEngine) Status(ctx context.Context, feedID string) (*domain.Feed, error) {
	if strings.TrimSpace(feedID) == "" {
		return nil, domain.ErrInvalidRequest
	}
	feed, err := e.client.GetFeed(ctx, feedID)
	if err != nil {
		return nil, fmt.Errorf("%w: get feed %s: %w", domain.ErrFeedAPIFailure, feedID, err)
	}
	return feed, nil
}

// Report fetches the processing report of any feed by ID
func (e *FeedEngine) Report(ctx context.Context, feedID string) (*domain.Report, error) {
	feed, err := e.Status(ctx, feedID)
	if err != nil {
		return nil, err
	}
	return e.FetchReport(ctx, feed)
}

// CompactPreview renders the first limit messages as indented JSON, followed by
// an ellipsis line when messages were left out.
func CompactPreview(messages []domain.Message, limit int) (string, error) {
	shown := messages
	if limit >= 0 && len(messages) > limit {
		shown = messages[:limit]
	}
	out, err := json.MarshalIndent(map[string]any{"messages": shown}, "", "  ")
	if err != nil {
		return "", err
	}
	if len(shown) < len(messages) {
		return string(out) + "\n...\n", nil
	}
	return string(out), nil
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
