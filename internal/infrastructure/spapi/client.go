package spapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/parentrebuild/backend/internal/domain"
)

const (
	feedsAPIPath = "/feeds/2021-06-30"
	userAgent    = "ParentRebuild/1.0 (Language=Go)"

	// accessTokenHeader carries the LWA access token on every SP-API call
	accessTokenHeader = "x-amz-access-token"

	// maxErrorBodySize limits how much of an error response is kept for messages
	maxErrorBodySize = 4 << 10

	// maxDocumentSize limits downloaded processing reports
	maxDocumentSize = 64 << 20
)

// RateLimits are per-operation request rates (requests per second) and bursts
type RateLimits struct {
	CreateFeedDocument float64
	CreateFeed         float64
	GetFeed            float64
	GetFeedDocument    float64
	Burst              int
}

// DefaultRateLimits mirror the documented Feeds API usage plans
var DefaultRateLimits = RateLimits{
	CreateFeedDocument: 0.5,
	CreateFeed:         0.0083,
	GetFeed:            2,
	GetFeedDocument:    0.0222,
	Burst:              10,
}

// Client handles communication with the SP-API Feeds endpoints.
// Requests are never retried; callers decide whether a phase is re-run.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     oauth2.TokenSource
	debug      bool

	createDocLimiter  *rate.Limiter
	createFeedLimiter *rate.Limiter
	getFeedLimiter    *rate.Limiter
	getDocLimiter     *rate.Limiter
}

// NewClient creates a new Feeds API client authenticated by tokens
func NewClient(baseURL string, tokens oauth2.TokenSource, limits RateLimits) *Client {
	burst := limits.Burst
	if burst <= 0 {
		burst = DefaultRateLimits.Burst
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		baseURL:           strings.TrimRight(baseURL, "/"),
		tokens:            tokens,
		createDocLimiter:  newLimiter(limits.CreateFeedDocument, DefaultRateLimits.CreateFeedDocument, burst),
		createFeedLimiter: newLimiter(limits.CreateFeed, DefaultRateLimits.CreateFeed, burst),
		getFeedLimiter:    newLimiter(limits.GetFeed, DefaultRateLimits.GetFeed, burst),
		getDocLimiter:     newLimiter(limits.GetFeedDocument, DefaultRateLimits.GetFeedDocument, burst),
	}
}

func newLimiter(perSecond, fallback float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		perSecond = fallback
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// SetDebug enables or disables debug logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

func (c *Client) debugLog(format string, args ...interface{}) {
	if c.debug {
		log.Printf("[SPAPI] "+format, args...)
	}
}

// CreateFeedDocument reserves an upload URL for a feed document
func (c *Client) CreateFeedDocument(ctx context.Context, contentType string) (*domain.FeedDocumentUpload, error) {
	var out domain.FeedDocumentUpload
	payload := map[string]string{"contentType": contentType}
	if err := c.call(ctx, c.createDocLimiter, http.MethodPost, feedsAPIPath+"/documents", payload, &out); err != nil {
		return nil, err
	}
	if out.FeedDocumentID == "" || out.URL == "" {
		return nil, fmt.Errorf("%w: createFeedDocument returned no document", domain.ErrFeedAPIFailure)
	}
	log.Printf("[SPAPI] Created feed document %s", out.FeedDocumentID)
	return &out, nil
}

// UploadDocument PUTs the document body to the pre-signed upload URL
func (c *Client) UploadDocument(ctx context.Context, uploadURL string, body []byte, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := readLimitedBody(resp.Body, maxErrorBodySize)
		return fmt.Errorf("%w: status %d, body: %s", domain.ErrUploadFailed, resp.StatusCode, string(msg))
	}
	c.debugLog("Uploaded %d bytes (%s)", len(body), contentType)
	return nil
}

// CreateFeed registers an uploaded document as a feed and returns the feed ID
func (c *Client) CreateFeed(ctx context.Context, feedType string, marketplaceIDs []string, documentID string) (string, error) {
	payload := map[string]any{
		"feedType":            feedType,
		"marketplaceIds":      marketplaceIDs,
		"inputFeedDocumentId": documentID,
	}
	var out struct {
		FeedID string `json:"feedId"`
	}
	if err := c.call(ctx, c.createFeedLimiter, http.MethodPost, feedsAPIPath+"/feeds", payload, &out); err != nil {
		return "", err
	}
	if out.FeedID == "" {
		return "", fmt.Errorf("%w: createFeed returned no feed ID", domain.ErrFeedAPIFailure)
	}
	log.Printf("[SPAPI] Created %s feed %s", feedType, out.FeedID)
	return out.FeedID, nil
}

// GetFeed returns the processing state of a feed; Raw holds the response body
func (c *Client) GetFeed(ctx context.Context, feedID string) (*domain.Feed, error) {
	var raw json.RawMessage
	path := fmt.Sprintf("%s/feeds/%s", feedsAPIPath, url.PathEscape(feedID))
	if err := c.call(ctx, c.getFeedLimiter, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}

	var feed domain.Feed
	if err := json.Unmarshal(raw, &feed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	feed.Raw = raw
	c.debugLog("Feed %s is %s", feedID, feed.ProcessingStatus)
	return &feed, nil
}

// GetFeedDocument returns the download URL of a result document
func (c *Client) GetFeedDocument(ctx context.Context, documentID string) (*domain.FeedDocument, error) {
	var out domain.FeedDocument
	path := fmt.Sprintf("%s/documents/%s", feedsAPIPath, url.PathEscape(documentID))
	if err := c.call(ctx, c.getDocLimiter, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadDocument fetches a document from its pre-signed URL. The body is
// returned as stored; decompression is left to the caller.
func (c *Client) DownloadDocument(ctx context.Context, downloadURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFeedAPIFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := readLimitedBody(resp.Body, maxErrorBodySize)
		return nil, fmt.Errorf("%w: download status %d, body: %s", domain.ErrFeedAPIFailure, resp.StatusCode, string(msg))
	}
	return readLimitedBody(resp.Body, maxDocumentSize)
}

// call performs an authenticated JSON request against the SP-API
func (c *Client) call(ctx context.Context, limiter *rate.Limiter, method, path string, payload, out interface{}) error {
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuthFailure, err)
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(accessTokenHeader, token.AccessToken)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.debugLog("%s %s", method, path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrFeedAPIFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s %s", domain.ErrNotFound, method, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := readLimitedBody(resp.Body, maxErrorBodySize)
		log.Printf("[SPAPI] %s %s failed - Status: %d, Body: %s", method, path, resp.StatusCode, string(msg))
		return fmt.Errorf("%w: status %d, body: %s", domain.ErrFeedAPIFailure, resp.StatusCode, string(msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}
