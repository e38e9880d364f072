package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/parentrebuild/backend/internal/domain"
)

// MockFeedsClient is a mock implementation of domain.FeedsClient.
// Every created feed walks through statuses in order; the last status repeats.
type MockFeedsClient struct {
	mu sync.Mutex

	statuses    []domain.ProcessingStatus
	resultDocID string
	reportURL   string
	compression string
	reportBody  []byte

	createDocError error
	uploadError    error
	createFeedErr  error
	getFeedError   error
	failFeedType   string

	uploads     [][]byte
	contentType []string
	feedTypes   []string
	pollCounts  map[string]int
	feedCounter int
	calls       []string
}

func NewMockFeedsClient(statuses ...domain.ProcessingStatus) *MockFeedsClient {
	if len(statuses) == 0 {
		statuses = []domain.ProcessingStatus{domain.StatusInProgress, domain.StatusDone}
	}
	return &MockFeedsClient{
		statuses:   statuses,
		pollCounts: make(map[string]int),
	}
}

func (m *MockFeedsClient) CreateFeedDocument(ctx context.Context, contentType string) (*domain.FeedDocumentUpload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "createFeedDocument")
	if m.createDocError != nil {
		return nil, m.createDocError
	}
	m.contentType = append(m.contentType, contentType)
	id := fmt.Sprintf("doc-%d", len(m.contentType))
	return &domain.FeedDocumentUpload{FeedDocumentID: id, URL: "https://upload.example/" + id}, nil
}

func (m *MockFeedsClient) UploadDocument(ctx context.Context, url string, body []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "upload")
	if m.uploadError != nil {
		return m.uploadError
	}
	m.uploads = append(m.uploads, body)
	return nil
}

func (m *MockFeedsClient) CreateFeed(ctx context.Context, feedType string, marketplaceIDs []string, documentID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "createFeed")
	if m.createFeedErr != nil || (m.failFeedType != "" && feedType == m.failFeedType) {
		if m.createFeedErr != nil {
			return "", m.createFeedErr
		}
		return "", fmt.Errorf("status 400: rejected %s", feedType)
	}
	m.feedTypes = append(m.feedTypes, feedType)
	m.feedCounter++
	return fmt.Sprintf("feed-%d", m.feedCounter), nil
}

func (m *MockFeedsClient) GetFeed(ctx context.Context, feedID string) (*domain.Feed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "getFeed")
	if m.getFeedError != nil {
		return nil, m.getFeedError
	}
	idx := m.pollCounts[feedID]
	m.pollCounts[feedID] = idx + 1
	if idx >= len(m.statuses) {
		idx = len(m.statuses) - 1
	}
	status := m.statuses[idx]
	feed := &domain.Feed{FeedID: feedID, ProcessingStatus: status}
	if status.IsTerminal() {
		feed.ResultFeedDocumentID = m.resultDocID
	}
	return feed, nil
}

func (m *MockFeedsClient) GetFeedDocument(ctx context.Context, documentID string) (*domain.FeedDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "getFeedDocument")
	return &domain.FeedDocument{
		FeedDocumentID:       documentID,
		URL:                  m.reportURL,
		CompressionAlgorithm: m.compression,
	}, nil
}

func (m *MockFeedsClient) DownloadDocument(ctx context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "download")
	return m.reportBody, nil
}

// MockLedger is a mock implementation of domain.SubmissionLedger
type MockLedger struct {
	records     []domain.FeedSubmission
	recordError error
}

func (m *MockLedger) Record(ctx context.Context, submission *domain.FeedSubmission) error {
	if m.recordError != nil {
		return m.recordError
	}
	m.records = append(m.records, *submission)
	return nil
}

func (m *MockLedger) ListRun(ctx context.Context, runID string) ([]domain.FeedSubmission, error) {
	var out []domain.FeedSubmission
	for _, r := range m.records {
		if r.RunID == runID {
			out = append(out, r)
		}
	}
	return out, nil
}

// MockPublisher is a mock implementation of domain.EventPublisher
type MockPublisher struct {
	events       []domain.PhaseEvent
	publishError error
}

func (m *MockPublisher) PublishPhase(ctx context.Context, event domain.PhaseEvent) error {
	if m.publishError != nil {
		return m.publishError
	}
	m.events = append(m.events, event)
	return nil
}

func testDefaults() ListingDefaults {
	prices, _ := NewPriceTable(map[string]string{
		"0-3M White Short Sleeve": "21.99",
	}, "19.99")
	return ListingDefaults{
		Brand:            "Nofo Vibes",
		ProductType:      "SHIRT",
		ItemTypeKeyword:  "infant-and-toddler-bodysuits",
		VariationTheme:   "SIZE_NAME/COLOR_NAME",
		TitleTail:        "Baby Boy Girl Clothes Bodysuit Funny Cute",
		MarketplaceID:    "ATVPDKIKX0DER",
		LanguageTag:      "en_US",
		Currency:         "USD",
		MainImageURL:     "https://img.example/main.jpg",
		CountryOfOrigin:  "US",
		FabricType:       "100% Cotton",
		CareInstructions: "Machine Wash",
		Department:       "Baby Boys",
		Package: PackageDimensions{
			Length: 8, Width: 6, Height: 1, DimensionUnit: "inches",
			Weight: 0.25, WeightUnit: "pounds",
		},
		Quantity:            999,
		HandlingLatency:     2,
		InjectKeywords:      true,
		IncludeParentUpdate: true,
		ParentSchema:        SchemaPatch,
		StopWords:           DefaultStopWords,
		Variations:          []string{"0-3M White Short Sleeve", "3-6M Pink Long Sleeve"},
		BaseDescription:     DefaultBaseDescription,
		BaseBullets:         DefaultBaseBullets,
		Prices:              prices,
		Swatches:            NewSwatchMap(map[string]string{"White": "https://img.example/white.jpg"}),
	}
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
