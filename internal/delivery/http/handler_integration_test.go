package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/parentrebuild/backend/config"
	"github.com/parentrebuild/backend/internal/domain"
	"github.com/parentrebuild/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)

	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"https://*.parentrebuild.dev", "http://localhost:3000"},
		},
		Cache: config.CacheConfig{Type: "memory"},
	}
}

// setupTestRouter creates a router without a rebuild service
func setupTestRouter() *gin.Engine {
	handler := NewHandler(nil)
	if handler == nil {
		panic("setupTestRouter: NewHandler returned nil")
	}

	router := SetupRouter(testConfig(), handler)
	if router == nil {
		panic("setupTestRouter: SetupRouter returned nil *gin.Engine")
	}
	return router
}

// --- Mock implementations ---

// mockFeedsClient is a mock implementation of domain.FeedsClient.
// Every feed reports finalStatus on its first poll.
type mockFeedsClient struct {
	mu          sync.Mutex
	finalStatus domain.ProcessingStatus
	createErr   error
	feedErr     error
	reportBody  string
	feeds       int
}

func newMockFeedsClient() *mockFeedsClient {
	return &mockFeedsClient{finalStatus: domain.StatusDone}
}

func (m *mockFeedsClient) CreateFeedDocument(ctx context.Context, contentType string) (*domain.FeedDocumentUpload, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &domain.FeedDocumentUpload{FeedDocumentID: "doc-1", URL: "https://upload.example/doc-1"}, nil
}

func (m *mockFeedsClient) UploadDocument(ctx context.Context, url string, body []byte, contentType string) error {
	return nil
}

func (m *mockFeedsClient) CreateFeed(ctx context.Context, feedType string, marketplaceIDs []string, documentID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feeds++
	return fmt.Sprintf("5000%d", m.feeds), nil
}

func (m *mockFeedsClient) GetFeed(ctx context.Context, feedID string) (*domain.Feed, error) {
	if m.feedErr != nil {
		return nil, m.feedErr
	}
	feed := &domain.Feed{FeedID: feedID, FeedType: domain.FeedTypeJSONListings, ProcessingStatus: m.finalStatus}
	if m.reportBody != "" {
		feed.ResultFeedDocumentID = "res-" + feedID
	}
	feed.Raw = []byte(fmt.Sprintf(`{"feedId":%q,"processingStatus":%q}`, feedID, m.finalStatus))
	return feed, nil
}

func (m *mockFeedsClient) GetFeedDocument(ctx context.Context, documentID string) (*domain.FeedDocument, error) {
	return &domain.FeedDocument{FeedDocumentID: documentID, URL: "https://download.example/" + documentID}, nil
}

func (m *mockFeedsClient) DownloadDocument(ctx context.Context, url string) ([]byte, error) {
	return []byte(m.reportBody), nil
}

// mockLedger is a mock implementation of domain.SubmissionLedger
type mockLedger struct {
	mu      sync.Mutex
	records []domain.FeedSubmission
}

func (m *mockLedger) Record(ctx context.Context, s *domain.FeedSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *s)
	return nil
}

func (m *mockLedger) ListRun(ctx context.Context, runID string) ([]domain.FeedSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.FeedSubmission
	for _, r := range m.records {
		if r.RunID == runID {
			out = append(out, r)
		}
	}
	return out, nil
}

func testDefaults() usecase.ListingDefaults {
	prices, _ := usecase.NewPriceTable(nil, "19.99")
	return usecase.ListingDefaults{
		Brand:               "Nofo Vibes",
		ProductType:         "SHIRT",
		ItemTypeKeyword:     "infant-and-toddler-bodysuits",
		VariationTheme:      "SIZE_NAME/COLOR_NAME",
		TitleTail:           "Baby Boy Girl Clothes Bodysuit Funny Cute",
		MarketplaceID:       "ATVPDKIKX0DER",
		LanguageTag:         "en_US",
		Currency:            "USD",
		Quantity:            999,
		HandlingLatency:     2,
		InjectKeywords:      true,
		IncludeParentUpdate: true,
		ParentSchema:        usecase.SchemaPatch,
		StopWords:           usecase.DefaultStopWords,
		Variations:          []string{"0-3M White Short Sleeve", "3-6M Pink Long Sleeve"},
		BaseDescription:     usecase.DefaultBaseDescription,
		BaseBullets:         usecase.DefaultBaseBullets,
		Prices:              prices,
		Swatches:            usecase.SwatchMap{},
	}
}

// setupTestRouterWithService creates a router backed by a real RebuildService using mocks
func setupTestRouterWithService(client domain.FeedsClient, ledger domain.SubmissionLedger) *gin.Engine {
	engine := usecase.NewFeedEngine(client, usecase.FeedEngineConfig{
		SellerID:       "A1SELLER",
		IssueLocale:    "en_US",
		MarketplaceIDs: []string{"ATVPDKIKX0DER"},
		PollInterval:   time.Millisecond,
		PollTimeout:    50 * time.Millisecond,
	})
	service := usecase.NewRebuildService(testDefaults(), engine, ledger, nil, false)
	return SetupRouter(testConfig(), NewHandler(service))
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, path, nil)
	} else {
		req, _ = http.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v (%s)", err, w.Body.String())
	}
	return response
}

// TestHealthCheckEndpoint tests the health check endpoint
func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		w := doJSON(setupTestRouter(), "GET", "/health", "")

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		response := decode(t, w)
		if response["status"] != "healthy" {
			t.Errorf("status = %v, want healthy", response["status"])
		}
		if response["service"] != "parentrebuild-backend" {
			t.Errorf("service = %v, want parentrebuild-backend", response["service"])
		}
		version, ok := response["version"].(string)
		if !ok || strings.TrimSpace(version) == "" {
			t.Errorf("version = %v, want non-empty string", response["version"])
		}
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router := setupTestRouter()

		for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
			w := doJSON(router, method, "/health", "")
			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})
}

func TestEndpointsWithoutService(t *testing.T) {
	router := setupTestRouter()

	endpoints := []struct {
		method string
		path   string
	}{
		{"POST", "/api/v1/rebuild/preview"},
		{"POST", "/api/v1/rebuild/run"},
		{"GET", "/api/v1/feeds/50001"},
		{"GET", "/api/v1/feeds/50001/report"},
		{"POST", "/api/v1/inventory/preview"},
		{"GET", "/api/v1/runs/run-1"},
	}

	for _, endpoint := range endpoints {
		t.Run(endpoint.method+" "+endpoint.path, func(t *testing.T) {
			w := doJSON(router, endpoint.method, endpoint.path, "{}")

			if w.Code != http.StatusServiceUnavailable {
				t.Errorf("Status = %d, want %d", w.Code, http.StatusServiceUnavailable)
			}
			errorMsg, _ := decode(t, w)["error"].(string)
			if !strings.Contains(errorMsg, "not configured") {
				t.Errorf("error = %q, want to contain 'not configured'", errorMsg)
			}
		})
	}
}

func TestPreviewRebuild(t *testing.T) {
	t.Run("returns counts, problems and previews", func(t *testing.T) {
		router := setupTestRouterWithService(newMockFeedsClient(), nil)

		w := doJSON(router, "POST", "/api/v1/rebuild/preview?limit=1", `{"parentSkus":["GYROBABY-PARENT"]}`)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d (%s)", w.Code, http.StatusOK, w.Body.String())
		}
		response := decode(t, w)
		counts := response["counts"].(map[string]interface{})
		if counts["create"] != float64(2) || counts["delete"] != float64(2) || counts["parent"] != float64(1) {
			t.Errorf("counts = %v, want 2 creates, 2 deletes, 1 parent", counts)
		}
		if response["valid"] != true {
			t.Errorf("valid = %v, want true; problems = %v", response["valid"], response["problems"])
		}
		skus := response["inventorySkus"].([]interface{})
		if len(skus) != 2 || skus[0] != "GYROBABY-03M-WH-SS" {
			t.Errorf("inventorySkus = %v", skus)
		}
		preview := response["preview"].(map[string]interface{})
		create, _ := preview["CREATE"].(string)
		if !strings.HasSuffix(create, "\n...\n") {
			t.Errorf("CREATE preview should be truncated, got %q", create)
		}
	})

	t.Run("no parent when includeParent is false", func(t *testing.T) {
		router := setupTestRouterWithService(newMockFeedsClient(), nil)

		w := doJSON(router, "POST", "/api/v1/rebuild/preview", `{"parentSkus":["GYROBABY-PARENT"],"includeParent":false}`)

		counts := decode(t, w)["counts"].(map[string]interface{})
		if counts["parent"] != float64(0) {
			t.Errorf("parent count = %v, want 0", counts["parent"])
		}
	})

	t.Run("returns 400 for missing parentSkus", func(t *testing.T) {
		router := setupTestRouterWithService(newMockFeedsClient(), nil)

		w := doJSON(router, "POST", "/api/v1/rebuild/preview", `{"variations":["NB White Short Sleeve"]}`)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("returns 400 for blank parentSkus", func(t *testing.T) {
		router := setupTestRouterWithService(newMockFeedsClient(), nil)

		w := doJSON(router, "POST", "/api/v1/rebuild/preview", `{"parentSkus":["  "]}`)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("returns 400 for invalid JSON", func(t *testing.T) {
		router := setupTestRouterWithService(newMockFeedsClient(), nil)

		w := doJSON(router, "POST", "/api/v1/rebuild/preview", `{invalid json}`)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("returns 400 for bad limit", func(t *testing.T) {
		router := setupTestRouterWithService(newMockFeedsClient(), nil)

		w := doJSON(router, "POST", "/api/v1/rebuild/preview?limit=-2", `{"parentSkus":["P"]}`)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

func TestRunRebuild(t *testing.T) {
	t.Run("runs every phase and records them", func(t *testing.T) {
		ledger := &mockLedger{}
		router := setupTestRouterWithService(newMockFeedsClient(), ledger)

		w := doJSON(router, "POST", "/api/v1/rebuild/run", `{"parentSkus":["GYROBABY-PARENT"]}`)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d (%s)", w.Code, http.StatusOK, w.Body.String())
		}
		response := decode(t, w)
		if response["completed"] != true {
			t.Errorf("completed = %v, want true", response["completed"])
		}
		phases := response["phases"].([]interface{})
		if len(phases) != 4 {
			t.Fatalf("len(phases) = %d, want 4", len(phases))
		}
		want := []string{"DELETE", "CREATE", "PARENT", "INVENTORY"}
		for i, p := range phases {
			if got := p.(map[string]interface{})["phase"]; got != want[i] {
				t.Errorf("phase %d = %v, want %s", i, got, want[i])
			}
		}
		if len(ledger.records) != 4 {
			t.Errorf("ledger records = %d, want 4", len(ledger.records))
		}

		runID := response["runId"].(string)
		w = doJSON(router, "GET", "/api/v1/runs/"+runID, "")
		if w.Code != http.StatusOK {
			t.Fatalf("GET run Status = %d, want %d", w.Code, http.StatusOK)
		}
		subs := decode(t, w)["submissions"].([]interface{})
		if len(subs) != 4 {
			t.Errorf("submissions = %d, want 4", len(subs))
		}
	})

	t.Run("returns 409 with partial report when a phase fails", func(t *testing.T) {
		client := newMockFeedsClient()
		client.finalStatus = domain.StatusFatal
		router := setupTestRouterWithService(client, nil)

		w := doJSON(router, "POST", "/api/v1/rebuild/run", `{"parentSkus":["GYROBABY-PARENT"]}`)

		if w.Code != http.StatusConflict {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusConflict)
		}
		report := decode(t, w)["report"].(map[string]interface{})
		if report["completed"] != false {
			t.Errorf("completed = %v, want false", report["completed"])
		}
		if phases := report["phases"].([]interface{}); len(phases) != 1 {
			t.Errorf("len(phases) = %d, want 1", len(phases))
		}
	})

	t.Run("returns 502 for SP-API failure", func(t *testing.T) {
		client := newMockFeedsClient()
		client.createErr = fmt.Errorf("%w: status 503", domain.ErrFeedAPIFailure)
		router := setupTestRouterWithService(client, nil)

		w := doJSON(router, "POST", "/api/v1/rebuild/run", `{"parentSkus":["GYROBABY-PARENT"]}`)

		if w.Code != http.StatusBadGateway {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusBadGateway)
		}
		response := decode(t, w)
		if response["error"] != "SP-API request failed" {
			t.Errorf("error = %v, want 'SP-API request failed'", response["error"])
		}
		if response["report"] == nil {
			t.Error("expected partial report in response")
		}
	})

	t.Run("returns 422 when validation fails", func(t *testing.T) {
		router := setupTestRouterWithService(newMockFeedsClient(), nil)

		// a variation that yields the same child SKU twice
		body := `{"parentSkus":["GYROBABY-PARENT"],"variations":["0-3M White Short Sleeve","0-3M White Short Sleeve"]}`
		w := doJSON(router, "POST", "/api/v1/rebuild/run", body)

		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("Status = %d, want %d (%s)", w.Code, http.StatusUnprocessableEntity, w.Body.String())
		}
		problems, _ := decode(t, w)["problems"].([]interface{})
		if len(problems) == 0 {
			t.Error("expected problems in response")
		}
	})
}

func TestFeedEndpoints(t *testing.T) {
	t.Run("returns the raw feed status", func(t *testing.T) {
		router := setupTestRouterWithService(newMockFeedsClient(), nil)

		w := doJSON(router, "GET", "/api/v1/feeds/50001", "")

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		response := decode(t, w)
		if response["feedId"] != "50001" || response["processingStatus"] != "DONE" {
			t.Errorf("response = %v", response)
		}
	})

	t.Run("returns 404 for unknown feed", func(t *testing.T) {
		client := newMockFeedsClient()
		client.feedErr = fmt.Errorf("%w: feed 1", domain.ErrNotFound)
		router := setupTestRouterWithService(client, nil)

		w := doJSON(router, "GET", "/api/v1/feeds/1", "")

		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("returns null report when none was produced", func(t *testing.T) {
		router := setupTestRouterWithService(newMockFeedsClient(), nil)

		w := doJSON(router, "GET", "/api/v1/feeds/50001/report", "")

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		response := decode(t, w)
		if response["available"] != false || response["report"] != nil {
			t.Errorf("response = %v, want unavailable null report", response)
		}
	})

	t.Run("returns the report body", func(t *testing.T) {
		client := newMockFeedsClient()
		client.reportBody = `{"summary":{"errors":0}}`
		router := setupTestRouterWithService(client, nil)

		w := doJSON(router, "GET", "/api/v1/feeds/50001/report", "")

		response := decode(t, w)
		if response["report"] != `{"summary":{"errors":0}}` {
			t.Errorf("report = %v", response["report"])
		}
		if response["documentId"] != "res-50001" {
			t.Errorf("documentId = %v, want res-50001", response["documentId"])
		}
	})
}

func TestPreviewInventory(t *testing.T) {
	t.Run("returns TSV body", func(t *testing.T) {
		router := setupTestRouterWithService(newMockFeedsClient(), nil)

		w := doJSON(router, "POST", "/api/v1/inventory/preview", `{"skus":["A-1","A-2"]}`)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		if got := w.Header().Get("Content-Type"); got != tsvContentType {
			t.Errorf("Content-Type = %q, want %q", got, tsvContentType)
		}
		want := "sku\tquantity\tfulfillment_latency\nA-1\t999\t2\nA-2\t999\t2\n"
		if w.Body.String() != want {
			t.Errorf("body = %q, want %q", w.Body.String(), want)
		}
	})

	t.Run("returns 400 for empty SKU list", func(t *testing.T) {
		router := setupTestRouterWithService(newMockFeedsClient(), nil)

		w := doJSON(router, "POST", "/api/v1/inventory/preview", `{"skus":[" "]}`)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

func TestGetRun(t *testing.T) {
	t.Run("returns 404 without a ledger", func(t *testing.T) {
		router := setupTestRouterWithService(newMockFeedsClient(), nil)

		w := doJSON(router, "GET", "/api/v1/runs/unknown", "")

		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("returns 404 for unknown run", func(t *testing.T) {
		router := setupTestRouterWithService(newMockFeedsClient(), &mockLedger{})

		w := doJSON(router, "GET", "/api/v1/runs/unknown", "")

		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

// TestCORSIntegration tests CORS headers work end-to-end with full router
func TestCORSIntegration(t *testing.T) {
	t.Run("health endpoint has CORS for the operator console", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "https://ops.parentrebuild.dev")
		w := httptest.NewRecorder()

		setupTestRouter().ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://ops.parentrebuild.dev" {
			t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "https://ops.parentrebuild.dev")
		}
		if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
			t.Errorf("Access-Control-Allow-Credentials = %q, want %q", got, "true")
		}
		if w.Header().Get(RequestIDHeader) == "" {
			t.Error("expected a request ID header")
		}
	})
}

// TestRecoveryMiddleware tests panic recovery
func TestRecoveryMiddleware(t *testing.T) {
	router := setupTestRouter()
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := doJSON(router, "GET", "/panic", "")

	// Gin's default recovery returns 500
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

// TestAPIVersioning tests that non-versioned routes are not served
func TestAPIVersioning(t *testing.T) {
	router := setupTestRouter()

	for _, path := range []string{"/api/rebuild/preview", "/rebuild/preview", "/api/v1/rebuild"} {
		w := doJSON(router, "POST", path, "")
		if w.Code != http.StatusNotFound {
			t.Errorf("Path %s: Status = %d, want %d", path, w.Code, http.StatusNotFound)
		}
	}
}
