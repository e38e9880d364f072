package domain

import "time"

// OperationType is the operation a listings feed message performs
type OperationType string

const (
	OperationDelete OperationType = "DELETE"
	OperationUpdate OperationType = "UPDATE"
	OperationPatch  OperationType = "PATCH"
)

// Feed types understood by the Feeds API
const (
	FeedTypeJSONListings          = "JSON_LISTINGS_FEED"
	FeedTypeFlatFileListings      = "POST_FLAT_FILE_LISTINGS_DATA"
	FeedTypeInventoryAvailability = "POST_INVENTORY_AVAILABILITY_DATA"
)

// Content types used for feed documents
const (
	ContentTypeJSON = "application/json; charset=UTF-8"
	ContentTypeTSV  = "text/tab-separated-values; charset=UTF-8"
)

// RequirementsListing asks Amazon to validate a full listing on UPDATE
const RequirementsListing = "LISTING"

// ListingsFeedVersion is the JSON_LISTINGS_FEED header version
const ListingsFeedVersion = "2.0"

// Instance is one attribute instance, e.g. {"value": "Acme", "marketplace_id": "..."}
type Instance map[string]any

// AttributeSet maps attribute names to their instances. Every attribute is a list,
// even when it holds a single value.
type AttributeSet map[string][]Instance

// Patch is a single JSON patch operation of a PATCH message
type Patch struct {
	Op    string       `json:"op"`
	Path  string       `json:"path"`
	Value []PatchValue `json:"value"`
}

// PatchValue wraps the attribute set inside a patch value array
type PatchValue struct {
	Attributes AttributeSet `json:"attributes"`
}

// Message is a single listings feed message.
// MessageID is provisional until the batch is submitted.
type Message struct {
	MessageID     int           `json:"messageId"`
	SKU           string        `json:"sku"`
	OperationType OperationType `json:"operationType"`
	ProductType   string        `json:"productType"`
	Requirements  string        `json:"requirements,omitempty"`
	Attributes    AttributeSet  `json:"attributes,omitempty"`
	Patches       []Patch       `json:"patches,omitempty"`
}

// Phase identifies a step of a rebuild run
type Phase string

const (
	PhaseDelete    Phase = "DELETE"
	PhaseCreate    Phase = "CREATE"
	PhaseParent    Phase = "PARENT"
	PhaseInventory Phase = "INVENTORY"
)

// Batch is an ordered set of messages submitted together as one feed document
type Batch struct {
	Label     string        `json:"label"`
	Phase     Phase         `json:"phase"`
	Operation OperationType `json:"operation"`
	Messages  []Message     `json:"messages"`
}

// SKUs returns the message SKUs in batch order
func (b *Batch) SKUs() []string {
	skus := make([]string, 0, len(b.Messages))
	for _, m := range b.Messages {
		skus = append(skus, m.SKU)
	}
	return skus
}

// FeedHeader is the header of a JSON_LISTINGS_FEED document
type FeedHeader struct {
	SellerID    string `json:"sellerId"`
	Version     string `json:"version"`
	IssueLocale string `json:"issueLocale"`
}

// ListingsFeedDocument is the serialized body uploaded for a listings batch
type ListingsFeedDocument struct {
	Header   FeedHeader `json:"header"`
	Messages []Message  `json:"messages"`
}

// ProcessingStatus is the processing state of a feed
type ProcessingStatus string

const (
	StatusSubmitted  ProcessingStatus = "SUBMITTED"
	StatusInQueue    ProcessingStatus = "IN_QUEUE"
	StatusInProgress ProcessingStatus = "IN_PROGRESS"
	StatusDone       ProcessingStatus = "DONE"
	StatusFatal      ProcessingStatus = "FATAL"
	StatusCancelled  ProcessingStatus = "CANCELLED"

	// StatusTimeout is local only: polling gave up before a terminal status
	StatusTimeout ProcessingStatus = "TIMEOUT"
)

// IsTerminal reports whether Amazon will not move the feed to another status
func (s ProcessingStatus) IsTerminal() bool {
	switch s {
	case StatusDone, StatusFatal, StatusCancelled:
		return true
	}
	return false
}

// FeedDocumentUpload is the response of createFeedDocument
type FeedDocumentUpload struct {
	FeedDocumentID string `json:"feedDocumentId"`
	URL            string `json:"url"`
}

// Feed is the response of getFeed
type Feed struct {
	FeedID               string           `json:"feedId"`
	FeedType             string           `json:"feedType"`
	MarketplaceIDs       []string         `json:"marketplaceIds,omitempty"`
	CreatedTime          string           `json:"createdTime,omitempty"`
	ProcessingStatus     ProcessingStatus `json:"processingStatus"`
	ProcessingStartTime  string           `json:"processingStartTime,omitempty"`
	ProcessingEndTime    string           `json:"processingEndTime,omitempty"`
	ResultFeedDocumentID string           `json:"resultFeedDocumentId,omitempty"`
	Raw                  []byte           `json:"-"`
}

// FeedDocument is the response of getFeedDocument
type FeedDocument struct {
	FeedDocumentID       string `json:"feedDocumentId"`
	URL                  string `json:"url"`
	CompressionAlgorithm string `json:"compressionAlgorithm,omitempty"`
}

// PollResult is the outcome of polling a feed to a terminal status or timeout
type PollResult struct {
	FeedID  string           `json:"feedId"`
	Status  ProcessingStatus `json:"status"`
	Feed    *Feed            `json:"feed,omitempty"`
	Elapsed time.Duration    `json:"elapsed"`
	Polls   int              `json:"polls"`
}

// Report is a processing report; Available is false when Amazon produced none
type Report struct {
	FeedID     string `json:"feedId"`
	DocumentID string `json:"documentId,omitempty"`
	Available  bool   `json:"available"`
	Body       string `json:"body,omitempty"`
}
