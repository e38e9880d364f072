package domain

import "time"

// Variation is a parsed variation descriptor such as "0-3M White Short Sleeve"
type Variation struct {
	Descriptor string `json:"descriptor"`
	Size       string `json:"size"`
	Color      string `json:"color"`
	Sleeve     string `json:"sleeve,omitempty"`
}

// ListingContent is the copy shared by a parent and all of its children
type ListingContent struct {
	Keywords        []string `json:"keywords"`
	Description     string   `json:"description"`
	Bullets         []string `json:"bullets"`
	GenericKeywords string   `json:"genericKeywords"`
}

// RebuildRequest describes one rebuild run as entered by the operator
type RebuildRequest struct {
	ParentSKUs       []string `json:"parentSkus" binding:"required"`
	Variations       []string `json:"variations,omitempty"`
	ExistingChildren []string `json:"existingChildren,omitempty"`
	IncludeParent    *bool    `json:"includeParent,omitempty"`
	InjectKeywords   *bool    `json:"injectKeywords,omitempty"`
	SkipInventory    bool     `json:"skipInventory,omitempty"`
	Swatches         string   `json:"swatches,omitempty"`
}

// RebuildPlan holds the batches derived from a request, in phase order
type RebuildPlan struct {
	Delete        Batch    `json:"delete"`
	Create        Batch    `json:"create"`
	Parent        *Batch   `json:"parent,omitempty"`
	InventorySKUs []string `json:"inventorySkus"`
	SkipInventory bool     `json:"skipInventory,omitempty"`
}

// PhaseReport is the outcome of one submitted phase
type PhaseReport struct {
	Phase        Phase            `json:"phase"`
	FeedID       string           `json:"feedId,omitempty"`
	MessageCount int              `json:"messageCount"`
	Status       ProcessingStatus `json:"status,omitempty"`
	Elapsed      time.Duration    `json:"elapsed"`
	Report       *Report          `json:"report,omitempty"`
	Error        string           `json:"error,omitempty"`
}

// RunReport is the outcome of a full rebuild run
type RunReport struct {
	RunID      string        `json:"runId"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	Phases     []PhaseReport `json:"phases"`
	Completed  bool          `json:"completed"`
}

// FeedSubmission is a ledger record of one phase submission
type FeedSubmission struct {
	ID               string           `json:"id"`
	RunID            string           `json:"runId"`
	Phase            Phase            `json:"phase"`
	FeedID           string           `json:"feedId"`
	FeedType         string           `json:"feedType"`
	MessageCount     int              `json:"messageCount"`
	Status           ProcessingStatus `json:"status"`
	ElapsedMillis    int64            `json:"elapsedMillis"`
	ResultDocumentID string           `json:"resultDocumentId,omitempty"`
	Error            string           `json:"error,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// PhaseEvent is published after each phase finishes
type PhaseEvent struct {
	RunID     string           `json:"runId"`
	Phase     Phase            `json:"phase"`
	FeedID    string           `json:"feedId,omitempty"`
	Status    ProcessingStatus `json:"status,omitempty"`
	Elapsed   time.Duration    `json:"elapsed"`
	Error     string           `json:"error,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}
