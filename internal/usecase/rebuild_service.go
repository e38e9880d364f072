package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/parentrebuild/backend/internal/domain"
)

// Batch labels used in validation problems and logs
const (
	LabelDelete = "DELETE children"
	LabelCreate = "CREATE children"
	LabelParent = "PARENT update"
)

// RebuildService plans a rebuild run and drives its phases in order:
// DELETE, CREATE, PARENT, then INVENTORY. Each phase must reach a terminal
// status before the next one is submitted.
type RebuildService struct {
	defaults  ListingDefaults
	extractor *KeywordExtractor
	builder   *AttributeBuilder
	validator *MessageValidator
	engine    *FeedEngine
	inventory *InventoryFeedBuilder
	ledger    domain.SubmissionLedger
	events    domain.EventPublisher
}

// NewRebuildService creates a rebuild service. ledger and events may be nil.
func NewRebuildService(
	defaults ListingDefaults,
	engine *FeedEngine,
	ledger domain.SubmissionLedger,
	events domain.EventPublisher,
	enableDebugLogging bool,
) *RebuildService {
	return &RebuildService{
		defaults:  defaults,
		extractor: NewKeywordExtractor(defaults.StopWords, enableDebugLogging),
		builder:   NewAttributeBuilder(defaults),
		validator: NewMessageValidator(),
		engine:    engine,
		inventory: NewInventoryFeedBuilder(defaults.Quantity, defaults.HandlingLatency),
		ledger:    ledger,
		events:    events,
	}
}

// Plan derives all batches for a request. It performs no network calls and is
// deterministic: the same request always yields the same plan.
func (s *RebuildService) Plan(req *domain.RebuildRequest) (*domain.RebuildPlan, error) {
	if req == nil {
		return nil, domain.ErrInvalidRequest
	}
	parents := cleanList(req.ParentSKUs)
	if len(parents) == 0 {
		return nil, fmt.Errorf("%w: at least one parent SKU is required", domain.ErrInvalidRequest)
	}

	variations := cleanList(req.Variations)
	if len(variations) == 0 {
		variations = s.defaults.Variations
	}
	if len(variations) == 0 {
		return nil, fmt.Errorf("%w: no variations configured", domain.ErrInvalidRequest)
	}

	inject := s.defaults.InjectKeywords
	if req.InjectKeywords != nil {
		inject = *req.InjectKeywords
	}
	includeParent := s.defaults.IncludeParentUpdate
	if req.IncludeParent != nil {
		includeParent = *req.IncludeParent
	}
	swatches := s.defaults.Swatches
	if strings.TrimSpace(req.Swatches) != "" {
		swatches = swatches.Merge(ParseSwatches(req.Swatches))
	}

	injector := NewContentInjector(s.defaults.BaseDescription, s.defaults.BaseBullets)
	parentSchema := s.defaults.ParentSchema
	plan := &domain.RebuildPlan{
		Delete:        domain.Batch{Label: LabelDelete, Phase: domain.PhaseDelete, Operation: domain.OperationDelete},
		Create:        domain.Batch{Label: LabelCreate, Phase: domain.PhaseCreate, Operation: domain.OperationUpdate},
		SkipInventory: req.SkipInventory,
	}
	var parentBatch *domain.Batch
	if includeParent {
		parentBatch = &domain.Batch{Label: LabelParent, Phase: domain.PhaseParent, Operation: OperationFor(parentSchema)}
	}

	var deleteTargets []string
	for _, parentSKU := range parents {
		base := ParentBase(parentSKU)
		parentTitle := ParentTitle(base, s.defaults.TitleTail)
		content := injector.Build(s.extractor.Extract(parentTitle), inject)

		for _, descriptor := range variations {
			v := ParseVariation(descriptor)
			sku := ChildSKU(parentSKU, v)
			attrs := s.builder.ChildAttributes(ChildInput{
				ParentSKU: parentSKU,
				Title:     ChildTitle(base, v.Descriptor, s.defaults.TitleTail),
				Variation: v,
				Content:   content,
				Price:     s.defaults.Prices.Price(v.Descriptor),
				SwatchURL: swatches.URL(v.Color),
			})
			plan.Create.Messages = append(plan.Create.Messages, s.builder.UpdateMessage(sku, attrs))
			plan.InventorySKUs = append(plan.InventorySKUs, sku)
			deleteTargets = append(deleteTargets, sku)
		}

		if parentBatch != nil {
			attrs := s.builder.ParentAttributes(ParentInput{Title: parentTitle, Content: content})
			parentBatch.Messages = append(parentBatch.Messages, s.builder.Wrap(parentSchema, parentSKU, attrs))
		}
	}

	if explicit := cleanList(req.ExistingChildren); len(explicit) > 0 {
		deleteTargets = explicit
	}
	for _, sku := range dedupe(deleteTargets) {
		plan.Delete.Messages = append(plan.Delete.Messages, s.builder.DeleteMessage(sku))
	}

	RenumberMessages(plan.Delete.Messages)
	RenumberMessages(plan.Create.Messages)
	if parentBatch != nil {
		RenumberMessages(parentBatch.Messages)
		plan.Parent = parentBatch
	}
	return plan, nil
}

// Validate checks every batch of a plan and returns all problems found
func (s *RebuildService) Validate(plan *domain.RebuildPlan) []string {
	problems := []string{}
	for _, batch := range planBatches(plan) {
		problems = append(problems, s.validator.Validate(*batch)...)
	}
	return problems
}

// Preview plans and validates a request without submitting anything
func (s *RebuildService) Preview(req *domain.RebuildRequest) (*domain.RebuildPlan, []string, error) {
	plan, err := s.Plan(req)
	if err != nil {
		return nil, nil, err
	}
	return plan, s.Validate(plan), nil
}

// Run plans, validates and submits a request phase by phase
func (s *RebuildService) Run(ctx context.Context, req *domain.RebuildRequest) (*domain.RunReport, error) {
	plan, err := s.Plan(req)
	if err != nil {
		return nil, err
	}
	return s.RunPlan(ctx, plan)
}

// RunPlan submits an already built plan. Validation problems block every submission.
// The returned report covers the phases attempted so far, also on error.
func (s *RebuildService) RunPlan(ctx context.Context, plan *domain.RebuildPlan) (*domain.RunReport, error) {
	if problems := s.Validate(plan); len(problems) > 0 {
		return nil, &domain.ValidationError{Problems: problems}
	}

	report := &domain.RunReport{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}
	log.Printf("[REBUILD] Run %s started: %d deletes, %d creates", report.RunID, len(plan.Delete.Messages), len(plan.Create.Messages))

	for _, batch := range planBatches(plan) {
		b := batch
		if err := s.runPhase(ctx, report, b.Phase, domain.FeedTypeJSONListings, len(b.Messages), func() (string, error) {
			return s.engine.SubmitListings(ctx, b)
		}); err != nil {
			return s.finish(report, false), err
		}
	}

	if !plan.SkipInventory && len(plan.InventorySKUs) > 0 {
		if err := s.runPhase(ctx, report, domain.PhaseInventory, domain.FeedTypeInventoryAvailability, len(plan.InventorySKUs), func() (string, error) {
			return s.inventory.Submit(ctx, s.engine, plan.InventorySKUs)
		}); err != nil {
			return s.finish(report, false), err
		}
	}

	return s.finish(report, true), nil
}

// runPhase submits one phase, polls it to a terminal status and fetches its report.
// Any outcome other than DONE stops the run.
func (s *RebuildService) runPhase(
	ctx context.Context,
	report *domain.RunReport,
	phase domain.Phase,
	feedType string,
	count int,
	submit func() (string, error),
) error {
	start := time.Now()
	pr := domain.PhaseReport{Phase: phase, MessageCount: count}

	phaseErr := func() error {
		feedID, err := submit()
		if err != nil {
			return err
		}
		pr.FeedID = feedID

		result, err := s.engine.Poll(ctx, feedID)
		if err != nil {
			return err
		}
		pr.Status = result.Status

		if result.Status.IsTerminal() {
			rep, err := s.engine.FetchReport(ctx, result.Feed)
			if err != nil {
				return err
			}
			pr.Report = rep
		}
		if result.Status != domain.StatusDone {
			return fmt.Errorf("%w: %s feed %s ended %s", domain.ErrPhaseFailed, phase, feedID, result.Status)
		}
		return nil
	}()

	pr.Elapsed = time.Since(start)
	if phaseErr != nil {
		pr.Error = phaseErr.Error()
		log.Printf("[REBUILD] Run %s phase %s failed: %v", report.RunID, phase, phaseErr)
	} else {
		log.Printf("[REBUILD] Run %s phase %s done: feed %s in %s", report.RunID, phase, pr.FeedID, pr.Elapsed.Round(time.Second))
	}
	report.Phases = append(report.Phases, pr)

	s.record(ctx, report.RunID, feedType, pr)
	s.publish(ctx, report.RunID, pr)
	return phaseErr
}

func (s *RebuildService) record(ctx context.Context, runID, feedType string, pr domain.PhaseReport) {
	if s.ledger == nil {
		return
	}
	sub := &domain.FeedSubmission{
		RunID:         runID,
		Phase:         pr.Phase,
		FeedID:        pr.FeedID,
		FeedType:      feedType,
		MessageCount:  pr.MessageCount,
		Status:        pr.Status,
		ElapsedMillis: pr.Elapsed.Milliseconds(),
		Error:         pr.Error,
	}
	if pr.Report != nil {
		sub.ResultDocumentID = pr.Report.DocumentID
	}
	// Ledger failures never fail a phase
	if err := s.ledger.Record(ctx, sub); err != nil {
		log.Printf("[REBUILD] Failed to record %s submission for run %s: %v", pr.Phase, runID, err)
	}
}

func (s *RebuildService) publish(ctx context.Context, runID string, pr domain.PhaseReport) {
	if s.events == nil {
		return
	}
	event := domain.PhaseEvent{
		RunID:     runID,
		Phase:     pr.Phase,
		FeedID:    pr.FeedID,
		Status:    pr.Status,
		Elapsed:   pr.Elapsed,
		Error:     pr.Error,
		Timestamp: time.Now().UTC(),
	}
	if err := s.events.PublishPhase(ctx, event); err != nil {
		log.Printf("[REBUILD] Failed to publish %s event for run %s: %v", pr.Phase, runID, err)
	}
}

func (s *RebuildService) finish(report *domain.RunReport, completed bool) *domain.RunReport {
	report.FinishedAt = time.Now().UTC()
	report.Completed = completed
	return report
}

// RunHistory returns the recorded submissions of a run
func (s *RebuildService) RunHistory(ctx context.Context, runID string) ([]domain.FeedSubmission, error) {
	if strings.TrimSpace(runID) == "" {
		return nil, domain.ErrInvalidRequest
	}
	if s.ledger == nil {
		return nil, domain.ErrNotFound
	}
	subs, err := s.ledger.ListRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, domain.ErrNotFound
	}
	return subs, nil
}

// InventoryPreview renders the inventory feed body without submitting it
func (s *RebuildService) InventoryPreview(skus []string) ([]byte, error) {
	skus = cleanList(skus)
	if len(skus) == 0 {
		return nil, fmt.Errorf("%w: at least one SKU is required", domain.ErrInvalidRequest)
	}
	return s.inventory.Build(skus)
}

// FeedStatus fetches any feed's status by ID
func (s *RebuildService) FeedStatus(ctx context.Context, feedID string) (*domain.Feed, error) {
	return s.engine.Status(ctx, feedID)
}

// FeedReport fetches any feed's processing report by ID
func (s *RebuildService) FeedReport(ctx context.Context, feedID string) (*domain.Report, error) {
	return s.engine.Report(ctx, feedID)
}

// IsTransportError reports whether err came from the remote Feeds API
func IsTransportError(err error) bool {
	return errors.Is(err, domain.ErrFeedAPIFailure) ||
		errors.Is(err, domain.ErrUploadFailed) ||
		errors.Is(err, domain.ErrAuthFailure)
}

// planBatches returns the listing batches of a plan in submission order
func planBatches(plan *domain.RebuildPlan) []*domain.Batch {
	batches := []*domain.Batch{&plan.Delete, &plan.Create}
	if plan.Parent != nil {
		batches = append(batches, plan.Parent)
	}
	return batches
}

// cleanList trims entries and drops blanks
func cleanList(items []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// dedupe removes repeats, keeping the first occurrence
func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}
