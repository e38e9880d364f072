package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/parentrebuild/backend/internal/domain"
)

var inventoryHeader = []string{"sku", "quantity", "fulfillment_latency"}

// InventoryFeedBuilder renders the tab-separated inventory availability feed
type InventoryFeedBuilder struct {
	quantity        int
	handlingLatency int
}

// NewInventoryFeedBuilder creates a builder applying one quantity and latency to every SKU
func NewInventoryFeedBuilder(quantity, handlingLatency int) *InventoryFeedBuilder {
	return &InventoryFeedBuilder{quantity: quantity, handlingLatency: handlingLatency}
}

// Build renders one row per SKU in input order, with LF line endings. Fields are
// written verbatim; a SKU containing a tab or line break is rejected.
func (b *InventoryFeedBuilder) Build(skus []string) ([]byte, error) {
	var buf bytes.Buffer
	writeRow(&buf, inventoryHeader...)

	qty := strconv.Itoa(b.quantity)
	latency := strconv.Itoa(b.handlingLatency)
	for _, sku := range skus {
		if strings.ContainsAny(sku, "\t\r\n") {
			return nil, fmt.Errorf("%w: inventory SKU %q contains a tab or line break", domain.ErrInvalidRequest, sku)
		}
		writeRow(&buf, sku, qty, latency)
	}
	return buf.Bytes(), nil
}

func writeRow(buf *bytes.Buffer, fields ...string) {
	buf.WriteString(strings.Join(fields, "\t"))
	buf.WriteByte('\n')
}

// Submit renders the feed and submits it as an inventory availability feed
func (b *InventoryFeedBuilder) Submit(ctx context.Context, engine *FeedEngine, skus []string) (string, error) {
	if len(skus) == 0 {
		return "", fmt.Errorf("%w: no SKUs for inventory feed", domain.ErrInvalidRequest)
	}
	body, err := b.Build(skus)
	if err != nil {
		return "", err
	}
	log.Printf("[FEED] Submitting inventory feed: %d SKUs, quantity %d, latency %d", len(skus), b.quantity, b.handlingLatency)
	return engine.SubmitDocument(ctx, domain.FeedTypeInventoryAvailability, domain.ContentTypeTSV, body)
}
