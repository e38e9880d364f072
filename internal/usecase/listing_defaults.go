package usecase

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Schema selects the wire format used for listing updates
type Schema string

const (
	// SchemaUpdate sends attributes flat on an UPDATE message
	SchemaUpdate Schema = "update"

	// SchemaPatch sends attributes inside a single replace patch
	SchemaPatch Schema = "patch"
)

// PackageDimensions describes the shipping package of one unit
type PackageDimensions struct {
	Length        float64
	Width         float64
	Height        float64
	DimensionUnit string
	Weight        float64
	WeightUnit    string
}

// ListingDefaults is the immutable operator configuration shared by all builders
type ListingDefaults struct {
	Brand           string
	ProductType     string
	ItemTypeKeyword string
	VariationTheme  string
	TitleTail       string

	MarketplaceID string
	LanguageTag   string
	Currency      string

	MainImageURL     string
	CountryOfOrigin  string
	FabricType       string
	CareInstructions string
	Department       string
	Package          PackageDimensions

	Quantity        int
	HandlingLatency int

	InjectKeywords      bool
	IncludeParentUpdate bool
	ParentSchema        Schema

	StopWords       []string
	Variations      []string
	BaseDescription string
	BaseBullets     []string

	Prices   PriceTable
	Swatches SwatchMap
}

// DefaultVariations is the fixed variation matrix
var DefaultVariations = []string{
	"NB White Short Sleeve",
	"0-3M White Short Sleeve",
	"3-6M White Short Sleeve",
	"6-9M White Short Sleeve",
	"12M White Short Sleeve",
	"18M White Short Sleeve",
	"24M White Short Sleeve",
	"NB Natural Short Sleeve",
	"0-3M Natural Short Sleeve",
	"3-6M Natural Short Sleeve",
	"6-9M Natural Short Sleeve",
	"12M Natural Short Sleeve",
	"18M Natural Short Sleeve",
	"24M Natural Short Sleeve",
	"NB Pink Short Sleeve",
	"0-3M Pink Short Sleeve",
	"3-6M Pink Short Sleeve",
	"6-9M Pink Short Sleeve",
	"12M Pink Short Sleeve",
	"18M Pink Short Sleeve",
	"24M Pink Short Sleeve",
	"NB White Long Sleeve",
	"0-3M White Long Sleeve",
	"3-6M White Long Sleeve",
	"6-9M White Long Sleeve",
	"12M White Long Sleeve",
}

// PriceTable maps variation descriptors to list prices, with a fallback price.
// Descriptors are matched case-insensitively with collapsed whitespace.
type PriceTable struct {
	prices   map[string]decimal.Decimal
	fallback decimal.Decimal
}

// NewPriceTable parses a descriptor→price map and a fallback price
func NewPriceTable(prices map[string]string, fallback string) (PriceTable, error) {
	fb, err := decimal.NewFromString(strings.TrimSpace(fallback))
	if err != nil {
		return PriceTable{}, fmt.Errorf("invalid default price %q: %w", fallback, err)
	}
	table := PriceTable{
		prices:   make(map[string]decimal.Decimal, len(prices)),
		fallback: fb,
	}
	for descriptor, raw := range prices {
		price, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return PriceTable{}, fmt.Errorf("invalid price %q for %q: %w", raw, descriptor, err)
		}
		table.prices[priceKey(descriptor)] = price
	}
	return table, nil
}

// Price returns the list price for a descriptor, or the fallback
func (t PriceTable) Price(descriptor string) decimal.Decimal {
	if price, ok := t.prices[priceKey(descriptor)]; ok {
		return price
	}
	return t.fallback
}

// Fallback returns the default price
func (t PriceTable) Fallback() decimal.Decimal {
	return t.fallback
}

func priceKey(descriptor string) string {
	return strings.ToLower(strings.Join(strings.Fields(descriptor), " "))
}

// SwatchMap maps color names to swatch image URLs (case-insensitive)
type SwatchMap map[string]string

// NewSwatchMap normalizes keys of a color→URL map
func NewSwatchMap(entries map[string]string) SwatchMap {
	m := make(SwatchMap, len(entries))
	for color, url := range entries {
		if color = strings.TrimSpace(color); color != "" {
			m[strings.ToLower(color)] = strings.TrimSpace(url)
		}
	}
	return m
}

// ParseSwatches parses "Color,URL" lines. Blank lines and lines without a comma are skipped.
func ParseSwatches(text string) SwatchMap {
	m := SwatchMap{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, ",") {
			continue
		}
		color, url, _ := strings.Cut(line, ",")
		if color = strings.TrimSpace(color); color != "" {
			m[strings.ToLower(color)] = strings.TrimSpace(url)
		}
	}
	return m
}

// URL returns the swatch URL for a color, or "" when unknown
func (m SwatchMap) URL(color string) string {
	return m[strings.ToLower(strings.TrimSpace(color))]
}

// Merge returns a new map with other's entries taking precedence
func (m SwatchMap) Merge(other SwatchMap) SwatchMap {
	merged := make(SwatchMap, len(m)+len(other))
	for k, v := range m {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}
