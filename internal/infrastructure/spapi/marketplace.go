package spapi

import (
	"sort"
	"strings"
)

// Marketplace describes an Amazon marketplace and its SP-API region
type Marketplace struct {
	Code          string
	Country       string
	MarketplaceID string
	Currency      string
	LanguageTag   string
	Endpoint      string
}

const (
	endpointNA = "https://sellingpartnerapi-na.amazon.com"
	endpointEU = "https://sellingpartnerapi-eu.amazon.com"
	endpointFE = "https://sellingpartnerapi-fe.amazon.com"
)

var marketplaces = map[string]Marketplace{
	"US": {Code: "US", Country: "United States", MarketplaceID: "ATVPDKIKX0DER", Currency: "USD", LanguageTag: "en_US", Endpoint: endpointNA},
	"CA": {Code: "CA", Country: "Canada", MarketplaceID: "A2EUQ1WTGCTBG2", Currency: "CAD", LanguageTag: "en_CA", Endpoint: endpointNA},
	"MX": {Code: "MX", Country: "Mexico", MarketplaceID: "A1AM78C64UM0Y8", Currency: "MXN", LanguageTag: "es_MX", Endpoint: endpointNA},
	"BR": {Code: "BR", Country: "Brazil", MarketplaceID: "A2Q3Y263D00KWC", Currency: "BRL", LanguageTag: "pt_BR", Endpoint: endpointNA},
	"GB": {Code: "GB", Country: "United Kingdom", MarketplaceID: "A1F83G8C2ARO7P", Currency: "GBP", LanguageTag: "en_GB", Endpoint: endpointEU},
	"DE": {Code: "DE", Country: "Germany", MarketplaceID: "A1PA6795UKMFR9", Currency: "EUR", LanguageTag: "de_DE", Endpoint: endpointEU},
	"FR": {Code: "FR", Country: "France", MarketplaceID: "A13V1IB3VIYZZH", Currency: "EUR", LanguageTag: "fr_FR", Endpoint: endpointEU},
	"ES": {Code: "ES", Country: "Spain", MarketplaceID: "A1RKKUPIHCS9HS", Currency: "EUR", LanguageTag: "es_ES", Endpoint: endpointEU},
	"IT": {Code: "IT", Country: "Italy", MarketplaceID: "APJ6JRA9NG5V4", Currency: "EUR", LanguageTag: "it_IT", Endpoint: endpointEU},
	"IN": {Code: "IN", Country: "India", MarketplaceID: "A21TJRUUN4KGV", Currency: "INR", LanguageTag: "en_IN", Endpoint: endpointEU},
	"AE": {Code: "AE", Country: "United Arab Emirates", MarketplaceID: "A2VIGQ35RCS4UG", Currency: "AED", LanguageTag: "en_AE", Endpoint: endpointEU},
	"JP": {Code: "JP", Country: "Japan", MarketplaceID: "A1VC38T7YXB528", Currency: "JPY", LanguageTag: "ja_JP", Endpoint: endpointFE},
	"AU": {Code: "AU", Country: "Australia", MarketplaceID: "A39IBJ37TRP1C6", Currency: "AUD", LanguageTag: "en_AU", Endpoint: endpointFE},
	"SG": {Code: "SG", Country: "Singapore", MarketplaceID: "A19VAU5U5O7RUS", Currency: "SGD", LanguageTag: "en_SG", Endpoint: endpointFE},
}

// marketplaceAliases maps common names to canonical codes
var marketplaceAliases = map[string]string{
	"UK": "GB",
}

// MarketplaceFor resolves a marketplace code. Unknown codes fall back to US.
func MarketplaceFor(code string) Marketplace {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if canonical, ok := marketplaceAliases[normalized]; ok {
		normalized = canonical
	}
	if m, ok := marketplaces[normalized]; ok {
		return m
	}
	return marketplaces["US"]
}

// IsKnownMarketplace reports whether code resolves without falling back
func IsKnownMarketplace(code string) bool {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if canonical, ok := marketplaceAliases[normalized]; ok {
		normalized = canonical
	}
	_, ok := marketplaces[normalized]
	return ok
}

// MarketplaceCodes returns the supported codes in sorted order
func MarketplaceCodes() []string {
	codes := make([]string, 0, len(marketplaces))
	for code := range marketplaces {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
