package usecase

import (
	"fmt"
	"strings"

	"github.com/parentrebuild/backend/internal/domain"
)

const (
	// BulletCount is the number of bullet points on every listing
	BulletCount = 5

	// GenericKeywordCap limits how many keywords go into generic_keyword
	GenericKeywordCap = 6

	// descriptionKeywordCap limits the keywords echoed into the description
	descriptionKeywordCap = 3
)

// bulletTemplates are per-position bullet phrasings; %s is the keyword
var bulletTemplates = [BulletCount]string{
	"🎨 Premium DTG print featuring '%s'.",
	"🎖️ Veteran-Owned, support small while rocking '%s'.",
	"👶 Comfy 100%% cotton, '%s' design they'll love.",
	"🎁 Perfect gift, cute '%s' theme.",
	"📏 Sizes & colors available for '%s', see chart.",
}

// DefaultBaseBullets are used when no keyword is available for a position
var DefaultBaseBullets = []string{
	"🎨 High-Quality Ink Printing: Vibrant, long-lasting direct-to-garment print.",
	"🎖️ Proudly Veteran-Owned small business.",
	"👶 Soft 100% cotton, comfy with easy snap closure.",
	"🎁 Great baby shower gift for boys or girls.",
	"📏 Multiple sizes/colors available; check size guide.",
}

// DefaultBaseDescription is the description before keyword injection
const DefaultBaseDescription = "Soft 100% cotton baby bodysuit with snap closure and comfy fit."

// ContentInjector fills description, bullets and generic keywords from title keywords
type ContentInjector struct {
	baseDescription string
	baseBullets     []string
}

// NewContentInjector creates an injector with the operator's base copy
func NewContentInjector(baseDescription string, baseBullets []string) *ContentInjector {
	return &ContentInjector{
		baseDescription: baseDescription,
		baseBullets:     baseBullets,
	}
}

// Build computes the shared listing copy. With injection disabled the keywords are
// ignored and the base copy is returned.
func (c *ContentInjector) Build(keywords []string, injectionEnabled bool) domain.ListingContent {
	if !injectionEnabled {
		keywords = nil
	}
	kept := make([]string, len(keywords))
	copy(kept, keywords)

	return domain.ListingContent{
		Keywords:        kept,
		Description:     InjectedDescription(c.baseDescription, keywords),
		Bullets:         InjectedBullets(keywords, c.baseBullets),
		GenericKeywords: InjectedGenericKeywords(keywords),
	}
}

// InjectedDescription appends a keyword echo to the description.
// The base is returned unchanged when there are no keywords, and is otherwise a prefix of the result.
func InjectedDescription(base string, keywords []string) string {
	if len(keywords) == 0 {
		return base
	}
	echo := fmt.Sprintf("Design theme: %s.", strings.Join(firstN(keywords, descriptionKeywordCap), ", "))
	if base == "" {
		return echo
	}
	return base + " " + echo
}

// InjectedBullets returns exactly BulletCount bullets. Position i uses template i with
// keyword i, then the base bullet at i, then an empty string.
func InjectedBullets(keywords, base []string) []string {
	bullets := make([]string, BulletCount)
	for i := 0; i < BulletCount; i++ {
		switch {
		case i < len(keywords):
			bullets[i] = fmt.Sprintf(bulletTemplates[i], keywords[i])
		case i < len(base):
			bullets[i] = base[i]
		default:
			bullets[i] = ""
		}
	}
	return bullets
}

// InjectedGenericKeywords comma-joins the first GenericKeywordCap keywords.
// No keywords means an empty string, never a default phrase.
func InjectedGenericKeywords(keywords []string) string {
	return strings.Join(firstN(keywords, GenericKeywordCap), ", ")
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
