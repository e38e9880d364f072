package usecase

import (
	"log"
	"regexp"
	"strings"
)

// TitleDelimiter separates the descriptive head of a title from its marketing tail
const TitleDelimiter = " - "

// DefaultStopWords are brand and category terms that are never useful as keywords
var DefaultStopWords = []string{"NOFO", "VIBES", "BODYSUIT", "ONESIE"}

// keywordTokenRegex matches alphanumeric runs; apostrophes stay inside tokens
var keywordTokenRegex = regexp.MustCompile(`[A-Za-z0-9']+`)

// KeywordExtractor derives descriptive keywords from the head of a product title
type KeywordExtractor struct {
	stopWords          map[string]bool
	enableDebugLogging bool
}

// NewKeywordExtractor creates an extractor with the given stop words.
// Stop words are compared case-insensitively; nil means DefaultStopWords.
func NewKeywordExtractor(stopWords []string, enableDebugLogging bool) *KeywordExtractor {
	if stopWords == nil {
		stopWords = DefaultStopWords
	}
	set := make(map[string]bool, len(stopWords))
	for _, w := range stopWords {
		if w = strings.TrimSpace(w); w != "" {
			set[strings.ToUpper(w)] = true
		}
	}
	return &KeywordExtractor{
		stopWords:          set,
		enableDebugLogging: enableDebugLogging,
	}
}

// Extract returns the keywords found before the first title delimiter.
// Titles without the delimiter yield no keywords; the whole title is never used.
func (e *KeywordExtractor) Extract(title string) []string {
	idx := strings.Index(title, TitleDelimiter)
	if idx < 0 {
		return []string{}
	}
	head := title[:idx]

	seen := make(map[string]bool)
	keywords := []string{}
	for _, token := range keywordTokenRegex.FindAllString(head, -1) {
		if token == "" || e.stopWords[strings.ToUpper(token)] {
			continue
		}
		key := strings.ToLower(token)
		if seen[key] {
			continue
		}
		seen[key] = true
		keywords = append(keywords, token)
	}

	if e.enableDebugLogging {
		log.Printf("[KEYWORDS] %q -> %v", title, keywords)
	}
	return keywords
}

// IsStopWord reports whether word is in the configured stop-word set
func (e *KeywordExtractor) IsStopWord(word string) bool {
	return e.stopWords[strings.ToUpper(strings.TrimSpace(word))]
}
