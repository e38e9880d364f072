package usecase

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/parentrebuild/backend/internal/domain"
)

// Sleeve codes
const (
	SleeveCodeLong  = "LS"
	SleeveCodeShort = "SS"
)

// Fallback code lengths for values missing from the code tables
const (
	sizeCodeMaxLen  = 4
	colorCodeMaxLen = 3
	emptyCode       = "X"
)

var (
	parentSuffixRegex = regexp.MustCompile(`(?i)-PARENT$`)
	nonCodeCharRegex  = regexp.MustCompile(`[^A-Z0-9]`)
)

// sizeCodes maps upper-cased size tokens to SKU codes
var sizeCodes = map[string]string{
	"NB":    "NB",
	"0-3M":  "03M",
	"3-6M":  "36M",
	"6-9M":  "69M",
	"6-12M": "612M",
	"9-12M": "912M",
	"12M":   "12M",
	"18M":   "18M",
	"24M":   "24M",
	"2T":    "2T",
	"3T":    "3T",
	"4T":    "4T",
	"5T":    "5T",
}

// colorCodes maps capitalized color names to SKU codes
var colorCodes = map[string]string{
	"White":   "WH",
	"Natural": "NAT",
	"Pink":    "PK",
	"Black":   "BK",
	"Gray":    "GY",
	"Grey":    "GY",
	"Heather": "HTR",
	"Blue":    "BL",
	"Navy":    "NV",
	"Red":     "RD",
	"Yellow":  "YL",
	"Green":   "GN",
	"Purple":  "PR",
	"Ivory":   "IV",
	"Cream":   "CR",
	"Oatmeal": "OAT",
}

// ParentBase strips the conventional "-PARENT" suffix from a parent SKU
func ParentBase(parentSKU string) string {
	return parentSuffixRegex.ReplaceAllString(strings.TrimSpace(parentSKU), "")
}

// ParentTitle builds the parent item name: "<base with spaces> - <tail>"
func ParentTitle(base, tail string) string {
	head := strings.TrimSpace(strings.ReplaceAll(base, "-", " "))
	return strings.TrimSpace(head + TitleDelimiter + tail)
}

// ChildTitle builds a child item name: "<base with spaces> <variation> - <tail>"
func ChildTitle(base, descriptor, tail string) string {
	head := strings.TrimSpace(strings.ReplaceAll(base, "-", " "))
	head = strings.TrimSpace(head + " " + strings.TrimSpace(descriptor))
	return strings.TrimSpace(head + TitleDelimiter + tail)
}

// ParseVariation splits a descriptor such as "0-3M White Short Sleeve" positionally:
// first token is the size, second the color, the rest the sleeve.
func ParseVariation(descriptor string) domain.Variation {
	parts := strings.Fields(descriptor)
	v := domain.Variation{Descriptor: strings.Join(parts, " ")}

	switch {
	case len(parts) >= 3:
		v.Size = parts[0]
		v.Color = capitalize(parts[1])
		v.Sleeve = titleCase(strings.Join(parts[2:], " "))
	case len(parts) == 2:
		v.Size = parts[0]
		v.Color = capitalize(parts[1])
	case len(parts) == 1:
		v.Size = parts[0]
	}
	return v
}

// SizeCode returns the SKU code for a size
func SizeCode(size string) string {
	if code, ok := sizeCodes[strings.ToUpper(strings.TrimSpace(size))]; ok {
		return code
	}
	return fallbackCode(size, sizeCodeMaxLen)
}

// ColorCode returns the SKU code for a color
func ColorCode(color string) string {
	if code, ok := colorCodes[capitalize(strings.TrimSpace(color))]; ok {
		return code
	}
	return fallbackCode(color, colorCodeMaxLen)
}

// SleeveCode is LS for any sleeve mentioning "Long", SS otherwise (including empty)
func SleeveCode(sleeve string) string {
	if strings.Contains(sleeve, "Long") {
		return SleeveCodeLong
	}
	return SleeveCodeShort
}

// SKUFromVariation derives the child SKU "<base>-<size>-<color>-<sleeve>".
// It is a pure function of its inputs.
func SKUFromVariation(base, size, color, sleeve string) string {
	return strings.Join([]string{
		base,
		SizeCode(size),
		ColorCode(color),
		SleeveCode(sleeve),
	}, "-")
}

// ChildSKU derives the child SKU for a parent SKU and a parsed variation
func ChildSKU(parentSKU string, v domain.Variation) string {
	return SKUFromVariation(ParentBase(parentSKU), v.Size, v.Color, v.Sleeve)
}

// fallbackCode upper-cases, strips non-alphanumerics and truncates
func fallbackCode(raw string, maxLen int) string {
	code := nonCodeCharRegex.ReplaceAllString(strings.ToUpper(raw), "")
	if len(code) > maxLen {
		code = code[:maxLen]
	}
	if code == "" {
		return emptyCode
	}
	return code
}

// capitalize upper-cases the first letter and lower-cases the rest
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + cases.Lower(language.English).String(s[size:])
}

func titleCase(s string) string {
	return cases.Title(language.English).String(strings.ToLower(s))
}
