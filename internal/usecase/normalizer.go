package usecase

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pricelens/backend/internal/domain"
)

const (
	genericBrand        = "Generic"
	defaultUnit         = "each"
	otherCategory       = "other"
	uncategorized       = "uncategorized"
	minKeywordLength    = 3
	minBrandGuessLength = 3
)

// sizePattern is one size/unit regex. Multipack patterns capture
// count, quantity and unit; the others capture quantity and unit.
type sizePattern struct {
	re        *regexp.Regexp
	multipack bool
}

// Size patterns, tried in order. Multipack comes first so "2 x 500 ml"
// is read as 1000 ml rather than 500 ml.
var sizePatterns = []sizePattern{
	{re: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*x\s*(\d+(?:\.\d+)?)\s*(g|grams?|kg|kilograms?|ml|milliliters?|millilitres?|l|liters?|litres?|lb|lbs|pounds?|oz|ounces?)\b`), multipack: true},
	{re: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(g|grams?|kg|kilograms?)\b`)},
	{re: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(ml|milliliters?|millilitres?|l|liters?|litres?)\b`)},
	{re: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(lb|lbs|pounds?|oz|ounces?)\b`)},
	{re: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(ea|each|packs?)\b`)},
	{re: regexp.MustCompile(`(\d+)\s*(count|ct)\b`)},
	{re: regexp.MustCompile(`(\d+)\s*(pk)\b`)},
}

// sizeInNamePattern strips size expressions from an already normalized name,
// where decimal points have become spaces ("1.5l" -> "1 5l").
var sizeInNamePattern = regexp.MustCompile(
	`\b\d+(?:\s\d+)?(?:\s*x\s*\d+(?:\s\d+)?)?\s*(?:g|grams?|kg|kilograms?|ml|milliliters?|millilitres?|l|liters?|litres?|lb|lbs|pounds?|oz|ounces?|ea|each|packs?|count|ct|pk)\b`,
)

// diacriticStripper decomposes text and drops combining marks.
var diacriticStripper = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// NormalizeText strips accents, lowercases, replaces punctuation with spaces
// and collapses whitespace. Empty input yields an empty string.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}

	stripped, _, err := transform.String(diacriticStripper, text)
	if err != nil {
		stripped = text
	}

	lowered := strings.ToLower(stripped)
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '-' {
			return r
		}
		return ' '
	}, lowered)

	return strings.Join(strings.Fields(cleaned), " ")
}

// NormalizerConfig holds configuration for the normalizer
type NormalizerConfig struct {
	Tables       Tables
	StemKeywords bool
}

// Normalizer turns raw listings into normalized products.
// It is safe for concurrent use; its tables never change after construction.
type Normalizer struct {
	brandAliases []BrandAlias
	aliasLookup  map[string]string
	aliasInName  []*regexp.Regexp
	units        map[string]string
	categories   []CategoryRule
	stopWords    map[string]struct{}
	stemKeywords bool
}

// NewNormalizer creates a normalizer from a copy of the given tables.
// Zero-value tables fall back to DefaultTables.
func NewNormalizer(config NormalizerConfig) *Normalizer {
	tables := config.Tables
	if len(tables.BrandAliases) == 0 && len(tables.Units) == 0 &&
		len(tables.Categories) == 0 && len(tables.StopWords) == 0 {
		tables = DefaultTables()
	}
	tables = tables.clone()

	n := &Normalizer{
		aliasLookup:  make(map[string]string, len(tables.BrandAliases)),
		units:        tables.Units,
		stopWords:    make(map[string]struct{}, len(tables.StopWords)),
		stemKeywords: config.StemKeywords,
	}

	// Keys are matched against normalized names, so they are normalized the
	// same way here. Keys that normalize to nothing could never match.
	for _, alias := range tables.BrandAliases {
		key := NormalizeText(alias.Key)
		if key == "" {
			continue
		}
		if _, exists := n.aliasLookup[key]; !exists {
			n.aliasLookup[key] = alias.Canonical
		}
		n.brandAliases = append(n.brandAliases, BrandAlias{Key: key, Canonical: alias.Canonical})
		n.aliasInName = append(n.aliasInName, regexp.MustCompile(`\b`+regexp.QuoteMeta(key)+`\b`))
	}
	for _, rule := range tables.Categories {
		normalized := CategoryRule{Name: rule.Name}
		for _, kw := range rule.Keywords {
			if kw = NormalizeText(kw); kw != "" {
				normalized.Keywords = append(normalized.Keywords, kw)
			}
		}
		n.categories = append(n.categories, normalized)
	}
	for _, w := range tables.StopWords {
		if w = NormalizeText(w); w != "" {
			n.stopWords[w] = struct{}{}
		}
	}

	return n
}

// ExtractBrand determines the canonical brand of a listing.
// An explicit brand field wins; otherwise the name is scanned for alias keys,
// then the first word is used as a guess, then "Generic".
func (n *Normalizer) ExtractBrand(name string, brandField *string) string {
	if brandField != nil && strings.TrimSpace(*brandField) != "" {
		if canonical, ok := n.aliasLookup[NormalizeText(*brandField)]; ok {
			return canonical
		}
		return titleCase(strings.TrimSpace(*brandField))
	}

	normalizedName := NormalizeText(name)
	for _, alias := range n.brandAliases {
		if strings.Contains(normalizedName, alias.Key) {
			return alias.Canonical
		}
	}

	words := strings.Fields(normalizedName)
	if len(words) > 1 {
		first := words[0]
		if len([]rune(first)) >= minBrandGuessLength && isAlphabetic(first) {
			return titleCase(first)
		}
	}

	return genericBrand
}

// ExtractSizeUnit finds the first size expression in text and returns the
// quantity with its canonical unit. ok is false when nothing parses.
func (n *Normalizer) ExtractSizeUnit(text string) (size float64, unit string, ok bool) {
	if text == "" {
		return 0, "", false
	}

	lower := strings.ToLower(text)
	for _, pattern := range sizePatterns {
		m := pattern.re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}

		if pattern.multipack {
			count, errCount := parseQuantity(m[1])
			each, errEach := parseQuantity(m[2])
			if errCount != nil || errEach != nil {
				continue
			}
			total := count * each
			if !validQuantity(total) {
				continue
			}
			return total, n.canonicalUnit(m[3]), true
		}

		qty, err := parseQuantity(m[1])
		if err != nil {
			continue
		}
		return qty, n.canonicalUnit(m[2]), true
	}

	return 0, "", false
}

// Categorize returns the first category whose keyword occurs in the name,
// paired with that keyword.
func (n *Normalizer) Categorize(name string) (category, subcategory string) {
	normalizedName := NormalizeText(name)
	for _, rule := range n.categories {
		for _, keyword := range rule.Keywords {
			if strings.Contains(normalizedName, keyword) {
				return rule.Name, keyword
			}
		}
	}
	return otherCategory, uncategorized
}

// ExtractKeywords returns the distinctive tokens of a name and description.
func (n *Normalizer) ExtractKeywords(name string, description *string) domain.KeywordSet {
	text := name
	if description != nil && *description != "" {
		text += " " + *description
	}

	keywords := make(domain.KeywordSet)
	for _, word := range strings.Fields(NormalizeText(text)) {
		// Filter on the surface form; stems of stop words do not match the list.
		if !n.isKeyword(word) {
			continue
		}
		if n.stemKeywords {
			word = n.stem(word)
		}
		keywords[word] = struct{}{}
	}
	return keywords
}

// NormalizeListing converts one raw listing into a normalized product.
func (n *Normalizer) NormalizeListing(listing domain.RawListing) (*domain.NormalizedProduct, error) {
	if !listing.HasName() {
		return nil, domain.ErrMissingName
	}

	name := listing.Name
	brand := n.ExtractBrand(name, listing.Brand)

	sizeText := name
	if listing.SizeText != nil && *listing.SizeText != "" {
		sizeText += " " + *listing.SizeText
	}
	size, unit, hasSize := n.ExtractSizeUnit(sizeText)
	if !hasSize {
		size, unit = 1.0, defaultUnit
	}

	category, subcategory := n.Categorize(name)
	keywords := n.ExtractKeywords(name, listing.Description)

	organicText := name
	if listing.Description != nil {
		organicText += " " + *listing.Description
	}
	organic := strings.Contains(NormalizeText(organicText), "organic")

	return &domain.NormalizedProduct{
		NormalizedName: n.cleanName(name),
		Category:       category,
		Subcategory:    subcategory,
		Brand:          brand,
		BaseUnit:       unit,
		UnitSize:       size,
		UnitType:       unit,
		Organic:        organic,
		Keywords:       keywords,
		SourceListings: []domain.RawListing{listing},
	}, nil
}

// cleanName removes brand aliases and size expressions from the normalized name.
func (n *Normalizer) cleanName(name string) string {
	normalized := NormalizeText(name)

	cleaned := normalized
	for _, re := range n.aliasInName {
		cleaned = re.ReplaceAllString(cleaned, " ")
	}
	cleaned = sizeInNamePattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	if cleaned == "" {
		return normalized
	}
	return cleaned
}

func (n *Normalizer) canonicalUnit(unit string) string {
	if canonical, ok := n.units[unit]; ok {
		return canonical
	}
	return unit
}

// stem reduces a keyword to its English stem, keeping the word when the
// stem would be too short to count as a keyword.
func (n *Normalizer) stem(word string) string {
	stemmed, err := snowball.Stem(word, "english", true)
	if err != nil || len([]rune(stemmed)) < minKeywordLength {
		return word
	}
	return stemmed
}

func (n *Normalizer) isKeyword(word string) bool {
	if len([]rune(word)) < minKeywordLength {
		return false
	}
	if _, stop := n.stopWords[word]; stop {
		return false
	}
	return !isNumeric(word)
}

// parseQuantity parses a captured number, rejecting values that cannot be sizes.
func parseQuantity(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if !validQuantity(v) {
		return 0, strconv.ErrRange
	}
	return v, nil
}

func validQuantity(v float64) bool {
	return v > 0 && v <= maxQuantity
}

// maxQuantity rejects absurd captures such as long digit runs.
const maxQuantity = 1e12

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	for _, c := range s {
		if !unicode.IsDigit(c) {
			return false
		}
	}
	return len(s) > 0
}

func isAlphabetic(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}

// titleCase capitalizes each word. A new Caser is built per call because
// cases.Caser keeps state and is not safe for concurrent use.
func titleCase(s string) string {
	return cases.Title(language.Und).String(s)
}
