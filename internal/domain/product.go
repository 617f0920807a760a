package domain

import (
	"encoding/json"
	"maps"
	"sort"
)

// KeywordSet is an unordered set of keywords.
type KeywordSet map[string]struct{}

// NewKeywordSet builds a set from the given words, dropping duplicates.
func NewKeywordSet(words ...string) KeywordSet {
	set := make(KeywordSet, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Has reports whether w is in the set.
func (k KeywordSet) Has(w string) bool {
	_, ok := k[w]
	return ok
}

// Sorted returns the keywords in lexical order.
func (k KeywordSet) Sorted() []string {
	out := make([]string, 0, len(k))
	for w := range k {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Equal reports whether both sets hold the same keywords. A nil set equals
// an empty one.
func (k KeywordSet) Equal(other KeywordSet) bool {
	return maps.Equal(k, other)
}

// Union returns a new set holding the members of both sets.
func (k KeywordSet) Union(other KeywordSet) KeywordSet {
	out := make(KeywordSet, len(k)+len(other))
	for w := range k {
		out[w] = struct{}{}
	}
	for w := range other {
		out[w] = struct{}{}
	}
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (k KeywordSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.Sorted())
}

// UnmarshalJSON decodes an array of keywords.
func (k *KeywordSet) UnmarshalJSON(data []byte) error {
	var words []string
	if err := json.Unmarshal(data, &words); err != nil {
		return err
	}
	*k = NewKeywordSet(words...)
	return nil
}

// NormalizedProduct is the canonical representation of one or more raw listings
// believed to denote the same item.
type NormalizedProduct struct {
	NormalizedName string       `json:"normalized_name"`
	Category       string       `json:"category"`
	Subcategory    string       `json:"subcategory"`
	Brand          string       `json:"brand"`
	BaseUnit       string       `json:"base_unit"`
	UnitSize       float64      `json:"unit_size"`
	UnitType       string       `json:"unit_type"`
	Organic        bool         `json:"organic"`
	Keywords       KeywordSet   `json:"keywords"`
	SourceListings []RawListing `json:"source_listings"`
}

// StoreCount is the number of raw listings merged into the product.
func (p *NormalizedProduct) StoreCount() int {
	return len(p.SourceListings)
}

// MatchGroup is the ordered set of products clustered together in one pass.
// The first member is the anchor.
type MatchGroup []*NormalizedProduct

// Diagnostic records a listing dropped during normalization.
type Diagnostic struct {
	Index  int    `json:"index"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}
