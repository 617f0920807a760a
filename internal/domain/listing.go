package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// RawListing represents one scraped product record from one store, as ingested.
// Optional fields are pointers so that "absent" and "zero" stay distinguishable.
type RawListing struct {
	Name          string   `json:"name"`
	Brand         *string  `json:"brand,omitempty"`
	SizeText      *string  `json:"size_text,omitempty"`
	Description   *string  `json:"description,omitempty"`
	CurrentPrice  *float64 `json:"current_price,omitempty"`
	RegularPrice  *float64 `json:"regular_price,omitempty"`
	SalePrice     *float64 `json:"sale_price,omitempty"`
	OnSale        *bool    `json:"on_sale,omitempty"`
	UnitPrice     *float64 `json:"unit_price,omitempty"`
	StoreChain    string   `json:"store_chain"`
	StoreLocation *string  `json:"store_location,omitempty"`
}

// rawListingJSON mirrors RawListing but keeps every field loosely typed so
// that one malformed field degrades that field instead of failing the batch.
type rawListingJSON struct {
	Name          json.RawMessage `json:"name"`
	Brand         json.RawMessage `json:"brand"`
	SizeText      json.RawMessage `json:"size_text"`
	Size          json.RawMessage `json:"size"`
	Description   json.RawMessage `json:"description"`
	CurrentPrice  json.RawMessage `json:"current_price"`
	RegularPrice  json.RawMessage `json:"regular_price"`
	SalePrice     json.RawMessage `json:"sale_price"`
	OnSale        json.RawMessage `json:"on_sale"`
	UnitPrice     json.RawMessage `json:"unit_price"`
	StoreChain    json.RawMessage `json:"store_chain"`
	StoreLocation json.RawMessage `json:"store_location"`
}

// UnmarshalJSON decodes a listing, treating unparseable fields as absent.
// A value that is not a JSON object decodes as an empty listing, which the
// engine later reports as missing its name.
// The scraper's legacy "size" key is accepted as an alias of "size_text".
func (l *RawListing) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		*l = RawListing{}
		return nil
	}

	var aux rawListingJSON
	if err := json.Unmarshal(trimmed, &aux); err != nil {
		return err
	}

	sizeText := DecodeString(aux.SizeText)
	if sizeText == nil {
		sizeText = DecodeString(aux.Size)
	}

	*l = RawListing{
		Name:          Deref(DecodeString(aux.Name)),
		Brand:         DecodeString(aux.Brand),
		SizeText:      sizeText,
		Description:   DecodeString(aux.Description),
		CurrentPrice:  DecodePrice(aux.CurrentPrice),
		RegularPrice:  DecodePrice(aux.RegularPrice),
		SalePrice:     DecodePrice(aux.SalePrice),
		OnSale:        DecodeBool(aux.OnSale),
		UnitPrice:     DecodePrice(aux.UnitPrice),
		StoreChain:    Deref(DecodeString(aux.StoreChain)),
		StoreLocation: DecodeString(aux.StoreLocation),
	}
	return nil
}

// DecodeString reads a JSON string, returning nil for anything else.
func DecodeString(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

// DecodeBool reads a JSON boolean, also accepting the strings and numbers
// scrapers commonly emit for flags ("true", "no", 1). Anything else is nil.
func DecodeBool(raw json.RawMessage) *bool {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return &b
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "1", "yes", "y":
			return BoolPtr(true)
		case "false", "0", "no", "n":
			return BoolPtr(false)
		}
		return nil
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		switch n {
		case 1:
			return BoolPtr(true)
		case 0:
			return BoolPtr(false)
		}
	}
	return nil
}

// HasName reports whether the listing carries a usable product name.
func (l RawListing) HasName() bool {
	return strings.TrimSpace(l.Name) != ""
}

// EffectivePrice returns the price shoppers pay today: the current price,
// falling back to the sale price and then the regular price.
// Only positive prices are considered usable.
func (l RawListing) EffectivePrice() (float64, bool) {
	for _, p := range []*float64{l.CurrentPrice, l.SalePrice, l.RegularPrice} {
		if p != nil && *p > 0 {
			return *p, true
		}
	}
	return 0, false
}

// DecodePrice reads a JSON number or price string, returning nil when absent
// or unparseable.
func DecodePrice(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return validPrice(n)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParsePrice(s)
	}

	return nil
}

// ParsePrice parses a loosely formatted price ("$5.99", " 6.29 ", "1,299.00").
// It returns nil when the text is not a finite, non-negative number.
func ParsePrice(s string) *float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return validPrice(n)
}

func validPrice(n float64) *float64 {
	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return nil
	}
	return &n
}

// StringPtr returns a pointer to s. Handy when building listings in code.
func StringPtr(s string) *string {
	return &s
}

// FloatPtr returns a pointer to f.
func FloatPtr(f float64) *float64 {
	return &f
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

// Deref returns the pointed-to string or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
