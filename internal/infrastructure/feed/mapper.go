package feed

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pricelens/backend/internal/domain"
)

// Item is one scraped product as published by the scraper feed.
// Prices and weight may arrive as numbers or strings.
type Item struct {
	ProductID     string          `json:"product_id"`
	Name          string          `json:"name"`
	Brand         string          `json:"brand"`
	Description   string          `json:"description"`
	Size          string          `json:"size"`
	Weight        json.RawMessage `json:"weight"`
	Unit          string          `json:"unit"`
	CurrentPrice  json.RawMessage `json:"current_price"`
	RegularPrice  json.RawMessage `json:"regular_price"`
	SalePrice     json.RawMessage `json:"sale_price"`
	UnitPrice     json.RawMessage `json:"unit_price"`
	OnSale        *bool           `json:"on_sale"`
	StoreChain    string          `json:"store_chain"`
	StoreName     string          `json:"store_name"`
	StoreLocation string          `json:"store_location"`
	SourceURL     string          `json:"source_url"`
}

// MapToListings converts feed items to raw listings, preserving order.
func MapToListings(items []Item) []domain.RawListing {
	listings := make([]domain.RawListing, 0, len(items))
	for _, item := range items {
		listings = append(listings, MapToListing(item))
	}
	return listings
}

// MapToListing converts one feed item to our domain RawListing model
func MapToListing(item Item) domain.RawListing {
	location := item.StoreLocation
	if location == "" {
		location = item.StoreName
	}

	return domain.RawListing{
		Name:          strings.TrimSpace(item.Name),
		Brand:         optional(item.Brand),
		SizeText:      optional(sizeText(item)),
		Description:   optional(item.Description),
		CurrentPrice:  domain.DecodePrice(item.CurrentPrice),
		RegularPrice:  domain.DecodePrice(item.RegularPrice),
		SalePrice:     domain.DecodePrice(item.SalePrice),
		OnSale:        item.OnSale,
		UnitPrice:     domain.DecodePrice(item.UnitPrice),
		StoreChain:    strings.TrimSpace(item.StoreChain),
		StoreLocation: optional(location),
	}
}

// sizeText prefers the printed size and falls back to weight plus unit.
func sizeText(item Item) string {
	if s := strings.TrimSpace(item.Size); s != "" {
		return s
	}

	weight := rawScalar(item.Weight)
	if weight == "" {
		return ""
	}
	return strings.TrimSpace(weight + " " + strings.TrimSpace(item.Unit))
}

// rawScalar renders a JSON number or string as plain text.
func rawScalar(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
