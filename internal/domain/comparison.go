package domain

import "time"

// StoreSnapshot is the price state of one listing inside a comparison.
type StoreSnapshot struct {
	StoreChain    string   `json:"store_chain"`
	StoreLocation *string  `json:"store_location,omitempty"`
	CurrentPrice  *float64 `json:"current_price,omitempty"`
	RegularPrice  *float64 `json:"regular_price,omitempty"`
	SalePrice     *float64 `json:"sale_price,omitempty"`
	OnSale        bool     `json:"on_sale"`
	UnitPrice     *float64 `json:"unit_price,omitempty"`
	Size          *string  `json:"size,omitempty"`
}

// PriceComparison summarizes the prices of one product available at several stores.
type PriceComparison struct {
	ProductName       string          `json:"product_name"`
	Brand             string          `json:"brand"`
	Category          string          `json:"category"`
	UnitSize          float64         `json:"unit_size"`
	UnitType          string          `json:"unit_type"`
	Organic           bool            `json:"organic"`
	StoreCount        int             `json:"store_count"`
	MinPrice          float64         `json:"min_price"`
	MaxPrice          float64         `json:"max_price"`
	AvgPrice          float64         `json:"avg_price"`
	PriceDifference   float64         `json:"price_difference"`
	SavingsPercentage float64         `json:"savings_percentage"`
	Stores            []StoreSnapshot `json:"stores"`
}

// ReportSummary holds the headline counts of a matching run.
type ReportSummary struct {
	TotalProducts      int `json:"total_products"`
	NormalizedProducts int `json:"normalized_products"`
	ProductGroups      int `json:"product_groups"`
	MultiStoreProducts int `json:"multi_store_products"`
	PriceComparisons   int `json:"price_comparisons"`
	DroppedListings    int `json:"dropped_listings"`
}

// Report is the aggregate output of one matching run.
type Report struct {
	Summary        ReportSummary     `json:"summary"`
	Categories     map[string]int    `json:"categories"`
	Brands         map[string]int    `json:"brands"`
	TopSavings     []PriceComparison `json:"top_savings_opportunities"`
	AllComparisons []PriceComparison `json:"all_comparisons"`
	Diagnostics    []Diagnostic      `json:"diagnostics"`
}

// ReportRecord is a report with the identity assigned when it was generated.
type ReportRecord struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`
	Report      *Report   `json:"report"`
}
