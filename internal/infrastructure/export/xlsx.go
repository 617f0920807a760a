package export

import (
	"io"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/pricelens/backend/internal/domain"
)

const (
	summarySheet     = "Summary"
	comparisonsSheet = "Comparisons"
)

var comparisonHeaders = []string{
	"Product", "Brand", "Category", "Unit Size", "Unit Type", "Organic",
	"Store Count", "Min Price", "Max Price", "Avg Price", "Price Difference", "Savings %",
	"Store Chain", "Store Location", "Current Price", "Regular Price", "Sale Price", "On Sale",
}

// SaveXLSX writes the report as an Excel workbook at path.
func SaveXLSX(path string, record *domain.ReportRecord) error {
	f, err := buildWorkbook(record)
	if err != nil {
		return err
	}
	defer f.Close()

	return eris.Wrapf(f.SaveAs(path), "export: save %s", path)
}

// WriteXLSX writes the report as an Excel workbook to w.
func WriteXLSX(w io.Writer, record *domain.ReportRecord) error {
	f, err := buildWorkbook(record)
	if err != nil {
		return err
	}
	defer f.Close()

	return eris.Wrap(f.Write(w), "export: write workbook")
}

func buildWorkbook(record *domain.ReportRecord) (*excelize.File, error) {
	if record == nil || record.Report == nil {
		return nil, eris.Wrap(domain.ErrInvalidRequest, "export: empty report")
	}

	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		f.Close()
		return nil, eris.Wrap(err, "export: rename summary sheet")
	}
	index, err := f.NewSheet(comparisonsSheet)
	if err != nil {
		f.Close()
		return nil, eris.Wrap(err, "export: create comparisons sheet")
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, eris.Wrap(err, "export: create header style")
	}

	if err := writeSummary(f, record, headerStyle); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeComparisons(f, record.Report.AllComparisons, headerStyle); err != nil {
		f.Close()
		return nil, err
	}

	f.SetActiveSheet(index)
	return f, nil
}

func writeSummary(f *excelize.File, record *domain.ReportRecord, headerStyle int) error {
	s := record.Report.Summary
	rows := [][]any{
		{"Metric", "Value"},
		{"Report ID", record.ID},
		{"Generated At", record.GeneratedAt.UTC().Format("2006-01-02 15:04:05")},
		{"Total Listings", s.TotalProducts},
		{"Normalized Products", s.NormalizedProducts},
		{"Product Groups", s.ProductGroups},
		{"Multi-Store Products", s.MultiStoreProducts},
		{"Price Comparisons", s.PriceComparisons},
		{"Dropped Listings", s.DroppedListings},
	}

	rows = append(rows, []any{}, []any{"Category", "Products"})
	categoryHeader := len(rows)
	for _, name := range sortedKeys(record.Report.Categories) {
		rows = append(rows, []any{name, record.Report.Categories[name]})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return eris.Wrap(err, "export: summary cell")
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return eris.Wrapf(err, "export: summary row %d", i+1)
		}
	}

	for _, headerRow := range []int{1, categoryHeader} {
		start, _ := excelize.CoordinatesToCellName(1, headerRow)
		end, _ := excelize.CoordinatesToCellName(2, headerRow)
		if err := f.SetCellStyle(summarySheet, start, end, headerStyle); err != nil {
			return eris.Wrap(err, "export: summary header style")
		}
	}

	return eris.Wrap(f.SetColWidth(summarySheet, "A", "B", 24), "export: summary widths")
}

// writeComparisons writes one row per store of every comparison.
func writeComparisons(f *excelize.File, comparisons []domain.PriceComparison, headerStyle int) error {
	for i, header := range comparisonHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(comparisonsSheet, cell, header); err != nil {
			return eris.Wrap(err, "export: comparison header")
		}
		if err := f.SetCellStyle(comparisonsSheet, cell, cell, headerStyle); err != nil {
			return eris.Wrap(err, "export: comparison header style")
		}
	}

	row := 2
	for _, c := range comparisons {
		for _, store := range c.Stores {
			values := []any{
				c.ProductName, c.Brand, c.Category, c.UnitSize, c.UnitType, c.Organic,
				c.StoreCount, c.MinPrice, c.MaxPrice, c.AvgPrice, c.PriceDifference, c.SavingsPercentage,
				store.StoreChain, domain.Deref(store.StoreLocation),
				priceCell(store.CurrentPrice), priceCell(store.RegularPrice), priceCell(store.SalePrice),
				store.OnSale,
			}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(comparisonsSheet, cell, &values); err != nil {
				return eris.Wrapf(err, "export: comparison row %d", row)
			}
			row++
		}
	}

	last, _ := excelize.ColumnNumberToName(len(comparisonHeaders))
	return eris.Wrap(f.SetColWidth(comparisonsSheet, "A", last, 15), "export: comparison widths")
}

// priceCell leaves absent prices as empty cells.
func priceCell(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
