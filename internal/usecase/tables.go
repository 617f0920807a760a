package usecase

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/pricelens/backend/internal/domain"
)

// BrandAlias maps a normalized alias key to its canonical brand name.
type BrandAlias struct {
	Key       string `yaml:"key"`
	Canonical string `yaml:"canonical"`
}

// CategoryRule assigns a category when one of its keywords appears in a name.
type CategoryRule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Tables holds the lookup tables driving normalization.
// Order of BrandAliases and Categories is significant: earlier entries win.
type Tables struct {
	BrandAliases []BrandAlias      `yaml:"brand_aliases"`
	Units        map[string]string `yaml:"units"`
	Categories   []CategoryRule    `yaml:"categories"`
	StopWords    []string          `yaml:"stop_words"`
}

// DefaultTables returns the built-in tables for Canadian grocery chains.
func DefaultTables() Tables {
	return Tables{
		BrandAliases: []BrandAlias{
			{Key: "pc", Canonical: "President's Choice"},
			{Key: "presidents choice", Canonical: "President's Choice"},
			{Key: "president s choice", Canonical: "President's Choice"},
			{Key: "no name", Canonical: "No Name"},
			{Key: "selection", Canonical: "Selection"},
			{Key: "irresistible", Canonical: "Irrésistibles"},
			{Key: "great value", Canonical: "Great Value"},
			{Key: "kirkland", Canonical: "Kirkland Signature"},
			{Key: "compliments", Canonical: "Compliments"},
			{Key: "our finest", Canonical: "Our Finest"},
		},
		Units: map[string]string{
			"g":           "gram",
			"gram":        "gram",
			"grams":       "gram",
			"kg":          "kilogram",
			"kilogram":    "kilogram",
			"kilograms":   "kilogram",
			"ml":          "milliliter",
			"milliliter":  "milliliter",
			"milliliters": "milliliter",
			"millilitre":  "milliliter",
			"millilitres": "milliliter",
			"l":           "liter",
			"liter":       "liter",
			"liters":      "liter",
			"litre":       "liter",
			"litres":      "liter",
			"lb":          "pound",
			"lbs":         "pound",
			"pound":       "pound",
			"pounds":      "pound",
			"oz":          "ounce",
			"ounce":       "ounce",
			"ounces":      "ounce",
			"ea":          "each",
			"each":        "each",
			"pack":        "pack",
			"packs":       "pack",
			"pk":          "pack",
			"count":       "count",
			"ct":          "count",
		},
		Categories: []CategoryRule{
			{Name: "dairy", Keywords: []string{"milk", "cheese", "yogurt", "butter", "cream", "dairy"}},
			{Name: "meat", Keywords: []string{"beef", "chicken", "pork", "turkey", "lamb", "meat", "sausage", "bacon"}},
			{Name: "produce", Keywords: []string{"apple", "banana", "orange", "lettuce", "tomato", "potato", "onion", "carrot"}},
			{Name: "bakery", Keywords: []string{"bread", "bagel", "muffin", "cake", "cookie", "pastry"}},
			{Name: "beverages", Keywords: []string{"juice", "soda", "water", "coffee", "tea", "beer", "wine"}},
			{Name: "frozen", Keywords: []string{"frozen", "ice cream", "pizza"}},
			{Name: "pantry", Keywords: []string{"pasta", "rice", "cereal", "sauce", "oil", "vinegar", "spice"}},
			{Name: "snacks", Keywords: []string{"chips", "crackers", "nuts", "candy", "chocolate"}},
			{Name: "household", Keywords: []string{"detergent", "soap", "shampoo", "toothpaste", "tissue"}},
		},
		StopWords: []string{
			"the", "and", "or", "with", "without", "fresh", "new", "premium",
			"select", "choice", "quality", "best", "great", "super", "extra",
			"special", "deluxe", "classic", "original", "natural", "pure",
		},
	}
}

// LoadTables reads tables from a YAML file. Sections missing from the file
// fall back to the built-in defaults.
func LoadTables(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, eris.Wrapf(err, "tables: read %s", path)
	}

	var fromFile Tables
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return Tables{}, eris.Wrapf(domain.ErrInvalidTables, "tables: parse %s: %v", path, err)
	}

	tables := DefaultTables()
	if len(fromFile.BrandAliases) > 0 {
		tables.BrandAliases = fromFile.BrandAliases
	}
	if len(fromFile.Units) > 0 {
		tables.Units = fromFile.Units
	}
	if len(fromFile.Categories) > 0 {
		tables.Categories = fromFile.Categories
	}
	if len(fromFile.StopWords) > 0 {
		tables.StopWords = fromFile.StopWords
	}

	if err := tables.Validate(); err != nil {
		return Tables{}, err
	}
	return tables, nil
}

// Validate checks that every table entry is usable.
func (t Tables) Validate() error {
	for i, alias := range t.BrandAliases {
		if strings.TrimSpace(alias.Key) == "" || strings.TrimSpace(alias.Canonical) == "" {
			return eris.Wrapf(domain.ErrInvalidTables, "brand alias %d: key and canonical are required", i)
		}
		if NormalizeText(alias.Key) == "" {
			return eris.Wrapf(domain.ErrInvalidTables, "brand alias %q: key has no letters or digits", alias.Key)
		}
	}
	for key, unit := range t.Units {
		if strings.TrimSpace(key) == "" || strings.TrimSpace(unit) == "" {
			return eris.Wrapf(domain.ErrInvalidTables, "unit %q: empty mapping", key)
		}
	}
	for i, rule := range t.Categories {
		if strings.TrimSpace(rule.Name) == "" {
			return eris.Wrapf(domain.ErrInvalidTables, "category %d: name is required", i)
		}
		if len(rule.Keywords) == 0 {
			return eris.Wrapf(domain.ErrInvalidTables, "category %q: at least one keyword is required", rule.Name)
		}
		for _, kw := range rule.Keywords {
			if NormalizeText(kw) == "" {
				return eris.Wrapf(domain.ErrInvalidTables, "category %q: keyword %q has no letters or digits", rule.Name, kw)
			}
		}
	}
	return nil
}

// clone returns a deep copy so callers cannot mutate tables held by a normalizer.
func (t Tables) clone() Tables {
	out := Tables{
		BrandAliases: append([]BrandAlias(nil), t.BrandAliases...),
		Units:        make(map[string]string, len(t.Units)),
		Categories:   make([]CategoryRule, len(t.Categories)),
		StopWords:    append([]string(nil), t.StopWords...),
	}
	for k, v := range t.Units {
		out.Units[k] = v
	}
	for i, rule := range t.Categories {
		out.Categories[i] = CategoryRule{
			Name:     rule.Name,
			Keywords: append([]string(nil), rule.Keywords...),
		}
	}
	return out
}
