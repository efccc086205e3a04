package models

import (
	"fmt"
	"strings"

	"auctions/internal/auctionerrors"
)

// Category is the stored two-letter code of a listing category
type Category string

const (
	CategoryToys        Category = "TO"
	CategoryFashion     Category = "FA"
	CategoryElectronics Category = "EL"
	CategoryHome        Category = "HO"
	CategoryOthers      Category = "OT"
)

// DefaultCategory is used when a listing is created without one
const DefaultCategory = CategoryOthers

var categoryLabels = map[Category]string{
	CategoryToys:        "Toys",
	CategoryFashion:     "Fashion",
	CategoryElectronics: "Electronics",
	CategoryHome:        "Home",
	CategoryOthers:      "Others",
}

// CategoryInfo pairs a code with its display label
type CategoryInfo struct {
	Code  Category `json:"code"`
	Label string   `json:"label"`
}

// Categories returns every category in display order
func Categories() []CategoryInfo {
	order := []Category{CategoryToys, CategoryFashion, CategoryElectronics, CategoryHome, CategoryOthers}
	out := make([]CategoryInfo, 0, len(order))
	for _, c := range order {
		out = append(out, CategoryInfo{Code: c, Label: categoryLabels[c]})
	}
	return out
}

// Label returns the display name, or the raw code for unknown values
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// Valid reports whether c is a known code
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// ParseCategory accepts a code ("EL"), a label ("Electronics") or the
// singular form ("Toy", "Other"), case-insensitively.
func ParseCategory(raw string) (Category, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("%w - empty category", auctionerrors.ErrInvalidCategory)
	}
	for code, label := range categoryLabels {
		if strings.EqualFold(value, string(code)) ||
			strings.EqualFold(value, label) ||
			strings.EqualFold(value, strings.TrimSuffix(label, "s")) {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w - unknown category %q", auctionerrors.ErrInvalidCategory, raw)
}
