package product

import "strings"

// DefaultCategory labels pieces without a category.
const DefaultCategory = "Colección"

// ImportDefaultCategory is used for imported rows that leave the column blank.
const ImportDefaultCategory = "Sin categoría"

// LandingCategories are the families shown on the landing page.
var LandingCategories = []string{"Anillos", "Cadenas", "Dijes"}

// CuratedCategories fixes the order of the catalog tabs.
var CuratedCategories = []string{"Anillos", "Aros", "Broches", "Cadenas", "Dijes", "Sets"}

var categoryAliases = map[string]string{
	"anillos":  "Anillos",
	"aros":     "Aros",
	"aretes":   "Aros",
	"broches":  "Broches",
	"cadenas":  "Cadenas",
	"collares": "Cadenas",
	"dijes":    "Dijes",
	"charms":   "Dijes",
	"sets":     "Sets",
	"pulseras": "Sets",
}

// NormalizeCategory maps free-form category names onto the curated families.
// Unknown names are returned trimmed.
func NormalizeCategory(category string) string {
	trimmed := strings.TrimSpace(category)
	if trimmed == "" {
		return DefaultCategory
	}
	if mapped, ok := categoryAliases[strings.ToLower(trimmed)]; ok {
		return mapped
	}
	return trimmed
}

// CategoryTabs returns the curated categories present in available followed by
// the remaining ones in first-seen order.
func CategoryTabs(available []string) []string {
	seen := make(map[string]bool, len(available))
	var extras []string
	for _, category := range available {
		if seen[category] {
			continue
		}
		seen[category] = true
		if !isCurated(category) {
			extras = append(extras, category)
		}
	}

	tabs := make([]string, 0, len(seen))
	for _, category := range CuratedCategories {
		if seen[category] {
			tabs = append(tabs, category)
		}
	}
	return append(tabs, extras...)
}

func isCurated(category string) bool {
	for _, c := range CuratedCategories {
		if c == category {
			return true
		}
	}
	return false
}
