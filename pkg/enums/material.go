package enums

import (
	"fmt"
	"strings"
)

// Material is the metal a piece is made of. It doubles as the storefront theme.
type Material string

const (
	MaterialGold   Material = "gold"
	MaterialSilver Material = "silver"
)

var validMaterials = []Material{
	MaterialGold,
	MaterialSilver,
}

var materialAliases = map[string]Material{
	"oro":   MaterialGold,
	"plata": MaterialSilver,
}

// String implements fmt.Stringer.
func (m Material) String() string {
	return string(m)
}

// IsValid reports whether the value is a known Material.
func (m Material) IsValid() bool {
	for _, candidate := range validMaterials {
		if candidate == m {
			return true
		}
	}
	return false
}

// FolderName returns the spanish folder segment used by the image host.
func (m Material) FolderName() string {
	if m == MaterialSilver {
		return "plata"
	}
	return "oro"
}

// ParseMaterial converts raw input into a Material. Spanish names are accepted.
func ParseMaterial(value string) (Material, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validMaterials {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	if alias, ok := materialAliases[normalized]; ok {
		return alias, nil
	}
	return "", fmt.Errorf("invalid material %q", value)
}
