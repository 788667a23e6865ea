package enums

import "fmt"

// ThemeMode is the storefront presentation mode.
type ThemeMode string

const (
	ThemeModeGold   ThemeMode = "gold"
	ThemeModeSilver ThemeMode = "silver"
)

var validThemeModes = []ThemeMode{
	ThemeModeGold,
	ThemeModeSilver,
}

// String implements fmt.Stringer.
func (m ThemeMode) String() string {
	return string(m)
}

// IsValid reports whether the value is a known ThemeMode.
func (m ThemeMode) IsValid() bool {
	for _, candidate := range validThemeModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// Opposite returns the other mode.
func (m ThemeMode) Opposite() ThemeMode {
	if m == ThemeModeSilver {
		return ThemeModeGold
	}
	return ThemeModeSilver
}

// Material maps the mode onto the catalog material it filters by.
func (m ThemeMode) Material() Material {
	if m == ThemeModeSilver {
		return MaterialSilver
	}
	return MaterialGold
}

// ParseThemeMode converts raw input into a ThemeMode.
func ParseThemeMode(value string) (ThemeMode, error) {
	for _, candidate := range validThemeModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid theme mode %q", value)
}
