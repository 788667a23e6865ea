package product

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/diegojoyero/joyeria-backend/pkg/cloudinary"
	"github.com/diegojoyero/joyeria-backend/pkg/db/models"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

var (
	controlCharsRe = regexp.MustCompile(`[\x00-\x1F]`)
	lineBreakRe    = regexp.MustCompile(`\r?\n`)
	priceCharsRe   = regexp.MustCompile(`[^0-9.,]`)
	stockCharsRe   = regexp.MustCompile(`[^0-9.,-]`)
)

var delimiterCandidates = []string{",", ";", "\t"}

// ErrMissingNameColumn is returned when the header has no name column.
var ErrMissingNameColumn = errors.New("el archivo no tiene una columna nombre")

// RowError describes one rejected import row. Line is 1-based and counts the header.
type RowError struct {
	Line   int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("fila %d: %s", e.Line, e.Reason)
}

type columns struct {
	name, description, price, stock, category, status, image, material, featured int
}

// ParseCSV turns a spreadsheet export into product rows. Rows that cannot be
// imported are reported through the returned error, which combines one
// *RowError per rejected row; the valid rows are returned alongside it.
func ParseCSV(content string, theme enums.Material, now time.Time) ([]models.Product, error) {
	lines := make([]string, 0)
	for _, line := range lineBreakRe.Split(content, -1) {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) <= 1 {
		return nil, nil
	}

	delimiter := detectDelimiter(lines[0])
	cols, ok := headerColumns(splitLine(lines[0], delimiter))
	if !ok {
		return nil, ErrMissingNameColumn
	}

	var (
		out  []models.Product
		errs error
	)
	for i, line := range lines[1:] {
		lineNo := i + 2
		values := splitLine(line, delimiter)
		product, err := rowProduct(values, cols, theme)
		if err != nil {
			errs = multierr.Append(errs, &RowError{Line: lineNo, Reason: err.Error()})
			continue
		}
		product.ID = uuid.New()
		// keep file order when sorting newest first
		product.CreatedAt = now.Add(-time.Duration(i) * time.Millisecond)
		product.UpdatedAt = product.CreatedAt
		out = append(out, product)
	}
	return out, errs
}

func rowProduct(values []string, cols columns, theme enums.Material) (models.Product, error) {
	name := cell(values, cols.name, "")
	if name == "" {
		return models.Product{}, errors.New("falta el nombre")
	}

	price, err := parseAmount(priceCharsRe.ReplaceAllString(cell(values, cols.price, "0"), ""))
	if err != nil {
		return models.Product{}, errors.New("precio inválido")
	}
	stock, err := parseAmount(stockCharsRe.ReplaceAllString(cell(values, cols.stock, "0"), ""))
	if err != nil {
		return models.Product{}, errors.New("stock inválido")
	}
	if stock.IsNegative() {
		return models.Product{}, errors.New("stock negativo")
	}

	category := cell(values, cols.category, "")
	if category == "" {
		category = ImportDefaultCategory
	}

	imageURL := cell(values, cols.image, "")
	var publicID *string
	if id := cloudinary.ExtractPublicIDFromURL(imageURL); id != "" {
		publicID = &id
	}

	return models.Product{
		Name:          name,
		Description:   cell(values, cols.description, ""),
		Price:         price.Round(2),
		Stock:         int(stock.IntPart()),
		Category:      category,
		Status:        toStatus(cell(values, cols.status, "")),
		ImageURL:      imageURL,
		ImagePublicID: publicID,
		Material:      toMaterial(cell(values, cols.material, ""), theme),
		Featured:      toFeatured(cell(values, cols.featured, "")),
	}, nil
}

func headerColumns(headers []string) (columns, bool) {
	find := func(names ...string) int {
		for idx, header := range headers {
			header = strings.ToLower(strings.TrimSpace(normalizeCell(header)))
			for _, name := range names {
				if header == name {
					return idx
				}
			}
		}
		return -1
	}
	cols := columns{
		name:        find("nombre", "name"),
		description: find("descripcion", "description"),
		price:       find("precio", "price"),
		stock:       find("stock"),
		category:    find("categoria", "category"),
		status:      find("estado", "status"),
		image:       find("imagen", "image", "imageurl"),
		material:    find("material"),
		featured:    find("destacado", "featured"),
	}
	return cols, cols.name != -1
}

func cell(values []string, idx int, fallback string) string {
	if idx < 0 || idx >= len(values) {
		return fallback
	}
	return values[idx]
}

// parseAmount accepts a digit string where the first comma is a decimal mark.
// An empty string is zero.
func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.Replace(raw, ",", ".", 1)
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

func normalizeCell(value string) string {
	return cloudinary.StripDiacritics(controlCharsRe.ReplaceAllString(value, ""))
}

func toMaterial(raw string, theme enums.Material) enums.Material {
	normalized := strings.ToLower(normalizeCell(raw))
	switch {
	case strings.Contains(normalized, "plata"), strings.Contains(normalized, "silver"):
		return enums.MaterialSilver
	case strings.Contains(normalized, "oro"), strings.Contains(normalized, "gold"):
		return enums.MaterialGold
	}
	return theme
}

func toStatus(raw string) enums.ProductStatus {
	switch strings.ToLower(normalizeCell(raw)) {
	case "inactivo", "inactive":
		return enums.ProductStatusInactive
	}
	return enums.ProductStatusActive
}

func toFeatured(raw string) bool {
	switch strings.ToLower(normalizeCell(raw)) {
	case "si", "true", "1":
		return true
	}
	return false
}

func detectDelimiter(header string) string {
	detected, maxCount := ",", 0
	for _, candidate := range delimiterCandidates {
		if count := strings.Count(header, candidate); count > maxCount {
			detected, maxCount = candidate, count
		}
	}
	return detected
}

// splitLine splits on delimiter outside double quotes; "" inside quotes is a
// literal quote.
func splitLine(line, delimiter string) []string {
	var (
		values   []string
		current  strings.Builder
		inQuotes bool
	)
	runes := []rune(line)
	sep := []rune(delimiter)[0]
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		if ch == '"' {
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				current.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
			continue
		}
		if ch == sep && !inQuotes {
			values = append(values, current.String())
			current.Reset()
			continue
		}
		current.WriteRune(ch)
	}
	values = append(values, current.String())

	for i, value := range values {
		values[i] = strings.TrimSpace(value)
	}
	return values
}
