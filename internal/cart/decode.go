package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMalformedPayload reports persisted cart data that is not a JSON array.
var ErrMalformedPayload = fmt.Errorf("cart payload is not an array")

type persistedLine struct {
	ID       any             `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
	Stock    *int            `json:"stock,omitempty"`
	Status   string          `json:"status,omitempty"`
}

// Decode parses a persisted cart. The payload must be a JSON array; entries
// without a string id or with a quantity below 1 are dropped. Duplicate ids
// keep the first occurrence.
func Decode(data []byte) ([]Line, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []Line{}, nil
	}
	if trimmed[0] != '[' {
		return nil, ErrMalformedPayload
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("decode cart payload: %w", err)
	}

	lines := make([]Line, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, entry := range raw {
		var item persistedLine
		if err := json.Unmarshal(entry, &item); err != nil {
			continue
		}
		id, ok := item.ID.(string)
		if !ok || strings.TrimSpace(id) == "" || item.Quantity < 1 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		lines = append(lines, Line{
			ID:       id,
			Name:     item.Name,
			Price:    item.Price,
			Image:    item.Image,
			Quantity: item.Quantity,
			Stock:    item.Stock,
			Status:   item.Status,
		})
	}
	return lines, nil
}

// Encode serializes the lines in the persisted format.
func Encode(lines []Line) ([]byte, error) {
	if lines == nil {
		lines = []Line{}
	}
	return json.Marshal(lines)
}
