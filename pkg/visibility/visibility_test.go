package visibility

import (
	"testing"

	"github.com/diegojoyero/joyeria-backend/pkg/db/models"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
	pkgerrors "github.com/diegojoyero/joyeria-backend/pkg/errors"
)

func TestEnsureProductVisible(t *testing.T) {
	active := &models.Product{Status: enums.ProductStatusActive}
	if err := EnsureProductVisible(active); err != nil {
		t.Fatalf("expected active product visible, got %v", err)
	}

	for name, p := range map[string]*models.Product{
		"nil":      nil,
		"inactive": {Status: enums.ProductStatusInactive},
	} {
		err := EnsureProductVisible(p)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
			t.Fatalf("%s: expected not found, got %v", name, err)
		}
	}
}

func TestListedRequiresStock(t *testing.T) {
	if Listed(models.Product{Status: enums.ProductStatusActive, Stock: 0}) {
		t.Fatal("out of stock product should not be listed")
	}
	if Listed(models.Product{Status: enums.ProductStatusInactive, Stock: 4}) {
		t.Fatal("inactive product should not be listed")
	}
	if !Listed(models.Product{Status: enums.ProductStatusActive, Stock: 1}) {
		t.Fatal("active product with stock should be listed")
	}
}
