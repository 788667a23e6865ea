package orders

import (
	"context"
	"testing"
	"time"

	"github.com/diegojoyero/joyeria-backend/pkg/db/dbtest"
	"github.com/diegojoyero/joyeria-backend/pkg/db/models"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
	"github.com/diegojoyero/joyeria-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newOrder(createdAt time.Time, email string, items ...models.OrderItem) *models.Order {
	id := uuid.New()
	total := decimal.Zero
	for i := range items {
		items[i].ID = uuid.New()
		items[i].OrderID = id
		items[i].CreatedAt = createdAt
		total = total.Add(items[i].LineTotal)
	}
	return &models.Order{
		ID:                 id,
		CustomerFirstName:  "Ana",
		CustomerLastName:   "Flores",
		CustomerEmail:      email,
		CustomerPhone:      "987654321",
		CustomerAddress:    "Jr. Cusco 45",
		CustomerCity:       "Arequipa",
		CustomerPostalCode: "04001",
		PaymentMethod:      enums.PaymentMethodYape,
		Subtotal:           total,
		Total:              total,
		Status:             enums.OrderStatusReceived,
		Items:              items,
		CreatedAt:          createdAt,
		UpdatedAt:          createdAt,
	}
}

func item(productID string, qty int, price int64) models.OrderItem {
	unit := decimal.NewFromInt(price)
	return models.OrderItem{
		ProductID:   productID,
		ProductName: "Pieza " + productID,
		Quantity:    qty,
		UnitPrice:   unit,
		LineTotal:   unit.Mul(decimal.NewFromInt(int64(qty))),
	}
}

func TestRepositoryCreateAndFind(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := newOrder(time.Now().UTC(), "ana@correo.pe", item("p1", 2, 50), item("p2", 1, 120))
	require.NoError(t, repo.Create(ctx, order))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.CustomerEmail, found.CustomerEmail)
	require.Len(t, found.Items, 2)
	assert.True(t, found.Total.Equal(decimal.NewFromInt(220)))
}

func TestRepositoryCreateRollsBackItemsOnFailure(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	bad := item("p1", 0, 10)
	order := newOrder(time.Now().UTC(), "ana@correo.pe", bad)
	err := repo.Create(ctx, order)
	require.Error(t, err)

	_, err = repo.FindByID(ctx, order.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListPaginatesAndFilters(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, newOrder(base.Add(time.Duration(i)*time.Minute), "ana@correo.pe", item("p1", 1, 10))))
	}
	paid := newOrder(base.Add(10*time.Minute), "Luis@Correo.pe", item("p2", 1, 10))
	paid.Status = enums.OrderStatusPaid
	require.NoError(t, repo.Create(ctx, paid))

	rows, err := repo.List(ctx, pagination.Params{Limit: 2}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, paid.ID, rows[0].ID)

	cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: rows[1].CreatedAt, ID: rows[1].ID})
	next, err := repo.List(ctx, pagination.Params{Limit: 2, Cursor: cursor}, ListFilters{})
	require.NoError(t, err)
	assert.Len(t, next, 2)

	status := enums.OrderStatusPaid
	filtered, err := repo.List(ctx, pagination.Params{}, ListFilters{Status: &status})
	require.NoError(t, err)
	require.Len(t, filtered, 1)

	byEmail, err := repo.List(ctx, pagination.Params{}, ListFilters{Email: "luis@correo.pe"})
	require.NoError(t, err)
	assert.Len(t, byEmail, 1)
}

func TestRepositoryUpdateStatus(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := newOrder(time.Now().UTC(), "ana@correo.pe", item("p1", 1, 10))
	require.NoError(t, repo.Create(ctx, order))

	stamp := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	require.NoError(t, repo.UpdateStatus(ctx, order.ID, enums.OrderStatusPreparing, stamp))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPreparing, found.Status)
	assert.True(t, found.UpdatedAt.Equal(stamp))

	err = repo.UpdateStatus(ctx, uuid.New(), enums.OrderStatusPaid, stamp)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
