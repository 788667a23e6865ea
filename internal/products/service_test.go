package product

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/diegojoyero/joyeria-backend/internal/activity"
	"github.com/diegojoyero/joyeria-backend/pkg/db/dbtest"
	"github.com/diegojoyero/joyeria-backend/pkg/db/models"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
	pkgerrors "github.com/diegojoyero/joyeria-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordedActivity struct {
	action enums.ActivityAction
	title  string
	desc   string
}

type activityStub struct {
	entries []recordedActivity
}

func (a *activityStub) Record(_ context.Context, action enums.ActivityAction, title, description string) (*activity.EntryDTO, error) {
	a.entries = append(a.entries, recordedActivity{action: action, title: title, desc: description})
	return &activity.EntryDTO{Action: action, Title: title, Description: description}, nil
}

type rowCounter map[string]int

func (c rowCounter) AddImportRows(outcome string, n int) { c[outcome] += n }

var seedBase = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func seedProduct(t *testing.T, repo *Repository, name string, mutate func(*models.Product)) models.Product {
	t.Helper()
	seedBase = seedBase.Add(time.Minute)
	p := models.Product{
		ID:        uuid.New(),
		Name:      name,
		Price:     decimal.NewFromInt(100),
		Material:  enums.MaterialGold,
		Category:  "Anillos",
		Stock:     5,
		Status:    enums.ProductStatusActive,
		CreatedAt: seedBase,
		UpdatedAt: seedBase,
	}
	if mutate != nil {
		mutate(&p)
	}
	require.NoError(t, repo.Create(context.Background(), &p))
	return p
}

func newTestService(t *testing.T) (*Repository, Service, *activityStub, rowCounter) {
	t.Helper()
	repo := NewRepository(dbtest.Open(t))
	rec := &activityStub{}
	counter := rowCounter{}
	svc, err := NewService(repo, rec, counter, nil)
	require.NoError(t, err)
	return repo, svc, rec, counter
}

func TestListCatalogActiveInStockFeaturedFirst(t *testing.T) {
	repo, svc, _, _ := newTestService(t)
	seedProduct(t, repo, "Anillo Sol", nil)
	seedProduct(t, repo, "Aros Brisa", func(p *models.Product) { p.Category = "aretes"; p.Featured = true })
	seedProduct(t, repo, "Cadena Agotada", func(p *models.Product) { p.Category = "Cadenas"; p.Stock = 0 })
	seedProduct(t, repo, "Dije Oculto", func(p *models.Product) { p.Category = "Dijes"; p.Status = enums.ProductStatusInactive })
	seedProduct(t, repo, "Dije Plata", func(p *models.Product) { p.Category = "Dijes"; p.Material = enums.MaterialSilver })

	gold := enums.MaterialGold
	catalog, err := svc.ListCatalog(context.Background(), CatalogInput{Material: &gold})
	require.NoError(t, err)
	require.Len(t, catalog.Products, 2)
	assert.Equal(t, "Aros Brisa", catalog.Products[0].Name)
	assert.Equal(t, "Aros", catalog.Products[0].CategoryLabel)
	assert.Equal(t, []string{"Anillos", "Aros"}, catalog.Categories)

	filtered, err := svc.ListCatalog(context.Background(), CatalogInput{Material: &gold, Category: "aros"})
	require.NoError(t, err)
	require.Len(t, filtered.Products, 1)
	assert.Equal(t, "Aros Brisa", filtered.Products[0].Name)
	assert.Len(t, filtered.Categories, 2)
}

func TestLandingRestrictsCategories(t *testing.T) {
	repo, svc, _, _ := newTestService(t)
	seedProduct(t, repo, "Anillo Sol", nil)
	seedProduct(t, repo, "Broche Nube", func(p *models.Product) { p.Category = "Broches" })
	seedProduct(t, repo, "Cadena Luna", func(p *models.Product) { p.Category = "Cadenas"; p.Featured = true })

	all, err := svc.Landing(context.Background(), LandingInput{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Cadena Luna", all[0].Name)

	featured, err := svc.Landing(context.Background(), LandingInput{FeaturedOnly: true})
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.Equal(t, "Cadena Luna", featured[0].Name)
}

func TestFeaturedOrdersByPrice(t *testing.T) {
	repo, svc, _, _ := newTestService(t)
	for i, price := range []int64{50, 300, 120, 80, 210} {
		price := price
		seedProduct(t, repo, "Pieza "+string(rune('A'+i)), func(p *models.Product) {
			p.Price = decimal.NewFromInt(price)
			p.Featured = true
		})
	}
	gold := enums.MaterialGold
	got, err := svc.Featured(context.Background(), &gold)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.True(t, got[0].Price.Equal(decimal.NewFromInt(300)))
	assert.True(t, got[3].Price.Equal(decimal.NewFromInt(80)))
}

func TestGetHidesInactiveAndUnknown(t *testing.T) {
	repo, svc, _, _ := newTestService(t)
	active := seedProduct(t, repo, "Anillo Sol", nil)
	hidden := seedProduct(t, repo, "Anillo Oculto", func(p *models.Product) { p.Status = enums.ProductStatusInactive })

	dto, err := svc.Get(context.Background(), active.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Anillo Sol", dto.CartProduct().Name)

	for _, id := range []string{hidden.ID.String(), uuid.NewString(), "anillo-sol"} {
		_, err := svc.Get(context.Background(), id)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed, id)
		assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	}
}

func TestAdminListIncludesInactive(t *testing.T) {
	repo, svc, _, _ := newTestService(t)
	seedProduct(t, repo, "Anillo Sol", nil)
	seedProduct(t, repo, "Anillo Oculto", func(p *models.Product) { p.Status = enums.ProductStatusInactive; p.Stock = 0 })
	seedProduct(t, repo, "Dije Plata", func(p *models.Product) { p.Material = enums.MaterialSilver })

	gold := enums.MaterialGold
	rows, err := svc.AdminList(context.Background(), AdminListInput{Material: &gold})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Anillo Oculto", rows[0].Name)

	found, err := svc.AdminList(context.Background(), AdminListInput{Search: "plata"})
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestImportCSVInsertsAndRecordsActivity(t *testing.T) {
	repo, svc, rec, counter := newTestService(t)
	content := "nombre,precio,stock,material\nAnillo Sol,120,2,\nPrecio roto,1.2.3,1,\nCadena Luna,80,4,plata\n"

	result, err := svc.ImportCSV(context.Background(), strings.NewReader(content), enums.MaterialGold)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 2, counter["success"])
	assert.Equal(t, 1, counter["rejected"])

	require.Len(t, rec.entries, 1)
	assert.Equal(t, enums.ActivityActionImport, rec.entries[0].action)
	assert.Equal(t, "Productos importados", rec.entries[0].title)
	assert.Equal(t, "2 producto(s) se añadieron desde Excel/CSV.", rec.entries[0].desc)

	stored, err := repo.ListAll(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "Anillo Sol", stored[0].Name)
}

func TestImportCSVWithoutValidRows(t *testing.T) {
	_, svc, rec, _ := newTestService(t)
	result, err := svc.ImportCSV(context.Background(), strings.NewReader("nombre\n"), enums.MaterialGold)
	require.NoError(t, err)
	assert.Zero(t, result.Inserted)
	require.Len(t, rec.entries, 1)
	assert.Equal(t, "Importación sin cambios", rec.entries[0].title)
}

func TestImportCSVReportsInsertFailure(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	rec := &activityStub{}
	counter := rowCounter{}
	svc, err := NewService(repo, rec, counter, nil)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = svc.ImportCSV(context.Background(), strings.NewReader("name,price\nAnillo Sol,10\n"), enums.MaterialGold)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
	assert.Equal(t, 1, counter["failure"])
	require.Len(t, rec.entries, 1)
	assert.Equal(t, "Importación con errores", rec.entries[0].title)
}

func TestCreateManyIsAtomic(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	rows, err := ParseCSV("name,price\nBueno,10\nMalo,5\n", enums.MaterialGold, seedBase)
	require.NoError(t, err)
	rows[1].Price = decimal.NewFromInt(-1)

	require.Error(t, repo.CreateMany(context.Background(), rows))
	all, err := repo.ListAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRepositoryUpdateAndDelete(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()
	p := seedProduct(t, repo, "Anillo Sol", func(p *models.Product) { p.Featured = true })

	p.Featured = false
	p.Stock = 0
	p.Name = "Anillo Sol II"
	require.NoError(t, repo.Update(ctx, &p))
	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.Featured)
	assert.Zero(t, got.Stock)
	assert.Equal(t, "Anillo Sol II", got.Name)

	require.NoError(t, repo.Delete(ctx, p.ID))
	assert.ErrorIs(t, repo.Delete(ctx, p.ID), gorm.ErrRecordNotFound)
	missing := models.Product{ID: uuid.New()}
	assert.ErrorIs(t, repo.Update(ctx, &missing), gorm.ErrRecordNotFound)
}
