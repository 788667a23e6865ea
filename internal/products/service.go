package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/diegojoyero/joyeria-backend/internal/activity"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
	pkgerrors "github.com/diegojoyero/joyeria-backend/pkg/errors"
	"github.com/diegojoyero/joyeria-backend/pkg/logger"
	"github.com/diegojoyero/joyeria-backend/pkg/metrics"
	"github.com/diegojoyero/joyeria-backend/pkg/visibility"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const (
	maxImportBytes       = 5 << 20
	defaultLandingLimit  = 6
	featuredLimit        = 4
	catalogLoadFailedMsg = "No se pudo cargar el catálogo."
	importFailedMsg      = "La importación desde Excel/CSV no se pudo completar. Revisa el formato del archivo."
)

type activityRecorder interface {
	Record(ctx context.Context, action enums.ActivityAction, title, description string) (*activity.EntryDTO, error)
}

type importMetrics interface {
	AddImportRows(outcome string, n int)
}

// ImportResult summarizes a CSV import.
type ImportResult struct {
	Inserted int          `json:"inserted"`
	Skipped  int          `json:"skipped"`
	Products []ProductDTO `json:"products"`
	Errors   []string     `json:"errors,omitempty"`
}

// Service exposes catalog reads and the spreadsheet import.
type Service interface {
	ListCatalog(ctx context.Context, input CatalogInput) (*CatalogDTO, error)
	Landing(ctx context.Context, input LandingInput) ([]ProductDTO, error)
	Featured(ctx context.Context, material *enums.Material) ([]ProductDTO, error)
	Get(ctx context.Context, id string) (*ProductDTO, error)
	AdminList(ctx context.Context, input AdminListInput) ([]ProductDTO, error)
	ImportCSV(ctx context.Context, r io.Reader, theme enums.Material) (*ImportResult, error)
}

type service struct {
	repo     *Repository
	activity activityRecorder
	metrics  importMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the products service.
func NewService(repo *Repository, recorder activityRecorder, rows importMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{repo: repo, activity: recorder, metrics: rows, logg: logg, now: time.Now}, nil
}

// ListCatalog returns active pieces in stock, featured first, along with the
// category tabs available for that slice.
func (s *service) ListCatalog(ctx context.Context, input CatalogInput) (*CatalogDTO, error) {
	status := enums.ProductStatusActive
	rows, err := s.repo.List(ctx, ListFilters{
		Status:        &status,
		Material:      input.Material,
		InStock:       true,
		Search:        input.Search,
		FeaturedFirst: true,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, catalogLoadFailedMsg)
	}

	all := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		if visibility.Listed(row) {
			all = append(all, FromModel(row))
		}
	}
	labels := make([]string, 0, len(all))
	for _, p := range all {
		labels = append(labels, p.CategoryLabel)
	}

	category := strings.TrimSpace(input.Category)
	products := all
	if category != "" && !strings.EqualFold(category, "all") {
		want := NormalizeCategory(category)
		products = make([]ProductDTO, 0, len(all))
		for _, p := range all {
			if p.CategoryLabel == want {
				products = append(products, p)
			}
		}
	}
	return &CatalogDTO{Products: products, Categories: CategoryTabs(labels)}, nil
}

func (s *service) Landing(ctx context.Context, input LandingInput) ([]ProductDTO, error) {
	status := enums.ProductStatusActive
	filters := ListFilters{
		Status:     &status,
		Material:   input.Material,
		Categories: LandingCategories,
		InStock:    true,
		Limit:      input.Limit,
	}
	if input.FeaturedOnly {
		featured := true
		filters.Featured = &featured
	}
	if filters.Limit <= 0 {
		filters.Limit = defaultLandingLimit
	}
	rows, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, catalogLoadFailedMsg)
	}
	return FromModels(rows), nil
}

// Featured returns the most valuable featured pieces of a material.
func (s *service) Featured(ctx context.Context, material *enums.Material) ([]ProductDTO, error) {
	status := enums.ProductStatusActive
	featured := true
	rows, err := s.repo.List(ctx, ListFilters{
		Status:      &status,
		Material:    material,
		Featured:    &featured,
		ByPriceDesc: true,
		Limit:       featuredLimit,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, catalogLoadFailedMsg)
	}
	return FromModels(rows), nil
}

// Get returns an active product. Inactive pieces are not visible to visitors.
func (s *service) Get(ctx context.Context, id string) (*ProductDTO, error) {
	productID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	row, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load product")
	}
	if err := visibility.EnsureProductVisible(row); err != nil {
		return nil, err
	}
	dto := FromModel(*row)
	return &dto, nil
}

func (s *service) AdminList(ctx context.Context, input AdminListInput) ([]ProductDTO, error) {
	rows, err := s.repo.List(ctx, ListFilters{
		Material: input.Material,
		Status:   input.Status,
		Search:   input.Search,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, catalogLoadFailedMsg)
	}
	return FromModels(rows), nil
}

// ImportCSV inserts every valid row of the file in one transaction. Invalid
// rows are skipped and reported; a file without valid rows changes nothing.
func (s *service) ImportCSV(ctx context.Context, r io.Reader, theme enums.Material) (*ImportResult, error) {
	if !theme.IsValid() {
		theme = enums.MaterialGold
	}
	data, err := io.ReadAll(io.LimitReader(r, maxImportBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "no se pudo leer el archivo")
	}
	if len(data) > maxImportBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "el archivo supera el tamaño máximo de 5MB")
	}

	rows, parseErr := ParseCSV(string(data), theme, s.now().UTC())
	rejected := multierr.Errors(parseErr)
	result := &ImportResult{Skipped: len(rejected), Products: []ProductDTO{}}
	for _, rowErr := range rejected {
		result.Errors = append(result.Errors, rowErr.Error())
	}
	s.addRows(metrics.OutcomeRejected, len(rejected))

	if len(rows) == 0 {
		s.record(ctx, "Importación sin cambios", "No se detectaron filas válidas en el archivo.")
		return result, nil
	}

	if err := s.repo.CreateMany(ctx, rows); err != nil {
		s.addRows(metrics.OutcomeFailure, len(rows))
		s.record(ctx, "Importación con errores", "Hubo problemas al procesar el archivo.")
		s.logg.Error(ctx, "products.import_failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, importFailedMsg)
	}

	s.addRows(metrics.OutcomeSuccess, len(rows))
	s.record(ctx, "Productos importados", fmt.Sprintf("%d producto(s) se añadieron desde Excel/CSV.", len(rows)))
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"inserted": len(rows), "skipped": len(rejected)}), "products.imported")

	result.Inserted = len(rows)
	result.Products = FromModels(rows)
	return result, nil
}

func (s *service) record(ctx context.Context, title, description string) {
	if s.activity == nil {
		return
	}
	if _, err := s.activity.Record(ctx, enums.ActivityActionImport, title, description); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "products.import_activity_failed")
	}
}

func (s *service) addRows(outcome string, n int) {
	if s.metrics == nil || n == 0 {
		return
	}
	s.metrics.AddImportRows(outcome, n)
}
