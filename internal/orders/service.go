package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diegojoyero/joyeria-backend/pkg/db/models"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
	pkgerrors "github.com/diegojoyero/joyeria-backend/pkg/errors"
	"github.com/diegojoyero/joyeria-backend/pkg/logger"
	"github.com/diegojoyero/joyeria-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type orderMetrics interface {
	IncOrderPlaced()
	IncStatusTransition(from, to string)
}

// Service exposes order placement, public tracking and the admin status table.
type Service interface {
	Place(ctx context.Context, order *models.Order) (*models.Order, error)
	Track(ctx context.Context, id string) (*TrackingDTO, error)
	AdminList(ctx context.Context, params pagination.Params, filters ListFilters) (*pagination.Page[OrderDTO], error)
	AdminUpdateStatus(ctx context.Context, id, status string) (*OrderDTO, error)
	Recent(ctx context.Context, limit int) ([]OrderDTO, error)
}

type service struct {
	repo    Repository
	metrics orderMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the orders service.
func NewService(repo Repository, metrics orderMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo, metrics: metrics, logg: logg, now: time.Now}, nil
}

func (s *service) Place(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	if len(order.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order contains no items")
	}
	if !order.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.Status == "" {
		order.Status = enums.OrderStatusReceived
	}
	now := s.now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = order.CreatedAt
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to persist order")
	}
	if s.metrics != nil {
		s.metrics.IncOrderPlaced()
	}
	return order, nil
}

func (s *service) Track(ctx context.Context, id string) (*TrackingDTO, error) {
	orderID, err := parseOrderID(id)
	if err != nil {
		return nil, err
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapLookupError(err)
	}
	tracking := trackingFor(FromModel(*order))
	return &tracking, nil
}

func (s *service) AdminList(ctx context.Context, params pagination.Params, filters ListFilters) (*pagination.Page[OrderDTO], error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list orders")
	}
	dtos := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, FromModel(row))
	}
	page := pagination.BuildPage(dtos, params.Limit, func(o OrderDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return &page, nil
}

// AdminUpdateStatus moves an order to any known status and stamps updated_at.
// Administrators may also move an order backwards to correct mistakes.
func (s *service) AdminUpdateStatus(ctx context.Context, id, status string) (*OrderDTO, error) {
	orderID, err := parseOrderID(id)
	if err != nil {
		return nil, err
	}
	next, err := enums.ParseOrderStatus(strings.TrimSpace(status))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status")
	}

	current, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapLookupError(err)
	}
	if current.Status == next {
		dto := FromModel(*current)
		return &dto, nil
	}

	now := s.now().UTC()
	if err := s.repo.UpdateStatus(ctx, orderID, next, now); err != nil {
		return nil, mapLookupError(err)
	}
	if s.metrics != nil {
		s.metrics.IncStatusTransition(current.Status.String(), next.String())
	}
	ctx = s.logg.WithOrderID(ctx, orderID.String())
	ctx = s.logg.WithFields(ctx, map[string]any{"from": current.Status, "to": next})
	s.logg.Info(ctx, "order.status_updated")

	current.Status = next
	current.UpdatedAt = now
	dto := FromModel(*current)
	return &dto, nil
}

func (s *service) Recent(ctx context.Context, limit int) ([]OrderDTO, error) {
	rows, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load recent orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

func parseOrderID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return parsed, nil
}

func mapLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load order")
}
