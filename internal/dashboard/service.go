package dashboard

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/diegojoyero/joyeria-backend/internal/activity"
	"github.com/diegojoyero/joyeria-backend/internal/orders"
	product "github.com/diegojoyero/joyeria-backend/internal/products"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
	"github.com/diegojoyero/joyeria-backend/pkg/logger"
)

const recentOrdersLimit = 5

type productLister interface {
	AdminList(ctx context.Context, input product.AdminListInput) ([]product.ProductDTO, error)
}

type activityFeed interface {
	Record(ctx context.Context, action enums.ActivityAction, title, description string) (*activity.EntryDTO, error)
	Recent(ctx context.Context, limit int) ([]activity.EntryDTO, error)
}

type orderFeed interface {
	Recent(ctx context.Context, limit int) ([]orders.OrderDTO, error)
}

// Overview is everything the dashboard home renders.
type Overview struct {
	Metrics      Metrics              `json:"metrics"`
	Products     []product.ProductDTO `json:"products"`
	Activity     []activity.EntryDTO  `json:"activity"`
	RecentOrders []orders.OrderDTO    `json:"recentOrders"`
}

// Service builds the admin dashboard.
type Service interface {
	Overview(ctx context.Context, material *enums.Material) (*Overview, error)
	SyncInventory(ctx context.Context, material *enums.Material) (*Overview, error)
}

type service struct {
	products productLister
	activity activityFeed
	orders   orderFeed
	logg     *logger.Logger
}

// NewService wires the dashboard over the catalog, activity and order services.
func NewService(products productLister, feed activityFeed, recent orderFeed, logg *logger.Logger) (Service, error) {
	if products == nil {
		return nil, fmt.Errorf("products service required")
	}
	if feed == nil {
		return nil, fmt.Errorf("activity service required")
	}
	if recent == nil {
		return nil, fmt.Errorf("orders service required")
	}
	return &service{products: products, activity: feed, orders: recent, logg: logg}, nil
}

// Overview loads products, activity and recent orders concurrently. Any failure
// fails the whole overview.
func (s *service) Overview(ctx context.Context, material *enums.Material) (*Overview, error) {
	var out Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.products.AdminList(gctx, product.AdminListInput{Material: material})
		if err != nil {
			return err
		}
		out.Products = rows
		out.Metrics = ComputeMetrics(rows)
		return nil
	})
	g.Go(func() error {
		feed, err := s.activity.Recent(gctx, activity.FeedLimit)
		if err != nil {
			return err
		}
		out.Activity = feed
		return nil
	})
	g.Go(func() error {
		recent, err := s.orders.Recent(gctx, recentOrdersLimit)
		if err != nil {
			return err
		}
		out.RecentOrders = recent
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logg.Error(ctx, "dashboard.overview_failed", err)
		return nil, err
	}
	return &out, nil
}

// SyncInventory re-reads the catalog and records the sync in the feed.
func (s *service) SyncInventory(ctx context.Context, material *enums.Material) (*Overview, error) {
	if _, err := s.products.AdminList(ctx, product.AdminListInput{Material: material}); err != nil {
		return nil, err
	}
	if _, err := s.activity.Record(ctx, enums.ActivityActionUpdate, "Sincronización completada", "El inventario se actualizó con los datos de la tienda."); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "dashboard.sync_activity_failed")
	}
	return s.Overview(ctx, material)
}
