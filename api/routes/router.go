package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/diegojoyero/joyeria-backend/api/controllers"
	"github.com/diegojoyero/joyeria-backend/api/middleware"
	"github.com/diegojoyero/joyeria-backend/internal/auth"
	"github.com/diegojoyero/joyeria-backend/internal/catalogeditor"
	checkoutsvc "github.com/diegojoyero/joyeria-backend/internal/checkout"
	"github.com/diegojoyero/joyeria-backend/internal/dashboard"
	"github.com/diegojoyero/joyeria-backend/internal/orders"
	products "github.com/diegojoyero/joyeria-backend/internal/products"
	"github.com/diegojoyero/joyeria-backend/internal/runtimeconfig"
	"github.com/diegojoyero/joyeria-backend/pkg/auth/session"
	"github.com/diegojoyero/joyeria-backend/pkg/config"
	"github.com/diegojoyero/joyeria-backend/pkg/logger"
	pkgredis "github.com/diegojoyero/joyeria-backend/pkg/redis"
)

// KeyValueStore backs idempotent replays and login throttling.
type KeyValueStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Dependencies are the collaborators the router hands to controllers. Nil
// services produce 500s on their routes instead of panics.
type Dependencies struct {
	Store         KeyValueStore
	Sessions      session.AccessSessionChecker
	Admins        middleware.ActiveAdminChecker
	Health        map[string]controllers.Pinger
	Gatherer      prometheus.Gatherer
	RuntimeConfig *runtimeconfig.Loader
	Visitors      controllers.VisitorSessions
	Auth          auth.Service
	Products      products.Service
	Editor        *catalogeditor.Editor
	Checkout      checkoutsvc.Service
	Orders        orders.Service
	Dashboard     dashboard.Service
	Images        controllers.ImageDestroyer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Health))
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	loader := deps.RuntimeConfig
	if loader == nil {
		loader = runtimeconfig.NewLoader()
	}
	r.With(middleware.NoStore).Get("/api/runtime-config", runtimeconfig.Handler(loader))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.VisitorToken(logg))
		r.Use(middleware.Idempotency(deps.Store, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.Visitors, logg))
			r.Delete("/", controllers.CartClear(deps.Visitors, logg))
			r.Post("/items", controllers.CartAddItem(deps.Visitors, deps.Products, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.Visitors, logg))
			r.Put("/items/{productId}", controllers.CartUpdateQuantity(deps.Visitors, logg))
			r.Post("/items/{productId}/increment", controllers.CartIncrementItem(deps.Visitors, logg))
			r.Post("/items/{productId}/decrement", controllers.CartDecrementItem(deps.Visitors, logg))
			r.Post("/open", controllers.CartOpen(deps.Visitors, logg))
			r.Post("/close", controllers.CartClose(deps.Visitors, logg))
			r.Post("/toggle", controllers.CartToggle(deps.Visitors, logg))
		})

		r.Route("/theme", func(r chi.Router) {
			r.Get("/", controllers.ThemeGet(deps.Visitors, logg))
			r.Put("/", controllers.ThemeSet(deps.Visitors, logg))
			r.Post("/toggle", controllers.ThemeToggle(deps.Visitors, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.CatalogList(deps.Products, deps.Visitors, logg))
			r.Get("/landing", controllers.CatalogLanding(deps.Products, deps.Visitors, logg))
			r.Get("/{productId}", controllers.CatalogGet(deps.Products, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", controllers.CheckoutEnter(deps.Checkout, deps.Visitors, logg))
			r.Patch("/customer", controllers.CheckoutUpdateCustomer(deps.Checkout, deps.Visitors, logg))
			r.Post("/payment", controllers.CheckoutGoToPayment(deps.Checkout, deps.Visitors, logg))
			r.Put("/payment-method", controllers.CheckoutSelectPaymentMethod(deps.Checkout, deps.Visitors, logg))
			r.Post("/confirmation", controllers.CheckoutGoToConfirmation(deps.Checkout, deps.Visitors, logg))
			r.Put("/terms", controllers.CheckoutAcceptTerms(deps.Checkout, deps.Visitors, logg))
			r.Post("/back", controllers.CheckoutBack(deps.Checkout, deps.Visitors, logg))
			r.Post("/submit", controllers.CheckoutSubmit(deps.Checkout, deps.Visitors, logg))
		})

		r.Get("/orders/{orderId}", controllers.OrderTrack(deps.Orders, logg))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Store, logg)).Post("/login", controllers.AdminAuthLogin(deps.Auth, logg))
		r.Get("/session", controllers.AdminAuthSession(deps.Auth, logg))
		r.Post("/logout", controllers.AdminAuthLogout(deps.Auth, logg))
		r.Post("/refresh", controllers.AdminAuthRefresh(deps.Auth, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.AdminGate(cfg.JWT, deps.Sessions, deps.Admins, logg))
		r.Use(middleware.Idempotency(deps.Store, logg))

		r.Get("/dashboard", controllers.AdminDashboard(deps.Dashboard, logg))
		r.Post("/inventory/sync", controllers.AdminInventorySync(deps.Dashboard, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminProductList(deps.Editor, logg))
			r.Post("/", controllers.AdminProductCreate(deps.Editor, logg))
			r.Post("/import", controllers.AdminProductImport(deps.Products, logg))
			r.Delete("/{productId}", controllers.AdminProductDelete(deps.Editor, logg))
			r.Patch("/{productId}/draft", controllers.AdminProductStageDraft(deps.Editor, logg))
			r.Delete("/{productId}/draft", controllers.AdminProductDiscardDraft(deps.Editor, logg))
			r.Post("/{productId}/image", controllers.AdminProductStageImage(deps.Editor, logg))
			r.Post("/{productId}/save", controllers.AdminProductSave(deps.Editor, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(deps.Orders, logg))
			r.Patch("/{orderId}/status", controllers.AdminOrderUpdateStatus(deps.Orders, logg))
		})

		r.HandleFunc("/media/destroy", controllers.MediaDestroy(deps.Images, logg))
	})

	return r
}
