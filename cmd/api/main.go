package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/diegojoyero/joyeria-backend/api/controllers"
	"github.com/diegojoyero/joyeria-backend/api/routes"
	"github.com/diegojoyero/joyeria-backend/internal/activity"
	"github.com/diegojoyero/joyeria-backend/internal/auth"
	"github.com/diegojoyero/joyeria-backend/internal/catalogeditor"
	"github.com/diegojoyero/joyeria-backend/internal/checkout"
	"github.com/diegojoyero/joyeria-backend/internal/dashboard"
	"github.com/diegojoyero/joyeria-backend/internal/notify"
	"github.com/diegojoyero/joyeria-backend/internal/orders"
	product "github.com/diegojoyero/joyeria-backend/internal/products"
	"github.com/diegojoyero/joyeria-backend/internal/runtimeconfig"
	"github.com/diegojoyero/joyeria-backend/internal/storefront"
	"github.com/diegojoyero/joyeria-backend/pkg/auth/session"
	"github.com/diegojoyero/joyeria-backend/pkg/cloudinary"
	"github.com/diegojoyero/joyeria-backend/pkg/config"
	"github.com/diegojoyero/joyeria-backend/pkg/db"
	"github.com/diegojoyero/joyeria-backend/pkg/logger"
	"github.com/diegojoyero/joyeria-backend/pkg/metrics"
	"github.com/diegojoyero/joyeria-backend/pkg/migrate"
	"github.com/diegojoyero/joyeria-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	storefrontMetrics := metrics.NewStorefront(registry)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}
	adminRepo := auth.NewAdminRepository(dbClient.DB())
	authService, err := auth.NewService(auth.ServiceParams{
		Admins:         adminRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return err
	}
	unsubscribe := authService.Subscribe(func(evt auth.Event) {
		evtCtx := logg.WithFields(context.Background(), map[string]any{
			"event":     evt.Type,
			"admin_id":  evt.AdminID.String(),
			"access_id": evt.AccessID,
		})
		logg.Info(evtCtx, "auth.state_changed")
	})
	defer unsubscribe()

	activityService, err := activity.NewService(activity.NewRepository(dbClient.DB()), logg)
	if err != nil {
		return err
	}

	productRepo := product.NewRepository(dbClient.DB())
	productService, err := product.NewService(productRepo, activityService, storefrontMetrics, logg)
	if err != nil {
		return err
	}

	images := cloudinary.NewClient(cfg.Cloudinary,
		cloudinary.WithMetrics(storefrontMetrics),
		cloudinary.WithLogger(logg),
	)
	if !images.Configured() {
		logg.Warn(ctx, "cloudinary not configured; image uploads disabled")
	}
	editor, err := catalogeditor.NewEditor(productRepo, images, activityService, logg)
	if err != nil {
		return err
	}

	ordersService, err := orders.NewService(orders.NewRepository(dbClient.DB()), storefrontMetrics, logg)
	if err != nil {
		return err
	}

	dashboardService, err := dashboard.NewService(productService, activityService, ordersService, logg)
	if err != nil {
		return err
	}

	states, err := checkout.NewRedisStateStore(redisClient, cfg.Checkout.WizardTTL)
	if err != nil {
		return err
	}
	var notifier checkout.Notifier
	if email := notify.NewEmailNotifier(cfg.Notification, notify.WithMetrics(storefrontMetrics), notify.WithLogger(logg)); email.Enabled() {
		notifier = email
	} else {
		logg.Warn(ctx, "notification endpoint not configured; order emails disabled")
	}
	checkoutService, err := checkout.NewService(ordersService, checkout.Options{
		Notifier:      notifier,
		States:        states,
		Metrics:       storefrontMetrics,
		Logger:        logg,
		NotifyTimeout: cfg.Notification.Timeout,
	})
	if err != nil {
		return err
	}

	visitors := storefront.NewRegistry(storefront.Options{
		Store:          redisClient,
		States:         states,
		CartStorageKey: cfg.Cart.StorageKey,
		CartTTL:        cfg.Cart.TTL,
		IdleTTL:        cfg.Cart.VisitorIdle,
		Metrics:        storefrontMetrics,
		Logger:         logg,
	})
	defer visitors.Close()

	handler := routes.NewRouter(cfg, logg, routes.Dependencies{
		Store:    redisClient,
		Sessions: sessionManager,
		Admins:   auth.NewAdminStatus(adminRepo),
		Health: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		Gatherer:      registry,
		RuntimeConfig: runtimeconfig.NewLoader(runtimeconfig.WithDev(cfg.App.IsDev())),
		Visitors:      visitors,
		Auth:          authService,
		Products:      productService,
		Editor:        editor,
		Checkout:      checkoutService,
		Orders:        ordersService,
		Dashboard:     dashboardService,
		Images:        images,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "addr": addr})
	logg.Info(logCtx, "starting api server")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		visitors.Run(gctx, cfg.Cart.SweepInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
