package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/diegojoyero/joyeria-backend/internal/auth"
	"github.com/diegojoyero/joyeria-backend/pkg/config"
	"github.com/diegojoyero/joyeria-backend/pkg/db"
	"github.com/diegojoyero/joyeria-backend/pkg/logger"
)

var errOffline = errors.New("sessions are not available from adminctl")

// offlineSessions satisfies the auth service without a redis connection;
// adminctl never signs anyone in.
type offlineSessions struct{}

func (offlineSessions) Generate(context.Context, string, uuid.UUID) (string, error) {
	return "", errOffline
}

func (offlineSessions) Rotate(context.Context, string, string) (string, string, error) {
	return "", "", errOffline
}

func (offlineSessions) Revoke(context.Context, string) error { return errOffline }

func (offlineSessions) HasSession(context.Context, string) (bool, error) { return false, errOffline }

func main() {
	email := flag.String("email", "", "admin email")
	password := flag.String("password", "", "admin password (min 8 chars)")
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: adminctl -email <email> -password <password>")
		os.Exit(2)
	}

	logg := logger.New(logger.Options{ServiceName: "adminctl"})
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	ctx := context.Background()
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	svc, err := auth.NewService(auth.ServiceParams{
		Admins:         auth.NewAdminRepository(dbClient.DB()),
		SessionManager: offlineSessions{},
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	admin, err := svc.CreateAdmin(ctx, *email, *password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create admin failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("created admin %s (%s)\n", admin.Email, admin.ID)
}
