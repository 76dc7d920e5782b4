// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"smartsewing/internal/app"
	"smartsewing/internal/core/apperror"
	appctx "smartsewing/internal/core/context"
	"smartsewing/internal/core/types"
	"smartsewing/internal/domain/auth"
	"smartsewing/internal/domain/catalogs/product"
	"smartsewing/internal/infrastructure/storage/postgres"
	"smartsewing/pkg/config"
	"smartsewing/pkg/logger"
)

const seedUserID = "seed"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	if cfg.StorageDriver != config.DriverPostgres {
		log.Fatalw("seed requires the postgres storage driver", "storage", cfg.StorageDriver)
	}

	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: seedUserID})

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("connected to database")

	container := app.New(app.PostgresBackend(postgres.NewTxManager(pool), cfg.IdempotencyTTL))

	if _, err := app.Seed(ctx, container); err != nil {
		log.Fatalw("failed to seed reference data", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoProducts(ctx, container, cfg.CurrencySymbol, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	if cfg.JWTSecret != "" {
		if err := printDevToken(cfg.JWTSecret, log); err != nil {
			log.Warnw("failed to issue dev token", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

var demoProducts = []product.CreateInput{
	{Code: "DEMO-THREAD", Title: "Polyester thread 500m", Kind: product.KindGoods, UnitPrice: 8000, OpeningQuantity: 120},
	{Code: "DEMO-SCISSORS", Title: "Tailor scissors 10in", Kind: product.KindGoods, UnitPrice: 65000, OpeningQuantity: 15},
	{Code: "DEMO-NEEDLE", Title: "Machine needles (pack of 5)", Kind: product.KindPart, UnitPrice: 12000, OpeningQuantity: 40},
	{Code: "DEMO-MACHINE", Title: "Industrial lockstitch machine", Kind: product.KindRentalAsset, UnitPrice: 4500000, OpeningQuantity: 4},
}

func seedDemoProducts(ctx context.Context, c *app.Container, symbol string, log *logger.Logger) error {
	var stockValue types.MinorUnits
	for _, in := range demoProducts {
		if _, err := c.Products.GetByCode(ctx, in.Code); err == nil {
			continue
		} else if !apperror.IsNotFound(err) {
			return err
		}

		p, err := c.Products.Create(ctx, in)
		if err != nil {
			return fmt.Errorf("create %s: %w", in.Code, err)
		}
		stockValue += p.UnitPrice.Mul(p.Quantity)
		log.Infow("demo product created", "code", p.Code, "quantity", p.Quantity)
	}
	log.Infow("demo stock seeded", "value", types.FormatMinorUnits(stockValue, symbol))
	return nil
}

// printDevToken issues an admin token for local testing.
func printDevToken(secret string, log *logger.Logger) error {
	jwtService, err := auth.NewJWTService(auth.DefaultJWTConfig(secret))
	if err != nil {
		return err
	}

	roles := []string{auth.RoleAdmin}
	if raw := os.Getenv("DEV_TOKEN_ROLES"); raw != "" {
		roles = strings.Split(raw, ",")
	}
	token, expiresAt, err := jwtService.GenerateAccessToken(appctx.UserContext{
		UserID: "dev-admin",
		Email:  "admin@smartsewing.local",
		Roles:  roles,
	})
	if err != nil {
		return err
	}
	log.Infow("dev token issued", "roles", roles, "expires_at", expiresAt)
	fmt.Println(token)
	return nil
}
