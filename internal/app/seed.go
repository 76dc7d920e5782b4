package app

import (
	"context"
	"fmt"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/domain"
	"smartsewing/internal/domain/catalogs/location"
	"smartsewing/internal/domain/finance"
	"smartsewing/pkg/logger"
)

// SeedReport counts what Seed created.
type SeedReport struct {
	Locations  int
	Accounts   int
	Categories int
}

var (
	seedLocations = []struct {
		code, name string
		kind       location.Kind
	}{
		{"SHOP", "Shop floor", location.KindShop},
		{"WH", "Back warehouse", location.KindWarehouse},
		{"SVC", "Service bench", location.KindService},
	}
	seedAccounts = []struct {
		code, name string
		kind       finance.AccountKind
	}{
		{"CASH", "Cash drawer", finance.AccountCash},
		{"BANK", "Bank account", finance.AccountBank},
		{"BKASH", "bKash wallet", finance.AccountMobile},
	}
	seedCategories = []struct {
		code, name string
		dir        finance.Direction
	}{
		{"SALES", "Sales", finance.DirectionIn},
		{"RENT", "Rental income", finance.DirectionIn},
		{"SERVICE", "Service income", finance.DirectionIn},
		{"PURCHASE", "Stock purchases", finance.DirectionOut},
		{"EXPENSE", "Shop expenses", finance.DirectionOut},
	}
)

// Seed creates the starter locations, accounts and categories. Existing
// codes are skipped so it can run against a populated database. The first
// location becomes the default one.
func Seed(ctx context.Context, c *Container) (SeedReport, error) {
	var report SeedReport

	for _, l := range seedLocations {
		created, err := ensure(ctx, c.Locations.CatalogService, l.code, func() *location.Location {
			return location.NewLocation(l.code, l.name, l.kind)
		})
		if err != nil {
			return report, fmt.Errorf("seed location %s: %w", l.code, err)
		}
		report.Locations += created
	}
	for _, a := range seedAccounts {
		created, err := ensure(ctx, c.Ledger.Accounts, a.code, func() *finance.Account {
			return finance.NewAccount(a.code, a.name, a.kind)
		})
		if err != nil {
			return report, fmt.Errorf("seed account %s: %w", a.code, err)
		}
		report.Accounts += created
	}
	for _, cat := range seedCategories {
		created, err := ensure(ctx, c.Ledger.Categories, cat.code, func() *finance.Category {
			return finance.NewCategory(cat.code, cat.name, cat.dir)
		})
		if err != nil {
			return report, fmt.Errorf("seed category %s: %w", cat.code, err)
		}
		report.Categories += created
	}

	logger.Info(ctx, "seed finished",
		"locations", report.Locations,
		"accounts", report.Accounts,
		"categories", report.Categories,
	)
	return report, nil
}

func ensure[T domain.CatalogItem](ctx context.Context, svc *domain.CatalogService[T], code string, build func() T) (int, error) {
	_, err := svc.GetByCode(ctx, code)
	if err == nil {
		return 0, nil
	}
	if !apperror.IsNotFound(err) {
		return 0, err
	}
	if err := svc.Create(ctx, build()); err != nil {
		return 0, err
	}
	return 1, nil
}
