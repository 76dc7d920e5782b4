package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"smartsewing/internal/core/id"
	"smartsewing/internal/domain/catalogs/location"
	"smartsewing/internal/infrastructure/storage/postgres"
)

// LocationRepo implements location.Repository.
type LocationRepo struct {
	*BaseCatalogRepo[*location.Location]
}

var _ location.Repository = (*LocationRepo)(nil)

// NewLocationRepo creates a new location repository.
func NewLocationRepo(txManager *postgres.TxManager) *LocationRepo {
	return &LocationRepo{BaseCatalogRepo: NewBaseCatalogRepo(
		txManager,
		"cat_locations",
		"location",
		postgres.ExtractDBColumns[location.Location](),
		func() *location.Location { return &location.Location{} },
	)}
}

// GetDefault returns the default location.
func (r *LocationRepo) GetDefault(ctx context.Context) (*location.Location, error) {
	return r.FindOne(ctx, r.baseSelect().Where(squirrel.Eq{"is_default": true}).Limit(1), "default")
}

// ClearDefault removes the default flag from every location except exceptID.
func (r *LocationRepo) ClearDefault(ctx context.Context, exceptID id.ID) error {
	sql, args, err := r.Builder().
		Update(r.tableName).
		Set("is_default", false).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"is_default": true}).
		Where(squirrel.NotEq{"id": exceptID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build clear default: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("clear default location: %w", err)
	}
	return nil
}
