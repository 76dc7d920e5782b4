// Package register_repo provides PostgreSQL implementations for register repositories.
package register_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/entity"
	"smartsewing/internal/core/id"
	"smartsewing/internal/domain"
	"smartsewing/internal/domain/registers/stock"
	"smartsewing/internal/infrastructure/storage/postgres"
)

const (
	productsTable       = "cat_products"
	locationsTable      = "cat_locations"
	stockMovementsTable = "reg_stock_movements"
	locationStockTable  = "reg_location_stock"
)

var movementColumns = []string{
	"id", "product_id", "location_id", "kind", "quantity",
	"quantity_before", "quantity_after", "reference_type", "reference_id",
	"note", "created_by", "created_at",
}

// movementRow adds the storage form of the reference to stock.Movement.
type movementRow struct {
	stock.Movement
	ReferenceType *string `db:"reference_type"`
	ReferenceID   *id.ID  `db:"reference_id"`
}

func (r *movementRow) toMovement() *stock.Movement {
	m := r.Movement
	m.Reference = entity.ReferenceFromColumns(r.ReferenceType, r.ReferenceID)
	return &m
}

// StockRepo implements stock.Repository.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ stock.Repository = (*StockRepo)(nil)

// NewStockRepo creates a new stock register repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *StockRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// GetProductForUpdate reads a product's quantity and locks the row until commit.
func (r *StockRepo) GetProductForUpdate(ctx context.Context, productID id.ID) (*stock.ProductStock, error) {
	sql, args, err := r.builder.
		Select("id", "name", "quantity", "is_active").
		From(productsTable).
		Where(squirrel.Eq{"id": productID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p stock.ProductStock
	if err := pgxscan.Get(ctx, r.querier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID.String())
		}
		return nil, fmt.Errorf("lock product: %w", err)
	}
	return &p, nil
}

// SetProductQuantity overwrites the on-hand quantity.
func (r *StockRepo) SetProductQuantity(ctx context.Context, productID id.ID, quantity int64) error {
	sql, args, err := r.builder.
		Update(productsTable).
		Set("quantity", quantity).
		Where(squirrel.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set product quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID.String())
	}
	return nil
}

// AppendMovement inserts a movement ledger entry.
func (r *StockRepo) AppendMovement(ctx context.Context, m *stock.Movement) error {
	refType, refID := m.Reference.Columns()
	sql, args, err := r.builder.
		Insert(stockMovementsTable).
		Columns(movementColumns...).
		Values(
			m.ID, m.ProductID, m.LocationID, m.Kind, m.Quantity,
			m.Before, m.After, refType, refID,
			m.Note, m.CreatedBy, m.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// ListMovements returns movements newest first.
func (r *StockRepo) ListMovements(ctx context.Context, filter stock.MovementFilter) (domain.ListResult[*stock.Movement], error) {
	result := domain.ListResult[*stock.Movement]{Limit: filter.Limit, Offset: filter.Offset}

	q := r.builder.Select(movementColumns...).From(stockMovementsTable)
	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.Kind != "" {
		q = q.Where(squirrel.Eq{"kind": filter.Kind})
	}
	if !filter.Reference.IsZero() {
		q = q.Where(squirrel.Eq{
			"reference_type": string(filter.Reference.Kind),
			"reference_id":   filter.Reference.ID,
		})
	}
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.To})
	}

	countSQL, countArgs, err := r.builder.Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	if err := r.querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count movements: %w", err)
	}

	q = q.OrderBy("created_at DESC", "id DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	var rows []*movementRow
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return result, fmt.Errorf("list movements: %w", err)
	}
	result.Items = make([]*stock.Movement, 0, len(rows))
	for _, row := range rows {
		result.Items = append(result.Items, row.toMovement())
	}
	return result, nil
}

// DefaultLocationID returns the default location.
func (r *StockRepo) DefaultLocationID(ctx context.Context) (id.ID, error) {
	var locID id.ID
	err := r.querier(ctx).QueryRow(ctx,
		"SELECT id FROM "+locationsTable+" WHERE is_default LIMIT 1").Scan(&locID)
	if errors.Is(err, pgx.ErrNoRows) {
		return id.Nil(), apperror.NewNotFound("location", "default")
	}
	if err != nil {
		return id.Nil(), fmt.Errorf("default location: %w", err)
	}
	return locID, nil
}

// LocationExists reports whether the location exists.
func (r *StockRepo) LocationExists(ctx context.Context, locationID id.ID) (bool, error) {
	var exists bool
	err := r.querier(ctx).QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM "+locationsTable+" WHERE id = $1)", locationID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("location exists: %w", err)
	}
	return exists, nil
}

func (r *StockRepo) locationStockSelect() squirrel.SelectBuilder {
	return r.builder.
		Select(
			"ls.location_id", "l.code AS location_code", "l.name AS location_name",
			"ls.product_id", "p.name AS product_name", "ls.quantity", "ls.updated_at",
		).
		From(locationStockTable + " ls").
		Join(locationsTable + " l ON l.id = ls.location_id").
		Join(productsTable + " p ON p.id = ls.product_id")
}

// GetLocationStockForUpdate returns the product's location rows ordered by
// location code and locks them until commit.
func (r *StockRepo) GetLocationStockForUpdate(ctx context.Context, productID id.ID) ([]*stock.LocationStock, error) {
	sql, args, err := r.locationStockSelect().
		Where(squirrel.Eq{"ls.product_id": productID}).
		OrderBy("l.code").
		Suffix("FOR UPDATE OF ls").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []*stock.LocationStock
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("lock location stock: %w", err)
	}
	return rows, nil
}

// UpsertLocationStock sets the quantity of one location row.
func (r *StockRepo) UpsertLocationStock(ctx context.Context, locationID, productID id.ID, quantity int64) error {
	_, err := r.querier(ctx).Exec(ctx, `
		INSERT INTO `+locationStockTable+` (location_id, product_id, quantity, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (location_id, product_id) DO UPDATE
		SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
	`, locationID, productID, quantity)
	if err != nil {
		return fmt.Errorf("upsert location stock: %w", err)
	}
	return nil
}

// ListLocationStock returns location rows ordered by location code, then product name.
func (r *StockRepo) ListLocationStock(ctx context.Context, filter stock.LocationStockFilter) ([]*stock.LocationStock, error) {
	q := r.locationStockSelect()
	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"ls.product_id": *filter.ProductID})
	}
	if filter.LocationID != nil {
		q = q.Where(squirrel.Eq{"ls.location_id": *filter.LocationID})
	}
	if filter.ExcludeZero {
		q = q.Where(squirrel.NotEq{"ls.quantity": 0})
	}

	sql, args, err := q.OrderBy("l.code", "p.name").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []*stock.LocationStock
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list location stock: %w", err)
	}
	return rows, nil
}

// ListUnmirroredProducts returns products whose quantity differs from the sum of their location rows.
func (r *StockRepo) ListUnmirroredProducts(ctx context.Context) ([]id.ID, error) {
	sql, args, err := r.builder.
		Select("p.id").
		From(productsTable + " p").
		LeftJoin(locationStockTable + " ls ON ls.product_id = p.id").
		GroupBy("p.id", "p.quantity").
		Having("p.quantity <> COALESCE(SUM(ls.quantity), 0)").
		OrderBy("p.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var ids []id.ID
	if err := pgxscan.Select(ctx, r.querier(ctx), &ids, sql, args...); err != nil {
		return nil, fmt.Errorf("list unmirrored products: %w", err)
	}
	return ids, nil
}
