package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"smartsewing/internal/core/entity"
	"smartsewing/internal/core/id"
	"smartsewing/internal/core/types"
	"smartsewing/internal/domain"
	"smartsewing/internal/domain/finance"
	"smartsewing/internal/infrastructure/storage/postgres"
)

const ledgerEntriesTable = "fin_entries"

var entryColumns = []string{
	"id", "account_id", "category_id", "direction", "amount",
	"reference_type", "reference_id", "occurred_at", "note", "created_by", "created_at",
}

type entryRow struct {
	finance.Entry
	ReferenceType *string `db:"reference_type"`
	ReferenceID   *id.ID  `db:"reference_id"`
}

func (r *entryRow) toEntry() *finance.Entry {
	e := r.Entry
	e.Reference = entity.ReferenceFromColumns(r.ReferenceType, r.ReferenceID)
	return &e
}

// EntryRepo implements finance.EntryRepository.
type EntryRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ finance.EntryRepository = (*EntryRepo)(nil)

// NewEntryRepo creates a new ledger entry repository.
func NewEntryRepo(txManager *postgres.TxManager) *EntryRepo {
	return &EntryRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// AppendEntry inserts an entry.
func (r *EntryRepo) AppendEntry(ctx context.Context, e *finance.Entry) error {
	refType, refID := e.Reference.Columns()
	sql, args, err := r.builder.
		Insert(ledgerEntriesTable).
		Columns(entryColumns...).
		Values(
			e.ID, e.AccountID, e.CategoryID, e.Direction, e.Amount,
			refType, refID, e.OccurredAt, e.Note, e.CreatedBy, e.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

func referenceCond(ref entity.Reference) squirrel.Eq {
	return squirrel.Eq{"reference_type": string(ref.Kind), "reference_id": ref.ID}
}

// SumByReference totals the entries of one direction referencing a document.
func (r *EntryRepo) SumByReference(ctx context.Context, ref entity.Reference, dir finance.Direction) (types.MinorUnits, error) {
	sql, args, err := r.builder.
		Select("COALESCE(SUM(amount), 0)").
		From(ledgerEntriesTable).
		Where(referenceCond(ref)).
		Where(squirrel.Eq{"direction": dir}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var sum int64
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum by reference: %w", err)
	}
	return types.MinorUnits(sum), nil
}

// FindByReference returns entries referencing a document, oldest first.
func (r *EntryRepo) FindByReference(ctx context.Context, ref entity.Reference) ([]*finance.Entry, error) {
	sql, args, err := r.builder.
		Select(entryColumns...).
		From(ledgerEntriesTable).
		Where(referenceCond(ref)).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return r.selectEntries(ctx, sql, args)
}

// ListEntries returns entries newest first.
func (r *EntryRepo) ListEntries(ctx context.Context, filter finance.EntryFilter) (domain.ListResult[*finance.Entry], error) {
	result := domain.ListResult[*finance.Entry]{Limit: filter.Limit, Offset: filter.Offset}

	q := r.builder.Select(entryColumns...).From(ledgerEntriesTable)
	if filter.AccountID != nil {
		q = q.Where(squirrel.Eq{"account_id": *filter.AccountID})
	}
	if filter.CategoryID != nil {
		q = q.Where(squirrel.Eq{"category_id": *filter.CategoryID})
	}
	if filter.Direction != "" {
		q = q.Where(squirrel.Eq{"direction": filter.Direction})
	}
	if !filter.Reference.IsZero() {
		q = q.Where(referenceCond(filter.Reference))
	}
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"occurred_at": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.LtOrEq{"occurred_at": *filter.To})
	}

	countSQL, countArgs, err := r.builder.Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count entries: %w", err)
	}

	q = q.OrderBy("occurred_at DESC", "id DESC")
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

	result.Items, err = r.selectEntries(ctx, sql, args)
	return result, err
}

func (r *EntryRepo) selectEntries(ctx context.Context, sql string, args []any) ([]*finance.Entry, error) {
	var rows []*entryRow
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}
	out := make([]*finance.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntry())
	}
	return out, nil
}

// Totals returns Σ IN and Σ OUT of an account.
func (r *EntryRepo) Totals(ctx context.Context, accountID id.ID) (in, out types.MinorUnits, err error) {
	var sumIn, sumOut int64
	err = r.txManager.GetQuerier(ctx).QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE direction = 'IN'), 0),
			COALESCE(SUM(amount) FILTER (WHERE direction = 'OUT'), 0)
		FROM `+ledgerEntriesTable+`
		WHERE account_id = $1
	`, accountID).Scan(&sumIn, &sumOut)
	if err != nil {
		return 0, 0, fmt.Errorf("account totals: %w", err)
	}
	return types.MinorUnits(sumIn), types.MinorUnits(sumOut), nil
}
