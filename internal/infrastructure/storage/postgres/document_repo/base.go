// Package document_repo provides PostgreSQL implementations for document repositories.
package document_repo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/id"
	"smartsewing/internal/domain"
	"smartsewing/internal/infrastructure/storage/postgres"
)

const sqlStateUniqueViolation = "23505"

// Header is what every document pointer type provides through entity.Document.
type Header interface {
	GetID() id.ID
	GetVersion() int
	SetVersion(v int)
	Touch()
	GetNumber() string
	GetDate() time.Time
}

// Table describes a document table and its lines table.
type Table struct {
	Name       string
	LinesTable string
	EntityName string
	// StatusColumn is empty for documents without a status.
	StatusColumn string
	// PartyColumn is searched alongside the number.
	PartyColumn string
}

// BaseDocumentRepo provides common CRUD operations for document headers and
// their lines. Embed this in specific document repositories.
type BaseDocumentRepo[T Header, L any] struct {
	txManager  *postgres.TxManager
	inserter   *postgres.BatchInserter
	table      Table
	selectCols []string
	lineCols   []string
	newFn      func() T
}

// NewBaseDocumentRepo creates a new base document repository.
func NewBaseDocumentRepo[T Header, L any](
	txManager *postgres.TxManager,
	table Table,
	selectCols []string,
	newFn func() T,
) *BaseDocumentRepo[T, L] {
	var lineCols []string
	if table.LinesTable != "" {
		lineCols = postgres.ExtractDBColumns[L]()
	}
	return &BaseDocumentRepo[T, L]{
		txManager:  txManager,
		inserter:   postgres.NewBatchInserter(txManager),
		table:      table,
		selectCols: selectCols,
		lineCols:   lineCols,
		newFn:      newFn,
	}
}

// Builder returns a new squirrel builder.
func (r *BaseDocumentRepo[T, L]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseDocumentRepo[T, L]) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *BaseDocumentRepo[T, L]) columnMap(doc T, skip ...string) map[string]any {
	data := postgres.StructToMap(doc)
	out := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if slices.Contains(skip, col) {
			continue
		}
		if val, ok := data[col]; ok {
			out[col] = val
		}
	}
	return out
}

// Create inserts a new document header.
func (r *BaseDocumentRepo[T, L]) Create(ctx context.Context, doc T) error {
	sql, args, err := r.Builder().Insert(r.table.Name).SetMap(r.columnMap(doc)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == sqlStateUniqueViolation {
			return apperror.NewDuplicate(r.table.EntityName, "number", doc.GetNumber()).WithCause(err)
		}
		return fmt.Errorf("insert %s: %w", r.table.Name, err)
	}
	return nil
}

// Update writes the header if doc's version still matches, then bumps it on doc.
func (r *BaseDocumentRepo[T, L]) Update(ctx context.Context, doc T) error {
	expected := doc.GetVersion()
	doc.Touch()

	sql, args, err := r.Builder().
		Update(r.table.Name).
		SetMap(r.columnMap(doc, "id", "created_at", "created_by")).
		Where(squirrel.Eq{"id": doc.GetID()}).
		Where(squirrel.Eq{"version": expected}).
		ToSql()
	if err != nil {
		doc.SetVersion(expected)
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		doc.SetVersion(expected)
		return fmt.Errorf("update %s: %w", r.table.Name, err)
	}
	if result.RowsAffected() == 0 {
		doc.SetVersion(expected)
		return apperror.NewConcurrentModification(r.table.EntityName, doc.GetID().String())
	}
	return nil
}

func (r *BaseDocumentRepo[T, L]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().Select(r.selectCols...).From(r.table.Name)
}

func (r *BaseDocumentRepo[T, L]) findOne(ctx context.Context, q squirrel.SelectBuilder, key string) (T, error) {
	doc := r.newFn()
	sql, args, err := q.ToSql()
	if err != nil {
		return doc, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, r.querier(ctx), doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return doc, apperror.NewNotFound(r.table.EntityName, key)
		}
		return doc, fmt.Errorf("get %s: %w", r.table.EntityName, err)
	}
	return doc, nil
}

// GetByID retrieves a document header by ID.
func (r *BaseDocumentRepo[T, L]) GetByID(ctx context.Context, docID id.ID) (T, error) {
	return r.findOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": docID}), docID.String())
}

// GetByNumber retrieves a document header by number.
func (r *BaseDocumentRepo[T, L]) GetByNumber(ctx context.Context, number string) (T, error) {
	return r.findOne(ctx, r.baseSelect().Where(squirrel.Eq{"number": number}), number)
}

// GetForUpdate retrieves a document header and locks it until commit.
func (r *BaseDocumentRepo[T, L]) GetForUpdate(ctx context.Context, docID id.ID) (T, error) {
	return r.findOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": docID}).Suffix("FOR UPDATE"), docID.String())
}

// GetLines returns the document lines in line order.
func (r *BaseDocumentRepo[T, L]) GetLines(ctx context.Context, docID id.ID) ([]L, error) {
	sql, args, err := r.Builder().
		Select(r.lineCols...).
		From(r.table.LinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []L
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get %s lines: %w", r.table.EntityName, err)
	}
	return lines, nil
}

// SaveLines replaces the document lines. New lines go in through COPY.
func (r *BaseDocumentRepo[T, L]) SaveLines(ctx context.Context, docID id.ID, lines []L) error {
	if _, err := r.querier(ctx).Exec(ctx,
		"DELETE FROM "+r.table.LinesTable+" WHERE document_id = $1", docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}
	if len(lines) == 0 {
		return nil
	}

	columns := append([]string{"document_id"}, r.lineCols...)
	rows := make([][]any, 0, len(lines))
	for i := range lines {
		rows = append(rows, append([]any{docID}, postgres.RowValues(&lines[i], r.lineCols)...))
	}
	if _, err := r.inserter.CopyFromSlice(ctx, r.table.LinesTable, columns, rows); err != nil {
		return fmt.Errorf("copy %s lines: %w", r.table.EntityName, err)
	}
	return nil
}

// List retrieves document headers with standard filtering.
func (r *BaseDocumentRepo[T, L]) List(ctx context.Context, filter domain.DocumentListFilter) (domain.ListResult[T], error) {
	return r.ListWhere(ctx, filter, nil)
}

// ListWhere is List with extra conditions supplied by the embedding repository.
func (r *BaseDocumentRepo[T, L]) ListWhere(ctx context.Context, filter domain.DocumentListFilter, extra []squirrel.Sqlizer) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{Limit: filter.Limit, Offset: filter.Offset}

	q := r.applyFilter(r.baseSelect(), filter)
	for _, cond := range extra {
		q = q.Where(cond)
	}

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := r.querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count %s: %w", r.table.Name, err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy, "id DESC")
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
	if err := pgxscan.Select(ctx, r.querier(ctx), &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list %s: %w", r.table.Name, err)
	}
	return result, nil
}

func (r *BaseDocumentRepo[T, L]) applyFilter(q squirrel.SelectBuilder, filter domain.DocumentListFilter) squirrel.SelectBuilder {
	if filter.Status != "" {
		if r.table.StatusColumn == "" {
			q = q.Where("FALSE")
		} else {
			q = q.Where(squirrel.Eq{r.table.StatusColumn: filter.Status})
		}
	}
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.To})
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + search + "%"
		or := squirrel.Or{squirrel.ILike{"number": pattern}}
		if r.table.PartyColumn != "" {
			or = append(or, squirrel.ILike{r.table.PartyColumn: pattern})
		}
		q = q.Where(or)
	}
	return q
}

func (r *BaseDocumentRepo[T, L]) parseOrderBy(orderBy string) (string, error) {
	orderBy = strings.TrimSpace(orderBy)
	if orderBy == "" {
		return "date DESC", nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	switch field {
	case "date", "number":
		return field + " " + direction, nil
	}
	return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
}
