package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/id"
	"smartsewing/internal/domain"
	"smartsewing/internal/domain/documents/purchase_bill"
	"smartsewing/internal/domain/documents/rental_bill"
	"smartsewing/internal/domain/documents/rental_contract"
	"smartsewing/internal/domain/documents/sales_invoice"
	"smartsewing/internal/domain/documents/stock_adjustment"
	"smartsewing/internal/domain/documents/stock_transfer"
	"smartsewing/internal/domain/documents/write_off"
)

// documentRow is what every document pointer type provides through entity.Document.
type documentRow[T any] interface {
	*T
	GetID() id.ID
	GetVersion() int
	Touch()
	GetNumber() string
	GetDate() time.Time
}

// DocumentRepo is a generic document table with its lines kept alongside.
type DocumentRepo[T any, P documentRow[T], L any] struct {
	store *Store
	name  string
	rows  map[id.ID]P
	lines map[id.ID][]L

	// status and party feed the Status and Search filters.
	status func(P) string
	party  func(P) string
}

func newDocumentRepo[T any, P documentRow[T], L any](s *Store, name string, status, party func(P) string) *DocumentRepo[T, P, L] {
	if status == nil {
		status = func(P) string { return "" }
	}
	return &DocumentRepo[T, P, L]{
		store:  s,
		name:   name,
		rows:   make(map[id.ID]P),
		lines:  make(map[id.ID][]L),
		status: status,
		party:  party,
	}
}

// Create inserts a new document.
func (r *DocumentRepo[T, P, L]) Create(ctx context.Context, doc P) error {
	return r.store.write(ctx, func(st *txState) error {
		if _, ok := r.rows[doc.GetID()]; ok {
			return apperror.NewDuplicate(r.name, "id", doc.GetID().String())
		}
		for _, row := range r.rows {
			if row.GetNumber() == doc.GetNumber() {
				return apperror.NewDuplicate(r.name, "number", doc.GetNumber())
			}
		}
		setRow(st, r.rows, doc.GetID(), P(clone[T](doc)))
		return nil
	})
}

// GetByID retrieves a document header by ID.
func (r *DocumentRepo[T, P, L]) GetByID(ctx context.Context, docID id.ID) (P, error) {
	var out P
	err := r.store.read(ctx, func() error {
		row, ok := r.rows[docID]
		if !ok {
			return apperror.NewNotFound(r.name, docID.String())
		}
		out = P(clone[T](row))
		return nil
	})
	return out, err
}

// GetForUpdate retrieves a document header. The store lock serialises writers.
func (r *DocumentRepo[T, P, L]) GetForUpdate(ctx context.Context, docID id.ID) (P, error) {
	return r.GetByID(ctx, docID)
}

// GetByNumber retrieves a document header by number.
func (r *DocumentRepo[T, P, L]) GetByNumber(ctx context.Context, number string) (P, error) {
	var out P
	err := r.store.read(ctx, func() error {
		for _, row := range r.rows {
			if row.GetNumber() == number {
				out = P(clone[T](row))
				return nil
			}
		}
		return apperror.NewNotFound(r.name, number)
	})
	return out, err
}

// Update writes the header if doc's version still matches, then bumps it on doc.
func (r *DocumentRepo[T, P, L]) Update(ctx context.Context, doc P) error {
	return r.store.write(ctx, func(st *txState) error {
		stored, ok := r.rows[doc.GetID()]
		if !ok {
			return apperror.NewNotFound(r.name, doc.GetID().String())
		}
		if stored.GetVersion() != doc.GetVersion() {
			return apperror.NewConcurrentModification(r.name, doc.GetID().String())
		}
		doc.Touch()
		setRow(st, r.rows, doc.GetID(), P(clone[T](doc)))
		return nil
	})
}

// GetLines returns the document lines in stored order.
func (r *DocumentRepo[T, P, L]) GetLines(ctx context.Context, docID id.ID) ([]L, error) {
	var out []L
	err := r.store.read(ctx, func() error {
		out = slices.Clone(r.lines[docID])
		return nil
	})
	return out, err
}

// SaveLines replaces the document lines.
func (r *DocumentRepo[T, P, L]) SaveLines(ctx context.Context, docID id.ID, lines []L) error {
	return r.store.write(ctx, func(st *txState) error {
		if _, ok := r.rows[docID]; !ok {
			return apperror.NewNotFound(r.name, docID.String())
		}
		setRow(st, r.lines, docID, slices.Clone(lines))
		return nil
	})
}

// List retrieves document headers with standard filtering.
func (r *DocumentRepo[T, P, L]) List(ctx context.Context, filter domain.DocumentListFilter) (domain.ListResult[P], error) {
	return r.list(ctx, filter, nil)
}

func (r *DocumentRepo[T, P, L]) list(ctx context.Context, filter domain.DocumentListFilter, keep func(P) bool) (domain.ListResult[P], error) {
	result := domain.ListResult[P]{Limit: filter.Limit, Offset: filter.Offset}
	less, err := documentOrder[P](filter.OrderBy)
	if err != nil {
		return result, err
	}

	err = r.store.read(ctx, func() error {
		search := strings.ToLower(strings.TrimSpace(filter.Search))
		items := make([]P, 0, len(r.rows))
		for _, row := range r.rows {
			if filter.Status != "" && r.status(row) != filter.Status {
				continue
			}
			if filter.From != nil && row.GetDate().Before(*filter.From) {
				continue
			}
			if filter.To != nil && row.GetDate().After(*filter.To) {
				continue
			}
			if search != "" && !r.matches(row, search) {
				continue
			}
			if keep != nil && !keep(row) {
				continue
			}
			items = append(items, P(clone[T](row)))
		}
		slices.SortStableFunc(items, less)
		result.TotalCount = int64(len(items))
		result.Items = page(items, filter.Limit, filter.Offset)
		return nil
	})
	return result, err
}

func (r *DocumentRepo[T, P, L]) matches(row P, search string) bool {
	if strings.Contains(strings.ToLower(row.GetNumber()), search) {
		return true
	}
	return r.party != nil && strings.Contains(strings.ToLower(r.party(row)), search)
}

func documentOrder[P interface {
	GetID() id.ID
	GetNumber() string
	GetDate() time.Time
}](orderBy string) (func(a, b P) int, error) {
	orderBy = strings.TrimSpace(orderBy)
	if orderBy == "" {
		orderBy = "-date"
	}
	desc := strings.HasPrefix(orderBy, "-")
	field := strings.TrimLeft(orderBy, "+-")

	var cmpField func(a, b P) int
	switch field {
	case "date":
		cmpField = func(a, b P) int { return a.GetDate().Compare(b.GetDate()) }
	case "number":
		cmpField = func(a, b P) int { return strings.Compare(a.GetNumber(), b.GetNumber()) }
	default:
		return nil, apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}

	return func(a, b P) int {
		c := cmpField(a, b)
		if c == 0 {
			c = strings.Compare(a.GetID().String(), b.GetID().String())
		}
		if desc {
			return -c
		}
		return c
	}, nil
}

// SalesInvoiceRepo implements sales_invoice.Repository.
type SalesInvoiceRepo struct {
	*DocumentRepo[sales_invoice.Invoice, *sales_invoice.Invoice, sales_invoice.Line]
}

func newSalesInvoiceRepo(s *Store) *SalesInvoiceRepo {
	return &SalesInvoiceRepo{newDocumentRepo[sales_invoice.Invoice, *sales_invoice.Invoice, sales_invoice.Line](s,
		"sales invoice",
		func(d *sales_invoice.Invoice) string { return string(d.Status) },
		func(d *sales_invoice.Invoice) string { return d.CustomerName },
	)}
}

// RentalContractRepo implements rental_contract.Repository.
type RentalContractRepo struct {
	*DocumentRepo[rental_contract.Contract, *rental_contract.Contract, rental_contract.Line]
}

func newRentalContractRepo(s *Store) *RentalContractRepo {
	return &RentalContractRepo{newDocumentRepo[rental_contract.Contract, *rental_contract.Contract, rental_contract.Line](s,
		"rental contract",
		func(d *rental_contract.Contract) string { return string(d.Status) },
		func(d *rental_contract.Contract) string { return d.CustomerName },
	)}
}

// RentalBillRepo implements rental_bill.Repository. Bills have no lines.
type RentalBillRepo struct {
	base *DocumentRepo[rental_bill.Bill, *rental_bill.Bill, struct{}]
}

func newRentalBillRepo(s *Store) *RentalBillRepo {
	return &RentalBillRepo{base: newDocumentRepo[rental_bill.Bill, *rental_bill.Bill, struct{}](s,
		"rental bill",
		func(d *rental_bill.Bill) string { return string(d.Status) },
		func(d *rental_bill.Bill) string { return d.CustomerName + " " + d.ContractNumber },
	)}
}

func (r *RentalBillRepo) Create(ctx context.Context, doc *rental_bill.Bill) error {
	return r.base.Create(ctx, doc)
}

func (r *RentalBillRepo) GetByID(ctx context.Context, docID id.ID) (*rental_bill.Bill, error) {
	return r.base.GetByID(ctx, docID)
}

func (r *RentalBillRepo) GetByNumber(ctx context.Context, number string) (*rental_bill.Bill, error) {
	return r.base.GetByNumber(ctx, number)
}

func (r *RentalBillRepo) Update(ctx context.Context, doc *rental_bill.Bill) error {
	return r.base.Update(ctx, doc)
}

func (r *RentalBillRepo) GetForUpdate(ctx context.Context, docID id.ID) (*rental_bill.Bill, error) {
	return r.base.GetForUpdate(ctx, docID)
}

// List filters by contract on top of the standard document filter.
func (r *RentalBillRepo) List(ctx context.Context, filter rental_bill.ListFilter) (domain.ListResult[*rental_bill.Bill], error) {
	return r.base.list(ctx, filter.DocumentListFilter, func(b *rental_bill.Bill) bool {
		return filter.ContractID == nil || b.ContractID == *filter.ContractID
	})
}

// StockAdjustmentRepo implements stock_adjustment.Repository.
type StockAdjustmentRepo struct {
	*DocumentRepo[stock_adjustment.Adjustment, *stock_adjustment.Adjustment, stock_adjustment.Item]
}

func newStockAdjustmentRepo(s *Store) *StockAdjustmentRepo {
	return &StockAdjustmentRepo{newDocumentRepo[stock_adjustment.Adjustment, *stock_adjustment.Adjustment, stock_adjustment.Item](s,
		"stock adjustment",
		nil,
		func(d *stock_adjustment.Adjustment) string { return d.Reason },
	)}
}

// StockTransferRepo implements stock_transfer.Repository.
type StockTransferRepo struct {
	*DocumentRepo[stock_transfer.Transfer, *stock_transfer.Transfer, stock_transfer.Line]
}

func newStockTransferRepo(s *Store) *StockTransferRepo {
	return &StockTransferRepo{newDocumentRepo[stock_transfer.Transfer, *stock_transfer.Transfer, stock_transfer.Line](s,
		"stock transfer", nil, nil,
	)}
}

// WriteOffRepo implements write_off.Repository.
type WriteOffRepo struct {
	*DocumentRepo[write_off.WriteOff, *write_off.WriteOff, write_off.Line]
}

func newWriteOffRepo(s *Store) *WriteOffRepo {
	return &WriteOffRepo{newDocumentRepo[write_off.WriteOff, *write_off.WriteOff, write_off.Line](s,
		"write-off",
		func(d *write_off.WriteOff) string { return string(d.Status) },
		func(d *write_off.WriteOff) string { return d.Reason },
	)}
}

// PurchaseBillRepo implements purchase_bill.Repository.
type PurchaseBillRepo struct {
	*DocumentRepo[purchase_bill.PurchaseBill, *purchase_bill.PurchaseBill, purchase_bill.Line]
}

func newPurchaseBillRepo(s *Store) *PurchaseBillRepo {
	return &PurchaseBillRepo{newDocumentRepo[purchase_bill.PurchaseBill, *purchase_bill.PurchaseBill, purchase_bill.Line](s,
		"purchase bill",
		func(d *purchase_bill.PurchaseBill) string { return string(d.Status) },
		func(d *purchase_bill.PurchaseBill) string { return d.SupplierName },
	)}
}

var (
	_ sales_invoice.Repository    = (*SalesInvoiceRepo)(nil)
	_ rental_contract.Repository  = (*RentalContractRepo)(nil)
	_ rental_bill.Repository      = (*RentalBillRepo)(nil)
	_ stock_adjustment.Repository = (*StockAdjustmentRepo)(nil)
	_ stock_transfer.Repository   = (*StockTransferRepo)(nil)
	_ write_off.Repository        = (*WriteOffRepo)(nil)
	_ purchase_bill.Repository    = (*PurchaseBillRepo)(nil)
)
