package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"smartsewing/internal/domain"
	"smartsewing/internal/domain/documents/purchase_bill"
	"smartsewing/internal/domain/documents/rental_bill"
	"smartsewing/internal/domain/documents/rental_contract"
	"smartsewing/internal/domain/documents/sales_invoice"
	"smartsewing/internal/domain/documents/stock_adjustment"
	"smartsewing/internal/domain/documents/stock_transfer"
	"smartsewing/internal/domain/documents/write_off"
	"smartsewing/internal/infrastructure/storage/postgres"
)

// SalesInvoiceRepo implements sales_invoice.Repository.
type SalesInvoiceRepo struct {
	*BaseDocumentRepo[*sales_invoice.Invoice, sales_invoice.Line]
}

// NewSalesInvoiceRepo creates a new sales invoice repository.
func NewSalesInvoiceRepo(txManager *postgres.TxManager) *SalesInvoiceRepo {
	return &SalesInvoiceRepo{NewBaseDocumentRepo[*sales_invoice.Invoice, sales_invoice.Line](
		txManager,
		Table{
			Name:         "doc_sales_invoices",
			LinesTable:   "doc_sales_invoice_lines",
			EntityName:   "sales invoice",
			StatusColumn: "status",
			PartyColumn:  "customer_name",
		},
		postgres.ExtractDBColumns[sales_invoice.Invoice](),
		func() *sales_invoice.Invoice { return &sales_invoice.Invoice{} },
	)}
}

// RentalContractRepo implements rental_contract.Repository.
type RentalContractRepo struct {
	*BaseDocumentRepo[*rental_contract.Contract, rental_contract.Line]
}

// NewRentalContractRepo creates a new rental contract repository.
func NewRentalContractRepo(txManager *postgres.TxManager) *RentalContractRepo {
	return &RentalContractRepo{NewBaseDocumentRepo[*rental_contract.Contract, rental_contract.Line](
		txManager,
		Table{
			Name:         "doc_rental_contracts",
			LinesTable:   "doc_rental_contract_lines",
			EntityName:   "rental contract",
			StatusColumn: "status",
			PartyColumn:  "customer_name",
		},
		postgres.ExtractDBColumns[rental_contract.Contract](),
		func() *rental_contract.Contract { return &rental_contract.Contract{} },
	)}
}

// RentalBillRepo implements rental_bill.Repository. Bills have no lines.
type RentalBillRepo struct {
	*BaseDocumentRepo[*rental_bill.Bill, struct{}]
}

// NewRentalBillRepo creates a new rental bill repository.
func NewRentalBillRepo(txManager *postgres.TxManager) *RentalBillRepo {
	return &RentalBillRepo{NewBaseDocumentRepo[*rental_bill.Bill, struct{}](
		txManager,
		Table{
			Name:         "doc_rental_bills",
			EntityName:   "rental bill",
			StatusColumn: "status",
			PartyColumn:  "customer_name",
		},
		postgres.ExtractDBColumns[rental_bill.Bill](),
		func() *rental_bill.Bill { return &rental_bill.Bill{} },
	)}
}

// List filters by contract on top of the standard document filter.
func (r *RentalBillRepo) List(ctx context.Context, filter rental_bill.ListFilter) (domain.ListResult[*rental_bill.Bill], error) {
	var extra []squirrel.Sqlizer
	if filter.ContractID != nil {
		extra = append(extra, squirrel.Eq{"contract_id": *filter.ContractID})
	}
	return r.ListWhere(ctx, filter.DocumentListFilter, extra)
}

// StockAdjustmentRepo implements stock_adjustment.Repository.
type StockAdjustmentRepo struct {
	*BaseDocumentRepo[*stock_adjustment.Adjustment, stock_adjustment.Item]
}

// NewStockAdjustmentRepo creates a new stock adjustment repository.
func NewStockAdjustmentRepo(txManager *postgres.TxManager) *StockAdjustmentRepo {
	return &StockAdjustmentRepo{NewBaseDocumentRepo[*stock_adjustment.Adjustment, stock_adjustment.Item](
		txManager,
		Table{
			Name:        "doc_stock_adjustments",
			LinesTable:  "doc_stock_adjustment_items",
			EntityName:  "stock adjustment",
			PartyColumn: "reason",
		},
		postgres.ExtractDBColumns[stock_adjustment.Adjustment](),
		func() *stock_adjustment.Adjustment { return &stock_adjustment.Adjustment{} },
	)}
}

// StockTransferRepo implements stock_transfer.Repository.
type StockTransferRepo struct {
	*BaseDocumentRepo[*stock_transfer.Transfer, stock_transfer.Line]
}

// NewStockTransferRepo creates a new stock transfer repository.
func NewStockTransferRepo(txManager *postgres.TxManager) *StockTransferRepo {
	return &StockTransferRepo{NewBaseDocumentRepo[*stock_transfer.Transfer, stock_transfer.Line](
		txManager,
		Table{
			Name:       "doc_stock_transfers",
			LinesTable: "doc_stock_transfer_lines",
			EntityName: "stock transfer",
		},
		postgres.ExtractDBColumns[stock_transfer.Transfer](),
		func() *stock_transfer.Transfer { return &stock_transfer.Transfer{} },
	)}
}

// WriteOffRepo implements write_off.Repository.
type WriteOffRepo struct {
	*BaseDocumentRepo[*write_off.WriteOff, write_off.Line]
}

// NewWriteOffRepo creates a new write-off repository.
func NewWriteOffRepo(txManager *postgres.TxManager) *WriteOffRepo {
	return &WriteOffRepo{NewBaseDocumentRepo[*write_off.WriteOff, write_off.Line](
		txManager,
		Table{
			Name:         "doc_write_offs",
			LinesTable:   "doc_write_off_lines",
			EntityName:   "write-off",
			StatusColumn: "status",
			PartyColumn:  "reason",
		},
		postgres.ExtractDBColumns[write_off.WriteOff](),
		func() *write_off.WriteOff { return &write_off.WriteOff{} },
	)}
}

// PurchaseBillRepo implements purchase_bill.Repository.
type PurchaseBillRepo struct {
	*BaseDocumentRepo[*purchase_bill.PurchaseBill, purchase_bill.Line]
}

// NewPurchaseBillRepo creates a new purchase bill repository.
func NewPurchaseBillRepo(txManager *postgres.TxManager) *PurchaseBillRepo {
	return &PurchaseBillRepo{NewBaseDocumentRepo[*purchase_bill.PurchaseBill, purchase_bill.Line](
		txManager,
		Table{
			Name:         "doc_purchase_bills",
			LinesTable:   "doc_purchase_bill_lines",
			EntityName:   "purchase bill",
			StatusColumn: "status",
			PartyColumn:  "supplier_name",
		},
		postgres.ExtractDBColumns[purchase_bill.PurchaseBill](),
		func() *purchase_bill.PurchaseBill { return &purchase_bill.PurchaseBill{} },
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
