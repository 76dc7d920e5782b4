package dto

import (
	"time"

	"smartsewing/internal/core/id"
	"smartsewing/internal/domain/documents"
	"smartsewing/internal/domain/documents/purchase_bill"
	"smartsewing/internal/domain/documents/rental_bill"
	"smartsewing/internal/domain/documents/rental_contract"
	"smartsewing/internal/domain/documents/sales_invoice"
	"smartsewing/internal/domain/documents/stock_adjustment"
	"smartsewing/internal/domain/documents/stock_transfer"
	"smartsewing/internal/domain/documents/write_off"
	"smartsewing/internal/domain/finance"
)

// TransitionRequest for POST /documents/<kind>/:id/transition.
type TransitionRequest struct {
	Target string `json:"target" binding:"required"`
}

// PaymentRequest records money against a payable document.
type PaymentRequest struct {
	AccountID  id.ID  `json:"accountId" binding:"required"`
	CategoryID *id.ID `json:"categoryId"`
	Amount     Money  `json:"amount"`
	Note       string `json:"note"`
}

// ToInput maps the request onto the payment input.
func (r PaymentRequest) ToInput() documents.PaymentInput {
	return documents.PaymentInput{
		AccountID:  r.AccountID,
		CategoryID: r.CategoryID,
		Amount:     r.Amount.Minor(),
		Note:       r.Note,
	}
}

// PaymentResponse is the document after a payment plus what the ledger did.
type PaymentResponse struct {
	Document any                    `json:"document"`
	Payment  *finance.PaymentResult `json:"payment"`
}

// --- Sales invoice ---

// InvoiceLineRequest is one invoice line. UnitPrice defaults to the product price.
type InvoiceLineRequest struct {
	ProductID id.ID  `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity"`
	UnitPrice *Money `json:"unitPrice"`
}

func invoiceLines(in []InvoiceLineRequest) []sales_invoice.LineInput {
	out := make([]sales_invoice.LineInput, 0, len(in))
	for _, l := range in {
		out = append(out, sales_invoice.LineInput{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: MinorPtr(l.UnitPrice),
		})
	}
	return out
}

// CreateInvoiceRequest for POST /documents/sales-invoices.
type CreateInvoiceRequest struct {
	Date          time.Time            `json:"date"`
	CustomerName  string               `json:"customerName" binding:"required"`
	CustomerPhone *string              `json:"customerPhone"`
	Discount      Money                `json:"discount"`
	Comment       string               `json:"comment"`
	Lines         []InvoiceLineRequest `json:"lines"`
}

// ToInput maps the request onto the service input.
func (r CreateInvoiceRequest) ToInput() sales_invoice.CreateInput {
	return sales_invoice.CreateInput{
		Date:          r.Date,
		CustomerName:  r.CustomerName,
		CustomerPhone: r.CustomerPhone,
		Discount:      r.Discount.Minor(),
		Comment:       r.Comment,
		Lines:         invoiceLines(r.Lines),
	}
}

// UpdateInvoiceRequest for PUT /documents/sales-invoices/:id. Lines, when
// present, replace the existing ones.
type UpdateInvoiceRequest struct {
	Version       int                  `json:"version" binding:"required,min=1"`
	CustomerName  *string              `json:"customerName"`
	CustomerPhone *string              `json:"customerPhone"`
	Discount      *Money               `json:"discount"`
	Comment       *string              `json:"comment"`
	Date          *time.Time           `json:"date"`
	Lines         []InvoiceLineRequest `json:"lines"`
}

// ToInput maps the request onto the service input.
func (r UpdateInvoiceRequest) ToInput() sales_invoice.UpdateInput {
	in := sales_invoice.UpdateInput{
		Version:       r.Version,
		CustomerName:  r.CustomerName,
		CustomerPhone: r.CustomerPhone,
		Discount:      MinorPtr(r.Discount),
		Comment:       r.Comment,
		Date:          r.Date,
	}
	if r.Lines != nil {
		in.Lines = invoiceLines(r.Lines)
	}
	return in
}

// --- Rental contract ---

// ContractLineRequest is one rented asset.
type ContractLineRequest struct {
	ProductID id.ID `json:"productId" binding:"required"`
	Quantity  int64 `json:"quantity"`
}

func contractLines(in []ContractLineRequest) []rental_contract.LineInput {
	out := make([]rental_contract.LineInput, 0, len(in))
	for _, l := range in {
		out = append(out, rental_contract.LineInput{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return out
}

// CreateContractRequest for POST /documents/rental-contracts.
type CreateContractRequest struct {
	Date           time.Time             `json:"date"`
	CustomerName   string                `json:"customerName" binding:"required"`
	CustomerPhone  *string               `json:"customerPhone"`
	StartDate      time.Time             `json:"startDate"`
	PlannedEndDate *time.Time            `json:"plannedEndDate"`
	RentAmount     Money                 `json:"rentAmount"`
	Deposit        Money                 `json:"deposit"`
	Comment        string                `json:"comment"`
	Lines          []ContractLineRequest `json:"lines"`
}

// ToInput maps the request onto the service input.
func (r CreateContractRequest) ToInput() rental_contract.CreateInput {
	return rental_contract.CreateInput{
		Date:           r.Date,
		CustomerName:   r.CustomerName,
		CustomerPhone:  r.CustomerPhone,
		StartDate:      r.StartDate,
		PlannedEndDate: r.PlannedEndDate,
		RentAmount:     r.RentAmount.Minor(),
		Deposit:        r.Deposit.Minor(),
		Comment:        r.Comment,
		Lines:          contractLines(r.Lines),
	}
}

// UpdateContractRequest for PUT /documents/rental-contracts/:id.
type UpdateContractRequest struct {
	Version        int                   `json:"version" binding:"required,min=1"`
	CustomerName   *string               `json:"customerName"`
	CustomerPhone  *string               `json:"customerPhone"`
	StartDate      *time.Time            `json:"startDate"`
	PlannedEndDate *time.Time            `json:"plannedEndDate"`
	RentAmount     *Money                `json:"rentAmount"`
	Deposit        *Money                `json:"deposit"`
	Comment        *string               `json:"comment"`
	Lines          []ContractLineRequest `json:"lines"`
}

// ToInput maps the request onto the service input.
func (r UpdateContractRequest) ToInput() rental_contract.UpdateInput {
	in := rental_contract.UpdateInput{
		Version:        r.Version,
		CustomerName:   r.CustomerName,
		CustomerPhone:  r.CustomerPhone,
		StartDate:      r.StartDate,
		PlannedEndDate: r.PlannedEndDate,
		RentAmount:     MinorPtr(r.RentAmount),
		Deposit:        MinorPtr(r.Deposit),
		Comment:        r.Comment,
	}
	if r.Lines != nil {
		in.Lines = contractLines(r.Lines)
	}
	return in
}

// --- Rental bill ---

// CreateBillRequest for POST /documents/rental-bills. A zero amount bills the
// contract's rent amount.
type CreateBillRequest struct {
	Date        time.Time `json:"date"`
	ContractID  id.ID     `json:"contractId" binding:"required"`
	PeriodStart time.Time `json:"periodStart" binding:"required"`
	PeriodEnd   time.Time `json:"periodEnd" binding:"required"`
	Amount      Money     `json:"amount"`
	Comment     string    `json:"comment"`
}

// ToInput maps the request onto the service input.
func (r CreateBillRequest) ToInput() rental_bill.CreateInput {
	return rental_bill.CreateInput{
		Date:        r.Date,
		ContractID:  r.ContractID,
		PeriodStart: r.PeriodStart,
		PeriodEnd:   r.PeriodEnd,
		Amount:      r.Amount.Minor(),
		Comment:     r.Comment,
	}
}

// MarkPaidRequest settles the outstanding amount of a bill.
type MarkPaidRequest struct {
	AccountID  id.ID  `json:"accountId" binding:"required"`
	CategoryID *id.ID `json:"categoryId"`
	Note       string `json:"note"`
}

// ToInput maps the request onto the service input.
func (r MarkPaidRequest) ToInput() rental_bill.MarkPaidInput {
	return rental_bill.MarkPaidInput{AccountID: r.AccountID, CategoryID: r.CategoryID, Note: r.Note}
}

// --- Stock adjustment ---

// AdjustmentItemRequest is one adjusted product. Quantity is the delta for
// DELTA mode and the counted target for SET mode.
type AdjustmentItemRequest struct {
	ProductID id.ID  `json:"productId" binding:"required"`
	Mode      string `json:"mode"`
	Quantity  int64  `json:"quantity"`
	Note      string `json:"note"`
}

// CreateAdjustmentRequest for POST /documents/stock-adjustments.
type CreateAdjustmentRequest struct {
	Date       time.Time               `json:"date"`
	Reason     string                  `json:"reason" binding:"required"`
	Comment    string                  `json:"comment"`
	LocationID *id.ID                  `json:"locationId"`
	Items      []AdjustmentItemRequest `json:"items"`
}

// ToInput maps the request onto the service input. Mode defaults to DELTA.
func (r CreateAdjustmentRequest) ToInput() stock_adjustment.CreateInput {
	items := make([]stock_adjustment.ItemInput, 0, len(r.Items))
	for _, it := range r.Items {
		mode := stock_adjustment.Mode(it.Mode)
		if mode == "" {
			mode = stock_adjustment.ModeDelta
		}
		items = append(items, stock_adjustment.ItemInput{
			ProductID: it.ProductID,
			Mode:      mode,
			Quantity:  it.Quantity,
			Note:      it.Note,
		})
	}
	return stock_adjustment.CreateInput{
		Date:       r.Date,
		Reason:     r.Reason,
		Comment:    r.Comment,
		LocationID: r.LocationID,
		Items:      items,
	}
}

// --- Stock transfer ---

// TransferLineRequest is one moved product.
type TransferLineRequest struct {
	ProductID id.ID `json:"productId" binding:"required"`
	Quantity  int64 `json:"quantity"`
}

// CreateTransferRequest for POST /documents/stock-transfers.
type CreateTransferRequest struct {
	Date           time.Time             `json:"date"`
	FromLocationID id.ID                 `json:"fromLocationId" binding:"required"`
	ToLocationID   id.ID                 `json:"toLocationId" binding:"required"`
	Comment        string                `json:"comment"`
	Lines          []TransferLineRequest `json:"lines"`
}

// ToInput maps the request onto the service input.
func (r CreateTransferRequest) ToInput() stock_transfer.CreateInput {
	lines := make([]stock_transfer.LineInput, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, stock_transfer.LineInput{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return stock_transfer.CreateInput{
		Date:           r.Date,
		FromLocationID: r.FromLocationID,
		ToLocationID:   r.ToLocationID,
		Comment:        r.Comment,
		Lines:          lines,
	}
}

// --- Write-off ---

// WriteOffLineRequest is one written-off product. UnitValue defaults to the product price.
type WriteOffLineRequest struct {
	ProductID id.ID  `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity"`
	UnitValue *Money `json:"unitValue"`
}

// CreateWriteOffRequest for POST /documents/write-offs.
type CreateWriteOffRequest struct {
	Date       time.Time             `json:"date"`
	Reason     string                `json:"reason" binding:"required"`
	Comment    string                `json:"comment"`
	LocationID *id.ID                `json:"locationId"`
	Lines      []WriteOffLineRequest `json:"lines"`
}

// ToInput maps the request onto the service input.
func (r CreateWriteOffRequest) ToInput() write_off.CreateInput {
	lines := make([]write_off.LineInput, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, write_off.LineInput{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitValue: MinorPtr(l.UnitValue),
		})
	}
	return write_off.CreateInput{
		Date:       r.Date,
		Reason:     r.Reason,
		Comment:    r.Comment,
		LocationID: r.LocationID,
		Lines:      lines,
	}
}

// --- Purchase bill ---

// PurchaseLineRequest is one received product.
type PurchaseLineRequest struct {
	ProductID id.ID `json:"productId" binding:"required"`
	Quantity  int64 `json:"quantity"`
	UnitCost  Money `json:"unitCost"`
}

// CreatePurchaseBillRequest for POST /documents/purchase-bills.
type CreatePurchaseBillRequest struct {
	Date         time.Time             `json:"date"`
	SupplierName string                `json:"supplierName" binding:"required"`
	SupplierRef  *string               `json:"supplierRef"`
	LocationID   *id.ID                `json:"locationId"`
	Comment      string                `json:"comment"`
	Lines        []PurchaseLineRequest `json:"lines"`
}

// ToInput maps the request onto the service input.
func (r CreatePurchaseBillRequest) ToInput() purchase_bill.CreateInput {
	lines := make([]purchase_bill.LineInput, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, purchase_bill.LineInput{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitCost.Minor(),
		})
	}
	return purchase_bill.CreateInput{
		Date:         r.Date,
		SupplierName: r.SupplierName,
		SupplierRef:  r.SupplierRef,
		LocationID:   r.LocationID,
		Comment:      r.Comment,
		Lines:        lines,
	}
}
