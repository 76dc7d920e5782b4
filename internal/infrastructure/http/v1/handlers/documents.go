package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"smartsewing/internal/core/id"
	"smartsewing/internal/domain/documents/purchase_bill"
	"smartsewing/internal/domain/documents/rental_bill"
	"smartsewing/internal/domain/documents/rental_contract"
	"smartsewing/internal/domain/documents/sales_invoice"
	"smartsewing/internal/domain/documents/stock_adjustment"
	"smartsewing/internal/domain/documents/stock_transfer"
	"smartsewing/internal/domain/documents/write_off"
	"smartsewing/internal/infrastructure/http/v1/dto"
)

// --- Sales invoice ---

// SalesInvoiceHandler serves /documents/sales-invoices.
type SalesInvoiceHandler struct {
	*DocumentHandler[*sales_invoice.Invoice]
	svc *sales_invoice.Service
}

// NewSalesInvoiceHandler creates a new sales invoice handler.
func NewSalesInvoiceHandler(base *BaseHandler, svc *sales_invoice.Service) *SalesInvoiceHandler {
	return &SalesInvoiceHandler{DocumentHandler: NewDocumentHandler(base, svc), svc: svc}
}

// Create handles POST /documents/sales-invoices.
func (h *SalesInvoiceHandler) Create(c *gin.Context) {
	create(h.BaseHandler, c, func(ctx context.Context, req dto.CreateInvoiceRequest) (*sales_invoice.Invoice, error) {
		return h.svc.Create(ctx, req.ToInput())
	})
}

// Update handles PUT /documents/sales-invoices/:id.
func (h *SalesInvoiceHandler) Update(c *gin.Context) {
	actWith(h.BaseHandler, c, func(ctx context.Context, docID id.ID, req dto.UpdateInvoiceRequest) (*sales_invoice.Invoice, error) {
		return h.svc.Update(ctx, docID, req.ToInput())
	})
}

// GetByNumber handles GET /documents/sales-invoices/by-number/:number.
func (h *SalesInvoiceHandler) GetByNumber(c *gin.Context) {
	doc, err := h.svc.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Issue handles POST /documents/sales-invoices/:id/issue.
func (h *SalesInvoiceHandler) Issue(c *gin.Context) { act(h.BaseHandler, c, h.svc.Issue) }

// Cancel handles POST /documents/sales-invoices/:id/cancel.
func (h *SalesInvoiceHandler) Cancel(c *gin.Context) { act(h.BaseHandler, c, h.svc.Cancel) }

// Transition handles POST /documents/sales-invoices/:id/transition.
func (h *SalesInvoiceHandler) Transition(c *gin.Context) {
	transition(h.BaseHandler, c, h.svc.Transition)
}

// RecordPayment handles POST /documents/sales-invoices/:id/payments.
func (h *SalesInvoiceHandler) RecordPayment(c *gin.Context) {
	actWith(h.BaseHandler, c, func(ctx context.Context, docID id.ID, req dto.PaymentRequest) (dto.PaymentResponse, error) {
		doc, res, err := h.svc.RecordPayment(ctx, docID, req.ToInput())
		return dto.PaymentResponse{Document: doc, Payment: res}, err
	})
}

// --- Rental contract ---

// RentalContractHandler serves /documents/rental-contracts.
type RentalContractHandler struct {
	*DocumentHandler[*rental_contract.Contract]
	svc *rental_contract.Service
}

// NewRentalContractHandler creates a new rental contract handler.
func NewRentalContractHandler(base *BaseHandler, svc *rental_contract.Service) *RentalContractHandler {
	return &RentalContractHandler{DocumentHandler: NewDocumentHandler(base, svc), svc: svc}
}

// Create handles POST /documents/rental-contracts.
func (h *RentalContractHandler) Create(c *gin.Context) {
	create(h.BaseHandler, c, func(ctx context.Context, req dto.CreateContractRequest) (*rental_contract.Contract, error) {
		return h.svc.Create(ctx, req.ToInput())
	})
}

// Update handles PUT /documents/rental-contracts/:id.
func (h *RentalContractHandler) Update(c *gin.Context) {
	actWith(h.BaseHandler, c, func(ctx context.Context, docID id.ID, req dto.UpdateContractRequest) (*rental_contract.Contract, error) {
		return h.svc.Update(ctx, docID, req.ToInput())
	})
}

// Activate handles POST /documents/rental-contracts/:id/activate.
func (h *RentalContractHandler) Activate(c *gin.Context) { act(h.BaseHandler, c, h.svc.Activate) }

// Close handles POST /documents/rental-contracts/:id/close.
func (h *RentalContractHandler) Close(c *gin.Context) { act(h.BaseHandler, c, h.svc.Close) }

// Transition handles POST /documents/rental-contracts/:id/transition.
func (h *RentalContractHandler) Transition(c *gin.Context) {
	transition(h.BaseHandler, c, h.svc.Transition)
}

// --- Rental bill ---

// RentalBillHandler serves /documents/rental-bills.
type RentalBillHandler struct {
	*BaseHandler
	svc *rental_bill.Service
}

// NewRentalBillHandler creates a new rental bill handler.
func NewRentalBillHandler(base *BaseHandler, svc *rental_bill.Service) *RentalBillHandler {
	return &RentalBillHandler{BaseHandler: base, svc: svc}
}

// List handles GET /documents/rental-bills; contractId narrows to one contract.
func (h *RentalBillHandler) List(c *gin.Context) {
	base, ok := h.DocumentListFilter(c)
	if !ok {
		return
	}
	contractID, ok := h.ParseOptionalIDQuery(c, "contractId")
	if !ok {
		return
	}
	result, err := h.svc.List(c.Request.Context(), rental_bill.ListFilter{
		DocumentListFilter: base,
		ContractID:         contractID,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromListResult(result))
}

// Get handles GET /documents/rental-bills/:id.
func (h *RentalBillHandler) Get(c *gin.Context) {
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}
	doc, err := h.svc.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Create handles POST /documents/rental-bills.
func (h *RentalBillHandler) Create(c *gin.Context) {
	create(h.BaseHandler, c, func(ctx context.Context, req dto.CreateBillRequest) (*rental_bill.Bill, error) {
		return h.svc.Create(ctx, req.ToInput())
	})
}

// Issue handles POST /documents/rental-bills/:id/issue.
func (h *RentalBillHandler) Issue(c *gin.Context) { act(h.BaseHandler, c, h.svc.Issue) }

// Cancel handles POST /documents/rental-bills/:id/cancel.
func (h *RentalBillHandler) Cancel(c *gin.Context) { act(h.BaseHandler, c, h.svc.Cancel) }

// Transition handles POST /documents/rental-bills/:id/transition.
func (h *RentalBillHandler) Transition(c *gin.Context) {
	transition(h.BaseHandler, c, h.svc.Transition)
}

// MarkPaid handles POST /documents/rental-bills/:id/mark-paid.
func (h *RentalBillHandler) MarkPaid(c *gin.Context) {
	actWith(h.BaseHandler, c, func(ctx context.Context, docID id.ID, req dto.MarkPaidRequest) (*rental_bill.Bill, error) {
		return h.svc.MarkPaid(ctx, docID, req.ToInput())
	})
}

// --- Stock documents ---

// StockAdjustmentHandler serves /documents/stock-adjustments.
type StockAdjustmentHandler struct {
	*DocumentHandler[*stock_adjustment.Adjustment]
	svc *stock_adjustment.Service
}

// NewStockAdjustmentHandler creates a new stock adjustment handler.
func NewStockAdjustmentHandler(base *BaseHandler, svc *stock_adjustment.Service) *StockAdjustmentHandler {
	return &StockAdjustmentHandler{DocumentHandler: NewDocumentHandler(base, svc), svc: svc}
}

// Create handles POST /documents/stock-adjustments.
func (h *StockAdjustmentHandler) Create(c *gin.Context) {
	create(h.BaseHandler, c, func(ctx context.Context, req dto.CreateAdjustmentRequest) (*stock_adjustment.Adjustment, error) {
		return h.svc.Create(ctx, req.ToInput())
	})
}

// StockTransferHandler serves /documents/stock-transfers.
type StockTransferHandler struct {
	*DocumentHandler[*stock_transfer.Transfer]
	svc *stock_transfer.Service
}

// NewStockTransferHandler creates a new stock transfer handler.
func NewStockTransferHandler(base *BaseHandler, svc *stock_transfer.Service) *StockTransferHandler {
	return &StockTransferHandler{DocumentHandler: NewDocumentHandler(base, svc), svc: svc}
}

// Create handles POST /documents/stock-transfers.
func (h *StockTransferHandler) Create(c *gin.Context) {
	create(h.BaseHandler, c, func(ctx context.Context, req dto.CreateTransferRequest) (*stock_transfer.Transfer, error) {
		return h.svc.Create(ctx, req.ToInput())
	})
}

// WriteOffHandler serves /documents/write-offs.
type WriteOffHandler struct {
	*DocumentHandler[*write_off.WriteOff]
	svc *write_off.Service
}

// NewWriteOffHandler creates a new write-off handler.
func NewWriteOffHandler(base *BaseHandler, svc *write_off.Service) *WriteOffHandler {
	return &WriteOffHandler{DocumentHandler: NewDocumentHandler(base, svc), svc: svc}
}

// Create handles POST /documents/write-offs.
func (h *WriteOffHandler) Create(c *gin.Context) {
	create(h.BaseHandler, c, func(ctx context.Context, req dto.CreateWriteOffRequest) (*write_off.WriteOff, error) {
		return h.svc.Create(ctx, req.ToInput())
	})
}

// --- Purchase bill ---

// PurchaseBillHandler serves /documents/purchase-bills.
type PurchaseBillHandler struct {
	*DocumentHandler[*purchase_bill.PurchaseBill]
	svc *purchase_bill.Service
}

// NewPurchaseBillHandler creates a new purchase bill handler.
func NewPurchaseBillHandler(base *BaseHandler, svc *purchase_bill.Service) *PurchaseBillHandler {
	return &PurchaseBillHandler{DocumentHandler: NewDocumentHandler(base, svc), svc: svc}
}

// Create handles POST /documents/purchase-bills.
func (h *PurchaseBillHandler) Create(c *gin.Context) {
	create(h.BaseHandler, c, func(ctx context.Context, req dto.CreatePurchaseBillRequest) (*purchase_bill.PurchaseBill, error) {
		return h.svc.Create(ctx, req.ToInput())
	})
}

// RecordPayment handles POST /documents/purchase-bills/:id/payments.
func (h *PurchaseBillHandler) RecordPayment(c *gin.Context) {
	actWith(h.BaseHandler, c, func(ctx context.Context, docID id.ID, req dto.PaymentRequest) (dto.PaymentResponse, error) {
		doc, res, err := h.svc.RecordPayment(ctx, docID, req.ToInput())
		return dto.PaymentResponse{Document: doc, Payment: res}, err
	})
}
