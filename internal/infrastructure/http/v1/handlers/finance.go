package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/domain/finance"
	"smartsewing/internal/infrastructure/http/v1/dto"
)

// LedgerHandler serves /finance/entries.
type LedgerHandler struct {
	*BaseHandler
	ledger *finance.Service
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(base *BaseHandler, ledger *finance.Service) *LedgerHandler {
	return &LedgerHandler{BaseHandler: base, ledger: ledger}
}

// ListEntries handles GET /finance/entries.
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	var ref dto.ReferenceQuery
	if !h.BindQuery(c, &ref) {
		return
	}
	reference, err := ref.Parse()
	if err != nil {
		h.Error(c, err)
		return
	}

	filter := finance.EntryFilter{
		Direction: finance.Direction(c.Query("direction")),
		Reference: reference,
	}
	if filter.Direction != "" && !filter.Direction.Valid() {
		h.Error(c, apperror.NewValidation("invalid direction").WithDetail("direction", string(filter.Direction)))
		return
	}
	var ok bool
	if filter.AccountID, ok = h.ParseOptionalIDQuery(c, "accountId"); !ok {
		return
	}
	if filter.CategoryID, ok = h.ParseOptionalIDQuery(c, "categoryId"); !ok {
		return
	}
	if filter.From, ok = h.ParseTimeQuery(c, "from"); !ok {
		return
	}
	if filter.To, ok = h.ParseTimeQuery(c, "to"); !ok {
		return
	}
	filter.Limit, filter.Offset = h.Page(c)

	result, err := h.ledger.ListEntries(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromListResult(result))
}

// CreateEntry handles POST /finance/entries: income or expense not tied to a document.
func (h *LedgerHandler) CreateEntry(c *gin.Context) {
	var req dto.CreateEntryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	entry, err := h.ledger.CreateEntry(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, entry)
}
