package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/entity"
	"smartsewing/internal/domain/documents"
	"smartsewing/internal/domain/registers/stock"
	"smartsewing/internal/infrastructure/http/v1/dto"
)

// StockHandler handles read requests against the stock register.
// Stock only changes through documents.
type StockHandler struct {
	*BaseHandler
	service  *stock.Service
	resolver *documents.ReferenceResolver
}

// NewStockHandler creates a new stock register handler.
func NewStockHandler(base *BaseHandler, service *stock.Service, resolver *documents.ReferenceResolver) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		service:     service,
		resolver:    resolver,
	}
}

// GetProductStock handles GET /registers/stock/products/:id
func (h *StockHandler) GetProductStock(c *gin.Context) {
	productID, ok := h.ParseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	ps, err := h.service.GetProductStock(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	locations, err := h.service.ListLocationStock(ctx, stock.LocationStockFilter{
		ProductID:   &productID,
		ExcludeZero: true,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromProductStock(ps, locations))
}

// GetLocationStock handles GET /registers/stock/locations
func (h *StockHandler) GetLocationStock(c *gin.Context) {
	productID, ok := h.ParseOptionalIDQuery(c, "productId")
	if !ok {
		return
	}
	locationID, ok := h.ParseOptionalIDQuery(c, "locationId")
	if !ok {
		return
	}

	rows, err := h.service.ListLocationStock(c.Request.Context(), stock.LocationStockFilter{
		ProductID:   productID,
		LocationID:  locationID,
		ExcludeZero: c.Query("excludeZero") != "false",
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	if rows == nil {
		rows = []*stock.LocationStock{}
	}
	c.JSON(http.StatusOK, gin.H{"items": rows})
}

// GetMovements handles GET /registers/stock/movements
func (h *StockHandler) GetMovements(c *gin.Context) {
	ctx := c.Request.Context()

	var ref dto.ReferenceQuery
	if !h.BindQuery(c, &ref) {
		return
	}
	reference, err := ref.Parse()
	if err != nil {
		h.Error(c, err)
		return
	}

	filter := stock.MovementFilter{
		Kind:      stock.MovementKind(c.Query("kind")),
		Reference: reference,
	}
	if filter.Kind != "" && !filter.Kind.Valid() {
		h.Error(c, apperror.NewValidation("invalid kind").WithDetail("kind", string(filter.Kind)))
		return
	}
	var ok bool
	if filter.ProductID, ok = h.ParseOptionalIDQuery(c, "productId"); !ok {
		return
	}
	if filter.From, ok = h.ParseTimeQuery(c, "from"); !ok {
		return
	}
	if filter.To, ok = h.ParseTimeQuery(c, "to"); !ok {
		return
	}
	filter.Limit, filter.Offset = h.Page(c)

	result, err := h.service.ListMovements(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	refs := make([]entity.Reference, 0, len(result.Items))
	for _, m := range result.Items {
		refs = append(refs, m.Reference)
	}
	labels, err := h.resolver.ResolveAll(ctx, refs)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.StockMovementResponse, 0, len(result.Items))
	for _, m := range result.Items {
		items = append(items, dto.FromStockMovement(m, labels[m.Reference]))
	}
	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}
