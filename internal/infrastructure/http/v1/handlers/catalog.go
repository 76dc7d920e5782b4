package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/id"
	"smartsewing/internal/domain"
	"smartsewing/internal/domain/catalogs/location"
	"smartsewing/internal/domain/catalogs/product"
	"smartsewing/internal/domain/finance"
	"smartsewing/internal/infrastructure/http/v1/dto"
)

// CatalogHandler provides the read and activation endpoints every catalog shares.
type CatalogHandler[T domain.CatalogItem] struct {
	*BaseHandler
	service *domain.CatalogService[T]
	// setActive overrides the plain flag toggle when a catalog guards it
	setActive func(ctx context.Context, itemID id.ID, active bool) error
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler[T domain.CatalogItem](base *BaseHandler, service *domain.CatalogService[T]) *CatalogHandler[T] {
	return &CatalogHandler[T]{BaseHandler: base, service: service, setActive: service.SetActive}
}

// ListFilter reads the common catalog filter from the query string.
func (h *CatalogHandler[T]) ListFilter(c *gin.Context) domain.ListFilter {
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Active = h.ParseBoolQuery(c, "active")
	filter.OrderBy = c.DefaultQuery("orderBy", "name")
	filter.Limit, filter.Offset = h.Page(c)
	return filter
}

// List handles GET /{catalog}.
func (h *CatalogHandler[T]) List(c *gin.Context) {
	result, err := h.service.List(c.Request.Context(), h.ListFilter(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromListResult(result))
}

// Get handles GET /{catalog}/:id.
func (h *CatalogHandler[T]) Get(c *gin.Context) {
	itemID, ok := h.ParseID(c)
	if !ok {
		return
	}
	item, err := h.service.GetByID(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// SetActive handles POST /{catalog}/:id/active.
func (h *CatalogHandler[T]) SetActive(c *gin.Context) {
	itemID, ok := h.ParseID(c)
	if !ok {
		return
	}
	var req dto.SetActiveRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.setActive(c.Request.Context(), itemID, req.Active); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "active flag updated")
}

// createItem runs the plain catalog create and answers 201 with the item.
func (h *CatalogHandler[T]) createItem(c *gin.Context, item T) {
	if err := h.service.Create(c.Request.Context(), item); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, item)
}

// --- Products ---

// ProductHandler serves /catalog/products.
type ProductHandler struct {
	*CatalogHandler[*product.Product]
	products *product.Service
}

// NewProductHandler creates a new product handler.
func NewProductHandler(base *BaseHandler, service *product.Service) *ProductHandler {
	h := &ProductHandler{
		CatalogHandler: NewCatalogHandler(base, service.CatalogService),
		products:       service,
	}
	return h
}

// List handles GET /catalog/products with kind and maxQuantity filters.
func (h *ProductHandler) List(c *gin.Context) {
	filter := product.Filter{
		ListFilter: h.ListFilter(c),
		Kind:       product.Kind(c.Query("kind")),
	}
	if raw := c.Query("maxQuantity"); raw != "" {
		maxQty := int64(h.ParseIntQuery(c, "maxQuantity", -1))
		if maxQty < 0 {
			h.Error(c, apperror.NewValidation("invalid maxQuantity"))
			return
		}
		filter.MaxQuantity = &maxQty
	}
	if filter.Kind != "" && !filter.Kind.Valid() {
		h.Error(c, apperror.NewValidation("invalid kind").WithDetail("kind", string(filter.Kind)))
		return
	}

	result, err := h.products.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromListResult(result))
}

// Create handles POST /catalog/products.
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p, err := h.products.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p)
}

// Update handles PUT /catalog/products/:id.
func (h *ProductHandler) Update(c *gin.Context) {
	productID, ok := h.ParseID(c)
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p, err := h.products.Update(c.Request.Context(), productID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// --- Locations ---

// LocationHandler serves /catalog/locations.
type LocationHandler struct {
	*CatalogHandler[*location.Location]
	locations *location.Service
}

// NewLocationHandler creates a new location handler.
func NewLocationHandler(base *BaseHandler, service *location.Service) *LocationHandler {
	h := &LocationHandler{
		CatalogHandler: NewCatalogHandler(base, service.CatalogService),
		locations:      service,
	}
	h.setActive = func(ctx context.Context, locID id.ID, active bool) error {
		if active {
			return service.SetActive(ctx, locID, true)
		}
		return service.Deactivate(ctx, locID)
	}
	return h
}

// Create handles POST /catalog/locations.
func (h *LocationHandler) Create(c *gin.Context) {
	var req dto.CreateLocationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.createItem(c, req.ToEntity())
}

// Update handles PUT /catalog/locations/:id.
func (h *LocationHandler) Update(c *gin.Context) {
	locID, ok := h.ParseID(c)
	if !ok {
		return
	}
	var req dto.UpdateLocationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	loc, err := h.locations.GetByID(ctx, locID)
	if err != nil {
		h.Error(c, err)
		return
	}
	req.Apply(loc)
	if err := h.locations.Update(ctx, loc); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, loc)
}

// SetDefault handles POST /catalog/locations/:id/default.
func (h *LocationHandler) SetDefault(c *gin.Context) {
	locID, ok := h.ParseID(c)
	if !ok {
		return
	}
	loc, err := h.locations.SetDefault(c.Request.Context(), locID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, loc)
}

// GetDefault handles GET /catalog/locations/default.
func (h *LocationHandler) GetDefault(c *gin.Context) {
	loc, err := h.locations.GetDefault(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

// --- Accounts & categories ---

// AccountHandler serves /finance/accounts.
type AccountHandler struct {
	*CatalogHandler[*finance.Account]
	ledger *finance.Service
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(base *BaseHandler, ledger *finance.Service) *AccountHandler {
	return &AccountHandler{CatalogHandler: NewCatalogHandler(base, ledger.Accounts), ledger: ledger}
}

// Create handles POST /finance/accounts.
func (h *AccountHandler) Create(c *gin.Context) {
	var req dto.CreateAccountRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.createItem(c, req.ToEntity())
}

// Balance handles GET /finance/accounts/:id/balance.
func (h *AccountHandler) Balance(c *gin.Context) {
	accountID, ok := h.ParseID(c)
	if !ok {
		return
	}
	balance, err := h.ledger.AccountBalance(c.Request.Context(), accountID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

// CategoryHandler serves /finance/categories.
type CategoryHandler struct {
	*CatalogHandler[*finance.Category]
}

// NewCategoryHandler creates a new category handler.
func NewCategoryHandler(base *BaseHandler, ledger *finance.Service) *CategoryHandler {
	return &CategoryHandler{CatalogHandler: NewCatalogHandler(base, ledger.Categories)}
}

// Create handles POST /finance/categories.
func (h *CategoryHandler) Create(c *gin.Context) {
	var req dto.CreateCategoryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.createItem(c, req.ToEntity())
}
