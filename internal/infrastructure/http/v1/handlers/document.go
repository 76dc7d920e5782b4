package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"smartsewing/internal/core/id"
	"smartsewing/internal/domain"
	"smartsewing/internal/infrastructure/http/v1/dto"
)

// DocumentReader is what every document service offers for reading.
type DocumentReader[T any] interface {
	GetByID(ctx context.Context, docID id.ID) (T, error)
	List(ctx context.Context, filter domain.DocumentListFilter) (domain.ListResult[T], error)
}

// DocumentHandler provides the read endpoints every document shares.
type DocumentHandler[T any] struct {
	*BaseHandler
	reader DocumentReader[T]
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler[T any](base *BaseHandler, reader DocumentReader[T]) *DocumentHandler[T] {
	return &DocumentHandler[T]{BaseHandler: base, reader: reader}
}

// DocumentListFilter reads the common document filter from the query string.
func (h *BaseHandler) DocumentListFilter(c *gin.Context) (domain.DocumentListFilter, bool) {
	filter := domain.DefaultDocumentListFilter()
	filter.Search = c.Query("search")
	filter.Status = c.Query("status")
	filter.OrderBy = c.DefaultQuery("orderBy", "-date")
	filter.Limit, filter.Offset = h.Page(c)

	var ok bool
	if filter.From, ok = h.ParseTimeQuery(c, "from"); !ok {
		return filter, false
	}
	if filter.To, ok = h.ParseTimeQuery(c, "to"); !ok {
		return filter, false
	}
	return filter, true
}

// List handles GET /documents/{kind}.
func (h *DocumentHandler[T]) List(c *gin.Context) {
	filter, ok := h.DocumentListFilter(c)
	if !ok {
		return
	}
	result, err := h.reader.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromListResult(result))
}

// Get handles GET /documents/{kind}/:id.
func (h *DocumentHandler[T]) Get(c *gin.Context) {
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}
	doc, err := h.reader.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// create binds req, runs fn and answers 201 with the document.
func create[Req any, T any](h *BaseHandler, c *gin.Context, fn func(ctx context.Context, req Req) (T, error)) {
	var req Req
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := fn(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

// act runs a state change on the :id document and answers 200 with the result.
func act[T any](h *BaseHandler, c *gin.Context, fn func(ctx context.Context, docID id.ID) (T, error)) {
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}
	doc, err := fn(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// actWith is act with a JSON body.
func actWith[Req any, T any](h *BaseHandler, c *gin.Context, fn func(ctx context.Context, docID id.ID, req Req) (T, error)) {
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}
	var req Req
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := fn(c.Request.Context(), docID, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// transition moves the :id document to the target status named in the body.
func transition[T any, S ~string](h *BaseHandler, c *gin.Context, fn func(ctx context.Context, docID id.ID, target S) (T, error)) {
	actWith(h, c, func(ctx context.Context, docID id.ID, req dto.TransitionRequest) (T, error) {
		return fn(ctx, docID, S(req.Target))
	})
}
