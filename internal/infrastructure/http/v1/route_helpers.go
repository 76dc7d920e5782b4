package v1

import (
	"github.com/gin-gonic/gin"

	"smartsewing/internal/infrastructure/http/v1/middleware"
)

// CatalogRouteHandler defines the endpoints every catalog handler serves.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	SetActive(c *gin.Context)
}

// CatalogUpdateHandler is implemented by catalogs whose items can be edited.
type CatalogUpdateHandler interface {
	Update(c *gin.Context)
}

// DocumentRouteHandler defines the endpoints every document handler serves.
type DocumentRouteHandler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
}

// DocumentUpdateHandler is implemented by documents editable while in draft.
type DocumentUpdateHandler interface {
	Update(c *gin.Context)
}

// DocumentTransitionHandler is implemented by documents with a status machine.
type DocumentTransitionHandler interface {
	Transition(c *gin.Context)
}

// guard returns the role check for a route group. With authentication
// disabled every route is open.
type guard struct {
	enabled bool
}

func (g guard) roles(roles ...string) gin.HandlerFunc {
	if !g.enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.RequireRole(roles...)
}

// RegisterCatalogRoutes registers the shared catalog routes.
// Reads are open to readers, writes to writers.
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler, g guard, readers, writers []string) {
	group.GET("", g.roles(readers...), handler.List)
	group.POST("", g.roles(writers...), handler.Create)
	group.GET("/:id", g.roles(readers...), handler.Get)
	group.POST("/:id/active", g.roles(writers...), handler.SetActive)

	if u, ok := handler.(CatalogUpdateHandler); ok {
		group.PUT("/:id", g.roles(writers...), u.Update)
	}
}

// RegisterDocumentRoutes registers the shared document routes. Update and
// transition routes are added when the handler supports them.
func RegisterDocumentRoutes(group *gin.RouterGroup, handler DocumentRouteHandler, g guard, readers, writers []string) {
	group.GET("", g.roles(readers...), handler.List)
	group.POST("", g.roles(writers...), handler.Create)
	group.GET("/:id", g.roles(readers...), handler.Get)

	if u, ok := handler.(DocumentUpdateHandler); ok {
		group.PUT("/:id", g.roles(writers...), u.Update)
	}
	if t, ok := handler.(DocumentTransitionHandler); ok {
		group.POST("/:id/transition", g.roles(writers...), t.Transition)
	}
}
