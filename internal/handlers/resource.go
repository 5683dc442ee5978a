package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/expressions"
	"github.com/Ramsey-B/clover/pkg/storage"
	"github.com/Ramsey-B/clover/pkg/utils"
)

// ResourceHandler serves the CRUD routes of a top-level collection.
type ResourceHandler[T any, I any, P any] struct {
	path      string
	entity    string
	repo      storage.Repository[T, I, P]
	evaluator *expressions.Evaluator
}

// NewResourceHandler creates a handler mounted at path. entity names the rows in errors.
func NewResourceHandler[T any, I any, P any](path, entity string, repo storage.Repository[T, I, P], evaluator *expressions.Evaluator) *ResourceHandler[T, I, P] {
	return &ResourceHandler[T, I, P]{
		path:      path,
		entity:    entity,
		repo:      repo,
		evaluator: evaluator,
	}
}

// RegisterRoutes registers the collection routes
func (h *ResourceHandler[T, I, P]) RegisterRoutes(g *echo.Group) {
	group := g.Group(h.path)
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
}

// List handles GET /<path>, applying ?filter= when present
func (h *ResourceHandler[T, I, P]) List(c echo.Context) error {
	items, err := h.repo.List(c.Request().Context())
	if err != nil {
		return err
	}

	return filtered(c, h.evaluator, items)
}

// Create handles POST /<path>
func (h *ResourceHandler[T, I, P]) Create(c echo.Context) error {
	input, err := utils.BindRequest[I](c)
	if err != nil {
		return err
	}

	created, err := h.repo.Create(c.Request().Context(), input)
	if err != nil {
		return err
	}

	return CreatedResponse(c, created)
}

// Get handles GET /<path>/:id
func (h *ResourceHandler[T, I, P]) Get(c echo.Context) error {
	id, err := RequireParam(c, "id")
	if err != nil {
		return err
	}

	item, err := h.repo.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if item == nil {
		return NotFound(h.entity, id)
	}

	return SuccessResponse(c, item)
}

// Update handles PUT /<path>/:id. Only the fields present in the body change.
func (h *ResourceHandler[T, I, P]) Update(c echo.Context) error {
	id, err := RequireParam(c, "id")
	if err != nil {
		return err
	}

	patch, err := utils.BindRequest[P](c)
	if err != nil {
		return err
	}

	updated, err := h.repo.Update(c.Request().Context(), id, patch)
	if err != nil {
		return err
	}

	return SuccessResponse(c, updated)
}

// Delete handles DELETE /<path>/:id
func (h *ResourceHandler[T, I, P]) Delete(c echo.Context) error {
	id, err := RequireParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.repo.Delete(c.Request().Context(), id); err != nil {
		return err
	}

	return NoContentResponse(c)
}

// filtered writes items, narrowed by the JMESPath expression in ?filter= when one is given.
func filtered[T any](c echo.Context, evaluator *expressions.Evaluator, items []T) error {
	if items == nil {
		items = []T{}
	}

	expression := c.QueryParam("filter")
	if expression == "" {
		return SuccessResponse(c, items)
	}

	result, err := evaluator.Query(expression, items)
	if err != nil {
		return err
	}

	return SuccessResponse(c, result)
}
