package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/expressions"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/storage"
	"github.com/Ramsey-B/clover/pkg/utils"
)

// ChildHandler serves rows that are listed and created through their parent
// (/<parent>/:id/<child>) and addressed directly by id afterwards (/<path>/:id).
type ChildHandler[T any, I models.ChildInput[T, I], P any] struct {
	parent    string
	child     string
	path      string
	entity    string
	repo      storage.ChildRepository[T, I, P]
	evaluator *expressions.Evaluator
}

func NewChildHandler[T any, I models.ChildInput[T, I], P any](parent, child, path, entity string, repo storage.ChildRepository[T, I, P], evaluator *expressions.Evaluator) *ChildHandler[T, I, P] {
	return &ChildHandler[T, I, P]{
		parent:    parent,
		child:     child,
		path:      path,
		entity:    entity,
		repo:      repo,
		evaluator: evaluator,
	}
}

// RegisterRoutes registers the nested and direct routes
func (h *ChildHandler[T, I, P]) RegisterRoutes(g *echo.Group) {
	nested := g.Group(h.parent + "/:id" + h.child)
	nested.GET("", h.List)
	nested.POST("", h.Create)

	direct := g.Group(h.path)
	direct.GET("/:id", h.Get)
	direct.PUT("/:id", h.Update)
	direct.DELETE("/:id", h.Delete)
}

// List handles GET /<parent>/:id/<child>
func (h *ChildHandler[T, I, P]) List(c echo.Context) error {
	parentID, err := RequireParam(c, "id")
	if err != nil {
		return err
	}

	items, err := h.repo.ListFor(c.Request().Context(), parentID)
	if err != nil {
		return err
	}

	return filtered(c, h.evaluator, items)
}

// Create handles POST /<parent>/:id/<child>. The parent id always comes from the route.
func (h *ChildHandler[T, I, P]) Create(c echo.Context) error {
	parentID, err := RequireParam(c, "id")
	if err != nil {
		return err
	}

	body, err := utils.BindBody[I](c)
	if err != nil {
		return err
	}

	input := body.ForParent(parentID)
	if err := models.Validate(input); err != nil {
		return err
	}

	created, err := h.repo.Create(c.Request().Context(), input)
	if err != nil {
		return err
	}

	return CreatedResponse(c, created)
}

// Get handles GET /<path>/:id
func (h *ChildHandler[T, I, P]) Get(c echo.Context) error {
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

// Update handles PUT /<path>/:id
func (h *ChildHandler[T, I, P]) Update(c echo.Context) error {
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
func (h *ChildHandler[T, I, P]) Delete(c echo.Context) error {
	id, err := RequireParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.repo.Delete(c.Request().Context(), id); err != nil {
		return err
	}

	return NoContentResponse(c)
}
