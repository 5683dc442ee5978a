package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/storage"
	"github.com/Ramsey-B/clover/pkg/utils"
)

// CommentHandler serves the comments nested in a service job or requirement.
type CommentHandler struct {
	parent string
	repo   storage.CommentRepository
}

func NewCommentHandler(parent string, repo storage.CommentRepository) *CommentHandler {
	return &CommentHandler{parent: parent, repo: repo}
}

// RegisterRoutes registers the comment routes
func (h *CommentHandler) RegisterRoutes(g *echo.Group) {
	comments := g.Group(h.parent + "/:id/comments")
	comments.GET("", h.List)
	comments.POST("", h.Create)
	comments.PUT("/:commentId", h.Update)
	comments.DELETE("/:commentId", h.Delete)
}

// List handles GET /<parent>/:id/comments
func (h *CommentHandler) List(c echo.Context) error {
	parentID, err := RequireParam(c, "id")
	if err != nil {
		return err
	}

	comments, err := h.repo.ListComments(c.Request().Context(), parentID)
	if err != nil {
		return err
	}
	if comments == nil {
		comments = []models.Comment{}
	}

	return SuccessResponse(c, comments)
}

// Create handles POST /<parent>/:id/comments
func (h *CommentHandler) Create(c echo.Context) error {
	parentID, err := RequireParam(c, "id")
	if err != nil {
		return err
	}

	input, err := utils.BindRequest[models.CommentInput](c)
	if err != nil {
		return err
	}

	comment, err := h.repo.AddComment(c.Request().Context(), parentID, input)
	if err != nil {
		return err
	}

	return CreatedResponse(c, comment)
}

// Update handles PUT /<parent>/:id/comments/:commentId
func (h *CommentHandler) Update(c echo.Context) error {
	parentID, err := RequireParam(c, "id")
	if err != nil {
		return err
	}
	commentID, err := RequireParam(c, "commentId")
	if err != nil {
		return err
	}

	patch, err := utils.BindRequest[models.CommentPatch](c)
	if err != nil {
		return err
	}

	comment, err := h.repo.UpdateComment(c.Request().Context(), parentID, commentID, patch)
	if err != nil {
		return err
	}

	return SuccessResponse(c, comment)
}

// Delete handles DELETE /<parent>/:id/comments/:commentId
func (h *CommentHandler) Delete(c echo.Context) error {
	parentID, err := RequireParam(c, "id")
	if err != nil {
		return err
	}
	commentID, err := RequireParam(c, "commentId")
	if err != nil {
		return err
	}

	if err := h.repo.DeleteComment(c.Request().Context(), parentID, commentID); err != nil {
		return err
	}

	return NoContentResponse(c)
}
