package handlers

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/storage"
)

// AttachmentHandler handles file uploads for service jobs, requirements and their comments
type AttachmentHandler struct {
	repo storage.AttachmentRepository
}

func NewAttachmentHandler(repo storage.AttachmentRepository) *AttachmentHandler {
	return &AttachmentHandler{repo: repo}
}

// RegisterRoutes registers the attachment routes
func (h *AttachmentHandler) RegisterRoutes(g *echo.Group) {
	attachments := g.Group("/attachments")
	attachments.POST("", h.Upload)
	attachments.GET("", h.List)
	attachments.DELETE("/:id", h.Delete)
}

// Upload handles POST /attachments (multipart: entity_type, entity_id, file)
func (h *AttachmentHandler) Upload(c echo.Context) error {
	header, err := c.FormFile("file")
	if err != nil {
		return BadRequest("file is required")
	}

	file, err := header.Open()
	if err != nil {
		return BadRequest("unable to read uploaded file")
	}
	defer file.Close()

	upload := models.AttachmentUpload{
		EntityType:  models.EntityType(c.FormValue("entity_type")),
		EntityID:    c.FormValue("entity_id"),
		FileName:    header.Filename,
		ContentType: header.Header.Get(echo.HeaderContentType),
		Size:        header.Size,
		Body:        file,
	}
	if err := models.Validate(upload); err != nil {
		return err
	}

	attachment, err := h.repo.Upload(c.Request().Context(), upload)
	if err != nil {
		return err
	}

	return CreatedResponse(c, attachment)
}

// List handles GET /attachments?entity_type=&entity_id=
func (h *AttachmentHandler) List(c echo.Context) error {
	entityType := models.EntityType(c.QueryParam("entity_type"))
	if !entityType.IsValid() {
		return BadRequest("entity_type must be one of service_job, service_job_comment, requirement, requirement_comment")
	}
	entityID := c.QueryParam("entity_id")
	if entityID == "" {
		return BadRequest("entity_id is required")
	}

	attachments, err := h.repo.List(c.Request().Context(), entityType, entityID)
	if err != nil {
		return err
	}
	if attachments == nil {
		attachments = []models.Attachment{}
	}

	return SuccessResponse(c, attachments)
}

// Delete handles DELETE /attachments/:id
func (h *AttachmentHandler) Delete(c echo.Context) error {
	id, err := RequireParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.repo.Delete(c.Request().Context(), id); err != nil {
		return err
	}

	return NoContentResponse(c)
}

// FileStore is an object store whose blobs this process serves behind signed links.
type FileStore interface {
	storage.ObjectReader
	Verify(key, token string) error
}

// FileHandler serves blobs behind the links minted by the local object store.
type FileHandler struct {
	files FileStore
}

func NewFileHandler(files FileStore) *FileHandler {
	return &FileHandler{files: files}
}

// RegisterRoutes registers the download route
func (h *FileHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/files/*", h.Download)
}

// Download handles GET /files/*?token=
func (h *FileHandler) Download(c echo.Context) error {
	key, err := url.PathUnescape(c.Param("*"))
	if err != nil || key == "" {
		return BadRequest("invalid file path")
	}

	if err := h.files.Verify(key, c.QueryParam("token")); err != nil {
		return Forbidden("invalid or expired download link")
	}

	body, contentType, err := h.files.Open(c.Request().Context(), key)
	if err != nil {
		return err
	}
	defer body.Close()

	return c.Stream(http.StatusOK, contentType, body)
}
