package handlers

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/dashboard"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/seed"
	"github.com/Ramsey-B/clover/pkg/storage"
)

// ConsoleHandler serves the dashboard and the store-wide routes.
type ConsoleHandler struct {
	store  storage.Store
	seeder *seed.Seeder
	logger ectologger.Logger
}

func NewConsoleHandler(store storage.Store, logger ectologger.Logger) *ConsoleHandler {
	return &ConsoleHandler{
		store:  store,
		seeder: seed.NewSeeder(store, logger),
		logger: logger,
	}
}

// RegisterRoutes registers the console routes
func (h *ConsoleHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/dashboard", h.Dashboard)
	g.GET("/me/admin", h.IsAdmin)
	g.POST("/demo/seed", h.Seed)
	g.DELETE("/demo", h.Clear)
}

// Dashboard handles GET /dashboard
func (h *ConsoleHandler) Dashboard(c echo.Context) error {
	summary, err := dashboard.Load(c.Request().Context(), h.store, models.Now())
	if err != nil {
		return err
	}

	return SuccessResponse(c, summary)
}

// IsAdmin handles GET /me/admin
func (h *ConsoleHandler) IsAdmin(c echo.Context) error {
	admin, err := h.store.IsAdmin(c.Request().Context())
	if err != nil {
		return err
	}

	return SuccessResponse(c, map[string]bool{"is_admin": admin})
}

// Seed handles POST /demo/seed. Stores that already hold customers are left untouched.
func (h *ConsoleHandler) Seed(c echo.Context) error {
	seeded, err := h.seeder.Seed(c.Request().Context())
	if err != nil {
		return err
	}

	return SuccessResponse(c, map[string]bool{"seeded": seeded})
}

// Clear handles DELETE /demo
func (h *ConsoleHandler) Clear(c echo.Context) error {
	clearer, ok := h.store.(storage.Clearer)
	if !ok {
		return storage.ErrClearUnsupported
	}

	ctx := c.Request().Context()
	if err := clearer.Clear(ctx); err != nil {
		return err
	}
	h.logger.WithContext(ctx).Info("Cleared all stored data")

	return NoContentResponse(c)
}
