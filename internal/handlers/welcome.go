package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/aphrodite/internal/config"
	"gorm.io/gorm"
)

// WelcomeHandler answers the liveness route. DB is shared by every request and
// never modified after construction.
type WelcomeHandler struct {
	DB       *gorm.DB
	Backend  config.Backend
	greeting string
}

// NewWelcomeHandler binds the handler to the pool of the selected backend.
func NewWelcomeHandler(db *gorm.DB, backend config.Backend) *WelcomeHandler {
	return &WelcomeHandler{
		DB:       db,
		Backend:  backend,
		greeting: Greeting(backend),
	}
}

// Greeting is the static body served for backend.
func Greeting(backend config.Backend) string {
	return "Welcome to " + string(backend)
}

// GetWelcome handles GET /
func (h *WelcomeHandler) GetWelcome(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).SendString(h.greeting)
}
