package user

import (
	"time"

	"github.com/coding-arena/arena/internal/config"
	"github.com/coding-arena/arena/internal/pubsub"
	"github.com/coding-arena/arena/internal/standings"
	"gorm.io/gorm"
)

// Handler holds all dependencies for the user API handlers.
type Handler struct {
	cfg     *config.Config
	db      *gorm.DB
	manager *standings.Manager
	broker  *pubsub.Broker
	now     func() time.Time
}

// NewHandler creates a new user handler with its dependencies.
func NewHandler(
	cfg *config.Config,
	db *gorm.DB,
	manager *standings.Manager,
	broker *pubsub.Broker,
) *Handler {
	return &Handler{
		cfg:     cfg,
		db:      db,
		manager: manager,
		broker:  broker,
		now:     time.Now,
	}
}
