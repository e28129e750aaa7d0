package admin

import (
	"time"

	"github.com/coding-arena/arena/internal/config"
	"github.com/coding-arena/arena/internal/pubsub"
	"github.com/coding-arena/arena/internal/standings"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// Handler holds all dependencies for the admin API handlers.
type Handler struct {
	cfg      *config.Config
	db       *gorm.DB
	manager  *standings.Manager
	broker   *pubsub.Broker
	gatherer prometheus.Gatherer
	now      func() time.Time
}

// NewHandler creates a new admin handler with its dependencies.
func NewHandler(
	cfg *config.Config,
	db *gorm.DB,
	manager *standings.Manager,
	broker *pubsub.Broker,
	gatherer prometheus.Gatherer,
) *Handler {
	return &Handler{
		cfg:      cfg,
		db:       db,
		manager:  manager,
		broker:   broker,
		gatherer: gatherer,
		now:      time.Now,
	}
}
