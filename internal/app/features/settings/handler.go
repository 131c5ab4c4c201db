// internal/app/features/settings/handler.go
package settings

import (
	settingsstore "github.com/dalemusser/guildhall/internal/app/store/settings"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the admin-facing site settings endpoints.
type Handler struct {
	Settings *settingsstore.Store
	Log      *zap.Logger
}

// NewHandler constructs a Handler bound to the given Mongo database and logger.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Settings: settingsstore.New(db),
		Log:      logger,
	}
}
