// internal/app/features/auditlog/handler.go
package auditlog

import (
	alertstore "github.com/dalemusser/guildhall/internal/app/store/alerts"
	"github.com/dalemusser/guildhall/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the platform admin views of the audit trail and the
// exclusivity alert queue.
type Handler struct {
	Audit  *audit.Store
	Alerts *alertstore.Store
	Log    *zap.Logger
}

// NewHandler constructs an Audit Log feature handler bound to
// the given Mongo database and logger.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Audit:  audit.New(db),
		Alerts: alertstore.New(db),
		Log:    logger,
	}
}
