// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background workers, then disconnects MongoDB.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Services != nil && deps.Services.InvitationSweep != nil {
		logger.Info("stopping invitation sweep")
		deps.Services.InvitationSweep.Stop()
	}
	if deps.GuildhallMongoClient != nil {
		logger.Info("disconnecting Guildhall MongoDB client")
		if err := deps.GuildhallMongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
