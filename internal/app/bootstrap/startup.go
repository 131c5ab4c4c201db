// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/guildhall/internal/app/membership"
	"github.com/dalemusser/guildhall/internal/app/store/audit"
	userstore "github.com/dalemusser/guildhall/internal/app/store/users"
	"github.com/dalemusser/guildhall/internal/app/system/auditlog"
	"github.com/dalemusser/guildhall/internal/app/system/metrics"
	"github.com/dalemusser/guildhall/internal/app/system/timeouts"
	"github.com/dalemusser/guildhall/internal/app/system/workers"
	"github.com/dalemusser/guildhall/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
//
// It applies timeout overrides, promotes the configured superadmin, builds
// the membership engine, and starts the invitation sweep.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts overridden from environment", zap.Int("count", n))
	}

	db := deps.GuildhallMongoDatabase

	if appCfg.SuperAdminEmail != "" {
		sctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
		err := ensureSuperAdmin(sctx, deps, appCfg.SuperAdminEmail, logger)
		cancel()
		if err != nil {
			return fmt.Errorf("ensure superadmin: %w", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	engine := membership.New(db, logger,
		membership.WithAuditLogger(auditlog.New(audit.New(db), logger, auditConfig(appCfg))),
		membership.WithMetrics(metrics.New(reg)),
		membership.WithInvitationTTL(appCfg.InvitationTTL),
		membership.WithRequiredTransactions(appCfg.RequireTransactions),
	)

	sweep := workers.NewInvitationSweep(engine, logger, appCfg.InvitationSweepInterval)
	sweep.Start()

	deps.Services.Engine = engine
	deps.Services.Registry = reg
	deps.Services.InvitationSweep = sweep

	logger.Info("membership engine ready",
		zap.Duration("invitation_ttl", appCfg.InvitationTTL),
		zap.Duration("invitation_sweep_interval", appCfg.InvitationSweepInterval),
		zap.Bool("require_transactions", appCfg.RequireTransactions))
	return nil
}

// ensureSuperAdmin makes sure the account with email holds the superadmin
// role, creating it when no account exists yet.
func ensureSuperAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	users := userstore.New(deps.GuildhallMongoDatabase)

	u, err := users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		created, err := users.Create(ctx, models.User{
			FullName: "Super Admin",
			Email:    email,
			Role:     models.PlatformRoleSuperAdmin,
		})
		if err != nil {
			return err
		}
		logger.Info("superadmin created", zap.String("user_id", created.ID.Hex()))
		return nil
	case err != nil:
		return err
	}

	if u.Role == models.PlatformRoleSuperAdmin {
		return nil
	}
	if err := users.SetRole(ctx, u.ID, models.PlatformRoleSuperAdmin); err != nil {
		return err
	}
	logger.Info("user promoted to superadmin",
		zap.String("user_id", u.ID.Hex()),
		zap.String("previous_role", u.Role))
	return nil
}
