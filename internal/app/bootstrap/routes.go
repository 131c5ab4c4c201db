// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	auditlogfeature "github.com/dalemusser/guildhall/internal/app/features/auditlog"
	groupsfeature "github.com/dalemusser/guildhall/internal/app/features/groups"
	healthfeature "github.com/dalemusser/guildhall/internal/app/features/health"
	invitationsfeature "github.com/dalemusser/guildhall/internal/app/features/invitations"
	joinrequestsfeature "github.com/dalemusser/guildhall/internal/app/features/joinrequests"
	privacyfeature "github.com/dalemusser/guildhall/internal/app/features/privacy"
	settingsfeature "github.com/dalemusser/guildhall/internal/app/features/settings"
	userinfofeature "github.com/dalemusser/guildhall/internal/app/features/userinfo"
	"github.com/dalemusser/guildhall/internal/app/system/auditlog"
	"github.com/dalemusser/guildhall/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed, so the membership engine is ready on
// deps.Services.
//
// Every endpoint speaks JSON. The session cookie is issued by the account
// service; LoadSessionUser only reads it.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	if deps.Services == nil || deps.Services.Engine == nil {
		return nil, errors.New("membership engine not initialized; Startup must run before BuildHandler")
	}
	engine := deps.Services.Engine
	db := deps.GuildhallMongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	r := chi.NewRouter()

	// Request IP and user agent for audit events.
	r.Use(auditlog.Middleware)
	// Loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.GuildhallMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	if appCfg.MetricsEnabled && deps.Services.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Services.Registry, promhttp.HandlerOpts{}))
	}

	userinfofeature.MountRoutes(r, userinfofeature.NewHandler(db, logger))

	// Membership
	groupsHandler := groupsfeature.NewHandler(engine, logger)
	r.Mount("/groups", groupsfeature.Routes(groupsHandler, sessionMgr))

	invitationsHandler := invitationsfeature.NewHandler(engine, logger)
	r.Mount("/invitations", invitationsfeature.Routes(invitationsHandler, sessionMgr))

	joinRequestsHandler := joinrequestsfeature.NewHandler(engine, logger)
	r.Mount("/join-requests", joinrequestsfeature.Routes(joinRequestsHandler, sessionMgr))

	// Privacy
	privacyHandler := privacyfeature.NewHandler(engine, logger)
	r.Mount("/privacy", privacyfeature.Routes(privacyHandler, sessionMgr))

	// Platform administration
	settingsHandler := settingsfeature.NewHandler(db, logger)
	auditHandler := auditlogfeature.NewHandler(db, logger)
	r.Route("/admin", func(ar chi.Router) {
		ar.Mount("/settings", settingsfeature.Routes(settingsHandler, sessionMgr))
		ar.Mount("/", auditlogfeature.Routes(auditHandler, sessionMgr))
	})

	return r, nil
}
