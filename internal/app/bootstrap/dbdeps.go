// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/guildhall/internal/app/membership"
	"github.com/dalemusser/guildhall/internal/app/system/workers"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// WAFFLE passes DBDeps by value to each hook, so the services built during
// Startup hang off a pointer that every copy shares.
type DBDeps struct {
	GuildhallMongoClient   *mongo.Client
	GuildhallMongoDatabase *mongo.Database

	Services *Services
}

// Services are the long-lived components built in Startup and torn down in
// Shutdown.
type Services struct {
	Engine          *membership.Engine
	Registry        *prometheus.Registry
	InvitationSweep *workers.InvitationSweep
}
