// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/loftwork/loftwork/internal/app/system/jobs"
)

// DBDeps holds database/back-end dependencies for the app.
// Stores and services are constructed from these in BuildHandler.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Jobs holds the background maintenance runner. Started in Startup,
	// stopped in Shutdown.
	Jobs *jobs.Runner
}
