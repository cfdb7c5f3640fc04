// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	auditstore "github.com/loftwork/loftwork/internal/app/store/audit"
	oauthstate "github.com/loftwork/loftwork/internal/app/store/oauthstate"
	rolestore "github.com/loftwork/loftwork/internal/app/store/roles"
	"github.com/loftwork/loftwork/internal/app/system/indexes"
	"github.com/loftwork/loftwork/internal/app/system/jobs"
	"github.com/loftwork/loftwork/internal/app/system/validators"
)

// ConnectDB establishes the MongoDB connection used by the whole app.
// The connection is verified with a ping so misconfiguration fails fast
// at startup instead of on the first request.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("ping MongoDB: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase))

	db := client.Database(appCfg.MongoDatabase)

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Jobs: jobs.NewRunner(logger,
			jobs.OAuthStateCleanupJob(oauthstate.New(db), logger)),
	}, nil
}

// EnsureSchema creates indexes and seeds static reference data.
//
// The unique indexes are load-bearing: several stores rely on them to
// arbitrate races (duplicate emails, invite-code collisions, double
// joins), so startup aborts if any of them cannot be created.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	if err := validators.EnsureAll(ctx, db); err != nil {
		return fmt.Errorf("ensure collections: %w", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	if err := oauthstate.New(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure oauth state indexes: %w", err)
	}
	if err := auditstore.New(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure audit indexes: %w", err)
	}
	if err := rolestore.New(db).Seed(ctx, logger); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	return nil
}
