// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	"github.com/loftwork/loftwork/internal/app/system/authutil"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.BcryptCost > 0 {
		authutil.SetCost(appCfg.BcryptCost)
		logger.Info("bcrypt cost configured", zap.Int("cost", appCfg.BcryptCost))
	}

	if deps.Jobs != nil {
		deps.Jobs.Start()
	}
	return nil
}
