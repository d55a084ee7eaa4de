package migration

import (
	"strings"

	"github.com/smallbiznis/tourhub/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if !cfg.DBAutoMigrate {
			return nil
		}
		dbType := strings.ToLower(strings.TrimSpace(cfg.DBType))
		if dbType != "postgres" && dbType != "postgresql" {
			log.Info("applying gorm auto migration", zap.String("type", dbType))
			return AutoMigrate(conn)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		log.Info("applying schema migrations")
		return RunMigrations(sqlDB)
	}),
)
