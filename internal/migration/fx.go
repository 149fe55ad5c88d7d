package migration

import (
	"github.com/licensedesk/royalty/internal/config"
	contractdomain "github.com/licensedesk/royalty/internal/contract/domain"
	mappingdomain "github.com/licensedesk/royalty/internal/mapping/domain"
	perioddomain "github.com/licensedesk/royalty/internal/period/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// mysql and sqlite are development targets; let gorm derive the
			// schema from the models there.
			return conn.AutoMigrate(
				&contractdomain.Contract{},
				&contractdomain.RateTier{},
				&contractdomain.CategoryRate{},
				&mappingdomain.FieldMapping{},
				&mappingdomain.CategoryAlias{},
				&perioddomain.SalesPeriod{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
