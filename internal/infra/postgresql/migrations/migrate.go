package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/pohualizcalli/academy-admin/internal/repository"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		createUsersTable(),
		createSignaturesTable(),
		createTemplatesTable(),
		createDiplomaBatchesTable(),
		createConfigurationTable(),
	})

	return m.Migrate()
}

func createUsersTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_users",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&repository.UserModel{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.UserModel{})
		},
	}
}

func createSignaturesTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_signatures",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&repository.SignatureModel{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.SignatureModel{})
		},
	}
}

func createTemplatesTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_templates",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.TemplateModel{}); err != nil {
				return err
			}
			// One active template at a time.
			return tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_templates_single_active ON templates (status) WHERE status = 'active'`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.TemplateModel{})
		},
	}
}

func createDiplomaBatchesTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000004_create_diploma_batches",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.BatchModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_diploma_batches_created_at ON diploma_batches (created_at DESC)`,
				`CREATE INDEX IF NOT EXISTS idx_diploma_batches_stuck ON diploma_batches (created_at) WHERE status = 'received'`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.BatchModel{})
		},
	}
}

func createConfigurationTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000005_create_configuration_diploma",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&repository.ConfigurationModel{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.ConfigurationModel{})
		},
	}
}
