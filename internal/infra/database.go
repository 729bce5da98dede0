package infra

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/novus0x/nexolocal/internal/model"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that GORM
// cannot express (partial unique indexes).
//
// TranslateError is enabled so unique violations surface as
// gorm.ErrDuplicatedKey, which the repositories rely on to detect a second
// open-session attempt racing past the application-level check.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := db.AutoMigrate(
		&model.Company{},
		&model.User{},
		&model.Product{},
		&model.ProductBatch{},
		&model.CashSession{},
		&model.CashMovement{},
		&model.Sale{},
		&model.SaleItem{},
		&model.Income{},
		&model.Expense{},
	); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}

	if err := applySchemaPatches(db); err != nil {
		return nil, fmt.Errorf("schema patches: %w", err)
	}

	return db, nil
}

// applySchemaPatches applies DDL that AutoMigrate cannot express. Every
// statement is idempotent so re-running on an already-patched schema is a
// no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// At most one open cash session per company, enforced by the
		// database rather than by application-level checks alone.
		{"one open session per company",
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_cash_sessions_company_open
			 ON cash_sessions (company_id) WHERE status = 'open'`},

		// Allocation order scan: open batches of a product, newest first.
		{"batch allocation scan index",
			`CREATE INDEX IF NOT EXISTS idx_product_batches_alloc
			 ON product_batches (product_id, date DESC) WHERE stock > 0`},

		// Session ledger reads are always scoped to a session.
		{"movements by session",
			`CREATE INDEX IF NOT EXISTS idx_cash_movements_session
			 ON cash_movements (cash_session_id)`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("%s: %w", p.descr, err)
		}
	}
	return nil
}
