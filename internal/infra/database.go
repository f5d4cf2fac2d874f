package infra

import (
	"fmt"

	"github.com/ACRERP/acr-commerce-suite-sub005/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies any idempotent SQL patches that GORM
// cannot express (sequences, partial indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
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

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations creates/updates all tables and applies the SQL patches.
// Also used by integration tests against a throwaway database.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Operator{},
		&model.Product{},
		&model.StockAdjustment{},
		&model.CashRegisterSession{},
		&model.CashMovement{},
		&model.Sale{},
		&model.SaleItem{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that GORM AutoMigrate cannot express.
// Each statement uses IF NOT EXISTS semantics so re-running is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// Ticket numbers come from a dedicated sequence so they survive
		// rolled-back sale transactions without colliding.
		{"create ticket number sequence",
			`CREATE SEQUENCE IF NOT EXISTS sales_ticket_number_seq START 1`},

		// One reversal chain per (product, sale): lets a retried cancellation
		// detect already-restored units instead of restoring twice. The cap
		// computation reads these rows; the index makes the invariant hard.
		{"create partial unique index on sale reversals", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uniq_stock_adjustments_sale_reversal') THEN
    CREATE UNIQUE INDEX uniq_stock_adjustments_sale_reversal
        ON stock_adjustments (product_id, reference_id)
        WHERE reason = 'sale_reversal';
  END IF;
END $$`},

		// Hot paths: ledger history per product, movement sums per session.
		{"create stock_adjustments product index", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_stock_adjustments_product') THEN
    CREATE INDEX idx_stock_adjustments_product
        ON stock_adjustments (product_id, created_at);
  END IF;
END $$`},
		{"create cash_movements session index", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_cash_movements_session') THEN
    CREATE INDEX idx_cash_movements_session
        ON cash_movements (cash_register_session_id);
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
