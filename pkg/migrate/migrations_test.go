package migrate_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ovenline/pizzeria-backend/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}

func TestOrdersMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_orders_tables.sql")

	checks := []string{
		"CREATE TYPE order_status AS ENUM",
		"'OUT_FOR_DELIVERY'",
		"CREATE TYPE payment_method AS ENUM ('ONLINE', 'CASH_ON_DELIVERY')",
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE TABLE IF NOT EXISTS order_items",
		"total numeric(12,4) NOT NULL",
		"order_id uuid NOT NULL REFERENCES orders (id) ON DELETE CASCADE",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCouponAndCartConstraints(t *testing.T) {
	coupons := readMigration(t, "*_create_coupons_table.sql")
	for _, sub := range []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_coupons_code",
		"CHECK (code = upper(code))",
		"used_count integer NOT NULL DEFAULT 0",
	} {
		if !strings.Contains(coupons, sub) {
			t.Errorf("coupons migration missing %q", sub)
		}
	}

	cart := readMigration(t, "*_create_cart_items_table.sql")
	if !strings.Contains(cart, "idx_cart_items_owner_product_size ON cart_items (user_id, product_id, size)") {
		t.Errorf("cart migration missing owner/product/size unique index")
	}
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Loyalty Points!")
	if err != nil {
		t.Fatalf("CreateSQLMigration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_loyalty_points.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("generated migration failed validation: %v", err)
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestValidateDirReportsEveryProblem(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("20260101000000_ok.sql", "-- +goose Up\n-- +goose Down\n")
	write("bad-name.sql", "-- +goose Up\n-- +goose Down\n")
	write("20260101000001_no_down.sql", "-- +goose Up\n")

	err := migrate.ValidateDir(dir)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	msg := err.Error()
	if !strings.Contains(msg, "bad-name.sql") || !strings.Contains(msg, "no_down") {
		t.Fatalf("expected both problems reported, got %v", err)
	}
}

func TestRunRejectsMissingInputs(t *testing.T) {
	if err := migrate.Run(context.Background(), nil, "migrations", "up"); err == nil {
		t.Fatal("expected nil db to fail")
	}
	if err := migrate.MigrateToVersion(context.Background(), nil, "migrations", "20260105090000"); err == nil {
		t.Fatal("expected nil db to fail")
	}
}
