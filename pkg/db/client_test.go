package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ovenline/pizzeria-backend/pkg/config"
	pkgerrors "github.com/ovenline/pizzeria-backend/pkg/errors"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestDialectorForRejectsUnknownDriver(t *testing.T) {
	if _, err := dialectorFor(config.DBConfig{Driver: "mysql", DSN: "x"}); err == nil {
		t.Fatal("expected unsupported driver error")
	}
	if _, err := dialectorFor(config.DBConfig{Driver: "sqlite", DSN: "file::memory:"}); err != nil {
		t.Fatalf("unexpected sqlite error: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "coupons_code_key"}
	if !IsUniqueViolation(pgErr, "") {
		t.Fatal("expected pg unique violation to match")
	}
	if !IsUniqueViolation(pgErr, "coupons_code_key") {
		t.Fatal("expected constraint match")
	}
	if IsUniqueViolation(pgErr, "products_slug_key") {
		t.Fatal("expected different constraint to not match")
	}
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: coupons.code"), "") {
		t.Fatal("expected sqlite message to match")
	}
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil error is not a violation")
	}
	if !IsNotFound(gorm.ErrRecordNotFound) {
		t.Fatal("expected not found")
	}
}

func TestMapError(t *testing.T) {
	if MapError(nil, "coupon") != nil {
		t.Fatal("expected nil passthrough")
	}
	cases := []struct {
		err  error
		want pkgerrors.Code
	}{
		{gorm.ErrRecordNotFound, pkgerrors.CodeNotFound},
		{&pgconn.PgError{Code: "23505"}, pkgerrors.CodeConflict},
		{&pgconn.PgError{Code: "23503"}, pkgerrors.CodeConflict},
		{errors.New("connection reset"), pkgerrors.CodeDependency},
		{pkgerrors.New(pkgerrors.CodeValidation, "bad"), pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		typed := pkgerrors.As(MapError(tc.err, "coupon"))
		if typed == nil || typed.Code() != tc.want {
			t.Fatalf("MapError(%v): expected %s, got %v", tc.err, tc.want, typed)
		}
	}
}
