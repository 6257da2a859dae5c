// Package dbtest поднимает изолированную SQLite-базу в памяти для тестов.
package dbtest

import (
	"testing"

	"gorm.io/gorm"

	"realty/internal/db"
)

// DSN — in-memory база с включёнными внешними ключами.
const DSN = "file::memory:?_pragma=foreign_keys(1)"

// Open возвращает мигрированную базу; закрывается по t.Cleanup.
// Одно соединение: у каждого соединения :memory: своя база.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	d, err := db.Open(db.Options{Driver: "sqlite", DSN: DSN, MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(d) })

	if err := db.Migrate(d); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return d
}
