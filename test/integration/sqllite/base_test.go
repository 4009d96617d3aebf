package sqllite

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"github.com/dripware/dripflow/internal/migrations"
)

var dbCounter int32

// setupTestDatabase creates a fresh migrated SQLite file per test and points
// the dialect helpers at the SQLLITE database type.
func setupTestDatabase(t *testing.T) *sql.DB {
	t.Helper()

	os.Setenv("DRIP_DATABASE_TYPE", "SQLLITE")

	filename := filepath.Join(t.TempDir(), fmt.Sprintf("dripflow-test-%d.db", atomic.AddInt32(&dbCounter, 1)))
	if err := runMigrations(filename); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Ping(); err != nil {
		t.Fatalf("ping sqlite: %v", err)
	}
	return db
}

func runMigrations(filename string) error {
	sub, err := fs.Sub(migrations.FS, "sqllite3")
	if err != nil {
		return err
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, "sqlite3://"+filename)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
