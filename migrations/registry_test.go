package migrations

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"testing/fstest"

	_ "github.com/mattn/go-sqlite3"
)

func TestSources_ReturnsPostgresAndSQLite(t *testing.T) {
	sources, err := Sources(nil)
	if err != nil {
		t.Fatalf("sources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	dialects := map[string]string{}
	for _, source := range sources {
		dialects[source.Dialect] = source.Path
	}
	if dialects[DialectPostgres] != "data/sql/migrations" || dialects[DialectSQLite] != "data/sql/migrations/sqlite" {
		t.Fatalf("unexpected source paths %#v", dialects)
	}
}

func TestSources_RejectsTreeWithoutMigrations(t *testing.T) {
	root := fstest.MapFS{
		"data/sql/migrations/README.md":        {Data: []byte("empty")},
		"data/sql/migrations/sqlite/README.md": {Data: []byte("empty")},
	}
	if _, err := Sources(root); err == nil {
		t.Fatalf("expected tree without up migrations to be rejected")
	}
}

func TestRegister_FiltersDialects(t *testing.T) {
	var calls []string
	reg, err := Register(context.Background(), func(_ context.Context, dialect string, label string, fsys fs.FS) error {
		calls = append(calls, dialect+":"+label)
		if _, err := fs.Stat(fsys, "00001_api_modules_core.up.sql"); err != nil {
			t.Fatalf("expected core migration in %s source: %v", dialect, err)
		}
		return nil
	}, WithDialects(" SQLite "), WithSourceLabel("modules-test"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(calls) != 1 || calls[0] != "sqlite:modules-test" {
		t.Fatalf("unexpected registration calls %v", calls)
	}
	if len(reg.Sources) != 1 || reg.SourceLabel != "modules-test" {
		t.Fatalf("unexpected registration %#v", reg)
	}
}

func TestRegister_DefaultsToAllDialects(t *testing.T) {
	var calls []string
	reg, err := Register(context.Background(), func(_ context.Context, dialect string, _ string, _ fs.FS) error {
		calls = append(calls, dialect)
		return nil
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !slices.Equal(calls, []string{DialectPostgres, DialectSQLite}) || reg.SourceLabel != "api-modules" {
		t.Fatalf("unexpected registration %v %#v", calls, reg)
	}
}

func TestRegister_RejectsMissingFuncAndUnknownDialect(t *testing.T) {
	if _, err := Register(context.Background(), nil); err == nil {
		t.Fatalf("expected missing register function to fail")
	}
	noop := func(context.Context, string, string, fs.FS) error { return nil }
	if _, err := Register(context.Background(), noop, WithDialects("mysql")); err == nil {
		t.Fatalf("expected unknown dialect to fail")
	}
}

func TestMigrationPairs_ExistForBothDialects(t *testing.T) {
	root := FS()
	paths := []string{
		"data/sql/migrations/00001_api_modules_core.up.sql",
		"data/sql/migrations/00001_api_modules_core.down.sql",
		"data/sql/migrations/sqlite/00001_api_modules_core.up.sql",
		"data/sql/migrations/sqlite/00001_api_modules_core.down.sql",
		"data/sql/migrations/00002_api_modules_oauth_states.up.sql",
		"data/sql/migrations/00002_api_modules_oauth_states.down.sql",
		"data/sql/migrations/sqlite/00002_api_modules_oauth_states.up.sql",
		"data/sql/migrations/sqlite/00002_api_modules_oauth_states.down.sql",
	}
	for _, migrationPath := range paths {
		content, err := fs.ReadFile(root, migrationPath)
		if err != nil {
			t.Fatalf("read migration %s: %v", migrationPath, err)
		}
		if strings.TrimSpace(string(content)) == "" {
			t.Fatalf("expected migration %s to have SQL content", migrationPath)
		}
	}
}

func TestSQLiteCoreMigration_ApplyAndRollback(t *testing.T) {
	db, err := sql.Open("sqlite3", "file:migrations-core?mode=memory&cache=shared&_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	sqliteMigrations, err := fs.Sub(FS(), "data/sql/migrations/sqlite")
	if err != nil {
		t.Fatalf("resolve sqlite migrations: %v", err)
	}
	ctx := context.Background()
	if err := execSQLMigration(ctx, db, sqliteMigrations, "00001_api_modules_core.up.sql"); err != nil {
		t.Fatalf("apply core migration: %v", err)
	}

	if _, err := db.ExecContext(ctx,
		`INSERT INTO module_credentials (id, module_name, user_id, external_id, payload, payload_format, payload_version) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"cred-1", "asana", "user-1", "ext-1", []byte(`{"version":1,"properties":{}}`), "module_credential_json", 1,
	); err != nil {
		t.Fatalf("insert credential: %v", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO module_entities (id, module_name, user_id, external_id, credential_id) VALUES (?, ?, ?, ?, ?)`,
		"ent-1", "asana", "user-1", "ext-1", "cred-1",
	); err != nil {
		t.Fatalf("insert entity: %v", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM module_credentials WHERE id = ?`, "cred-1"); err != nil {
		t.Fatalf("delete credential: %v", err)
	}
	var credentialID sql.NullString
	if err := db.QueryRowContext(ctx, `SELECT credential_id FROM module_entities WHERE id = ?`, "ent-1").Scan(&credentialID); err != nil {
		t.Fatalf("read entity: %v", err)
	}
	if credentialID.Valid {
		t.Fatalf("expected credential link cleared on delete, got %q", credentialID.String)
	}

	if err := execSQLMigration(ctx, db, sqliteMigrations, "00001_api_modules_core.down.sql"); err != nil {
		t.Fatalf("rollback core migration: %v", err)
	}
	var name string
	err = db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, "module_credentials").Scan(&name)
	if err != sql.ErrNoRows {
		t.Fatalf("expected credentials table dropped, got %q (%v)", name, err)
	}
}

func execSQLMigration(ctx context.Context, db *sql.DB, fsys fs.FS, filename string) error {
	content, err := fs.ReadFile(fsys, filepath.Clean(filename))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, string(content))
	return err
}
