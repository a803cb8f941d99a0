package database

import (
	"testing"
)

func TestDialectBasics(t *testing.T) {
	tests := []struct {
		dialect      Dialect
		driver       string
		subdir       string
		lastInsertID bool
		trueValue    string
	}{
		{NewSQLiteDialect(), "sqlite3", "sqlite", true, "1"},
		{NewPostgresDialect(), "postgres", "postgres", false, "TRUE"},
		{NewMySQLDialect(), "mysql", "mysql", true, "TRUE"},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			if got := tt.dialect.DriverName(); got != tt.driver {
				t.Errorf("DriverName() = %v, want %v", got, tt.driver)
			}
			if got := tt.dialect.MigrationsSubdir(); got != tt.subdir {
				t.Errorf("MigrationsSubdir() = %v, want %v", got, tt.subdir)
			}
			if got := tt.dialect.SupportsLastInsertId(); got != tt.lastInsertID {
				t.Errorf("SupportsLastInsertId() = %v, want %v", got, tt.lastInsertID)
			}
			if got := tt.dialect.BoolValue(true); got != tt.trueValue {
				t.Errorf("BoolValue(true) = %v, want %v", got, tt.trueValue)
			}
		})
	}
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT * FROM children WHERE id = ?",
			expected: "SELECT * FROM children WHERE id = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT * FROM children WHERE id = ?",
			expected: "SELECT * FROM children WHERE id = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "INSERT INTO skills (name, description) VALUES (?, ?)",
			expected: "INSERT INTO skills (name, description) VALUES ($1, $2)",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE children SET current_stage = ? WHERE id = ?",
			expected: "UPDATE children SET current_stage = ? WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.RewriteQuery(tt.query)
			if result != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestInsertIgnore(t *testing.T) {
	query := "INSERT INTO child_badges (child_id, badge) VALUES (?, ?)"

	tests := []struct {
		name     string
		dialect  Dialect
		expected string
	}{
		{"SQLite", NewSQLiteDialect(), "INSERT OR IGNORE INTO child_badges (child_id, badge) VALUES (?, ?)"},
		{"PostgreSQL", NewPostgresDialect(), "INSERT INTO child_badges (child_id, badge) VALUES (?, ?) ON CONFLICT DO NOTHING"},
		{"MySQL", NewMySQLDialect(), "INSERT IGNORE INTO child_badges (child_id, badge) VALUES (?, ?)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.InsertIgnore(query); got != tt.expected {
				t.Errorf("InsertIgnore() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMySQLDSNParseTime(t *testing.T) {
	d := NewMySQLDialect()
	tests := []struct {
		url      string
		expected string
	}{
		{"user:pw@tcp(db:3306)/zonuko", "user:pw@tcp(db:3306)/zonuko?parseTime=true"},
		{"user:pw@tcp(db:3306)/zonuko?charset=utf8mb4", "user:pw@tcp(db:3306)/zonuko?charset=utf8mb4&parseTime=true"},
		{"user:pw@tcp(db:3306)/zonuko?parseTime=false", "user:pw@tcp(db:3306)/zonuko?parseTime=false"},
	}
	for _, tt := range tests {
		if got := d.DSN(DialectConfig{URL: tt.url}); got != tt.expected {
			t.Errorf("DSN(%q) = %v, want %v", tt.url, got, tt.expected)
		}
	}
}

func TestSQLiteDSN(t *testing.T) {
	d := NewSQLiteDialect()
	if got := d.DSN(DialectConfig{Path: "./zonuko.db"}); got != "./zonuko.db?_foreign_keys=on&_busy_timeout=5000" {
		t.Errorf("DSN() = %v", got)
	}
	if got := d.DSN(DialectConfig{Path: "file:test.db?cache=shared"}); got != "file:test.db?cache=shared" {
		t.Errorf("DSN() with options = %v", got)
	}
}

func TestSplitStatements(t *testing.T) {
	content := `-- header comment
CREATE TABLE a (
    id INTEGER
);

-- another
CREATE INDEX idx_a ON a(id);
INSERT INTO a (id) VALUES (1)`

	stmts := splitStatements(content)
	if len(stmts) != 3 {
		t.Fatalf("splitStatements() returned %d statements, want 3: %q", len(stmts), stmts)
	}
	if stmts[1] != "CREATE INDEX idx_a ON a(id);" {
		t.Errorf("second statement = %q", stmts[1])
	}
}
