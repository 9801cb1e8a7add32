// File path: internal/catalog/store.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Store wraps a pooled sqlx.DB connection to the SQLite catalog holding the
// relational entities of the pipeline.
type Store struct {
	db *sqlx.DB
}

// Open constructs a Store backed by the SQLite database at the provided path.
// The schema is migrated on first use.
func Open(path string) (*Store, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		cfg.Path = trimmed
	}
	return OpenWithConfig(cfg)
}

// OpenWithConfig constructs a Store using the provided configuration.
func OpenWithConfig(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("catalog path required")
	}
	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog path: %w", err)
	}
	busy := int(cfg.BusyTimeout / time.Millisecond)
	if busy <= 0 {
		busy = 5000
	}
	// journal_mode must be set per-connection, outside any transaction, so it
	// rides the DSN rather than the migration.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", abs, busy)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingTimeout := cfg.BusyTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying sqlx.DB for advanced callers.
func (s *Store) DB() *sqlx.DB {
	if s == nil {
		return nil
	}
	return s.db
}

func (s *Store) migrate(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("catalog store not initialised")
	}
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute schema statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

// Canonical schema: projects table present, suggestions carry both severity
// and category, UUIDs stored as TEXT. Deletion cascades run project →
// commits/requirements → suggestions/classifications/assessments/metrics.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS projects (
                project_id TEXT PRIMARY KEY,
                name TEXT NOT NULL,
                created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS functional_requirements (
                requirement_id TEXT PRIMARY KEY,
                project_id TEXT NOT NULL,
                description TEXT NOT NULL,
                created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
                FOREIGN KEY(project_id) REFERENCES projects(project_id) ON DELETE CASCADE
        );`,
	`CREATE TABLE IF NOT EXISTS non_functional_requirements (
                requirement_id TEXT PRIMARY KEY,
                project_id TEXT NOT NULL,
                category TEXT NOT NULL DEFAULT '',
                description TEXT NOT NULL,
                created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
                FOREIGN KEY(project_id) REFERENCES projects(project_id) ON DELETE CASCADE
        );`,
	`CREATE TABLE IF NOT EXISTS seed_pairs (
                pair_id TEXT PRIMARY KEY,
                fr_text TEXT NOT NULL,
                nfr_text TEXT NOT NULL,
                source TEXT NOT NULL DEFAULT '',
                quality_checked INTEGER NOT NULL DEFAULT 0,
                created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS code_snapshots (
                commit_id TEXT PRIMARY KEY,
                project_id TEXT NOT NULL,
                parent_commit_id TEXT,
                developer_name TEXT NOT NULL,
                code_text TEXT NOT NULL,
                language TEXT NOT NULL,
                created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
                FOREIGN KEY(project_id) REFERENCES projects(project_id) ON DELETE CASCADE
        );`,
	`CREATE TABLE IF NOT EXISTS review_suggestions (
                review_id INTEGER PRIMARY KEY AUTOINCREMENT,
                commit_id TEXT NOT NULL,
                line_start INTEGER NOT NULL,
                line_end INTEGER NOT NULL,
                suggestion TEXT NOT NULL,
                severity TEXT NOT NULL DEFAULT '',
                category TEXT NOT NULL DEFAULT '',
                created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
                FOREIGN KEY(commit_id) REFERENCES code_snapshots(commit_id) ON DELETE CASCADE
        );`,
	`CREATE TABLE IF NOT EXISTS review_classifications (
                classification_id INTEGER PRIMARY KEY AUTOINCREMENT,
                review_id INTEGER NOT NULL UNIQUE,
                category TEXT NOT NULL DEFAULT '',
                disposition TEXT NOT NULL,
                recurring_issue TEXT NOT NULL DEFAULT '',
                confidence REAL NOT NULL DEFAULT 0,
                rationale TEXT NOT NULL DEFAULT '',
                created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
                FOREIGN KEY(review_id) REFERENCES review_suggestions(review_id) ON DELETE CASCADE
        );`,
	`CREATE TABLE IF NOT EXISTS risk_assessments (
                assessment_id INTEGER PRIMARY KEY AUTOINCREMENT,
                project_id TEXT NOT NULL,
                commit_id TEXT NOT NULL,
                fr_completion_score REAL NOT NULL,
                nfr_completion_score REAL NOT NULL,
                compilation_score REAL NOT NULL,
                final_score REAL NOT NULL,
                recommendation TEXT NOT NULL,
                rationale TEXT NOT NULL DEFAULT '',
                created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
                FOREIGN KEY(commit_id) REFERENCES code_snapshots(commit_id) ON DELETE CASCADE
        );`,
	`CREATE TABLE IF NOT EXISTS productivity_metrics (
                metric_id INTEGER PRIMARY KEY AUTOINCREMENT,
                commit_id TEXT NOT NULL,
                review_id INTEGER,
                name TEXT NOT NULL,
                value REAL NOT NULL,
                created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
                FOREIGN KEY(commit_id) REFERENCES code_snapshots(commit_id) ON DELETE CASCADE
        );`,
	`CREATE TABLE IF NOT EXISTS system_logs (
                log_id INTEGER PRIMARY KEY AUTOINCREMENT,
                component TEXT NOT NULL,
                action TEXT NOT NULL,
                detail TEXT NOT NULL DEFAULT '',
                created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE INDEX IF NOT EXISTS idx_snapshots_project ON code_snapshots(project_id, created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_suggestions_commit ON review_suggestions(commit_id);`,
	`CREATE INDEX IF NOT EXISTS idx_assessments_commit ON risk_assessments(commit_id, created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_metrics_commit ON productivity_metrics(commit_id, name);`,
}
