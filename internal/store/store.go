package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store wraps the gorm handle and hands out repositories.
type Store struct {
	db *gorm.DB
}

// Open connects to the database at dsn and runs auto-migration. A DSN
// starting with postgres:// (or postgresql://) selects Postgres; anything
// else is treated as a SQLite file path.
func Open(dsn string) (*Store, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(
		&Lesson{},
		&LessonSection{},
		&GeneratedContent{},
		&QuizQuestion{},
		&LLMRequestEvent{},
		&SessionEvent{},
	); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// DB returns the underlying gorm handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Lessons returns a LessonRepo backed by this store.
func (s *Store) Lessons() LessonRepo {
	return &lessonRepo{db: s.db}
}

// Quizzes returns a QuizRepo backed by this store.
func (s *Store) Quizzes() QuizRepo {
	return &quizRepo{db: s.db}
}

// Events returns an EventRepo backed by this store.
func (s *Store) Events() EventRepo {
	return &eventRepo{db: s.db}
}

// DefaultDBPath resolves the database location in priority order:
// CLIO_DB, then $XDG_DATA_HOME/clio/clio.db, then ~/.local/share/clio/clio.db.
func DefaultDBPath() (string, error) {
	if p := os.Getenv("CLIO_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "clio", "clio.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if needed.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
