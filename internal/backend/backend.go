// Package backend selects and wires a persistence backend at startup.
package backend

import (
	"fmt"
	"log/slog"

	"expensed/internal/store"
	"expensed/internal/store/file"
	"expensed/internal/store/sqlite"
)

// Type represents the configured persistence backend.
type Type string

const (
	FileBackend   Type = "file"
	SQLiteBackend Type = "sqlite"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

// Config holds what the factory needs to build a backend.
type Config struct {
	Type Type

	// File backend
	FileStorePath string

	// SQLite backend
	SQLiteDBPath string
}

// CleanupFunc releases backend resources at shutdown.
type CleanupFunc func() error

// Result contains the backend instance and optional cleanup function.
type Result struct {
	Backend store.Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// CreateBackend builds the backend named by the config.
func (f *Factory) CreateBackend(config Config) (*Result, error) {
	switch config.Type {
	case FileBackend:
		return f.createFileBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *Factory) createFileBackend(config Config) (*Result, error) {
	s, err := file.New(config.FileStorePath)
	if err != nil {
		return nil, fmt.Errorf("initialize file store: %w", err)
	}

	f.logger.Info("Initialized file backend", "path", config.FileStorePath)

	return &Result{Backend: s}, nil
}

func (f *Factory) createSQLiteBackend(config Config) (*Result, error) {
	s, err := sqlite.New(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite store: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &Result{Backend: s, Cleanup: s.Close}, nil
}
