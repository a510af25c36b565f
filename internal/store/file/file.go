// Package file implements the record store on a single JSON file.
//
// The whole collection lives in one pretty-printed JSON array that is
// fully rewritten on every mutation. A read-modify-write cycle is one
// critical section guarded by a mutex, so concurrent requests cannot
// lose updates to each other.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"expensed/internal/core"
)

const categoriesFile = "categories.json"

// Store persists expenses at path and the explicit category registry in
// categories.json next to it.
type Store struct {
	mu       sync.Mutex
	path     string
	catsPath string
}

// New creates a file store rooted at the given expenses file, creating
// the parent directory if needed.
func New(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{
		path:     path,
		catsPath: filepath.Join(dir, categoriesFile),
	}, nil
}

func (s *Store) List(ctx context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) Get(ctx context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return core.Expense{}, err
	}
	for _, e := range records {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Expense{}, core.ErrNotFound
}

func (s *Store) Create(ctx context.Context, fields core.Fields) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return core.Expense{}, err
	}

	if _, err := s.ensureCategoryLocked(ctx, fields.Category); err != nil {
		return core.Expense{}, err
	}

	// Next id is one above the current maximum.
	var maxID int64
	for _, e := range records {
		if e.ID > maxID {
			maxID = e.ID
		}
	}

	record := fields.Record(maxID + 1)
	records = append(records, record)
	if err := s.save(ctx, records); err != nil {
		return core.Expense{}, err
	}
	return record, nil
}

func (s *Store) Replace(ctx context.Context, id int64, fields core.Fields) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return core.Expense{}, err
	}
	i := indexOf(records, id)
	if i < 0 {
		return core.Expense{}, core.ErrNotFound
	}

	if _, err := s.ensureCategoryLocked(ctx, fields.Category); err != nil {
		return core.Expense{}, err
	}

	records[i] = fields.Record(id)
	if err := s.save(ctx, records); err != nil {
		return core.Expense{}, err
	}
	return records[i], nil
}

func (s *Store) MergePatch(ctx context.Context, id int64, patch core.Patch) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return core.Expense{}, err
	}
	i := indexOf(records, id)
	if i < 0 {
		return core.Expense{}, core.ErrNotFound
	}

	merged := patch.Apply(records[i])
	if merged == records[i] {
		// Nothing changed; skip the rewrite.
		return records[i], nil
	}

	if patch.Category != nil {
		if _, err := s.ensureCategoryLocked(ctx, merged.Category); err != nil {
			return core.Expense{}, err
		}
	}

	records[i] = merged
	if err := s.save(ctx, records); err != nil {
		return core.Expense{}, err
	}
	return merged, nil
}

func (s *Store) Delete(ctx context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return core.Expense{}, err
	}
	i := indexOf(records, id)
	if i < 0 {
		return core.Expense{}, core.ErrNotFound
	}

	deleted := records[i]
	records = append(records[:i], records[i+1:]...)
	if err := s.save(ctx, records); err != nil {
		return core.Expense{}, err
	}
	return deleted, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadCategories(ctx)
}

func (s *Store) CreateCategory(ctx context.Context, name string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cats, err := s.loadCategories(ctx)
	if err != nil {
		return core.Category{}, err
	}
	for _, c := range cats {
		if c.Name == name {
			return core.Category{}, core.NewValidationError([]core.FieldError{
				{Field: "name", Message: "a category with this name already exists"},
			})
		}
	}
	return s.appendCategory(ctx, cats, name)
}

func (s *Store) ResolveCategory(ctx context.Context, name string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cats, err := s.loadCategories(ctx)
	if err != nil {
		return core.Category{}, err
	}
	for _, c := range cats {
		if c.Name == name {
			return c, nil
		}
	}
	return core.Category{}, core.ErrNotFound
}

func (s *Store) EnsureCategory(ctx context.Context, name string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureCategoryLocked(ctx, name)
}

func (s *Store) ensureCategoryLocked(ctx context.Context, name string) (core.Category, error) {
	cats, err := s.loadCategories(ctx)
	if err != nil {
		return core.Category{}, err
	}
	for _, c := range cats {
		if c.Name == name {
			return c, nil
		}
	}
	return s.appendCategory(ctx, cats, name)
}

func (s *Store) appendCategory(ctx context.Context, cats []core.Category, name string) (core.Category, error) {
	var maxID int64
	for _, c := range cats {
		if c.ID > maxID {
			maxID = c.ID
		}
	}
	cat := core.Category{ID: maxID + 1, Name: name}
	cats = append(cats, cat)

	data, err := json.MarshalIndent(cats, "", "  ")
	if err != nil {
		return core.Category{}, fmt.Errorf("encode categories: %w", err)
	}
	if err := os.WriteFile(s.catsPath, data, 0o644); err != nil {
		slog.ErrorContext(ctx, "Failed writing categories file", "path", s.catsPath, "error", err)
		return core.Category{}, fmt.Errorf("%w: write categories file: %v", core.ErrStoreUnavailable, err)
	}
	return cat, nil
}

// loadCategories reads the category registry. A missing file is an
// empty registry; unreadable content is reported as corruption, I/O
// failure as unavailability.
func (s *Store) loadCategories(ctx context.Context) ([]core.Category, error) {
	data, err := os.ReadFile(s.catsPath)
	if errors.Is(err, fs.ErrNotExist) {
		return []core.Category{}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed reading categories file", "path", s.catsPath, "error", err)
		return nil, fmt.Errorf("%w: read categories file: %v", core.ErrStoreUnavailable, err)
	}

	var cats []core.Category
	if err := json.Unmarshal(data, &cats); err != nil {
		slog.ErrorContext(ctx, "Failed parsing categories file", "path", s.catsPath, "error", err)
		return nil, fmt.Errorf("%w: parse categories file: %v", core.ErrStoreCorrupt, err)
	}
	return cats, nil
}

// load reads the full expense collection. A missing file is an empty
// collection; unreadable content is reported as corruption, I/O failure
// as unavailability.
func (s *Store) load(ctx context.Context) ([]core.Expense, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []core.Expense{}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed reading expenses file", "path", s.path, "error", err)
		return nil, fmt.Errorf("%w: read expenses file: %v", core.ErrStoreUnavailable, err)
	}

	var records []core.Expense
	if err := json.Unmarshal(data, &records); err != nil {
		slog.ErrorContext(ctx, "Failed parsing expenses file", "path", s.path, "error", err)
		return nil, fmt.Errorf("%w: parse expenses file: %v", core.ErrStoreCorrupt, err)
	}
	return records, nil
}

// save rewrites the whole collection, pretty-printed.
func (s *Store) save(ctx context.Context, records []core.Expense) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		slog.ErrorContext(ctx, "Failed writing expenses file", "path", s.path, "error", err)
		return fmt.Errorf("%w: write expenses file: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

func indexOf(records []core.Expense, id int64) int {
	for i, e := range records {
		if e.ID == id {
			return i
		}
	}
	return -1
}
