// Package sqlite implements the record store on an embedded SQLite
// database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"expensed/internal/core"

	_ "modernc.org/sqlite"
)

const selectExpense = `
SELECT e.id, e.title, e.amount_cents, c.name, e.spent_on, e.description
FROM expenses e
JOIN categories c ON c.id = e.category_id`

// Store persists expenses and categories in a SQLite database file.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the database at dbPath and runs the
// embedded schema migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx, selectExpense+" ORDER BY e.id")
	if err != nil {
		return nil, storeErr("list expenses", err)
	}
	defer rows.Close()

	records := []core.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list expenses", err)
	}
	return records, nil
}

func (s *Store) Get(ctx context.Context, id int64) (core.Expense, error) {
	row := s.db.QueryRowContext(ctx, selectExpense+" WHERE e.id = ?", id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	return e, err
}

func (s *Store) Create(ctx context.Context, fields core.Fields) (core.Expense, error) {
	var record core.Expense
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		catID, err := ensureCategoryTx(ctx, tx, fields.Category)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (title, amount_cents, category_id, spent_on, description)
			 VALUES (?, ?, ?, ?, ?)`,
			fields.Title, fields.Amount.Cents, catID, fields.Date.String(), fields.Description)
		if err != nil {
			return storeErr("insert expense", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return storeErr("read inserted id", err)
		}
		record = fields.Record(id)
		return nil
	})
	return record, err
}

func (s *Store) Replace(ctx context.Context, id int64, fields core.Fields) (core.Expense, error) {
	var record core.Expense
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		catID, err := ensureCategoryTx(ctx, tx, fields.Category)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE expenses SET title = ?, amount_cents = ?, category_id = ?, spent_on = ?, description = ?
			 WHERE id = ?`,
			fields.Title, fields.Amount.Cents, catID, fields.Date.String(), fields.Description, id)
		if err != nil {
			return storeErr("update expense", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return storeErr("update expense", err)
		}
		if n == 0 {
			return core.ErrNotFound
		}
		record = fields.Record(id)
		return nil
	})
	return record, err
}

func (s *Store) MergePatch(ctx context.Context, id int64, patch core.Patch) (core.Expense, error) {
	var record core.Expense
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, selectExpense+" WHERE e.id = ?", id)
		current, err := scanExpense(row)
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrNotFound
		}
		if err != nil {
			return err
		}

		merged := patch.Apply(current)
		if merged == current {
			record = current
			return nil
		}

		catID, err := ensureCategoryTx(ctx, tx, merged.Category)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE expenses SET title = ?, amount_cents = ?, category_id = ?, spent_on = ?, description = ?
			 WHERE id = ?`,
			merged.Title, merged.Amount.Cents, catID, merged.Date.String(), merged.Description, id); err != nil {
			return storeErr("update expense", err)
		}
		record = merged
		return nil
	})
	return record, err
}

func (s *Store) Delete(ctx context.Context, id int64) (core.Expense, error) {
	var record core.Expense
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, selectExpense+" WHERE e.id = ?", id)
		current, err := scanExpense(row)
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrNotFound
		}
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id); err != nil {
			return storeErr("delete expense", err)
		}
		record = current
		return nil
	})
	return record, err
}

func (s *Store) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM categories ORDER BY id")
	if err != nil {
		return nil, storeErr("list categories", err)
	}
	defer rows.Close()

	cats := []core.Category{}
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, storeErr("scan category", err)
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list categories", err)
	}
	return cats, nil
}

func (s *Store) CreateCategory(ctx context.Context, name string) (core.Category, error) {
	var cat core.Category
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var existing int64
		err := tx.QueryRowContext(ctx, "SELECT id FROM categories WHERE name = ?", name).Scan(&existing)
		if err == nil {
			return core.NewValidationError([]core.FieldError{
				{Field: "name", Message: "a category with this name already exists"},
			})
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return storeErr("lookup category", err)
		}

		res, err := tx.ExecContext(ctx, "INSERT INTO categories (name) VALUES (?)", name)
		if err != nil {
			return storeErr("insert category", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return storeErr("read inserted id", err)
		}
		cat = core.Category{ID: id, Name: name}
		return nil
	})
	return cat, err
}

func (s *Store) ResolveCategory(ctx context.Context, name string) (core.Category, error) {
	var cat core.Category
	err := s.db.QueryRowContext(ctx, "SELECT id, name FROM categories WHERE name = ?", name).
		Scan(&cat.ID, &cat.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, storeErr("lookup category", err)
	}
	return cat, nil
}

func (s *Store) EnsureCategory(ctx context.Context, name string) (core.Category, error) {
	var cat core.Category
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		id, err := ensureCategoryTx(ctx, tx, name)
		if err != nil {
			return err
		}
		cat = core.Category{ID: id, Name: name}
		return nil
	})
	return cat, err
}

func ensureCategoryTx(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, "SELECT id FROM categories WHERE name = ?", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, storeErr("lookup category", err)
	}

	res, err := tx.ExecContext(ctx, "INSERT INTO categories (name) VALUES (?)", name)
	if err != nil {
		return 0, storeErr("insert category", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, storeErr("read inserted id", err)
	}
	return id, nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin transaction", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return storeErr("commit transaction", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(row scanner) (core.Expense, error) {
	var (
		e       core.Expense
		spentOn string
	)
	if err := row.Scan(&e.ID, &e.Title, &e.Amount.Cents, &e.Category, &spentOn, &e.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Expense{}, err
		}
		return core.Expense{}, storeErr("scan expense", err)
	}
	date, err := core.ParseDate(spentOn)
	if err != nil {
		return core.Expense{}, fmt.Errorf("%w: stored date %q: %v", core.ErrStoreCorrupt, spentOn, err)
	}
	e.Date = date
	return e, nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", core.ErrStoreUnavailable, op, err)
}
