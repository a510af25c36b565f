// Package store defines the persistence ports for expense records.
package store

import (
	"context"

	"expensed/internal/core"
)

type (
	// Store is the record-store capability. Both implementations (JSON
	// file, SQLite) satisfy it; the backend factory picks one at startup.
	//
	// Get, Replace, MergePatch and Delete return core.ErrNotFound for an
	// unknown id; every method may return core.ErrStoreUnavailable when
	// the underlying file or database fails.
	Store interface {
		// List returns all records in stored order: insertion order for
		// the file store, ascending id for the SQLite store.
		List(ctx context.Context) ([]core.Expense, error)

		Get(ctx context.Context, id int64) (core.Expense, error)

		// Create assigns the next identifier above the current maximum
		// and persists the record.
		Create(ctx context.Context, fields core.Fields) (core.Expense, error)

		// Replace overwrites every mutable field, preserving the id.
		Replace(ctx context.Context, id int64, fields core.Fields) (core.Expense, error)

		// MergePatch shallow-merges the supplied fields onto the stored
		// record. An empty patch returns the record unchanged.
		MergePatch(ctx context.Context, id int64, patch core.Patch) (core.Expense, error)

		// Delete removes the record and returns it.
		Delete(ctx context.Context, id int64) (core.Expense, error)
	}

	// CategoryStore manages the category taxonomy. Categories register
	// implicitly on first use by an expense write (EnsureCategory) or
	// explicitly through CreateCategory.
	CategoryStore interface {
		ListCategories(ctx context.Context) ([]core.Category, error)

		// CreateCategory fails with a validation error when the name is
		// already taken.
		CreateCategory(ctx context.Context, name string) (core.Category, error)

		// ResolveCategory maps a name to its category, or core.ErrNotFound.
		ResolveCategory(ctx context.Context, name string) (core.Category, error)

		// EnsureCategory resolves the name, registering it first if needed.
		EnsureCategory(ctx context.Context, name string) (core.Category, error)
	}

	// Backend bundles the capabilities one configured backend provides.
	Backend interface {
		Store
		CategoryStore
	}
)
