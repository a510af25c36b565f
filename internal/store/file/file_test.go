package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"expensed/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "expenses-data.json"))
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	return s
}

func groceries() core.Fields {
	return core.Fields{
		Title:       "Groceries",
		Amount:      core.Money{Cents: 15000},
		Category:    "Food",
		Date:        core.NewDate(2024, 11, 24),
		Description: core.DefaultDescription,
	}
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.Create(ctx, groceries())
	if err != nil {
		t.Fatalf("Create error = %v", err)
	}
	if first.ID != 1 {
		t.Errorf("first id = %d, want 1", first.ID)
	}

	second, err := s.Create(ctx, groceries())
	if err != nil {
		t.Fatalf("Create error = %v", err)
	}
	if second.ID != 2 {
		t.Errorf("second id = %d, want 2", second.ID)
	}
}

func TestCreateAssignsMaxPlusOneAfterDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		if _, err := s.Create(ctx, groceries()); err != nil {
			t.Fatalf("Create error = %v", err)
		}
	}
	if _, err := s.Delete(ctx, 3); err != nil {
		t.Fatalf("Delete error = %v", err)
	}

	created, err := s.Create(ctx, groceries())
	if err != nil {
		t.Fatalf("Create error = %v", err)
	}
	// Max surviving id is 2, so the next id is 3 again; only the
	// current maximum matters, not a global high-water mark.
	if created.ID != 3 {
		t.Errorf("id after delete = %d, want 3", created.ID)
	}
}

func TestGetAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.Create(ctx, groceries())
	if err != nil {
		t.Fatalf("Create error = %v", err)
	}

	got, err := s.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get error = %v", err)
	}
	if got != created {
		t.Errorf("Get = %+v, want %+v", got, created)
	}

	deleted, err := s.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("Delete error = %v", err)
	}
	if deleted != created {
		t.Errorf("Delete returned %+v, want %+v", deleted, created)
	}

	if _, err := s.Get(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get after delete error = %v, want ErrNotFound", err)
	}
	if _, err := s.Delete(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
}

func TestReplace(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.Create(ctx, groceries())
	if err != nil {
		t.Fatalf("Create error = %v", err)
	}

	fields := core.Fields{
		Title:       "Monthly rent",
		Amount:      core.Money{Cents: 80000},
		Category:    "Housing",
		Date:        core.NewDate(2024, 12, 1),
		Description: "december rent",
	}
	replaced, err := s.Replace(ctx, created.ID, fields)
	if err != nil {
		t.Fatalf("Replace error = %v", err)
	}
	if replaced != fields.Record(created.ID) {
		t.Errorf("Replace = %+v, want %+v", replaced, fields.Record(created.ID))
	}

	got, err := s.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get error = %v", err)
	}
	if got != replaced {
		t.Errorf("Get after Replace = %+v, want %+v", got, replaced)
	}

	if _, err := s.Replace(ctx, 999, fields); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Replace unknown id error = %v, want ErrNotFound", err)
	}
}

func TestMergePatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.Create(ctx, groceries())
	if err != nil {
		t.Fatalf("Create error = %v", err)
	}

	t.Run("empty patch is a no-op", func(t *testing.T) {
		got, err := s.MergePatch(ctx, created.ID, core.Patch{})
		if err != nil {
			t.Fatalf("MergePatch error = %v", err)
		}
		if got != created {
			t.Errorf("MergePatch = %+v, want unchanged %+v", got, created)
		}
	})

	t.Run("supplied field overwrites, others preserved", func(t *testing.T) {
		amount := core.Money{Cents: 20000}
		got, err := s.MergePatch(ctx, created.ID, core.Patch{Amount: &amount})
		if err != nil {
			t.Fatalf("MergePatch error = %v", err)
		}
		if got.Amount.Cents != 20000 {
			t.Errorf("Amount = %d, want 20000", got.Amount.Cents)
		}
		if got.Title != created.Title {
			t.Errorf("Title = %q, want unchanged %q", got.Title, created.Title)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if _, err := s.MergePatch(ctx, 999, core.Patch{}); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestListKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	titles := []string{"first one", "second one", "third one"}
	for _, title := range titles {
		f := groceries()
		f.Title = title
		if _, err := s.Create(ctx, f); err != nil {
			t.Fatalf("Create error = %v", err)
		}
	}

	records, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List error = %v", err)
	}
	if len(records) != len(titles) {
		t.Fatalf("got %d records, want %d", len(records), len(titles))
	}
	for i, title := range titles {
		if records[i].Title != title {
			t.Errorf("record %d title = %q, want %q", i, records[i].Title, title)
		}
	}
}

func TestPersistedLayoutIsPrettyPrintedArray(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "expenses-data.json")
	s, err := New(path)
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	if _, err := s.Create(ctx, groceries()); err != nil {
		t.Fatalf("Create error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error = %v", err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "[") {
		t.Errorf("file should hold a JSON array, got prefix %q", text[:1])
	}
	if !strings.Contains(text, "\n  ") {
		t.Error("file should be pretty-printed with indentation")
	}
}

func TestCorruptFileIsReported(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "expenses-data.json")
	s, err := New(path)
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}

	if _, err := s.List(ctx); !errors.Is(err, core.ErrStoreCorrupt) {
		t.Errorf("List error = %v, want ErrStoreCorrupt", err)
	}
}

func TestCategories(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// Implicit registration through an expense write.
	if _, err := s.Create(ctx, groceries()); err != nil {
		t.Fatalf("Create error = %v", err)
	}
	cat, err := s.ResolveCategory(ctx, "Food")
	if err != nil {
		t.Fatalf("ResolveCategory error = %v", err)
	}
	if cat.Name != "Food" {
		t.Errorf("Name = %q, want Food", cat.Name)
	}

	if _, err := s.ResolveCategory(ctx, "Travel"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("ResolveCategory unknown error = %v, want ErrNotFound", err)
	}

	created, err := s.CreateCategory(ctx, "Travel")
	if err != nil {
		t.Fatalf("CreateCategory error = %v", err)
	}
	if created.ID == cat.ID {
		t.Errorf("category ids must be unique, both %d", created.ID)
	}

	if _, err := s.CreateCategory(ctx, "Travel"); err == nil {
		t.Error("CreateCategory with duplicate name should fail")
	} else if _, ok := core.AsValidationError(err); !ok {
		t.Errorf("duplicate name error = %v, want *ValidationError", err)
	}

	cats, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories error = %v", err)
	}
	if len(cats) != 2 {
		t.Errorf("got %d categories, want 2", len(cats))
	}
}
