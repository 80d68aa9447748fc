package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	merrors "github.com/matzehuels/mindmap/pkg/errors"
	"github.com/matzehuels/mindmap/pkg/mindmap"
)

func sampleMap(t *testing.T, title string, updatedAt int64) *mindmap.Map {
	t.Helper()
	m := mindmap.New(title, mindmap.DefaultSettings())
	c, _ := m.InsertChild(m.RootID)
	m.SetText(c, "child")
	m.SetImage(c, &mindmap.Media{Kind: mindmap.MediaKindImage, DataURL: "data:image/png;base64,AA==", Width: 8, Height: 8, NaturalWidth: 16, NaturalHeight: 16})
	m.InsertChild(c)
	m.ToggleCollapse(c)
	m.CreatedAt = 1
	m.UpdatedAt = updatedAt
	return m
}

// testStore runs the behavior every backend must share.
func testStore(t *testing.T, s Store) {
	ctx := context.Background()

	if list, err := s.List(ctx); err != nil || len(list) != 0 {
		t.Fatalf("List() on empty store = %v, %v", list, err)
	}

	older := sampleMap(t, "older", 1000)
	newer := sampleMap(t, "newer", 2000)
	for _, m := range []*mindmap.Map{older, newer} {
		if err := s.Save(ctx, m); err != nil {
			t.Fatalf("Save(%s) error: %v", m.Title, err)
		}
	}

	got, err := s.Get(ctx, older.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Len() != older.Len() || got.Title != "older" || got.UpdatedAt != 1000 {
		t.Errorf("Get() = %d nodes %q at %d", got.Len(), got.Title, got.UpdatedAt)
	}
	if res := mindmap.Validate(got); !res.Valid {
		t.Errorf("loaded map invalid: %s", res.Reason)
	}
	for id, n := range older.Nodes {
		g, ok := got.Node(id)
		if !ok {
			t.Fatalf("node %s lost", id)
		}
		if g.Text != n.Text || g.Collapsed != n.Collapsed || (g.Media == nil) != (n.Media == nil) {
			t.Errorf("node %s = %+v, want %+v", id, g, n)
		}
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) != 2 || list[0].ID != newer.ID || list[1].ID != older.ID {
		t.Fatalf("List() = %+v, want newer then older", list)
	}
	if list[1].Title != "older" || list[1].UpdatedAt != 1000 || list[1].CreatedAt != 1 {
		t.Errorf("summary = %+v", list[1])
	}

	// Save replaces and reorders.
	older.SetTitle("renamed")
	older.UpdatedAt = 3000
	if err := s.Save(ctx, older); err != nil {
		t.Fatal(err)
	}
	list, _ = s.List(ctx)
	if len(list) != 2 || list[0].ID != older.ID || list[0].Title != "renamed" {
		t.Errorf("List() after update = %+v", list)
	}

	if err := s.Delete(ctx, older.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := s.Get(ctx, older.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(deleted) error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, older.ID); err != nil {
		t.Errorf("Delete(missing) error = %v", err)
	}
	if list, _ := s.List(ctx); len(list) != 1 {
		t.Errorf("List() after delete = %+v", list)
	}

	if _, err := s.Get(ctx, "../escape"); !merrors.Is(err, merrors.ErrCodeInvalidInput) {
		t.Errorf("Get(bad id) error = %v, want INVALID_INPUT", err)
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	testStore(t, s)
}

func TestFileStoreCorruptMap(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	bad := `{"id":"broken","rootId":"n1","nodes":{"n1":{"children":["n9"]}}}`
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte(bad), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(context.Background(), "broken"); !merrors.Is(err, merrors.ErrCodeInvalidMap) {
		t.Errorf("Get(corrupt) error = %v, want INVALID_MAP", err)
	}
	// Non-map files are ignored by List.
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600)
	list, err := s.List(context.Background())
	if err != nil || len(list) != 1 || list[0].ID != "broken" {
		t.Errorf("List() = %+v, %v", list, err)
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "db", "maps.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	testStore(t, s)
}

func TestSQLiteStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "maps.db")
	s, err := NewSQLiteStore(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	m := sampleMap(t, "kept", 10)
	if err := s.Save(ctx, m); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = NewSQLiteStore(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if got, err := s.Get(ctx, m.ID); err != nil || got.Title != "kept" {
		t.Errorf("Get() after reopen = %v, %v", got, err)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("MINDMAP_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MINDMAP_TEST_REDIS_ADDR not set")
	}
	s, err := NewRedisStore(context.Background(), RedisConfig{Addr: addr, Prefix: "mindmap-test-" + mindmap.NewMapID()})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	testStore(t, s)
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MINDMAP_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("MINDMAP_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := NewMongoStore(ctx, MongoConfig{URI: uri, Database: "mindmap_test", Collection: mindmap.NewMapID()})
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		s.coll.Drop(ctx)
		s.Close()
	}()
	testStore(t, s)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		cfg     Config
		wantErr merrors.Code
	}{
		{"file", Config{Driver: DriverFile, Path: t.TempDir()}, ""},
		{"default driver", Config{Path: t.TempDir()}, ""},
		{"sqlite", Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "m.db")}, ""},
		{"unknown", Config{Driver: "postgres"}, merrors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, tt.cfg, nil)
			if tt.wantErr != "" {
				if !merrors.Is(err, tt.wantErr) {
					t.Errorf("Open() error = %v, want %s", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			s.Close()
		})
	}
}

func TestSortSummaries(t *testing.T) {
	s := []Summary{{ID: "b", UpdatedAt: 1}, {ID: "c", UpdatedAt: 5}, {ID: "a", UpdatedAt: 1}}
	sortSummaries(s)
	want := []string{"c", "a", "b"}
	for i, id := range want {
		if s[i].ID != id {
			t.Errorf("position %d = %s, want %s", i, s[i].ID, id)
		}
	}
}
