package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/mindmap/pkg/editor"
	"github.com/matzehuels/mindmap/pkg/layout"
	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/observability"
	"github.com/matzehuels/mindmap/pkg/store"
)

func newTestServer(t *testing.T, cfg Config) (*Server, store.Store) {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AutosaveDelay == 0 {
		cfg.AutosaveDelay = time.Hour
	}
	s := New(st, cfg, nil)
	t.Cleanup(func() {
		s.Close(context.Background())
		st.Close()
	})
	return s, st
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func sampleMap(t *testing.T) *mindmap.Map {
	t.Helper()
	m := mindmap.New("sample", mindmap.DefaultSettings())
	a, _ := m.InsertChild(m.RootID)
	m.SetText(a, "first")
	m.InsertChild(a)
	return m
}

func saveSample(t *testing.T, h http.Handler, id string) saveResponse {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/maps", map[string]any{"id": id, "title": "Plans", "map": sampleMap(t)})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /api/maps = %d %s", rec.Code, rec.Body)
	}
	return decode[saveResponse](t, rec)
}

func TestMapsLifecycle(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/api/maps", nil)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("empty list = %d %s", rec.Code, rec.Body)
	}

	saved := saveSample(t, h, "")
	if !strings.HasPrefix(saved.ID, "map-") || saved.Title != "Plans" || saved.UpdatedAt == 0 {
		t.Errorf("save response = %+v", saved)
	}

	list := decode[[]store.Summary](t, do(t, h, http.MethodGet, "/api/maps?id=0", nil))
	if len(list) != 1 || list[0].ID != saved.ID || list[0].Title != "Plans" {
		t.Errorf("list = %+v", list)
	}

	rec = do(t, h, http.MethodGet, "/api/maps?id="+saved.ID, nil)
	got := decode[mapBody](t, rec)
	if got.Map == nil || got.Map.Len() != 3 || got.Map.ID != saved.ID {
		t.Fatalf("GET map = %s", rec.Body)
	}
	created := got.Map.CreatedAt

	time.Sleep(2 * time.Millisecond)
	again := saveSample(t, h, saved.ID)
	if again.UpdatedAt <= saved.UpdatedAt {
		t.Errorf("updatedAt did not advance: %d -> %d", saved.UpdatedAt, again.UpdatedAt)
	}
	got = decode[mapBody](t, do(t, h, http.MethodGet, "/api/maps?id="+saved.ID, nil))
	if got.Map.CreatedAt != created {
		t.Errorf("createdAt changed on update: %d -> %d", created, got.Map.CreatedAt)
	}

	rec = do(t, h, http.MethodDelete, "/api/maps/"+saved.ID, nil)
	if rec.Code != http.StatusOK || decode[map[string]bool](t, rec)["success"] != true {
		t.Errorf("DELETE = %d %s", rec.Code, rec.Body)
	}
	if rec := do(t, h, http.MethodGet, "/api/maps?id="+saved.ID, nil); rec.Code != http.StatusNotFound {
		t.Errorf("GET deleted = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/api/maps/"+saved.ID, nil); rec.Code != http.StatusOK {
		t.Errorf("DELETE missing = %d", rec.Code)
	}
}

func TestSaveRejects(t *testing.T) {
	s, st := newTestServer(t, Config{})
	h := s.Handler()

	tests := []struct {
		name string
		body any
		want int
	}{
		{"not json", "{", http.StatusBadRequest},
		{"no map", map[string]any{"title": "x"}, http.StatusBadRequest},
		{"bad id", map[string]any{"id": "../x", "map": sampleMap(t)}, http.StatusBadRequest},
		{"long title", map[string]any{"title": strings.Repeat("t", 300), "map": sampleMap(t)}, http.StatusBadRequest},
		{
			"dangling child",
			`{"map": {"rootId": "n1", "nodes": {"n1": {"text": "r", "children": ["n2"]}}}}`,
			http.StatusBadRequest,
		},
		{
			"cycle",
			`{"map": {"rootId": "n1", "nodes": {"n1": {"children": ["n2"]}, "n2": {"parentId": "n1", "children": ["n1"]}}}}`,
			http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/maps", tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body)
			}
			if decode[errorBody](t, rec).Error == "" {
				t.Error("error body is empty")
			}
		})
	}

	if list, _ := st.List(context.Background()); len(list) != 0 {
		t.Errorf("rejected saves were stored: %+v", list)
	}
}

func TestGetMissing(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	rec := do(t, s.Handler(), http.MethodGet, "/api/maps?id=nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
	if msg := decode[errorBody](t, rec).Error; !strings.Contains(msg, "not found") {
		t.Errorf("error = %q", msg)
	}
}

func TestLayoutEndpoint(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	h := s.Handler()
	saved := saveSample(t, h, "map-layout")

	rec := do(t, h, http.MethodGet, "/api/maps/"+saved.ID+"/layout", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rec.Code, rec.Body)
	}
	l := decode[layout.Layout](t, rec)
	if len(l.Nodes) != 3 || len(l.Order) != 3 || len(l.Links) != 2 {
		t.Errorf("layout = %d nodes, %d links", len(l.Nodes), len(l.Links))
	}

	if rec := do(t, h, http.MethodGet, "/api/maps/missing/layout", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing map layout = %d", rec.Code)
	}
}

func TestOpsEndpoint(t *testing.T) {
	s, st := newTestServer(t, Config{})
	h := s.Handler()
	saved := saveSample(t, h, "map-ops")
	m, _ := st.Get(context.Background(), saved.ID)
	root := m.RootID
	ops := "/api/maps/" + saved.ID + "/ops"

	rec := do(t, h, http.MethodPost, ops, editor.Op{Kind: editor.OpInsertChild, Node: root})
	if rec.Code != http.StatusOK {
		t.Fatalf("insert = %d %s", rec.Code, rec.Body)
	}
	res := decode[editor.OpResult](t, rec)
	if res.ID == "" {
		t.Fatal("insert did not report the new node")
	}
	rec = do(t, h, http.MethodPost, ops, editor.Op{Kind: editor.OpText, Node: res.ID, Text: "added"})
	if rec.Code != http.StatusOK {
		t.Fatalf("text = %d %s", rec.Code, rec.Body)
	}

	// Reads see the session before it is saved.
	got := decode[mapBody](t, do(t, h, http.MethodGet, "/api/maps?id="+saved.ID, nil))
	if n, ok := got.Map.Node(res.ID); !ok || n.Text != "added" {
		t.Errorf("GET after op misses the edit")
	}

	errs := []struct {
		name string
		body any
		want int
	}{
		{"bad json", "nope", http.StatusBadRequest},
		{"unknown op", editor.Op{Kind: "fly", Node: root}, http.StatusBadRequest},
		{"unknown node", editor.Op{Kind: editor.OpDelete, Node: "zz"}, http.StatusNotFound},
		{"delete root", editor.Op{Kind: editor.OpDelete, Node: root}, http.StatusConflict},
	}
	for _, tt := range errs {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, h, http.MethodPost, ops, tt.body); rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body)
			}
		})
	}

	if err := s.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	stored, err := st.Get(context.Background(), saved.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n, ok := stored.Node(res.ID); !ok || n.Text != "added" {
		t.Error("Close() did not flush the session")
	}
}

func TestSaveReplacesSession(t *testing.T) {
	s, st := newTestServer(t, Config{})
	h := s.Handler()
	saved := saveSample(t, h, "map-replace")
	m, _ := st.Get(context.Background(), saved.ID)

	do(t, h, http.MethodPost, "/api/maps/"+saved.ID+"/ops", editor.Op{Kind: editor.OpInsertChild, Node: m.RootID})
	saveSample(t, h, saved.ID)
	s.Close(context.Background())

	stored, _ := st.Get(context.Background(), saved.ID)
	if stored.Len() != 3 {
		t.Errorf("stale session overwrote the saved map: %d nodes", stored.Len())
	}
}

func TestBasicAuth(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatal(err)
	}
	s, _ := newTestServer(t, Config{Username: "ada", PasswordHash: hash})
	h := s.Handler()

	tests := []struct {
		name       string
		user, pass string
		set        bool
		want       int
	}{
		{"none", "", "", false, http.StatusUnauthorized},
		{"wrong password", "ada", "guess", true, http.StatusUnauthorized},
		{"wrong user", "bob", "secret", true, http.StatusUnauthorized},
		{"ok", "ada", "secret", true, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/maps", nil)
			if tt.set {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("missing WWW-Authenticate header")
			}
		})
	}
}

func TestVersionAndNotFound(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	h := s.Handler()

	info := decode[map[string]string](t, do(t, h, http.MethodGet, "/api/version", nil))
	if info["version"] == "" || info["goVersion"] == "" {
		t.Errorf("version = %v", info)
	}
	rec := do(t, h, http.MethodGet, "/api/nothing", nil)
	if rec.Code != http.StatusNotFound || decode[errorBody](t, rec).Error == "" {
		t.Errorf("unknown route = %d %s", rec.Code, rec.Body)
	}
}

type recordingHooks struct {
	observability.NoopHTTPHooks
	mu     sync.Mutex
	routes []string
}

func (h *recordingHooks) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, method+" "+route)
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	s, _ := newTestServer(t, Config{})
	do(t, s.Handler(), http.MethodDelete, "/api/maps/abc", nil)

	if len(hooks.routes) != 1 || hooks.routes[0] != "DELETE /api/maps/{id}" {
		t.Errorf("routes = %v", hooks.routes)
	}
}

// gatedStore blocks Get for one map ID until release is closed.
type gatedStore struct {
	store.Store
	id      string
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) Get(ctx context.Context, id string) (*mindmap.Map, error) {
	if id == g.id {
		g.entered <- struct{}{}
		<-g.release
	}
	return g.Store.Get(ctx, id)
}

func TestSlowLoadDoesNotBlockOtherMaps(t *testing.T) {
	base, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	slow, fast := sampleMap(t), sampleMap(t)
	for _, m := range []*mindmap.Map{slow, fast} {
		if err := base.Save(ctx, m); err != nil {
			t.Fatal(err)
		}
	}
	gs := &gatedStore{Store: base, id: slow.ID, entered: make(chan struct{}, 2), release: make(chan struct{})}
	s := New(gs, Config{AutosaveDelay: time.Hour}, nil)
	t.Cleanup(func() { s.Close(ctx) })

	loaded := make(chan error, 1)
	go func() {
		_, err := s.session(ctx, slow.ID)
		loaded <- err
	}()
	<-gs.entered

	done := make(chan error, 1)
	go func() {
		_, err := s.session(ctx, fast.ID)
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("session(fast) error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("session(fast) waited on another map's load")
	}

	// A retire during the load forces a second read.
	if err := s.retire(ctx, slow.ID, false); err != nil {
		t.Fatal(err)
	}
	close(gs.release)
	if err := <-loaded; err != nil {
		t.Fatalf("session(slow) error: %v", err)
	}
	select {
	case <-gs.entered:
	default:
		t.Error("load spanning a retire was not repeated")
	}
}
