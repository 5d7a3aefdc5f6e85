package ingestion

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/mr1hm/go-seismic-sources/internal/catalog/catalogtest"
	"github.com/mr1hm/go-seismic-sources/internal/config"
	"github.com/mr1hm/go-seismic-sources/internal/events"
	"github.com/mr1hm/go-seismic-sources/internal/models"
	"github.com/mr1hm/go-seismic-sources/internal/repository"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// idle keep-alive connections to closed test servers wind down asynchronously
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

// mockCatalogRepo implements repository.CatalogRepository for testing
type mockCatalogRepo struct {
	mu        sync.Mutex
	runs      map[string]*models.Run
	sources   int
	saveCount atomic.Int64
}

func newMockRepo() *mockCatalogRepo {
	return &mockCatalogRepo{
		runs: make(map[string]*models.Run),
	}
}

func (m *mockCatalogRepo) SaveRun(ctx context.Context, run *models.Run, cat *models.Catalog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	m.sources += cat.Len()
	m.saveCount.Add(1)
	return nil
}

func (m *mockCatalogRepo) GetRun(ctx context.Context, id string) (*models.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.runs[id]; ok {
		return r, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockCatalogRepo) ListRuns(ctx context.Context, limit int) ([]models.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Run
	for _, r := range m.runs {
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockCatalogRepo) ListSources(ctx context.Context, opts repository.Filter) ([]models.StoredSource, error) {
	return nil, nil
}

func (m *mockCatalogRepo) GetMFDs(ctx context.Context, sourceID int64) ([]models.StoredMFD, error) {
	return nil, repository.ErrNotFound
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Fetch.Timeout = time.Second
	return cfg
}

func testCatalog() string {
	return catalogtest.New().
		Label("D", 1).
		Vertex("43.5", "45.0").
		Vertex("44.0", "46.0").
		Vertex("43.0", "46.5").
		Rate("5.5", "0.01").
		Rate("6.0", "0.003").
		Label("D", 2).
		Rate("4.5", "0.1").
		String()
}

func TestManager_Ingest(t *testing.T) {
	repo := newMockRepo()
	b := events.NewBroadcaster()
	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	mgr := NewManager(testConfig(), repo, b)

	run, res, err := mgr.Ingest(context.Background(), "upload.txt", strings.NewReader(testCatalog()))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if run.ID == "" || run.Name != "upload.txt" || run.Strategy != "gr" {
		t.Errorf("unexpected run: %+v", run)
	}
	if run.Compiled != 1 || run.Dropped != 1 || run.Failed != 0 {
		t.Errorf("expected 1 compiled and 1 dropped, got %+v", run)
	}
	if res.Catalog.Len() != 1 {
		t.Errorf("expected 1 source, got %d", res.Catalog.Len())
	}
	if repo.saveCount.Load() != 1 || repo.sources != 1 {
		t.Errorf("expected run saved with 1 source, saves=%d sources=%d", repo.saveCount.Load(), repo.sources)
	}

	for i, want := range []string{"compiled", "dropped"} {
		select {
		case e := <-ch:
			if e.RunID != run.ID || e.Status != want {
				t.Errorf("expected %s event for run %s, got %+v", want, run.ID, e)
			}
			if e.Seq != i+1 || e.Total != 2 {
				t.Errorf("expected event %d of 2, got %d of %d", i+1, e.Seq, e.Total)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for event")
		}
	}
}

func TestManager_IngestConfigurationError(t *testing.T) {
	repo := newMockRepo()
	mgr := NewManager(testConfig(), repo, nil)

	text := catalogtest.New().Label("Q", 1).String()
	_, _, err := mgr.Ingest(context.Background(), "bad.txt", strings.NewReader(text))
	if err == nil {
		t.Fatal("expected error for unknown source code")
	}
	if repo.saveCount.Load() != 0 {
		t.Error("failed run must not be saved")
	}
}

func TestManager_IngestURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/catalog.txt" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, testCatalog())
	}))
	defer srv.Close()

	mgr := NewManager(testConfig(), nil, nil)

	run, _, err := mgr.IngestURL(context.Background(), srv.URL+"/catalog.txt")
	if err != nil {
		t.Fatalf("IngestURL failed: %v", err)
	}
	if run.Compiled != 1 {
		t.Errorf("expected 1 compiled source, got %d", run.Compiled)
	}

	_, _, err = mgr.IngestURL(context.Background(), srv.URL+"/missing.txt")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("expected status error, got %v", err)
	}
}

func TestManager_PollerSkipsUnchangedCatalog(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, testCatalog())
	}))
	defer srv.Close()

	repo := newMockRepo()
	mgr := NewManager(testConfig(), repo, nil)

	ctx := context.Background()
	mgr.poll(ctx, srv.URL)
	mgr.poll(ctx, srv.URL)

	if hits.Load() != 2 {
		t.Errorf("expected 2 fetches, got %d", hits.Load())
	}
	if repo.saveCount.Load() != 1 {
		t.Errorf("expected unchanged catalog to be ingested once, got %d", repo.saveCount.Load())
	}
}

func TestManager_StartStop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testCatalog())
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Fetch.URL = srv.URL
	cfg.Fetch.Interval = time.Minute

	repo := newMockRepo()
	mgr := NewManager(cfg, repo, nil)

	ctx, cancel := context.WithCancel(context.Background())
	mgr.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for repo.saveCount.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	cancel()

	done := make(chan struct{})
	go func() {
		mgr.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("manager.Stop() timed out - possible goroutine leak")
	}

	if repo.saveCount.Load() != 1 {
		t.Errorf("expected initial poll to ingest once, got %d", repo.saveCount.Load())
	}
}
