// Package ingestion compiles catalogs from uploads or remote URLs, stores
// the runs and publishes per-source outcomes.
package ingestion

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mr1hm/go-seismic-sources/internal/compiler"
	"github.com/mr1hm/go-seismic-sources/internal/config"
	"github.com/mr1hm/go-seismic-sources/internal/events"
	"github.com/mr1hm/go-seismic-sources/internal/models"
	"github.com/mr1hm/go-seismic-sources/internal/repository"
)

type Manager struct {
	cfg         *config.Config
	repo        repository.CatalogRepository
	broadcaster *events.Broadcaster
	client      *http.Client
	wg          sync.WaitGroup

	mu         sync.Mutex
	lastDigest [sha256.Size]byte
}

// NewManager wires a manager. repo and broadcaster may be nil.
func NewManager(cfg *config.Config, repo repository.CatalogRepository, broadcaster *events.Broadcaster) *Manager {
	return &Manager{
		cfg:         cfg,
		repo:        repo,
		broadcaster: broadcaster,
		client: &http.Client{
			Timeout: cfg.Fetch.Timeout,
		},
	}
}

// Ingest compiles one catalog, stores the run and broadcasts every
// outcome.
func (m *Manager) Ingest(ctx context.Context, name string, r io.Reader) (*models.Run, *compiler.Result, error) {
	c, err := compiler.New(m.cfg.Compiler.Options())
	if err != nil {
		return nil, nil, fmt.Errorf("error creating compiler: %w", err)
	}

	res, err := c.Compile(ctx, r)
	if err != nil {
		return nil, nil, fmt.Errorf("error compiling %s: %w", name, err)
	}

	run := &models.Run{
		ID:        uuid.NewString(),
		Name:      name,
		Strategy:  c.Strategy(),
		Records:   res.Records,
		Compiled:  res.Count(compiler.StatusCompiled),
		Dropped:   res.Count(compiler.StatusDropped),
		Failed:    res.Count(compiler.StatusFailed),
		CreatedAt: time.Now().UTC(),
	}

	if m.repo != nil {
		if err := m.repo.SaveRun(ctx, run, res.Catalog); err != nil {
			return nil, nil, fmt.Errorf("error saving run %s: %w", run.ID, err)
		}
	}

	if m.broadcaster != nil {
		if skipped := m.broadcaster.PublishRun(run.ID, res.Outcomes); skipped > 0 {
			slog.Warn("slow event subscribers missed outcomes", "run", run.ID, "skipped", skipped)
		}
	}

	slog.Info("ingested catalog", "run", run.ID, "name", name, "compiled", run.Compiled, "dropped", run.Dropped, "failed", run.Failed)
	return run, res, nil
}

// FetchCatalog downloads a catalog. The caller closes the body.
func (m *Manager) FetchCatalog(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error while doing request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	return resp.Body, nil
}

// IngestURL fetches and ingests a catalog.
func (m *Manager) IngestURL(ctx context.Context, url string) (*models.Run, *compiler.Result, error) {
	body, err := m.FetchCatalog(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	defer body.Close()
	return m.Ingest(ctx, url, body)
}

// Start launches the catalog poller when a URL and interval are configured.
func (m *Manager) Start(ctx context.Context) {
	if m.cfg.Fetch.URL == "" || m.cfg.Fetch.Interval <= 0 {
		return
	}
	m.wg.Add(1)
	go m.runPoller(ctx, m.cfg.Fetch.URL, m.cfg.Fetch.Interval)
}

func (m *Manager) runPoller(ctx context.Context, url string, interval time.Duration) {
	defer m.wg.Done()
	slog.Info("starting catalog poller", "url", url, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial poll
	m.poll(ctx, url)

	for {
		select {
		case <-ctx.Done():
			slog.Info("catalog poller shutting down", "url", url)
			return
		case <-ticker.C:
			m.poll(ctx, url)
		}
	}
}

// poll recompiles the catalog only when its content changed since the last
// successful poll.
func (m *Manager) poll(ctx context.Context, url string) {
	slog.Debug("polling catalog", "url", url)

	body, err := m.FetchCatalog(ctx, url)
	if err != nil {
		slog.Error("poll failed", "url", url, "error", err)
		return
	}
	data, err := io.ReadAll(body)
	body.Close()
	if err != nil {
		slog.Error("poll failed", "url", url, "error", err)
		return
	}

	digest := sha256.Sum256(data)
	m.mu.Lock()
	unchanged := digest == m.lastDigest
	m.mu.Unlock()
	if unchanged {
		slog.Debug("catalog unchanged", "url", url)
		return
	}

	if _, _, err := m.Ingest(ctx, url, bytes.NewReader(data)); err != nil {
		slog.Error("poll ingest failed", "url", url, "error", err)
		return
	}

	m.mu.Lock()
	m.lastDigest = digest
	m.mu.Unlock()
}

func (m *Manager) Stop() {
	m.wg.Wait()
	slog.Info("ingestion manager stopped")
}
