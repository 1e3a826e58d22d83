package shapeseek

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"golang.org/x/time/rate"

	"github.com/shapeseek/shapeseek/blobstore"
	"github.com/shapeseek/shapeseek/catalog"
	"github.com/shapeseek/shapeseek/descriptor"
	"github.com/shapeseek/shapeseek/index"
	"github.com/shapeseek/shapeseek/mesh"
	"github.com/shapeseek/shapeseek/persistence"
)

type managerState int

const (
	stateUninitialized managerState = iota
	stateReady
	stateClosed
)

func (s managerState) String() string {
	switch s {
	case stateReady:
		return "ready"
	case stateClosed:
		return "closed"
	default:
		return "uninitialized"
	}
}

// Catalog is the durable system of record the Manager builds on.
// catalog.SQLite implements it.
type Catalog interface {
	Put(ctx context.Context, m catalog.Model) error
	Get(ctx context.Context, id int64) (catalog.Model, error)
	Count(ctx context.Context) (int, error)
	Snapshot(ctx context.Context) ([]index.Entry, error)
	Close() error
}

// Stats summarizes the Manager's current state.
type Stats struct {
	State        string `json:"state"`
	IndexCount   int    `json:"index_count"`
	Dimension    int    `json:"dimension"`
	CatalogCount int    `json:"catalog_count"`
}

// Manager coordinates mesh ingestion, descriptor extraction, the in-memory
// index, the catalog, and snapshot persistence.
//
// Lifecycle is Uninitialized -> Ready (Initialize) -> Closed (Close).
// Operations other than Initialize and Close require the Ready state.
// Searches run concurrently; writes (ingest, rebuild) are serialized.
type Manager struct {
	opts      options
	cat       Catalog
	blobs     blobstore.Store
	idx       *index.Flat
	extractor *descriptor.Extractor

	mu     sync.RWMutex
	state  managerState
	seen   *roaring64.Bitmap
	nextID int64

	flushMu      sync.Mutex
	flushLimiter *rate.Limiter
	flushWG      sync.WaitGroup
}

// New creates a Manager. Call Initialize before using it.
func New(cat Catalog, blobs blobstore.Store, optFns ...Option) (*Manager, error) {
	if cat == nil {
		return nil, fmt.Errorf("shapeseek: catalog is required")
	}
	if blobs == nil {
		return nil, fmt.Errorf("shapeseek: blob store is required")
	}

	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	idx, err := index.NewFlat(descriptor.Dim)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		opts:      opts,
		cat:       cat,
		blobs:     blobs,
		idx:       idx,
		extractor: descriptor.New(opts.extractorOpts...),
		seen:      roaring64.New(),
		nextID:    1,
	}
	if opts.flushInterval > 0 && opts.snapshotPath != "" {
		m.flushLimiter = rate.NewLimiter(rate.Every(opts.flushInterval), 1)
	}
	return m, nil
}

// Initialize brings the Manager to the Ready state. The index is restored
// from the snapshot file when one exists and verifies; otherwise it is
// rebuilt from the catalog. A missing or corrupt snapshot is therefore never
// fatal. Initialize is idempotent.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case stateClosed:
		return ErrClosed
	case stateReady:
		return nil
	}

	restored := false
	if m.opts.snapshotPath != "" {
		err := persistence.LoadFromFile(m.opts.snapshotPath, func(r io.Reader) error {
			_, err := m.idx.ReadFrom(r)
			return err
		})
		switch {
		case err == nil:
			restored = true
		case os.IsNotExist(err):
			m.opts.logger.InfoContext(ctx, "no index snapshot, rebuilding from catalog",
				"path", m.opts.snapshotPath)
		default:
			m.opts.logger.WarnContext(ctx, "index snapshot unusable, rebuilding from catalog",
				"path", m.opts.snapshotPath, "error", err)
		}
	}

	if !restored {
		entries, err := m.cat.Snapshot(ctx)
		if err != nil {
			return fmt.Errorf("shapeseek: catalog snapshot: %w", err)
		}
		if err := m.idx.Rebuild(ctx, entries); err != nil {
			return fmt.Errorf("shapeseek: index rebuild: %w", err)
		}
	}

	m.resetIDStateLocked()
	m.state = stateReady
	m.opts.logger.InfoContext(ctx, "manager ready",
		"index_count", m.idx.Stats().Count, "restored_from_snapshot", restored)
	return nil
}

// resetIDStateLocked rebuilds the duplicate-id bitmap and the id allocator
// from the current index contents. Caller holds mu.
func (m *Manager) resetIDStateLocked() {
	m.seen = roaring64.New()
	m.nextID = 1
	for _, e := range m.idx.Entries() {
		m.seen.Add(uint64(e.ID))
		if e.ID >= m.nextID {
			m.nextID = e.ID + 1
		}
	}
}

// Add inserts a precomputed descriptor under an explicit model id. Most
// callers want IngestMesh instead. Duplicate ids are rejected.
func (m *Manager) Add(ctx context.Context, id int64, vector []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireReadyLocked(); err != nil {
		return err
	}
	if err := m.addLocked(ctx, id, vector); err != nil {
		return err
	}
	m.maybeFlushAsync()
	return nil
}

func (m *Manager) addLocked(ctx context.Context, id int64, vector []float32) error {
	if m.seen.Contains(uint64(id)) {
		return &ErrDuplicateID{ID: id}
	}
	if err := m.idx.Insert(ctx, id, vector); err != nil {
		return err
	}
	m.seen.Add(uint64(id))
	if id >= m.nextID {
		m.nextID = id + 1
	}
	return nil
}

// IngestMesh runs the full pipeline for one uploaded model: parse,
// normalize, extract, store the raw file, record in the catalog, index the
// descriptor. The returned Model carries the assigned id.
func (m *Manager) IngestMesh(ctx context.Context, name, format string, r io.Reader) (catalog.Model, error) {
	start := time.Now()
	model, err := m.ingestMesh(ctx, name, format, r)
	m.opts.metrics.RecordIngest(time.Since(start), err)
	m.opts.logger.LogIngest(ctx, model.ID, name, format, err)
	return model, err
}

func (m *Manager) ingestMesh(ctx context.Context, name, format string, r io.Reader) (catalog.Model, error) {
	if err := m.requireReady(); err != nil {
		return catalog.Model{}, err
	}
	if !mesh.Supported(format) {
		return catalog.Model{}, &ErrUnsupportedFormat{Format: format}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return catalog.Model{}, fmt.Errorf("shapeseek: read upload: %w", err)
	}
	vec, err := m.extractFromBytes(data, format)
	if err != nil {
		return catalog.Model{}, err
	}

	// Blob and catalog writes may hit the network, so they run outside the
	// manager lock; the reservation keeps the id from being handed out twice.
	id, err := m.reserveID()
	if err != nil {
		return catalog.Model{}, err
	}

	blobKey := fmt.Sprintf("models/%d.%s", id, format)
	if err := m.blobs.Put(ctx, blobKey, bytes.NewReader(data)); err != nil {
		m.releaseID(id)
		return catalog.Model{}, fmt.Errorf("shapeseek: store model file: %w", err)
	}

	model := catalog.Model{
		ID:      id,
		Name:    name,
		Format:  format,
		BlobKey: blobKey,
		Vector:  vec,
	}
	if err := m.cat.Put(ctx, model); err != nil {
		_ = m.blobs.Delete(ctx, blobKey)
		m.releaseID(id)
		return catalog.Model{}, fmt.Errorf("shapeseek: catalog put: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireReadyLocked(); err != nil {
		m.releaseIDLocked(id)
		return catalog.Model{}, err
	}
	if err := m.idx.Insert(ctx, id, vec); err != nil {
		m.releaseIDLocked(id)
		return catalog.Model{}, err
	}

	m.maybeFlushAsync()
	return model, nil
}

// reserveID hands out the next model id and marks it as taken so concurrent
// ingests and explicit Adds cannot reuse it while the blob and catalog
// writes are still in flight.
func (m *Manager) reserveID() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireReadyLocked(); err != nil {
		return 0, err
	}
	id := m.nextID
	m.seen.Add(uint64(id))
	m.nextID = id + 1
	return id, nil
}

// releaseID abandons a reservation after a failed ingest. The id becomes
// allocatable again unless a later reservation already moved past it.
func (m *Manager) releaseID(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseIDLocked(id)
}

func (m *Manager) releaseIDLocked(id int64) {
	m.seen.Remove(uint64(id))
	if m.nextID == id+1 {
		m.nextID = id
	}
}

// Search returns up to k models nearest to the given descriptor, most
// similar first. k is clamped to the configured search limit.
func (m *Manager) Search(ctx context.Context, vector []float32, k int) ([]index.Result, error) {
	start := time.Now()
	results, err := m.search(ctx, vector, k)
	m.opts.metrics.RecordSearch(k, time.Since(start), err)
	m.opts.logger.LogSearch(ctx, k, len(results), err)
	return results, err
}

func (m *Manager) search(ctx context.Context, vector []float32, k int) ([]index.Result, error) {
	if err := m.requireReady(); err != nil {
		return nil, err
	}
	if k > m.opts.searchLimit {
		k = m.opts.searchLimit
	}
	return m.idx.Search(ctx, vector, k)
}

// SearchMesh extracts a descriptor from a query mesh and searches with it.
// The query is not ingested.
func (m *Manager) SearchMesh(ctx context.Context, format string, r io.Reader, k int) ([]index.Result, error) {
	if err := m.requireReady(); err != nil {
		return nil, err
	}
	if !mesh.Supported(format) {
		return nil, &ErrUnsupportedFormat{Format: format}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("shapeseek: read query: %w", err)
	}
	vec, err := m.extractFromBytes(data, format)
	if err != nil {
		return nil, err
	}
	return m.Search(ctx, vec, k)
}

// Lookup returns the catalog record for a model id.
func (m *Manager) Lookup(ctx context.Context, id int64) (catalog.Model, error) {
	if err := m.requireReady(); err != nil {
		return catalog.Model{}, err
	}
	return m.cat.Get(ctx, id)
}

// OpenModel opens the stored raw model file for a model id.
func (m *Manager) OpenModel(ctx context.Context, id int64) (io.ReadCloser, catalog.Model, error) {
	if err := m.requireReady(); err != nil {
		return nil, catalog.Model{}, err
	}
	model, err := m.cat.Get(ctx, id)
	if err != nil {
		return nil, catalog.Model{}, err
	}
	rc, err := m.blobs.Open(ctx, model.BlobKey)
	if err != nil {
		return nil, catalog.Model{}, err
	}
	return rc, model, nil
}

// Rebuild reconstructs the index from the catalog in one atomic swap.
// Searches running concurrently see either the old or the new index, never
// a partial one. This is also how deletions from the catalog take effect.
func (m *Manager) Rebuild(ctx context.Context) error {
	start := time.Now()
	count, err := m.rebuild(ctx)
	m.opts.metrics.RecordRebuild(count, time.Since(start), err)
	m.opts.logger.LogRebuild(ctx, count, err)
	return err
}

func (m *Manager) rebuild(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireReadyLocked(); err != nil {
		return 0, err
	}
	entries, err := m.cat.Snapshot(ctx)
	if err != nil {
		return 0, fmt.Errorf("shapeseek: catalog snapshot: %w", err)
	}
	if err := m.idx.Rebuild(ctx, entries); err != nil {
		return 0, err
	}
	m.resetIDStateLocked()
	m.maybeFlushAsync()
	return len(entries), nil
}

// Flush writes the current index to the snapshot file. Flushes are
// serialized among themselves but do not block searches.
func (m *Manager) Flush(ctx context.Context) error {
	if err := m.requireReady(); err != nil {
		return err
	}
	return m.flush(ctx)
}

func (m *Manager) flush(ctx context.Context) error {
	if m.opts.snapshotPath == "" {
		return ErrNoSnapshotPath
	}

	m.flushMu.Lock()
	defer m.flushMu.Unlock()

	start := time.Now()
	err := persistence.SaveToFile(m.opts.snapshotPath, m.opts.codec, func(w io.Writer) error {
		_, err := m.idx.WriteTo(w)
		return err
	})
	m.opts.metrics.RecordFlush(time.Since(start), err)
	m.opts.logger.LogFlush(ctx, m.opts.snapshotPath, err)
	return err
}

// maybeFlushAsync schedules a background flush, rate-limited so bursts of
// writes coalesce into one snapshot. Caller holds mu.
func (m *Manager) maybeFlushAsync() {
	if m.flushLimiter == nil || !m.flushLimiter.Allow() {
		return
	}
	m.flushWG.Add(1)
	go func() {
		defer m.flushWG.Done()
		_ = m.flush(context.Background())
	}()
}

// Stats reports the current state of the manager, index, and catalog.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	m.mu.RLock()
	state := m.state
	m.mu.RUnlock()

	idxStats := m.idx.Stats()
	stats := Stats{
		State:      state.String(),
		IndexCount: idxStats.Count,
		Dimension:  idxStats.Dimension,
	}
	if state == stateReady {
		n, err := m.cat.Count(ctx)
		if err != nil {
			return stats, err
		}
		stats.CatalogCount = n
	}
	return stats, nil
}

// Close flushes a final snapshot, waits for background flushes, and closes
// the catalog. Close is idempotent; operations after Close fail with
// ErrClosed.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.state == stateClosed {
		m.mu.Unlock()
		return nil
	}
	wasReady := m.state == stateReady
	m.state = stateClosed
	m.mu.Unlock()

	m.flushWG.Wait()
	if wasReady && m.opts.snapshotPath != "" {
		if err := m.flush(context.Background()); err != nil {
			m.opts.logger.Warn("final snapshot flush failed", "error", err)
		}
	}
	return m.cat.Close()
}

func (m *Manager) requireReady() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requireReadyLocked()
}

func (m *Manager) requireReadyLocked() error {
	switch m.state {
	case stateReady:
		return nil
	case stateClosed:
		return ErrClosed
	default:
		return ErrNotReady
	}
}

// extractFromBytes runs parse, normalize, extract on a raw mesh file.
func (m *Manager) extractFromBytes(data []byte, format string) ([]float32, error) {
	parsed, err := mesh.Decode(data, format)
	if err != nil {
		return nil, err
	}
	return m.extractor.Extract(mesh.Normalize(parsed))
}
