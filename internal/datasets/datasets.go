// Package datasets caches normalized survey files behind opaque handles so
// MCP clients can run several aggregations over one load.
package datasets

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vinodismyname/fuelprice/config"
	"github.com/vinodismyname/fuelprice/internal/aggregate"
	"github.com/vinodismyname/fuelprice/internal/normalize"
	"github.com/vinodismyname/fuelprice/internal/survey"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrHandleNotFound indicates an unknown, closed or expired handle ID.
	ErrHandleNotFound = errors.New("datasets: handle not found")
	// ErrCapacity wraps a failed wait for a free dataset slot.
	ErrCapacity = errors.New("datasets: too many open datasets")
)

// Gate bounds the number of loaded datasets (runtime.Controller).
type Gate interface {
	AcquireDataset(ctx context.Context) error
	ReleaseDataset()
}

// PathValidator returns the canonical path for an allowed input, or an error.
type PathValidator interface {
	ValidateOpenPath(path string) (string, error)
}

// Dataset is one loaded survey. Rows are never modified after load.
type Dataset struct {
	ID       string
	Path     string
	Rows     []survey.Normalized
	LoadedAt time.Time

	mu        sync.Mutex
	expiresAt time.Time
	reports   map[reportKey]*aggregate.Report
}

type reportKey struct {
	topN     int
	weighted bool
}

// Expired reports whether the dataset has been idle past its TTL.
func (d *Dataset) Expired(now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return now.After(d.expiresAt)
}

func (d *Dataset) touch(until time.Time) {
	d.mu.Lock()
	d.expiresAt = until
	d.mu.Unlock()
}

// Manager owns loaded datasets and evicts them after an idle TTL.
type Manager struct {
	mu           sync.RWMutex
	sets         map[string]*Dataset
	ttl          time.Duration
	cleanupEvery time.Duration
	clock        func() time.Time
	gate         Gate
	waitForSlot  time.Duration
	validator    PathValidator
	runs         singleflight.Group
	stopCh       chan struct{}
	cleanupWG    sync.WaitGroup
}

// Option customizes a Manager.
type Option func(*Manager)

// WithGate bounds concurrent datasets.
func WithGate(g Gate) Option { return func(m *Manager) { m.gate = g } }

// WithSlotWait bounds how long Open waits for a free slot.
func WithSlotWait(d time.Duration) Option { return func(m *Manager) { m.waitForSlot = d } }

// WithValidator checks every path given to Open.
func WithValidator(v PathValidator) Option { return func(m *Manager) { m.validator = v } }

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option { return func(m *Manager) { m.clock = clock } }

// NewManager constructs a Manager. ttl or cleanupEvery <= 0 use config defaults.
func NewManager(ttl, cleanupEvery time.Duration, opts ...Option) *Manager {
	if ttl <= 0 {
		ttl = config.DefaultDatasetIdleTTL
	}
	if cleanupEvery <= 0 {
		cleanupEvery = config.DefaultDatasetCleanupPeriod
	}
	m := &Manager{
		sets:         make(map[string]*Dataset),
		ttl:          ttl,
		cleanupEvery: cleanupEvery,
		clock:        time.Now,
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches periodic eviction of idle datasets.
func (m *Manager) Start() {
	m.cleanupWG.Add(1)
	ticker := time.NewTicker(m.cleanupEvery)
	go func() {
		defer m.cleanupWG.Done()
		defer ticker.Stop()
		for {
			select {
			case <-m.stopCh:
				return
			case <-ticker.C:
				m.EvictExpired()
			}
		}
	}()
}

// Close stops the cleanup loop and drops every dataset.
func (m *Manager) Close(ctx context.Context) error {
	close(m.stopCh)
	done := make(chan struct{})
	go func() { m.cleanupWG.Wait(); close(done) }()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.sets {
		delete(m.sets, id)
		m.release()
	}
	return nil
}

// Open loads, normalizes and registers the survey at path.
func (m *Manager) Open(ctx context.Context, path string) (*Dataset, error) {
	if err := m.acquire(ctx); err != nil {
		return nil, err
	}
	if m.validator != nil {
		canonical, err := m.validator.ValidateOpenPath(path)
		if err != nil {
			m.release()
			return nil, err
		}
		path = canonical
	}

	started := m.clock()
	records, err := survey.LoadFile(path)
	if err != nil {
		m.release()
		return nil, err
	}
	rows, err := normalize.Normalize(ctx, records)
	if err != nil {
		m.release()
		return nil, err
	}

	d := m.register(path, rows)
	zerolog.Ctx(ctx).Info().
		Str("dataset_id", d.ID).
		Str("path", path).
		Int("rows", len(rows)).
		Dur("elapsed", m.clock().Sub(started)).
		Msg("dataset loaded")
	return d, nil
}

// Adopt registers rows that were normalized elsewhere.
func (m *Manager) Adopt(ctx context.Context, path string, rows []survey.Normalized) (*Dataset, error) {
	if err := m.acquire(ctx); err != nil {
		return nil, err
	}
	return m.register(path, rows), nil
}

func (m *Manager) register(path string, rows []survey.Normalized) *Dataset {
	now := m.clock()
	d := &Dataset{
		ID:        uuid.NewString(),
		Path:      path,
		Rows:      rows,
		LoadedAt:  now,
		expiresAt: now.Add(m.ttl),
		reports:   make(map[reportKey]*aggregate.Report),
	}
	m.mu.Lock()
	m.sets[d.ID] = d
	m.mu.Unlock()
	return d
}

// Get returns the dataset and refreshes its idle TTL.
func (m *Manager) Get(id string) (*Dataset, error) {
	m.mu.RLock()
	d, ok := m.sets[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrHandleNotFound
	}
	d.touch(m.clock().Add(m.ttl))
	return d, nil
}

// Report returns the aggregation of dataset id for opts, computing it at
// most once per (TopN, Weighted) even under concurrent callers.
func (m *Manager) Report(ctx context.Context, id string, opts aggregate.Options) (*aggregate.Report, error) {
	d, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	if opts.TopN <= 0 {
		opts.TopN = config.DefaultTopN
	}
	key := reportKey{topN: opts.TopN, weighted: opts.Weighted}

	d.mu.Lock()
	rep, ok := d.reports[key]
	d.mu.Unlock()
	if ok {
		return rep, nil
	}

	flight := id + "/" + strconv.Itoa(key.topN) + "/" + strconv.FormatBool(key.weighted)
	v, err, _ := m.runs.Do(flight, func() (any, error) {
		d.mu.Lock()
		rep, ok := d.reports[key]
		d.mu.Unlock()
		if ok {
			return rep, nil
		}
		rep, err := aggregate.Run(ctx, d.Rows, opts)
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		d.reports[key] = rep
		d.mu.Unlock()
		return rep, nil
	})
	if err != nil {
		return nil, fmt.Errorf("datasets: aggregate %s: %w", id, err)
	}
	return v.(*aggregate.Report), nil
}

// CloseHandle drops a dataset and releases its slot.
func (m *Manager) CloseHandle(id string) error {
	m.mu.Lock()
	_, ok := m.sets[id]
	delete(m.sets, id)
	m.mu.Unlock()
	if !ok {
		return ErrHandleNotFound
	}
	m.release()
	return nil
}

// EvictExpired drops datasets idle past their TTL.
func (m *Manager) EvictExpired() {
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, d := range m.sets {
		if d.Expired(now) {
			delete(m.sets, id)
			m.release()
		}
	}
}

// Count returns the number of loaded datasets.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sets)
}

func (m *Manager) acquire(ctx context.Context) error {
	if m.gate == nil {
		return nil
	}
	if m.waitForSlot > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.waitForSlot)
		defer cancel()
	}
	if err := m.gate.AcquireDataset(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrCapacity, err)
	}
	return nil
}

func (m *Manager) release() {
	if m.gate == nil {
		return
	}
	m.gate.ReleaseDataset()
}
