package storage

import (
	"context"
	"sync"
	"time"

	"github.com/orneryd/dnamatch/pkg/pedigree"
)

// MemoryEngine is a thread-safe in-memory Engine.
//
// Records are kept encoded, exactly as BadgerEngine stores them, so every
// Load returns a fresh Pedigree that callers may not share by accident.
type MemoryEngine struct {
	mu        sync.RWMutex
	snapshots map[Digest]Snapshot
	records   map[Digest][]byte
	latest    Digest
	closed    bool
	now       func() time.Time
}

// NewMemoryEngine returns an empty in-memory store.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{
		snapshots: make(map[Digest]Snapshot),
		records:   make(map[Digest][]byte),
		now:       time.Now,
	}
}

// Import stores data unless the same content is already present.
func (m *MemoryEngine) Import(ctx context.Context, source string, data []byte) (Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Snapshot{}, false, ErrStorageClosed
	}

	digest := DigestOf(data)
	if snap, ok := m.snapshots[digest]; ok {
		m.latest = digest
		return snap, false, nil
	}

	prep, err := prepare(source, data, m.now())
	if err != nil {
		return Snapshot{}, false, err
	}
	m.snapshots[digest] = prep.snap
	m.records[digest] = prep.records
	m.latest = digest
	return prep.snap, true, nil
}

// Load returns the pedigree stored under digest.
func (m *MemoryEngine) Load(ctx context.Context, digest Digest) (*pedigree.Pedigree, Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, Snapshot{}, err
	}
	if err := checkDigest(digest); err != nil {
		return nil, Snapshot{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, Snapshot{}, ErrStorageClosed
	}
	return m.loadLocked(digest)
}

func (m *MemoryEngine) loadLocked(digest Digest) (*pedigree.Pedigree, Snapshot, error) {
	snap, ok := m.snapshots[digest]
	if !ok {
		return nil, Snapshot{}, ErrNotFound
	}
	p, err := decodeRecords(m.records[digest])
	if err != nil {
		return nil, Snapshot{}, err
	}
	return p, snap, nil
}

// LoadLatest returns the most recently imported pedigree.
func (m *MemoryEngine) LoadLatest(ctx context.Context) (*pedigree.Pedigree, Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, Snapshot{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, Snapshot{}, ErrStorageClosed
	}
	if m.latest == "" {
		return nil, Snapshot{}, ErrNotFound
	}
	return m.loadLocked(m.latest)
}

// List returns every snapshot, oldest import first.
func (m *MemoryEngine) List(ctx context.Context) ([]Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStorageClosed
	}
	snaps := make([]Snapshot, 0, len(m.snapshots))
	for _, snap := range m.snapshots {
		snaps = append(snaps, snap)
	}
	sortSnapshots(snaps)
	return snaps, nil
}

// Delete removes a snapshot and its records.
func (m *MemoryEngine) Delete(ctx context.Context, digest Digest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkDigest(digest); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStorageClosed
	}
	if _, ok := m.snapshots[digest]; !ok {
		return ErrNotFound
	}
	delete(m.snapshots, digest)
	delete(m.records, digest)
	if m.latest == digest {
		m.latest = ""
	}
	return nil
}

// Close drops all data.
func (m *MemoryEngine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.snapshots = nil
	m.records = nil
	return nil
}

var _ Engine = (*MemoryEngine)(nil)
