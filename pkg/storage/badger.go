package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/orneryd/dnamatch/pkg/pedigree"
)

// Key prefixes for BadgerDB storage organization
const (
	prefixSnapshot = byte(0x01) // snapshot:digest -> JSON(Snapshot)
	prefixRecords  = byte(0x02) // records:digest -> JSON(pedigree.Records)
	prefixMeta     = byte(0x03) // meta:name -> value
)

var keyLatest = []byte{prefixMeta, 'l', 'a', 't', 'e', 's', 't'}

// BadgerEngine stores pedigrees in BadgerDB.
//
// Key Structure:
//   - Snapshots: 0x01 + digest -> JSON(Snapshot)
//   - Records:   0x02 + digest -> JSON(pedigree.Records)
//   - Latest:    0x03 + "latest" -> digest
//
// Example:
//
//	engine, err := storage.NewBadgerEngine("./data")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer engine.Close()
type BadgerEngine struct {
	db     *badger.DB
	mu     sync.RWMutex
	closed bool
	now    func() time.Time
}

// BadgerOptions configures the BadgerDB engine.
type BadgerOptions struct {
	// DataDir is the directory for storing data files.
	// Required unless InMemory is set.
	DataDir string

	// InMemory runs BadgerDB in memory-only mode.
	// Useful for testing. Data is not persisted.
	InMemory bool

	// SyncWrites forces fsync after each write.
	SyncWrites bool

	// Logger for BadgerDB internal logging. Nil silences it.
	Logger badger.Logger
}

// NewBadgerEngine opens (or creates) a persistent store in dataDir.
func NewBadgerEngine(dataDir string) (*BadgerEngine, error) {
	return NewBadgerEngineWithOptions(BadgerOptions{
		DataDir: dataDir,
	})
}

// NewBadgerEngineWithOptions creates a BadgerEngine with custom configuration.
func NewBadgerEngineWithOptions(opts BadgerOptions) (*BadgerEngine, error) {
	dir := opts.DataDir
	if opts.InMemory {
		dir = ""
	}
	badgerOpts := badger.DefaultOptions(dir).
		WithInMemory(opts.InMemory).
		WithSyncWrites(opts.SyncWrites).
		WithLogger(opts.Logger)

	// pedigrees are small; keep the footprint of a CLI run modest
	badgerOpts = badgerOpts.
		WithMemTableSize(16 << 20).
		WithValueLogFileSize(64 << 20).
		WithNumMemtables(2).
		WithNumLevelZeroTables(2).
		WithNumLevelZeroTablesStall(4).
		WithBlockCacheSize(8 << 20).
		WithIndexCacheSize(4 << 20)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	return &BadgerEngine{db: db, now: time.Now}, nil
}

// NewBadgerEngineInMemory creates an in-memory BadgerDB for testing.
func NewBadgerEngineInMemory() (*BadgerEngine, error) {
	return NewBadgerEngineWithOptions(BadgerOptions{
		InMemory: true,
	})
}

// ============================================================================
// Key encoding helpers
// ============================================================================

func snapshotKey(d Digest) []byte {
	return append([]byte{prefixSnapshot}, []byte(d)...)
}

func recordsKey(d Digest) []byte {
	return append([]byte{prefixRecords}, []byte(d)...)
}

func (b *BadgerEngine) checkOpen() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrStorageClosed
	}
	return nil
}

func getSnapshot(txn *badger.Txn, d Digest) (Snapshot, error) {
	var snap Snapshot
	item, err := txn.Get(snapshotKey(d))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return snap, ErrNotFound
	}
	if err != nil {
		return snap, err
	}
	err = item.Value(func(val []byte) error {
		if err := json.Unmarshal(val, &snap); err != nil {
			return fmt.Errorf("%w: snapshot %s: %v", ErrInvalidData, d.Short(), err)
		}
		return nil
	})
	return snap, err
}

// ============================================================================
// Engine
// ============================================================================

// Import stores data unless the same content is already present.
func (b *BadgerEngine) Import(ctx context.Context, source string, data []byte) (Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, false, err
	}
	if err := b.checkOpen(); err != nil {
		return Snapshot{}, false, err
	}

	digest := DigestOf(data)
	var (
		snap   Snapshot
		stored bool
	)
	err := b.db.Update(func(txn *badger.Txn) error {
		existing, err := getSnapshot(txn, digest)
		switch {
		case err == nil:
			snap = existing
			return txn.Set(keyLatest, []byte(digest))
		case !errors.Is(err, ErrNotFound):
			return err
		}

		prep, err := prepare(source, data, b.now())
		if err != nil {
			return err
		}
		meta, err := json.Marshal(prep.snap)
		if err != nil {
			return fmt.Errorf("failed to encode snapshot: %w", err)
		}
		if err := txn.Set(snapshotKey(digest), meta); err != nil {
			return err
		}
		if err := txn.Set(recordsKey(digest), prep.records); err != nil {
			return err
		}
		snap, stored = prep.snap, true
		return txn.Set(keyLatest, []byte(digest))
	})
	if err != nil {
		return Snapshot{}, false, err
	}
	return snap, stored, nil
}

// Load returns the pedigree stored under digest.
func (b *BadgerEngine) Load(ctx context.Context, digest Digest) (*pedigree.Pedigree, Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, Snapshot{}, err
	}
	if err := checkDigest(digest); err != nil {
		return nil, Snapshot{}, err
	}
	if err := b.checkOpen(); err != nil {
		return nil, Snapshot{}, err
	}

	var (
		snap Snapshot
		p    *pedigree.Pedigree
	)
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		if snap, err = getSnapshot(txn, digest); err != nil {
			return err
		}
		item, err := txn.Get(recordsKey(digest))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: records for %s missing", ErrInvalidData, digest.Short())
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var decodeErr error
			p, decodeErr = decodeRecords(val)
			return decodeErr
		})
	})
	if err != nil {
		return nil, Snapshot{}, err
	}
	return p, snap, nil
}

// LoadLatest returns the most recently imported pedigree.
func (b *BadgerEngine) LoadLatest(ctx context.Context) (*pedigree.Pedigree, Snapshot, error) {
	if err := b.checkOpen(); err != nil {
		return nil, Snapshot{}, err
	}

	var digest Digest
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyLatest)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		digest = Digest(val)
		return err
	})
	if err != nil {
		return nil, Snapshot{}, err
	}
	return b.Load(ctx, digest)
}

// List returns every snapshot, oldest import first.
func (b *BadgerEngine) List(ctx context.Context) ([]Snapshot, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}

	var snaps []Snapshot
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := []byte{prefixSnapshot}
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var snap Snapshot
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &snap)
			})
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidData, err)
			}
			snaps = append(snaps, snap)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortSnapshots(snaps)
	return snaps, nil
}

// Delete removes a snapshot and its records.
func (b *BadgerEngine) Delete(ctx context.Context, digest Digest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkDigest(digest); err != nil {
		return err
	}
	if err := b.checkOpen(); err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		if _, err := getSnapshot(txn, digest); err != nil {
			return err
		}
		if err := txn.Delete(snapshotKey(digest)); err != nil {
			return err
		}
		if err := txn.Delete(recordsKey(digest)); err != nil {
			return err
		}
		item, err := txn.Get(keyLatest)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		latest, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if Digest(latest) == digest {
			return txn.Delete(keyLatest)
		}
		return nil
	})
}

// Close closes the database. Further calls fail with ErrStorageClosed.
func (b *BadgerEngine) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}

func sortSnapshots(snaps []Snapshot) {
	sort.SliceStable(snaps, func(i, j int) bool {
		if snaps[i].ImportedAt.Equal(snaps[j].ImportedAt) {
			return snaps[i].Digest < snaps[j].Digest
		}
		return snaps[i].ImportedAt.Before(snaps[j].ImportedAt)
	})
}

var _ Engine = (*BadgerEngine)(nil)
