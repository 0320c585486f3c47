// Package storage keeps imported pedigrees so match runs can reuse them.
//
// A pedigree is stored under the BLAKE2b digest of the file it was imported
// from. Importing the same bytes twice is a no-op, and the most recent import
// is remembered so `dnamatch match --from-store` can pick it up.
//
// Two engines implement Engine:
//   - BadgerEngine: persistent, on disk (or in memory for tests)
//   - MemoryEngine: plain maps, for tests and dry runs
//
// Example Usage:
//
//	engine, err := storage.NewBadgerEngine("./data")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer engine.Close()
//
//	data, _ := os.ReadFile("tree.yaml")
//	snap, stored, err := engine.Import(ctx, "tree.yaml", data)
//	fmt.Println(snap.Digest, stored)
//
//	p, snap, err := engine.LoadLatest(ctx)
package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/orneryd/dnamatch/pkg/pedigree"
)

// Common errors
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidDigest = errors.New("invalid digest")
	ErrInvalidData   = errors.New("invalid data")
	ErrStorageClosed = errors.New("storage closed")
)

// Digest is the hex BLAKE2b-256 digest of an imported file.
type Digest string

// DigestOf hashes file content.
func DigestOf(data []byte) Digest {
	sum := blake2b.Sum256(data)
	return Digest(hex.EncodeToString(sum[:]))
}

// Short returns the first 12 hex characters, for display.
func (d Digest) Short() string {
	if len(d) <= 12 {
		return string(d)
	}
	return string(d[:12])
}

// Valid reports whether d looks like a BLAKE2b-256 hex digest.
func (d Digest) Valid() bool {
	if len(d) != blake2b.Size256*2 {
		return false
	}
	_, err := hex.DecodeString(string(d))
	return err == nil
}

// Snapshot describes one imported pedigree.
type Snapshot struct {
	Digest      Digest    `json:"digest"`
	Source      string    `json:"source"`
	Format      string    `json:"format"`
	Individuals int       `json:"individuals"`
	Families    int       `json:"families"`
	ImportedAt  time.Time `json:"imported_at"`
}

// Engine stores imported pedigrees.
type Engine interface {
	// Import decodes data (format chosen from source's extension) and stores
	// it. stored is false when the same content was imported before; the
	// existing snapshot is returned and becomes the latest.
	Import(ctx context.Context, source string, data []byte) (snap Snapshot, stored bool, err error)
	// Load returns the pedigree stored under digest.
	Load(ctx context.Context, digest Digest) (*pedigree.Pedigree, Snapshot, error)
	// LoadLatest returns the most recently imported pedigree.
	LoadLatest(ctx context.Context) (*pedigree.Pedigree, Snapshot, error)
	// List returns every snapshot, oldest import first.
	List(ctx context.Context) ([]Snapshot, error)
	// Delete removes a snapshot. Deleting the latest clears the latest pointer.
	Delete(ctx context.Context, digest Digest) error
	Close() error
}

// prepared is an import decoded and ready to write.
type prepared struct {
	snap    Snapshot
	records []byte
}

// prepare decodes data and re-encodes it as canonical JSON records.
func prepare(source string, data []byte, now time.Time) (*prepared, error) {
	format := pedigree.FormatFromPath(source)
	p, err := pedigree.Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", source, err)
	}
	records, err := p.Encode(pedigree.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to encode records: %w", err)
	}
	return &prepared{
		snap: Snapshot{
			Digest:      DigestOf(data),
			Source:      filepath.Base(source),
			Format:      string(format),
			Individuals: p.Len(),
			Families:    p.FamilyCount(),
			ImportedAt:  now.UTC(),
		},
		records: records,
	}, nil
}

func decodeRecords(data []byte) (*pedigree.Pedigree, error) {
	p, err := pedigree.Decode(data, pedigree.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return p, nil
}

func checkDigest(d Digest) error {
	if !d.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDigest, d)
	}
	return nil
}
