// Package analysis persists analysis records as redis hashes.
package analysis

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/hangarops/docsense/internal/domain"
	domanalysis "github.com/hangarops/docsense/internal/domain/analysis"
)

// store is the consumer interface for analysis rows (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	DelMulti(ctx context.Context, keys []string) (int64, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements the analysis side of the persistent catalog.
type Repo struct {
	store store
}

// New creates an analysis repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Upsert replaces any existing row with the same document path.
// All fields are rewritten, so stale values from an earlier state cannot survive.
func (r *Repo) Upsert(ctx context.Context, rec domanalysis.Record) error {
	fields, err := recordToHash(rec)
	if err != nil {
		return err
	}
	if err := r.store.HSet(ctx, recordKey(rec.DocPath()), fields); err != nil {
		return fmt.Errorf("hset analysis %s: %w: %w", rec.DocPath(), err, domain.ErrStorage)
	}
	return nil
}

// Get retrieves one record by document path.
func (r *Repo) Get(ctx context.Context, docPath string) (domanalysis.Record, error) {
	m, err := r.store.HGetAll(ctx, recordKey(docPath))
	if err != nil {
		return domanalysis.Record{}, fmt.Errorf("hgetall analysis %s: %w: %w", docPath, err, domain.ErrStorage)
	}
	if len(m) == 0 {
		return domanalysis.Record{}, domain.ErrNotFound
	}
	return recordFromHash(m), nil
}

// List returns all records ordered by document path for stable pagination.
func (r *Repo) List(ctx context.Context) ([]domanalysis.Record, error) {
	keys, err := r.store.Scan(ctx, recordKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan analyses: %w: %w", err, domain.ErrStorage)
	}
	if len(keys) == 0 {
		return []domanalysis.Record{}, nil
	}

	rows, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi analyses: %w: %w", err, domain.ErrStorage)
	}

	records := make([]domanalysis.Record, 0, len(rows))
	for _, m := range rows {
		if len(m) == 0 {
			continue
		}
		records = append(records, recordFromHash(m))
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].DocPath() < records[j].DocPath()
	})

	return records, nil
}

// Clear deletes all records and returns the count removed. Idempotent.
func (r *Repo) Clear(ctx context.Context) (int, error) {
	keys, err := r.store.Scan(ctx, recordKey("*"))
	if err != nil {
		return 0, fmt.Errorf("scan analyses: %w: %w", err, domain.ErrStorage)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	removed, err := r.store.DelMulti(ctx, keys)
	if err != nil {
		return 0, fmt.Errorf("del analyses: %w: %w", err, domain.ErrStorage)
	}
	return int(removed), nil
}

// recordKey hashes the document path into a fixed-form key; the raw path
// is kept as a hash field.
func recordKey(docPath string) string {
	if docPath == "*" {
		return domain.KeyPrefix + "analysis:*"
	}
	sum := sha1.Sum([]byte(docPath))
	return domain.KeyPrefix + "analysis:" + hex.EncodeToString(sum[:])
}
