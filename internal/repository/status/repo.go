// Package status persists the vector store status singleton with
// optimistic concurrency on a revision counter.
package status

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/hangarops/docsense/internal/domain"
	"github.com/hangarops/docsense/internal/domain/vectorstatus"
)

// casRetries bounds the read-modify-write retry loop on revision conflicts.
const casRetries = 5

// store is the consumer interface for the status row (ISP).
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSetIfRev(ctx context.Context, key string, fields map[string]string, revField string, expected int64) (bool, error)
}

// Repo implements the status side of the persistent catalog.
type Repo struct {
	store store
}

// New creates a status repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Get reads the status singleton. A missing row reads as the empty,
// never-built status.
func (r *Repo) Get(ctx context.Context) (vectorstatus.Status, error) {
	m, err := r.store.HGetAll(ctx, statusKey())
	if err != nil {
		return vectorstatus.Status{}, fmt.Errorf("hgetall status: %w: %w", err, domain.ErrStorage)
	}
	if len(m) == 0 {
		return vectorstatus.Empty(), nil
	}
	return statusFromHash(m), nil
}

// Update applies mutate to the current status and writes the result guarded
// by the revision counter. Concurrent mutators cannot lose updates: a write
// that observes a stale revision is rejected server-side and retried against
// the fresh row. After casRetries conflicts the last conflict is surfaced.
func (r *Repo) Update(
	ctx context.Context, mutate func(vectorstatus.Status) vectorstatus.Status,
) (vectorstatus.Status, error) {
	for attempt := 0; attempt < casRetries; attempt++ {
		current, err := r.Get(ctx)
		if err != nil {
			return vectorstatus.Status{}, err
		}

		next := mutate(current)
		nextRev := current.Revision() + 1
		fields := statusToHash(next, nextRev)

		ok, err := r.store.HSetIfRev(ctx, statusKey(), fields, "revision", current.Revision())
		if err != nil {
			return vectorstatus.Status{}, fmt.Errorf("cas status: %w: %w", err, domain.ErrStorage)
		}
		if ok {
			return vectorstatus.Reconstruct(
				next.IsInitialized(), next.DocumentCount(), next.LastUpdated(), nextRev,
			), nil
		}
	}

	current, err := r.Get(ctx)
	if err != nil {
		return vectorstatus.Status{}, err
	}
	return vectorstatus.Status{}, domain.NewRevisionConflict(current.Revision())
}

func statusKey() string {
	return domain.KeyPrefix + "status"
}

func statusToHash(s vectorstatus.Status, revision int64) map[string]string {
	return map[string]string{
		"initialized":    strconv.FormatBool(s.IsInitialized()),
		"document_count": strconv.Itoa(s.DocumentCount()),
		"last_updated":   strconv.FormatInt(s.LastUpdated().UnixMilli(), 10),
		"revision":       strconv.FormatInt(revision, 10),
	}
}

func statusFromHash(m map[string]string) vectorstatus.Status {
	initialized := m["initialized"] == "true"
	count, _ := strconv.Atoi(m["document_count"])
	revision, _ := strconv.ParseInt(m["revision"], 10, 64)

	var lastUpdated time.Time
	if ms, err := strconv.ParseInt(m["last_updated"], 10, 64); err == nil {
		lastUpdated = time.UnixMilli(ms).UTC()
	}

	return vectorstatus.Reconstruct(initialized, count, lastUpdated, revision)
}
