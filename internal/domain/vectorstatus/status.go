// Package vectorstatus holds the vector store status singleton.
package vectorstatus

import "time"

// Status is the singleton record describing the similarity index state.
// It is versioned: every read-modify-write bumps Revision via an
// optimistic compare-and-set, so concurrent mutators cannot lose updates.
type Status struct {
	initialized   bool
	documentCount int
	lastUpdated   time.Time
	revision      int64
}

// Empty returns the status of a never-built index (revision 0 means
// the row does not exist yet).
func Empty() Status {
	return Status{}
}

// Reconstruct creates a Status from storage fields without validation.
func Reconstruct(initialized bool, documentCount int, lastUpdated time.Time, revision int64) Status {
	return Status{
		initialized:   initialized,
		documentCount: documentCount,
		lastUpdated:   lastUpdated,
		revision:      revision,
	}
}

// IsInitialized reports whether the index has completed at least one build.
func (s Status) IsInitialized() bool { return s.initialized }

// DocumentCount returns the number of successfully indexed documents.
func (s Status) DocumentCount() int { return s.documentCount }

// LastUpdated returns the time of the last index mutation.
func (s Status) LastUpdated() time.Time { return s.lastUpdated }

// Revision returns the optimistic concurrency counter.
func (s Status) Revision() int64 { return s.revision }

// Built returns a copy marked initialized with the given document count.
// A build that indexed nothing leaves the store uninitialized, keeping the
// invariant that initialized implies retrievable content.
func (s Status) Built(documentCount int, now time.Time) Status {
	c := s
	c.initialized = documentCount > 0
	c.documentCount = documentCount
	if !c.initialized {
		c.documentCount = 0
	}
	c.lastUpdated = now
	return c
}

// Cleared returns a copy describing an empty index.
func (s Status) Cleared(now time.Time) Status {
	c := s
	c.initialized = false
	c.documentCount = 0
	c.lastUpdated = now
	return c
}
