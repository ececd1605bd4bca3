package schedule

import (
	"context"
	"time"

	"github.com/weihung/schedagent/internal/interval"
)

// ListFilter narrows List queries by schedule start time. Nil bounds are open.
type ListFilter struct {
	StartFrom *time.Time
	StartTo   *time.Time
}

// Store is the persistence contract for schedules. Implementations live in
// internal/store.
type Store interface {
	// Add persists a new schedule.
	Add(ctx context.Context, s *Schedule) error

	// GetByID returns the schedule or ErrNotFound.
	GetByID(ctx context.Context, id string) (*Schedule, error)

	// List returns one page ordered by start time ascending, plus the total
	// count matching the filter. page is 1-based.
	List(ctx context.Context, page, size int, filter ListFilter) ([]*Schedule, int, error)

	// Update rewrites an existing schedule, or returns ErrNotFound.
	Update(ctx context.Context, s *Schedule) error

	// Delete removes a schedule. Reports whether a row existed.
	Delete(ctx context.Context, id string) (bool, error)

	// FindConflicts returns every schedule whose half-open range overlaps r,
	// ordered by start time ascending. excludeID, when non-empty, drops one
	// schedule from consideration (an update checking against itself). The
	// ascending order is a hard contract: the slot engine consumes it as-is.
	FindConflicts(ctx context.Context, r interval.Range, excludeID string) ([]*Schedule, error)
}
