package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/weihung/schedagent/internal/interval"
	"github.com/weihung/schedagent/internal/logging"
)

// SyncProvider is the narrow contract to an external calendar. Anything
// provider-specific stays behind it.
type SyncProvider interface {
	CreateEvent(ctx context.Context, s *Schedule) (eventID string, err error)
	UpdateEvent(ctx context.Context, eventID string, s *Schedule) error
	DeleteEvent(ctx context.Context, eventID string) error
}

// Service implements schedule operations on top of a Store, with optional
// best-effort mirroring to an external calendar provider.
type Service struct {
	store    Store
	provider SyncProvider // nil = sync disabled
}

// NewService wires a schedule service. provider may be nil.
func NewService(store Store, provider SyncProvider) *Service {
	return &Service{store: store, provider: provider}
}

// CreateParams carries everything needed to create a schedule.
type CreateParams struct {
	CreatorID   string
	Title       string
	StartTime   time.Time
	EndTime     time.Time
	Description string
	Location    string
	AllDay      bool
	Timezone    string
}

// Create validates and persists a new schedule. When a provider is configured
// the event is mirrored there too; a provider failure never fails the create.
func (svc *Service) Create(ctx context.Context, p CreateParams) (*Schedule, error) {
	s, err := New(p.CreatorID, p.Title, p.StartTime, p.EndTime,
		WithDescription(p.Description),
		WithLocation(p.Location),
		WithAllDay(p.AllDay),
		WithTimezone(p.Timezone),
	)
	if err != nil {
		return nil, err
	}

	if err := svc.store.Add(ctx, s); err != nil {
		return nil, fmt.Errorf("add schedule: %w", err)
	}

	if svc.provider != nil {
		if eventID, err := svc.provider.CreateEvent(ctx, s); err != nil {
			logging.Warn("schedule", "provider sync failed for %s: %v", s.ID, err)
		} else if eventID != "" {
			s.MarkSynced(eventID)
			if err := svc.store.Update(ctx, s); err != nil {
				logging.Warn("schedule", "persist sync marker for %s: %v", s.ID, err)
			}
		}
	}

	return s, nil
}

// Get returns a schedule by id.
func (svc *Service) Get(ctx context.Context, id string) (*Schedule, error) {
	return svc.store.GetByID(ctx, id)
}

// List returns a page of schedules filtered by start time, plus the total.
func (svc *Service) List(ctx context.Context, page, size int, filter ListFilter) ([]*Schedule, int, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	return svc.store.List(ctx, page, size, filter)
}

// UpdateByID applies a partial update after checking ownership. The time-range
// invariant is re-validated whenever a bound moves.
func (svc *Service) UpdateByID(ctx context.Context, userID, id string, u Update) (*Schedule, error) {
	s, err := svc.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.CanEdit(userID) {
		return nil, ErrAccessDenied
	}
	if err := s.Apply(u); err != nil {
		return nil, err
	}
	if err := svc.store.Update(ctx, s); err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}

	if svc.provider != nil && s.ProviderEventID != "" {
		if err := svc.provider.UpdateEvent(ctx, s.ProviderEventID, s); err != nil {
			logging.Warn("schedule", "provider update failed for %s: %v", s.ID, err)
		}
	}

	return s, nil
}

// Delete removes a schedule after checking ownership. A synced provider copy
// is removed first, best effort.
func (svc *Service) Delete(ctx context.Context, userID, id string) error {
	s, err := svc.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.CanEdit(userID) {
		return ErrAccessDenied
	}

	if svc.provider != nil && s.ProviderEventID != "" {
		if err := svc.provider.DeleteEvent(ctx, s.ProviderEventID); err != nil {
			logging.Warn("schedule", "provider delete failed for %s: %v", s.ID, err)
		}
	}

	deleted, err := svc.store.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// Sync pushes one schedule to the provider on demand. Unlike the implicit
// mirroring on create/update, failures here are reported to the caller.
func (svc *Service) Sync(ctx context.Context, userID, id string) (*Schedule, error) {
	if svc.provider == nil {
		return nil, ErrSyncNotConfigured
	}
	s, err := svc.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.CanEdit(userID) {
		return nil, ErrAccessDenied
	}

	if s.ProviderEventID != "" {
		if err := svc.provider.UpdateEvent(ctx, s.ProviderEventID, s); err != nil {
			return nil, fmt.Errorf("provider update: %w", err)
		}
	} else {
		eventID, err := svc.provider.CreateEvent(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("provider create: %w", err)
		}
		s.MarkSynced(eventID)
	}

	if err := svc.store.Update(ctx, s); err != nil {
		return nil, fmt.Errorf("persist sync marker: %w", err)
	}
	return s, nil
}

// SyncEnabled reports whether an external provider is configured.
func (svc *Service) SyncEnabled() bool {
	return svc.provider != nil
}

// CheckConflicts returns every stored schedule overlapping [start, end),
// ordered by start time ascending.
func (svc *Service) CheckConflicts(ctx context.Context, start, end time.Time, excludeID string) ([]*Schedule, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start time must be before end time", ErrInvalid)
	}
	return svc.store.FindConflicts(ctx, interval.NewRange(start, end), excludeID)
}

// SuggestSlots proposes free windows of the given duration inside the working
// hours of day's date. Work-hour boundaries are pinned in day's location.
func (svc *Service) SuggestSlots(ctx context.Context, day time.Time, duration time.Duration, workStartHour, workEndHour int) ([]interval.Slot, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrInvalid)
	}
	if workStartHour < 0 || workEndHour > 24 || workStartHour >= workEndHour {
		return nil, fmt.Errorf("%w: work hours out of order", ErrInvalid)
	}

	y, m, d := day.Date()
	loc := day.Location()
	dayStart := time.Date(y, m, d, workStartHour, 0, 0, 0, loc)
	dayEnd := time.Date(y, m, d, workEndHour, 0, 0, 0, loc)

	busySchedules, err := svc.store.FindConflicts(ctx, interval.NewRange(dayStart, dayEnd), "")
	if err != nil {
		return nil, err
	}

	busy := make([]interval.Range, 0, len(busySchedules))
	for _, s := range busySchedules {
		busy = append(busy, s.Range())
	}

	return interval.SuggestSlots(busy, dayStart, dayEnd, duration), nil
}
