// Package schedule holds the schedule entity, the persistence contract, and
// the service that layers conflict detection and slot suggestion on top.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/weihung/schedagent/internal/interval"
)

// DefaultTimezone labels new schedules when the caller does not pick one.
const DefaultTimezone = "Asia/Taipei"

// Schedule is a single calendar entry.
type Schedule struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	AllDay      bool      `json:"all_day"`
	Timezone    string    `json:"timezone"`
	CreatorID   string    `json:"creator_id"`

	// External calendar sync marker. Cleared independently of the core
	// fields when the provider copy is removed.
	ProviderEventID string     `json:"provider_event_id,omitempty"`
	SyncedAt        *time.Time `json:"synced_at,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// New validates and builds a schedule. Title must be non-empty and the time
// range must satisfy start < end.
func New(creatorID, title string, start, end time.Time, opts ...Option) (*Schedule, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalid)
	}
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	s := &Schedule{
		ID:        uuid.NewString(),
		Title:     title,
		StartTime: start,
		EndTime:   end,
		Timezone:  DefaultTimezone,
		CreatorID: creatorID,
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Option tweaks optional fields at construction time.
type Option func(*Schedule)

// WithDescription sets the free-text description.
func WithDescription(d string) Option {
	return func(s *Schedule) { s.Description = strings.TrimSpace(d) }
}

// WithLocation sets the location.
func WithLocation(l string) Option {
	return func(s *Schedule) { s.Location = strings.TrimSpace(l) }
}

// WithAllDay marks the schedule as an all-day event.
func WithAllDay(allDay bool) Option {
	return func(s *Schedule) { s.AllDay = allDay }
}

// WithTimezone overrides the timezone label.
func WithTimezone(tz string) Option {
	return func(s *Schedule) {
		if tz != "" {
			s.Timezone = tz
		}
	}
}

// Update carries the mutable fields of a schedule. Nil pointers mean "leave
// unchanged".
type Update struct {
	Title       *string
	Description *string
	Location    *string
	StartTime   *time.Time
	EndTime     *time.Time
	AllDay      *bool
	Timezone    *string
}

// Apply merges the update into the schedule, re-validating the time range
// whenever either bound moves.
func (s *Schedule) Apply(u Update) error {
	if u.Title != nil {
		t := strings.TrimSpace(*u.Title)
		if t == "" {
			return fmt.Errorf("%w: title cannot be empty", ErrInvalid)
		}
		s.Title = t
	}
	if u.Description != nil {
		s.Description = strings.TrimSpace(*u.Description)
	}
	if u.Location != nil {
		s.Location = strings.TrimSpace(*u.Location)
	}

	start, end := s.StartTime, s.EndTime
	if u.StartTime != nil {
		start = *u.StartTime
	}
	if u.EndTime != nil {
		end = *u.EndTime
	}
	if u.StartTime != nil || u.EndTime != nil {
		if err := validateRange(start, end); err != nil {
			return err
		}
		s.StartTime, s.EndTime = start, end
	}
	if u.AllDay != nil {
		s.AllDay = *u.AllDay
	}
	if u.Timezone != nil && *u.Timezone != "" {
		s.Timezone = *u.Timezone
	}

	now := time.Now().UTC()
	s.UpdatedAt = &now
	return nil
}

// Range returns the schedule's half-open time range.
func (s *Schedule) Range() interval.Range {
	return interval.NewRange(s.StartTime, s.EndTime)
}

// CanEdit reports whether userID may mutate this schedule. Only the creator can.
func (s *Schedule) CanEdit(userID string) bool {
	return userID == s.CreatorID
}

// MarkSynced records the external provider event backing this schedule.
func (s *Schedule) MarkSynced(providerEventID string) {
	now := time.Now().UTC()
	s.ProviderEventID = providerEventID
	s.SyncedAt = &now
	s.UpdatedAt = &now
}

// ClearSync drops the provider marker after the external copy is removed.
func (s *Schedule) ClearSync() {
	now := time.Now().UTC()
	s.ProviderEventID = ""
	s.SyncedAt = nil
	s.UpdatedAt = &now
}

func validateRange(start, end time.Time) error {
	if !start.Before(end) {
		return fmt.Errorf("%w: start time must be before end time", ErrInvalid)
	}
	return nil
}
