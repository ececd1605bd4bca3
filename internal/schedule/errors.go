package schedule

import "errors"

var (
	// ErrNotFound is returned when no schedule exists for the given id.
	ErrNotFound = errors.New("schedule not found")
	// ErrAccessDenied is returned when a non-creator tries to mutate a schedule.
	ErrAccessDenied = errors.New("no permission to modify this schedule")
	// ErrInvalid wraps validation failures (empty title, inverted time range).
	ErrInvalid = errors.New("invalid schedule")
	// ErrSyncNotConfigured is returned by manual sync when no provider is set up.
	ErrSyncNotConfigured = errors.New("calendar provider not configured")
)
