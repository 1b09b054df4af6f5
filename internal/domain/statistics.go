package domain

import (
	"context"
	"time"
)

// EventStatistics is the read-only projection of one event's participations.
// swagger:model EventStatistics
type EventStatistics struct {
	EventID         string  `json:"event_id"`
	Capacity        int     `json:"capacity"`
	RegisteredCount int     `json:"registered_count"`
	ConfirmedCount  int     `json:"confirmed_count"`
	WaitlistedCount int     `json:"waitlisted_count"`
	CancelledCount  int     `json:"cancelled_count"`
	AttendedCount   int     `json:"attended_count"`
	ActiveCount     int     `json:"active_count"`
	TotalCount      int     `json:"total_count"`
	FillRate        float64 `json:"fill_rate"`
	AttendanceRate  float64 `json:"attendance_rate"`
	Past            bool    `json:"past"`
}

// OrganizerStatistics aggregates the projections of an organizer's events.
// swagger:model OrganizerStatistics
type OrganizerStatistics struct {
	OrganizerID     string             `json:"organizer_id"`
	EventCount      int                `json:"event_count"`
	ActiveCount     int                `json:"active_count"`
	WaitlistedCount int                `json:"waitlisted_count"`
	CancelledCount  int                `json:"cancelled_count"`
	AttendedCount   int                `json:"attended_count"`
	AttendanceRate  float64            `json:"attendance_rate"`
	Events          []*EventStatistics `json:"events"`
}

// StatisticsCache stores computed event projections per event generation.
// Invalidate advances the generation, so a projection computed before a mutation
// can only be stored under a generation no reader asks for again.
// Get returns ErrNotFound on a miss.
type StatisticsCache interface {
	Generation(ctx context.Context, eventID string) (int64, error)
	Get(ctx context.Context, eventID string, generation int64) (*EventStatistics, error)
	Set(ctx context.Context, stats *EventStatistics, generation int64, ttl time.Duration) error
	Invalidate(ctx context.Context, eventID string) error
}

// StatisticsService projects participation counts for reporting.
type StatisticsService interface {
	GetEventStatistics(ctx context.Context, eventID string) (*EventStatistics, error)
	GetOrganizerStatistics(ctx context.Context, organizerID string) (*OrganizerStatistics, error)
	// AuthorizeEventAccess returns ErrForbidden unless the caller organizes the event or is an admin.
	AuthorizeEventAccess(ctx context.Context, eventID string, caller Identity) error
}
