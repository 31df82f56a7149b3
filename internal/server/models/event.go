package models

import (
	"fmt"
	"time"
)

// EventKind is the closed set of calendar entry types.
type EventKind string

const (
	EventTournament EventKind = "tournament"
	EventTraining   EventKind = "training"
	EventSocial     EventKind = "social"
	EventOther      EventKind = "other"
)

// ParseEventKind maps a wire value onto an EventKind; unknown values are
// rejected rather than passed through.
func ParseEventKind(s string) (EventKind, error) {
	switch k := EventKind(s); k {
	case EventTournament, EventTraining, EventSocial, EventOther:
		return k, nil
	case "":
		return EventOther, nil
	default:
		return "", fmt.Errorf("unknown event kind %q", s)
	}
}

// Event is a calendar entry, optionally restricted to one group.
type Event struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"groupId,omitempty"`
	CreatedBy   string    `json:"createdBy"`
	Kind        EventKind `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
	CreatedAt   time.Time `json:"createdAt"`
}
