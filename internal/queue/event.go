// Package queue defines the property event payloads exchanged over the
// message broker and the consumer that records them.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/smoothmove/internal/model"
)

// Event types published on the property events queue.
const (
	PropertyCreated    = "property.created"
	PropertyDeleted    = "property.deleted"
	PropertyImageAdded = "property.image_added"
)

// PropertyEvent describes a change to a listing.  It carries enough data for
// downstream consumers to log or notify without querying the database.
type PropertyEvent struct {
	EventID    string `json:"event_id"`
	Type       string `json:"type"`
	PropertyID uint64 `json:"property_id"`
	OwnerID    uint64 `json:"owner_id"`
	Title      string `json:"title,omitempty"`
	City       string `json:"city,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// NewPropertyEvent stamps an event of the given type for p with a fresh id.
func NewPropertyEvent(typ string, p *model.Property) PropertyEvent {
	return PropertyEvent{
		EventID:    uuid.NewString(),
		Type:       typ,
		PropertyID: p.ID,
		OwnerID:    p.OwnerID,
		Title:      p.Title,
		City:       p.City,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}
