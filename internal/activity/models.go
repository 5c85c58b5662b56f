package activity

import (
	"time"

	id "basket/pkg/domain"
)

// EventType labels what happened to an aggregate.
type EventType string

const (
	EventListCreated    EventType = "list.created"
	EventListUpdated    EventType = "list.updated"
	EventListDeleted    EventType = "list.deleted"
	EventMembersAdded   EventType = "list.members_added"
	EventMembersRemoved EventType = "list.members_removed"
	EventItemCreated    EventType = "item.created"
	EventItemUpdated    EventType = "item.updated"
	EventItemDeleted    EventType = "item.deleted"
)

// Event is one structured activity record. Events are observability output,
// not a notification channel: emitting one never affects the request outcome.
type Event struct {
	Type      EventType `json:"type"`
	ListID    id.ListID `json:"list_id"`
	ItemID    string    `json:"item_id,omitempty"`
	ActorID   id.UserID `json:"actor_id"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
