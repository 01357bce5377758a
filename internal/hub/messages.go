package hub

import (
	"encoding/json"
	"fmt"

	"github.com/rzbill/calhub/internal/eventstore"
)

// Outbound envelope types.
const (
	TypeOnlineUsers  = "online_users"
	TypeEventsList   = "events_list"
	TypeEventCreated = "event_created"
	TypeEventUpdated = "event_updated"
	TypeEventDeleted = "event_deleted"
	TypeError        = "error"
)

// MsgKind is the closed set of recognized inbound operations. New kinds get
// a constant here and a case in the Lifecycle dispatch; anything else is
// KindUnknown and yields an error payload.
type MsgKind int

const (
	KindUnknown MsgKind = iota
	KindViewRange
	KindGetEvents
	KindCreateEvent
	KindUpdateEvent
	KindDeleteEvent
)

// Inbound is a decoded client envelope.
type Inbound struct {
	Kind      MsgKind
	StartDate string
	EndDate   string
	// Filter is an optional CEL expression over event fields, declared
	// alongside the window.
	Filter  string
	Event   *eventstore.Event
	EventID string
}

type wireInbound struct {
	Type      string            `json:"type"`
	StartDate string            `json:"start_date"`
	EndDate   string            `json:"end_date"`
	Filter    string            `json:"filter"`
	Event     *eventstore.Event `json:"event"`
	EventID   string            `json:"event_id"`
}

// ParseInbound decodes a raw envelope. Unrecognized type values decode to
// KindUnknown without error; malformed JSON is an error.
func ParseInbound(raw []byte) (Inbound, error) {
	var w wireInbound
	if err := json.Unmarshal(raw, &w); err != nil {
		return Inbound{}, fmt.Errorf("malformed message: %w", err)
	}
	msg := Inbound{
		StartDate: w.StartDate,
		EndDate:   w.EndDate,
		Filter:    w.Filter,
		Event:     w.Event,
		EventID:   w.EventID,
	}
	switch w.Type {
	case "view_range":
		msg.Kind = KindViewRange
	case "get_events":
		msg.Kind = KindGetEvents
	case "create_event":
		msg.Kind = KindCreateEvent
	case "update_event":
		msg.Kind = KindUpdateEvent
	case "delete_event":
		msg.Kind = KindDeleteEvent
	default:
		msg.Kind = KindUnknown
	}
	return msg, nil
}

// EncodeOnlineUsers builds a presence payload.
func EncodeOnlineUsers(count int) []byte {
	return mustMarshal(map[string]any{"type": TypeOnlineUsers, "count": count})
}

// EncodeEventsList builds an events_list payload. A nil slice encodes as an
// empty array, never null.
func EncodeEventsList(events []*eventstore.Event) []byte {
	if events == nil {
		events = []*eventstore.Event{}
	}
	return mustMarshal(map[string]any{"type": TypeEventsList, "events": events})
}

// EncodeEvent builds an event_created or event_updated payload.
func EncodeEvent(typ string, ev *eventstore.Event) []byte {
	return mustMarshal(map[string]any{"type": typ, "event": ev})
}

// EncodeEventDeleted builds an event_deleted payload.
func EncodeEventDeleted(id string) []byte {
	return mustMarshal(map[string]any{"type": TypeEventDeleted, "event_id": id})
}

// EncodeError builds an error payload.
func EncodeError(message string) []byte {
	return mustMarshal(map[string]any{"type": TypeError, "message": message})
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		// Only reachable with unmarshalable values, which these payloads never carry.
		panic(err)
	}
	return b
}
