package hub

import (
	"context"

	"github.com/rzbill/calhub/internal/eventstore"
)

// EventStore is the persistence collaborator the hub dispatches to. The hub
// never implements storage; it assumes a read immediately following a write
// observes the write.
type EventStore interface {
	Insert(ctx context.Context, ev *eventstore.Event) (*eventstore.Event, error)
	UpdateByID(ctx context.Context, ev *eventstore.Event) (*eventstore.Event, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
	FindByID(ctx context.Context, id string) (*eventstore.Event, error)
	FindInRange(ctx context.Context, start, end eventstore.Date) ([]*eventstore.Event, error)
	FindAll(ctx context.Context) ([]*eventstore.Event, error)
}
