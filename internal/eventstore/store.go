package eventstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"

	pebblestore "github.com/rzbill/calhub/internal/storage/pebble"
	logpkg "github.com/rzbill/calhub/pkg/log"
)

// DefaultLocation is the fixed zone all timestamps are normalized to,
// regardless of server host time zone.
var DefaultLocation = time.FixedZone("UTC+8", 8*60*60)

// Options configures a Store.
type Options struct {
	DB *pebblestore.DB
	// Location overrides the timestamp zone. Defaults to DefaultLocation.
	Location *time.Location
	// DefaultColor overrides the color assigned when an event omits one.
	DefaultColor string
	Logger       logpkg.Logger
}

// Store persists events in Pebble and assigns identifiers and timestamps.
type Store struct {
	db           *pebblestore.DB
	loc          *time.Location
	defaultColor string
	logger       logpkg.Logger

	// now is swapped in tests to pin timestamps.
	now func() time.Time
}

// New creates a Store over an open Pebble DB.
func New(opts Options) *Store {
	loc := opts.Location
	if loc == nil {
		loc = DefaultLocation
	}
	color := opts.DefaultColor
	if color == "" {
		color = DefaultColor
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewTestLogger()
	}
	return &Store{
		db:           opts.DB,
		loc:          loc,
		defaultColor: color,
		logger:       logger.With(logpkg.Component("eventstore")),
		now:          time.Now,
	}
}

func (s *Store) timestamp() string {
	return s.now().In(s.loc).Format(time.RFC3339Nano)
}

// normalize validates required fields and rewrites the date into canonical
// zero-padded form. Returns the parsed date for index keys.
func (s *Store) normalize(ev *Event) (Date, error) {
	if strings.TrimSpace(ev.Title) == "" {
		return Date{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	day, err := ParseDate(ev.Date)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	ev.Date = day.String()
	if ev.Color == "" {
		ev.Color = s.defaultColor
	}
	return day, nil
}

// Insert stores a new event, assigning its id and both timestamps.
func (s *Store) Insert(ctx context.Context, ev *Event) (*Event, error) {
	stored := ev.Clone()
	if _, err := s.normalize(stored); err != nil {
		return nil, err
	}
	stored.ID = uuid.NewString()
	now := s.timestamp()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	if err := s.commit(ctx, stored, nil); err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	s.logger.Info("event created",
		logpkg.Str("id", stored.ID),
		logpkg.Str("date", stored.Date),
	)
	return stored, nil
}

// UpdateByID replaces the mutable fields of an existing event and refreshes
// its updated timestamp. The id and created timestamp never change.
func (s *Store) UpdateByID(ctx context.Context, ev *Event) (*Event, error) {
	if ev.ID == "" {
		return nil, fmt.Errorf("%w: id is required", ErrValidation)
	}
	prev, err := s.FindByID(ctx, ev.ID)
	if err != nil {
		return nil, err
	}

	stored := ev.Clone()
	if _, err := s.normalize(stored); err != nil {
		return nil, err
	}
	stored.CreatedAt = prev.CreatedAt
	stored.UpdatedAt = s.timestamp()

	if err := s.commit(ctx, stored, prev); err != nil {
		return nil, fmt.Errorf("update event %s: %w", ev.ID, err)
	}
	s.logger.Info("event updated",
		logpkg.Str("id", stored.ID),
		logpkg.Str("date", stored.Date),
	)
	return stored, nil
}

// DeleteByID removes an event. Returns false when the id is unknown.
func (s *Store) DeleteByID(ctx context.Context, id string) (bool, error) {
	prev, err := s.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Delete(keyRecord(id), nil); err != nil {
		return false, err
	}
	if err := b.Delete(keyDay(prev.Date, prev.Time, id), nil); err != nil {
		return false, err
	}
	if err := s.db.CommitBatch(ctx, b); err != nil {
		return false, fmt.Errorf("delete event %s: %w", id, err)
	}
	s.logger.Info("event deleted", logpkg.Str("id", id), logpkg.Str("date", prev.Date))
	return true, nil
}

// FindByID returns the event with the given id, or ErrNotFound.
func (s *Store) FindByID(ctx context.Context, id string) (*Event, error) {
	raw, err := s.db.Get(keyRecord(id))
	if errors.Is(err, pebblestore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find event %s: %w", id, err)
	}
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("decode event %s: %w", id, err)
	}
	return &ev, nil
}

// FindInRange returns events with start <= date <= end, ordered by (date, time).
func (s *Store) FindInRange(ctx context.Context, start, end Date) ([]*Event, error) {
	return s.scan(keyDayLower(start.String()), keyDayUpper(end.String()))
}

// FindAll returns every event, ordered by (date, time).
func (s *Store) FindAll(ctx context.Context) ([]*Event, error) {
	return s.scan(keyDayLower(""), keyDayAllUpper())
}

// commit writes the record and its day-index entry atomically. When prev is
// non-nil and its index slot moved, the stale entry is removed in the same
// batch.
func (s *Store) commit(ctx context.Context, ev, prev *Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	b := s.db.NewBatch()
	defer b.Close()
	if prev != nil && (prev.Date != ev.Date || prev.Time != ev.Time) {
		if err := b.Delete(keyDay(prev.Date, prev.Time, prev.ID), nil); err != nil {
			return err
		}
	}
	if err := b.Set(keyRecord(ev.ID), raw, nil); err != nil {
		return err
	}
	// The index entry carries the full record so range scans are single-pass.
	if err := b.Set(keyDay(ev.Date, ev.Time, ev.ID), raw, nil); err != nil {
		return err
	}
	return s.db.CommitBatch(ctx, b)
}

func (s *Store) scan(lower, upper []byte) ([]*Event, error) {
	it, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []*Event
	for it.First(); it.Valid(); it.Next() {
		var ev Event
		if err := json.Unmarshal(it.Value(), &ev); err != nil {
			return nil, fmt.Errorf("decode index entry %q: %w", it.Key(), err)
		}
		out = append(out, &ev)
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	return out, nil
}
