// Package eventstore implements durable storage for calendar events on top
// of Pebble.
//
// # Overview
//
// Each event is stored under a primary key and mirrored into a day index so
// range queries come back ordered by (date, time) straight off a key scan:
//   - ev/id/{id}                       (event record, JSON)
//   - ev/day/{YYYY-MM-DD}/{time}/{id}  (same record, range-scan order)
//
// Both keys are written in one atomic batch, so a range scan never observes
// an event whose index entry disagrees with its record.
//
// The store assigns identifiers (uuid) and timestamps (RFC3339Nano in a
// fixed zone, UTC+8 by default) on insert, and refreshes only the updated
// timestamp on update. Dates are normalized to zero-padded YYYY-MM-DD at the
// boundary; comparisons elsewhere use the calendar Date type, never raw
// string ordering.
//
// Example:
//
//	st := eventstore.New(eventstore.Options{DB: db})
//	ev, _ := st.Insert(ctx, &eventstore.Event{Title: "standup", Date: "2024-03-15"})
//	day, _ := eventstore.ParseDate("2024-03-15")
//	list, _ := st.FindInRange(ctx, day, day)
//	_ = list[0].ID == ev.ID
package eventstore
