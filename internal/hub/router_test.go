package hub

import (
	"testing"

	"github.com/rzbill/calhub/internal/eventstore"
)

func registerWithWindow(t *testing.T, reg *Registry, start, end string) (*Conn, *fakeSink) {
	t.Helper()
	sink := &fakeSink{}
	c := NewConn(sink)
	reg.Register(c)
	if start != "" {
		reg.SetWindow(c, Window{Start: mustDate(t, start), End: mustDate(t, end)})
	}
	return c, sink
}

func TestNotifyInterestedMatchesWindow(t *testing.T) {
	reg := NewRegistry()
	router := NewRouter(reg, nil)

	_, inWindow := registerWithWindow(t, reg, "2024-03-01", "2024-03-31")
	_, outside := registerWithWindow(t, reg, "2024-04-01", "2024-04-30")
	_, windowless := registerWithWindow(t, reg, "", "")

	ev := &eventstore.Event{ID: "e1", Title: "x", Date: "2024-03-15"}
	router.NotifyInterested(EncodeEvent(TypeEventCreated, ev), ev, nil)

	if n := len(inWindow.messages(t)); n != 1 {
		t.Fatalf("in-window connection got %d messages, want 1", n)
	}
	if n := len(outside.messages(t)); n != 0 {
		t.Fatalf("out-of-window connection got %d messages, want 0", n)
	}
	if n := len(windowless.messages(t)); n != 0 {
		t.Fatalf("windowless connection got %d targeted messages, want 0", n)
	}
}

func TestNotifyInterestedBoundaryDates(t *testing.T) {
	reg := NewRegistry()
	router := NewRouter(reg, nil)
	_, sink := registerWithWindow(t, reg, "2024-03-01", "2024-03-31")

	for _, date := range []string{"2024-03-01", "2024-03-31"} {
		ev := &eventstore.Event{ID: "e", Title: "x", Date: date}
		router.NotifyInterested(EncodeEvent(TypeEventCreated, ev), ev, nil)
	}
	if n := len(sink.messages(t)); n != 2 {
		t.Fatalf("boundary dates delivered %d messages, want 2", n)
	}
}

func TestNotifyInterestedExcludesOrigin(t *testing.T) {
	reg := NewRegistry()
	router := NewRouter(reg, nil)

	origin, originSink := registerWithWindow(t, reg, "2024-03-01", "2024-03-31")
	_, otherSink := registerWithWindow(t, reg, "2024-03-01", "2024-03-31")

	ev := &eventstore.Event{ID: "e1", Title: "x", Date: "2024-03-15"}
	router.NotifyInterested(EncodeEvent(TypeEventCreated, ev), ev, origin)

	if n := len(originSink.messages(t)); n != 0 {
		t.Fatalf("excluded origin received %d messages", n)
	}
	if n := len(otherSink.messages(t)); n != 1 {
		t.Fatalf("other connection got %d messages, want 1", n)
	}
}

func TestNotifyAllIgnoresWindows(t *testing.T) {
	reg := NewRegistry()
	router := NewRouter(reg, nil)

	_, a := registerWithWindow(t, reg, "2024-03-01", "2024-03-31")
	_, b := registerWithWindow(t, reg, "", "")
	excluded, c := registerWithWindow(t, reg, "", "")

	router.NotifyAll(EncodeOnlineUsers(3), excluded)

	if len(a.messages(t)) != 1 || len(b.messages(t)) != 1 {
		t.Fatalf("NotifyAll should reach every connection regardless of window")
	}
	if len(c.messages(t)) != 0 {
		t.Fatalf("excluded connection received a NotifyAll payload")
	}
}

func TestNotifyOneOnlyTargetsConnection(t *testing.T) {
	reg := NewRegistry()
	router := NewRouter(reg, nil)

	target, targetSink := registerWithWindow(t, reg, "", "")
	_, otherSink := registerWithWindow(t, reg, "", "")

	router.NotifyOne(EncodeError("just you"), target)

	if len(targetSink.messages(t)) != 1 {
		t.Fatalf("target did not receive direct payload")
	}
	if len(otherSink.messages(t)) != 0 {
		t.Fatalf("direct payload leaked to another connection")
	}
}

func TestSendFailureDoesNotAbortPass(t *testing.T) {
	reg := NewRegistry()
	router := NewRouter(reg, nil)

	var dropped []*Conn
	router.SetFailureHandler(func(c *Conn) { dropped = append(dropped, c) })

	failing, failingSink := registerWithWindow(t, reg, "2024-03-01", "2024-03-31")
	failingSink.setFail(true)
	_, healthySink := registerWithWindow(t, reg, "2024-03-01", "2024-03-31")

	ev := &eventstore.Event{ID: "e1", Title: "x", Date: "2024-03-15"}
	router.NotifyInterested(EncodeEvent(TypeEventCreated, ev), ev, nil)

	if n := len(healthySink.messages(t)); n != 1 {
		t.Fatalf("healthy connection got %d messages, want 1", n)
	}
	if len(dropped) != 1 || dropped[0] != failing {
		t.Fatalf("failure handler saw %v, want the failing connection once", dropped)
	}
}

func TestCELFilterNarrowsTargetedBroadcasts(t *testing.T) {
	reg := NewRegistry()
	router := NewRouter(reg, nil)

	redOnly, redSink := registerWithWindow(t, reg, "2024-03-01", "2024-03-31")
	f, err := newEventFilter(`color == "red"`)
	if err != nil {
		t.Fatalf("compile filter: %v", err)
	}
	reg.setFilter(redOnly, f)

	blue := &eventstore.Event{ID: "e1", Title: "x", Date: "2024-03-15", Color: "blue"}
	router.NotifyInterested(EncodeEvent(TypeEventCreated, blue), blue, nil)
	red := &eventstore.Event{ID: "e2", Title: "y", Date: "2024-03-15", Color: "red"}
	router.NotifyInterested(EncodeEvent(TypeEventCreated, red), red, nil)

	msgs := redSink.messages(t)
	if len(msgs) != 1 {
		t.Fatalf("filtered connection got %d messages, want 1", len(msgs))
	}
	event := msgs[0]["event"].(map[string]any)
	if event["id"] != "e2" {
		t.Fatalf("filter delivered wrong event: %v", event["id"])
	}
}
