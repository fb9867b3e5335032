package animation

import (
	"sync"
	"testing"
	"time"
)

// eventSink collects played events in order.
type eventSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *eventSink) record(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *eventSink) byPlayer(playerID string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, ev := range s.events {
		if ev.PlayerID == playerID {
			out = append(out, ev)
		}
	}
	return out
}

func steps(playerID string, positions ...int) Sequence {
	seq := Sequence{PlayerID: playerID}
	for i := 1; i < len(positions); i++ {
		seq.Events = append(seq.Events, Event{
			PlayerID: playerID,
			Kind:     PhaseStep,
			From:     positions[i-1],
			To:       positions[i],
		})
	}
	return seq
}

func TestQueue_PlaysSequencesInOrder(t *testing.T) {
	sink := &eventSink{}
	q := NewQueue(0, 0, sink.record)
	defer q.Close()

	q.Enqueue(steps("p1", 0, 1, 2))
	q.Enqueue(steps("p1", 2, 3))
	q.Flush()

	events := sink.byPlayer("p1")
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}
	want := [][2]int{{0, 1}, {1, 2}, {2, 3}}
	for i, ev := range events {
		if ev.From != want[i][0] || ev.To != want[i][1] {
			t.Errorf("Event %d: expected %d->%d, got %d->%d",
				i, want[i][0], want[i][1], ev.From, ev.To)
		}
	}
}

func TestQueue_PlayersDoNotBlockEachOther(t *testing.T) {
	sink := &eventSink{}
	q := NewQueue(0, 0, sink.record)
	defer q.Close()

	var wg sync.WaitGroup
	for _, id := range []string{"p1", "p2", "p3"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				q.Enqueue(steps(id, i, i+1))
			}
		}(id)
	}
	wg.Wait()
	q.Flush()

	for _, id := range []string{"p1", "p2", "p3"} {
		events := sink.byPlayer(id)
		if len(events) != 10 {
			t.Fatalf("Player %s: expected 10 events, got %d", id, len(events))
		}
		for i, ev := range events {
			if ev.From != i || ev.To != i+1 {
				t.Errorf("Player %s event %d: expected %d->%d, got %d->%d",
					id, i, i, i+1, ev.From, ev.To)
			}
		}
	}
}

func TestQueue_EmptySequencesAreIgnored(t *testing.T) {
	sink := &eventSink{}
	q := NewQueue(0, 0, sink.record)
	defer q.Close()

	q.Enqueue(Sequence{PlayerID: "p1"})
	q.Flush()

	if n := len(sink.byPlayer("p1")); n != 0 {
		t.Errorf("Expected no events for an empty sequence, got %d", n)
	}
}

func TestQueue_CloseCancelsPlayback(t *testing.T) {
	sink := &eventSink{}
	// Long step duration so the sequence is still playing when we close.
	q := NewQueue(time.Hour, 0, sink.record)

	q.Enqueue(steps("p1", 0, 1, 2, 3))
	q.Close()

	done := make(chan struct{})
	go func() {
		q.Flush()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Flush did not return after Close")
	}

	// Further enqueues are dropped.
	q.Enqueue(steps("p2", 0, 1))
	q.Flush()
	if n := len(sink.byPlayer("p2")); n != 0 {
		t.Errorf("Expected no playback after Close, got %d events", n)
	}
}
