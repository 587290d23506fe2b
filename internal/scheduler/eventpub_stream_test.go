package scheduler

import "testing"

func TestStreamPublisher_FanOut(t *testing.T) {
	p := NewStreamPublisher()
	a, cancelA := p.Subscribe()
	b, cancelB := p.Subscribe()
	defer cancelA()
	defer cancelB()

	p.Publish(Event{Name: EventQueued, JobID: "j1"})
	for name, ch := range map[string]<-chan Event{"a": a, "b": b} {
		select {
		case e := <-ch:
			if e.JobID != "j1" {
				t.Fatalf("%s: got %+v", name, e)
			}
		default:
			t.Fatalf("%s: no event delivered", name)
		}
	}
}

func TestStreamPublisher_SlowSubscriberDropsNotBlocks(t *testing.T) {
	p := NewStreamPublisher()
	ch, cancel := p.Subscribe()
	defer cancel()

	// Nothing reads; overflow past the buffer must not block Publish.
	for i := 0; i < subscriberBuffer+10; i++ {
		p.Publish(Event{Name: EventProcessing, JobID: "j1"})
	}
	if got := len(ch); got != subscriberBuffer {
		t.Fatalf("buffered=%d, want %d", got, subscriberBuffer)
	}
}

func TestStreamPublisher_CancelDetachesAndCloses(t *testing.T) {
	p := NewStreamPublisher()
	ch, cancel := p.Subscribe()
	if p.Subscribers() != 1 {
		t.Fatalf("subscribers=%d", p.Subscribers())
	}
	cancel()
	cancel() // second call is a no-op
	if p.Subscribers() != 0 {
		t.Fatalf("subscribers=%d after cancel", p.Subscribers())
	}
	if _, ok := <-ch; ok {
		t.Fatalf("channel not closed")
	}
	// Publishing to no subscribers is fine.
	p.Publish(Event{Name: EventCompleted})
}
