package scheduler

import "sync"

// subscriberBuffer is the per-subscriber channel capacity. A consumer that
// falls further behind loses events rather than blocking the dispatcher.
const subscriberBuffer = 64

// StreamPublisher fans events out to any number of subscribers. The HTTP
// layer attaches one subscriber per /events connection; a missing or stalled
// consumer never blocks job execution.
type StreamPublisher struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func NewStreamPublisher() *StreamPublisher {
	return &StreamPublisher{subs: make(map[int]chan Event)}
}

// Publish delivers e to every subscriber that has buffer space and drops it
// for the rest.
func (p *StreamPublisher) Publish(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a consumer. The returned func detaches it and closes
// the channel; it is safe to call more than once.
func (p *StreamPublisher) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	p.mu.Lock()
	id := p.next
	p.next++
	p.subs[id] = ch
	p.mu.Unlock()
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers returns the current subscriber count.
func (p *StreamPublisher) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}
