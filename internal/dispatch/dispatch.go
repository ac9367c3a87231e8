package dispatch

import (
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/Netzvamp/Genesis/internal/frame"
)

// Handler processes one dispatched event. Handlers run as independent
// goroutines; a slow or failing handler never blocks the read loop.
type Handler func(*frame.Event)

// Handle identifies one subscription for later removal.
type Handle string

type subscription struct {
	handler Handler
	// filter is the set of event keys this subscription wants; nil means
	// all events, including catch-all frames with no event name.
	filter map[string]struct{}
}

// Dispatcher routes events to registered subscriptions.
type Dispatcher struct {
	log *slog.Logger

	mu     sync.RWMutex
	subs   map[Handle]*subscription
	closed bool

	wg sync.WaitGroup
}

// New returns an empty dispatcher.
func New(log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		log:  log.With("component", "dispatcher"),
		subs: make(map[Handle]*subscription, 8),
	}
}

// Subscribe registers a handler. With no event names the handler receives
// every event; otherwise only events whose key matches one of the names.
// CUSTOM events are keyed by their Event-Subclass.
func (d *Dispatcher) Subscribe(handler Handler, events ...string) Handle {
	var filter map[string]struct{}

	if len(events) > 0 {
		filter = make(map[string]struct{}, len(events))
		for _, name := range events {
			filter[name] = struct{}{}
		}
	}

	handle := Handle(ulid.Make().String())

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return handle
	}

	d.subs[handle] = &subscription{handler: handler, filter: filter}
	d.log.Debug("Registered event subscription", "handle", string(handle), "events", events)

	return handle
}

// Unsubscribe removes a subscription. Unknown handles are ignored.
func (d *Dispatcher) Unsubscribe(handle Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.subs, handle)
}

// Dispatch fans an event out to every matching subscription. The
// subscriber list is snapshotted first, so handlers may subscribe or
// unsubscribe safely from inside a handler. Dispatch itself never waits
// on handler completion.
func (d *Dispatcher) Dispatch(ev *frame.Event) {
	key := ev.Key()

	d.mu.RLock()

	if d.closed {
		d.mu.RUnlock()

		return
	}

	var targets []Handler

	for _, sub := range d.subs {
		if sub.filter == nil {
			targets = append(targets, sub.handler)

			continue
		}

		if _, ok := sub.filter[key]; ok {
			targets = append(targets, sub.handler)
		}
	}

	d.mu.RUnlock()

	for _, handler := range targets {
		handler := handler
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			handler(ev)
		}()
	}
}

// Close stops accepting subscriptions and dispatches, then waits for all
// in-flight handler goroutines to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.subs = make(map[Handle]*subscription)
	d.mu.Unlock()

	d.wg.Wait()
}
