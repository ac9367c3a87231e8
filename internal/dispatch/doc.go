// Package dispatch fans incoming events out to subscribers.
//
// Subscriptions live in a table keyed by opaque handles, so removal is
// safe during iteration: every dispatch snapshots the subscriber list
// before fanning out. Handlers run as independent goroutines and are
// never awaited by the dispatcher, keeping the session read loop free.
package dispatch
