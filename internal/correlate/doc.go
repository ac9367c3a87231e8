// Package correlate matches command replies and background-job results
// with the commands that triggered them.
//
// Replies resolve in strict send order through a FIFO of pending
// commands; background jobs resolve out of order through a Job-UUID
// table. Every waiter holds a single-resolution result cell (a buffered
// channel written exactly once), and FailAll releases them all on
// session teardown.
package correlate
