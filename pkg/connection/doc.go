// Package connection supervises a persistent connection to a room.
//
// A Supervisor owns a single connection slot. It opens a transport session,
// watches it, and re-establishes it after failure with exponential backoff
// and jitter. Retries are suspended while the host is unreachable and resume
// immediately when reachability returns.
//
// # Reconnection Strategy
//
// After a session fails the supervisor waits base + jitter, where jitter is
// drawn fresh from [0, 500ms) for every retry:
//
//  1. First retry waits 1s
//  2. Each retry that actually starts doubles the base: 2s, 4s, 8s, 16s
//  3. The base is capped at 30s
//  4. Retries continue at 30s until successful or shut down
//  5. The base resets to 1s on a successful open and when reachability
//     is restored
//
// The first attempt after Start, and the first attempt after reachability
// is restored, are immediate.
//
// # Execution Model
//
// All transitions run on one goroutine per supervisor that drains an
// unbounded mailbox. Session callbacks, reachability changes and timer fires
// only post to the mailbox, so they never block and never re-enter the state
// machine. Timer events carry a generation and session events carry the
// attempt they belong to; stale ones are dropped.
//
// Status subscribers and observers are called on the supervisor goroutine.
// They must not call Close.
package connection
