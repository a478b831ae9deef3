// Package reachability tracks whether the host believes network connectivity
// exists.
//
// A Monitor answers the synchronous "is the host online" query and delivers
// transitions to registered listeners. Listeners are notified exactly once per
// transition; repeated reports of the same state are swallowed.
//
// # Registration
//
// Every OnChange registration returns an unsubscribe function. Callers must
// invoke it when they are torn down, otherwise the listener keeps a reference
// to a dead owner. Unsubscribing is idempotent.
//
// # Sources
//
//   - Broadcaster: the registry itself; Set feeds it from any source
//     (operating-system probe, manual override, tests).
//   - Watcher: periodically probes the host's network interfaces and feeds a
//     Broadcaster.
//   - Default: the process-wide Broadcaster driven by a Watcher.
package reachability
