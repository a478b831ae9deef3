// Package transport provides the roomlink WebSocket transport.
//
// A Connection wraps exactly one attempt at a connection to a room on a
// relay server. Its lifecycle is reported to a Handler:
//
//	Open ──► OnOpen ──► OnMessage* ──► [OnError] ──► OnClose
//	  └────────────────────────────► [OnError] ──► OnClose
//
// OnOpen fires at most once. OnClose fires exactly once and always last; an
// error is always followed by a close. All callbacks for one Connection are
// delivered from a single goroutine, in order. A closed Connection is inert
// and never reused.
//
// Immediately after the WebSocket handshake the connection sends the presence
// announcement {"type":"entered"} before any other payload and before OnOpen
// is reported.
//
// # Keep-Alive
//
// Liveness is monitored with WebSocket ping/pong control frames carrying a
// big-endian sequence number:
//   - Ping interval: 30 seconds
//   - Pong timeout: 5 seconds
//   - Max missed pongs: 3
//   - Maximum detection delay: 95 seconds
//
// # Relay Server
//
// Server is a small relay that accepts connections on /rooms/{room} and
// forwards each payload to every other member of the same room. It backs the
// roomlink-relay tool and the package tests.
package transport
