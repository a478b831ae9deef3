// Package discovery implements mDNS/DNS-SD discovery of roomlink relay servers.
//
// Relays advertise the _roomlink._tcp service in the local. domain. The
// instance name is the user-friendly relay name. TXT records carry:
//
//   - ver: protocol version (required)
//   - path: room path template, e.g. /rooms/{room} (optional)
//   - tls: "1" when the relay expects wss:// (optional)
//
// Clients browse for relays with a Browser, or use Resolve to wait for the
// first one and get a dialable server address.
package discovery
