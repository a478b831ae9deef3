// Package wire defines the records roomlink exchanges with a relay server.
//
// Application payloads are opaque to roomlink. The only record the transport
// itself produces is the presence announcement sent as the first payload of
// every freshly opened session:
//
//	{"type": "entered"}
//
// # Codecs
//
// Records are encoded with a Codec. JSON is the default and travels in text
// frames. CBOR travels in binary frames and uses the same string keys, so
// both encodings carry an equivalent record.
package wire
