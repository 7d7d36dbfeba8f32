// Package protocol owns the transaction model and its binary wire format.
//
// Ownership boundary:
// - transaction/message model (legacy and v0)
// - deterministic binary encode/decode
// - key, signature and hash primitives
//
// Packet framing lives in protocol/packet and the packet<->transaction
// conversion in protocol/convert.
package protocol
