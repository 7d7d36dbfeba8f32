// Package convert maps wire packets to transactions and back.
//
// Decoding stages the packet bytes in a fixed PacketDataSize buffer, so
// memory use does not depend on the input; bytes past capacity are dropped.
// Both directions are pure and safe for concurrent use.
package convert
