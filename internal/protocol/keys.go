package protocol

import (
	"fmt"

	"github.com/mr-tron/base58"
)

const (
	PubkeySize    = 32
	HashSize      = 32
	SignatureSize = 64
)

// Pubkey is an ed25519 public key naming an account.
type Pubkey [PubkeySize]byte

// Hash is a 32-byte digest, used for the recent blockhash.
type Hash [HashSize]byte

// Signature is an ed25519 signature over a serialized message.
type Signature [SignatureSize]byte

func (k Pubkey) String() string    { return base58.Encode(k[:]) }
func (h Hash) String() string      { return base58.Encode(h[:]) }
func (s Signature) String() string { return base58.Encode(s[:]) }

func (k Pubkey) MarshalText() ([]byte, error)    { return []byte(k.String()), nil }
func (h Hash) MarshalText() ([]byte, error)      { return []byte(h.String()), nil }
func (s Signature) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (k *Pubkey) UnmarshalText(b []byte) error    { return decodeBase58(k[:], string(b)) }
func (h *Hash) UnmarshalText(b []byte) error      { return decodeBase58(h[:], string(b)) }
func (s *Signature) UnmarshalText(b []byte) error { return decodeBase58(s[:], string(b)) }

// ParsePubkey decodes a base58 public key.
func ParsePubkey(s string) (Pubkey, error) {
	var k Pubkey
	err := k.UnmarshalText([]byte(s))
	return k, err
}

// ParseHash decodes a base58 hash.
func ParseHash(s string) (Hash, error) {
	var h Hash
	err := h.UnmarshalText([]byte(s))
	return h, err
}

// ParseSignature decodes a base58 signature.
func ParseSignature(s string) (Signature, error) {
	var sig Signature
	err := sig.UnmarshalText([]byte(s))
	return sig, err
}

func decodeBase58(dst []byte, s string) error {
	raw, err := base58.Decode(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(raw) != len(dst) {
		return fmt.Errorf("%w: got %d bytes want %d", ErrInvalidKey, len(raw), len(dst))
	}
	copy(dst, raw)
	return nil
}
