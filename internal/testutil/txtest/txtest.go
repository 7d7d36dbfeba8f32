package txtest

import (
	"bytes"
	"crypto/ed25519"
	"math/rand"
	"testing"

	"github.com/danmuck/txwire/internal/protocol"
)

// Key returns a deterministic ed25519 key derived from seed.
func Key(seed byte) ed25519.PrivateKey {
	return ed25519.NewKeyFromSeed(bytes.Repeat([]byte{seed}, ed25519.SeedSize))
}

// Pubkey returns the account key of k.
func Pubkey(k ed25519.PrivateKey) protocol.Pubkey {
	var pk protocol.Pubkey
	copy(pk[:], k.Public().(ed25519.PublicKey))
	return pk
}

// Blockhash returns a recognizable non-zero hash.
func Blockhash(seed byte) protocol.Hash {
	var h protocol.Hash
	for i := range h {
		h[i] = seed + byte(i)
	}
	return h
}

// Legacy returns a signed single-signer legacy transfer.
func Legacy(t testing.TB) *protocol.Transaction {
	t.Helper()
	payer := Key(1)
	tx := &protocol.Transaction{
		Message: protocol.Message{
			Version: protocol.VersionLegacy,
			Header: protocol.MessageHeader{
				NumRequiredSignatures:       1,
				NumReadonlyUnsignedAccounts: 1,
			},
			AccountKeys:     []protocol.Pubkey{Pubkey(payer), Pubkey(Key(2)), {}},
			RecentBlockhash: Blockhash(7),
			Instructions: []protocol.CompiledInstruction{{
				ProgramIDIndex: 2,
				Accounts:       protocol.Indexes{0, 1},
				Data:           []byte{2, 0, 0, 0, 0x40, 0x42, 0x0f, 0, 0, 0, 0, 0},
			}},
		},
	}
	if err := tx.Sign(payer); err != nil {
		t.Fatalf("sign legacy fixture: %v", err)
	}
	return tx
}

// V0 returns a signed two-signer v0 transaction with one address table lookup.
func V0(t testing.TB) *protocol.Transaction {
	t.Helper()
	payer, cosigner := Key(3), Key(4)
	tx := &protocol.Transaction{
		Message: protocol.Message{
			Version: protocol.Version0,
			Header: protocol.MessageHeader{
				NumRequiredSignatures:       2,
				NumReadonlySignedAccounts:   1,
				NumReadonlyUnsignedAccounts: 1,
			},
			AccountKeys:     []protocol.Pubkey{Pubkey(payer), Pubkey(cosigner), Pubkey(Key(5))},
			RecentBlockhash: Blockhash(9),
			Instructions: []protocol.CompiledInstruction{
				{ProgramIDIndex: 2, Accounts: protocol.Indexes{0, 1, 3, 4}, Data: []byte("memo")},
				{ProgramIDIndex: 2},
			},
			AddressTableLookups: []protocol.AddressTableLookup{{
				AccountKey:      Pubkey(Key(6)),
				WritableIndexes: protocol.Indexes{0},
				ReadonlyIndexes: protocol.Indexes{1, 2},
			}},
		},
	}
	if err := tx.Sign(payer, cosigner); err != nil {
		t.Fatalf("sign v0 fixture: %v", err)
	}
	return tx
}

// RandomBytes returns n bytes from a seeded source so failures reproduce.
func RandomBytes(seed int64, n int) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(b)
	return b
}
