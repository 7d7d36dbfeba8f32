package protocol

import (
	"crypto/ed25519"
	"fmt"
)

// Signers returns the account keys that must sign the message, in
// signature order.
func (m *Message) Signers() []Pubkey {
	n := int(m.Header.NumRequiredSignatures)
	if n > len(m.AccountKeys) {
		n = len(m.AccountKeys)
	}
	return m.AccountKeys[:n]
}

// Sign places one signature per key at the slot of the matching signer.
// Signatures for signers not covered by keys are left untouched.
func (tx *Transaction) Sign(keys ...ed25519.PrivateKey) error {
	if tx == nil {
		return ErrNilTransaction
	}
	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return err
	}
	signers := tx.Message.Signers()
	if len(tx.Signatures) != int(tx.Message.Header.NumRequiredSignatures) {
		sigs := make([]Signature, tx.Message.Header.NumRequiredSignatures)
		copy(sigs, tx.Signatures)
		tx.Signatures = sigs
	}
	for _, key := range keys {
		pub, ok := key.Public().(ed25519.PublicKey)
		if !ok || len(pub) != PubkeySize {
			return ErrInvalidKey
		}
		slot := -1
		for i, signer := range signers {
			if string(signer[:]) == string(pub) {
				slot = i
				break
			}
		}
		if slot < 0 {
			return fmt.Errorf("%w: %s", ErrNotSigner, Pubkey(pub))
		}
		copy(tx.Signatures[slot][:], ed25519.Sign(key, msg))
	}
	return nil
}

// VerifySignatures checks every signature against its signer over the
// serialized message.
func (tx *Transaction) VerifySignatures() error {
	if tx == nil {
		return ErrNilTransaction
	}
	signers := tx.Message.Signers()
	if len(tx.Signatures) != len(signers) || len(signers) != int(tx.Message.Header.NumRequiredSignatures) {
		return fmt.Errorf("%w: %d signatures for %d signers", ErrSignatureMismatch, len(tx.Signatures), tx.Message.Header.NumRequiredSignatures)
	}
	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return err
	}
	for i, signer := range signers {
		if !ed25519.Verify(ed25519.PublicKey(signer[:]), msg, tx.Signatures[i][:]) {
			return fmt.Errorf("%w: signer %s", ErrSignatureMismatch, signer)
		}
	}
	return nil
}
