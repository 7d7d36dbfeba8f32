package protocol

import (
	"fmt"

	"github.com/danmuck/txwire/internal/protocol/shortvec"
)

// MarshalBinary encodes tx in the wire format. It fails only when tx cannot
// be represented: a vector longer than a u16, lookups on a legacy message, a
// legacy signer count of 128 or more, or an unknown message version.
func (tx *Transaction) MarshalBinary() ([]byte, error) {
	if tx == nil {
		return nil, ErrNilTransaction
	}
	buf := make([]byte, 0, tx.encodedSizeHint())
	buf, err := appendLen(buf, len(tx.Signatures), "signatures")
	if err != nil {
		return nil, err
	}
	for i := range tx.Signatures {
		buf = append(buf, tx.Signatures[i][:]...)
	}
	return tx.Message.appendBinary(buf)
}

// MarshalBinary encodes the message alone. These are the bytes signers sign.
func (m *Message) MarshalBinary() ([]byte, error) {
	return m.appendBinary(nil)
}

func (m *Message) appendBinary(buf []byte) ([]byte, error) {
	switch m.Version {
	case VersionLegacy:
		if len(m.AddressTableLookups) > 0 {
			return nil, ErrLookupsOnLegacy
		}
		// The first legacy byte doubles as the version discriminator.
		if m.Header.NumRequiredSignatures&versionPrefix != 0 {
			return nil, fmt.Errorf("%w: %d", ErrLegacyPrefix, m.Header.NumRequiredSignatures)
		}
	case Version0:
		buf = append(buf, versionPrefix|0)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, m.Version)
	}

	buf = append(buf,
		m.Header.NumRequiredSignatures,
		m.Header.NumReadonlySignedAccounts,
		m.Header.NumReadonlyUnsignedAccounts,
	)

	buf, err := appendLen(buf, len(m.AccountKeys), "account_keys")
	if err != nil {
		return nil, err
	}
	for i := range m.AccountKeys {
		buf = append(buf, m.AccountKeys[i][:]...)
	}
	buf = append(buf, m.RecentBlockhash[:]...)

	buf, err = appendLen(buf, len(m.Instructions), "instructions")
	if err != nil {
		return nil, err
	}
	for i := range m.Instructions {
		buf, err = appendInstruction(buf, &m.Instructions[i])
		if err != nil {
			return nil, fmt.Errorf("instruction[%d]: %w", i, err)
		}
	}

	if m.Version == VersionLegacy {
		return buf, nil
	}
	buf, err = appendLen(buf, len(m.AddressTableLookups), "address_table_lookups")
	if err != nil {
		return nil, err
	}
	for i := range m.AddressTableLookups {
		buf, err = appendLookup(buf, &m.AddressTableLookups[i])
		if err != nil {
			return nil, fmt.Errorf("address_table_lookup[%d]: %w", i, err)
		}
	}
	return buf, nil
}

func appendInstruction(buf []byte, ix *CompiledInstruction) ([]byte, error) {
	buf = append(buf, ix.ProgramIDIndex)
	buf, err := appendBytes(buf, ix.Accounts, "accounts")
	if err != nil {
		return nil, err
	}
	return appendBytes(buf, ix.Data, "data")
}

func appendLookup(buf []byte, l *AddressTableLookup) ([]byte, error) {
	buf = append(buf, l.AccountKey[:]...)
	buf, err := appendBytes(buf, l.WritableIndexes, "writable_indexes")
	if err != nil {
		return nil, err
	}
	return appendBytes(buf, l.ReadonlyIndexes, "readonly_indexes")
}

func appendBytes(buf, b []byte, name string) ([]byte, error) {
	buf, err := appendLen(buf, len(b), name)
	if err != nil {
		return nil, err
	}
	return append(buf, b...), nil
}

func appendLen(buf []byte, n int, name string) ([]byte, error) {
	out, err := shortvec.AppendLen(buf, n)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidLength, name, err)
	}
	return out, nil
}

func (tx *Transaction) encodedSizeHint() int {
	m := &tx.Message
	n := shortvec.MaxEncodedLen + len(tx.Signatures)*SignatureSize
	n += 1 + 3 + shortvec.MaxEncodedLen + len(m.AccountKeys)*PubkeySize + HashSize
	n += shortvec.MaxEncodedLen
	for i := range m.Instructions {
		n += 1 + 2*shortvec.MaxEncodedLen + len(m.Instructions[i].Accounts) + len(m.Instructions[i].Data)
	}
	n += shortvec.MaxEncodedLen
	for i := range m.AddressTableLookups {
		l := &m.AddressTableLookups[i]
		n += PubkeySize + 2*shortvec.MaxEncodedLen + len(l.WritableIndexes) + len(l.ReadonlyIndexes)
	}
	return n
}
