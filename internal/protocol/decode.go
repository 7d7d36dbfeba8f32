package protocol

import (
	"errors"
	"fmt"

	"github.com/danmuck/txwire/internal/protocol/shortvec"
)

// UnmarshalTransaction decodes exactly one transaction from b. Bytes left
// over after the message are an error. Decoded slices never alias b.
func UnmarshalTransaction(b []byte) (*Transaction, error) {
	r := reader{buf: b}
	tx, err := decodeTransaction(&r)
	if err != nil {
		return nil, err
	}
	if r.remaining() != 0 {
		return nil, fmt.Errorf("%w: %d", ErrTrailingBytes, r.remaining())
	}
	return tx, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (tx *Transaction) UnmarshalBinary(b []byte) error {
	decoded, err := UnmarshalTransaction(b)
	if err != nil {
		return err
	}
	*tx = *decoded
	return nil
}

func decodeTransaction(r *reader) (*Transaction, error) {
	n, err := r.length(SignatureSize)
	if err != nil {
		return nil, fmt.Errorf("signatures: %w", err)
	}
	tx := &Transaction{}
	if n > 0 {
		tx.Signatures = make([]Signature, n)
		for i := range tx.Signatures {
			b, _ := r.take(SignatureSize)
			copy(tx.Signatures[i][:], b)
		}
	}
	msg, err := decodeMessage(r)
	if err != nil {
		return nil, err
	}
	tx.Message = msg
	return tx, nil
}

func decodeMessage(r *reader) (Message, error) {
	var msg Message
	prefix, err := r.u8()
	if err != nil {
		return Message{}, fmt.Errorf("message prefix: %w", err)
	}

	if prefix&versionPrefix != 0 {
		version := prefix &^ versionPrefix
		if version != 0 {
			return Message{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
		}
		msg.Version = Version0
		head, err := r.take(3)
		if err != nil {
			return Message{}, fmt.Errorf("message header: %w", err)
		}
		msg.Header = MessageHeader{
			NumRequiredSignatures:       head[0],
			NumReadonlySignedAccounts:   head[1],
			NumReadonlyUnsignedAccounts: head[2],
		}
	} else {
		msg.Version = VersionLegacy
		head, err := r.take(2)
		if err != nil {
			return Message{}, fmt.Errorf("message header: %w", err)
		}
		msg.Header = MessageHeader{
			NumRequiredSignatures:       prefix,
			NumReadonlySignedAccounts:   head[0],
			NumReadonlyUnsignedAccounts: head[1],
		}
	}

	n, err := r.length(PubkeySize)
	if err != nil {
		return Message{}, fmt.Errorf("account_keys: %w", err)
	}
	if n > 0 {
		msg.AccountKeys = make([]Pubkey, n)
		for i := range msg.AccountKeys {
			b, _ := r.take(PubkeySize)
			copy(msg.AccountKeys[i][:], b)
		}
	}

	blockhash, err := r.take(HashSize)
	if err != nil {
		return Message{}, fmt.Errorf("recent_blockhash: %w", err)
	}
	copy(msg.RecentBlockhash[:], blockhash)

	// Smallest instruction: program index plus two empty length prefixes.
	n, err = r.length(3)
	if err != nil {
		return Message{}, fmt.Errorf("instructions: %w", err)
	}
	if n > 0 {
		msg.Instructions = make([]CompiledInstruction, n)
		for i := range msg.Instructions {
			if err := decodeInstruction(r, &msg.Instructions[i]); err != nil {
				return Message{}, fmt.Errorf("instruction[%d]: %w", i, err)
			}
		}
	}

	if msg.Version == VersionLegacy {
		return msg, nil
	}

	n, err = r.length(PubkeySize + 2)
	if err != nil {
		return Message{}, fmt.Errorf("address_table_lookups: %w", err)
	}
	if n > 0 {
		msg.AddressTableLookups = make([]AddressTableLookup, n)
		for i := range msg.AddressTableLookups {
			if err := decodeLookup(r, &msg.AddressTableLookups[i]); err != nil {
				return Message{}, fmt.Errorf("address_table_lookup[%d]: %w", i, err)
			}
		}
	}
	return msg, nil
}

func decodeInstruction(r *reader, ix *CompiledInstruction) error {
	program, err := r.u8()
	if err != nil {
		return err
	}
	ix.ProgramIDIndex = program
	if ix.Accounts, err = r.vec(); err != nil {
		return fmt.Errorf("accounts: %w", err)
	}
	if ix.Data, err = r.vec(); err != nil {
		return fmt.Errorf("data: %w", err)
	}
	return nil
}

func decodeLookup(r *reader, l *AddressTableLookup) error {
	key, err := r.take(PubkeySize)
	if err != nil {
		return err
	}
	copy(l.AccountKey[:], key)
	if l.WritableIndexes, err = r.vec(); err != nil {
		return fmt.Errorf("writable_indexes: %w", err)
	}
	if l.ReadonlyIndexes, err = r.vec(); err != nil {
		return fmt.Errorf("readonly_indexes: %w", err)
	}
	return nil
}

// reader walks a bounded byte slice. It never reads past len(buf).
type reader struct {
	buf []byte
	off int
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) u8() (byte, error) {
	if r.remaining() < 1 {
		return 0, ErrTruncated
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, ErrTruncated
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// length reads a compact-u16 element count and checks that count elements
// of at least minElem bytes each can still fit, so callers may allocate.
func (r *reader) length(minElem int) (int, error) {
	n, consumed, err := shortvec.DecodeLen(r.buf[r.off:])
	if errors.Is(err, shortvec.ErrShort) {
		return 0, ErrTruncated
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidLength, err)
	}
	r.off += consumed
	if n*minElem > r.remaining() {
		return 0, fmt.Errorf("%w: %d elements of %d bytes", ErrTruncated, n, minElem)
	}
	return n, nil
}

// vec reads a compact-u16 prefixed byte string into a fresh slice.
func (r *reader) vec() ([]byte, error) {
	n, err := r.length(1)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	b, _ := r.take(n)
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}
