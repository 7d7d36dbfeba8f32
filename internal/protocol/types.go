package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// versionPrefix marks a versioned message. Legacy messages start with
// num_required_signatures, which never has the high bit set.
const versionPrefix byte = 0x80

// MessageVersion selects the message encoding.
type MessageVersion uint8

const (
	VersionLegacy MessageVersion = iota
	Version0
)

func (v MessageVersion) String() string {
	switch v {
	case VersionLegacy:
		return "legacy"
	case Version0:
		return "v0"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(v))
	}
}

func (v MessageVersion) MarshalText() ([]byte, error) {
	switch v {
	case VersionLegacy, Version0:
		return []byte(v.String()), nil
	default:
		return nil, ErrUnsupportedVersion
	}
}

func (v *MessageVersion) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "", "legacy":
		*v = VersionLegacy
	case "v0", "0":
		*v = Version0
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedVersion, string(b))
	}
	return nil
}

// MessageHeader counts the signer and readonly partitions of AccountKeys.
type MessageHeader struct {
	NumRequiredSignatures       uint8 `json:"num_required_signatures"`
	NumReadonlySignedAccounts   uint8 `json:"num_readonly_signed_accounts"`
	NumReadonlyUnsignedAccounts uint8 `json:"num_readonly_unsigned_accounts"`
}

// Indexes is a list of u8 account indexes. It renders as a JSON number
// array rather than base64.
type Indexes []uint8

func (ix Indexes) MarshalJSON() ([]byte, error) {
	out := make([]int, len(ix))
	for i, v := range ix {
		out[i] = int(v)
	}
	return json.Marshal(out)
}

func (ix *Indexes) UnmarshalJSON(b []byte) error {
	var raw []int
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		*ix = nil
		return nil
	}
	out := make(Indexes, len(raw))
	for i, v := range raw {
		if v < 0 || v > 0xff {
			return fmt.Errorf("protocol: index %d out of u8 range", v)
		}
		out[i] = uint8(v)
	}
	*ix = out
	return nil
}

// CompiledInstruction references its program and accounts by index.
type CompiledInstruction struct {
	ProgramIDIndex uint8   `json:"program_id_index"`
	Accounts       Indexes `json:"accounts"`
	Data           []byte  `json:"data"`
}

// AddressTableLookup loads extra accounts from an on-chain lookup table.
type AddressTableLookup struct {
	AccountKey      Pubkey  `json:"account_key"`
	WritableIndexes Indexes `json:"writable_indexes"`
	ReadonlyIndexes Indexes `json:"readonly_indexes"`
}

// Message is the signed body of a transaction.
type Message struct {
	Version             MessageVersion        `json:"version"`
	Header              MessageHeader         `json:"header"`
	AccountKeys         []Pubkey              `json:"account_keys"`
	RecentBlockhash     Hash                  `json:"recent_blockhash"`
	Instructions        []CompiledInstruction `json:"instructions"`
	AddressTableLookups []AddressTableLookup  `json:"address_table_lookups,omitempty"`
}

// Transaction is a message plus the signatures over its serialized form.
type Transaction struct {
	Signatures []Signature `json:"signatures"`
	Message    Message     `json:"message"`
}

// LoadedAddressCount returns how many accounts the lookups add.
func (m *Message) LoadedAddressCount() int {
	n := 0
	for _, l := range m.AddressTableLookups {
		n += len(l.WritableIndexes) + len(l.ReadonlyIndexes)
	}
	return n
}
