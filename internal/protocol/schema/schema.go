package schema

import (
	"fmt"

	"github.com/danmuck/txwire/internal/protocol"
	"github.com/rs/zerolog/log"
)

// MaxAccounts is the number of accounts a u8 index can address.
const MaxAccounts = 256

type ValidationError struct {
	Version protocol.MessageVersion
	Field   string
	Reason  string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema: version=%s: %s", e.Version, e.Reason)
	}
	return fmt.Sprintf("schema: version=%s field=%s: %s", e.Version, e.Field, e.Reason)
}

// Rule checks one structural property of a transaction and names the field
// it guards.
type Rule struct {
	Field string
	Check func(tx *protocol.Transaction) string
}

var common = []Rule{
	{"signatures", checkSignatureCount},
	{"header", checkHeader},
	{"account_keys", checkAccountCount},
	{"instructions", checkInstructions},
}

var rules = map[protocol.MessageVersion][]Rule{
	protocol.VersionLegacy: append(append([]Rule{}, common...),
		Rule{"address_table_lookups", checkNoLookups},
	),
	protocol.Version0: append(append([]Rule{}, common...),
		Rule{"address_table_lookups", checkLookups},
	),
}

// Validate enforces the structural rules for tx's message version. Decoding
// does not call it; a decoded transaction may still fail here.
func Validate(tx *protocol.Transaction) error {
	if tx == nil {
		return ValidationError{Reason: "nil transaction"}
	}
	version := tx.Message.Version
	log.Debug().Str("version", version.String()).Int("signatures", len(tx.Signatures)).Msg("schema.Validate")
	set, ok := rules[version]
	if !ok {
		log.Error().Str("version", version.String()).Msg("schema.Validate unknown version")
		return ValidationError{Version: version, Reason: "unknown message version"}
	}
	for _, rule := range set {
		if reason := rule.Check(tx); reason != "" {
			log.Debug().
				Str("version", version.String()).
				Str("field", rule.Field).
				Str("reason", reason).
				Msg("schema.Validate rejected")
			return ValidationError{Version: version, Field: rule.Field, Reason: reason}
		}
	}
	return nil
}

func checkSignatureCount(tx *protocol.Transaction) string {
	want := int(tx.Message.Header.NumRequiredSignatures)
	if len(tx.Signatures) != want {
		return fmt.Sprintf("have %d signatures, header requires %d", len(tx.Signatures), want)
	}
	return ""
}

func checkHeader(tx *protocol.Transaction) string {
	h := tx.Message.Header
	if h.NumRequiredSignatures == 0 {
		return "fee payer signature required"
	}
	if h.NumReadonlySignedAccounts >= h.NumRequiredSignatures {
		return "fee payer must be writable"
	}
	if int(h.NumRequiredSignatures)+int(h.NumReadonlyUnsignedAccounts) > len(tx.Message.AccountKeys) {
		return "signer and readonly unsigned counts exceed account keys"
	}
	return ""
}

func checkAccountCount(tx *protocol.Transaction) string {
	total := len(tx.Message.AccountKeys) + tx.Message.LoadedAddressCount()
	if total > MaxAccounts {
		return fmt.Sprintf("%d accounts exceed u8 index range", total)
	}
	return ""
}

func checkInstructions(tx *protocol.Transaction) string {
	static := len(tx.Message.AccountKeys)
	total := static + tx.Message.LoadedAddressCount()
	for i, ix := range tx.Message.Instructions {
		// Programs must be static keys and can never be the fee payer.
		if ix.ProgramIDIndex == 0 || int(ix.ProgramIDIndex) >= static {
			return fmt.Sprintf("instruction %d: program index %d out of range", i, ix.ProgramIDIndex)
		}
		for _, a := range ix.Accounts {
			if int(a) >= total {
				return fmt.Sprintf("instruction %d: account index %d out of range", i, a)
			}
		}
	}
	return ""
}

func checkNoLookups(tx *protocol.Transaction) string {
	if len(tx.Message.AddressTableLookups) != 0 {
		return "legacy message cannot load addresses"
	}
	return ""
}

func checkLookups(tx *protocol.Transaction) string {
	for i, l := range tx.Message.AddressTableLookups {
		if len(l.WritableIndexes) == 0 && len(l.ReadonlyIndexes) == 0 {
			return fmt.Sprintf("lookup %d loads no addresses", i)
		}
	}
	return ""
}
