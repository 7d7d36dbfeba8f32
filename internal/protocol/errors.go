package protocol

import "errors"

var (
	ErrTruncated          = errors.New("protocol: truncated data")
	ErrTrailingBytes      = errors.New("protocol: trailing bytes after transaction")
	ErrUnsupportedVersion = errors.New("protocol: unsupported message version")
	ErrInvalidLength      = errors.New("protocol: invalid length")
	ErrLookupsOnLegacy    = errors.New("protocol: address table lookups on legacy message")
	ErrNilTransaction     = errors.New("protocol: nil transaction")
	ErrLegacyPrefix       = errors.New("protocol: legacy signer count collides with version prefix")
	ErrInvalidKey         = errors.New("protocol: invalid key encoding")
	ErrNotSigner          = errors.New("protocol: key is not a required signer")
	ErrSignatureMismatch  = errors.New("protocol: signature verification failed")
)
