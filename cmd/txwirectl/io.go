package main

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// Binary payloads travel as hex, base64 or raw bytes.
type encoding string

const (
	encodingHex    encoding = "hex"
	encodingBase64 encoding = "base64"
	encodingRaw    encoding = "raw"
)

func parseEncoding(raw string) (encoding, error) {
	switch e := encoding(strings.ToLower(strings.TrimSpace(raw))); e {
	case encodingHex, encodingBase64, encodingRaw:
		return e, nil
	case "":
		return encodingHex, nil
	default:
		return "", fmt.Errorf("unknown encoding %q (want hex, base64 or raw)", raw)
	}
}

func (e encoding) decode(b []byte) ([]byte, error) {
	switch e {
	case encodingRaw:
		return b, nil
	case encodingBase64:
		return base64.StdEncoding.DecodeString(strings.TrimSpace(string(b)))
	default:
		return hex.DecodeString(strings.TrimSpace(string(b)))
	}
}

func (e encoding) encode(b []byte) []byte {
	switch e {
	case encodingRaw:
		return b
	case encodingBase64:
		return []byte(base64.StdEncoding.EncodeToString(b) + "\n")
	default:
		return []byte(hex.EncodeToString(b) + "\n")
	}
}

// readInput reads path, or stdin when path is empty or "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
