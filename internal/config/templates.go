package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "service", "txwired":
		return serviceTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const serviceTemplate = `name = "txwired"
http_addr = ":9200"
grpc_addr = ":9201"
cors_origins = ["http://localhost:3000"]
# bearer token required on /v1 and grpc; empty disables
auth_token = ""

[codec]
# copied | capacity | zero: visible size when a packet has no meta
missing_meta_size = "copied"
validate = false

[tls]
enabled = false
mutual = false
cert_file = ""
key_file = ""
ca_file = ""

[log]
# trace | debug | info | warn | error | off
level = "info"
# console | json
format = "console"
`
