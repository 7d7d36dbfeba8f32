package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/danmuck/txwire/internal/logging"
	"github.com/danmuck/txwire/internal/protocol"
	"github.com/danmuck/txwire/internal/protocol/convert"
	"github.com/danmuck/txwire/internal/protocol/packet"
	"github.com/danmuck/txwire/internal/protocol/schema"
	"github.com/danmuck/txwire/internal/rpc"
	"github.com/rs/zerolog/log"
)

const usage = `usage: txwirectl <command> [flags]

commands:
  decode   packet protobuf -> transaction JSON
  encode   transaction JSON -> packet protobuf
`

var errUsage = errors.New("usage")

func main() {
	logging.ConfigureRuntime()
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "txwirectl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "decode":
		return runDecode(args[1:], stdin, stdout)
	case "encode":
		return runEncode(args[1:], stdin, stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

type remoteFlags struct {
	addr       string
	caFile     string
	certFile   string
	keyFile    string
	serverName string
	token      string
	timeout    time.Duration
}

func (r *remoteFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&r.addr, "addr", "", "txwired grpc address; codec runs locally when empty")
	fs.StringVar(&r.caFile, "ca", "", "ca bundle enabling tls to -addr")
	fs.StringVar(&r.certFile, "cert", "", "client certificate for mutual tls")
	fs.StringVar(&r.keyFile, "key", "", "client key for mutual tls")
	fs.StringVar(&r.serverName, "server-name", "", "tls server name override")
	fs.StringVar(&r.token, "token", "", "bearer token for txwired")
	fs.DurationVar(&r.timeout, "timeout", 5*time.Second, "per-call timeout")
}

func (r *remoteFlags) dial() (*rpc.Client, error) {
	opts := rpc.DialOptions{Token: r.token}
	if r.caFile != "" {
		tlsCfg, err := rpc.ClientTLSConfig(rpc.TLSFiles{
			CertFile: r.certFile,
			KeyFile:  r.keyFile,
			CAFile:   r.caFile,
			Mutual:   r.certFile != "" || r.keyFile != "",
		}, r.serverName)
		if err != nil {
			return nil, err
		}
		opts.TLS = tlsCfg
	}
	client, err := rpc.Dial(r.addr, opts)
	if err != nil {
		return nil, err
	}
	client.Timeout = r.timeout
	return client, nil
}

func runDecode(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	in := fs.String("in", "", "input file (stdin when empty)")
	format := fs.String("format", "hex", "input encoding: hex|base64|raw")
	policy := fs.String("missing-meta-size", convert.DefaultSizePolicy.String(), "size when the packet has no meta: copied|capacity|zero")
	validate := fs.Bool("validate", false, "run structural checks on the decoded transaction")
	var remote remoteFlags
	remote.register(fs)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	enc, err := parseEncoding(*format)
	if err != nil {
		return err
	}
	raw, err := readInput(*in, stdin)
	if err != nil {
		return err
	}
	body, err := enc.decode(raw)
	if err != nil {
		return fmt.Errorf("decode %s input: %w", enc, err)
	}
	pkt, err := packet.UnmarshalProto(body)
	if err != nil {
		return err
	}

	var tx *protocol.Transaction
	if remote.addr != "" {
		client, err := remote.dial()
		if err != nil {
			return err
		}
		defer client.Close()
		if tx, err = client.Decode(context.Background(), pkt); err != nil {
			return err
		}
	} else {
		sp, err := convert.ParseSizePolicy(*policy)
		if err != nil {
			return err
		}
		var res convert.Result
		tx, res, err = convert.Decoder{MissingMetaSize: sp}.Decode(pkt)
		if err != nil {
			return err
		}
		if res.Truncated > 0 {
			log.Warn().Int("truncated", res.Truncated).Msg("packet data exceeded buffer capacity")
		}
	}
	if *validate {
		if err := schema.Validate(tx); err != nil {
			return err
		}
	}

	out, err := json.MarshalIndent(tx, "", "  ")
	if err != nil {
		return err
	}
	_, err = stdout.Write(append(out, '\n'))
	return err
}

func runEncode(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	in := fs.String("in", "", "transaction JSON file (stdin when empty)")
	format := fs.String("format", "hex", "output encoding: hex|base64|raw")
	data := fs.Bool("data-only", false, "emit the transaction bytes instead of the packet")
	var remote remoteFlags
	remote.register(fs)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	enc, err := parseEncoding(*format)
	if err != nil {
		return err
	}
	raw, err := readInput(*in, stdin)
	if err != nil {
		return err
	}
	var tx protocol.Transaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return fmt.Errorf("parse transaction json: %w", err)
	}

	var pkt packet.Packet
	if remote.addr != "" {
		client, err := remote.dial()
		if err != nil {
			return err
		}
		defer client.Close()
		if pkt, err = client.Encode(context.Background(), &tx); err != nil {
			return err
		}
	} else if pkt, err = convert.EncodePacket(&tx); err != nil {
		return err
	}

	payload := pkt.MarshalProto()
	if *data {
		payload = pkt.Data
	}
	_, err = stdout.Write(enc.encode(payload))
	return err
}
