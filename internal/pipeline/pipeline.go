// Package pipeline runs the codec on behalf of network-facing callers and
// records what happened to each packet.
package pipeline

import (
	"errors"

	"github.com/danmuck/txwire/internal/observability"
	"github.com/danmuck/txwire/internal/protocol"
	"github.com/danmuck/txwire/internal/protocol/convert"
	"github.com/danmuck/txwire/internal/protocol/packet"
	"github.com/danmuck/txwire/internal/protocol/schema"
	"github.com/rs/zerolog"
)

type Config struct {
	Node            string
	MissingMetaSize convert.SizePolicy
	Validate        bool
}

// Pipeline is safe for concurrent use.
type Pipeline struct {
	node     string
	decoder  convert.Decoder
	validate bool
	logger   zerolog.Logger
}

func New(cfg Config, logger zerolog.Logger) *Pipeline {
	observability.RegisterMetrics()
	return &Pipeline{
		node:     cfg.Node,
		decoder:  convert.Decoder{MissingMetaSize: cfg.MissingMetaSize},
		validate: cfg.Validate,
		logger:   logger.With().Str("component", "pipeline").Str("node", cfg.Node).Logger(),
	}
}

// Decode returns the packet's transaction or the reason it was dropped.
func (p *Pipeline) Decode(pkt packet.Packet) (*protocol.Transaction, error) {
	tx, res, err := p.decoder.Decode(pkt)
	if err == nil && p.validate {
		err = schema.Validate(tx)
	}
	result := classify(err)
	observability.RecordCodec(p.node, observability.DirectionDecode, result, len(pkt.Data), res.Truncated)
	if err != nil {
		p.logger.Debug().
			Err(err).
			Str("result", result).
			Int("data_len", len(pkt.Data)).
			Int("copied", res.Copied).
			Int("size", res.Size).
			Msg("packet dropped")
		return nil, err
	}
	if res.Truncated > 0 {
		p.logger.Debug().Int("truncated", res.Truncated).Msg("packet truncated to capacity")
	}
	return tx, nil
}

// Encode builds an outbound packet. Unlike convert.PacketFromTransaction it
// reports unrepresentable transactions instead of panicking, since callers
// here hand in untrusted input.
func (p *Pipeline) Encode(tx *protocol.Transaction) (packet.Packet, error) {
	var err error
	if p.validate {
		err = schema.Validate(tx)
	}
	var pkt packet.Packet
	if err == nil {
		pkt, err = convert.EncodePacket(tx)
	}
	result := classify(err)
	observability.RecordCodec(p.node, observability.DirectionEncode, result, len(pkt.Data), 0)
	if err != nil {
		p.logger.Debug().Err(err).Str("result", result).Msg("transaction rejected")
		return packet.Packet{}, err
	}
	return pkt, nil
}

func classify(err error) string {
	var verr schema.ValidationError
	switch {
	case err == nil:
		return observability.ResultOK
	case errors.Is(err, convert.ErrSizeExceedsCapacity):
		return observability.ResultOversize
	case errors.As(err, &verr):
		return observability.ResultInvalid
	default:
		return observability.ResultMalformed
	}
}
