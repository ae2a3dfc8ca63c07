// Package input implements the C7 input driver (spec.md §4.6): it owns
// the listening resource and the per-connection lifecycle, feeding
// decoded-then-reencoded payloads into the broker.
package input

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"

	"github.com/awslabs/flowgger/internal/broker"
	"github.com/awslabs/flowgger/internal/decoder"
	"github.com/awslabs/flowgger/internal/encoder"
	"github.com/awslabs/flowgger/internal/framing"
)

// Counters is the subset of health.Monitor's API the pipeline needs;
// narrowed to an interface here so input doesn't import health.
type Counters interface {
	RecordIn()
	RecordOut()
	RecordDropped()
}

// Pipeline wires one connection's Splitter to a Decoder, re-encodes
// through Encoder, and pushes the result onto Broker. It is shared by
// every transport (TCP/TLS, UDP, Redis, stdin): only how bytes arrive
// differs.
type Pipeline struct {
	Decoder  decoder.Decoder
	Encoder  encoder.Encoder
	Broker   *broker.Broker
	Logger   zerolog.Logger
	Counters Counters
}

// maxConsecutiveFramingErrors closes a connection after this many
// framing errors in a row, per spec.md §7.
const maxConsecutiveFramingErrors = 2

// RunSplitter drains sp until EOF or a fatal error, decoding and
// re-encoding each frame and enqueuing it on the broker. It returns nil
// on a clean EOF.
func (p *Pipeline) RunSplitter(ctx context.Context, sp framing.Splitter) error {
	consecutiveFramingErrors := 0
	for {
		payload, err := sp.Next()
		if err == io.EOF {
			return nil
		}
		if errors.Is(err, framing.ErrFraming) {
			consecutiveFramingErrors++
			p.Logger.Warn().Err(err).Msg("framing error, dropping frame")
			if consecutiveFramingErrors >= maxConsecutiveFramingErrors {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
		consecutiveFramingErrors = 0

		if err := p.handlePayload(ctx, payload); err != nil {
			return err
		}
	}
}

// HandleDatagram processes a single self-contained payload (UDP, or
// one Redis reliable-queue item) with no Splitter involved.
func (p *Pipeline) HandleDatagram(ctx context.Context, payload []byte) error {
	return p.handlePayload(ctx, payload)
}

func (p *Pipeline) handlePayload(ctx context.Context, payload []byte) error {
	if p.Counters != nil {
		p.Counters.RecordIn()
	}

	rec, err := p.Decoder.Decode(payload)
	if err != nil {
		p.Logger.Warn().Err(err).Msg("decode error, dropping record")
		if p.Counters != nil {
			p.Counters.RecordDropped()
		}
		return nil
	}
	if err := rec.Validate(); err != nil {
		p.Logger.Warn().Err(err).Msg("record failed validation, dropping")
		if p.Counters != nil {
			p.Counters.RecordDropped()
		}
		return nil
	}

	out, err := p.Encoder.Encode(rec)
	if err != nil {
		p.Logger.Warn().Err(err).Msg("encode error, dropping record")
		if p.Counters != nil {
			p.Counters.RecordDropped()
		}
		return nil
	}

	if err := p.Broker.Put(ctx, out); err != nil {
		return err
	}
	if p.Counters != nil {
		p.Counters.RecordOut()
	}
	return nil
}
