package encoder

import (
	"math"

	"capnproto.org/go/capnp/v3"

	"github.com/awslabs/flowgger/internal/record"
)

// CapnpEncoder serializes a Record per spec.md §6, using the same hand-laid
// field offsets documented in internal/decoder/capnp.go so the two sides
// round-trip.
type CapnpEncoder struct {
	opts Options
}

var (
	recordSize = capnp.ObjectSize{DataSize: 16, PointerCount: 9}
	pairSize   = capnp.ObjectSize{DataSize: 16, PointerCount: 2}
)

const (
	pairTagString uint16 = 1
	pairTagBool   uint16 = 2
	pairTagF64    uint16 = 3
	pairTagI64    uint16 = 4
	pairTagU64    uint16 = 5
	pairTagNull   uint16 = 6
)

func (e *CapnpEncoder) Encode(r *record.Record) ([]byte, error) {
	_, seg, err := capnp.NewMessage(capnp.SingleSegment(nil))
	if err != nil {
		return nil, err
	}
	s, err := capnp.NewRootStruct(seg, recordSize)
	if err != nil {
		return nil, err
	}

	s.SetFloat64(0, r.Ts)
	if r.Facility != nil {
		s.SetUint8(8, *r.Facility)
	}
	if r.Severity != nil {
		s.SetUint8(9, *r.Severity)
	}

	if err := setText(s, 1, r.Hostname); err != nil {
		return nil, err
	}
	if err := setText(s, 2, r.Appname); err != nil {
		return nil, err
	}
	if err := setText(s, 3, r.Procid); err != nil {
		return nil, err
	}
	if err := setText(s, 4, r.Msgid); err != nil {
		return nil, err
	}
	if err := setText(s, 5, r.Msg); err != nil {
		return nil, err
	}
	if err := setText(s, 6, r.FullMsg); err != nil {
		return nil, err
	}
	if err := setText(s, 7, r.SdID); err != nil {
		return nil, err
	}

	pairs := mergeExtra(r.Pairs, e.opts.Extra)
	if err := setPairList(s, 8, pairs); err != nil {
		return nil, err
	}

	payload, err := s.Message().Marshal()
	if err != nil {
		return nil, err
	}
	if e.opts.NulTerminate {
		payload = append(payload, 0x00)
	}
	return payload, nil
}

func setText(s capnp.Struct, ptrIndex uint16, v string) error {
	if v == "" {
		return nil
	}
	return s.SetNewText(ptrIndex, v)
}

func setPairList(s capnp.Struct, ptrIndex uint16, pairs []record.Pair) error {
	if len(pairs) == 0 {
		return nil
	}
	list, err := capnp.NewCompositeList(s.Segment(), pairSize, int32(len(pairs)))
	if err != nil {
		return err
	}
	for i, p := range pairs {
		ps := list.Struct(i)
		if err := setText(ps, 0, p.Key); err != nil {
			return err
		}
		if err := setPairValue(ps, p.Value); err != nil {
			return err
		}
	}
	return s.SetPtr(ptrIndex, list.ToPtr())
}

func setPairValue(ps capnp.Struct, v record.Value) error {
	switch v.Kind {
	case record.KindString:
		ps.SetUint16(0, pairTagString)
		return setText(ps, 1, v.Str)
	case record.KindBool:
		ps.SetUint16(0, pairTagBool)
		u := uint64(0)
		if v.Bool {
			u = 1
		}
		ps.SetUint64(8, u)
	case record.KindFloat64:
		ps.SetUint16(0, pairTagF64)
		ps.SetUint64(8, math.Float64bits(v.F64))
	case record.KindInt64:
		ps.SetUint16(0, pairTagI64)
		ps.SetUint64(8, uint64(v.I64))
	case record.KindUint64:
		ps.SetUint16(0, pairTagU64)
		ps.SetUint64(8, v.U64)
	default:
		ps.SetUint16(0, pairTagNull)
	}
	return nil
}
