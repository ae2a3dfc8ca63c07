package decoder

import (
	"math"

	"capnproto.org/go/capnp/v3"

	"github.com/awslabs/flowgger/internal/record"
)

// Cap'n Proto wire layout for the Record/Pair structs in spec.md §6. Written
// directly against the capnp library's low-level Struct API rather than
// capnpc-go-generated accessors, since no .capnp schema compiler runs in
// this build; internal/encoder's CapnpEncoder lays out fields identically so
// the two sides round-trip.
//
// Record data section (2 words): ts float64 @byte0, facility uint8 @byte8,
// severity uint8 @byte9. Pointer section (9 pointers): pointer 0 is left
// unset; hostname, appname, procid, msgid, msg, fullMsg, sdId and pairs
// occupy pointers 1-8 in that order. The schema's extra list is neither
// written nor read.
//
// Pair data section (2 words): discriminant uint16 @byte0 selects which
// union member byte8 holds (string uses the pointer section instead).
// Pointer section (2 pointers): pointer 0 holds the key text; pointer 1
// holds the string member when the discriminant selects it.
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

// CapnpDecoder decodes a single Record struct per spec.md §6.
type CapnpDecoder struct{}

func (d *CapnpDecoder) Decode(payload []byte) (*record.Record, error) {
	msg, err := capnp.Unmarshal(payload)
	if err != nil {
		return nil, newDecodeError("capnp", "invalid message: "+err.Error())
	}
	root, err := msg.RootPtr()
	if err != nil {
		return nil, newDecodeError("capnp", "missing root: "+err.Error())
	}
	s := root.Struct()

	r := &record.Record{
		Ts:       s.Float64(0),
		Facility: record.U8(s.Uint8(8)),
		Severity: record.U8(s.Uint8(9)),
	}

	hostname, err := structText(s, 1)
	if err != nil {
		return nil, err
	}
	r.Hostname = hostname

	if r.Appname, err = structText(s, 2); err != nil {
		return nil, err
	}
	if r.Procid, err = structText(s, 3); err != nil {
		return nil, err
	}
	if r.Msgid, err = structText(s, 4); err != nil {
		return nil, err
	}
	if r.Msg, err = structText(s, 5); err != nil {
		return nil, err
	}
	if r.FullMsg, err = structText(s, 6); err != nil {
		return nil, err
	}
	if r.SdID, err = structText(s, 7); err != nil {
		return nil, err
	}

	pairs, err := decodePairList(s, 8)
	if err != nil {
		return nil, err
	}
	r.Pairs = pairs

	if err := r.Validate(); err != nil {
		return nil, newDecodeError("capnp", err.Error())
	}
	return r, nil
}

func structText(s capnp.Struct, ptrIndex uint16) (string, error) {
	p, err := s.Ptr(ptrIndex)
	if err != nil {
		return "", newDecodeError("capnp", "reading text pointer")
	}
	return p.TextDefault(""), nil
}

func decodePairList(s capnp.Struct, ptrIndex uint16) ([]record.Pair, error) {
	p, err := s.Ptr(ptrIndex)
	if err != nil {
		return nil, newDecodeError("capnp", "reading pairs pointer")
	}
	if !p.IsValid() {
		return nil, nil
	}
	list := p.List()
	n := list.Len()
	pairs := make([]record.Pair, 0, n)
	for i := 0; i < n; i++ {
		ps := list.Struct(i)
		key, err := structText(ps, 0)
		if err != nil {
			return nil, err
		}
		if key == "" {
			return nil, newDecodeError("capnp", "pair key must be non-empty")
		}
		v, err := decodePairValue(ps)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, record.Pair{Key: key, Value: v})
	}
	return pairs, nil
}

func decodePairValue(ps capnp.Struct) (record.Value, error) {
	switch ps.Uint16(0) {
	case pairTagString:
		s, err := structText(ps, 1)
		if err != nil {
			return record.Value{}, err
		}
		return record.StringValue(s), nil
	case pairTagBool:
		return record.BoolValue(ps.Uint64(8) != 0), nil
	case pairTagF64:
		return record.Float64Value(math.Float64frombits(ps.Uint64(8))), nil
	case pairTagI64:
		return record.Int64Value(int64(ps.Uint64(8))), nil
	case pairTagU64:
		return record.Uint64Value(ps.Uint64(8)), nil
	case pairTagNull:
		return record.NullValue(), nil
	default:
		return record.Value{}, newDecodeError("capnp", "unknown pair value discriminant")
	}
}
