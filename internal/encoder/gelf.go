package encoder

import (
	"encoding/json"
	"strconv"

	"github.com/awslabs/flowgger/internal/record"
)

// GELFEncoder emits the inverse mapping of decoder.GELFDecoder (spec.md
// §4.3). Structured pairs become "_<key>"; a collision (duplicate key,
// preserved from the Record per spec.md §9) is disambiguated with a
// numeric suffix rather than silently overwritten.
type GELFEncoder struct {
	opts Options
}

func (e *GELFEncoder) Encode(r *record.Record) ([]byte, error) {
	obj := map[string]interface{}{
		"version":       "1.1",
		"host":          r.Hostname,
		"short_message": r.Msg,
		"timestamp":     r.Ts,
	}
	if r.FullMsg != "" {
		obj["full_message"] = r.FullMsg
	}
	if r.Severity != nil {
		obj["level"] = *r.Severity
	}

	seen := map[string]int{}
	for _, p := range mergeExtra(r.Pairs, e.opts.Extra) {
		name := "_" + p.Key
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = name + "_" + strconv.Itoa(n+1)
		} else {
			seen[name] = 0
		}
		obj[name] = valueToJSON(p.Value)
	}

	payload, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	if e.opts.NulTerminate {
		payload = append(payload, 0x00)
	}
	return payload, nil
}

func valueToJSON(v record.Value) interface{} {
	switch v.Kind {
	case record.KindString:
		return v.Str
	case record.KindBool:
		return v.Bool
	case record.KindFloat64:
		return v.F64
	case record.KindInt64:
		return v.I64
	case record.KindUint64:
		return v.U64
	default:
		return nil
	}
}
