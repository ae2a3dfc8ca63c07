package decoder

import (
	"strconv"
	"strings"
	"time"

	"github.com/awslabs/flowgger/internal/record"
)

// LTSVDecoder parses tab-separated "key:value" fields per spec.md §4.2.3.
// An optional Schema coerces named fields to a declared scalar type, and an
// optional suffix map rewrites property names so typed sinks can see a
// stable key->type relation.
type LTSVDecoder struct {
	schema Schema
}

func NewLTSVDecoder(schema Schema) *LTSVDecoder {
	return &LTSVDecoder{schema: schema}
}

var ltsvDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"[02/Jan/2006:15:04:05 -0700]",
}

func (d *LTSVDecoder) Decode(payload []byte) (*record.Record, error) {
	fields := strings.Split(string(payload), "\t")

	var (
		r         record.Record
		sawTime   bool
		sawHost   bool
	)

	for _, field := range fields {
		idx := strings.IndexByte(field, ':')
		if idx < 0 {
			continue
		}
		key := field[:idx]
		val := field[idx+1:]

		switch key {
		case "time":
			ts, err := parseLTSVTime(val)
			if err != nil {
				return nil, newDecodeError("ltsv", "malformed time: "+err.Error())
			}
			r.Ts = ts
			sawTime = true
		case "host":
			r.Hostname = val
			sawHost = true
		case "message":
			r.Msg = val
		case "level":
			sev, err := strconv.ParseUint(val, 10, 8)
			if err != nil {
				return nil, newDecodeError("ltsv", "malformed level: "+err.Error())
			}
			r.Severity = record.U8(uint8(sev))
		default:
			v, err := d.coerce(key, val)
			if err != nil {
				return nil, err
			}
			name := d.rewriteKey(key)
			r.Add(name, v)
		}
	}

	if !sawTime {
		return nil, newDecodeError("ltsv", "missing required field time")
	}
	if !sawHost {
		return nil, newDecodeError("ltsv", "missing required field host")
	}

	if err := r.Validate(); err != nil {
		return nil, newDecodeError("ltsv", err.Error())
	}
	return &r, nil
}

func parseLTSVTime(val string) (float64, error) {
	var lastErr error
	for _, layout := range ltsvDateLayouts {
		t, err := time.Parse(layout, val)
		if err == nil {
			return float64(t.UnixNano()) / 1e9, nil
		}
		lastErr = err
	}
	return 0, lastErr
}

// coerce converts val to the schema-declared type for key, defaulting to a
// string value when no schema entry exists.
func (d *LTSVDecoder) coerce(key, val string) (record.Value, error) {
	if d.schema.Types == nil {
		return record.StringValue(val), nil
	}
	t, ok := d.schema.Types[key]
	if !ok {
		return record.StringValue(val), nil
	}
	switch t {
	case TypeString:
		return record.StringValue(val), nil
	case TypeBool:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return record.Value{}, newDecodeError("ltsv", "field "+key+" is not a bool: "+err.Error())
		}
		return record.BoolValue(b), nil
	case TypeF64:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return record.Value{}, newDecodeError("ltsv", "field "+key+" is not an f64: "+err.Error())
		}
		return record.Float64Value(f), nil
	case TypeI64:
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return record.Value{}, newDecodeError("ltsv", "field "+key+" is not an i64: "+err.Error())
		}
		return record.Int64Value(i), nil
	case TypeU64:
		u, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return record.Value{}, newDecodeError("ltsv", "field "+key+" is not a u64: "+err.Error())
		}
		return record.Uint64Value(u), nil
	default:
		return record.StringValue(val), nil
	}
}

// rewriteKey appends the schema's configured suffix for key's declared type
// if the key doesn't already carry it (spec.md §4.2.3, scenario 3).
func (d *LTSVDecoder) rewriteKey(key string) string {
	if d.schema.Types == nil || d.schema.Suffixes == nil {
		return key
	}
	t, ok := d.schema.Types[key]
	if !ok {
		return key
	}
	suffix, ok := d.schema.Suffixes[t]
	if !ok || suffix == "" {
		return key
	}
	if strings.HasSuffix(key, suffix) {
		return key
	}
	return key + suffix
}
