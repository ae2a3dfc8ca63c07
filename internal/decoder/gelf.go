package decoder

import (
	"encoding/json"
	"strings"

	"github.com/awslabs/flowgger/internal/record"
)

// GELFDecoder parses a GELF JSON payload per spec.md §4.2.2. Any property
// whose key begins with "_" becomes a structured pair; number scalars are
// narrowed into i64 or f64 depending on whether the JSON literal carried a
// fractional part or exponent, mirroring the duck-typed-JSON-to-typed-value
// narrowing spec.md §9 calls for.
type GELFDecoder struct{}

func (d *GELFDecoder) Decode(payload []byte) (*record.Record, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, newDecodeError("gelf", "invalid JSON: "+err.Error())
	}

	version, err := requiredString(raw, "version")
	if err != nil {
		return nil, err
	}
	if version != "1.0" && version != "1.1" {
		return nil, newDecodeError("gelf", "unsupported version "+version)
	}

	host, err := requiredString(raw, "host")
	if err != nil {
		return nil, err
	}
	shortMsg, err := requiredString(raw, "short_message")
	if err != nil {
		return nil, err
	}
	tsRaw, ok := raw["timestamp"]
	if !ok {
		return nil, newDecodeError("gelf", "missing required property timestamp")
	}
	var ts float64
	if err := json.Unmarshal(tsRaw, &ts); err != nil {
		return nil, newDecodeError("gelf", "timestamp must be a number")
	}

	r := &record.Record{
		Ts:       ts,
		Hostname: host,
		Msg:      shortMsg,
	}

	if fm, ok := raw["full_message"]; ok {
		var s string
		if err := json.Unmarshal(fm, &s); err == nil {
			r.FullMsg = s
		}
	}
	if lvl, ok := raw["level"]; ok {
		var n float64
		if err := json.Unmarshal(lvl, &n); err == nil && n >= 0 && n <= 7 {
			sev := uint8(n)
			r.Severity = &sev
		}
	}

	for key, raw := range raw {
		if !strings.HasPrefix(key, "_") || len(key) == 1 {
			continue
		}
		name := key[1:]
		v, err := jsonToValue(raw)
		if err != nil {
			return nil, newDecodeError("gelf", "property "+key+": "+err.Error())
		}
		r.Add(name, v)
	}

	if err := r.Validate(); err != nil {
		return nil, newDecodeError("gelf", err.Error())
	}
	return r, nil
}

func requiredString(raw map[string]json.RawMessage, key string) (string, error) {
	v, ok := raw[key]
	if !ok {
		return "", newDecodeError("gelf", "missing required property "+key)
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", newDecodeError("gelf", key+" must be a string")
	}
	return s, nil
}

// jsonToValue narrows a raw JSON scalar into a record.Value: strings and
// bools map directly, null maps to KindNull, and numbers split on whether
// the literal looks fractional/exponential (f64) or a plain integer (i64).
func jsonToValue(raw json.RawMessage) (record.Value, error) {
	trimmed := strings.TrimSpace(string(raw))
	switch {
	case trimmed == "null":
		return record.NullValue(), nil
	case trimmed == "true":
		return record.BoolValue(true), nil
	case trimmed == "false":
		return record.BoolValue(false), nil
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return record.Value{}, err
		}
		return record.StringValue(s), nil
	default:
		if strings.ContainsAny(trimmed, ".eE") {
			var f float64
			if err := json.Unmarshal(raw, &f); err != nil {
				return record.Value{}, err
			}
			return record.Float64Value(f), nil
		}
		var i int64
		if err := json.Unmarshal(raw, &i); err != nil {
			var f float64
			if ferr := json.Unmarshal(raw, &f); ferr != nil {
				return record.Value{}, err
			}
			return record.Float64Value(f), nil
		}
		return record.Int64Value(i), nil
	}
}
