package encoder

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/awslabs/flowgger/internal/record"
)

// RFC5424Encoder is the inverse of decoder.RFC5424Decoder (spec.md §4.3):
// all pairs become one SD group under SdID (or a default SD-ID if absent);
// values are stringified and escaped.
type RFC5424Encoder struct {
	opts Options
}

const defaultSDID = "flowgger@0"

func (e *RFC5424Encoder) Encode(r *record.Record) ([]byte, error) {
	pri := 0
	if r.Facility != nil {
		pri = int(*r.Facility) * 8
	}
	if r.Severity != nil {
		pri += int(*r.Severity)
	}

	sec := int64(r.Ts)
	nsec := int64((r.Ts - float64(sec)) * 1e9)
	ts := time.Unix(sec, nsec).UTC().Format(time.RFC3339Nano)

	appname := nilOr(r.Appname)
	procid := nilOr(r.Procid)
	msgid := nilOr(r.Msgid)

	var b strings.Builder
	fmt.Fprintf(&b, "<%d>1 %s %s %s %s %s ", pri, ts, r.Hostname, appname, procid, msgid)

	pairs := mergeExtra(r.Pairs, e.opts.Extra)
	if len(pairs) == 0 {
		b.WriteByte('-')
	} else {
		sdID := r.SdID
		if sdID == "" {
			sdID = defaultSDID
		}
		b.WriteByte('[')
		b.WriteString(sdID)
		for _, p := range pairs {
			b.WriteByte(' ')
			b.WriteString(p.Key)
			b.WriteString(`="`)
			b.WriteString(escapeSDValue(valueToString(p.Value)))
			b.WriteByte('"')
		}
		b.WriteByte(']')
	}

	if r.Msg != "" {
		b.WriteByte(' ')
		b.WriteString(r.Msg)
	}

	payload := []byte(b.String())
	if e.opts.NulTerminate {
		payload = append(payload, 0x00)
	}
	return payload, nil
}

func nilOr(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func valueToString(v record.Value) string {
	switch v.Kind {
	case record.KindString:
		return v.Str
	case record.KindBool:
		return strconv.FormatBool(v.Bool)
	case record.KindFloat64:
		return strconv.FormatFloat(v.F64, 'g', -1, 64)
	case record.KindInt64:
		return strconv.FormatInt(v.I64, 10)
	case record.KindUint64:
		return strconv.FormatUint(v.U64, 10)
	default:
		return ""
	}
}

func escapeSDValue(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case ']', '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
