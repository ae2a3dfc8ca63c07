package encoder

import (
	"strings"
	"time"

	"github.com/awslabs/flowgger/internal/record"
)

// LTSVEncoder emits "time:<rfc3339>\thost:<hostname>", then "message:<msg>"
// and "level:<severity>" when those are set, then one "k:v" per pair, per
// spec.md §4.3, tab-separated with no trailing tab.
type LTSVEncoder struct {
	opts Options
}

func (e *LTSVEncoder) Encode(r *record.Record) ([]byte, error) {
	sec := int64(r.Ts)
	nsec := int64((r.Ts - float64(sec)) * 1e9)
	ts := time.Unix(sec, nsec).UTC().Format(time.RFC3339Nano)

	var b strings.Builder
	b.WriteString("time:")
	b.WriteString(ts)
	b.WriteString("\thost:")
	b.WriteString(r.Hostname)

	if r.Msg != "" {
		b.WriteString("\tmessage:")
		b.WriteString(r.Msg)
	}
	if r.Severity != nil {
		b.WriteString("\tlevel:")
		b.WriteString(valueToString(record.Uint64Value(uint64(*r.Severity))))
	}

	for _, p := range mergeExtra(r.Pairs, e.opts.Extra) {
		b.WriteByte('\t')
		b.WriteString(p.Key)
		b.WriteByte(':')
		b.WriteString(valueToString(p.Value))
	}

	payload := []byte(b.String())
	if e.opts.NulTerminate {
		payload = append(payload, 0x00)
	}
	return payload, nil
}
