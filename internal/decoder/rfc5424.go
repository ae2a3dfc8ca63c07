package decoder

import (
	"bytes"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/awslabs/flowgger/internal/record"
)

// RFC5424Decoder parses
//   PRI VERSION SP TIMESTAMP SP HOSTNAME SP APPNAME SP PROCID SP MSGID SP
//   [STRUCTURED-DATA|NILVALUE] [SP MSG]
// per spec.md §4.2.1.
type RFC5424Decoder struct{}

const nilValue = "-"

func (d *RFC5424Decoder) Decode(payload []byte) (*record.Record, error) {
	p := payload
	if bom := []byte{0xEF, 0xBB, 0xBF}; bytes.HasPrefix(p, bom) {
		p = p[len(bom):]
	}
	if !utf8.Valid(p) {
		return nil, newDecodeError("rfc5424", "invalid UTF-8")
	}
	s := string(p)

	if len(s) == 0 || s[0] != '<' {
		return nil, newDecodeError("rfc5424", "missing PRI")
	}
	end := strings.IndexByte(s, '>')
	if end < 0 {
		return nil, newDecodeError("rfc5424", "unterminated PRI")
	}
	priStr := s[1:end]
	pri, err := strconv.Atoi(priStr)
	if err != nil || pri < 0 || pri > 191 {
		return nil, newDecodeError("rfc5424", "PRI out of range")
	}
	facility := uint8(pri / 8)
	severity := uint8(pri % 8)

	rest := s[end+1:]

	// VERSION follows PRI directly, with no SP in between.
	sp := strings.IndexByte(rest, ' ')
	if sp <= 0 {
		return nil, newDecodeError("rfc5424", "missing VERSION")
	}
	rest = rest[sp:]

	// TIMESTAMP
	tsField, rest, ok := splitField(rest)
	if !ok {
		return nil, newDecodeError("rfc5424", "missing TIMESTAMP")
	}
	var ts float64
	if tsField != nilValue {
		t, err := time.Parse(time.RFC3339Nano, tsField)
		if err != nil {
			return nil, newDecodeError("rfc5424", "malformed TIMESTAMP: "+err.Error())
		}
		ts = float64(t.UnixNano()) / 1e9
	}

	hostname, rest, ok := splitField(rest)
	if !ok || hostname == "" || hostname == nilValue {
		return nil, newDecodeError("rfc5424", "missing HOSTNAME")
	}

	appname, rest, ok := splitField(rest)
	if !ok {
		return nil, newDecodeError("rfc5424", "missing APPNAME")
	}
	if appname == nilValue {
		appname = ""
	}

	procid, rest, ok := splitField(rest)
	if !ok {
		return nil, newDecodeError("rfc5424", "missing PROCID")
	}
	if procid == nilValue {
		procid = ""
	}

	msgid, rest, ok := splitField(rest)
	if !ok {
		return nil, newDecodeError("rfc5424", "missing MSGID")
	}
	if msgid == nilValue {
		msgid = ""
	}

	sdID, pairs, rest, err := parseStructuredData(rest)
	if err != nil {
		return nil, err
	}

	msg := strings.TrimPrefix(rest, " ")

	r := &record.Record{
		Ts:       ts,
		Hostname: hostname,
		Facility: record.U8(facility),
		Severity: record.U8(severity),
		Appname:  appname,
		Procid:   procid,
		Msgid:    msgid,
		Msg:      msg,
		SdID:     sdID,
		Pairs:    pairs,
	}
	if err := r.Validate(); err != nil {
		return nil, newDecodeError("rfc5424", err.Error())
	}
	return r, nil
}

// splitField consumes up to the next SP, returning the field and the
// remainder. ok is false if rest was already exhausted.
func splitField(rest string) (field, remainder string, ok bool) {
	if rest == "" {
		return "", "", false
	}
	if rest[0] != ' ' {
		return "", "", false
	}
	rest = rest[1:]
	i := strings.IndexByte(rest, ' ')
	if i < 0 {
		return rest, "", true
	}
	return rest[:i], rest[i:], true
}

// parseStructuredData parses zero or more bracketed SD groups:
// "[SD-ID key=\"value\" key=\"value\"][SD-ID2 ...]..." (groups adjacent, with
// no SP between them) or the NILVALUE "-".
// The first SD-ID populates sdID; every key/value across every group
// populates pairs, in order, duplicates preserved (spec.md §9).
func parseStructuredData(rest string) (sdID string, pairs []record.Pair, remainder string, err error) {
	if rest == "" {
		return "", nil, "", nil
	}
	if rest[0] != ' ' {
		return "", nil, rest, nil
	}
	rest = rest[1:]
	if strings.HasPrefix(rest, nilValue) {
		return "", nil, rest[len(nilValue):], nil
	}

	first := true
	for len(rest) > 0 && rest[0] == '[' {
		rest = rest[1:]
		i := strings.IndexAny(rest, " ]")
		if i < 0 {
			return "", nil, "", newDecodeError("rfc5424", "unterminated structured data")
		}
		id := rest[:i]
		rest = rest[i:]
		if first {
			sdID = id
			first = false
		}

		for len(rest) > 0 && rest[0] == ' ' {
			rest = rest[1:]
			eq := strings.IndexByte(rest, '=')
			if eq < 0 {
				return "", nil, "", newDecodeError("rfc5424", "malformed SD-PARAM")
			}
			key := rest[:eq]
			rest = rest[eq+1:]
			if len(rest) == 0 || rest[0] != '"' {
				return "", nil, "", newDecodeError("rfc5424", "SD-PARAM value must be quoted")
			}
			rest = rest[1:]
			val, remAfterVal, uerr := unescapeSDValue(rest)
			if uerr != nil {
				return "", nil, "", uerr
			}
			pairs = append(pairs, record.Pair{Key: key, Value: record.StringValue(val)})
			rest = remAfterVal
		}
		if len(rest) == 0 || rest[0] != ']' {
			return "", nil, "", newDecodeError("rfc5424", "unterminated structured data group")
		}
		rest = rest[1:]
	}
	return sdID, pairs, rest, nil
}

// unescapeSDValue reads a quoted SD-PARAM value starting just after the
// opening quote, un-escaping \], \", \\, and returns the value plus the
// remainder starting just after the closing quote.
func unescapeSDValue(s string) (string, string, error) {
	var b strings.Builder
	i := 0
	for i < len(s) {
		c := s[i]
		if c == '\\' {
			if i+1 >= len(s) {
				return "", "", newDecodeError("rfc5424", "dangling escape in SD-PARAM value")
			}
			next := s[i+1]
			switch next {
			case ']', '"', '\\':
				b.WriteByte(next)
				i += 2
				continue
			default:
				return "", "", newDecodeError("rfc5424", "invalid escape in SD-PARAM value")
			}
		}
		if c == '"' {
			return b.String(), s[i+1:], nil
		}
		b.WriteByte(c)
		i++
	}
	return "", "", newDecodeError("rfc5424", "unterminated SD-PARAM value")
}
