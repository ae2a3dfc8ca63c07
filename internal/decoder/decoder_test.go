package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awslabs/flowgger/internal/record"
)

func TestRFC5424Decode_Scenario(t *testing.T) {
	input := `<23>1 2015-08-05T15:53:45.637824Z testhostname appname 69 42 [origin@123 software="test script" swVersion="0.0.1"] test message`
	d := &RFC5424Decoder{}
	r, err := d.Decode([]byte(input))
	require.NoError(t, err)

	assert.InDelta(t, 1438790025.637824, r.Ts, 1e-6)
	assert.Equal(t, "testhostname", r.Hostname)
	require.NotNil(t, r.Facility)
	assert.EqualValues(t, 2, *r.Facility)
	require.NotNil(t, r.Severity)
	assert.EqualValues(t, 7, *r.Severity)
	assert.Equal(t, "appname", r.Appname)
	assert.Equal(t, "69", r.Procid)
	assert.Equal(t, "42", r.Msgid)
	assert.Equal(t, "test message", r.Msg)
	assert.Equal(t, "origin@123", r.SdID)
	require.Len(t, r.Pairs, 2)
	assert.Equal(t, "software", r.Pairs[0].Key)
	assert.Equal(t, "test script", r.Pairs[0].Value.Str)
	assert.Equal(t, "swVersion", r.Pairs[1].Key)
	assert.Equal(t, "0.0.1", r.Pairs[1].Value.Str)
}

func TestRFC5424Decode_NilStructuredData(t *testing.T) {
	d := &RFC5424Decoder{}
	r, err := d.Decode([]byte(`<14>1 2023-01-01T00:00:00Z host app 1 msgid1 - hello`))
	require.NoError(t, err)
	assert.Empty(t, r.Pairs)
	assert.Equal(t, "hello", r.Msg)
}

func TestRFC5424Decode_EscapedValues(t *testing.T) {
	d := &RFC5424Decoder{}
	input := `<14>1 2023-01-01T00:00:00Z host app 1 msgid1 [id key="a\]b\"c\\d"] msg`
	r, err := d.Decode([]byte(input))
	require.NoError(t, err)
	require.Len(t, r.Pairs, 1)
	assert.Equal(t, `a]b"c\d`, r.Pairs[0].Value.Str)
}

func TestGELFDecode_Scenario(t *testing.T) {
	input := `{"version":"1.1","host":"example.org","short_message":"hi","timestamp":1385053862.3072,"level":1,"_user_id":9001}`
	d := &GELFDecoder{}
	r, err := d.Decode([]byte(input))
	require.NoError(t, err)

	assert.Equal(t, 1385053862.3072, r.Ts)
	assert.Equal(t, "example.org", r.Hostname)
	assert.Equal(t, "hi", r.Msg)
	require.NotNil(t, r.Severity)
	assert.EqualValues(t, 1, *r.Severity)
	require.Len(t, r.Pairs, 1)
	assert.Equal(t, "user_id", r.Pairs[0].Key)
	assert.Equal(t, record.KindInt64, r.Pairs[0].Value.Kind)
	assert.EqualValues(t, 9001, r.Pairs[0].Value.I64)
}

func TestGELFDecode_MissingRequiredField(t *testing.T) {
	d := &GELFDecoder{}
	_, err := d.Decode([]byte(`{"version":"1.1","host":"h"}`))
	assert.Error(t, err)
}

func TestGELFDecode_RejectsBadVersion(t *testing.T) {
	d := &GELFDecoder{}
	_, err := d.Decode([]byte(`{"version":"2.0","host":"h","short_message":"m","timestamp":1}`))
	assert.Error(t, err)
}

func TestLTSVDecode_SchemaAndSuffix(t *testing.T) {
	schema := Schema{
		Types:    map[string]ValueType{"counter": TypeU64},
		Suffixes: map[ValueType]string{TypeU64: "_long"},
	}
	d := NewLTSVDecoder(schema)
	input := "time:2015-10-10T13:55:36-07:00\thost:127.0.0.1\tcounter:42"
	r, err := d.Decode([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", r.Hostname)
	require.Len(t, r.Pairs, 1)
	assert.Equal(t, "counter_long", r.Pairs[0].Key)
	assert.Equal(t, record.KindUint64, r.Pairs[0].Value.Kind)
	assert.EqualValues(t, 42, r.Pairs[0].Value.U64)
}

func TestLTSVDecode_MissingTimeOrHostFails(t *testing.T) {
	d := NewLTSVDecoder(Schema{})
	_, err := d.Decode([]byte("host:127.0.0.1\tmessage:hi"))
	assert.Error(t, err)
	_, err = d.Decode([]byte("time:2015-10-10T13:55:36-07:00\tmessage:hi"))
	assert.Error(t, err)
}

func TestLTSVDecode_CoercionFailureFailsRecord(t *testing.T) {
	schema := Schema{Types: map[string]ValueType{"counter": TypeU64}}
	d := NewLTSVDecoder(schema)
	_, err := d.Decode([]byte("time:2015-10-10T13:55:36-07:00\thost:h\tcounter:notanumber"))
	assert.Error(t, err)
}
