package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesStructuredJSONWithComponentField(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "flowgger")

	logger.Info().Str("sink", "kafka").Msg("started")

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fields))
	assert.Equal(t, "flowgger", fields["component"])
	assert.Equal(t, "kafka", fields["sink"])
	assert.Equal(t, "started", fields["message"])
}

func TestNew_DefaultsToStderrWhenWriterNil(t *testing.T) {
	logger := New(nil, "flowgger")
	assert.NotPanics(t, func() {
		logger.Info().Msg("noop")
	})
}
