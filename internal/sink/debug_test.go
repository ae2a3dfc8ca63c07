package sink

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebugSink_NewlineTerminatesEachPayload(t *testing.T) {
	var buf bytes.Buffer
	d := NewDebug(DebugOptions{Writer: &buf})

	require.NoError(t, d.Send(context.Background(), []byte("one")))
	require.NoError(t, d.Send(context.Background(), []byte("two")))

	assert.Equal(t, "one\ntwo\n", buf.String())
}
