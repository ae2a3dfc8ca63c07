package sink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNATSConn struct {
	published [][]byte
	subjects  []string
	flushed   int
	closed    bool
}

func (f *fakeNATSConn) Publish(subj string, data []byte) error {
	f.subjects = append(f.subjects, subj)
	f.published = append(f.published, append([]byte(nil), data...))
	return nil
}

func (f *fakeNATSConn) Flush() error {
	f.flushed++
	return nil
}

func (f *fakeNATSConn) Close() { f.closed = true }

func TestNATSSink_PublishesOnePayloadPerSend(t *testing.T) {
	conn := &fakeNATSConn{}
	n := &NATS{opts: NATSOptions{Subject: "logs.app"}, conn: conn}

	require.NoError(t, n.Send(context.Background(), []byte("one")))
	require.NoError(t, n.Send(context.Background(), []byte("two")))

	assert.Equal(t, [][]byte{[]byte("one"), []byte("two")}, conn.published)
	assert.Equal(t, []string{"logs.app", "logs.app"}, conn.subjects)
}

func TestNATSSink_FlushAndClose(t *testing.T) {
	conn := &fakeNATSConn{}
	n := &NATS{opts: NATSOptions{Subject: "logs.app"}, conn: conn}

	require.NoError(t, n.Flush(context.Background()))
	assert.Equal(t, 1, conn.flushed)

	require.NoError(t, n.Close())
	assert.True(t, conn.closed)
}
