package health

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueueDepther struct {
	len, cap int
}

func (f fakeQueueDepther) Len() int { return f.len }
func (f fakeQueueDepther) Cap() int { return f.cap }

func TestMonitor_SnapshotReflectsCounters(t *testing.T) {
	m := NewMonitor(fakeQueueDepther{len: 3, cap: 10}, zerolog.Nop())

	m.RecordIn()
	m.RecordIn()
	m.RecordOut()
	m.RecordDropped()
	m.SinkError()
	m.SinkError()

	s := m.Snapshot()
	assert.Equal(t, int64(2), s.RecordsIn)
	assert.Equal(t, int64(1), s.RecordsOut)
	assert.Equal(t, int64(1), s.RecordsDropped)
	assert.Equal(t, int64(2), s.SinkErrors)
	assert.Equal(t, int64(3), s.QueueDepth)
	assert.Equal(t, int64(10), s.QueueCapacity)
}

func TestMonitor_SnapshotWithNilBroker(t *testing.T) {
	m := NewMonitor(nil, zerolog.Nop())
	s := m.Snapshot()
	assert.Equal(t, int64(0), s.QueueDepth)
	assert.Equal(t, int64(0), s.QueueCapacity)
}

func TestMonitor_HandlerServesJSONSnapshot(t *testing.T) {
	m := NewMonitor(fakeQueueDepther{len: 1, cap: 5}, zerolog.Nop())
	m.RecordIn()

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var got Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(1), got.RecordsIn)
	assert.Equal(t, int64(1), got.QueueDepth)
	assert.Equal(t, int64(5), got.QueueCapacity)
}
