package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ShiftWrite("create", ResultOK)
	m.ShiftWrite("create", ResultOK)
	m.ShiftWrite("create", ResultFailed)
	m.Snapshot(4)
	m.SnapshotError()
	m.ConflictedSlots(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.shiftWrites.WithLabelValues("create", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.shiftWrites.WithLabelValues("create", ResultFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.snapshots))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.snapshotShifts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.snapshotErrors))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.conflictedSlots))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ShiftWrite("delete", ResultOK)
		m.Snapshot(1)
		m.SnapshotError()
		m.ConflictedSlots(3)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ShiftWrite("update", ResultRejected)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `point_rota_shift_writes_total{op="update",result="rejected"} 1`)
}
