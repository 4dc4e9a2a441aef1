package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordApplied(t *testing.T) {
	initial := testutil.ToFloat64(EventsApplied.WithLabelValues("Transfer"))

	RecordApplied("Transfer", 1234)

	assert.Equal(t, initial+1, testutil.ToFloat64(EventsApplied.WithLabelValues("Transfer")))
	assert.Equal(t, float64(1234), testutil.ToFloat64(LastAppliedBlock))
}

func TestRecordNegativeBalance(t *testing.T) {
	initial := testutil.ToFloat64(NegativeBalances.WithLabelValues("token"))

	RecordNegativeBalance("token")

	assert.Equal(t, initial+1, testutil.ToFloat64(NegativeBalances.WithLabelValues("token")))
}
