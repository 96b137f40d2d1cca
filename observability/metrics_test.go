package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestQuoteMetricsCount(t *testing.T) {
	m := Quotes()
	if m != Quotes() {
		t.Fatalf("expected a single registry")
	}
	before := testutil.ToFloat64(m.quotes.WithLabelValues("success"))
	m.RecordOutcome("success")
	if got := testutil.ToFloat64(m.quotes.WithLabelValues("success")); got != before+1 {
		t.Fatalf("expected success counter to increase, got %v", got)
	}

	beforeUnknown := testutil.ToFloat64(m.quotes.WithLabelValues("unknown"))
	m.RecordOutcome(" ")
	if got := testutil.ToFloat64(m.quotes.WithLabelValues("unknown")); got != beforeUnknown+1 {
		t.Fatalf("blank outcome should map to unknown")
	}

	beforeRecovered := testutil.ToFloat64(m.recoveries.WithLabelValues("recovered"))
	m.RecordCapacityRecovery(true)
	if got := testutil.ToFloat64(m.recoveries.WithLabelValues("recovered")); got != beforeRecovered+1 {
		t.Fatalf("expected recovery counter to increase")
	}
	m.ObserveStage("FetchingQuote", 10*time.Millisecond)
	m.RecordUpload(false)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var q *QuoteMetrics
	q.RecordOutcome("success")
	q.ObserveStage("x", time.Second)
	q.RecordCapacityRecovery(false)
	q.RecordUpload(true)

	var s *SwapMetrics
	s.Record("spot", nil)
}

func TestSwapMetricsOutcome(t *testing.T) {
	m := Swaps()
	before := testutil.ToFloat64(m.calculations.WithLabelValues("spot", "error"))
	m.Record("spot", errors.New("boom"))
	if got := testutil.ToFloat64(m.calculations.WithLabelValues("spot", "error")); got != before+1 {
		t.Fatalf("expected error counter to increase")
	}
}
