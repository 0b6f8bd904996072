package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorders_BeforeInitAreNoop(t *testing.T) {
	if aggregateMutations != nil {
		t.Skip("指标已被其他测试初始化")
	}
	RecordMutation("update", "success")
	RecordConflictRetry("update")
	ObserveHTTP("/x", "GET", 200, time.Millisecond)
}

func TestRecordMutation(t *testing.T) {
	Init()
	Init()

	before := testutil.ToFloat64(aggregateMutations.WithLabelValues("update", "duplicate_serial"))
	RecordMutation("update", "duplicate_serial")
	after := testutil.ToFloat64(aggregateMutations.WithLabelValues("update", "duplicate_serial"))

	if after-before != 1 {
		t.Errorf("expected counter +1, got %v", after-before)
	}
}

func TestRecordConflictRetry(t *testing.T) {
	Init()

	before := testutil.ToFloat64(conflictRetries.WithLabelValues("update"))
	RecordConflictRetry("update")
	if got := testutil.ToFloat64(conflictRetries.WithLabelValues("update")); got-before != 1 {
		t.Errorf("expected counter +1, got %v", got-before)
	}
}
