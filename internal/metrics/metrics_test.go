package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordBook(t *testing.T) {
	before := testutil.ToFloat64(BooksProcessed.WithLabelValues("merged"))
	RecordBook("merged")
	RecordBook("merged")
	assert.Equal(t, before+2, testutil.ToFloat64(BooksProcessed.WithLabelValues("merged")))
}

func TestRecordRemoteRequest(t *testing.T) {
	before := testutil.ToFloat64(RemoteRequests.WithLabelValues("rate_limited"))
	RecordRemoteRequest("rate_limited", 20*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(RemoteRequests.WithLabelValues("rate_limited")))
}

func TestRecordSyncRun(t *testing.T) {
	before := testutil.ToFloat64(SyncRuns.WithLabelValues("PARTIAL"))
	RecordSyncRun("PARTIAL", time.Second, time.Time{})
	assert.Equal(t, before+1, testutil.ToFloat64(SyncRuns.WithLabelValues("PARTIAL")))

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	RecordSyncRun("COMPLETED", time.Second, at)
	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(LastSuccessfulSync))
}
