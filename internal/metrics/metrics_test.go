package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrack(t *testing.T) {
	m := New()

	m.Track("complete")(true, nil)
	m.Track("complete")(true, nil)
	m.Track("resolve")(false, nil)
	m.Track("rename")(true, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("complete", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("resolve", OutcomeEmpty)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("rename", OutcomeError)))
	assert.Equal(t, 3, testutil.CollectAndCount(m.requestSeconds))
}

func TestGaugesAndReloads(t *testing.T) {
	m := New()
	m.SetSchemaFiles(4)
	m.SetDocuments(2)
	m.RecordReload("watch", nil)
	m.RecordReload("manual", errors.New("bad schema"))

	assert.Equal(t, 4.0, testutil.ToFloat64(m.schemaFiles))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.documents))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reloadsTotal.WithLabelValues("watch", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reloadsTotal.WithLabelValues("manual", OutcomeError)))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRequest("tree", OutcomeOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `tagsense_workspace_requests_total{op="tree",outcome="ok"} 1`)
	assert.Contains(t, string(body), "tagsense_workspace_request_seconds_bucket")
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.SetSchemaFiles(1)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.schemaFiles))
	assert.NotSame(t, a.Registry(), b.Registry())
}
