package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_CountsByCodeAndMethod(t *testing.T) {
	m := New()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("200", "POST")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("405", "GET")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inflight))
}

func TestHandler_Exposition(t *testing.T) {
	m := New()
	up := NewUploadMetrics(m.Registry())
	up.ObserveUpload("ok", 2048)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `picbed_upload_requests_total{result="ok"} 1`), body)
	assert.Contains(t, body, "picbed_upload_object_bytes_count 1")
}

func TestUploadMetrics(t *testing.T) {
	m := New()
	up := NewUploadMetrics(m.Registry())

	up.ObserveUpload("ok", 100)
	up.ObserveUpload("bad_request", 0)
	up.ObserveUpload("bad_request", 0)
	up.ObserveUpload("error", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(up.results.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(up.results.WithLabelValues("bad_request")))
	assert.Equal(t, 1.0, testutil.ToFloat64(up.results.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(up.sizes))
}

func TestStorageMetrics(t *testing.T) {
	m := New()
	sm := NewStorageMetrics(m.Registry())

	sm.Observe("put", 10, nil, time.Millisecond)
	sm.Observe("put", 5, errors.New("boom"), time.Millisecond)

	assert.Equal(t, 10.0, testutil.ToFloat64(sm.bytes.WithLabelValues("put")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sm.ops.WithLabelValues("put", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sm.ops.WithLabelValues("put", "error")))
}
