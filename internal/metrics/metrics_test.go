package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/v1/public/menu/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"1", "2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/public/menu/"+id, nil))
	}

	got := testutil.ToFloat64(m.httpRequests.WithLabelValues(http.MethodGet, "/v1/public/menu/{id}", "404"))
	assert.Equal(t, 2.0, got)
}

func TestRecordDigestAndJobs(t *testing.T) {
	m := New()
	m.RecordDigest(3, 1)
	m.RecordJobRun("digest", time.Second, errors.New("boom"))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.digestSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.digestFailed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobErrors.WithLabelValues("digest")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "digest_emails_sent_total 3"))
}
