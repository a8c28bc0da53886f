package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectors(t *testing.T) {
	before := testutil.ToFloat64(EntriesDropped.WithLabelValues(ReasonBlocked))
	EntriesDropped.WithLabelValues(ReasonBlocked).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(EntriesDropped.WithLabelValues(ReasonBlocked)))

	Words.Set(42)
	assert.Equal(t, float64(42), testutil.ToFloat64(Words))
}

func TestHandler(t *testing.T) {
	RegisterBuffer(func() float64 { return 3 }, func() float64 { return 8 })

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "purifygate_buffer_usage 3"), body)
	assert.True(t, strings.Contains(body, "purifygate_buffer_capacity 8"), body)
	assert.Contains(t, body, "purifygate_banned_words")
}
