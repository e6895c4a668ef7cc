package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nasermirzaei89/bazaar/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	t.Parallel()

	m := metrics.New()

	m.VoteCast("post", "up")
	m.VoteCast("post", "up")
	m.ReportFiled("comment")
	m.ModerationAction("delete_item", "action_taken")
	m.Compensation("failed")

	expected := `
# HELP bazaar_moderation_compensations_total Total number of compensating report reopens by result.
# TYPE bazaar_moderation_compensations_total counter
bazaar_moderation_compensations_total{result="failed"} 1
`
	err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "bazaar_moderation_compensations_total")
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(m.Registry(), "bazaar_votes_cast_total", "bazaar_reports_filed_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestHandler(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.ReportFiled("listing")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `bazaar_reports_filed_total{item_type="listing"} 1`)
}
