package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordBid(t *testing.T) {
	before := testutil.ToFloat64(bidsTotal.WithLabelValues(BidAccepted))
	RecordBid(BidAccepted)
	RecordBid(BidAccepted)
	require.Equal(t, before+2, testutil.ToFloat64(bidsTotal.WithLabelValues(BidAccepted)))
}

func TestRecordListingCounters(t *testing.T) {
	closed := testutil.ToFloat64(listingsClosed)
	created := testutil.ToFloat64(listingsCreated)

	RecordListingClosed()
	RecordListingCreated()

	require.Equal(t, closed+1, testutil.ToFloat64(listingsClosed))
	require.Equal(t, created+1, testutil.ToFloat64(listingsCreated))
}

func TestGinMiddleware_LabelsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinMiddleware)
	router.GET("/auction/:listing_id", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(Handler()))

	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/auction/:listing_id", "200"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auction/abc", nil))
	require.Equal(t, http.StatusOK, w.Code)

	require.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/auction/:listing_id", "200")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.Contains(w.Body.String(), "auctions_http_requests_total"))
}
