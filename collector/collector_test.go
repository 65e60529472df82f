package collector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viafly/viafly/combine"
	"github.com/viafly/viafly/config"
	"github.com/viafly/viafly/pkg/cache"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func testClientConfig(baseURL string) config.CollectorConfig {
	return config.CollectorConfig{
		BaseURL:     baseURL,
		Token:       "test-token",
		Currency:    "RUB",
		Limit:       1000,
		HTTPTimeout: 2 * time.Second,
		CacheTTL:    time.Minute,
	}
}

func TestClientFetchFlights(t *testing.T) {
	var gotQuery map[string]string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"origin": q.Get("origin"), "destination": q.Get("destination"),
			"departure_at": q.Get("departure_at"), "token": q.Get("token"),
			"direct": q.Get("direct"), "one_way": q.Get("one_way"),
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": []combine.Offer{
				{Origin: "MOW", Destination: "IST", DepartureAt: "2026-02-15T10:00:00+03:00", Price: 15000, Duration: 240},
			},
		})
	})

	client := NewClient(testClientConfig(srv.URL), nil)
	offers, err := client.FetchFlights(context.Background(), "MOW", "IST", "2026-02-15")
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "IST", offers[0].Destination)
	assert.Equal(t, "MOW", gotQuery["origin"])
	assert.Equal(t, "2026-02-15", gotQuery["departure_at"])
	assert.Equal(t, "test-token", gotQuery["token"])
	assert.Equal(t, "true", gotQuery["direct"])
	assert.Equal(t, "true", gotQuery["one_way"])
}

func TestClientFetchFlights_OmitsEmptyRouteParams(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("origin"))
		assert.False(t, r.URL.Query().Has("destination"))
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": []combine.Offer{}})
	})

	client := NewClient(testClientConfig(srv.URL), nil)
	_, err := client.FetchFlights(context.Background(), "", "", "2026-02-15")
	require.NoError(t, err)
}

func TestClientFetchFlights_HTTPError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	client := NewClient(testClientConfig(srv.URL), nil)
	_, err := client.FetchFlights(context.Background(), "MOW", "IST", "2026-02-15")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestClientFetchFlights_UsesCache(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    []combine.Offer{{Origin: "MOW", Destination: "IST", Price: 15000}},
		})
	})

	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rc.Close() })

	client := NewClient(testClientConfig(srv.URL), cache.NewRedisCache(rc, "prices"))

	for i := 0; i < 3; i++ {
		offers, err := client.FetchFlights(context.Background(), "MOW", "IST", "2026-02-15")
		require.NoError(t, err)
		require.Len(t, offers, 1)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestCollectLeg_TagsOffersAndSkipsFailedDates(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("departure_at") == "2026-02-16" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    []combine.Offer{{Origin: "MOW", Destination: "IST", Price: 15000}},
		})
	})

	c := New(NewClient(testClientConfig(srv.URL), nil), time.Millisecond)
	offers, err := c.CollectLeg(context.Background(), "MOW", "", []string{"2026-02-15", "2026-02-16", "2026-02-17"}, Leg1)
	require.NoError(t, err)

	// The failing middle date degrades to zero offers; the sweep continues.
	require.Len(t, offers, 2)
	for _, o := range offers {
		assert.Equal(t, Leg1, o.Leg)
		assert.Equal(t, "MOW", o.SearchOrigin)
		assert.Equal(t, "", o.SearchDestination)
		assert.NotEmpty(t, o.SearchDate)
	}
}

func TestCollect_AssemblesDataset(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		offer := combine.Offer{Price: 10000}
		if q.Get("origin") == "MOW" {
			offer.Origin = "MOW"
			offer.Destination = "IST"
		} else {
			offer.Origin = "IST"
			offer.Destination = "BKK"
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": []combine.Offer{offer}})
	})

	c := New(NewClient(testClientConfig(srv.URL), nil), time.Millisecond)
	data, err := c.Collect(context.Background(), Params{
		Origin:      "MOW",
		Destination: "BKK",
		Leg1Dates:   []string{"2026-02-15"},
		Leg2Dates:   []string{"2026-02-18"},
	})
	require.NoError(t, err)

	assert.Len(t, data.Leg1Flights, 1)
	assert.Len(t, data.Leg2Flights, 1)
	assert.Equal(t, "MOW", data.Metadata.Origin)
	assert.Equal(t, []string{"IST"}, data.Metadata.IntermediateAirports)
	assert.Equal(t, 2, data.Metadata.TotalFlights)
	require.NotNil(t, data.Metadata.Leg1DateRange)
	assert.Equal(t, "2026-02-15", data.Metadata.Leg1DateRange.Start)
}

func TestDateRange(t *testing.T) {
	dates, err := DateRange("2026-02-27", "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-02-27", "2026-02-28", "2026-03-01", "2026-03-02"}, dates)

	_, err = DateRange("2026-03-02", "2026-02-27")
	assert.Error(t, err)

	_, err = DateRange("bogus", "2026-02-27")
	assert.Error(t, err)
}
