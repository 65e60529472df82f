package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viafly/viafly/collector"
	"github.com/viafly/viafly/config"
	"github.com/viafly/viafly/pkg/logger"
	"github.com/viafly/viafly/queue"
	"github.com/viafly/viafly/report"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "text"})
}

// pricesServer serves a leg1 offer for origin-only queries and a leg2 offer
// for queries that name a destination.
func pricesServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var offers []map[string]interface{}
		if q.Get("origin") == "MOW" {
			offers = append(offers, map[string]interface{}{
				"origin":       "MOW",
				"destination":  "IST",
				"departure_at": q.Get("departure_at") + "T10:00:00",
				"duration":     240,
				"price":        15000.0,
			})
		} else if q.Get("destination") == "BKK" {
			offers = append(offers, map[string]interface{}{
				"origin":       "IST",
				"destination":  "BKK",
				"departure_at": "2026-02-18T09:00:00",
				"arrival_at":   "2026-02-18T19:30:00",
				"price":        22000.0,
			})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": offers})
	}))
}

func newSweepWorker(t *testing.T, baseURL, outputDir string) *Worker {
	t.Helper()
	client := collector.NewClient(config.CollectorConfig{
		BaseURL:     baseURL,
		Token:       "test",
		Currency:    "rub",
		Limit:       1000,
		HTTPTimeout: 5 * time.Second,
	}, nil)
	return NewWorker(collector.New(client, 0), nil, outputDir, testLogger())
}

func TestProcessSweepWritesResultDocument(t *testing.T) {
	srv := pricesServer(t)
	defer srv.Close()

	outputDir := t.TempDir()
	w := newSweepWorker(t, srv.URL, outputDir)

	path, err := w.ProcessSweep(context.Background(), "job-1", SweepPayload{
		Origin:       "MOW",
		Destination:  "BKK",
		Leg1DateFrom: "2026-02-15",
		Leg1DateTo:   "2026-02-15",
		Leg2DateFrom: "2026-02-18",
		Leg2DateTo:   "2026-02-18",
		MinStay:      1,
		MaxStay:      7,
	})
	require.NoError(t, err)
	assert.Equal(t, outputDir, filepath.Dir(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc report.Document
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Len(t, doc.Combinations, 1)
	assert.Equal(t, "IST", doc.Combinations[0].IntermediateCity)
	assert.Equal(t, 37000.0, doc.Combinations[0].TotalPrice)
	assert.Equal(t, 1, doc.Statistics.TotalCombinations)
}

func TestProcessSweepRejectsBadDateRange(t *testing.T) {
	w := newSweepWorker(t, "http://unused.invalid", t.TempDir())

	_, err := w.ProcessSweep(context.Background(), "job-2", SweepPayload{
		Origin:       "MOW",
		Leg1DateFrom: "not-a-date",
		Leg1DateTo:   "2026-02-15",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leg1 date range")
}

func TestManagerProcessesQueuedSweep(t *testing.T) {
	srv := pricesServer(t)
	defer srv.Close()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	q := queue.NewRedisQueueWithClient(client, "workertest")

	w := newSweepWorker(t, srv.URL, t.TempDir())
	m := NewManager(q, w, nil, config.WorkerConfig{
		Concurrency:     1,
		JobTimeout:      30 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}, testLogger())

	ctx := context.Background()
	id, err := q.Enqueue(ctx, JobTypeCollectSweep, SweepPayload{
		Origin:       "MOW",
		Destination:  "BKK",
		Leg1DateFrom: "2026-02-15",
		Leg1DateTo:   "2026-02-15",
		Leg2DateFrom: "2026-02-18",
		Leg2DateTo:   "2026-02-18",
		MinStay:      1,
		MaxStay:      7,
	})
	require.NoError(t, err)

	m.Start()
	defer m.Stop()

	require.Eventually(t, func() bool {
		job, err := q.GetJob(ctx, id)
		return err == nil && job.Status == queue.StatusCompleted
	}, 10*time.Second, 50*time.Millisecond)

	job, err := q.GetJob(ctx, id)
	require.NoError(t, err)
	assert.NotEmpty(t, job.Result)
}

func TestManagerFailsUnknownJobType(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	q := queue.NewRedisQueueWithClient(client, "workertest")

	w := newSweepWorker(t, "http://unused.invalid", t.TempDir())
	m := NewManager(q, w, nil, config.WorkerConfig{
		Concurrency:     1,
		JobTimeout:      5 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}, testLogger())

	ctx := context.Background()
	id, err := q.Enqueue(ctx, "unknown_type", nil)
	require.NoError(t, err)

	m.Start()
	defer m.Stop()

	require.Eventually(t, func() bool {
		job, err := q.GetJob(ctx, id)
		return err == nil && job.Status == queue.StatusFailed
	}, 10*time.Second, 50*time.Millisecond)

	job, err := q.GetJob(ctx, id)
	require.NoError(t, err)
	assert.Contains(t, job.Error, "unknown job type")
}

func TestSchedulerBuildPayloadDates(t *testing.T) {
	s := NewScheduler(nil, config.SweepConfig{
		Origin:       "MOW",
		Destination:  "BKK",
		Leg1FromDays: 30,
		Leg1ToDays:   37,
		Leg2FromDays: 33,
		Leg2ToDays:   44,
	}, testLogger())

	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	payload := s.BuildPayload(now)

	assert.Equal(t, "MOW", payload.Origin)
	assert.Equal(t, "2026-03-03", payload.Leg1DateFrom)
	assert.Equal(t, "2026-03-10", payload.Leg1DateTo)
	assert.Equal(t, "2026-03-06", payload.Leg2DateFrom)
	assert.Equal(t, "2026-03-17", payload.Leg2DateTo)
}
