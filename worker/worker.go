// Package worker runs collection sweeps from the job queue and persists the
// combined results.
package worker

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/viafly/viafly/collector"
	"github.com/viafly/viafly/combine"
	"github.com/viafly/viafly/db"
	"github.com/viafly/viafly/pkg/logger"
	"github.com/viafly/viafly/report"
)

// JobTypeCollectSweep is the queue job type for a full collect-and-combine run.
const JobTypeCollectSweep = "collect_sweep"

// SweepPayload describes one collect-and-combine job.
type SweepPayload struct {
	Origin        string   `json:"origin"`
	Destination   string   `json:"destination,omitempty"`
	Intermediates []string `json:"intermediates,omitempty"`
	Leg1DateFrom  string   `json:"leg1_date_from"`
	Leg1DateTo    string   `json:"leg1_date_to"`
	Leg2DateFrom  string   `json:"leg2_date_from"`
	Leg2DateTo    string   `json:"leg2_date_to"`
	MinStay       int      `json:"min_stay"`
	MaxStay       int      `json:"max_stay"`
	ViaCity       string   `json:"via_city,omitempty"`
}

// Worker executes sweep jobs: collect both legs, combine them, and write the
// result document to the output directory and, when configured, Postgres.
type Worker struct {
	collector  *collector.Collector
	postgresDB db.PostgresDB // nil when Postgres is disabled
	outputDir  string
	log        *logger.Logger
}

// NewWorker creates a sweep worker. postgresDB may be nil.
func NewWorker(c *collector.Collector, postgresDB db.PostgresDB, outputDir string, log *logger.Logger) *Worker {
	return &Worker{collector: c, postgresDB: postgresDB, outputDir: outputDir, log: log}
}

// ProcessSweep runs one sweep end to end and returns the path of the saved
// result document.
func (w *Worker) ProcessSweep(ctx context.Context, jobID string, payload SweepPayload) (string, error) {
	leg1Dates, err := collector.DateRange(payload.Leg1DateFrom, payload.Leg1DateTo)
	if err != nil {
		return "", fmt.Errorf("leg1 date range: %w", err)
	}
	leg2Dates, err := collector.DateRange(payload.Leg2DateFrom, payload.Leg2DateTo)
	if err != nil {
		return "", fmt.Errorf("leg2 date range: %w", err)
	}

	dataset, err := w.collector.Collect(ctx, collector.Params{
		Origin:        payload.Origin,
		Destination:   payload.Destination,
		Intermediates: payload.Intermediates,
		Leg1Dates:     leg1Dates,
		Leg2Dates:     leg2Dates,
	})
	if err != nil {
		return "", fmt.Errorf("collect sweep: %w", err)
	}

	minStay, maxStay := payload.MinStay, payload.MaxStay
	if minStay == 0 && maxStay == 0 {
		minStay, maxStay = 1, 30
	}
	itineraries := combine.FindDatasetCombinations(dataset, combine.Options{
		MinStay: minStay,
		MaxStay: maxStay,
		ViaCity: payload.ViaCity,
	})
	stats := combine.ComputeStatistics(itineraries)
	doc := report.BuildDocument(itineraries, stats, false)

	path := filepath.Join(w.outputDir, resultFileName(payload, jobID))
	if err := report.Save(doc, path); err != nil {
		return "", fmt.Errorf("save result document: %w", err)
	}

	if w.postgresDB != nil {
		if err := w.postgresDB.SaveResultDocument(ctx, jobID, payload.Origin, payload.Destination, doc); err != nil {
			// The file on disk is the primary output; losing the DB copy
			// should not fail the job.
			w.log.Error(err, "store result document", "job_id", jobID)
		}
	}

	w.log.Info("sweep completed",
		"job_id", jobID,
		"origin", payload.Origin,
		"destination", payload.Destination,
		"combinations", stats.TotalCombinations,
		"output", path,
	)
	return path, nil
}

func resultFileName(payload SweepPayload, jobID string) string {
	route := payload.Origin
	if payload.Destination != "" {
		route += "_" + payload.Destination
	}
	return fmt.Sprintf("combinations_%s_%s_%s.json",
		route, time.Now().UTC().Format("20060102T150405"), jobID)
}
