package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viafly/viafly/combine"
	"github.com/viafly/viafly/report"
)

func writeDataset(t *testing.T) string {
	t.Helper()
	data := combine.Dataset{
		Metadata: combine.Metadata{
			Origin:               "MOW",
			Destination:          "BKK",
			IntermediateAirports: []string{"IST"},
			TotalFlights:         2,
		},
		Leg1Flights: []combine.Offer{{
			Origin:      "MOW",
			Destination: "IST",
			DepartureAt: "2026-02-15T10:00:00",
			Duration:    240,
			Price:       15000,
		}},
		Leg2Flights: []combine.Offer{{
			Origin:      "IST",
			Destination: "BKK",
			DepartureAt: "2026-02-18T09:00:00",
			ArrivalAt:   "2026-02-18T19:30:00",
			Price:       22000,
		}},
	}
	raw, err := json.Marshal(data)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "dataset.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func TestRunMissingFileIsNotAFailure(t *testing.T) {
	code := run([]string{filepath.Join(t.TempDir(), "absent.json")})
	assert.Equal(t, 0, code)
}

func TestRunRejectsInvertedStayBounds(t *testing.T) {
	code := run([]string{"-min-stay", "7", "-max-stay", "2", writeDataset(t)})
	assert.Equal(t, 2, code)
}

func TestRunSavesResultDocument(t *testing.T) {
	out := filepath.Join(t.TempDir(), "results.json")
	code := run([]string{"-min-stay", "1", "-max-stay", "7", "-output", out, writeDataset(t)})
	require.Equal(t, 0, code)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)

	var doc report.Document
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Len(t, doc.Combinations, 1)
	assert.Equal(t, "IST", doc.Combinations[0].IntermediateCity)
	assert.Equal(t, 37000.0, doc.Combinations[0].TotalPrice)
	assert.Equal(t, 2, doc.Combinations[0].StayDays)
	assert.Equal(t, "2026-02-15T14:00:00", doc.Combinations[0].Leg1.ArrivalAt)
}

func TestRunStayFilterExcludes(t *testing.T) {
	out := filepath.Join(t.TempDir(), "results.json")
	code := run([]string{"-min-stay", "3", "-max-stay", "7", "-output", out, writeDataset(t)})
	require.Equal(t, 0, code)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)

	var doc report.Document
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Empty(t, doc.Combinations)
	assert.Equal(t, 0, doc.Statistics.TotalCombinations)
}

func TestRunDeprecatedDepartAliasFiltersLeg1(t *testing.T) {
	out := filepath.Join(t.TempDir(), "results.json")
	code := run([]string{"-depart-date", "2026-02-16", "-output", out, writeDataset(t)})
	require.Equal(t, 0, code)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)

	var doc report.Document
	require.NoError(t, json.Unmarshal(raw, &doc))
	// The only leg1 offer departs 2026-02-15, outside the single-day window.
	assert.Empty(t, doc.Combinations)
}
