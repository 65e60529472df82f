package airports

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/viafly/viafly/pkg/geo"
)

// Neighbor is a directed proximity edge to another airport.
type Neighbor struct {
	IATA       string  `json:"iata"`
	DistanceKm float64 `json:"distance_km"` // rounded to 2 decimals
}

// Entry is one airport's slot in the network: its reference fields plus the
// neighbor list sorted ascending by distance.
type Entry struct {
	Name           string     `json:"name"`
	Municipality   string     `json:"municipality"`
	Country        string     `json:"country"`
	Coordinates    string     `json:"coordinates"`
	NearbyAirports []Neighbor `json:"nearby_airports"`
}

// Network maps IATA code to that airport's entry. Airports with no
// qualifying neighbor are present with an empty (non-nil) list.
type Network map[string]*Entry

// BuildNetwork computes, for every airport with a usable code and
// coordinates, the list of other airports within maxDistanceKm, annotated
// with great-circle distance. Records failing validation are excluded
// entirely: not as keys and not as anyone's neighbor.
//
// Both directions of each pair are computed independently; the metric is
// symmetric so they agree up to rounding. Neighbor ties at equal distance
// keep the input order of the dataset. The O(n²) scan is partitioned across
// CPUs by outer index and merged in index order, so the result does not
// depend on scheduling. Cancellation is honored at the granularity of one
// airport's full neighbor scan.
func BuildNetwork(ctx context.Context, records []Airport, maxDistanceKm float64) (Network, error) {
	valid := resolveAirports(records)

	type slot struct {
		code  string
		entry *Entry
	}
	slots := make([]slot, len(valid))

	workers := runtime.NumCPU()
	if workers > len(valid) {
		workers = len(valid)
	}
	if workers < 1 {
		workers = 1
	}
	chunk := (len(valid) + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(valid) {
			hi = len(valid)
		}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				if ctx.Err() != nil {
					return
				}
				a := valid[i]
				nearby := make([]Neighbor, 0)
				for j, b := range valid {
					if j == i {
						continue
					}
					distance := geo.DistanceBetweenKm(a.coords, b.coords)
					if distance <= maxDistanceKm {
						nearby = append(nearby, Neighbor{
							IATA:       b.IATACode,
							DistanceKm: round2(distance),
						})
					}
				}
				sort.SliceStable(nearby, func(x, y int) bool {
					return nearby[x].DistanceKm < nearby[y].DistanceKm
				})
				slots[i] = slot{code: a.IATACode, entry: &Entry{
					Name:           a.Name,
					Municipality:   a.Municipality,
					Country:        a.ISOCountry,
					Coordinates:    a.Coordinates,
					NearbyAirports: nearby,
				}}
			}
		}(lo, hi)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	network := make(Network, len(slots))
	for _, s := range slots {
		network[s.code] = s.entry
	}
	return network, nil
}

// TotalEdges counts directed neighbor edges across the network.
func (n Network) TotalEdges() int {
	total := 0
	for _, entry := range n {
		total += len(entry.NearbyAirports)
	}
	return total
}

// SaveFile writes the network document as indented JSON, creating parent
// directories as needed.
func (n Network) SaveFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	raw, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return fmt.Errorf("encode network: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write network file: %w", err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
