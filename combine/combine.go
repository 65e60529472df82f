package combine

import (
	"runtime"
	"strings"
	"sync"

	"github.com/viafly/viafly/pkg/timeparse"
)

// FindCombinations pairs every usable leg1 offer with every leg2 offer that
// departs from the city leg1 arrives at, subject to the stay window and the
// optional date and via-city filters in opts.
//
// Per-record problems (missing fields, unparseable dates) skip the candidate
// or degrade to a fallback value; the scan itself never fails. Output order
// is not part of the contract here; ranking imposes order later.
func FindCombinations(leg1Offers, leg2Offers []Offer, opts Options) []Itinerary {
	leg1Offers = filterByDepartureWindow(leg1Offers, opts.Leg1Window)
	leg2Offers = filterByDepartureWindow(leg2Offers, opts.Leg2Window)

	// Bucket leg2 offers by their effective origin. The join only ever
	// matches offers from the same intermediate city, so this turns the
	// inner scan near-linear without changing which pairs are emitted.
	leg2ByOrigin := make(map[string][]Offer)
	for _, f2 := range leg2Offers {
		origin := f2.EffectiveOrigin()
		leg2ByOrigin[origin] = append(leg2ByOrigin[origin], f2)
	}

	// Each leg1 offer anchors an independent slice of results, so the outer
	// loop parallelizes by contiguous partition; concatenating partitions in
	// index order reproduces the serial emit order exactly.
	workers := runtime.NumCPU()
	if workers > len(leg1Offers) {
		workers = len(leg1Offers)
	}
	if workers < 1 {
		workers = 1
	}

	partitions := make([][]Itinerary, workers)
	chunk := (len(leg1Offers) + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(leg1Offers) {
			hi = len(leg1Offers)
		}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(slot int, offers []Offer) {
			defer wg.Done()
			var out []Itinerary
			for _, f1 := range offers {
				out = appendMatches(out, f1, leg2ByOrigin, opts)
			}
			partitions[slot] = out
		}(w, leg1Offers[lo:hi])
	}
	wg.Wait()

	combinations := make([]Itinerary, 0)
	for _, part := range partitions {
		combinations = append(combinations, part...)
	}
	return combinations
}

// FindDatasetCombinations runs the engine over a collected dataset document.
func FindDatasetCombinations(data Dataset, opts Options) []Itinerary {
	return FindCombinations(data.Leg1Flights, data.Leg2Flights, opts)
}

// appendMatches emits every valid pairing anchored by the leg1 offer f1.
func appendMatches(out []Itinerary, f1 Offer, leg2ByOrigin map[string][]Offer, opts Options) []Itinerary {
	intermediateCity := f1.EffectiveDestination()
	if opts.ViaCity != "" && intermediateCity != opts.ViaCity {
		return out
	}

	arrivalAt, ok := effectiveArrival(f1)
	if !ok {
		// No arrival and no way to derive one; this offer cannot anchor
		// any itinerary.
		return out
	}

	for _, f2 := range leg2ByOrigin[intermediateCity] {
		if f2.DepartureAt == "" {
			continue
		}

		stayDays := timeparse.StayDays(arrivalAt, f2.DepartureAt)
		if stayDays < opts.MinStay || stayDays > opts.MaxStay {
			continue
		}

		leg2Arrival, ok := effectiveArrival(f2)
		if !ok {
			// Last-resort fallback for the second leg only.
			leg2Arrival = f2.DepartureAt
		}

		price1 := f1.EffectivePrice()
		price2 := f2.EffectivePrice()

		out = append(out, Itinerary{
			TotalPrice:       price1 + price2,
			StayDays:         stayDays,
			IntermediateCity: intermediateCity,
			Leg1: Leg{
				Origin:       f1.EffectiveOrigin(),
				Destination:  intermediateCity,
				DepartureAt:  f1.DepartureAt,
				ArrivalAt:    arrivalAt,
				Price:        price1,
				Airline:      f1.Airline,
				FlightNumber: f1.FlightNumber,
				Link:         f1.Link,
				Duration:     f1.Duration,
			},
			Leg2: Leg{
				Origin:       intermediateCity,
				Destination:  f2.EffectiveDestination(),
				DepartureAt:  f2.DepartureAt,
				ArrivalAt:    leg2Arrival,
				Price:        price2,
				Airline:      f2.Airline,
				FlightNumber: f2.FlightNumber,
				Link:         f2.Link,
				Duration:     f2.Duration,
			},
		})
	}
	return out
}

// effectiveArrival resolves an offer's arrival instant: the offer's own
// arrival field when present, otherwise derived from departure plus
// duration. Returns false when neither is available.
func effectiveArrival(o Offer) (string, bool) {
	if o.ArrivalAt != "" {
		return o.ArrivalAt, true
	}
	if o.DepartureAt != "" && o.Duration > 0 {
		return timeparse.ComputeArrival(o.DepartureAt, o.Duration), true
	}
	return "", false
}

// filterByDepartureWindow keeps offers whose departure date falls inside the
// window. Offers lacking a departure are dropped from consideration. A zero
// window passes the input through untouched.
func filterByDepartureWindow(offers []Offer, window DateWindow) []Offer {
	if window.IsZero() {
		return offers
	}
	filtered := make([]Offer, 0, len(offers))
	for _, o := range offers {
		if o.DepartureAt == "" {
			continue
		}
		if window.Contains(departureDate(o)) {
			filtered = append(filtered, o)
		}
	}
	return filtered
}

func departureDate(o Offer) string {
	if i := strings.IndexByte(o.DepartureAt, 'T'); i >= 0 {
		return o.DepartureAt[:i]
	}
	return o.DepartureAt
}
