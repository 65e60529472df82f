package combine

import (
	"math"
	"sort"
)

// CityStats aggregates itineraries sharing an intermediate city.
type CityStats struct {
	Count    int     `json:"count"`
	MinPrice float64 `json:"min_price"`
	AvgPrice float64 `json:"avg_price"`
}

// Statistics summarizes the price distribution of a combination run.
type Statistics struct {
	TotalCombinations  int                  `json:"total_combinations"`
	MinPrice           float64              `json:"min_price"`
	MaxPrice           float64              `json:"max_price"`
	AvgPrice           float64              `json:"avg_price"`
	MedianPrice        float64              `json:"median_price"`
	ByIntermediateCity map[string]CityStats `json:"by_intermediate_city,omitempty"`
}

// ComputeStatistics aggregates the price distribution overall and per
// intermediate city. Empty input yields all-zero statistics with no per-city
// breakdown.
//
// The median is the element at index n/2 of the ascending-sorted prices, not
// the average of the two middle elements for even n. That simplified median
// is the contract here.
func ComputeStatistics(itineraries []Itinerary) Statistics {
	if len(itineraries) == 0 {
		return Statistics{}
	}

	prices := make([]float64, len(itineraries))
	for i, it := range itineraries {
		prices[i] = it.TotalPrice
	}
	sort.Float64s(prices)

	var sum float64
	for _, p := range prices {
		sum += p
	}

	byCity := make(map[string]CityStats)
	citySums := make(map[string]float64)
	for _, it := range itineraries {
		city := it.IntermediateCity
		cs, seen := byCity[city]
		if !seen || it.TotalPrice < cs.MinPrice {
			cs.MinPrice = it.TotalPrice
		}
		cs.Count++
		byCity[city] = cs
		citySums[city] += it.TotalPrice
	}
	for city, cs := range byCity {
		cs.AvgPrice = round2(citySums[city] / float64(cs.Count))
		byCity[city] = cs
	}

	return Statistics{
		TotalCombinations:  len(itineraries),
		MinPrice:           prices[0],
		MaxPrice:           prices[len(prices)-1],
		AvgPrice:           round2(sum / float64(len(prices))),
		MedianPrice:        prices[len(prices)/2],
		ByIntermediateCity: byCity,
	}
}

// RankAndSelect sorts itineraries ascending by total price (stable, so ties
// keep their input order). With uniqueCities set, only the first (cheapest)
// itinerary per intermediate city survives, still in sorted order. A topN of
// zero or less means no truncation.
func RankAndSelect(itineraries []Itinerary, topN int, uniqueCities bool) []Itinerary {
	ranked := make([]Itinerary, len(itineraries))
	copy(ranked, itineraries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalPrice < ranked[j].TotalPrice
	})

	if uniqueCities {
		seen := make(map[string]bool)
		unique := ranked[:0]
		for _, it := range ranked {
			if seen[it.IntermediateCity] {
				continue
			}
			seen[it.IntermediateCity] = true
			unique = append(unique, it)
		}
		ranked = unique
	}

	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
