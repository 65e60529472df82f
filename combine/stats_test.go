package combine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itin(city string, price float64) Itinerary {
	return Itinerary{
		TotalPrice:       price,
		IntermediateCity: city,
		Leg1:             Leg{Origin: "MOW", Destination: city, Price: price / 2},
		Leg2:             Leg{Origin: city, Destination: "BKK", Price: price / 2},
	}
}

func TestComputeStatistics_Empty(t *testing.T) {
	stats := ComputeStatistics(nil)
	assert.Equal(t, Statistics{}, stats)
	assert.Nil(t, stats.ByIntermediateCity)
}

func TestComputeStatistics_MedianIsLowerMiddleElement(t *testing.T) {
	stats := ComputeStatistics([]Itinerary{
		itin("IST", 900),
		itin("DXB", 100),
		itin("IST", 300),
		itin("DOH", 200),
	})
	// Sorted prices are [100 200 300 900]; the median is the element at
	// index 2, not the 250 a two-middle average would give.
	assert.Equal(t, 300.0, stats.MedianPrice)
	assert.Equal(t, 100.0, stats.MinPrice)
	assert.Equal(t, 900.0, stats.MaxPrice)
	assert.Equal(t, 375.0, stats.AvgPrice)
	assert.Equal(t, 4, stats.TotalCombinations)
}

func TestComputeStatistics_PerCity(t *testing.T) {
	stats := ComputeStatistics([]Itinerary{
		itin("IST", 300),
		itin("IST", 200),
		itin("DXB", 500),
	})

	require.Len(t, stats.ByIntermediateCity, 2)
	ist := stats.ByIntermediateCity["IST"]
	assert.Equal(t, 2, ist.Count)
	assert.Equal(t, 200.0, ist.MinPrice)
	assert.Equal(t, 250.0, ist.AvgPrice)

	dxb := stats.ByIntermediateCity["DXB"]
	assert.Equal(t, 1, dxb.Count)
	assert.Equal(t, 500.0, dxb.MinPrice)
	assert.Equal(t, 500.0, dxb.AvgPrice)
}

func TestComputeStatistics_MeanRounding(t *testing.T) {
	stats := ComputeStatistics([]Itinerary{
		itin("IST", 100),
		itin("IST", 100),
		itin("IST", 101),
	})
	assert.Equal(t, 100.33, stats.AvgPrice)
	assert.Equal(t, 100.33, stats.ByIntermediateCity["IST"].AvgPrice)
}

func TestRankAndSelect_SortsAscendingStable(t *testing.T) {
	a := itin("IST", 200)
	a.Leg1.Airline = "TK"
	b := itin("DXB", 200)
	b.Leg1.Airline = "EK"

	ranked := RankAndSelect([]Itinerary{itin("DOH", 300), a, b, itin("AUH", 100)}, 0, false)
	require.Len(t, ranked, 4)
	assert.Equal(t, 100.0, ranked[0].TotalPrice)
	// Equal prices keep input order.
	assert.Equal(t, "TK", ranked[1].Leg1.Airline)
	assert.Equal(t, "EK", ranked[2].Leg1.Airline)
	assert.Equal(t, 300.0, ranked[3].TotalPrice)
}

func TestRankAndSelect_TopN(t *testing.T) {
	in := []Itinerary{itin("IST", 3), itin("DXB", 1), itin("DOH", 2)}
	assert.Len(t, RankAndSelect(in, 2, false), 2)
	// Zero or negative topN means no truncation.
	assert.Len(t, RankAndSelect(in, 0, false), 3)
	assert.Len(t, RankAndSelect(in, -1, false), 3)
	// Input is not mutated.
	assert.Equal(t, 3.0, in[0].TotalPrice)
}

func TestRankAndSelect_UniqueCitiesKeepsCheapestPerCity(t *testing.T) {
	in := []Itinerary{
		itin("IST", 400),
		itin("DXB", 150),
		itin("IST", 100),
		itin("DXB", 250),
		itin("DOH", 300),
	}
	got := RankAndSelect(in, 0, true)
	require.Len(t, got, 3)
	assert.Equal(t, "IST", got[0].IntermediateCity)
	assert.Equal(t, 100.0, got[0].TotalPrice)
	assert.Equal(t, "DXB", got[1].IntermediateCity)
	assert.Equal(t, 150.0, got[1].TotalPrice)
	assert.Equal(t, "DOH", got[2].IntermediateCity)

	seen := map[string]bool{}
	for _, it := range got {
		assert.False(t, seen[it.IntermediateCity])
		seen[it.IntermediateCity] = true
	}
}

func TestRankAndSelect_UniqueThenTruncate(t *testing.T) {
	in := []Itinerary{itin("IST", 400), itin("DXB", 150), itin("IST", 100), itin("DOH", 300)}
	got := RankAndSelect(in, 2, true)
	require.Len(t, got, 2)
	assert.Equal(t, "IST", got[0].IntermediateCity)
	assert.Equal(t, "DXB", got[1].IntermediateCity)
}
