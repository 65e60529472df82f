// Package report renders combination results for the console and persists
// the result document.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/viafly/viafly/combine"
	"github.com/viafly/viafly/pkg/timeparse"
)

// Document is the persisted result of a combination run.
type Document struct {
	GeneratedAt  string              `json:"generated_at"`
	Statistics   combine.Statistics  `json:"statistics"`
	Combinations []combine.Itinerary `json:"combinations"`
}

// BuildDocument ranks the full result set (no truncation; uniqueCities
// reduction applies when requested) and stamps it.
func BuildDocument(itineraries []combine.Itinerary, stats combine.Statistics, uniqueCities bool) Document {
	return Document{
		GeneratedAt:  time.Now().Format(timeparse.ISOLayout),
		Statistics:   stats,
		Combinations: combine.RankAndSelect(itineraries, 0, uniqueCities),
	}
}

// Save writes the document as indented JSON, creating parent directories.
func Save(doc Document, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write results file: %w", err)
	}
	return nil
}

// FormatPrice renders an amount in the dataset currency with grouping
// separators, falling back to a plain rendering for unknown codes.
func FormatPrice(amount float64, currencyCode string) string {
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return fmt.Sprintf("%.0f %s", amount, currencyCode)
	}
	printer := message.NewPrinter(language.English)
	return printer.Sprintf("%v", currency.Symbol(unit.Amount(amount)))
}

// PrintSummary writes the analysis summary: overall statistics, the per-city
// breakdown ordered by minimum price, and the topN cheapest itineraries.
func PrintSummary(w io.Writer, itineraries []combine.Itinerary, stats combine.Statistics, topN int, uniqueCities bool, currencyCode string) {
	fmt.Fprintf(w, "\n%s\nANALYSIS RESULTS\n%s\n\n", divider('='), divider('='))

	if len(itineraries) == 0 {
		fmt.Fprintln(w, "No matching flight combinations found")
		return
	}

	fmt.Fprintf(w, "Combinations found: %d\n\n", stats.TotalCombinations)
	fmt.Fprintln(w, "Price statistics:")
	fmt.Fprintf(w, "  Minimum: %s\n", FormatPrice(stats.MinPrice, currencyCode))
	fmt.Fprintf(w, "  Average: %s\n", FormatPrice(stats.AvgPrice, currencyCode))
	fmt.Fprintf(w, "  Median:  %s\n", FormatPrice(stats.MedianPrice, currencyCode))
	fmt.Fprintf(w, "  Maximum: %s\n", FormatPrice(stats.MaxPrice, currencyCode))

	if len(stats.ByIntermediateCity) > 0 {
		fmt.Fprintln(w, "\nBy intermediate city:")
		for _, city := range citiesByMinPrice(stats.ByIntermediateCity) {
			cs := stats.ByIntermediateCity[city]
			fmt.Fprintf(w, "  %s: %d combinations, min %s, avg %s\n",
				city, cs.Count, FormatPrice(cs.MinPrice, currencyCode), FormatPrice(cs.AvgPrice, currencyCode))
		}
	}

	ranked := combine.RankAndSelect(itineraries, topN, uniqueCities)
	title := fmt.Sprintf("TOP %d CHEAPEST OPTIONS", len(ranked))
	if uniqueCities {
		title += " (unique cities)"
	}
	fmt.Fprintf(w, "\n%s\n%s\n%s\n\n", divider('='), title, divider('='))

	for i, it := range ranked {
		fmt.Fprintf(w, "#%d. Total %s | stay %d days | via %s\n",
			i+1, FormatPrice(it.TotalPrice, currencyCode), it.StayDays, it.IntermediateCity)
		printLeg(w, 1, it.Leg1, currencyCode)
		printLeg(w, 2, it.Leg2, currencyCode)
		fmt.Fprintln(w)
	}
}

func printLeg(w io.Writer, n int, leg combine.Leg, currencyCode string) {
	fmt.Fprintf(w, "    Leg %d: %s -> %s\n", n, leg.Origin, leg.Destination)
	fmt.Fprintf(w, "        Departure: %s\n", leg.DepartureAt)
	fmt.Fprintf(w, "        Arrival:   %s\n", leg.ArrivalAt)
	if leg.Duration > 0 {
		fmt.Fprintf(w, "        Duration:  %dh %dm\n", leg.Duration/60, leg.Duration%60)
	}
	fmt.Fprintf(w, "        Price:     %s\n", FormatPrice(leg.Price, currencyCode))
	if leg.Airline != "" {
		if leg.FlightNumber != "" {
			fmt.Fprintf(w, "        Flight:    %s %s\n", leg.Airline, leg.FlightNumber)
		} else {
			fmt.Fprintf(w, "        Airline:   %s\n", leg.Airline)
		}
	}
}

// citiesByMinPrice orders city codes ascending by minimum price, breaking
// ties by code so the listing is reproducible.
func citiesByMinPrice(byCity map[string]combine.CityStats) []string {
	cities := make([]string, 0, len(byCity))
	for city := range byCity {
		cities = append(cities, city)
	}
	sort.Slice(cities, func(i, j int) bool {
		a, b := byCity[cities[i]], byCity[cities[j]]
		if a.MinPrice != b.MinPrice {
			return a.MinPrice < b.MinPrice
		}
		return cities[i] < cities[j]
	})
	return cities
}

func divider(c byte) string {
	line := make([]byte, 80)
	for i := range line {
		line[i] = c
	}
	return string(line)
}
