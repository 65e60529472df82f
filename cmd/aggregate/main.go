// Command aggregate combines a collected two-leg dataset into priced
// itineraries, prints a summary, and optionally saves the full result
// document.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/viafly/viafly/combine"
	"github.com/viafly/viafly/pkg/logger"
	"github.com/viafly/viafly/report"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("aggregate", flag.ExitOnError)

	minStay := fs.Int("min-stay", 1, "minimum stay in days at the intermediate city")
	maxStay := fs.Int("max-stay", 30, "maximum stay in days at the intermediate city")

	leg1Date := fs.String("leg1-date", "", "exact leg1 departure date (YYYY-MM-DD)")
	leg1From := fs.String("leg1-from", "", "earliest leg1 departure date")
	leg1To := fs.String("leg1-to", "", "latest leg1 departure date")
	leg2Date := fs.String("leg2-date", "", "exact leg2 departure date (YYYY-MM-DD)")
	leg2From := fs.String("leg2-from", "", "earliest leg2 departure date")
	leg2To := fs.String("leg2-to", "", "latest leg2 departure date")

	// Older flag names kept as aliases for the first leg.
	departDate := fs.String("depart-date", "", "deprecated alias for -leg1-date")
	departFrom := fs.String("depart-from", "", "deprecated alias for -leg1-from")
	departTo := fs.String("depart-to", "", "deprecated alias for -leg1-to")

	top := fs.Int("top", 10, "number of itineraries to print")
	uniqueCities := fs.Bool("unique-cities", false, "keep only the cheapest itinerary per intermediate city")
	via := fs.String("via", "", "only consider itineraries through this city code")
	output := fs.String("output", "", "path to save the full result document (JSON)")
	currency := fs.String("currency", "RUB", "ISO currency code for printed prices")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: aggregate [flags] <dataset.json>\n\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	inputFile := fs.Arg(0)

	if *minStay > *maxStay {
		fmt.Fprintf(os.Stderr, "error: -min-stay (%d) exceeds -max-stay (%d)\n", *minStay, *maxStay)
		return 2
	}

	leg1Window := dateWindow(*leg1Date, firstOf(*leg1From, *departFrom), firstOf(*leg1To, *departTo), *departDate)
	leg2Window := dateWindow(*leg2Date, *leg2From, *leg2To, "")

	if _, err := os.Stat(inputFile); os.IsNotExist(err) {
		fmt.Printf("file %s not found\n", inputFile)
		return 0
	}

	data, err := loadDataset(inputFile)
	if err != nil {
		logger.Error(err, "load dataset", "file", inputFile)
		return 1
	}

	printHeader(data, inputFile, *minStay, *maxStay, *via, leg1Window, leg2Window)

	itineraries := combine.FindDatasetCombinations(data, combine.Options{
		MinStay:    *minStay,
		MaxStay:    *maxStay,
		Leg1Window: leg1Window,
		Leg2Window: leg2Window,
		ViaCity:    *via,
	})
	stats := combine.ComputeStatistics(itineraries)

	report.PrintSummary(os.Stdout, itineraries, stats, *top, *uniqueCities, *currency)

	if *output != "" {
		doc := report.BuildDocument(itineraries, stats, *uniqueCities)
		if err := report.Save(doc, *output); err != nil {
			logger.Error(err, "save results", "file", *output)
			return 1
		}
		fmt.Printf("\nResults saved to %s\n", *output)
	}
	return 0
}

func loadDataset(path string) (combine.Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return combine.Dataset{}, fmt.Errorf("read dataset: %w", err)
	}
	var data combine.Dataset
	if err := json.Unmarshal(raw, &data); err != nil {
		return combine.Dataset{}, fmt.Errorf("decode dataset: %w", err)
	}
	return data, nil
}

// dateWindow folds an exact-date flag and a from/to pair into one window.
// The exact date wins and collapses the window to a single day.
func dateWindow(exact, from, to, deprecatedExact string) combine.DateWindow {
	if exact == "" {
		exact = deprecatedExact
	}
	if exact != "" {
		return combine.DateWindow{From: exact, To: exact}
	}
	return combine.DateWindow{From: from, To: to}
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func printHeader(data combine.Dataset, inputFile string, minStay, maxStay int, via string, leg1, leg2 combine.DateWindow) {
	fmt.Printf("Input file: %s\n", inputFile)
	fmt.Printf("Stay range: %d-%d days\n", minStay, maxStay)
	if via != "" {
		fmt.Printf("Via city: %s\n", via)
	}
	printWindow("leg1", leg1)
	printWindow("leg2", leg2)

	meta := data.Metadata
	if meta.Origin != "" {
		fmt.Printf("\nRoute: %s -> [%s] -> %s\n",
			meta.Origin, strings.Join(meta.IntermediateAirports, ", "), meta.Destination)
		fmt.Printf("Collected flights: %d\n", meta.TotalFlights)
	}
}

func printWindow(name string, w combine.DateWindow) {
	switch {
	case w.IsZero():
	case w.From == w.To:
		fmt.Printf("Departure date (%s): %s\n", name, w.From)
	default:
		fmt.Printf("Departure window (%s): %s - %s\n", name, orAny(w.From), orAny(w.To))
	}
}

func orAny(date string) string {
	if date == "" {
		return "any"
	}
	return date
}
