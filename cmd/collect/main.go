// Command collect sweeps the pricing API for both legs of a route and
// writes the collected dataset to a JSON file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/viafly/viafly/collector"
	"github.com/viafly/viafly/config"
	"github.com/viafly/viafly/pkg/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("collect", flag.ExitOnError)

	leg1Dates := fs.String("leg1-dates", "", "leg1 departure date range as START,END (YYYY-MM-DD, inclusive)")
	leg2Dates := fs.String("leg2-dates", "", "leg2 departure date range as START,END")
	intermediate := fs.String("intermediate", "", "comma-separated via city codes instead of open search")
	currency := fs.String("currency", "", "currency code (default from environment)")
	output := fs.String("output", "", "output file path (default data/flights_<route>_<timestamp>.json)")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: collect [flags] <origin> [destination]\n\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		return 2
	}
	origin := fs.Arg(0)
	destination := fs.Arg(1)

	if *leg1Dates == "" {
		fmt.Fprintln(os.Stderr, "error: -leg1-dates is required")
		return 2
	}

	leg1, err := parseDates(*leg1Dates)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: -leg1-dates: %v\n", err)
		return 2
	}
	var leg2 []string
	if *leg2Dates != "" {
		leg2, err = parseDates(*leg2Dates)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: -leg2-dates: %v\n", err)
			return 2
		}
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal(err, "load configuration")
	}
	logger.Init(logger.Config{Level: cfg.LoggingConfig.Level, Format: "text"})
	if *currency != "" {
		cfg.CollectorConfig.Currency = *currency
	}

	var intermediates []string
	if *intermediate != "" {
		intermediates = strings.Split(*intermediate, ",")
	}

	printRoute(origin, destination, intermediates)
	fmt.Printf("Leg1 dates: %s - %s (%d days)\n", leg1[0], leg1[len(leg1)-1], len(leg1))
	if len(leg2) > 0 {
		fmt.Printf("Leg2 dates: %s - %s (%d days)\n", leg2[0], leg2[len(leg2)-1], len(leg2))
	}
	fmt.Printf("Currency: %s\n\n", cfg.CollectorConfig.Currency)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := collector.NewClient(cfg.CollectorConfig, nil)
	c := collector.New(client, cfg.CollectorConfig.RequestDelay)

	dataset, err := c.Collect(ctx, collector.Params{
		Origin:        origin,
		Destination:   destination,
		Intermediates: intermediates,
		Leg1Dates:     leg1,
		Leg2Dates:     leg2,
	})
	if err != nil {
		logger.Error(err, "collect flights")
		return 1
	}

	outputFile := *output
	if outputFile == "" {
		destStr := destination
		if destStr == "" {
			destStr = "ALL"
		}
		outputFile = filepath.Join("data", fmt.Sprintf("flights_%s_%s_%s.json",
			origin, destStr, time.Now().Format("20060102_150405")))
	}

	if err := saveDataset(dataset, outputFile); err != nil {
		logger.Error(err, "save dataset", "file", outputFile)
		return 1
	}

	fmt.Printf("Collected %d flights (%d leg1, %d leg2)\n",
		dataset.Metadata.TotalFlights, len(dataset.Leg1Flights), len(dataset.Leg2Flights))
	fmt.Printf("Dataset saved to %s\n", outputFile)
	return 0
}

func parseDates(spec string) ([]string, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("expected START,END, got %q", spec)
	}
	return collector.DateRange(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
}

func printRoute(origin, destination string, intermediates []string) {
	switch {
	case len(intermediates) > 0:
		fmt.Printf("Route: %s -> [%s] -> %s\n", origin, strings.Join(intermediates, ", "), destination)
	case destination != "":
		fmt.Printf("Route: %s -> [ALL DESTINATIONS] -> %s\n", origin, destination)
	default:
		fmt.Printf("Destinations from: %s\n", origin)
	}
}

func saveDataset(dataset interface{}, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	raw, err := json.MarshalIndent(dataset, "", "  ")
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	return nil
}
