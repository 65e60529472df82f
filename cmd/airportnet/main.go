// Command airportnet builds the airport proximity network from an airport
// dataset file and saves it as JSON, optionally pushing it to Neo4j.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/viafly/viafly/airports"
	"github.com/viafly/viafly/config"
	"github.com/viafly/viafly/db"
	"github.com/viafly/viafly/pkg/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("airportnet", flag.ExitOnError)

	input := fs.String("input", "", "path to the airport dataset (JSON array)")
	output := fs.String("output", "data/airport_network.json", "path for the network document")
	maxDistance := fs.Float64("max-distance", 100, "maximum neighbor distance in kilometers")
	pushNeo4j := fs.Bool("neo4j", false, "also persist the network to Neo4j")
	showClusters := fs.Bool("clusters", false, "print connected proximity clusters")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: airportnet -input airports.json [flags]\n\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal(err, "load configuration")
	}
	logger.Init(logger.Config{Level: cfg.LoggingConfig.Level, Format: "text"})

	inputFile := *input
	if inputFile == "" {
		inputFile = cfg.NetworkConfig.AirportsFile
	}
	if inputFile == "" {
		fmt.Fprintln(os.Stderr, "error: -input is required")
		return 2
	}
	if *maxDistance < 0 {
		fmt.Fprintln(os.Stderr, "error: -max-distance must not be negative")
		return 2
	}

	if _, err := os.Stat(inputFile); os.IsNotExist(err) {
		fmt.Printf("file %s not found\n", inputFile)
		return 0
	}

	records, err := airports.LoadFile(inputFile)
	if err != nil {
		logger.Error(err, "load airports", "file", inputFile)
		return 1
	}
	fmt.Printf("Loaded %d airport records\n", len(records))
	fmt.Printf("Building proximity network (max distance: %.0f km)...\n", *maxDistance)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	network, err := airports.BuildNetwork(ctx, records, *maxDistance)
	if err != nil {
		logger.Error(err, "build network")
		return 1
	}

	if err := network.SaveFile(*output); err != nil {
		logger.Error(err, "save network", "file", *output)
		return 1
	}
	fmt.Printf("Network saved to %s\n", *output)

	printStats(network)

	if *showClusters {
		clusters, err := airports.Clusters(network)
		if err != nil {
			logger.Error(err, "cluster network")
			return 1
		}
		fmt.Printf("\nProximity clusters (%d):\n", len(clusters))
		for _, cluster := range clusters {
			if len(cluster) > 1 {
				fmt.Printf("  %v\n", cluster)
			}
		}
	}

	if *pushNeo4j {
		graph, err := db.NewNeo4jDB(cfg.Neo4jConfig)
		if err != nil {
			logger.Error(err, "connect to neo4j")
			return 1
		}
		defer graph.Close()

		if err := graph.InitSchema(); err != nil {
			logger.Error(err, "init neo4j schema")
			return 1
		}
		if err := graph.SaveNetwork(network); err != nil {
			logger.Error(err, "save network to neo4j")
			return 1
		}
		fmt.Println("Network persisted to Neo4j")
	}
	return 0
}

func printStats(network airports.Network) {
	totalEdges := network.TotalEdges()
	avg := 0.0
	if len(network) > 0 {
		avg = float64(totalEdges) / float64(len(network))
	}
	fmt.Printf("\nStatistics:\n")
	fmt.Printf("  airports in network: %d\n", len(network))
	fmt.Printf("  proximity edges: %d\n", totalEdges)
	fmt.Printf("  average neighbors per airport: %.2f\n", avg)
}
