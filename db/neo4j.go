package db

import (
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/viafly/viafly/airports"
	"github.com/viafly/viafly/config"
)

// Neo4jDatabase defines the graph store operations for the proximity network.
type Neo4jDatabase interface {
	InitSchema() error
	SaveNetwork(network airports.Network) error
	NearbyAirports(code string) ([]airports.Neighbor, error)
	Close() error
}

// Neo4jDB holds a Neo4j driver connection.
type Neo4jDB struct {
	driver neo4j.Driver
}

var _ Neo4jDatabase = (*Neo4jDB)(nil)

// NewNeo4jDB connects to Neo4j and verifies connectivity.
func NewNeo4jDB(cfg config.Neo4jConfig) (*Neo4jDB, error) {
	uri := strings.TrimSpace(cfg.URI)
	driver, err := neo4j.NewDriver(uri, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("connect to neo4j: %w", err)
	}
	if err := driver.VerifyConnectivity(); err != nil {
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return &Neo4jDB{driver: driver}, nil
}

// Close closes the driver connection.
func (n *Neo4jDB) Close() error {
	return n.driver.Close()
}

// InitSchema creates the uniqueness constraint on airport codes.
func (n *Neo4jDB) InitSchema() error {
	session := n.driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.Run(
		"CREATE CONSTRAINT airport_code IF NOT EXISTS FOR (a:Airport) REQUIRE a.code IS UNIQUE",
		nil,
	)
	if err != nil {
		return fmt.Errorf("create airport code constraint: %w", err)
	}
	return nil
}

// SaveNetwork persists the proximity network as Airport nodes connected by
// NEARBY relationships carrying the distance in kilometers.
func (n *Neo4jDB) SaveNetwork(network airports.Network) error {
	session := n.driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	for code, entry := range network {
		_, err := session.WriteTransaction(func(tx neo4j.Transaction) (interface{}, error) {
			_, err := tx.Run(
				"MERGE (a:Airport {code: $code}) "+
					"SET a.name = $name, a.municipality = $municipality, a.country = $country",
				map[string]interface{}{
					"code":         code,
					"name":         entry.Name,
					"municipality": entry.Municipality,
					"country":      entry.Country,
				},
			)
			if err != nil {
				return nil, err
			}
			for _, nb := range entry.NearbyAirports {
				// Undirected proximity: store one relationship per pair.
				if nb.IATA < code {
					continue
				}
				_, err := tx.Run(
					"MATCH (a:Airport {code: $code}) "+
						"MERGE (b:Airport {code: $nearby}) "+
						"MERGE (a)-[r:NEARBY]-(b) "+
						"SET r.distance_km = $distance",
					map[string]interface{}{
						"code":     code,
						"nearby":   nb.IATA,
						"distance": nb.DistanceKm,
					},
				)
				if err != nil {
					return nil, err
				}
			}
			return nil, nil
		})
		if err != nil {
			return fmt.Errorf("save airport %s: %w", code, err)
		}
	}
	return nil
}

// NearbyAirports lists an airport's neighbors ordered by distance.
func (n *Neo4jDB) NearbyAirports(code string) ([]airports.Neighbor, error) {
	session := n.driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	result, err := session.Run(
		"MATCH (a:Airport {code: $code})-[r:NEARBY]-(b:Airport) "+
			"RETURN b.code AS code, r.distance_km AS distance "+
			"ORDER BY distance",
		map[string]interface{}{"code": code},
	)
	if err != nil {
		return nil, fmt.Errorf("query nearby airports for %s: %w", code, err)
	}

	var neighbors []airports.Neighbor
	for result.Next() {
		record := result.Record()
		var nb airports.Neighbor
		if v, ok := record.Get("code"); ok {
			if s, ok := v.(string); ok {
				nb.IATA = s
			}
		}
		if v, ok := record.Get("distance"); ok {
			if f, ok := v.(float64); ok {
				nb.DistanceKm = f
			}
		}
		neighbors = append(neighbors, nb)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("iterate nearby airports for %s: %w", code, err)
	}
	return neighbors, nil
}
