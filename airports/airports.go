// Package airports builds a bounded-radius proximity network over an
// airport reference dataset.
package airports

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/viafly/viafly/pkg/geo"
)

// Airport is one static reference record from the airport dataset.
type Airport struct {
	IATACode     string `json:"iata_code"`
	Name         string `json:"name"`
	Municipality string `json:"municipality"`
	ISOCountry   string `json:"iso_country"`
	Coordinates  string `json:"coordinates"` // "lat, lon"
}

// LoadFile reads an airport dataset document (a JSON array of records).
func LoadFile(path string) ([]Airport, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read airports file: %w", err)
	}
	var records []Airport
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode airports file %s: %w", path, err)
	}
	return records, nil
}

// resolved is an airport that survived code/coordinate validation.
type resolved struct {
	Airport
	coords geo.Coordinates
}

// resolveAirports drops records with a missing code or unparseable
// coordinates, preserving the input order of the survivors.
func resolveAirports(records []Airport) []resolved {
	out := make([]resolved, 0, len(records))
	for _, a := range records {
		if a.IATACode == "" {
			continue
		}
		coords, err := geo.ParseCoordinates(a.Coordinates)
		if err != nil {
			continue
		}
		out = append(out, resolved{Airport: a, coords: coords})
	}
	return out
}
