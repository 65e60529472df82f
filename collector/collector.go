package collector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/viafly/viafly/combine"
	"github.com/viafly/viafly/pkg/logger"
	"github.com/viafly/viafly/pkg/timeparse"
)

// Leg names tagged onto collected offers.
const (
	Leg1 = "leg1"
	Leg2 = "leg2"
)

// Collector runs leg sweeps against the pricing API with a fixed delay
// between requests.
type Collector struct {
	client   *Client
	delay    time.Duration
	currency string
}

// New creates a collector around a pricing client.
func New(client *Client, requestDelay time.Duration) *Collector {
	return &Collector{client: client, delay: requestDelay, currency: client.currency}
}

// Params describes one collection run.
type Params struct {
	Origin        string
	Destination   string   // optional: empty collects departures only
	Intermediates []string // optional: explicit via cities instead of open search
	Leg1Dates     []string // YYYY-MM-DD, inclusive sweep
	Leg2Dates     []string
}

// CollectLeg sweeps one leg of the route over a date range. Failed requests
// degrade to an empty page and the sweep continues; the returned offers are
// tagged with the leg name and the search parameters that produced them.
func (c *Collector) CollectLeg(ctx context.Context, origin, destination string, dates []string, legName string) ([]combine.Offer, error) {
	if len(dates) == 0 {
		// Undated query: a single request for the whole route.
		dates = []string{""}
	}

	var all []combine.Offer
	for i, date := range dates {
		if i > 0 {
			// Fixed pacing between requests; the API side handles no retry.
			select {
			case <-ctx.Done():
				return all, ctx.Err()
			case <-time.After(c.delay):
			}
		}

		offers, err := c.client.FetchFlights(ctx, origin, destination, date)
		if err != nil {
			if ctx.Err() != nil {
				return all, ctx.Err()
			}
			logger.Warn("price request failed, skipping date",
				"leg", legName, "origin", orAny(origin), "destination", orAny(destination),
				"date", date, "error", err)
			continue
		}

		for _, offer := range offers {
			offer.Leg = legName
			offer.SearchOrigin = origin
			offer.SearchDestination = destination
			offer.SearchDate = date
			all = append(all, offer)
		}
		logger.Debug("collected offers",
			"leg", legName, "date", date, "count", len(offers))
	}
	return all, nil
}

// Collect runs both leg sweeps and assembles the dataset document. With
// explicit intermediates, each via city is swept as its own route; otherwise
// the open "any destination"/"any origin" queries discover them.
func (c *Collector) Collect(ctx context.Context, p Params) (combine.Dataset, error) {
	if p.Origin == "" {
		return combine.Dataset{}, fmt.Errorf("collect: origin is required")
	}

	var leg1 []combine.Offer
	if len(p.Intermediates) > 0 {
		for _, via := range p.Intermediates {
			offers, err := c.CollectLeg(ctx, p.Origin, via, p.Leg1Dates, Leg1)
			if err != nil {
				return combine.Dataset{}, err
			}
			leg1 = append(leg1, offers...)
		}
	} else {
		offers, err := c.CollectLeg(ctx, p.Origin, "", p.Leg1Dates, Leg1)
		if err != nil {
			return combine.Dataset{}, err
		}
		leg1 = offers
	}

	var leg2 []combine.Offer
	if p.Destination != "" && len(p.Leg2Dates) > 0 {
		if len(p.Intermediates) > 0 {
			for _, via := range p.Intermediates {
				offers, err := c.CollectLeg(ctx, via, p.Destination, p.Leg2Dates, Leg2)
				if err != nil {
					return combine.Dataset{}, err
				}
				leg2 = append(leg2, offers...)
			}
		} else {
			offers, err := c.CollectLeg(ctx, "", p.Destination, p.Leg2Dates, Leg2)
			if err != nil {
				return combine.Dataset{}, err
			}
			leg2 = offers
		}
	}

	metadata := combine.Metadata{
		Origin:               p.Origin,
		Destination:          p.Destination,
		IntermediateAirports: intermediates(p, leg1),
		Currency:             c.currency,
		CollectedAt:          time.Now().Format(timeparse.ISOLayout),
		TotalFlights:         len(leg1) + len(leg2),
	}
	if len(p.Leg1Dates) > 0 {
		metadata.Leg1DateRange = &combine.DateRange{Start: p.Leg1Dates[0], End: p.Leg1Dates[len(p.Leg1Dates)-1]}
	}
	if len(p.Leg2Dates) > 0 {
		metadata.Leg2DateRange = &combine.DateRange{Start: p.Leg2Dates[0], End: p.Leg2Dates[len(p.Leg2Dates)-1]}
	}

	return combine.Dataset{
		Metadata:    metadata,
		Leg1Flights: leg1,
		Leg2Flights: leg2,
	}, nil
}

// intermediates returns the explicit via list or, for open searches, the
// distinct destinations discovered by the first leg, sorted.
func intermediates(p Params, leg1 []combine.Offer) []string {
	if len(p.Intermediates) > 0 {
		return p.Intermediates
	}
	seen := make(map[string]bool)
	for _, offer := range leg1 {
		if offer.Destination != "" {
			seen[offer.Destination] = true
		}
	}
	discovered := make([]string, 0, len(seen))
	for code := range seen {
		discovered = append(discovered, code)
	}
	sort.Strings(discovered)
	return discovered
}

// DateRange expands an inclusive YYYY-MM-DD range into individual dates.
func DateRange(start, end string) ([]string, error) {
	from, err := time.Parse(timeparse.DateLayout, start)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	to, err := time.Parse(timeparse.DateLayout, end)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("end date %s precedes start date %s", end, start)
	}

	var dates []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(timeparse.DateLayout))
	}
	return dates, nil
}
