// Package combine assembles two-leg itineraries from independently collected
// one-way flight offers and summarizes the result set.
package combine

// Offer is one priced, directed, direct flight offer as collected from the
// pricing API. Most fields are optional in the wild; readers go through the
// accessor methods, which encode the documented fallback order.
type Offer struct {
	Origin            string  `json:"origin,omitempty"`
	Destination       string  `json:"destination,omitempty"`
	SearchOrigin      string  `json:"search_origin,omitempty"`
	SearchDestination string  `json:"search_destination,omitempty"`
	DepartureAt       string  `json:"departure_at,omitempty"`
	ArrivalAt         string  `json:"arrival_at,omitempty"`
	Duration          int     `json:"duration,omitempty"` // minutes
	Price             float64 `json:"price,omitempty"`
	Value             float64 `json:"value,omitempty"`
	Airline           string  `json:"airline,omitempty"`
	FlightNumber      string  `json:"flight_number,omitempty"`
	Link              string  `json:"link,omitempty"`
	Leg               string  `json:"leg,omitempty"`
	SearchDate        string  `json:"search_date,omitempty"`
}

// EffectiveOrigin is the offer's origin, falling back to the originally
// searched origin for offers fetched by "any origin" queries.
func (o Offer) EffectiveOrigin() string {
	if o.Origin != "" {
		return o.Origin
	}
	return o.SearchOrigin
}

// EffectiveDestination is the offer's destination, falling back to the
// originally searched destination for "any destination" queries.
func (o Offer) EffectiveDestination() string {
	if o.Destination != "" {
		return o.Destination
	}
	return o.SearchDestination
}

// EffectivePrice is the offer's price, falling back to the secondary value
// field, then to 0.
func (o Offer) EffectivePrice() float64 {
	if o.Price != 0 {
		return o.Price
	}
	if o.Value != 0 {
		return o.Value
	}
	return 0
}

// Leg is one side of a matched itinerary, with arrival always populated
// (possibly via the degraded derivation fallbacks).
type Leg struct {
	Origin       string  `json:"origin"`
	Destination  string  `json:"destination"`
	DepartureAt  string  `json:"departure_at"`
	ArrivalAt    string  `json:"arrival_at"`
	Price        float64 `json:"price"`
	Airline      string  `json:"airline,omitempty"`
	FlightNumber string  `json:"flight_number,omitempty"`
	Link         string  `json:"link,omitempty"`
	Duration     int     `json:"duration,omitempty"`
}

// Itinerary is a matched pair of legs through an intermediate city.
// Immutable once emitted.
type Itinerary struct {
	TotalPrice       float64 `json:"total_price"`
	StayDays         int     `json:"stay_days"`
	IntermediateCity string  `json:"intermediate_city"`
	Leg1             Leg     `json:"leg1"`
	Leg2             Leg     `json:"leg2"`
}

// DateRange is an inclusive range of YYYY-MM-DD dates.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Metadata describes how a dataset was collected.
type Metadata struct {
	Origin               string     `json:"origin"`
	Destination          string     `json:"destination,omitempty"`
	IntermediateAirports []string   `json:"intermediate_airports"`
	Leg1DateRange        *DateRange `json:"leg1_date_range,omitempty"`
	Leg2DateRange        *DateRange `json:"leg2_date_range,omitempty"`
	Currency             string     `json:"currency,omitempty"`
	CollectedAt          string     `json:"collected_at,omitempty"`
	TotalFlights         int        `json:"total_flights"`
}

// Dataset is the top-level collected document the engine consumes.
type Dataset struct {
	Metadata    Metadata `json:"metadata"`
	Leg1Flights []Offer  `json:"leg1_flights"`
	Leg2Flights []Offer  `json:"leg2_flights"`
}

// DateWindow bounds offer departure dates, compared on the YYYY-MM-DD prefix.
// Either bound may be empty, meaning open on that side.
type DateWindow struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// IsZero reports whether no bound is set.
func (w DateWindow) IsZero() bool {
	return w.From == "" && w.To == ""
}

// Contains reports whether the date (YYYY-MM-DD) falls inside the window.
// The fixed-width zero-padded format makes lexicographic comparison safe.
func (w DateWindow) Contains(date string) bool {
	if w.From != "" && date < w.From {
		return false
	}
	if w.To != "" && date > w.To {
		return false
	}
	return true
}

// Options controls a combination run.
type Options struct {
	MinStay    int
	MaxStay    int
	Leg1Window DateWindow
	Leg2Window DateWindow
	ViaCity    string
}
