package planner

import "corridor-match-service/internal/ports"

// GraphQL documents for the OpenTripPlanner GTFS API. Timestamps in the
// responses are Unix milliseconds; leg distances are metres.
const planQuery = `
query PlanTrip($fromLat: Float!, $fromLon: Float!, $toLat: Float!, $toLon: Float!, $date: String!, $time: String!, $numItineraries: Int!) {
  plan(
    from: {lat: $fromLat, lon: $fromLon}
    to: {lat: $toLat, lon: $toLon}
    date: $date
    time: $time
    numItineraries: $numItineraries
  ) {
    itineraries {
      startTime
      endTime
      duration
      legs {
        mode
        startTime
        endTime
        distance
        from { name lat lon stop { gtfsId } }
        to { name lat lon stop { gtfsId } }
        trip { gtfsId }
        route { gtfsId }
      }
    }
  }
}`

const stopQuery = `
query StopByID($id: String!) {
  stop(id: $id) {
    gtfsId
    name
    lat
    lon
  }
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type otpRef struct {
	GtfsID string `json:"gtfsId"`
}

type otpPlace struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Stop *otpRef `json:"stop"`
}

type otpLeg struct {
	Mode      string   `json:"mode"`
	StartTime int64    `json:"startTime"`
	EndTime   int64    `json:"endTime"`
	Distance  *float64 `json:"distance"`
	From      otpPlace `json:"from"`
	To        otpPlace `json:"to"`
	Trip      *otpRef  `json:"trip"`
	Route     *otpRef  `json:"route"`
}

type otpItinerary struct {
	StartTime int64    `json:"startTime"`
	EndTime   int64    `json:"endTime"`
	Duration  *int64   `json:"duration"`
	Legs      []otpLeg `json:"legs"`
}

type planResponse struct {
	Data struct {
		Plan struct {
			Itineraries []otpItinerary `json:"itineraries"`
		} `json:"plan"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type stopResponse struct {
	Data struct {
		Stop *struct {
			GtfsID string  `json:"gtfsId"`
			Name   string  `json:"name"`
			Lat    float64 `json:"lat"`
			Lon    float64 `json:"lon"`
		} `json:"stop"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// toPlanned maps a decoded OTP itinerary onto the loose boundary shape the
// scoring pipeline consumes.
func toPlanned(it otpItinerary) ports.PlannedItinerary {
	out := ports.PlannedItinerary{
		StartTimeMs: it.StartTime,
		EndTimeMs:   it.EndTime,
		DurationSec: it.Duration,
		Legs:        make([]ports.PlannedLeg, 0, len(it.Legs)),
	}

	for _, l := range it.Legs {
		leg := ports.PlannedLeg{
			Mode:           l.Mode,
			From:           toPlannedPlace(l.From),
			To:             toPlannedPlace(l.To),
			StartTimeMs:    l.StartTime,
			EndTimeMs:      l.EndTime,
			DistanceMeters: l.Distance,
		}
		if l.Trip != nil {
			leg.TripID = l.Trip.GtfsID
		}
		if l.Route != nil {
			leg.RouteID = l.Route.GtfsID
		}
		out.Legs = append(out.Legs, leg)
	}

	return out
}

func toPlannedPlace(p otpPlace) ports.PlannedPlace {
	place := ports.PlannedPlace{
		Name: p.Name,
		Lat:  p.Lat,
		Lon:  p.Lon,
	}
	if p.Stop != nil {
		place.StopID = p.Stop.GtfsID
	}
	return place
}
