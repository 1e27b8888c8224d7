package planner

import (
	"bytes"
	"context"
	"corridor-match-service/internal/domain"
	"corridor-match-service/internal/platform/obs"
	"corridor-match-service/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// OTPPlanner implements TripPlanner against an OpenTripPlanner GraphQL
// endpoint.
//
// It coordinates:
//   - GraphQL plan queries for candidate itineraries
//   - Stop lookups with a persistent coordinate cache in front
//   - External API calls with retry/backoff
//
// The planner is safe for concurrent use.
type OTPPlanner struct {
	session   *http.Client
	endpoint  string
	apiKey    string
	stopCache ports.StopCache
}

// NewOTPPlanner builds a planner for the given GraphQL endpoint. The api key
// and stop cache are both optional.
func NewOTPPlanner(endpoint, apiKey string, stopCache ports.StopCache) (*OTPPlanner, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, errors.New("OTP endpoint is empty")
	}

	return &OTPPlanner{
		session:   &http.Client{Timeout: 15 * time.Second},
		endpoint:  strings.TrimRight(endpoint, "/"),
		apiKey:    apiKey,
		stopCache: stopCache,
	}, nil
}

// PlanItineraries queries the planner for candidate itineraries between two
// points. The raw candidates come back unvalidated; scoring decides which of
// them are usable.
func (o *OTPPlanner) PlanItineraries(
	ctx context.Context,
	q ports.TripQuery,
) (_ []ports.PlannedItinerary, err error) {
	defer obs.Time(ctx, "otp.PlanItineraries")(&err)

	if err := q.From.Validate(); err != nil {
		return nil, fmt.Errorf("plan itineraries: origin: %w", err)
	}
	if err := q.To.Validate(); err != nil {
		return nil, fmt.Errorf("plan itineraries: destination: %w", err)
	}

	n := q.MaxItineraries
	if n <= 0 {
		n = 5
	}

	payload, err := json.Marshal(graphQLRequest{
		Query: planQuery,
		Variables: map[string]any{
			"fromLat":        q.From.Lat,
			"fromLon":        q.From.Lon,
			"toLat":          q.To.Lat,
			"toLon":          q.To.Lon,
			"date":           q.DepartAt.Format("2006-01-02"),
			"time":           q.DepartAt.Format("15:04"),
			"numItineraries": n,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("plan itineraries: marshal query: %w", err)
	}

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, bytes.NewReader(payload))
	})
	if err != nil {
		return nil, fmt.Errorf("plan itineraries: plan request failed: %w", err)
	}
	defer resp.Body.Close()

	var pr planResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("plan itineraries: decode plan response: %w", err)
	}
	if len(pr.Errors) > 0 {
		return nil, fmt.Errorf("plan itineraries: planner error: %s", pr.Errors[0].Message)
	}

	out := make([]ports.PlannedItinerary, 0, len(pr.Data.Plan.Itineraries))
	for _, it := range pr.Data.Plan.Itineraries {
		out = append(out, toPlanned(it))
	}

	return out, nil
}

// LookupStop resolves a stop identifier to its location, consulting the
// persistent cache before asking the planner. A cache write failure is only
// logged; the lookup result is still returned.
func (o *OTPPlanner) LookupStop(
	ctx context.Context,
	stopID string,
) (_ ports.StopLocation, err error) {
	defer obs.Time(ctx, "otp.LookupStop")(&err)

	id := strings.TrimSpace(stopID)
	if id == "" {
		return ports.StopLocation{}, errors.New("lookup stop: stop id is empty")
	}

	if o.stopCache != nil {
		loc, ok, err := o.stopCache.GetStop(ctx, id)
		if err != nil {
			return ports.StopLocation{}, fmt.Errorf("lookup stop: stop cache: %w", err)
		}
		if ok {
			return loc, nil
		}
	}

	payload, err := json.Marshal(graphQLRequest{
		Query:     stopQuery,
		Variables: map[string]any{"id": id},
	})
	if err != nil {
		return ports.StopLocation{}, fmt.Errorf("lookup stop: marshal query: %w", err)
	}

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, bytes.NewReader(payload))
	})
	if err != nil {
		return ports.StopLocation{}, fmt.Errorf("lookup stop %q: request failed: %w", id, err)
	}
	defer resp.Body.Close()

	var sr stopResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return ports.StopLocation{}, fmt.Errorf("lookup stop %q: decode response: %w", id, err)
	}
	if len(sr.Errors) > 0 {
		return ports.StopLocation{}, fmt.Errorf("lookup stop %q: planner error: %s", id, sr.Errors[0].Message)
	}
	if sr.Data.Stop == nil {
		return ports.StopLocation{}, fmt.Errorf("lookup stop: no stop found for %q: %w", id, ports.ErrNotFound)
	}

	loc := ports.StopLocation{
		StopID:   sr.Data.Stop.GtfsID,
		Name:     sr.Data.Stop.Name,
		Position: domain.Coordinates{Lat: sr.Data.Stop.Lat, Lon: sr.Data.Stop.Lon},
	}
	if err := loc.Position.Validate(); err != nil {
		return ports.StopLocation{}, fmt.Errorf("lookup stop %q: %w", id, err)
	}

	if o.stopCache != nil {
		if err := o.stopCache.PutStop(ctx, loc); err != nil {
			log.Printf("stop cache write failed: %v", err)
		}
	}

	return loc, nil
}
