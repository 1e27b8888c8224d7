package domain

import "errors"

// Scoring error kinds. All of them describe a defect in a single itinerary:
// callers record them per itinerary and keep scoring the rest of the batch.
var (
	ErrInvalidCoordinate        = errors.New("coordinate out of range")
	ErrMissingDistance          = errors.New("leg distance missing")
	ErrEmptyItinerary           = errors.New("itinerary has no legs")
	ErrInvalidItineraryOrdering = errors.New("legs not chronologically ordered")
)
