package geolocation

import (
	"context"
	"errors"
	"math"
	"strconv"

	"github.com/fakhrymubarak/weather-dashboard/internal/model"
)

// Messages surfaced to the dashboard for each locator failure.
const (
	MsgPermissionDenied    = "User denied the request for Geolocation."
	MsgPositionUnavailable = "Location information is unavailable."
	MsgTimeout             = "The request to get user location timed out."
	MsgUnknown             = "An unknown geolocation error occurred."
)

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Resolver turns caller-supplied coordinate candidates into concrete
// coordinates, falling back to its Locator when the candidates are unusable.
type Resolver struct {
	locator Locator
}

func NewResolver(locator Locator) *Resolver {
	return &Resolver{locator: locator}
}

// ResolveCoordinates returns the candidates unchanged when both parse as finite,
// non-negative numbers. Otherwise the locator is queried once.
//
// Negative values count as missing, so legitimate western or southern
// coordinates are replaced by the locator's position.
func (r *Resolver) ResolveCoordinates(ctx context.Context, candidateLat, candidateLon string) (Coordinates, error) {
	lat, latOK := parseCandidate(candidateLat)
	lon, lonOK := parseCandidate(candidateLon)
	if latOK && lonOK {
		return Coordinates{Lat: lat, Lon: lon}, nil
	}

	if r.locator == nil {
		return Coordinates{}, model.NewError(model.KindGeolocationUnknown, MsgUnknown, errors.New("no locator configured"))
	}

	pos, err := r.locator.CurrentPosition(ctx)
	if err != nil {
		return Coordinates{}, describe(err)
	}
	return pos, nil
}

func parseCandidate(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// describe maps a locator failure onto an error descriptor.
func describe(err error) *model.ErrorDescriptor {
	var posErr *PositionError
	code := CodeUnknown
	switch {
	case errors.As(err, &posErr):
		code = posErr.Code
	case errors.Is(err, context.DeadlineExceeded):
		code = CodeTimeout
	}

	switch code {
	case CodePermissionDenied:
		return model.NewError(model.KindGeolocationDenied, MsgPermissionDenied, err)
	case CodePositionUnavailable:
		return model.NewError(model.KindGeolocationUnavailable, MsgPositionUnavailable, err)
	case CodeTimeout:
		return model.NewError(model.KindGeolocationTimeout, MsgTimeout, err)
	default:
		return model.NewError(model.KindGeolocationUnknown, MsgUnknown, err)
	}
}
