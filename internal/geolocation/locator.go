package geolocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
)

// PositionErrorCode mirrors the failure reasons of a device location request.
type PositionErrorCode int

const (
	CodeUnknown PositionErrorCode = iota
	CodePermissionDenied
	CodePositionUnavailable
	CodeTimeout
)

// PositionError is returned by a Locator that can classify its failure.
type PositionError struct {
	Code PositionErrorCode
	Err  error
}

func (e *PositionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("position error %d", e.Code)
	}
	return fmt.Sprintf("position error %d: %v", e.Code, e.Err)
}

func (e *PositionError) Unwrap() error { return e.Err }

// Locator obtains the current position. A single call, no tracking.
type Locator interface {
	CurrentPosition(ctx context.Context) (Coordinates, error)
}

// LocatorFunc adapts a function to the Locator interface.
type LocatorFunc func(ctx context.Context) (Coordinates, error)

func (f LocatorFunc) CurrentPosition(ctx context.Context) (Coordinates, error) {
	return f(ctx)
}

// StaticLocator always reports the same position.
type StaticLocator struct {
	Position Coordinates
}

func (s StaticLocator) CurrentPosition(context.Context) (Coordinates, error) {
	return s.Position, nil
}

// DeniedLocator behaves like a user who refused location access.
type DeniedLocator struct{}

func (DeniedLocator) CurrentPosition(context.Context) (Coordinates, error) {
	return Coordinates{}, &PositionError{Code: CodePermissionDenied, Err: errors.New("geolocation disabled")}
}

// IPLocator looks the position up from the public IP this process egresses
// from, which is the server's location rather than the view client's.
// The endpoint must answer in the ip-api.com JSON shape.
type IPLocator struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client
}

type ipLookupResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// NewIPLocator creates a locator for url; timeout <= 0 disables the lookup deadline.
func NewIPLocator(url string, timeout time.Duration, httpClient ...*http.Client) *IPLocator {
	client := http.DefaultClient
	if len(httpClient) > 0 && httpClient[0] != nil {
		client = httpClient[0]
	}
	return &IPLocator{
		url:        url,
		timeout:    timeout,
		httpClient: client,
	}
}

func (l *IPLocator) CurrentPosition(ctx context.Context) (Coordinates, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return Coordinates{}, err
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Coordinates{}, &PositionError{Code: CodeTimeout, Err: err}
		}
		return Coordinates{}, &PositionError{Code: CodeUnknown, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Coordinates{}, &PositionError{Code: CodePermissionDenied, Err: fmt.Errorf("lookup refused with status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return Coordinates{}, fmt.Errorf("lookup failed with status %d", resp.StatusCode)
	}

	var body ipLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Coordinates{}, fmt.Errorf("decode lookup response: %w", err)
	}
	if body.Status != "success" {
		return Coordinates{}, &PositionError{Code: CodePositionUnavailable, Err: errors.New(body.Message)}
	}
	return Coordinates{Lat: body.Lat, Lon: body.Lon}, nil
}

// NewLocatorFromConfig picks the locator named by geolocation.provider.
func NewLocatorFromConfig() Locator {
	switch config.GetGeolocationProvider() {
	case "static":
		lat, lon := config.GetStaticCoordinates()
		return StaticLocator{Position: Coordinates{Lat: lat, Lon: lon}}
	case "disabled":
		return DeniedLocator{}
	default:
		return NewIPLocator(config.GetGeolocationApiUrl(), config.GetGeolocationTimeout())
	}
}
