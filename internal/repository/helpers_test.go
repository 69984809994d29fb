package repository

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/fakhrymubarak/weather-dashboard/internal/geolocation"
)

// RoundTripperFunc allows us to easily mock http.Client responses in tests.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newMockHTTPClient(fn func(req *http.Request) (*http.Response, error)) *http.Client {
	return &http.Client{Transport: RoundTripperFunc(fn)}
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

// stubResolver records calls and returns a fixed outcome.
type stubResolver struct {
	calls  int
	coords geolocation.Coordinates
	err    error
}

func (s *stubResolver) ResolveCoordinates(ctx context.Context, lat, lon string) (geolocation.Coordinates, error) {
	s.calls++
	return s.coords, s.err
}

var testOptions = Options{
	BaseURL:     "http://owm.test/data/2.5",
	APIKey:      "testkey",
	QueryType:   "accurate",
	ResultCount: 5,
}
