package repository

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/fakhrymubarak/weather-dashboard/internal/geolocation"
	"github.com/fakhrymubarak/weather-dashboard/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const currentBody = `{
	"name": "Columbus",
	"dt": 1534444011,
	"main": {"temp": 295.1, "temp_min": 293.15, "temp_max": 297.04, "humidity": 64},
	"weather": [{"id": 800, "main": "Clear", "description": "clear sky", "icon": "01d"}]
}`

const forecastBody = `{
	"city": "Columbus",
	"list": [
		{"dt": 1534449600, "main": {"temp_min": 290.1, "temp_max": 296.3, "humidity": 70}, "weather": [{"description": "light rain", "icon": "10d"}]},
		{"dt": 1534536000, "main": {"temp_min": 289.4, "temp_max": 299.8, "humidity": 55}, "weather": [{"description": "few clouds", "icon": "02d"}]},
		{"dt": 1534622400, "main": {"temp_min": 288.0, "temp_max": 300.2, "humidity": 48}, "weather": [{"description": "clear sky", "icon": "01d"}]}
	]
}`

func TestNewWeatherRepository(t *testing.T) {
	repo := NewWeatherRepository(&stubResolver{}, Options{})
	if repo == nil {
		t.Error("Expected repository to be created")
	}
	impl := repo.(*weatherRepository)
	assert.Equal(t, "accurate", impl.queryType)
	assert.Equal(t, 5, impl.resultCount)
	assert.Equal(t, "http://api.openweathermap.org/data/2.5", impl.baseURL)
}

func TestGetForecastByCity_Columbus(t *testing.T) {
	var gotReq *http.Request
	client := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		gotReq = req
		return jsonResponse(http.StatusOK, forecastBody), nil
	})
	repo := NewWeatherRepository(&stubResolver{}, testOptions, client)

	forecast, err := repo.GetForecastByCity(context.Background(), "Columbus")
	require.NoError(t, err)
	require.NotNil(t, forecast)

	assert.Equal(t, "Columbus", forecast.Location)
	require.Len(t, forecast.Entries, 3)
	assert.Equal(t, []int64{1534449600, 1534536000, 1534622400},
		[]int64{forecast.Entries[0].ObservedAt, forecast.Entries[1].ObservedAt, forecast.Entries[2].ObservedAt})
	assert.Equal(t, "light rain", forecast.Entries[0].Summary)
	assert.Equal(t, "Columbus", forecast.Entries[2].Location)

	require.NotNil(t, gotReq)
	assert.Equal(t, http.MethodGet, gotReq.Method)
	assert.Equal(t, "/data/2.5/forecast", gotReq.URL.Path)
	q := gotReq.URL.Query()
	assert.Equal(t, "Columbus", q.Get("q"))
	assert.Equal(t, "accurate", q.Get("type"))
	assert.Equal(t, "5", q.Get("cnt"))
	assert.Equal(t, "testkey", q.Get("APPID"))
	assert.Empty(t, q.Get("lat"))
}

func TestGetCurrentWeatherByCity_Success(t *testing.T) {
	client := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/data/2.5/weather", req.URL.Path)
		assert.Equal(t, "New York", req.URL.Query().Get("q"))
		assert.Contains(t, req.URL.RawQuery, "q=New+York")
		return jsonResponse(http.StatusOK, currentBody), nil
	})
	repo := NewWeatherRepository(&stubResolver{}, testOptions, client)

	conditions, err := repo.GetCurrentWeatherByCity(context.Background(), "New York")
	require.NoError(t, err)
	assert.Equal(t, "Columbus", conditions.Location)
	assert.Equal(t, int64(1534444011), conditions.ObservedAt)
	assert.Equal(t, "clear sky", conditions.Summary)
	assert.Equal(t, "01d", conditions.ConditionCode)
	assert.Equal(t, 297.04, conditions.Metrics["temp_max"])
}

func TestGetCurrentWeatherByCity_NetworkFailure(t *testing.T) {
	client := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	repo := NewWeatherRepository(&stubResolver{}, testOptions, client)

	var (
		conditions *model.WeatherConditions
		err        error
	)
	assert.NotPanics(t, func() {
		conditions, err = repo.GetCurrentWeatherByCity(context.Background(), "X")
	})
	assert.Nil(t, conditions)
	assert.ErrorIs(t, err, model.ErrNetworkFailure)
}

func TestGetCurrentWeatherByCoordinates_ResolvesFirst(t *testing.T) {
	resolver := &stubResolver{coords: geolocation.Coordinates{Lat: 39.9612, Lon: -82.9988}}
	calls := 0
	client := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		calls++
		q := req.URL.Query()
		assert.Equal(t, "39.9612", q.Get("lat"))
		assert.Equal(t, "-82.9988", q.Get("lon"))
		assert.Empty(t, q.Get("q"))
		return jsonResponse(http.StatusOK, currentBody), nil
	})
	repo := NewWeatherRepository(resolver, testOptions, client)

	_, err := repo.GetCurrentWeatherByCoordinates(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, resolver.calls)
	assert.Equal(t, 1, calls, "exactly one request per call")
}

func TestCoordinateVariants_ResolverFailureShortCircuits(t *testing.T) {
	resolverErr := model.NewError(model.KindGeolocationDenied, geolocation.MsgPermissionDenied, nil)
	client := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		t.Fatalf("no request expected, got %s", req.URL)
		return nil, nil
	})
	repo := NewWeatherRepository(&stubResolver{err: resolverErr}, testOptions, client)

	conditions, err := repo.GetCurrentWeatherByCoordinates(context.Background(), "-1", "-1")
	assert.Nil(t, conditions)
	assert.Same(t, resolverErr, err)

	forecast, err := repo.GetForecastByCoordinates(context.Background(), "-1", "-1")
	assert.Nil(t, forecast)
	assert.ErrorIs(t, err, model.ErrGeolocationDenied)
}

func TestGetForecastByCoordinates_Success(t *testing.T) {
	resolver := &stubResolver{coords: geolocation.Coordinates{Lat: 10, Lon: 20}}
	client := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/data/2.5/forecast", req.URL.Path)
		assert.Equal(t, "10", req.URL.Query().Get("lat"))
		return jsonResponse(http.StatusOK, forecastBody), nil
	})
	repo := NewWeatherRepository(resolver, testOptions, client)

	forecast, err := repo.GetForecastByCoordinates(context.Background(), "10", "20")
	require.NoError(t, err)
	assert.Len(t, forecast.Entries, 3)
}

func TestWeatherRepository_ErrorCases(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   error
		msg    string
	}{
		{"city not found", http.StatusNotFound, `{"cod":"404","message":"city not found"}`, model.ErrServiceError, "city not found"},
		{"invalid key", http.StatusUnauthorized, `{"cod":401,"message":"Invalid API key"}`, model.ErrServiceError, "Invalid API key"},
		{"server error without body", http.StatusInternalServerError, `oops`, model.ErrServiceError, "Internal Server Error"},
		{"not json", http.StatusOK, `not-json`, model.ErrMalformedResponse, ""},
		{"missing weather array", http.StatusOK, `{"name":"X","dt":1,"main":{"temp":1}}`, model.ErrMalformedResponse, ""},
		{"missing main", http.StatusOK, `{"name":"X","dt":1,"weather":[{"icon":"01d"}]}`, model.ErrMalformedResponse, ""},
		{"missing timestamp", http.StatusOK, `{"name":"X","main":{"temp":1},"weather":[{"icon":"01d"}]}`, model.ErrMalformedResponse, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
				return jsonResponse(tt.status, tt.body), nil
			})
			repo := NewWeatherRepository(&stubResolver{}, testOptions, client)

			conditions, err := repo.GetCurrentWeatherByCity(context.Background(), "X")
			assert.Nil(t, conditions)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			if tt.msg != "" {
				var desc *model.ErrorDescriptor
				require.ErrorAs(t, err, &desc)
				assert.Equal(t, tt.msg, desc.Message)
			}
		})
	}
}

func TestGetForecastByCity_MalformedEntries(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing city", `{"list":[{"dt":1,"main":{"temp":1}}]}`},
		{"entry without main", `{"city":"Columbus","list":[{"dt":1}]}`},
		{"list is not an array", `{"city":"Columbus","list":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, tt.body), nil
			})
			repo := NewWeatherRepository(&stubResolver{}, testOptions, client)

			forecast, err := repo.GetForecastByCity(context.Background(), "Columbus")
			assert.Nil(t, forecast)
			assert.ErrorIs(t, err, model.ErrMalformedResponse)
		})
	}
}

func TestGetWeather_MissingAPIKey(t *testing.T) {
	os.Unsetenv("OPENWEATHERMAP_API_KEY")
	client := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected without an API key")
		return nil, nil
	})
	opts := testOptions
	opts.APIKey = ""
	repo := NewWeatherRepository(&stubResolver{}, opts, client)

	_, err := repo.GetCurrentWeatherByCity(context.Background(), "London")
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func TestCoordinateVariants_NoResolver(t *testing.T) {
	repo := NewWeatherRepository(nil, testOptions, http.DefaultClient)
	_, err := repo.GetCurrentWeatherByCoordinates(context.Background(), "1", "2")
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func TestBuildURL(t *testing.T) {
	repo := NewWeatherRepository(&stubResolver{}, testOptions).(*weatherRepository)
	got := repo.buildURL(ResourceWeather, repo.cityQuery("Columbus"))
	assert.Equal(t, "http://owm.test/data/2.5/weather?APPID=testkey&cnt=5&q=Columbus&type=accurate", got)
}
