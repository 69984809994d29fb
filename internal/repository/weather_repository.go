package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
	"github.com/fakhrymubarak/weather-dashboard/internal/geolocation"
	"github.com/fakhrymubarak/weather-dashboard/internal/model"
)

// Resource paths under the provider base URL.
const (
	ResourceWeather  = "weather"
	ResourceForecast = "forecast"
)

var validate = validator.New()

// CoordinateResolver resolves possibly missing coordinates before a request.
type CoordinateResolver interface {
	ResolveCoordinates(ctx context.Context, candidateLat, candidateLon string) (geolocation.Coordinates, error)
}

// WeatherRepository defines the interface for weather data access.
// Every method returns either a value or a *model.ErrorDescriptor, never both.
type WeatherRepository interface {
	GetCurrentWeatherByCoordinates(ctx context.Context, lat, lon string) (*model.WeatherConditions, error)
	GetForecastByCoordinates(ctx context.Context, lat, lon string) (*model.Forecast, error)
	GetCurrentWeatherByCity(ctx context.Context, city string) (*model.WeatherConditions, error)
	GetForecastByCity(ctx context.Context, city string) (*model.Forecast, error)
}

// Options overrides configuration-derived settings. Zero values fall back to config.
type Options struct {
	BaseURL     string
	APIKey      string
	QueryType   string
	ResultCount int
}

// weatherRepository implements WeatherRepository against OpenWeatherMap.
type weatherRepository struct {
	httpClient  *http.Client
	resolver    CoordinateResolver
	baseURL     string
	apiKey      string
	queryType   string
	resultCount int
}

// NewWeatherRepository creates a new weather repository instance
func NewWeatherRepository(resolver CoordinateResolver, opts Options, httpClient ...*http.Client) WeatherRepository {
	client := http.DefaultClient
	if len(httpClient) > 0 && httpClient[0] != nil {
		client = httpClient[0]
	}
	if opts.BaseURL == "" {
		opts.BaseURL = config.GetOpenWeatherApiUrl()
	}
	if opts.APIKey == "" {
		opts.APIKey = config.GetOpenWeatherMapAPIKey()
	}
	if opts.QueryType == "" {
		opts.QueryType = config.GetQueryType()
	}
	if opts.ResultCount <= 0 {
		opts.ResultCount = config.GetResultCount()
	}
	return &weatherRepository{
		httpClient:  client,
		resolver:    resolver,
		baseURL:     opts.BaseURL,
		apiKey:      opts.APIKey,
		queryType:   opts.QueryType,
		resultCount: opts.ResultCount,
	}
}

func (r *weatherRepository) GetCurrentWeatherByCoordinates(ctx context.Context, lat, lon string) (*model.WeatherConditions, error) {
	query, err := r.coordinateQuery(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	return r.fetchConditions(ctx, query)
}

func (r *weatherRepository) GetForecastByCoordinates(ctx context.Context, lat, lon string) (*model.Forecast, error) {
	query, err := r.coordinateQuery(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	return r.fetchForecast(ctx, query)
}

func (r *weatherRepository) GetCurrentWeatherByCity(ctx context.Context, city string) (*model.WeatherConditions, error) {
	return r.fetchConditions(ctx, r.cityQuery(city))
}

func (r *weatherRepository) GetForecastByCity(ctx context.Context, city string) (*model.Forecast, error) {
	return r.fetchForecast(ctx, r.cityQuery(city))
}

// coordinateQuery runs the resolver; its failure short-circuits the request.
func (r *weatherRepository) coordinateQuery(ctx context.Context, lat, lon string) (url.Values, error) {
	if r.resolver == nil {
		return nil, model.NewError(model.KindConfiguration, "no coordinate resolver configured", nil)
	}
	coords, err := r.resolver.ResolveCoordinates(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	q := r.baseQuery()
	q.Set("lat", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(coords.Lon, 'f', -1, 64))
	return q, nil
}

func (r *weatherRepository) cityQuery(city string) url.Values {
	q := r.baseQuery()
	q.Set("q", city)
	return q
}

func (r *weatherRepository) baseQuery() url.Values {
	q := url.Values{}
	q.Set("type", r.queryType)
	q.Set("cnt", strconv.Itoa(r.resultCount))
	q.Set("APPID", r.apiKey)
	return q
}

// buildURL joins the base endpoint, resource path and encoded query.
func (r *weatherRepository) buildURL(resource string, query url.Values) string {
	return fmt.Sprintf("%s/%s?%s", r.baseURL, resource, query.Encode())
}

func (r *weatherRepository) fetchConditions(ctx context.Context, query url.Values) (*model.WeatherConditions, error) {
	var data model.OpenWeatherMapResponse
	if err := r.get(ctx, ResourceWeather, query, &data); err != nil {
		return nil, err
	}
	conditions := data.ToConditions()
	return &conditions, nil
}

func (r *weatherRepository) fetchForecast(ctx context.Context, query url.Values) (*model.Forecast, error) {
	var data model.OpenWeatherMapForecastResponse
	if err := r.get(ctx, ResourceForecast, query, &data); err != nil {
		return nil, err
	}
	forecast := data.ToForecast()
	return &forecast, nil
}

// get issues exactly one GET and decodes a validated body into out.
func (r *weatherRepository) get(ctx context.Context, resource string, query url.Values, out interface{}) error {
	if r.apiKey == "" {
		return model.NewError(model.KindConfiguration, "OPENWEATHERMAP_API_KEY is not set", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.buildURL(resource, query), nil)
	if err != nil {
		return model.NewError(model.KindConfiguration, "invalid request", err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return model.NewError(model.KindNetworkFailure, "weather service unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.NewError(model.KindNetworkFailure, "reading weather response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return serviceError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return model.NewError(model.KindMalformedResponse, "undecodable weather response", err)
	}
	if err := validate.Struct(out); err != nil {
		return model.NewError(model.KindMalformedResponse, "unexpected weather response shape", err)
	}
	return nil
}

func serviceError(status int, body []byte) *model.ErrorDescriptor {
	var apiErr model.OpenWeatherMapError
	msg := http.StatusText(status)
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		msg = apiErr.Message
	}
	return model.NewError(model.KindServiceError, msg, errors.New("status "+strconv.Itoa(status)))
}
