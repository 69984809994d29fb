package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
	"github.com/fakhrymubarak/weather-dashboard/internal/model"
	"github.com/fakhrymubarak/weather-dashboard/internal/repository"
	"github.com/fakhrymubarak/weather-dashboard/internal/state"
)

// WeatherServiceInterface is what the view layer drives.
type WeatherServiceInterface interface {
	LoadCurrentConditions(ctx context.Context, lat, lon string) (model.WeatherConditions, error)
	LoadCurrentConditionsByCity(ctx context.Context, city string) (model.WeatherConditions, error)
	LoadForecast(ctx context.Context, city string) (model.Forecast, error)
	LoadForecastByCoordinates(ctx context.Context, lat, lon string) (model.Forecast, error)
	State() state.Handle
}

// WeatherService is the top-level controller: it fetches through the
// repository and pushes results into the shared state. Requests are neither
// deduplicated nor cancelled, so the last one to finish wins. A fetch keeps
// running after the caller's context is done; only the locator's own
// timeout bounds it.
type WeatherService struct {
	WeatherRepo repository.WeatherRepository
	Store       state.Handle
	Logger      *zap.SugaredLogger
}

func NewWeatherService(repo repository.WeatherRepository, store state.Handle) *WeatherService {
	return &WeatherService{
		WeatherRepo: repo,
		Store:       store,
		Logger:      config.GetLogger(),
	}
}

func (s *WeatherService) State() state.Handle {
	return s.Store
}

func (s *WeatherService) LoadCurrentConditions(ctx context.Context, lat, lon string) (model.WeatherConditions, error) {
	return s.loadConditions(ctx, func(ctx context.Context) (*model.WeatherConditions, error) {
		return s.WeatherRepo.GetCurrentWeatherByCoordinates(ctx, lat, lon)
	}, "lat", lat, "lon", lon)
}

func (s *WeatherService) LoadCurrentConditionsByCity(ctx context.Context, city string) (model.WeatherConditions, error) {
	return s.loadConditions(ctx, func(ctx context.Context) (*model.WeatherConditions, error) {
		return s.WeatherRepo.GetCurrentWeatherByCity(ctx, city)
	}, "city", city)
}

func (s *WeatherService) LoadForecast(ctx context.Context, city string) (model.Forecast, error) {
	return s.loadForecast(ctx, func(ctx context.Context) (*model.Forecast, error) {
		return s.WeatherRepo.GetForecastByCity(ctx, city)
	}, "city", city)
}

func (s *WeatherService) LoadForecastByCoordinates(ctx context.Context, lat, lon string) (model.Forecast, error) {
	return s.loadForecast(ctx, func(ctx context.Context) (*model.Forecast, error) {
		return s.WeatherRepo.GetForecastByCoordinates(ctx, lat, lon)
	}, "lat", lat, "lon", lon)
}

func (s *WeatherService) loadConditions(ctx context.Context, fetch func(context.Context) (*model.WeatherConditions, error), keysAndValues ...interface{}) (model.WeatherConditions, error) {
	ctx = detach(ctx)
	s.Store.SetCurrentConditionsLoading(true)
	defer s.Store.SetCurrentConditionsLoading(false)

	conditions, err := fetch(ctx)
	if err != nil {
		s.record(err, "current conditions", keysAndValues...)
		return model.WeatherConditions{}, err
	}
	s.Store.SetWeatherConditions(*conditions)
	s.Logger.Infow("Loaded current conditions", append(keysAndValues, "location", conditions.Location)...)
	return *conditions, nil
}

func (s *WeatherService) loadForecast(ctx context.Context, fetch func(context.Context) (*model.Forecast, error), keysAndValues ...interface{}) (model.Forecast, error) {
	ctx = detach(ctx)
	s.Store.SetForecastLoading(true)
	defer s.Store.SetForecastLoading(false)

	forecast, err := fetch(ctx)
	if err != nil {
		s.record(err, "forecast", keysAndValues...)
		return model.Forecast{}, err
	}
	s.Store.SetForecast(*forecast)
	s.Logger.Infow("Loaded forecast", append(keysAndValues, "location", forecast.Location, "entries", len(forecast.Entries))...)
	return *forecast, nil
}

// detach keeps the caller's values but drops its cancellation.
func detach(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}

// record appends the failure to the state's error list.
func (s *WeatherService) record(err error, what string, keysAndValues ...interface{}) {
	var desc *model.ErrorDescriptor
	if !errors.As(err, &desc) {
		desc = model.NewError(model.KindServiceError, err.Error(), err)
	}
	s.Store.AddErrors(*desc)
	s.Logger.Errorw("Failed to load "+what, append(keysAndValues, "kind", desc.Kind, "error", err)...)
}
