package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
	"github.com/fakhrymubarak/weather-dashboard/internal/format"
	"github.com/fakhrymubarak/weather-dashboard/internal/middleware"
	"github.com/fakhrymubarak/weather-dashboard/internal/model"
	"github.com/fakhrymubarak/weather-dashboard/internal/service"
)

// WeatherHandler is the dashboard's view layer. Load endpoints render the
// value their own request fetched; /state shows the shared state, where the
// last load to finish wins.
type WeatherHandler struct {
	WeatherService service.WeatherServiceInterface
	Location       *time.Location
	logger         *zap.SugaredLogger
}

func NewWeatherHandler(svc service.WeatherServiceInterface) *WeatherHandler {
	return &WeatherHandler{
		WeatherService: svc,
		Location:       time.Local,
		logger:         config.GetLogger(),
	}
}

// Routes registers every dashboard endpoint. Weather and forecast lookups go through the rate limiter.
func (h *WeatherHandler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /weather", middleware.RateLimitMiddleware(http.HandlerFunc(h.HandleWeather)))
	mux.Handle("GET /forecast", middleware.RateLimitMiddleware(http.HandlerFunc(h.HandleForecast)))
	mux.Handle("GET /details/{city}", middleware.RateLimitMiddleware(http.HandlerFunc(h.HandleDetails)))
	mux.HandleFunc("GET /state", h.HandleState)
	mux.HandleFunc("DELETE /errors", h.HandleClearErrors)
	mux.HandleFunc("POST /cycling", h.HandleToggleCycling)
	return mux
}

// ConditionsView is the rendered form of the current conditions.
type ConditionsView struct {
	model.WeatherConditions
	Date     string `json:"date,omitempty"`
	TempMinF *int   `json:"temp_min_f,omitempty"`
	TempMaxF *int   `json:"temp_max_f,omitempty"`
	Humidity *int   `json:"humidity,omitempty"`
	IconPath string `json:"icon_path,omitempty"`
}

// ForecastView is the rendered forecast.
type ForecastView struct {
	Location string           `json:"zip"`
	Days     []ConditionsView `json:"data"`
}

func (h *WeatherHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Errorw("could not encode json", "error", err)
	}
}

func (h *WeatherHandler) writeError(w http.ResponseWriter, statusCode int, errMsg string) {
	h.writeJSONResponse(w, statusCode, model.Response{
		Error:   &errMsg,
		Message: "Error",
	})
}

// writeLoadError maps a descriptor kind onto an HTTP status.
func (h *WeatherHandler) writeLoadError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "Failed to fetch weather data"
	var desc *model.ErrorDescriptor
	if errors.As(err, &desc) {
		msg = desc.Message
		switch {
		case desc.IsGeolocation():
			status = http.StatusBadRequest
		case desc.Kind == model.KindServiceError, desc.Kind == model.KindNetworkFailure, desc.Kind == model.KindMalformedResponse:
			status = http.StatusBadGateway
		}
	}
	h.writeError(w, status, msg)
}

// HandleWeather loads current conditions by ?city= or by ?lat=&lon=.
// Missing or negative coordinates fall back to geolocation.
func (h *WeatherHandler) HandleWeather(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		conditions model.WeatherConditions
		err        error
	)
	if city := q.Get("city"); city != "" {
		conditions, err = h.WeatherService.LoadCurrentConditionsByCity(r.Context(), city)
	} else {
		conditions, err = h.WeatherService.LoadCurrentConditions(r.Context(), q.Get("lat"), q.Get("lon"))
	}
	if err != nil {
		h.writeLoadError(w, err)
		return
	}
	h.writeConditions(w, conditions)
}

// HandleDetails shows current conditions for the city in the path.
func (h *WeatherHandler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	city := r.PathValue("city")
	if city == "" {
		h.writeError(w, http.StatusBadRequest, "Missing city")
		return
	}
	conditions, err := h.WeatherService.LoadCurrentConditionsByCity(r.Context(), city)
	if err != nil {
		h.writeLoadError(w, err)
		return
	}
	h.writeConditions(w, conditions)
}

// HandleForecast loads the forecast by ?city= or by ?lat=&lon=.
func (h *WeatherHandler) HandleForecast(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		forecast model.Forecast
		err      error
	)
	switch {
	case q.Get("city") != "":
		forecast, err = h.WeatherService.LoadForecast(r.Context(), q.Get("city"))
	case q.Has("lat") || q.Has("lon"):
		forecast, err = h.WeatherService.LoadForecastByCoordinates(r.Context(), q.Get("lat"), q.Get("lon"))
	default:
		h.writeError(w, http.StatusBadRequest, "Missing 'city' query parameter")
		return
	}
	if err != nil {
		h.writeLoadError(w, err)
		return
	}

	view := ForecastView{
		Location: forecast.Location,
		Days:     make([]ConditionsView, 0, len(forecast.Entries)),
	}
	for _, e := range forecast.Entries {
		view.Days = append(view.Days, h.render(e))
	}
	h.writeJSONResponse(w, http.StatusOK, model.Response{Data: view, Message: "Success"})
}

func (h *WeatherHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, model.Response{
		Data:    h.WeatherService.State().Snapshot(),
		Message: "Success",
	})
}

func (h *WeatherHandler) HandleClearErrors(w http.ResponseWriter, r *http.Request) {
	h.WeatherService.State().ClearErrors()
	h.HandleState(w, r)
}

func (h *WeatherHandler) HandleToggleCycling(w http.ResponseWriter, r *http.Request) {
	h.WeatherService.State().ToggleCycling()
	h.HandleState(w, r)
}

func (h *WeatherHandler) writeConditions(w http.ResponseWriter, c model.WeatherConditions) {
	h.writeJSONResponse(w, http.StatusOK, model.Response{
		Data:    h.render(c),
		Message: "Success",
	})
}

func (h *WeatherHandler) render(c model.WeatherConditions) ConditionsView {
	v := ConditionsView{WeatherConditions: c}
	if c.ObservedAt != 0 {
		v.Date = format.Date(c.ObservedAt, h.Location)
	}
	if k, ok := c.Metric("temp_min"); ok {
		f := format.KelvinToFahrenheit(k)
		v.TempMinF = &f
	}
	if k, ok := c.Metric("temp_max"); ok {
		f := format.KelvinToFahrenheit(k)
		v.TempMaxF = &f
	}
	if hum, ok := c.Metric("humidity"); ok {
		pct := int(hum)
		v.Humidity = &pct
	}
	if c.ConditionCode != "" {
		v.IconPath = "/images/weather-icons/" + c.ConditionCode + ".svg"
	}
	return v
}
