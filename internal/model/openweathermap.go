package model

import (
	"bytes"
	"encoding/json"
)

// OpenWeatherMapWeather is one element of the provider's "weather" array.
type OpenWeatherMapWeather struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// OpenWeatherMapResponse is the body of the /weather endpoint.
type OpenWeatherMapResponse struct {
	Name    string                  `json:"name"`
	Dt      int64                   `json:"dt" validate:"required"`
	Main    map[string]float64      `json:"main" validate:"required,min=1"`
	Weather []OpenWeatherMapWeather `json:"weather" validate:"required,min=1"`
}

// ToConditions normalizes the payload. The caller must have validated it.
func (r OpenWeatherMapResponse) ToConditions() WeatherConditions {
	return toConditions(r.Name, r.Dt, r.Main, r.Weather)
}

// OpenWeatherMapForecastItem is one interval of the /forecast "list" array.
type OpenWeatherMapForecastItem struct {
	Dt      int64                   `json:"dt" validate:"required"`
	DtTxt   string                  `json:"dt_txt"`
	Main    map[string]float64      `json:"main" validate:"required,min=1"`
	Weather []OpenWeatherMapWeather `json:"weather"`
}

// OpenWeatherMapForecastResponse is the body of the /forecast endpoint.
type OpenWeatherMapForecastResponse struct {
	City ForecastCity                 `json:"city" validate:"required"`
	List []OpenWeatherMapForecastItem `json:"list" validate:"dive"`
}

// ToForecast normalizes the payload, tagging every entry with the forecast location.
func (r OpenWeatherMapForecastResponse) ToForecast() Forecast {
	f := Forecast{
		Location: string(r.City),
		Entries:  make([]WeatherConditions, 0, len(r.List)),
	}
	for _, item := range r.List {
		f.Entries = append(f.Entries, toConditions(string(r.City), item.Dt, item.Main, item.Weather))
	}
	return f
}

// ForecastCity accepts either a bare city name or the provider's city object.
type ForecastCity string

func (c *ForecastCity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*c = ForecastCity(name)
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*c = ForecastCity(obj.Name)
	return nil
}

// OpenWeatherMapError is the provider's error body, e.g. {"cod":"404","message":"city not found"}.
type OpenWeatherMapError struct {
	Cod     json.RawMessage `json:"cod"`
	Message string          `json:"message"`
}

func toConditions(location string, dt int64, main map[string]float64, weather []OpenWeatherMapWeather) WeatherConditions {
	c := WeatherConditions{
		Location:   location,
		ObservedAt: dt,
		Metrics:    make(map[string]float64, len(main)),
	}
	for k, v := range main {
		c.Metrics[k] = v
	}
	if len(weather) > 0 {
		c.Summary = weather[0].Description
		c.Condition = weather[0].Main
		c.ConditionCode = weather[0].Icon
	}
	return c
}
