package model

// WeatherConditions is a single point-in-time weather snapshot for a location.
// JSON names follow the shape the dashboard views consume.
type WeatherConditions struct {
	Location      string             `json:"zip"`
	ObservedAt    int64              `json:"datetime"`
	Summary       string             `json:"description"`
	Condition     string             `json:"condition"`
	ConditionCode string             `json:"icon"`
	Metrics       map[string]float64 `json:"main"`
}

// Metric returns the named measurement and whether it was reported.
func (c WeatherConditions) Metric(name string) (float64, bool) {
	v, ok := c.Metrics[name]
	return v, ok
}

// Clone returns a copy that shares no mutable state with c.
func (c WeatherConditions) Clone() WeatherConditions {
	if c.Metrics != nil {
		metrics := make(map[string]float64, len(c.Metrics))
		for k, v := range c.Metrics {
			metrics[k] = v
		}
		c.Metrics = metrics
	}
	return c
}

// Forecast is an ordered multi-interval prediction for one location.
// Entries keep the provider's (chronological) order.
type Forecast struct {
	Location string              `json:"zip"`
	Entries  []WeatherConditions `json:"data"`
}

func (f Forecast) Clone() Forecast {
	if f.Entries != nil {
		entries := make([]WeatherConditions, len(f.Entries))
		for i, e := range f.Entries {
			entries[i] = e.Clone()
		}
		f.Entries = entries
	}
	return f
}
