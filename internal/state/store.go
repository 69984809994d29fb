// Package state holds the dashboard's single session-lifetime application state.
//
// Consumers never touch the fields directly. They read a Snapshot and change
// state only through the Store's mutators, each of which replaces exactly the
// named field and then notifies observers with the new snapshot.
package state

import (
	"sync"

	"github.com/fakhrymubarak/weather-dashboard/internal/model"
)

// ApplicationState is the shape of the shared state.
type ApplicationState struct {
	Errors                     []model.ErrorDescriptor `json:"errors"`
	IsCycling                  bool                    `json:"isCycling"`
	IsCurrentConditionsLoading bool                    `json:"isCurrentConditionsLoading"`
	WeatherConditions          model.WeatherConditions `json:"weatherConditions"`
	IsForecastLoading          bool                    `json:"isForecastLoading"`
	WeatherForecast            model.Forecast          `json:"weatherForecast"`
}

// Snapshot is a read-only copy of the state at one version.
type Snapshot struct {
	ApplicationState
	Version uint64 `json:"version"`
}

// Reader exposes the current snapshot.
type Reader interface {
	Snapshot() Snapshot
}

// Mutator is the fixed set of state operations.
type Mutator interface {
	ClearErrors()
	AddErrors(errs ...model.ErrorDescriptor)
	ToggleCycling()
	SetWeatherConditions(conditions model.WeatherConditions)
	SetCurrentConditionsLoading(loading bool)
	SetForecastLoading(loading bool)
	SetForecast(forecast model.Forecast)
}

// Handle is what view components receive: a snapshot reader plus mutators.
type Handle interface {
	Reader
	Mutator
}

// Observer is told about every committed change, in commit order.
// Observers run synchronously and must not call the Store's mutators.
type Observer interface {
	StateChanged(s Snapshot)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(s Snapshot)

func (f ObserverFunc) StateChanged(s Snapshot) { f(s) }

// Store owns the application state.
type Store struct {
	// commitMu serializes mutation and notification so observers see versions in order.
	commitMu sync.Mutex
	mu       sync.RWMutex
	state    ApplicationState
	version  uint64

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObsID int
}

// NewStore creates the state with its default empty values.
func NewStore() *Store {
	return &Store{
		state: ApplicationState{
			Errors:            []model.ErrorDescriptor{},
			WeatherConditions: model.WeatherConditions{Metrics: map[string]float64{}},
			WeatherForecast:   model.Forecast{Entries: []model.WeatherConditions{}},
		},
		observers: make(map[int]Observer),
	}
}

// Subscribe registers o and returns a function that removes it.
func (s *Store) Subscribe(o Observer) (cancel func()) {
	s.obsMu.Lock()
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = o
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	st := s.state
	st.Errors = append([]model.ErrorDescriptor(nil), s.state.Errors...)
	if st.Errors == nil {
		st.Errors = []model.ErrorDescriptor{}
	}
	st.WeatherConditions = s.state.WeatherConditions.Clone()
	st.WeatherForecast = s.state.WeatherForecast.Clone()
	return Snapshot{ApplicationState: st, Version: s.version}
}

// commit applies fn under the write lock and publishes the resulting snapshot.
func (s *Store) commit(fn func(st *ApplicationState)) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.Lock()
	fn(&s.state)
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.obsMu.Lock()
	observers := make([]Observer, 0, len(s.observers))
	for _, o := range s.observers {
		observers = append(observers, o)
	}
	s.obsMu.Unlock()

	for _, o := range observers {
		o.StateChanged(snap)
	}
}

func (s *Store) ClearErrors() {
	s.commit(func(st *ApplicationState) {
		st.Errors = []model.ErrorDescriptor{}
	})
}

// AddErrors appends errs after the existing errors, keeping their order.
func (s *Store) AddErrors(errs ...model.ErrorDescriptor) {
	s.commit(func(st *ApplicationState) {
		merged := make([]model.ErrorDescriptor, 0, len(st.Errors)+len(errs))
		merged = append(merged, st.Errors...)
		st.Errors = append(merged, errs...)
	})
}

func (s *Store) ToggleCycling() {
	s.commit(func(st *ApplicationState) {
		st.IsCycling = !st.IsCycling
	})
}

func (s *Store) SetWeatherConditions(conditions model.WeatherConditions) {
	conditions = conditions.Clone()
	s.commit(func(st *ApplicationState) {
		st.WeatherConditions = conditions
	})
}

func (s *Store) SetCurrentConditionsLoading(loading bool) {
	s.commit(func(st *ApplicationState) {
		st.IsCurrentConditionsLoading = loading
	})
}

func (s *Store) SetForecastLoading(loading bool) {
	s.commit(func(st *ApplicationState) {
		st.IsForecastLoading = loading
	})
}

func (s *Store) SetForecast(forecast model.Forecast) {
	forecast = forecast.Clone()
	s.commit(func(st *ApplicationState) {
		st.WeatherForecast = forecast
	})
}
