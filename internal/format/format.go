// Package format turns provider units and timestamps into dashboard labels.
package format

import (
	"fmt"
	"time"
)

var monthNames = [...]string{
	"Jan", "Feb", "Mar", "Apr", "May", "June",
	"July", "Aug", "Sept", "Oct", "Nov", "Dec",
}

// KelvinToFahrenheit converts the provider's default Kelvin reading, truncating toward zero.
func KelvinToFahrenheit(kelvin float64) int {
	return int((kelvin-273.15)*1.8 + 32)
}

// Date renders a unix timestamp as "Saturday, Dec 23" in loc.
func Date(unix int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	t := time.Unix(unix, 0).In(loc)
	return fmt.Sprintf("%s, %s %d", t.Weekday(), monthNames[t.Month()-1], t.Day())
}
