package availability

import (
	"fmt"
	"math"
	"time"
)

// Window is a reservation's effective time span in the cafe's timezone.
type Window struct {
	Start time.Time
	End   time.Time
}

// ComputeWindow builds the start/end instants from a calendar date
// (YYYY-MM-DD), a time-of-day (HH:MM) and a fractional duration in hours.
func ComputeWindow(date, timeOfDay string, durationHours float64, loc *time.Location) (Window, error) {
	start, err := time.ParseInLocation("2006-01-02 15:04", date+" "+timeOfDay, loc)
	if err != nil {
		return Window{}, fmt.Errorf("invalid date/time %q %q: %w", date, timeOfDay, err)
	}

	minutes := int(math.Round(durationHours * 60))
	end := start.Add(time.Duration(minutes) * time.Minute)

	return Window{Start: start, End: end}, nil
}

// Overlaps tests a candidate window against an existing reservation's window.
// The cleanup buffer is added only to the existing reservation's end, so a new
// booking may start exactly when the old one's buffer expires. Touching
// endpoints do not overlap (half-open interval semantics).
func Overlaps(candidate, existing Window, bufferMinutes int) bool {
	existingEndWithBuffer := existing.End.Add(time.Duration(bufferMinutes) * time.Minute)
	return candidate.Start.Before(existingEndWithBuffer) && candidate.End.After(existing.Start)
}
