package eop

import (
	"math"
	"time"
)

// mjdOffset is the Julian Date of MJD 0 (November 17, 1858, 00:00 UTC).
const mjdOffset = 2400000.5

// MJDFromTime converts a time.Time (UTC) to a Modified Julian Date.
// Uses the standard astronomical algorithm valid for dates after March 1, 4801 BC.
func MJDFromTime(t time.Time) float64 {
	t = t.UTC()

	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())
	h := float64(t.Hour())
	min := float64(t.Minute())
	s := float64(t.Second()) + float64(t.Nanosecond())/1e9

	// Adjust year/month for Jan/Feb (treat as months 13/14 of previous year).
	if m <= 2 {
		y -= 1
		m += 12
	}

	A := math.Floor(y / 100)
	B := 2 - A + math.Floor(A/4)

	jd := math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(m+1)) + d + B - 1524.5
	jd += (h + min/60.0 + s/3600.0) / 24.0

	return jd - mjdOffset
}
