package eop

import (
	"fmt"
	"math"
	"strings"
)

// AS2Rad converts arcseconds to radians. IERS data products report polar
// motion and celestial pole offsets in arcseconds; the rest of the library
// works in radians.
const AS2Rad = math.Pi / 180.0 / 3600.0

// SourceType identifies which Earth orientation data product a table was
// loaded from.
type SourceType int

const (
	// SourceC04 is the IERS long-term final product (EOP C04).
	SourceC04 SourceType = iota
	// SourceStandardBulletinA selects the Bulletin A columns of an IERS
	// finals2000A rapid/predicted product.
	SourceStandardBulletinA
	// SourceStandardBulletinB selects the Bulletin B columns of an IERS
	// finals2000A rapid/predicted product.
	SourceStandardBulletinB
	// SourceStatic is a single caller-supplied record held for all time.
	SourceStatic
	// SourceZero has no data; every parameter is defined as 0.
	SourceZero
)

func (s SourceType) String() string {
	switch s {
	case SourceC04:
		return "C04"
	case SourceStandardBulletinA:
		return "Bulletin A"
	case SourceStandardBulletinB:
		return "Bulletin B"
	case SourceStatic:
		return "Static"
	case SourceZero:
		return "Zero"
	}
	return "Unknown"
}

// Extrapolation selects the behavior for queries outside the valid range of
// the loaded data.
type Extrapolation int

const (
	// ExtrapolateZero returns 0.0 for out-of-range queries.
	ExtrapolateZero Extrapolation = iota
	// ExtrapolateHold returns the value at the nearest valid boundary epoch.
	ExtrapolateHold
	// ExtrapolateError fails out-of-range queries with *OutOfRangeError.
	// Callers choosing this policy accept that such queries abort rather
	// than silently degrade.
	ExtrapolateError
)

func (e Extrapolation) String() string {
	switch e {
	case ExtrapolateZero:
		return "Zero"
	case ExtrapolateHold:
		return "Hold"
	case ExtrapolateError:
		return "Error"
	}
	return "Unknown"
}

// ParseExtrapolation maps a configuration string to an extrapolation policy.
func ParseExtrapolation(s string) (Extrapolation, error) {
	switch strings.ToLower(s) {
	case "zero":
		return ExtrapolateZero, nil
	case "hold":
		return ExtrapolateHold, nil
	case "error":
		return ExtrapolateError, nil
	}
	return 0, fmt.Errorf("unknown extrapolation policy %q (want zero, hold or error)", s)
}

// Record is one row of Earth orientation data at a given epoch.
//
// Epochs are Modified Julian Dates on the UTC scale. Polar motion and
// celestial pole offsets are in radians, UT1-UTC and LOD in seconds.
// Rapid/predicted products stop reporting LOD and dX/dY near the prediction
// horizon; HasLOD and HasCelestial distinguish "not yet available" from
// zero for those two trailing fields.
type Record struct {
	MJD    float64
	PMX    float64
	PMY    float64
	UT1UTC float64
	DX     float64
	DY     float64
	LOD    float64

	HasCelestial bool
	HasLOD       bool
}

// Parameters is the full Earth orientation parameter set at one epoch, as
// returned by the batch accessors.
type Parameters struct {
	PMX    float64 `json:"pm_x"`
	PMY    float64 `json:"pm_y"`
	UT1UTC float64 `json:"ut1_utc"`
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
	LOD    float64 `json:"lod"`
}

// StaticValues holds one set of Earth orientation parameters to be held for
// all time by LoadStatic.
type StaticValues struct {
	PMX    float64
	PMY    float64
	UT1UTC float64
	DX     float64
	DY     float64
	LOD    float64
}

// LoadOptions configures the query policy of a loaded table.
type LoadOptions struct {
	// Extrapolate selects out-of-range behavior.
	Extrapolate Extrapolation
	// Interpolate enables linear interpolation between bracketing records.
	// When false, queries return the value at the nearest preceding epoch.
	Interpolate bool
}
