package eop

import (
	"fmt"
	"sort"
)

// Table is an immutable, ordered-by-time collection of Earth orientation
// records plus the query policy chosen at load time. All query methods are
// pure functions of (table, epoch, field): deterministic, side-effect free,
// and safe to call from many goroutines against the same table.
type Table struct {
	records []Record
	epochs  []float64

	source      SourceType
	extrapolate Extrapolation
	interpolate bool

	mjdMin float64
	mjdMax float64

	// Index of the last record carrying LOD / celestial pole offsets,
	// -1 when no record carries the field. Queries past these fall back
	// to the extrapolation policy for just those fields.
	lastLOD       int
	lastCelestial int
}

// NewTable validates parser output and constructs an immutable table.
// Epochs must be strictly ascending with no duplicates; a violation is an
// *InvariantError, never silently corrected. Only SourceZero may be empty.
func NewTable(records []Record, source SourceType, opts LoadOptions) (*Table, error) {
	if len(records) == 0 && source != SourceZero {
		return nil, fmt.Errorf("no EOP records parsed for source %s", source)
	}

	t := &Table{
		records:       records,
		epochs:        make([]float64, len(records)),
		source:        source,
		extrapolate:   opts.Extrapolate,
		interpolate:   opts.Interpolate,
		lastLOD:       -1,
		lastCelestial: -1,
	}

	for i, rec := range records {
		if i > 0 && rec.MJD <= records[i-1].MJD {
			return nil, &InvariantError{Index: i, MJD: rec.MJD}
		}
		t.epochs[i] = rec.MJD
		if rec.HasLOD {
			t.lastLOD = i
		}
		if rec.HasCelestial {
			t.lastCelestial = i
		}
	}

	if len(records) > 0 {
		t.mjdMin = records[0].MJD
		t.mjdMax = records[len(records)-1].MJD
	}

	return t, nil
}

// newStaticTable builds the degenerate single-record table used by
// LoadStatic: extrapolation holds the one record for all time.
func newStaticTable(v StaticValues) *Table {
	rec := Record{
		PMX:          v.PMX,
		PMY:          v.PMY,
		UT1UTC:       v.UT1UTC,
		DX:           v.DX,
		DY:           v.DY,
		LOD:          v.LOD,
		HasCelestial: true,
		HasLOD:       true,
	}
	t, _ := NewTable([]Record{rec}, SourceStatic, LoadOptions{Extrapolate: ExtrapolateHold})
	return t
}

// newZeroTable builds the degenerate empty table used by LoadZero: every
// parameter is defined as 0 for all time.
func newZeroTable() *Table {
	t, _ := NewTable(nil, SourceZero, LoadOptions{Extrapolate: ExtrapolateZero})
	return t
}

// Len returns the number of loaded records.
func (t *Table) Len() int {
	return len(t.records)
}

// Source returns the data product the table was loaded from.
func (t *Table) Source() SourceType {
	return t.source
}

// Extrapolate returns the out-of-range policy chosen at load time.
func (t *Table) Extrapolate() Extrapolation {
	return t.extrapolate
}

// Interpolate reports whether queries between records interpolate linearly.
func (t *Table) Interpolate() bool {
	return t.interpolate
}

// MJDMin returns the first loaded epoch.
func (t *Table) MJDMin() float64 {
	return t.mjdMin
}

// MJDMax returns the last loaded epoch.
func (t *Table) MJDMax() float64 {
	return t.mjdMax
}

// LastLODMJD returns the last epoch carrying a length-of-day value, or 0
// when no record carries one.
func (t *Table) LastLODMJD() float64 {
	if t.lastLOD < 0 {
		return 0
	}
	return t.epochs[t.lastLOD]
}

// LastCelestialMJD returns the last epoch carrying celestial pole offsets,
// or 0 when no record carries them.
func (t *Table) LastCelestialMJD() float64 {
	if t.lastCelestial < 0 {
		return 0
	}
	return t.epochs[t.lastCelestial]
}

func (t *Table) String() string {
	return fmt.Sprintf("EOPTable<%s, %d, MJD Min: %v, MJD Max: %v, Last LOD: %v, Last dXdY: %v, extrapolate: %s, interpolate: %t>",
		t.source, len(t.records), t.mjdMin, t.mjdMax, t.LastLODMJD(), t.LastCelestialMJD(), t.extrapolate, t.interpolate)
}

// position describes where a query epoch falls in the epoch sequence:
// idx is the index of the first epoch >= the query.
type position struct {
	idx   int
	exact bool
}

func (t *Table) locate(mjd float64) position {
	i := sort.SearchFloat64s(t.epochs, mjd)
	return position{idx: i, exact: i < len(t.epochs) && t.epochs[i] == mjd}
}

// value resolves one field at one epoch. last is the index of the last
// record carrying the field (-1 when none does); the field's valid range
// ends there even when other fields remain interpolable.
func (t *Table) value(pos position, mjd float64, last int, field string, get func(Record) float64) (float64, error) {
	if last < 0 {
		// No record carries this field (a Bulletin B table has no LOD).
		// Hold has nothing to hold, so it degrades to zero.
		if t.extrapolate == ExtrapolateError {
			return 0, &OutOfRangeError{Field: field, MJD: mjd, MJDMin: t.mjdMin, MJDMax: t.mjdMax}
		}
		return 0, nil
	}

	fieldMax := t.epochs[last]
	if mjd < t.mjdMin || mjd > fieldMax {
		switch t.extrapolate {
		case ExtrapolateZero:
			return 0, nil
		case ExtrapolateHold:
			if mjd < t.mjdMin {
				return get(t.records[0]), nil
			}
			return get(t.records[last]), nil
		default:
			return 0, &OutOfRangeError{Field: field, MJD: mjd, MJDMin: t.mjdMin, MJDMax: fieldMax}
		}
	}

	if pos.exact {
		return get(t.records[pos.idx]), nil
	}

	// mjd is strictly between epochs[pos.idx-1] and epochs[pos.idx], and
	// pos.idx <= last since mjd < fieldMax.
	prev := pos.idx - 1
	if !t.interpolate {
		return get(t.records[prev]), nil
	}
	r0, r1 := t.records[prev], t.records[prev+1]
	v0, v1 := get(r0), get(r1)
	return v0 + (v1-v0)*(mjd-r0.MJD)/(r1.MJD-r0.MJD), nil
}

// UT1UTC returns the UT1-UTC offset in seconds at the given MJD.
func (t *Table) UT1UTC(mjd float64) (float64, error) {
	return t.value(t.locate(mjd), mjd, len(t.records)-1, "ut1-utc",
		func(r Record) float64 { return r.UT1UTC })
}

// PolarMotion returns the polar motion x and y components in radians at the
// given MJD.
func (t *Table) PolarMotion(mjd float64) (float64, float64, error) {
	pos := t.locate(mjd)
	last := len(t.records) - 1
	x, err := t.value(pos, mjd, last, "pm-x", func(r Record) float64 { return r.PMX })
	if err != nil {
		return 0, 0, err
	}
	y, err := t.value(pos, mjd, last, "pm-y", func(r Record) float64 { return r.PMY })
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

// CelestialPoleOffset returns the dX and dY precession-nutation corrections
// in radians at the given MJD.
func (t *Table) CelestialPoleOffset(mjd float64) (float64, float64, error) {
	pos := t.locate(mjd)
	dx, err := t.value(pos, mjd, t.lastCelestial, "dX", func(r Record) float64 { return r.DX })
	if err != nil {
		return 0, 0, err
	}
	dy, err := t.value(pos, mjd, t.lastCelestial, "dY", func(r Record) float64 { return r.DY })
	if err != nil {
		return 0, 0, err
	}
	return dx, dy, nil
}

// LOD returns the length-of-day offset in seconds at the given MJD.
func (t *Table) LOD(mjd float64) (float64, error) {
	return t.value(t.locate(mjd), mjd, t.lastLOD, "lod",
		func(r Record) float64 { return r.LOD })
}

// EOP returns the full parameter set at the given MJD, reusing a single
// bracket lookup for all six fields.
func (t *Table) EOP(mjd float64) (Parameters, error) {
	pos := t.locate(mjd)
	last := len(t.records) - 1

	var p Parameters
	var err error
	if p.PMX, err = t.value(pos, mjd, last, "pm-x", func(r Record) float64 { return r.PMX }); err != nil {
		return Parameters{}, err
	}
	if p.PMY, err = t.value(pos, mjd, last, "pm-y", func(r Record) float64 { return r.PMY }); err != nil {
		return Parameters{}, err
	}
	if p.UT1UTC, err = t.value(pos, mjd, last, "ut1-utc", func(r Record) float64 { return r.UT1UTC }); err != nil {
		return Parameters{}, err
	}
	if p.DX, err = t.value(pos, mjd, t.lastCelestial, "dX", func(r Record) float64 { return r.DX }); err != nil {
		return Parameters{}, err
	}
	if p.DY, err = t.value(pos, mjd, t.lastCelestial, "dY", func(r Record) float64 { return r.DY }); err != nil {
		return Parameters{}, err
	}
	if p.LOD, err = t.value(pos, mjd, t.lastLOD, "lod", func(r Record) float64 { return r.LOD }); err != nil {
		return Parameters{}, err
	}
	return p, nil
}
