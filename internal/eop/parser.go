package eop

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// c04HeaderLines is the fixed header length of IERS C04 product files.
const c04HeaderLines = 14

// Fixed column spans (byte offsets) of the C04 product.
const (
	c04MJDStart, c04MJDEnd = 12, 19
	c04PMXStart, c04PMXEnd = 19, 30
	c04PMYStart, c04PMYEnd = 30, 41
	c04UT1Start, c04UT1End = 41, 53
	c04LODStart, c04LODEnd = 53, 65
	c04DXStart, c04DXEnd   = 65, 76
	c04DYStart, c04DYEnd   = 76, 87
)

// Fixed column spans of the finals2000A rapid/predicted product.
const (
	stdMJDStart, stdMJDEnd = 6, 12

	// Bulletin A columns.
	stdAPMXStart, stdAPMXEnd = 17, 27
	stdAPMYStart, stdAPMYEnd = 37, 46
	stdAUT1Start, stdAUT1End = 58, 68
	stdALODStart, stdALODEnd = 78, 86
	stdADXStart, stdADXEnd   = 97, 106
	stdADYStart, stdADYEnd   = 116, 125

	// Bulletin B columns.
	stdBPMXStart, stdBPMXEnd = 134, 144
	stdBPMYStart, stdBPMYEnd = 144, 154
	stdBUT1Start, stdBUT1End = 154, 165
	stdBDXStart, stdBDXEnd   = 165, 175
	stdBDYStart, stdBDYEnd   = 175, 185
)

// ParseC04 reads an IERS C04 long-term product and returns its records in
// file order. The 14-line header is skipped. Every field is mandatory in
// this product; any malformed field fails the whole parse with *ParseError.
func ParseC04(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	var records []Record
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if lineno <= c04HeaderLines || line == "" {
			continue
		}

		rec, err := parseC04Line(line)
		if err != nil {
			return nil, &ParseError{Line: lineno, Err: err}
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading C04 data: %w", err)
	}
	return records, nil
}

func parseC04Line(line string) (Record, error) {
	mjd, err := mandatoryField(line, c04MJDStart, c04MJDEnd, "mjd")
	if err != nil {
		return Record{}, err
	}
	pmx, err := mandatoryField(line, c04PMXStart, c04PMXEnd, "pm-x")
	if err != nil {
		return Record{}, err
	}
	pmy, err := mandatoryField(line, c04PMYStart, c04PMYEnd, "pm-y")
	if err != nil {
		return Record{}, err
	}
	ut1, err := mandatoryField(line, c04UT1Start, c04UT1End, "ut1-utc")
	if err != nil {
		return Record{}, err
	}
	lod, err := mandatoryField(line, c04LODStart, c04LODEnd, "lod")
	if err != nil {
		return Record{}, err
	}
	dx, err := mandatoryField(line, c04DXStart, c04DXEnd, "dX")
	if err != nil {
		return Record{}, err
	}
	dy, err := mandatoryField(line, c04DYStart, c04DYEnd, "dY")
	if err != nil {
		return Record{}, err
	}

	return Record{
		MJD:          mjd,
		PMX:          pmx * AS2Rad,
		PMY:          pmy * AS2Rad,
		UT1UTC:       ut1,
		DX:           dx * AS2Rad,
		DY:           dy * AS2Rad,
		LOD:          lod,
		HasCelestial: true,
		HasLOD:       true,
	}, nil
}

// ParseStandard reads an IERS finals2000A rapid/predicted product using the
// column set of the requested bulletin. Bulletin selection is a caller
// decision, never auto-detected.
//
// Lines too short to carry the selected bulletin's mandatory columns, or
// whose mandatory columns are blank, mark the end of that bulletin's
// coverage and are skipped. A populated mandatory column that fails to
// parse is a *ParseError and aborts the load. Blank or unparsable optional
// columns (LOD, dX/dY in Bulletin A) yield records with the corresponding
// Has flag unset.
func ParseStandard(r io.Reader, bulletin SourceType) ([]Record, error) {
	if bulletin != SourceStandardBulletinA && bulletin != SourceStandardBulletinB {
		return nil, fmt.Errorf("invalid bulletin type for standard parsing: %s", bulletin)
	}

	scanner := bufio.NewScanner(r)
	var records []Record
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line == "" {
			continue
		}

		rec, ok, err := parseStandardLine(line, bulletin)
		if err != nil {
			return nil, &ParseError{Line: lineno, Err: err}
		}
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading standard EOP data: %w", err)
	}
	return records, nil
}

// parseStandardLine returns ok=false for lines past the selected bulletin's
// coverage window.
func parseStandardLine(line string, bulletin SourceType) (Record, bool, error) {
	if len(line) < stdMJDEnd {
		return Record{}, false, nil
	}
	mjdStr := strings.TrimSpace(line[stdMJDStart:stdMJDEnd])
	if mjdStr == "" {
		return Record{}, false, nil
	}
	mjd, err := strconv.ParseFloat(mjdStr, 64)
	if err != nil {
		return Record{}, false, fmt.Errorf("parsing mjd from %q: %w", mjdStr, err)
	}

	if bulletin == SourceStandardBulletinA {
		pmx, ok, err := presentField(line, stdAPMXStart, stdAPMXEnd, "pm-x")
		if err != nil || !ok {
			return Record{}, false, err
		}
		pmy, ok, err := presentField(line, stdAPMYStart, stdAPMYEnd, "pm-y")
		if err != nil || !ok {
			return Record{}, false, err
		}
		ut1, ok, err := presentField(line, stdAUT1Start, stdAUT1End, "ut1-utc")
		if err != nil || !ok {
			return Record{}, false, err
		}

		rec := Record{
			MJD:    mjd,
			PMX:    pmx * AS2Rad,
			PMY:    pmy * AS2Rad,
			UT1UTC: ut1,
		}
		if lod, ok := optionalField(line, stdALODStart, stdALODEnd); ok {
			rec.LOD = lod
			rec.HasLOD = true
		}
		dx, okX := optionalField(line, stdADXStart, stdADXEnd)
		dy, okY := optionalField(line, stdADYStart, stdADYEnd)
		if okX && okY {
			rec.DX = dx * AS2Rad
			rec.DY = dy * AS2Rad
			rec.HasCelestial = true
		}
		return rec, true, nil
	}

	// Bulletin B. The Bulletin B section trails off before the prediction
	// horizon; short lines are past its coverage. Finals files carry no
	// Bulletin B LOD column.
	pmx, ok, err := presentField(line, stdBPMXStart, stdBPMXEnd, "pm-x")
	if err != nil || !ok {
		return Record{}, false, err
	}
	pmy, ok, err := presentField(line, stdBPMYStart, stdBPMYEnd, "pm-y")
	if err != nil || !ok {
		return Record{}, false, err
	}
	ut1, ok, err := presentField(line, stdBUT1Start, stdBUT1End, "ut1-utc")
	if err != nil || !ok {
		return Record{}, false, err
	}
	dx, ok, err := presentField(line, stdBDXStart, stdBDXEnd, "dX")
	if err != nil || !ok {
		return Record{}, false, err
	}
	dy, ok, err := presentField(line, stdBDYStart, stdBDYEnd, "dY")
	if err != nil || !ok {
		return Record{}, false, err
	}

	return Record{
		MJD:          mjd,
		PMX:          pmx * AS2Rad,
		PMY:          pmy * AS2Rad,
		UT1UTC:       ut1,
		DX:           dx * AS2Rad,
		DY:           dy * AS2Rad,
		HasCelestial: true,
	}, true, nil
}

// mandatoryField extracts and parses a fixed-column field that must be
// present and numeric.
func mandatoryField(line string, start, end int, name string) (float64, error) {
	if len(line) < end {
		return 0, fmt.Errorf("line too short for %s field (%d < %d)", name, len(line), end)
	}
	s := strings.TrimSpace(line[start:end])
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s from %q: %w", name, s, err)
	}
	return v, nil
}

// presentField extracts a mandatory field that may be absent past the end
// of the product's coverage. Absent (short line or blank) reports ok=false;
// a populated but non-numeric field is an error.
func presentField(line string, start, end int, name string) (float64, bool, error) {
	if len(line) < end {
		return 0, false, nil
	}
	s := strings.TrimSpace(line[start:end])
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parsing %s from %q: %w", name, s, err)
	}
	return v, true, nil
}

// optionalField extracts a field that is legitimately blank or unparsable
// when the product has no value for it yet.
func optionalField(line string, start, end int) (float64, bool) {
	if len(line) < end {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(line[start:end]), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
