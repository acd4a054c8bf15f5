package eop

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/star/eopgo/data"
)

// Provider is a handle to the currently installed Earth orientation table.
//
// It starts uninitialized: every query fails with ErrNotInitialized until
// the first successful load. Each load builds a complete replacement table
// before an O(1) atomic swap, so readers are never blocked for the duration
// of a parse and never observe a partially built table. Readers that began
// against the previous table finish against it; its lifetime extends until
// the last such reader is done.
//
// The design is single-writer, many-reader: loads are serialized by a
// mutex, queries run lock-free against the current table.
type Provider struct {
	table  atomic.Pointer[Table]
	mu     sync.Mutex // serializes load operations
	logger *slog.Logger
}

// NewProvider creates an uninitialized Provider.
func NewProvider(logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Provider{logger: logger}
}

// Table returns the currently installed table, or nil before the first
// successful load. Callers holding the returned table observe a consistent
// snapshot across any later loads.
func (p *Provider) Table() *Table {
	return p.table.Load()
}

func (p *Provider) install(t *Table) {
	p.table.Store(t)
	p.logger.Info("EOP table installed",
		"source", t.Source().String(),
		"records", t.Len(),
		"mjd_min", t.MJDMin(),
		"mjd_max", t.MJDMax(),
		"extrapolate", t.Extrapolate().String(),
		"interpolate", t.Interpolate(),
	)
}

// LoadZero installs a table with no data: every parameter is defined as 0
// for all time. Results are not physically accurate, but the provider is
// fully usable for simple analysis.
func (p *Provider) LoadZero() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.install(newZeroTable())
}

// LoadStatic installs a single set of values held for all time.
func (p *Provider) LoadStatic(v StaticValues) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.install(newStaticTable(v))
}

// LoadC04 parses r as an IERS C04 long-term product and installs the
// result. On error the previously installed table, if any, is untouched.
func (p *Provider) LoadC04(r io.Reader, opts LoadOptions) error {
	records, err := ParseC04(r)
	if err != nil {
		return err
	}
	t, err := NewTable(records, SourceC04, opts)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.install(t)
	return nil
}

// LoadDefaultC04 installs the C04 data bundled with the library.
func (p *Provider) LoadDefaultC04(opts LoadOptions) error {
	return p.LoadC04(bytes.NewReader(data.C04), opts)
}

// LoadStandard parses r as an IERS finals2000A rapid/predicted product,
// reading the column set of the requested bulletin, and installs the
// result. On error the previously installed table, if any, is untouched.
func (p *Provider) LoadStandard(r io.Reader, bulletin SourceType, opts LoadOptions) error {
	records, err := ParseStandard(r, bulletin)
	if err != nil {
		return err
	}
	t, err := NewTable(records, bulletin, opts)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.install(t)
	return nil
}

// LoadDefaultStandard installs the finals2000A data bundled with the
// library.
func (p *Provider) LoadDefaultStandard(bulletin SourceType, opts LoadOptions) error {
	return p.LoadStandard(bytes.NewReader(data.FinalsAB), bulletin, opts)
}

// Initialized reports whether a load has installed a table.
func (p *Provider) Initialized() bool {
	return p.table.Load() != nil
}

// Len returns the number of loaded records, or 0 when uninitialized.
func (p *Provider) Len() int {
	if t := p.table.Load(); t != nil {
		return t.Len()
	}
	return 0
}

// Source returns the source type of the loaded data, or SourceZero when
// uninitialized.
func (p *Provider) Source() SourceType {
	if t := p.table.Load(); t != nil {
		return t.Source()
	}
	return SourceZero
}

// Extrapolate returns the extrapolation policy of the loaded data.
func (p *Provider) Extrapolate() Extrapolation {
	if t := p.table.Load(); t != nil {
		return t.Extrapolate()
	}
	return ExtrapolateZero
}

// Interpolate reports the interpolation setting of the loaded data.
func (p *Provider) Interpolate() bool {
	if t := p.table.Load(); t != nil {
		return t.Interpolate()
	}
	return false
}

// MJDMin returns the first loaded epoch, or 0 when uninitialized.
func (p *Provider) MJDMin() float64 {
	if t := p.table.Load(); t != nil {
		return t.MJDMin()
	}
	return 0
}

// MJDMax returns the last loaded epoch, or 0 when uninitialized.
func (p *Provider) MJDMax() float64 {
	if t := p.table.Load(); t != nil {
		return t.MJDMax()
	}
	return 0
}

// LastLODMJD returns the last epoch carrying a length-of-day value.
func (p *Provider) LastLODMJD() float64 {
	if t := p.table.Load(); t != nil {
		return t.LastLODMJD()
	}
	return 0
}

// LastCelestialMJD returns the last epoch carrying celestial pole offsets.
func (p *Provider) LastCelestialMJD() float64 {
	if t := p.table.Load(); t != nil {
		return t.LastCelestialMJD()
	}
	return 0
}

// UT1UTC returns the UT1-UTC offset in seconds at the given MJD.
func (p *Provider) UT1UTC(mjd float64) (float64, error) {
	t := p.table.Load()
	if t == nil {
		return 0, ErrNotInitialized
	}
	return t.UT1UTC(mjd)
}

// PolarMotion returns the polar motion components in radians at the given MJD.
func (p *Provider) PolarMotion(mjd float64) (float64, float64, error) {
	t := p.table.Load()
	if t == nil {
		return 0, 0, ErrNotInitialized
	}
	return t.PolarMotion(mjd)
}

// CelestialPoleOffset returns the dX/dY corrections in radians at the given MJD.
func (p *Provider) CelestialPoleOffset(mjd float64) (float64, float64, error) {
	t := p.table.Load()
	if t == nil {
		return 0, 0, ErrNotInitialized
	}
	return t.CelestialPoleOffset(mjd)
}

// LOD returns the length-of-day offset in seconds at the given MJD.
func (p *Provider) LOD(mjd float64) (float64, error) {
	t := p.table.Load()
	if t == nil {
		return 0, ErrNotInitialized
	}
	return t.LOD(mjd)
}

// EOP returns the full Earth orientation parameter set at the given MJD in
// one pass.
func (p *Provider) EOP(mjd float64) (Parameters, error) {
	t := p.table.Load()
	if t == nil {
		return Parameters{}, ErrNotInitialized
	}
	return t.EOP(mjd)
}

func (p *Provider) String() string {
	t := p.table.Load()
	if t == nil {
		return "EOPProvider<uninitialized>"
	}
	return fmt.Sprintf("EOPProvider<%s>", t)
}
