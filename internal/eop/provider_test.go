package eop

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

// TestProviderUninitialized verifies that every query fails with
// ErrNotInitialized before the first load.
func TestProviderUninitialized(t *testing.T) {
	p := NewProvider(testLogger)

	if p.Initialized() {
		t.Error("Initialized() = true before any load")
	}
	if p.Len() != 0 {
		t.Errorf("Len() = %d, want 0", p.Len())
	}

	if _, err := p.UT1UTC(59569); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("UT1UTC: got %v, want ErrNotInitialized", err)
	}
	if _, _, err := p.PolarMotion(59569); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("PolarMotion: got %v, want ErrNotInitialized", err)
	}
	if _, _, err := p.CelestialPoleOffset(59569); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("CelestialPoleOffset: got %v, want ErrNotInitialized", err)
	}
	if _, err := p.LOD(59569); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("LOD: got %v, want ErrNotInitialized", err)
	}
	if _, err := p.EOP(59569); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("EOP: got %v, want ErrNotInitialized", err)
	}
}

// TestProviderLoadZero verifies the zero source: initialized, empty, and 0
// for every parameter at any epoch.
func TestProviderLoadZero(t *testing.T) {
	p := NewProvider(testLogger)
	p.LoadZero()

	if !p.Initialized() {
		t.Fatal("Initialized() = false after LoadZero")
	}
	if p.Source() != SourceZero {
		t.Errorf("Source() = %s, want Zero", p.Source())
	}
	params, err := p.EOP(58849)
	if err != nil {
		t.Fatalf("EOP failed: %v", err)
	}
	if params != (Parameters{}) {
		t.Errorf("EOP = %+v, want all zeros", params)
	}
}

// TestProviderLoadStatic verifies that static values are held for all time.
func TestProviderLoadStatic(t *testing.T) {
	p := NewProvider(testLogger)
	p.LoadStatic(StaticValues{PMX: 0.001, PMY: 0.002, UT1UTC: 0.3})

	if p.Source() != SourceStatic {
		t.Errorf("Source() = %s, want Static", p.Source())
	}
	ut1, err := p.UT1UTC(1e6)
	if err != nil {
		t.Fatalf("UT1UTC failed: %v", err)
	}
	if ut1 != 0.3 {
		t.Errorf("UT1UTC = %v, want 0.3", ut1)
	}
}

// TestProviderLoadDefaultC04 loads the packaged C04 excerpt and checks the
// reported coverage.
func TestProviderLoadDefaultC04(t *testing.T) {
	p := NewProvider(testLogger)
	opts := LoadOptions{Extrapolate: ExtrapolateHold, Interpolate: true}
	if err := p.LoadDefaultC04(opts); err != nil {
		t.Fatalf("LoadDefaultC04 failed: %v", err)
	}

	if p.Source() != SourceC04 {
		t.Errorf("Source() = %s, want C04", p.Source())
	}
	if p.Len() != 30 {
		t.Errorf("Len() = %d, want 30", p.Len())
	}
	if p.MJDMin() != 59539 || p.MJDMax() != 59568 {
		t.Errorf("bounds = [%v, %v], want [59539, 59568]", p.MJDMin(), p.MJDMax())
	}
	// C04 carries every field on every record.
	if p.LastLODMJD() != 59568 || p.LastCelestialMJD() != 59568 {
		t.Errorf("field horizons = %v, %v, want 59568, 59568", p.LastLODMJD(), p.LastCelestialMJD())
	}

	ut1, err := p.UT1UTC(59539)
	if err != nil {
		t.Fatalf("UT1UTC failed: %v", err)
	}
	if !approxEq(ut1, -0.1050, 1e-12) {
		t.Errorf("UT1UTC(59539) = %v, want -0.1050", ut1)
	}
}

// TestProviderLoadDefaultStandard loads the packaged finals2000A excerpt
// under both bulletins and checks the per-bulletin coverage.
func TestProviderLoadDefaultStandard(t *testing.T) {
	opts := LoadOptions{Extrapolate: ExtrapolateHold, Interpolate: true}

	p := NewProvider(testLogger)
	if err := p.LoadDefaultStandard(SourceStandardBulletinA, opts); err != nil {
		t.Fatalf("LoadDefaultStandard(A) failed: %v", err)
	}
	if p.Source() != SourceStandardBulletinA {
		t.Errorf("Source() = %s, want Bulletin A", p.Source())
	}
	if p.Len() != 40 {
		t.Errorf("Len() = %d, want 40", p.Len())
	}
	if p.LastLODMJD() != 59570 {
		t.Errorf("LastLODMJD = %v, want 59570", p.LastLODMJD())
	}
	if p.LastCelestialMJD() != 59585 {
		t.Errorf("LastCelestialMJD = %v, want 59585", p.LastCelestialMJD())
	}

	if err := p.LoadDefaultStandard(SourceStandardBulletinB, opts); err != nil {
		t.Fatalf("LoadDefaultStandard(B) failed: %v", err)
	}
	if p.Source() != SourceStandardBulletinB {
		t.Errorf("Source() = %s, want Bulletin B", p.Source())
	}
	if p.Len() != 20 {
		t.Errorf("Len() = %d, want 20", p.Len())
	}
	if p.LastLODMJD() != 0 {
		t.Errorf("LastLODMJD = %v, want 0 (Bulletin B has no LOD)", p.LastLODMJD())
	}
}

// TestProviderFailedLoadKeepsTable verifies that a failed load leaves the
// previously installed table untouched.
func TestProviderFailedLoadKeepsTable(t *testing.T) {
	p := NewProvider(testLogger)
	if err := p.LoadDefaultC04(LoadOptions{Extrapolate: ExtrapolateHold, Interpolate: true}); err != nil {
		t.Fatalf("LoadDefaultC04 failed: %v", err)
	}
	before := p.Table()

	err := p.LoadC04(strings.NewReader("not an EOP product"), LoadOptions{})
	if err == nil {
		t.Fatal("expected error loading garbage, got nil")
	}

	if p.Table() != before {
		t.Error("failed load replaced the installed table")
	}
	if p.Len() != 30 {
		t.Errorf("Len() = %d after failed load, want 30", p.Len())
	}
}

// TestProviderConcurrentQueries exercises queries racing with reloads. Run
// with -race; correctness here is that every query sees some complete table
// and never errors.
func TestProviderConcurrentQueries(t *testing.T) {
	p := NewProvider(testLogger)
	opts := LoadOptions{Extrapolate: ExtrapolateHold, Interpolate: true}
	if err := p.LoadDefaultC04(opts); err != nil {
		t.Fatalf("LoadDefaultC04 failed: %v", err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if _, err := p.EOP(59550.5); err != nil {
					t.Errorf("EOP failed during reload: %v", err)
					return
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		if err := p.LoadDefaultC04(opts); err != nil {
			t.Fatalf("reload %d failed: %v", i, err)
		}
		if err := p.LoadDefaultStandard(SourceStandardBulletinA, opts); err != nil {
			t.Fatalf("reload %d failed: %v", i, err)
		}
	}
	close(stop)
	wg.Wait()
}

// TestProviderIdempotentLoads verifies that loading the same product twice
// yields tables answering every query identically, whether the loads land
// in separate providers or replace each other in one.
func TestProviderIdempotentLoads(t *testing.T) {
	opts := LoadOptions{Extrapolate: ExtrapolateHold, Interpolate: true}

	p1 := NewProvider(testLogger)
	p2 := NewProvider(testLogger)
	if err := p1.LoadDefaultStandard(SourceStandardBulletinA, opts); err != nil {
		t.Fatalf("LoadDefaultStandard failed: %v", err)
	}
	if err := p2.LoadDefaultStandard(SourceStandardBulletinA, opts); err != nil {
		t.Fatalf("LoadDefaultStandard failed: %v", err)
	}

	// Sweep across the loaded range and past both ends, off-grid epochs
	// included.
	var epochs []float64
	for mjd := 59540.0; mjd < 59610; mjd += 0.37 {
		epochs = append(epochs, mjd)
	}

	want := make([]Parameters, len(epochs))
	for i, mjd := range epochs {
		a, err := p1.EOP(mjd)
		if err != nil {
			t.Fatalf("EOP(%v) failed: %v", mjd, err)
		}
		b, err := p2.EOP(mjd)
		if err != nil {
			t.Fatalf("EOP(%v) failed: %v", mjd, err)
		}
		if a != b {
			t.Fatalf("EOP(%v) differs across providers: %+v vs %+v", mjd, a, b)
		}
		want[i] = a
	}

	// Reloading the same input in place must not change any answer.
	if err := p1.LoadDefaultStandard(SourceStandardBulletinA, opts); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	for i, mjd := range epochs {
		got, err := p1.EOP(mjd)
		if err != nil {
			t.Fatalf("EOP(%v) failed after reload: %v", mjd, err)
		}
		if got != want[i] {
			t.Fatalf("EOP(%v) changed after reload: %+v vs %+v", mjd, got, want[i])
		}
	}
}

// TestProviderSnapshotConsistency verifies that a caller holding a table
// keeps reading the same data across later loads.
func TestProviderSnapshotConsistency(t *testing.T) {
	p := NewProvider(testLogger)
	opts := LoadOptions{Extrapolate: ExtrapolateHold, Interpolate: true}
	if err := p.LoadDefaultC04(opts); err != nil {
		t.Fatalf("LoadDefaultC04 failed: %v", err)
	}

	snapshot := p.Table()
	if err := p.LoadDefaultStandard(SourceStandardBulletinB, opts); err != nil {
		t.Fatalf("LoadDefaultStandard failed: %v", err)
	}

	if snapshot.Source() != SourceC04 {
		t.Errorf("snapshot source = %s, want C04", snapshot.Source())
	}
	if snapshot.Len() != 30 {
		t.Errorf("snapshot Len = %d, want 30", snapshot.Len())
	}
	if p.Source() != SourceStandardBulletinB {
		t.Errorf("provider source = %s, want Bulletin B", p.Source())
	}
}

// TestProviderNilLogger verifies that a nil logger is accepted.
func TestProviderNilLogger(t *testing.T) {
	p := NewProvider(nil)
	p.LoadZero()
	if !p.Initialized() {
		t.Error("Initialized() = false after LoadZero")
	}
}

// TestProviderString covers the uninitialized and initialized renderings.
func TestProviderString(t *testing.T) {
	p := NewProvider(testLogger)
	if got := p.String(); !strings.Contains(got, "uninitialized") {
		t.Errorf("String() = %q, want mention of uninitialized", got)
	}
	p.LoadZero()
	if got := p.String(); !strings.Contains(got, "Zero") {
		t.Errorf("String() = %q, want mention of Zero source", got)
	}
}
