// Package resonance provides the core data model for Higgs lineshape animations.
//
// The package defines the types shared by every stage of the pipeline:
//
//   - [Particle]: per-frame mass, width, cross-section and optional branching ratio
//   - [ScanAxis]: the m_A value of each frame
//   - [Dataset]: particles plus the scan axis, validated as a unit
//
// Sentinel errors classify failures as configuration problems, numeric
// degeneracies or collaborator (renderer/encoder) failures.
//
// # Example
//
//	ds := resonance.Dataset{Scan: axis, TanBeta: 10, Particles: ps}
//	if err := ds.Validate(); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// Dataset values are read-only once validated and may be shared between
// workers. [ParallelFor] splits index ranges across goroutines.
package resonance
