// Package wave implements the parallel finite-difference engine for the
// damped 2D wave equation.
//
// The package is organised around a step driver and a fixed worker pool:
//
//   - [Simulator]: owns the previous/current/next triple buffer, dispatches
//     one token per worker each step, waits on the completion barrier and
//     rotates buffers
//   - worker: one goroutine per row band, spawned once at construction,
//     computing the stencil for its band from halo-extended copies
//   - [Order]: [Drop], [ChangeParameter] and [Quit] commands submitted
//     asynchronously and applied at most one per step
//
// # Example
//
//	sim, _ := wave.New(wave.DefaultOptions())
//	defer sim.Close()
//	_ = sim.Seed(50, 50, 1, 1)
//	for {
//	    grid, err := sim.Next(ctx)
//	    if err != nil {
//	        break
//	    }
//	    v, _ := grid.Get(10, 10)
//	    _ = v
//	}
//
// # Thread Safety
//
// [Simulator.Next] must be driven from a single goroutine. [Simulator.Submit]
// and the returned grid handle are safe for concurrent use; consumers that
// touch the handle between steps race with the next step only at single-cell
// granularity.
package wave
