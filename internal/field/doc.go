// Package field provides the dense scalar grid the wave engine runs on.
//
// A [Grid] couples an N×N amplitude field with a coincident per-cell
// parameter field ([Params]: propagation ratio and damping ratio). Both are
// stored row-major, so cell (x, y) lives at index x + y*N.
//
// # Thread Safety
//
// Every exported method takes the grid's mutex for the duration of a single
// point access or a bounded row-range copy, never longer. Concurrent readers
// and writers therefore observe cell-level consistency only; a full-grid
// consistent view requires [Grid.Snapshot].
package field
