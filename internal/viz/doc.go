// Package viz turns grid states into terminal pictures and hosts the live
// control surface of a run.
//
//   - [BuildFrame]: rescales a grid snapshot, marking microphone cells
//   - [FrameBuffer]: latest-frame hand-off between the publisher and the view
//   - [Heatmap]: half-block renderer with per-frame contrast
//   - [Model]: bubbletea view that submits orders to a running session
//
// # Key Bindings
//
//	hjkl    - Move cursor (HJKL by 8 cells)
//	Space   - Drop an impulse at the cursor
//	+/-     - Change drop amount
//	Tab     - Select propagation or damping
//	[ ]     - Adjust the selected coefficient
//	Enter   - Apply the coefficient at the cursor
//	f       - Apply the coefficient to every cell
//	1/2     - Move the left/right microphone to the cursor
//	t       - Cycle themes
//	q       - Quit the run
package viz
