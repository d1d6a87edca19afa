// Package viz provides a terminal view of a hovering run.
//
// The view is a Bubble Tea program that steps a run a few control
// intervals per frame and draws the spacecraft over a braille outline of
// the asteroid, with the height history and a fuel gauge beside it.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Restart the run
//	P     - Cycle projection plane
//	T     - Cycle color themes
//	+/-   - Faster/slower playback
//	?     - Show help overlay
package viz
