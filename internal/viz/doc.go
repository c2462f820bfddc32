// Package viz draws running simulations in the terminal.
//
// Bodies are projected through a [Camera] onto a braille [Canvas], giving
// eight dots per character cell. [Model] is a Bubble Tea program that steps
// a simulator every frame; [Printer] is a plain ANSI observer for runs
// driven from the command line.
//
// # Key Bindings
//
//	Space  pause or resume
//	N      single step while paused
//	[ ]    fewer or more steps per frame
//	O      octree overlay (tree solver only)
//	F      follow the centre of mass
//	G      toggle GIF recording
//	?      help overlay
//
// GIF recordings are written to simulation.gif in the working directory.
package viz
