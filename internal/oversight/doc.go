// Package oversight detects and repairs impossible or stuck job states. It
// runs a startup cleanup pass before workers accept work, and exposes an
// on-demand consistency check with bounded repair for the control surface.
package oversight
