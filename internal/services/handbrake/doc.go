// Package handbrake mediates access to the HandBrakeCLI transcoder used
// during the encode stage. It invokes a single fixed delivery preset and
// parses progress lines; see Transcoder for the testable boundary.
package handbrake
