// Package identify resolves ENCODED jobs into a catalog match with a
// confidence score, or routes them to human review when no candidate is
// confident enough. See Identifier.ProcessNext for the single entry point.
package identify
