// Package mover places an encoded artifact into its library destination
// under the canonical naming scheme and records collection membership. It
// is the only writer of collection rows.
package mover
