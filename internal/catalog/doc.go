// Package catalog implements the external movie catalog boundary: search by
// title/year and fetch details by id. Implementations may be offline or
// mocked; a missing API token means the catalog is disabled entirely.
package catalog
