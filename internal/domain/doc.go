// Package domain contains the core data types for the bike rental scheme:
// members, bikes, and the rides that link them.
// This package has no dependencies outside the standard library and is
// imported by every other internal package (repo, service, handler).
package domain
