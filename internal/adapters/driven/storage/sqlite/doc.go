// Package sqlite provides a SQLite-backed document store used between
// crawling and index building.
package sqlite
