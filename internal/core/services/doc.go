// Package services contains the core business logic, wired to adapters
// through the driven ports.
package services
