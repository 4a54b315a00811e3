// Package domain contains the core types for the lawdex ingestion pipeline.
// These types are shared across connectors, normalisers, processors, and
// index adapters, and carry no infrastructure dependencies.
package domain
