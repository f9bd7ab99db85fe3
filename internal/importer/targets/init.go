// Package targets registers all import targets with the importer registry.
// Import this package to ensure all targets are registered.
package targets

// This file exists to provide a single import point.
// Each target file uses init() to register its targets.
