// Package testutil provides fixtures shared by package tests: a table
// builder, a small sample catalog and deterministic run identifiers.
package testutil
