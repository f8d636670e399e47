// Package testutil provides helpers shared by srcstage tests.
//
// It should only be imported by test files (*_test.go).
package testutil

import "errors"

// Mock errors for simulating failures that real tools report.
var (
	// ErrMockNetwork simulates a download that could not connect.
	ErrMockNetwork = errors.New("network error")

	// ErrMockExecNotFound simulates a missing executable.
	ErrMockExecNotFound = errors.New("executable file not found in $PATH")
)
