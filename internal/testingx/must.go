// Package testingx provides helpers for use with the testing package.
package testingx

import (
	"fmt"
	"strings"
	"testing"
)

// Must provides a concise way to handle a returned error in tests that
// "should never happen"©.
//
// This function can be used in test case setup that can be presumed to be
// correct, but technically may return an error. This function MUST NOT be used
// to check for test case conditions themselves because it provides a generic,
// nondescript test error message.
//
//	mustMap := testingx.Must[*tracemap.TraceMap](t)
//	m := mustMap(tracemap.New(data, ""))
func Must[T any](t *testing.T) func(v T, err error) T {
	return func(v T, err error) T {
		if err != nil {
			t.Fatalf("Got: unexpected error: %s. Want: no error.", err)
		}
		return v
	}
}

// MustPanic asserts that f panics with a message containing want.
func MustPanic(t *testing.T, want string, f func()) {
	t.Helper()
	defer func() {
		err := recover()
		if err == nil {
			t.Fatalf("Got: no panic. Want: a panic containing %q.", want)
		}
		if !strings.Contains(fmt.Sprint(err), want) {
			t.Errorf("Got panic: %v. Want it to contain: %q.", err, want)
		}
	}()
	f()
}
