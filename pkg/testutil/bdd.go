package testutil

import "testing"

// Given, When, and Then keep scenario-shaped tests (see test/smoke_test.go)
// readable without pulling in a BDD framework; the full gherkin suite lives in
// e2e/ instead.
func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Given "+desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("When "+desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Then "+desc, fn)
}
