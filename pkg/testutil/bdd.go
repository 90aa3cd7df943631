package testutil

import "testing"

// Given, When, and Then run a test phase as a named subtest so the failure
// output points at the phase that broke.

func Given(t *testing.T, desc string, fn func(t *testing.T)) { phase(t, "Given", desc, fn) }

func When(t *testing.T, desc string, fn func(t *testing.T)) { phase(t, "When", desc, fn) }

func Then(t *testing.T, desc string, fn func(t *testing.T)) { phase(t, "Then", desc, fn) }

func phase(t *testing.T, prefix, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run(prefix+" "+desc, fn)
}
