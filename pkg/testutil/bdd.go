package testutil

import "testing"

// Given, When and Then name nested subtests so scenario output reads as
// "Given a queued check/When the worker runs/Then ...".
func Given(t *testing.T, desc string, fn func(t *testing.T)) { step(t, "Given", desc, fn) }
func When(t *testing.T, desc string, fn func(t *testing.T))  { step(t, "When", desc, fn) }
func Then(t *testing.T, desc string, fn func(t *testing.T))  { step(t, "Then", desc, fn) }

func step(t *testing.T, keyword, desc string, fn func(t *testing.T)) {
	t.Helper()
	if !t.Run(keyword+" "+desc, fn) {
		t.Logf("%s %s failed", keyword, desc)
	}
}
