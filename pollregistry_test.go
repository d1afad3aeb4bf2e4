package cosmos

import "testing"

func TestWatchersRegisterLookupUnregister(t *testing.T) {
	var w Watchers[string]

	k1 := w.Register("first")
	k2 := w.Register("second")

	if got, ok := w.Lookup(k1); !ok || got != "first" {
		t.Fatalf("Lookup(k1) = %q, %v, want %q, true", got, ok, "first")
	}
	if got, ok := w.Lookup(k2); !ok || got != "second" {
		t.Fatalf("Lookup(k2) = %q, %v, want %q, true", got, ok, "second")
	}
	if w.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", w.Len())
	}

	w.Unregister(k1)
	if _, ok := w.Lookup(k1); ok {
		t.Fatal("Lookup(k1) still found after Unregister")
	}
	if w.Len() != 1 {
		t.Fatalf("Len() after Unregister = %d, want 1", w.Len())
	}
}
