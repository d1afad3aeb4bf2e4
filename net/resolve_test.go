package net

import (
	"context"
	"testing"
)

func TestResolveLocalhost(t *testing.T) {
	out, err := Resolve(context.Background(), "localhost", "", FamilyInet)
	if err != nil {
		t.Skipf("resolution unavailable in this environment: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("Resolve(\"localhost\") returned no candidates")
	}
	for _, info := range out {
		if info.Family != FamilyInet {
			t.Fatalf("got family %v, want FamilyInet", info.Family)
		}
	}
}
