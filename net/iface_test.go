package net

import "testing"

func TestInterfacesIncludesLoopback(t *testing.T) {
	ifaces, err := Interfaces()
	if err != nil {
		t.Fatalf("Interfaces: %v", err)
	}
	found := false
	for _, i := range ifaces {
		if i.Name == "lo" {
			found = true
			if !i.Flags.Test(IFFLoopback) {
				t.Fatalf("lo interface missing IFFLoopback flag: %v", i.Flags)
			}
		}
	}
	if !found {
		t.Fatal("Interfaces() did not report a loopback interface")
	}
}

func TestInterfaceIndexByNameLoopback(t *testing.T) {
	idx, err := InterfaceIndexByName("lo")
	if err != nil {
		t.Fatalf("InterfaceIndexByName: %v", err)
	}
	if idx == 0 {
		t.Fatal("InterfaceIndexByName(\"lo\") returned 0")
	}
}
