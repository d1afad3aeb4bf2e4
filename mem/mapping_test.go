package mem

import (
	"bytes"
	"testing"

	"github.com/ferrocore/cosmos"
)

func TestMapAnonymousWriteRead(t *testing.T) {
	m, err := Map(nil, 0, 4096, cosmos.MakeBitMask(ProtRead, ProtWrite), cosmos.MakeBitMask(MapShared))
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	defer m.Unmap()

	buf := m.Bytes()
	copy(buf, []byte("hello mapping"))
	if !bytes.HasPrefix(m.Bytes(), []byte("hello mapping")) {
		t.Fatalf("unexpected mapping contents: %q", buf[:13])
	}
}

func TestMapProtectReadOnly(t *testing.T) {
	m, err := Map(nil, 0, 4096, cosmos.MakeBitMask(ProtRead, ProtWrite), cosmos.MakeBitMask(MapShared))
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	defer m.Unmap()

	if err := m.Protect(cosmos.MakeBitMask(ProtRead)); err != nil {
		t.Fatalf("Protect: %v", err)
	}
}

func TestMapLockUnlock(t *testing.T) {
	m, err := Map(nil, 0, 4096, cosmos.MakeBitMask(ProtRead, ProtWrite), cosmos.MakeBitMask(MapShared))
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	defer m.Unmap()

	if err := m.Lock(); err != nil {
		t.Skipf("mlock unavailable in this environment: %v", err)
	}
	if err := m.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
}

func TestMapRemapGrow(t *testing.T) {
	m, err := Map(nil, 0, 4096, cosmos.MakeBitMask(ProtRead, ProtWrite), cosmos.MakeBitMask(MapShared))
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	defer m.Unmap()

	if err := m.Remap(8192, true); err != nil {
		t.Fatalf("Remap: %v", err)
	}
	if m.Size() != 8192 {
		t.Fatalf("Size() after remap = %d, want 8192", m.Size())
	}
}
