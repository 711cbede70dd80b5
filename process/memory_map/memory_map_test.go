package memory_map

import "testing"

func TestParseMapsLine(t *testing.T) {
	item, ok := ParseMapsLine("00400000-0040b000 r-xp 00000000 08:01 1234   /usr/bin/my target")
	if !ok {
		t.Fatalf("expected line to parse")
	}
	if item.Address != 0x400000 || item.Size != 0xb000 {
		t.Fatalf("range = %#x+%#x, want 0x400000+0xb000", item.Address, item.Size)
	}
	if item.Perms != "r-xp" || !item.IsReadable() || item.IsWritable() || !item.IsExecutable() {
		t.Fatalf("unexpected perms handling for %q", item.Perms)
	}
	if item.Path != "/usr/bin/my target" {
		t.Fatalf("path = %q", item.Path)
	}

	anon, ok := ParseMapsLine("7ffd0000-7ffd1000 rw-p 00000000 00:00 0")
	if !ok || anon.Path != "" {
		t.Fatalf("anonymous mapping parsed as %+v, ok=%v", anon, ok)
	}

	for _, bad := range []string{"", "zzzz-0040 r-xp", "00400000 r-xp", "0040b000-00400000 r-xp"} {
		if _, ok := ParseMapsLine(bad); ok {
			t.Errorf("ParseMapsLine(%q) should fail", bad)
		}
	}
}

func TestModuleRange(t *testing.T) {
	mm := []MemoryMapItem{
		{Address: 0x1000, Size: 0x1000, Perms: "r--p", Path: "/opt/game/Game.bin"},
		{Address: 0x2000, Size: 0x3000, Perms: "r-xp", Path: "/opt/game/Game.bin"},
		{Address: 0x5000, Size: 0x1000, Perms: "rw-p", Path: "/lib/libc.so.6"},
		{Address: 0x9000, Size: 0x1000, Perms: "rw-p"},
	}

	base, size := ModuleRange("game.bin", mm)
	if base != 0x1000 || size != 0x4000 {
		t.Fatalf("ModuleRange = %#x+%#x, want 0x1000+0x4000", base, size)
	}

	if base, size := ModuleRange("missing.so", mm); base != 0 || size != 0 {
		t.Fatalf("missing module resolved to %#x+%#x", base, size)
	}
	if base, size := ModuleRange("", mm); base != 0 || size != 0 {
		t.Fatalf("empty name resolved to %#x+%#x", base, size)
	}
}

func TestIsValidAddress2(t *testing.T) {
	mm := []MemoryMapItem{
		{Address: 0x5000, Size: 0x1000},
		{Address: 0x1000, Size: 0x1000},
	}
	Sort(mm)

	cases := map[uint64]bool{
		0x0fff: false,
		0x1000: true,
		0x1fff: true,
		0x2000: false,
		0x5800: true,
		0x6000: false,
	}
	for addr, want := range cases {
		if got := IsValidAddress2(addr, mm) != nil; got != want {
			t.Errorf("IsValidAddress2(%#x) = %v, want %v", addr, got, want)
		}
		if got := IsValidAddress(addr, mm); got != want {
			t.Errorf("IsValidAddress(%#x) = %v, want %v", addr, got, want)
		}
	}
}
