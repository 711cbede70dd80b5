package hook

import (
	"bytes"
	"errors"
	"testing"

	"gohook/process"
	"gohook/process_blob"
)

var prologue = []byte{0x55, 0x8B, 0xEC, 0x83, 0xEC, 0x10, 0x90, 0x90}

func newPatchTarget(t *testing.T, perms string) *process_blob.ProcessBlob {
	t.Helper()
	code := make([]byte, 0x4000)
	copy(code, prologue)
	copy(code[0x2000:], prologue)

	target := process_blob.NewProcessBlob()
	if err := target.AddRegion(0x400000, code, perms); err != nil {
		t.Fatalf("AddRegion: %v", err)
	}
	return target
}

func readBytes(t *testing.T, mp process.MemoryProvider, addr process.ProcessMemoryAddress, n int) []byte {
	t.Helper()
	data, err := mp.ReadMemory(addr, process.ProcessMemorySize(n))
	if err != nil {
		t.Fatalf("ReadMemory %s: %v", addr.ToString(), err)
	}
	return data
}

func TestBranchEncoding(t *testing.T) {
	cases := []struct {
		target, routine process.ProcessMemoryAddress
		want            []byte
	}{
		{0x400000, 0x401000, []byte{0xE9, 0xFB, 0x0F, 0x00, 0x00}},
		{0x402000, 0x401000, []byte{0xE9, 0xFB, 0xEF, 0xFF, 0xFF}},
		{0x400000, 0x400005, []byte{0xE9, 0x00, 0x00, 0x00, 0x00}},
	}
	for _, c := range cases {
		code, ok := branch(c.target, c.routine)
		if !ok || !bytes.Equal(code, c.want) {
			t.Errorf("branch(%s, %s) = % X, %v; want % X", c.target.ToString(), c.routine.ToString(), code, ok, c.want)
		}
	}

	if _, ok := branch(0x400000, 0x400000+0x100000000); ok {
		t.Errorf("displacement beyond rel32 accepted")
	}
}

func TestPatchEngineLifecycle(t *testing.T) {
	target := newPatchTarget(t, "rwxp")
	m, err := NewManager(NewPatchEngine(target, testLogger()), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { m.Close() })

	record, err := m.Install(0x400000, 0x401000, TypeBranch, "prologue")
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if record.Original != 0x400000 {
		t.Errorf("original = %s, want the target", record.Original.ToString())
	}
	if got := readBytes(t, target, 0x400000, len(prologue)); !bytes.Equal(got, prologue) {
		t.Fatalf("Install modified the target: % X", got)
	}

	if err := m.Enable(0x400000); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	want := append([]byte{0xE9, 0xFB, 0x0F, 0x00, 0x00}, prologue[BranchSize:]...)
	if got := readBytes(t, target, 0x400000, len(prologue)); !bytes.Equal(got, want) {
		t.Fatalf("enabled bytes = % X, want % X", got, want)
	}

	if err := m.Disable(0x400000); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if got := readBytes(t, target, 0x400000, len(prologue)); !bytes.Equal(got, prologue) {
		t.Fatalf("disabled bytes = % X, want % X", got, prologue)
	}

	if err := m.Enable(0x400000); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if err := m.Remove(0x400000); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := readBytes(t, target, 0x400000, len(prologue)); !bytes.Equal(got, prologue) {
		t.Fatalf("removed bytes = % X, want % X", got, prologue)
	}
}

func TestPatchEngineCloseRestores(t *testing.T) {
	target := newPatchTarget(t, "rwxp")
	m, err := NewManager(NewPatchEngine(target, testLogger()), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	for _, addr := range []process.ProcessMemoryAddress{0x400000, 0x402000} {
		if _, err := m.Install(addr, 0x403000, TypeBranch, "h"); err != nil {
			t.Fatalf("Install: %v", err)
		}
		if err := m.Enable(addr); err != nil {
			t.Fatalf("Enable: %v", err)
		}
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	for _, addr := range []process.ProcessMemoryAddress{0x400000, 0x402000} {
		if got := readBytes(t, target, addr, len(prologue)); !bytes.Equal(got, prologue) {
			t.Errorf("%s not restored: % X", addr.ToString(), got)
		}
	}
}

func TestPatchEngineFailures(t *testing.T) {
	writable := newPatchTarget(t, "rwxp")
	engine := NewPatchEngine(writable, testLogger())

	if _, status := engine.CreateHook(0x400000, 0x401000); status != StatusNotInitialized {
		t.Errorf("CreateHook before Initialize = %s", status)
	}
	engine.Initialize()

	if _, status := engine.CreateHook(0x400000, 0x400000+0x100000000); status != StatusMemoryAllocationFailure {
		t.Errorf("far routine = %s, want StatusMemoryAllocationFailure", status)
	}
	if _, status := engine.CreateHook(0x900000, 0x901000); status != StatusFunctionNotFound {
		t.Errorf("unmapped target = %s, want StatusFunctionNotFound", status)
	}

	readOnly := newPatchTarget(t, "r-xp")
	m, err := NewManager(NewPatchEngine(readOnly, testLogger()), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { m.Close() })

	if _, err := m.Install(0x400000, 0x401000, TypeBranch, "h"); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if err := m.Enable(0x400000); !errors.Is(err, StatusProtectionChangeFailure) {
		t.Fatalf("Enable on read-only code err = %v, want StatusProtectionChangeFailure", err)
	}
	if record, _ := m.Lookup(0x400000); record.State != StateInstalled {
		t.Errorf("state = %s, want installed", record.State)
	}

	// once the page is writable the same hook can be enabled
	if err := readOnly.Protect(0x400000, "rwxp"); err != nil {
		t.Fatalf("Protect: %v", err)
	}
	if err := m.Enable(0x400000); err != nil {
		t.Errorf("Enable after Protect: %v", err)
	}
}
