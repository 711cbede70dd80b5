package main

import (
	"bytes"
	"strings"
	"testing"

	"gohook/hook"
	"gohook/process"
	"gohook/process_blob"
	"gohook/scanner"

	"github.com/Moonlight-Companies/gologger/logger"
)

func newTestConsole(t *testing.T) (*console, *bytes.Buffer) {
	t.Helper()
	return newTestConsoleWith(t, hook.NewMemoryEngine())
}

func newTestConsoleWith(t *testing.T, engine hook.Engine) (*console, *bytes.Buffer) {
	t.Helper()
	proc := process_blob.NewSampleTarget()
	log := logger.NewLogger("trainer-test")

	manager, err := hook.NewManager(engine, hook.WithLogger(log))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { manager.Close() })

	out := &bytes.Buffer{}
	return &console{
		target:  proc,
		scanner: scanner.New(proc, scanner.WithMainModule(process_blob.SampleModule), scanner.WithLogger(log)),
		manager: manager,
		out:     out,
	}, out
}

// run executes each line and returns the combined output
func run(t *testing.T, c *console, out *bytes.Buffer, lines ...string) string {
	t.Helper()
	out.Reset()
	for _, line := range lines {
		if !c.execute(line) {
			t.Fatalf("%q ended the session", line)
		}
	}
	return out.String()
}

func expectContains(t *testing.T, output string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(output, w) {
			t.Errorf("output missing %q:\n%s", w, output)
		}
	}
}

func TestScanCommand(t *testing.T) {
	c, out := newTestConsole(t)

	got := run(t, c, out, `scan "8B 05 ?? ?? ?? ??"`)
	expectContains(t, got,
		"Scanning for pattern: 8B 05 ?? ?? ?? ??",
		"Pattern found at: 0x412345",
		"Matched bytes: 8B 05 78 56 34 12",
	)

	got = run(t, c, out, "scan DE AD BE EF")
	expectContains(t, got, "Pattern not found")

	got = run(t, c, out, "scan ZZ")
	expectContains(t, got, "Error:")

	got = run(t, c, out, "scan")
	expectContains(t, got, "Usage: scan <pattern>")
}

func TestPatternsCommand(t *testing.T) {
	c, out := newTestConsole(t)

	got := run(t, c, out, "patterns")
	expectContains(t, got,
		"Known patterns in supertux.exe:",
		"Health Access", "0x412345",
		"Coin Update", "0x423456",
		"Function Prologue", "0x434567",
		"3. Function Prologue at 0x434567",
	)
	if strings.Contains(got, "not found") {
		t.Errorf("every sample pattern should be found:\n%s", got)
	}
}

func TestRecentResultsAreBounded(t *testing.T) {
	c, out := newTestConsole(t)

	for i := 0; i < 5; i++ {
		run(t, c, out, "patterns")
	}
	if len(c.results) != 10 {
		t.Fatalf("kept %d results, want 10", len(c.results))
	}
}

func TestHookCommands(t *testing.T) {
	c, out := newTestConsole(t)

	got := run(t, c, out, "hook 0x412345 health")
	expectContains(t, got, "Hook health created and enabled at 0x412345")

	got = run(t, c, out, "hooks")
	expectContains(t, got, "health", "0x412345", "0x412445", "branch", "enabled")

	got = run(t, c, out, "hook 412345 again")
	expectContains(t, got, "Error: failed to create hook")

	got = run(t, c, out, "unhook 0x412345")
	expectContains(t, got, "Hook at 0x412345 removed")
	if c.manager.Len() != 0 {
		t.Fatalf("Len = %d after unhook", c.manager.Len())
	}

	got = run(t, c, out, "hooks")
	expectContains(t, got, "No active hooks")

	got = run(t, c, out, "unhook 0x412345")
	expectContains(t, got, "Error:")
}

func TestHookDefaultName(t *testing.T) {
	c, out := newTestConsole(t)

	run(t, c, out, "hook 0x434567")
	record, ok := c.manager.Lookup(0x434567)
	if !ok {
		t.Fatalf("hook not installed:\n%s", out)
	}
	if record.Name != "hook_434567" || record.Routine != 0x434567+routineOffset {
		t.Errorf("record = %s", record)
	}
}

func TestValueAndPoke(t *testing.T) {
	c, out := newTestConsole(t)

	got := run(t, c, out, "value 0x501000")
	expectContains(t, got, "0x501000 = 100 (0x64)")

	got = run(t, c, out, "poke 0x501000 999", "value 501000")
	expectContains(t, got, "0x501000 <- 999", "0x501000 = 999")

	got = run(t, c, out, "poke 0x412345 1")
	expectContains(t, got, "Error:")

	got = run(t, c, out, "value nowhere")
	expectContains(t, got, "Error: invalid address")
}

func TestPathsCommand(t *testing.T) {
	c, out := newTestConsole(t)

	// a pointer 0x10 bytes before the health counter
	got := run(t, c, out, "poke 0x502000 0x500FF0", "paths 0x502000 100")
	expectContains(t, got, "0x502000 +0x0 +0x10 -> 0x501000")

	got = run(t, c, out, "paths 0x502000 123456")
	expectContains(t, got, "No paths found")
}

func TestMemoryCommand(t *testing.T) {
	c, out := newTestConsole(t)

	got := run(t, c, out, "memory 0x412345 8")
	expectContains(t, got, "Memory at 0x412345:", "0000000000412345  8b 05 78 56 34 12 90 90")

	got = run(t, c, out, "memory 0x10")
	expectContains(t, got, "Error: failed to read memory at 0x10")
}

func TestDemoCommand(t *testing.T) {
	c, out := newTestConsole(t)

	got := run(t, c, out, "test")
	expectContains(t, got, "found Health Access at 0x412345", "ok   install", "ok   enable", "ok   disable", "ok   remove")
	if c.manager.Len() != 0 {
		t.Errorf("demo left %d hooks behind", c.manager.Len())
	}
}

// stuckEngine cannot remove hooks
type stuckEngine struct {
	*hook.MemoryEngine
}

func (stuckEngine) RemoveHook(process.ProcessMemoryAddress) hook.Status {
	return hook.StatusProtectionChangeFailure
}

func TestDemoCommandReportsTeardownFailure(t *testing.T) {
	c, out := newTestConsoleWith(t, stuckEngine{hook.NewMemoryEngine()})

	got := run(t, c, out, "test")
	expectContains(t, got, "ok   disable", "FAIL remove:", "FAIL close:")
}

func TestSessionCommands(t *testing.T) {
	c, out := newTestConsole(t)

	got := run(t, c, out, "help")
	for _, cmd := range commands {
		expectContains(t, got, cmd.name)
	}

	got = run(t, c, out, "frobnicate", "   ")
	expectContains(t, got, "Unknown command: frobnicate")

	for _, line := range []string{"exit", "quit", "QUIT"} {
		if c.execute(line) {
			t.Errorf("%q kept the session open", line)
		}
	}
}
