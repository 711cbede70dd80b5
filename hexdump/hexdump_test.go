package hexdump

import (
	"strings"
	"testing"

	"gohook/process_blob"
)

func plain() Options {
	options := DefaultOptions()
	options.Color = false
	return options
}

func TestDumpLayout(t *testing.T) {
	data := []byte("ABCDEFGHIJKLMNOPQR")
	out := Dump(data, plain())

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}

	want := "0000000000000000  41 42 43 44 45 46 47 48 | 49 4a 4b 4c 4d 4e 4f 50  |ABCDEFGHIJKLMNOP|"
	if lines[0] != want {
		t.Errorf("line 0 =\n%q\nwant\n%q", lines[0], want)
	}
	if !strings.HasPrefix(lines[1], "0000000000000010  51 52 ") || !strings.HasSuffix(lines[1], "|QR|") {
		t.Errorf("line 1 = %q", lines[1])
	}
	if len(lines[1]) != len(lines[0])-14 {
		t.Errorf("short line not padded: %d vs %d", len(lines[1]), len(lines[0]))
	}
}

func TestDumpHighlight(t *testing.T) {
	options := plain()
	options.Highlight = []Span{{Offset: 2, Length: 2}}

	out := Dump([]byte{0x90, 0x90, 0x8b, 0x05, 0x90}, options)
	if !strings.Contains(out, "90 90 [8b] [05] 90") {
		t.Errorf("highlight missing: %q", out)
	}
}

func TestDumpMaxLines(t *testing.T) {
	options := plain()
	options.MaxLines = 1

	out := Dump(make([]byte, 40), options)
	if !strings.Contains(out, "... 24 more bytes") {
		t.Errorf("truncation missing: %q", out)
	}
}

func TestDumpMatch(t *testing.T) {
	target := process_blob.NewSampleTarget()
	addr := process_blob.SampleModuleBase + process_blob.SampleHealthOffset

	out, err := DumpMatch(target, addr, 6, 8, plain())
	if err != nil {
		t.Fatalf("DumpMatch: %v", err)
	}
	if !strings.Contains(out, "[8b] [05] [78] [56]") {
		t.Errorf("match not highlighted:\n%s", out)
	}
	if !strings.HasPrefix(out, "000000000041233d") {
		t.Errorf("dump does not start 8 bytes before the match:\n%s", out)
	}

	if _, err := DumpMemory(target, 0x10, 16, plain()); err == nil {
		t.Errorf("DumpMemory of unmapped address succeeded")
	}
}
