package pattern

import (
	"errors"
	"math/rand"
	"testing"
)

func TestParseScenarios(t *testing.T) {
	p, err := Parse("48 8B 05", "mov")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !p.Matches([]byte{0x48, 0x8B, 0x05, 0x12}) {
		t.Errorf("expected match against 48 8B 05 12")
	}
	if p.Matches([]byte{0x48, 0x8B, 0x06, 0x12}) {
		t.Errorf("unexpected match against 48 8B 06 12")
	}

	w, err := Parse("48 8B ?? ?? ?? ?? 90", "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !w.Matches([]byte{0x48, 0x8B, 0x12, 0x34, 0x56, 0x78, 0x90}) {
		t.Errorf("expected wildcard match")
	}
	if wild, err := w.IsWildcard(2); err != nil || !wild {
		t.Errorf("IsWildcard(2) = %v, %v; want true", wild, err)
	}
	if wild, err := w.IsWildcard(0); err != nil || wild {
		t.Errorf("IsWildcard(0) = %v, %v; want false", wild, err)
	}
	if _, err := w.IsWildcard(7); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("IsWildcard(7) err = %v, want ErrOutOfRange", err)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"",
		"   \t ",
		"48 8B 5",
		"48 GG",
		"488B",
		"48 ? 05",
		"48 ??? 05",
		"0x48",
		"+F",
	}
	for _, text := range cases {
		_, err := Parse(text, "")
		if !errors.Is(err, ErrPatternSyntax) {
			t.Errorf("Parse(%q) err = %v, want ErrPatternSyntax", text, err)
		}
	}

	_, err := Parse("48 zz 05", "")
	var syntaxErr *SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("expected *SyntaxError, got %T", err)
	}
	if syntaxErr.Token != "zz" || syntaxErr.Index != 1 {
		t.Errorf("SyntaxError = %+v", syntaxErr)
	}
}

func TestParseSeparators(t *testing.T) {
	p, err := Parse("00,ba, ad ??\tf0", "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := p.String(); got != "00 BA AD ?? F0" {
		t.Errorf("String() = %q", got)
	}
}

func TestNew(t *testing.T) {
	if _, err := New([]byte{1, 2, 3}, []bool{true, true}, ""); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("err = %v, want ErrLengthMismatch", err)
	}
	if _, err := New(nil, nil, ""); !errors.Is(err, ErrPatternSyntax) {
		t.Errorf("empty pattern err = %v, want ErrPatternSyntax", err)
	}

	bytes := []byte{0x55, 0xAA, 0xEC}
	mask := []bool{true, false, true}
	p, err := New(bytes, mask, "prologue")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// the pattern must not alias caller slices
	bytes[0] = 0
	mask[1] = true
	if p.String() != "55 ?? EC" {
		t.Errorf("String() = %q after mutating inputs", p.String())
	}
	if p.Name() != "prologue" || p.Len() != 3 || p.FixedCount() != 2 {
		t.Errorf("unexpected accessors: name=%q len=%d fixed=%d", p.Name(), p.Len(), p.FixedCount())
	}

	// accessors return copies
	p.Bytes()[0] = 0
	p.Mask()[0] = false
	if !p.Matches([]byte{0x55, 0x00, 0xEC}) {
		t.Errorf("pattern changed through accessor copies")
	}
}

func TestMatchesShortData(t *testing.T) {
	p := MustParse("01 02 03", "")
	if p.Matches([]byte{0x01, 0x02}) {
		t.Errorf("data shorter than the pattern must not match")
	}
}

func randomPattern(r *rand.Rand, maxLen int) *Pattern {
	n := 1 + r.Intn(maxLen)
	bytes := make([]byte, n)
	mask := make([]bool, n)
	for i := range bytes {
		bytes[i] = byte(r.Intn(256))
		mask[i] = r.Intn(3) != 0
	}
	p, err := New(bytes, mask, "random")
	if err != nil {
		panic(err)
	}
	return p
}

func TestRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		p := randomPattern(r, 32)
		q, err := Parse(p.String(), "")
		if err != nil {
			t.Fatalf("Parse(%q): %v", p.String(), err)
		}
		if !p.Equal(q) {
			t.Fatalf("round trip of %q produced %q", p.String(), q.String())
		}
	}
}

func TestMatchesProperty(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 2000; i++ {
		p := randomPattern(r, 8)
		data := make([]byte, p.Len())
		bytes, mask := p.Bytes(), p.Mask()
		for j := range data {
			// bias towards the pattern byte so matches actually happen
			if r.Intn(4) != 0 {
				data[j] = bytes[j]
			} else {
				data[j] = byte(r.Intn(256))
			}
		}

		want := true
		for j := range data {
			if mask[j] && data[j] != bytes[j] {
				want = false
				break
			}
		}
		if got := p.Matches(data); got != want {
			t.Fatalf("%q.Matches(% X) = %v, want %v", p.String(), data, got, want)
		}
	}
}

func TestFixedRun(t *testing.T) {
	cases := []struct {
		text       string
		start, end int
		ok         bool
	}{
		{"48 8B 05", 0, 3, true},
		{"48 8B ?? ?? 90", 4, 5, true},
		{"48 ?? 8B 05 ?? ??", 2, 4, true},
		{"?? ??", 0, 0, false},
		{"AA BB ?? CC DD EE", 3, 6, true},
	}
	for _, tc := range cases {
		start, end, ok := MustParse(tc.text, "").FixedRun()
		if start != tc.start || end != tc.end || ok != tc.ok {
			t.Errorf("FixedRun(%q) = %d, %d, %v; want %d, %d, %v", tc.text, start, end, ok, tc.start, tc.end, tc.ok)
		}
	}
}

func TestWithName(t *testing.T) {
	p := MustParse("90 90", "nops")
	q := p.WithName("padding")
	if p.Name() != "nops" || q.Name() != "padding" || !p.Equal(q) {
		t.Errorf("WithName changed more than the name")
	}
}
