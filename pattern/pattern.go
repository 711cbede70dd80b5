// Package pattern implements byte patterns with wildcard positions, the
// "array of bytes" signatures used to locate code in a target process.
package pattern

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Wildcard is the text token for a position that matches any byte
const Wildcard = "??"

var (
	// ErrPatternSyntax is returned when pattern text has no tokens or a malformed token
	ErrPatternSyntax = errors.New("pattern syntax error")

	// ErrLengthMismatch is returned when the byte and mask slices differ in length
	ErrLengthMismatch = errors.New("pattern and mask must be of the same length")

	// ErrOutOfRange is returned for a position query beyond the pattern length
	ErrOutOfRange = errors.New("position out of range")
)

// SyntaxError describes the offending token of a malformed pattern string
type SyntaxError struct {
	Token string
	Index int
}

func (e *SyntaxError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: empty pattern", ErrPatternSyntax)
	}
	return fmt.Sprintf("%s: invalid token %q at index %d", ErrPatternSyntax, e.Token, e.Index)
}

func (e *SyntaxError) Unwrap() error {
	return ErrPatternSyntax
}

// Pattern is an immutable sequence of fixed bytes and wildcards.
// The zero value is not a valid pattern; use Parse or New.
type Pattern struct {
	bytes []byte
	mask  []bool // true = must match
	name  string
}

// Parse builds a pattern from whitespace separated tokens such as
// "48 8B 05 ?? ?? ?? ?? 48 85 C0". Each token is exactly two hex digits or "??".
// Commas are accepted as separators too.
func Parse(text string, name string) (*Pattern, error) {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})

	if len(tokens) == 0 {
		return nil, &SyntaxError{Index: -1}
	}

	p := &Pattern{
		bytes: make([]byte, len(tokens)),
		mask:  make([]bool, len(tokens)),
		name:  name,
	}

	for i, token := range tokens {
		if token == Wildcard {
			continue
		}

		if len(token) != 2 {
			return nil, &SyntaxError{Token: token, Index: i}
		}

		val, err := strconv.ParseUint(token, 16, 8)
		if err != nil {
			return nil, &SyntaxError{Token: token, Index: i}
		}

		p.bytes[i] = byte(val)
		p.mask[i] = true
	}

	return p, nil
}

// MustParse is like Parse but panics on malformed text. Intended for static tables.
func MustParse(text string, name string) *Pattern {
	p, err := Parse(text, name)
	if err != nil {
		panic(err)
	}
	return p
}

// New builds a pattern from explicit bytes and a mask where true means the byte must match.
// Both slices are copied.
func New(bytes []byte, mask []bool, name string) (*Pattern, error) {
	if len(bytes) != len(mask) {
		return nil, fmt.Errorf("%w: %d bytes, %d mask entries", ErrLengthMismatch, len(bytes), len(mask))
	}
	if len(bytes) == 0 {
		return nil, &SyntaxError{Index: -1}
	}

	p := &Pattern{
		bytes: make([]byte, len(bytes)),
		mask:  make([]bool, len(mask)),
		name:  name,
	}
	copy(p.mask, mask)
	for i, b := range bytes {
		if mask[i] {
			p.bytes[i] = b
		}
	}

	return p, nil
}

// Len returns the pattern length in bytes
func (p *Pattern) Len() int {
	return len(p.bytes)
}

// Name returns the descriptive name, which need not be unique
func (p *Pattern) Name() string {
	return p.name
}

// WithName returns a copy of the pattern with a different name
func (p *Pattern) WithName(name string) *Pattern {
	return &Pattern{bytes: p.bytes, mask: p.mask, name: name}
}

// Bytes returns a copy of the pattern bytes; wildcard positions hold zero
func (p *Pattern) Bytes() []byte {
	out := make([]byte, len(p.bytes))
	copy(out, p.bytes)
	return out
}

// Mask returns a copy of the mask
func (p *Pattern) Mask() []bool {
	out := make([]bool, len(p.mask))
	copy(out, p.mask)
	return out
}

// FixedCount returns how many positions must match exactly
func (p *Pattern) FixedCount() int {
	n := 0
	for _, fixed := range p.mask {
		if fixed {
			n++
		}
	}
	return n
}

// IsWildcard reports whether pos matches any byte
func (p *Pattern) IsWildcard(pos int) (bool, error) {
	if pos < 0 || pos >= len(p.mask) {
		return false, fmt.Errorf("%w: %d (length %d)", ErrOutOfRange, pos, len(p.mask))
	}
	return !p.mask[pos], nil
}

// Matches reports whether data starts with the pattern. data shorter than the
// pattern never matches. Stops at the first fixed byte that differs.
func (p *Pattern) Matches(data []byte) bool {
	if len(data) < len(p.bytes) {
		return false
	}
	for i, b := range p.bytes {
		if p.mask[i] && data[i] != b {
			return false
		}
	}
	return true
}

// Equal reports whether both patterns have the same bytes and mask. Names are ignored.
func (p *Pattern) Equal(other *Pattern) bool {
	if other == nil || len(p.bytes) != len(other.bytes) {
		return false
	}
	for i := range p.bytes {
		if p.mask[i] != other.mask[i] || p.bytes[i] != other.bytes[i] {
			return false
		}
	}
	return true
}

// String returns the canonical form: uppercase hex for fixed bytes, "??" for
// wildcards, single spaces. Parse(p.String()) yields an equal pattern.
func (p *Pattern) String() string {
	var sb strings.Builder
	sb.Grow(len(p.bytes) * 3)
	for i, b := range p.bytes {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if p.mask[i] {
			fmt.Fprintf(&sb, "%02X", b)
		} else {
			sb.WriteString(Wildcard)
		}
	}
	return sb.String()
}

// FixedRun returns the rightmost contiguous run of fixed bytes as [start, end).
// ok is false when the pattern has no fixed byte at all.
func (p *Pattern) FixedRun() (start, end int, ok bool) {
	end = len(p.mask)
	for end > 0 && !p.mask[end-1] {
		end--
	}
	if end == 0 {
		return 0, 0, false
	}
	start = end - 1
	for start > 0 && p.mask[start-1] {
		start--
	}
	return start, end, true
}

// ByteAt returns the stored byte at pos; zero for wildcards
func (p *Pattern) ByteAt(pos int) byte {
	return p.bytes[pos]
}
