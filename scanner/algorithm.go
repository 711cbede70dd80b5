package scanner

import (
	"gohook/pattern"
)

// matcher is a pattern prepared for searching snapshots
type matcher struct {
	p      *pattern.Pattern
	length int

	// skip table over the rightmost fixed run [runStart, runEnd)
	skip     bool
	runStart int
	runEnd   int
	shift    [256]int
}

func newMatcher(p *pattern.Pattern, algorithm Algorithm) *matcher {
	m := &matcher{p: p, length: p.Len()}
	if algorithm != AlgorithmSkip {
		return m
	}

	// wildcards cannot anchor a skip, so only a run of fixed bytes is usable
	start, end, ok := p.FixedRun()
	if !ok || end-start < 2 {
		return m
	}

	m.skip = true
	m.runStart = start
	m.runEnd = end

	runLen := end - start
	for i := range m.shift {
		m.shift[i] = runLen
	}
	last := end - 1
	for k := start; k < last; k++ {
		m.shift[p.ByteAt(k)] = last - k
	}

	return m
}

// find returns the lowest offset >= from where the pattern matches data, or -1
func (m *matcher) find(data []byte, from int) int {
	if from < 0 {
		from = 0
	}
	if m.skip {
		return m.findSkip(data, from)
	}
	return m.findNaive(data, from)
}

func (m *matcher) findNaive(data []byte, from int) int {
	for i := from; i+m.length <= len(data); i++ {
		if m.p.Matches(data[i:]) {
			return i
		}
	}
	return -1
}

// findSkip is Horspool over the fixed run. Every alignment it skips would put
// the byte under the run's last position against a run byte that differs from it.
func (m *matcher) findSkip(data []byte, from int) int {
	last := m.runEnd - 1
	lastByte := m.p.ByteAt(last)

	for i := from; i+m.length <= len(data); {
		c := data[i+last]
		if c == lastByte && m.runMatches(data[i:]) && m.p.Matches(data[i:]) {
			return i
		}
		i += m.shift[c]
	}
	return -1
}

func (m *matcher) runMatches(window []byte) bool {
	for k := m.runEnd - 2; k >= m.runStart; k-- {
		if window[k] != m.p.ByteAt(k) {
			return false
		}
	}
	return true
}
