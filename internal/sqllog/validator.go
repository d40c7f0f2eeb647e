package sqllog

import (
	"strings"
	"sync"

	ahocorasick "github.com/BobuSumisu/aho-corasick"
)

// markerPatterns lists the seven metadata markers in the order their
// first occurrences must appear inside the parenthesized block.
var markerPatterns = []string{"EP[", "sess:", "thrd:", "user:", "trxid:", "stmt:", "appname:"}

// markerTrie builds the shared multi-pattern automaton on first use.
// Construction cost is paid once per process; afterwards the trie is
// read-only and safe for concurrent matching.
var markerTrie = sync.OnceValue(func() *ahocorasick.Trie {
	return ahocorasick.NewTrieBuilder().AddStrings(markerPatterns).Build()
})

// IsRecordStart reports whether line is a genuine record start: a
// timestamp at offset 0 (no leading whitespace tolerated, unlike the
// splitter's line-start anchor test), followed by a parenthesized
// metadata block whose seven markers all occur with their first
// occurrences in strictly increasing order. Matching is case-sensitive;
// unrelated text may be interleaved between markers.
//
// This is the stricter confirmation used for line boundaries that did
// not come from a Splitter, e.g. lines arriving one at a time from a
// tailer.
func IsRecordStart(line string) bool {
	if len(line) < tsLen || !timestampAt(line, 0) {
		return false
	}

	rest := line[tsLen:]
	open := strings.IndexByte(rest, '(')
	if open < 0 {
		return false
	}
	rel := strings.IndexByte(rest[open:], ')')
	if rel < 0 {
		return false
	}
	meta := rest[open+1 : open+rel]

	// Record only the first occurrence of each marker.
	var firstPos [7]int64
	for i := range firstPos {
		firstPos[i] = -1
	}
	for _, m := range markerTrie().MatchString(meta) {
		if id := m.Pattern(); id < int64(len(firstPos)) && firstPos[id] < 0 {
			firstPos[id] = m.Pos()
		}
	}

	// All seven present, first occurrences strictly increasing.
	prev := int64(-1)
	for _, pos := range firstPos {
		if pos < 0 || pos <= prev {
			return false
		}
		prev = pos
	}
	return true
}

// Prewarm forces construction of the marker automaton so the first
// timed call does not pay the lazy-initialization cost.
func Prewarm() {
	_ = markerTrie()
}
