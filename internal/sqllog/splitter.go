package sqllog

import "strings"

// Splitter yields one record slice at a time from a log buffer. A record
// begins at an anchor: a line start whose next 23 bytes form a
// millisecond timestamp. Everything between one anchor and the next
// belongs to the earlier record, multi-line SQL included. Text before
// the first anchor is leading-error content, exposed separately.
//
// Yielded records are substrings of the input and share its backing
// memory; the splitter allocates nothing per record. The scan cursor
// only moves forward, so a full iteration is linear in the buffer size.
type Splitter struct {
	text string
	// scanPos is where the search for the next anchor resumes. It never
	// rewinds.
	scanPos    int
	nextStart  int // start of the record to yield next, -1 when exhausted
	firstStart int // offset of the first anchor, -1 when no record exists
	finished   bool
}

// NewSplitter prepares a splitter over text. The buffer is borrowed for
// the lifetime of the splitter and everything it yields.
func NewSplitter(text string) *Splitter {
	first := findAnchor(text, 0)
	scan := 1
	if first >= 0 {
		scan = first + 1
	}
	return &Splitter{
		text:       text,
		scanPos:    scan,
		nextStart:  first,
		firstStart: first,
	}
}

// findAnchor returns the smallest offset >= from that sits at a line
// start and carries a valid timestamp layout, or -1.
func findAnchor(text string, from int) int {
	limit := len(text) - tsLen
	for pos := from; pos <= limit; pos++ {
		if (pos == 0 || text[pos-1] == '\n') && timestampAt(text, pos) {
			return pos
		}
	}
	return -1
}

// Next returns the next record slice. ok is false once the buffer is
// exhausted; stopping early at any point is always safe.
func (s *Splitter) Next() (rec string, ok bool) {
	if s.finished || s.nextStart < 0 {
		s.finished = true
		return "", false
	}
	start := s.nextStart
	q := findAnchor(s.text, s.scanPos)
	if q < 0 {
		s.finished = true
		return s.text[start:], true
	}
	s.nextStart = q
	s.scanPos = q + 1
	return s.text[start:q], true
}

// LeadingError returns the buffer content preceding the first record.
// When the buffer holds no record at all, ok is false and the entire
// buffer is returned as error text.
func (s *Splitter) LeadingError() (text string, ok bool) {
	if s.firstStart < 0 {
		return s.text, false
	}
	return s.text[:s.firstStart], true
}

// LeadingErrorLines materializes the leading-error text as individual
// lines for error reporting. Returns nil when there is nothing before
// the first record.
func (s *Splitter) LeadingErrorLines() []string {
	lead, _ := s.LeadingError()
	if lead == "" {
		return nil
	}
	var lines []string
	appendLines(&lines, lead)
	return lines
}

// appendLines splits s on '\n' (dropping a trailing '\r' per line) and
// appends each line to dst. A trailing newline does not produce an
// empty final line.
func appendLines(dst *[]string, s string) {
	for len(s) > 0 {
		var line string
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			line, s = s[:i], s[i+1:]
		} else {
			line, s = s, ""
		}
		*dst = append(*dst, strings.TrimSuffix(line, "\r"))
	}
}

// ---------------------------------------------------------------------------
// Whole-buffer helpers
// ---------------------------------------------------------------------------

// Split scans text and collects every record slice plus the individual
// lines of any leading-error content.
func Split(text string) (records, errLines []string) {
	SplitInto(text, &records, &errLines)
	return records, errLines
}

// SplitInto is Split filling caller-provided slices. The slices are
// truncated first; reusing them across calls avoids reallocating on
// every parse.
func SplitInto(text string, records, errLines *[]string) {
	*records = (*records)[:0]
	*errLines = (*errLines)[:0]

	sp := NewSplitter(text)
	if lead, _ := sp.LeadingError(); lead != "" {
		appendLines(errLines, lead)
	}
	for rec, ok := sp.Next(); ok; rec, ok = sp.Next() {
		*records = append(*records, rec)
	}
}

// EachRecord invokes fn once per record slice without materializing a
// slice of records. Leading-error content is skipped; use a Splitter
// directly when it is needed.
func EachRecord(text string, fn func(rec string)) {
	sp := NewSplitter(text)
	for rec, ok := sp.Next(); ok; rec, ok = sp.Next() {
		fn(rec)
	}
}

// ParseAll scans text and returns every record fully decomposed.
func ParseAll(text string) []Record {
	var out []Record
	ParseInto(text, &out)
	return out
}

// ParseInto is ParseAll filling a caller-provided slice.
func ParseInto(text string, out *[]Record) {
	*out = (*out)[:0]
	EachRecord(text, func(rec string) {
		*out = append(*out, ParseRecord(rec))
	})
}

// EachParsed invokes fn once per decomposed record.
func EachParsed(text string, fn func(Record)) {
	EachRecord(text, func(rec string) {
		fn(ParseRecord(rec))
	})
}
