package sqllog

import (
	"math"
	"strings"
)

// Field is an optional text value extracted from a record. Absence is a
// normal outcome, not an error: the source logs are not schema-enforced.
// A present Field may still hold an empty string (e.g. "appname:" with
// no value), which is distinct from absent.
type Field struct {
	val string
	set bool
}

// FieldOf returns a present Field holding val.
func FieldOf(val string) Field { return Field{val: val, set: true} }

// Get returns the value and whether the field is present.
func (f Field) Get() (string, bool) { return f.val, f.set }

// IsSet reports whether the field is present.
func (f Field) IsSet() bool { return f.set }

// Or returns the value when present, otherwise def.
func (f Field) Or(def string) string {
	if f.set {
		return f.val
	}
	return def
}

// Count is an optional unsigned counter extracted from a record body.
type Count struct {
	val uint64
	set bool
}

// CountOf returns a present Count holding v.
func CountOf(v uint64) Count { return Count{val: v, set: true} }

// Get returns the value and whether the counter is present.
func (c Count) Get() (uint64, bool) { return c.val, c.set }

// IsSet reports whether the counter is present.
func (c Count) IsSet() bool { return c.set }

// Record is one log record decomposed into fields. Every text field is
// a substring of the record slice it was parsed from and stays valid
// only as long as that buffer does. Callers that need to retain fields
// past the buffer must copy them (see model.FromRecord).
type Record struct {
	Timestamp string // 23 chars, kept as text; empty when the span is shorter
	MetaRaw   string // text between the metadata parentheses
	Body      string // free text after the metadata block, leading space trimmed

	Endpoint  Field
	Session   Field
	Thread    Field
	User      Field
	TrxID     Field
	Statement Field
	AppName   Field
	ClientIP  Field

	ExecTimeMs Count
	RowCount   Count
	ExecID     Count
}

// ParseRecord decomposes one record slice, as produced by a Splitter.
// It never fails: a missing token yields an absent field, a missing
// closing parenthesis demotes the remainder to body text, and a span
// shorter than a timestamp yields an empty timestamp.
func ParseRecord(rec string) Record {
	var r Record
	if len(rec) >= tsLen {
		r.Timestamp = rec[:tsLen]
	}
	var rest string
	if len(rec) > tsLen {
		rest = rec[tsLen:]
	}

	if open := strings.IndexByte(rest, '('); open >= 0 {
		if rel := strings.IndexByte(rest[open:], ')'); rel >= 0 {
			r.MetaRaw = rest[open+1 : open+rel]
			r.Body = strings.TrimLeft(rest[open+rel+1:], " \t\r\n")
		} else {
			// unbalanced metadata: recover everything after '(' as body
			r.Body = rest[open+1:]
		}
	} else {
		r.Body = rest
	}

	parseMeta(&r)
	parseCounters(&r)
	return r
}

// parseMeta tokenizes MetaRaw on whitespace and binds the known markers.
func parseMeta(r *Record) {
	toks := strings.Fields(r.MetaRaw)
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		switch {
		case strings.HasPrefix(tok, "EP["):
			r.Endpoint = FieldOf(strings.TrimSuffix(tok[len("EP["):], "]"))
		case strings.HasPrefix(tok, "sess:"):
			r.Session = FieldOf(tok[len("sess:"):])
		case strings.HasPrefix(tok, "thrd:"):
			r.Thread = FieldOf(tok[len("thrd:"):])
		case strings.HasPrefix(tok, "user:"):
			r.User = FieldOf(tok[len("user:"):])
		case strings.HasPrefix(tok, "trxid:"):
			r.TrxID = FieldOf(tok[len("trxid:"):])
		case strings.HasPrefix(tok, "stmt:"):
			r.Statement = FieldOf(tok[len("stmt:"):])
		case tok == "appname:":
			// The value, when given, is the following token. A following
			// "ip:::..." token means the marker was present with no name:
			// AppName becomes present-but-empty and the token is the IP.
			if i+1 >= len(toks) {
				r.AppName = FieldOf("")
				break
			}
			i++
			if next := toks[i]; strings.HasPrefix(next, "ip:::") {
				r.ClientIP = FieldOf(cleanIP(next))
				r.AppName = FieldOf("")
			} else {
				r.AppName = FieldOf(next)
			}
		case strings.HasPrefix(tok, "appname:"):
			// Value attached without a separating space.
			if val := tok[len("appname:"):]; strings.HasPrefix(val, "ip:::") {
				r.ClientIP = FieldOf(cleanIP(val))
				r.AppName = FieldOf("")
			} else {
				r.AppName = FieldOf(val)
			}
		}
	}
}

// cleanIP strips the "ip:::" marker and any IPv4-mapped-IPv6 "ffff:"
// prefix from an address token.
func cleanIP(tok string) string {
	ip := strings.TrimPrefix(tok, "ip:::")
	return strings.TrimPrefix(ip, "ffff:")
}

// parseCounters extracts the numeric markers from the body. The search
// runs back-to-front in the fixed order EXEC_ID, ROWCOUNT, EXECTIME,
// shrinking the window after each hit so every label binds to its
// nearest preceding occurrence even when the markers appear in an
// unusual order.
func parseCounters(r *Record) {
	body := r.Body
	end := len(body)

	if pos := strings.LastIndex(body[:end], "EXEC_ID:"); pos >= 0 {
		if v, ok := digitsAfter(body, pos+len("EXEC_ID:")); ok {
			r.ExecID = CountOf(v)
		}
		end = pos
	}
	if pos := strings.LastIndex(body[:end], "ROWCOUNT:"); pos >= 0 {
		if v, ok := digitsAfter(body, pos+len("ROWCOUNT:")); ok {
			r.RowCount = CountOf(v)
		}
		end = pos
	}
	if pos := strings.LastIndex(body[:end], "EXECTIME:"); pos >= 0 {
		if v, ok := digitsAfter(body, pos+len("EXECTIME:")); ok {
			r.ExecTimeMs = CountOf(v)
		}
	}
}

// digitsAfter skips non-digit bytes starting at i and parses the maximal
// digit run that follows, clamping to MaxUint64 instead of overflowing.
// ok is false when no digit follows the label at all.
func digitsAfter(s string, i int) (v uint64, ok bool) {
	for i < len(s) && (s[i] < '0' || s[i] > '9') {
		i++
	}
	if i >= len(s) {
		return 0, false
	}
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		d := uint64(s[i] - '0')
		if v > (math.MaxUint64-d)/10 {
			v = math.MaxUint64
		} else {
			v = v*10 + d
		}
		i++
	}
	return v, true
}
