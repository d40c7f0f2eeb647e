package sqllog

// tsLen is the fixed width of the millisecond timestamp that anchors
// every record: "YYYY-MM-DD HH:MM:SS.mmm".
const tsLen = 23

// tsDigitIdx lists the byte positions that must be ASCII digits; the
// remaining positions hold the fixed separators.
var tsDigitIdx = [...]int{0, 1, 2, 3, 5, 6, 8, 9, 11, 12, 14, 15, 17, 18, 20, 21, 22}

// IsTimestampMillis reports whether s is exactly a millisecond-precision
// timestamp. The check is purely positional: '-' at 4 and 7, ' ' at 10,
// ':' at 13 and 16, '.' at 19, digits everywhere else. No calendar
// validation is done (month 13 passes), keeping it O(1) and side-effect
// free on the scan hot path.
func IsTimestampMillis(s string) bool {
	if len(s) != tsLen {
		return false
	}
	return timestampAt(s, 0)
}

// timestampAt checks the 23 bytes of text starting at pos. The caller
// guarantees pos+tsLen <= len(text).
func timestampAt(text string, pos int) bool {
	if text[pos+4] != '-' || text[pos+7] != '-' || text[pos+10] != ' ' ||
		text[pos+13] != ':' || text[pos+16] != ':' || text[pos+19] != '.' {
		return false
	}
	for _, i := range tsDigitIdx {
		if c := text[pos+i]; c < '0' || c > '9' {
			return false
		}
	}
	return true
}
