package sqllog

import (
	"fmt"
	"strings"
	"testing"
)

// buildcorpus generates a log buffer with n records of realistic shape,
// a few of them multi-line.
func buildCorpus(n int) string {
	var sb strings.Builder
	sb.WriteString("startup noise before the first record\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb,
			"2025-08-12 10:57:%02d.%03d (EP[0] sess:0x7fb24f392a30 thrd:%d user:APP_USER trxid:%d stmt:0x7fb236077b70 appname: ip:::ffff:10.3.100.68) ",
			i%60, i%1000, 757794+i, 688489653+i)
		if i%7 == 0 {
			sb.WriteString("SELECT *\nFROM orders\nWHERE id = 1 ")
		} else {
			sb.WriteString("UPDATE t SET x = 1 ")
		}
		fmt.Fprintf(&sb, "EXECTIME: %dms ROWCOUNT: %d EXEC_ID: %d\n", i%50, i%10, 289655185+i)
	}
	return sb.String()
}

// BenchmarkSplitter measures raw boundary scanning throughput.
func BenchmarkSplitter(b *testing.B) {
	text := buildCorpus(1000)
	b.SetBytes(int64(len(text)))
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		sp := NewSplitter(text)
		for _, ok := sp.Next(); ok; _, ok = sp.Next() {
		}
	}
}

// BenchmarkParseRecord measures single-record field extraction.
func BenchmarkParseRecord(b *testing.B) {
	rec := "2025-08-12 10:57:09.562 (EP[0] sess:0x7fb24f392a30 thrd:757794 user:APP_USER trxid:688489653 stmt:0x7fb236077b70 appname: ip:::ffff:10.3.100.68) EXECTIME: 0ms ROWCOUNT: 1 EXEC_ID: 289655185\n"
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ParseRecord(rec)
	}
}

// BenchmarkEachParsed measures the full split+extract pipeline.
func BenchmarkEachParsed(b *testing.B) {
	text := buildCorpus(1000)
	b.SetBytes(int64(len(text)))
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		EachParsed(text, func(Record) {})
	}
}

// BenchmarkIsRecordStart measures the strict validator on a hot line.
func BenchmarkIsRecordStart(b *testing.B) {
	Prewarm()
	line := "2025-08-12 10:57:09.561 (EP[0] sess:abc thrd:1 user:joe trxid:123 stmt:0x1 appname:my)"
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		IsRecordStart(line)
	}
}
