package model

import (
	"testing"

	"github.com/guangl/dm-parser-sqllog/internal/sqllog"
)

func TestFromRecord(t *testing.T) {
	rec := sqllog.ParseRecord("2025-08-12 10:57:09.562 (EP[0] sess:s thrd:1 user:u trxid:2 stmt:st appname: ip:::ffff:10.0.0.9) SELECT 1 ROWCOUNT: 4")

	e := FromRecord(rec, "a.log")
	if e.Timestamp != "2025-08-12 10:57:09.562" {
		t.Errorf("unexpected timestamp %q", e.Timestamp)
	}
	if e.Source != "a.log" {
		t.Errorf("unexpected source %q", e.Source)
	}
	if e.User != "u" || e.ClientIP != "10.0.0.9" {
		t.Errorf("unexpected user/ip: %q/%q", e.User, e.ClientIP)
	}
	if e.AppName == nil || *e.AppName != "" {
		t.Errorf("expected present-but-empty appname, got %v", e.AppName)
	}
	if e.RowCount == nil || *e.RowCount != 4 {
		t.Errorf("expected row count 4, got %v", e.RowCount)
	}
	if e.ExecID != nil {
		t.Errorf("expected nil exec id, got %v", e.ExecID)
	}
}

func TestFromRecordAbsentAppName(t *testing.T) {
	rec := sqllog.ParseRecord("2025-08-12 10:57:09.562 (EP[0]) TRX: START")

	e := FromRecord(rec, "a.log")
	if e.AppName != nil {
		t.Errorf("expected nil appname for absent marker, got %q", *e.AppName)
	}
}
