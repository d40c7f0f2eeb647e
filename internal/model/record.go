package model

import (
	"strings"

	"github.com/guangl/dm-parser-sqllog/internal/sqllog"
)

// RawRecord is one unparsed record handed from the tailer to the hub.
type RawRecord struct {
	Text   string
	Source string // originating file path
}

// SQLEntry is the owned, serializable form of a parsed record. Unlike
// sqllog.Record it does not borrow from the parse buffer, so it can
// outlive the buffer and cross goroutine boundaries.
//
// AppName is a pointer because "marker present with no name" is a real
// state in the logs, distinct from the marker being absent.
type SQLEntry struct {
	Timestamp  string  `json:"timestamp"`
	Source     string  `json:"source,omitempty"`
	Endpoint   string  `json:"endpoint,omitempty"`
	Session    string  `json:"session,omitempty"`
	Thread     string  `json:"thread,omitempty"`
	User       string  `json:"user,omitempty"`
	TrxID      string  `json:"trxid,omitempty"`
	Statement  string  `json:"statement,omitempty"`
	AppName    *string `json:"appname,omitempty"`
	ClientIP   string  `json:"client_ip,omitempty"`
	Body       string  `json:"body"`
	ExecTimeMs *uint64 `json:"exec_time_ms,omitempty"`
	RowCount   *uint64 `json:"row_count,omitempty"`
	ExecID     *uint64 `json:"exec_id,omitempty"`
}

// FromRecord materializes rec into an owned SQLEntry. Every field is
// cloned so the entry stays valid after the parse buffer is released.
func FromRecord(rec sqllog.Record, source string) SQLEntry {
	return SQLEntry{
		Timestamp:  strings.Clone(rec.Timestamp),
		Source:     source,
		Endpoint:   cloneField(rec.Endpoint),
		Session:    cloneField(rec.Session),
		Thread:     cloneField(rec.Thread),
		User:       cloneField(rec.User),
		TrxID:      cloneField(rec.TrxID),
		Statement:  cloneField(rec.Statement),
		AppName:    cloneOptField(rec.AppName),
		ClientIP:   cloneField(rec.ClientIP),
		Body:       strings.Clone(rec.Body),
		ExecTimeMs: cloneCount(rec.ExecTimeMs),
		RowCount:   cloneCount(rec.RowCount),
		ExecID:     cloneCount(rec.ExecID),
	}
}

func cloneField(f sqllog.Field) string {
	v, _ := f.Get()
	return strings.Clone(v)
}

func cloneOptField(f sqllog.Field) *string {
	v, ok := f.Get()
	if !ok {
		return nil
	}
	c := strings.Clone(v)
	return &c
}

func cloneCount(c sqllog.Count) *uint64 {
	v, ok := c.Get()
	if !ok {
		return nil
	}
	return &v
}
