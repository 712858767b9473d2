package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/docvault/internal/models"
)

func TestParseOutputFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{"": OutputText, "text": OutputText, "JSON": OutputJSON} {
		got, err := ParseOutputFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseOutputFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func testResponse() *models.SearchResponse {
	return &models.SearchResponse{
		Query:     "beta",
		User:      "alice",
		QueryTime: 42,
		Total:     1,
		Matches: []*models.Match{
			{DocumentID: 7, Filename: "notes.txt", Text: "alpha beta gamma"},
		},
	}
}

func TestWriteSearchResults_JSON(t *testing.T) {
	response := testResponse()
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, response, OutputJSON); err != nil {
		t.Fatalf("WriteSearchResults(json): %v", err)
	}
	var decoded models.SearchResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Query != "beta" || decoded.QueryTime != 42 || decoded.User != "alice" {
		t.Errorf("unexpected decoded response: %+v", decoded)
	}
	if len(decoded.Matches) != 1 || decoded.Matches[0].Filename != "notes.txt" {
		t.Errorf("decoded matches: %+v", decoded.Matches)
	}
}

func TestWriteSearchResults_Text(t *testing.T) {
	response := testResponse()
	response.HistoryError = "disk full"
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, response, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Found 1 matches", "notes.txt", "alpha beta gamma", "history not recorded: disk full"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteHistory(t *testing.T) {
	recs := []*models.HistoryRecord{
		{ID: 1, User: "alice", Query: "q1", Response: "line one\nline two"},
	}
	var buf bytes.Buffer
	if err := WriteHistory(&buf, "alice", recs, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Query: q1") || !strings.Contains(buf.String(), "line one line two") {
		t.Errorf("unexpected text output:\n%s", buf.String())
	}

	buf.Reset()
	if err := WriteHistory(&buf, "bob", nil, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No history for bob") {
		t.Errorf("unexpected empty output: %s", buf.String())
	}

	buf.Reset()
	if err := WriteHistory(&buf, "bob", nil, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"records": []`) {
		t.Errorf("expected empty JSON list, got %s", buf.String())
	}
}

func TestWriteStatus(t *testing.T) {
	n := int64(2048)
	st := &models.Status{Documents: 3, HistoryRecords: 5, KeyID: "k1", KeySource: "file", DiskUsageBytes: &n}
	var buf bytes.Buffer
	if err := WriteStatus(&buf, st, OutputText); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Documents:       3", "k1 (file)", "2.0 KiB"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("status output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		0:       "0 B",
		1023:    "1023 B",
		1024:    "1.0 KiB",
		1536:    "1.5 KiB",
		1 << 20: "1.0 MiB",
	}
	for in, want := range tests {
		if got := FormatBytes(in); got != want {
			t.Errorf("FormatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
