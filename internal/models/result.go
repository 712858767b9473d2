package models

// Match is a single search hit: the document's filename and its decrypted text.
type Match struct {
	DocumentID int64  `json:"document_id"`
	Filename   string `json:"filename"`
	Text       string `json:"text"`
}

// SearchResponse is the response for a search request. Matches carry the
// preview that was written to history, not the full text.
type SearchResponse struct {
	Query     string   `json:"query"`
	User      string   `json:"user"`
	Matches   []*Match `json:"matches"`
	Total     int      `json:"total"`
	QueryTime int64    `json:"query_time_ms"`
	// HistoryError is set when matches were found but recording them failed.
	HistoryError string `json:"history_error,omitempty"`
}

// Status summarizes what is stored.
type Status struct {
	Documents      int64  `json:"documents"`
	HistoryRecords int64  `json:"history_records"`
	KeyID          string `json:"key_id"`
	KeySource      string `json:"key_source"`
	DiskUsageBytes *int64 `json:"disk_usage_bytes,omitempty"`
}
