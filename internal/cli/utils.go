// Package cli formats docvault results for the command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/docvault/internal/models"
	"github.com/hyperjump/docvault/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// textPreviewLength bounds match text printed in text mode.
const textPreviewLength = 200

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use text or json)", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d matches for %q in %dms (user %s)\n\n",
		response.Total, response.Query, response.QueryTime, response.User)
	for i, m := range response.Matches {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "%d. %s (id %d)\n", i+1, m.Filename, m.DocumentID)
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(m.Text, textPreviewLength))
	}
	if response.HistoryError != "" {
		fmt.Fprintf(w, "warning: history not recorded: %s\n", response.HistoryError)
	}
	return nil
}

// WriteHistory writes a user's history records to w.
func WriteHistory(w io.Writer, user string, recs []*models.HistoryRecord, format OutputFormat) error {
	if format == OutputJSON {
		if recs == nil {
			recs = []*models.HistoryRecord{}
		}
		return writeJSON(w, map[string]interface{}{"user": user, "records": recs})
	}
	if len(recs) == 0 {
		fmt.Fprintf(w, "No history for %s\n", user)
		return nil
	}
	fmt.Fprintf(w, "History for %s (%d records)\n\n", user, len(recs))
	for _, rec := range recs {
		fmt.Fprintf(w, "[%d] Query: %s\n    Response: %s\n", rec.ID, rec.Query,
			utils.Truncate(strings.ReplaceAll(rec.Response, "\n", " "), textPreviewLength))
	}
	return nil
}

// WriteStatus writes store statistics to w.
func WriteStatus(w io.Writer, st *models.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	fmt.Fprintf(w, "Documents:       %d\n", st.Documents)
	fmt.Fprintf(w, "History records: %d\n", st.HistoryRecords)
	fmt.Fprintf(w, "Key:             %s (%s)\n", st.KeyID, st.KeySource)
	if st.DiskUsageBytes != nil {
		fmt.Fprintf(w, "Disk usage:      %s\n", FormatBytes(*st.DiskUsageBytes))
	}
	return nil
}

// FormatBytes renders n using binary units.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
