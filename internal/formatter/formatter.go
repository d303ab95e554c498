// package formatter exports batch download summaries to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/hazelync/trackdown/internal/models"
	"github.com/hazelync/trackdown/internal/shared"
)

// BatchSummary is a titled set of acquisition results ready for export.
type BatchSummary struct {
	Title   string
	Results []models.AcquisitionResult
}

// Succeeded returns the number of successful acquisitions.
func (b *BatchSummary) Succeeded() int {
	n := 0
	for _, result := range b.Results {
		if result.Success {
			n++
		}
	}
	return n
}

// Failed returns the number of failed acquisitions.
func (b *BatchSummary) Failed() int {
	return len(b.Results) - b.Succeeded()
}

// TotalBytes returns the combined size of all downloaded artifacts.
func (b *BatchSummary) TotalBytes() int64 {
	var total int64
	for _, result := range b.Results {
		if result.Success {
			total += result.FileSizeBytes
		}
	}
	return total
}

// ExportToCSV converts a BatchSummary to CSV format with columns: ID, Title, Artist, Album, Duration, Status, Artifact, Size, Bitrate, Error
func ExportToCSV(summary *BatchSummary) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Duration", "Status", "Artifact", "Size", "Bitrate", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, result := range summary.Results {
		track := result.Track
		record := []string{
			track.ID,
			track.Name,
			track.Artist,
			track.Album,
			strconv.Itoa(track.DurationSec()),
			statusString(result),
			result.ArtifactPath,
			strconv.FormatInt(result.FileSizeBytes, 10),
			strconv.Itoa(result.BitrateKbps),
			result.ErrorMessage(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a BatchSummary to Markdown format
func ExportToMarkdown(summary *BatchSummary) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", summary.Title))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", len(summary.Results)))
	buf.WriteString(fmt.Sprintf("**Downloaded**: %d\n", summary.Succeeded()))
	buf.WriteString(fmt.Sprintf("**Failed**: %d\n", summary.Failed()))
	buf.WriteString(fmt.Sprintf("**Total size**: %s\n\n", shared.FormatBytes(summary.TotalBytes())))

	buf.WriteString("## Tracks\n\n")
	for i, result := range summary.Results {
		track := result.Track
		duration := shared.FormatDuration(track.DurationSec())
		detail := ""
		if result.Success {
			detail = fmt.Sprintf("%s, %d kbps", shared.FormatBytes(result.FileSizeBytes), result.BitrateKbps)
		} else {
			detail = result.ErrorMessage()
		}
		buf.WriteString(fmt.Sprintf("%d. %s %s - %s [%s] (%s)\n",
			i+1, statusIcon(result), track.Artist, track.Name, duration, detail))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a BatchSummary to plain text format
func ExportToText(summary *BatchSummary) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Batch: %s\n", summary.Title))
	buf.WriteString(fmt.Sprintf("Downloaded: %d/%d\n\n", summary.Succeeded(), len(summary.Results)))

	for i, result := range summary.Results {
		track := result.Track
		line := fmt.Sprintf("%d. %s %s - %s", i+1, statusIcon(result), track.Artist, track.Name)
		if !result.Success {
			line += fmt.Sprintf(" (%s)", result.ErrorMessage())
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// ToSummaryJSON generates a JSON representation of the batch outcome counts
func ToSummaryJSON(summary *BatchSummary) ([]byte, error) {
	payload := map[string]any{
		"title":       summary.Title,
		"tracks":      len(summary.Results),
		"downloaded":  summary.Succeeded(),
		"failed":      summary.Failed(),
		"total_bytes": summary.TotalBytes(),
	}
	return json.MarshalIndent(payload, "", "  ")
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	ResultsFile string
	SummaryFile string
}

// WriteCSVExport exports a batch to CSV with an accompanying summary JSON file.
//
// Defaults to the batch title as the base filename & creates {base}_results.csv and {base}_summary.json
func WriteCSVExport(summary *BatchSummary, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = summary.Title
	}

	csvData, err := ExportToCSV(summary)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	resultsFile := baseFilepath + "_results.csv"
	if err := os.WriteFile(resultsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	summaryJSON, err := ToSummaryJSON(summary)
	if err != nil {
		return nil, fmt.Errorf("failed to generate summary JSON: %w", err)
	}

	summaryFile := baseFilepath + "_summary.json"
	if err := os.WriteFile(summaryFile, summaryJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write summary file: %w", err)
	}

	return &CSVExportResult{
		ResultsFile: resultsFile,
		SummaryFile: summaryFile,
	}, nil
}

// WriteMarkdownExport exports a batch report to {path}, defaulting to {title}_report.md.
func WriteMarkdownExport(summary *BatchSummary, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_report.md", summary.Title)
	}

	mdData, err := ExportToMarkdown(summary)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	if err := os.WriteFile(path, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return path, nil
}

// WriteTextExport exports a batch report to plain text.
//
// Defaults to {title}_results.txt as the filename.
func WriteTextExport(summary *BatchSummary, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_results.txt", summary.Title)
	}

	textData, err := ExportToText(summary)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

func statusString(result models.AcquisitionResult) string {
	if result.Success {
		return "downloaded"
	}
	return "failed"
}

func statusIcon(result models.AcquisitionResult) string {
	if result.Success {
		return "✓"
	}
	return "✗"
}
