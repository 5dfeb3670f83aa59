package report

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"todoqueue/internal/storage"
)

// Exporter writes a snapshot of the whole list: pending items first in their
// manual order, then completed items newest first.
type Exporter struct {
	st *storage.Store
}

func NewExporter(st *storage.Store) *Exporter { return &Exporter{st: st} }

type exportItem struct {
	ID          int      `json:"id"`
	Text        string   `json:"text"`
	Status      string   `json:"status"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	CreatedAt   string   `json:"created_at"`
	CompletedAt string   `json:"completed_at,omitempty"`
}

func (e *Exporter) Export(format string) ([]byte, error) {
	items, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(format) {
	case "json":
		return json.MarshalIndent(items, "", "  ")

	case "csv":
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.Write([]string{"id", "status", "text", "category", "tags", "created_at", "completed_at"}); err != nil {
			return nil, err
		}
		for _, it := range items {
			rec := []string{
				fmt.Sprint(it.ID), it.Status, it.Text, it.Category,
				strings.Join(it.Tags, ","), it.CreatedAt, it.CompletedAt,
			}
			if err := w.Write(rec); err != nil {
				return nil, err
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case "pdf":
		pdf := gofpdf.New("P", "mm", "A4", "")
		pdf.AddPage()
		pdf.SetFont("Arial", "B", 14)
		pdf.Cell(40, 10, "TodoQueue")
		pdf.Ln(12)
		pdf.SetFont("Arial", "", 10)
		for _, it := range items {
			box := "[ ]"
			if it.Status == storage.StatusCompleted {
				box = "[x]"
			}
			line := fmt.Sprintf("%s %s", box, it.Text)
			if it.Category != "" {
				line += fmt.Sprintf(" [%s]", it.Category)
			}
			if len(it.Tags) > 0 {
				line += " #" + strings.Join(it.Tags, " #")
			}
			pdf.MultiCell(0, 6, line, "0", "L", false)
		}
		var buf bytes.Buffer
		if err := pdf.Output(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

func (e *Exporter) snapshot() ([]exportItem, error) {
	pending, err := e.st.Pending()
	if err != nil {
		return nil, fmt.Errorf("load pending: %w", err)
	}
	completed, err := e.st.Completed()
	if err != nil {
		return nil, fmt.Errorf("load completed: %w", err)
	}

	out := make([]exportItem, 0, len(pending)+len(completed))
	for _, it := range append(pending, completed...) {
		out = append(out, exportItem{
			ID:          it.ID,
			Text:        it.Text,
			Status:      it.Status,
			Category:    it.Category,
			Tags:        storage.SplitTags(it.Tags),
			CreatedAt:   it.CreatedAt.Format(time.RFC3339),
			CompletedAt: formatNullTime(it.CompletedAt),
		})
	}
	return out, nil
}

func formatNullTime(t sql.NullTime) string {
	if !t.Valid {
		return ""
	}
	return t.Time.Format(time.RFC3339)
}
