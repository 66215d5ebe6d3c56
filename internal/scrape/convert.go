package scrape

import (
	"archive/zip"
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/ledongthuc/pdf"
	_ "modernc.org/sqlite"

	"github.com/ashureev/quiz-agent/internal/session"
)

const (
	// textPreviewLimit bounds how much of any text resource lands in the
	// LLM context.
	textPreviewLimit = 4000
	// csvInlineLimit bounds the CSV excerpt shown to the model. The full
	// CSV still reaches generated code through Data.CSV.
	csvInlineLimit = 8000
	maxLinksShown  = 5
)

// Data carries the machine-readable side of a converted page: raw CSV
// content for the sandbox and scalar parameters extracted from the page.
type Data struct {
	CSV    string
	Params map[string]any
}

// Converter downloads a page's linked files, saves them into the session
// directory, and renders everything into one context string for the LLM.
type Converter struct {
	fetcher *Fetcher
}

// NewConverter creates a Converter that downloads files with fetcher.
func NewConverter(fetcher *Fetcher) *Converter {
	return &Converter{fetcher: fetcher}
}

// Convert renders a loaded page into LLM context plus structured data.
// Individual file failures are reported inline as FILE ERROR lines and
// never abort the conversion.
func (c *Converter) Convert(ctx context.Context, page *Page, sess *session.Session) (string, *Data) {
	var b strings.Builder
	data := &Data{Params: map[string]any{}}
	for k, v := range page.Params {
		data.Params[k] = v
	}

	b.WriteString(page.Text)
	b.WriteString("\n")

	for _, f := range page.Files {
		c.renderFile(ctx, &b, data, f, sess)
	}

	for _, src := range page.Audio {
		fmt.Fprintf(&b, "\nAUDIO FILE: %s\n", src)
	}

	if len(page.Links) > 0 {
		b.WriteString("\nLINKS:")
		for i, l := range page.Links {
			if i == maxLinksShown {
				break
			}
			fmt.Fprintf(&b, " %s", l.Href)
		}
		b.WriteString("\n")
	}

	if len(data.Params) == 0 {
		data.Params = nil
	}
	return b.String(), data
}

func (c *Converter) renderFile(ctx context.Context, b *strings.Builder, data *Data, f Link, sess *session.Session) {
	name := path.Base(f.Href)
	raw, err := c.fetcher.Download(ctx, f.Href)
	if err != nil {
		fmt.Fprintf(b, "\nFILE ERROR (%s): %v\n", f.Href, err)
		return
	}
	if _, err := sess.SaveFile(name, raw); err != nil {
		slog.Warn("Failed to save downloaded file", "name", name, "error", err)
	}

	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		content := string(raw)
		data.CSV = content
		fmt.Fprintf(b, "\nCSV DATA (%s):\n%s\n", name, truncate(content, csvInlineLimit))
	case ".json":
		fmt.Fprintf(b, "\nJSON DATA (%s):\n%s\n", name, truncate(string(raw), textPreviewLimit))
	case ".sql":
		fmt.Fprintf(b, "\nSQL FILE (%s):\n%s\n", name, truncate(string(raw), textPreviewLimit))
	case ".txt", ".md":
		fmt.Fprintf(b, "\nTEXT FILE (%s):\n%s\n", name, truncate(string(raw), textPreviewLimit))
	case ".b64":
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
		if err != nil {
			fmt.Fprintf(b, "\nFILE ERROR (%s): decode base64: %v\n", f.Href, err)
			return
		}
		fmt.Fprintf(b, "\nDECODED FILE (%s):\n%s\n", name, truncate(string(decoded), textPreviewLimit))
	case ".zip":
		summary, csv, err := zipSummary(raw, sess)
		if err != nil {
			fmt.Fprintf(b, "\nFILE ERROR (%s): %v\n", f.Href, err)
			return
		}
		if csv != "" && data.CSV == "" {
			data.CSV = csv
		}
		fmt.Fprintf(b, "\nZIP ARCHIVE (%s):\n%s", name, summary)
	case ".pdf":
		text, err := pdfText(raw)
		if err != nil {
			fmt.Fprintf(b, "\nFILE ERROR (%s): extract pdf text: %v\n", f.Href, err)
			return
		}
		fmt.Fprintf(b, "\nPDF TEXT (%s):\n%s\n", name, truncate(text, textPreviewLimit))
	case ".db", ".sqlite", ".sqlite3":
		savedPath, err := sess.SaveFile(name, raw)
		if err != nil {
			fmt.Fprintf(b, "\nFILE ERROR (%s): %v\n", f.Href, err)
			return
		}
		summary, err := sqliteSummary(ctx, savedPath)
		if err != nil {
			fmt.Fprintf(b, "\nFILE ERROR (%s): %v\n", f.Href, err)
			return
		}
		fmt.Fprintf(b, "\nSQLITE DATABASE (%s):\n%s", name, summary)
	default:
		fmt.Fprintf(b, "\nFILE SAVED (%s): %d bytes\n", name, len(raw))
	}
}

// zipSummary lists the archive entries, extracts text previews, and pulls
// out the first CSV member for the sandbox. Members are also unpacked into
// the session directory.
func zipSummary(raw []byte, sess *session.Session) (string, string, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", "", fmt.Errorf("open zip: %w", err)
	}

	var b strings.Builder
	var csv string
	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		fmt.Fprintf(&b, "- %s (%d bytes)\n", entry.Name, entry.UncompressedSize64)

		rc, err := entry.Open()
		if err != nil {
			continue
		}
		content, err := io.ReadAll(io.LimitReader(rc, maxDownload))
		rc.Close()
		if err != nil {
			continue
		}
		if _, err := sess.SaveFile(path.Base(entry.Name), content); err != nil {
			slog.Warn("Failed to unpack zip member", "name", entry.Name, "error", err)
		}

		switch strings.ToLower(path.Ext(entry.Name)) {
		case ".csv":
			if csv == "" {
				csv = string(content)
			}
			fmt.Fprintf(&b, "%s\n", truncate(string(content), csvInlineLimit))
		case ".txt", ".md", ".json", ".sql":
			fmt.Fprintf(&b, "%s\n", truncate(string(content), textPreviewLimit))
		}
	}
	return b.String(), csv, nil
}

// pdfText extracts the plain text of a PDF document.
func pdfText(raw []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sqliteSummary opens a downloaded SQLite file read-only and describes its
// tables so the model can write queries against it.
func sqliteSummary(ctx context.Context, dbPath string) (string, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return "", fmt.Errorf("open sqlite file: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	if err != nil {
		return "", fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return "", err
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, table := range tables {
		var count int64
		// Table names come from sqlite_master, not user input.
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "`+table+`"`).Scan(&count); err != nil {
			fmt.Fprintf(&b, "- %s (row count unavailable: %v)\n", table, err)
			continue
		}
		fmt.Fprintf(&b, "- %s (%d rows)\n", table, count)
	}
	return b.String(), nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "\n[truncated]"
}
