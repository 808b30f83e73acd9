package history

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

var exportTemplate = template.Must(template.New("export").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>gosummarize - {{.Title}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 40px; }
.article-title { font-size: 1.8em; font-weight: bold; margin-bottom: 20px; border-bottom: 2px solid #ccc; padding-bottom: 10px; }
pre { white-space: pre-wrap; word-wrap: break-word; font-family: Arial, sans-serif; font-size: 1em; }
</style>
</head>
<body>
<h1 class="article-title">{{.Title}}</h1>
<p>Summary generated on: {{.Date}}</p>
<pre>{{.Summary}}</pre>
</body>
</html>
`))

// RenderHTML renders rec as a standalone page meant for print-to-PDF.
func RenderHTML(rec Record) ([]byte, error) {
	title := rec.Title
	if strings.TrimSpace(title) == "" {
		title = "Summary Export"
	}
	var buf bytes.Buffer
	err := exportTemplate.Execute(&buf, Record{Title: title, Date: rec.Date, Summary: rec.Summary})
	if err != nil {
		return nil, fmt.Errorf("render export: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportHTML renders the record at display index i.
func (s *Store) ExportHTML(ctx context.Context, i int) ([]byte, error) {
	rec, err := s.Get(ctx, i)
	if err != nil {
		return nil, err
	}
	return RenderHTML(rec)
}

// ExportPDF writes the record at display index i to outPath as a PDF.
func (s *Store) ExportPDF(ctx context.Context, i int, outPath string) error {
	rec, err := s.Get(ctx, i)
	if err != nil {
		return err
	}
	return WritePDF(rec, outPath)
}

// WritePDF lays rec out as title, date line and the summary body, one
// paragraph or bullet per line.
func WritePDF(rec Record, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; map UTF-8 input onto it.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	title := rec.Title
	if strings.TrimSpace(title) == "" {
		title = "Summary Export"
	}
	pdf.SetTitle(title, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 8, tr(title), "", "L", false)
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(0, 6, tr("Summary generated on: "+rec.Date), "", 1, "L", false, 0, "")
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 11)

	scanner := bufio.NewScanner(strings.NewReader(rec.Summary))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			pdf.Ln(4)
			continue
		}
		if strings.HasPrefix(line, "-") {
			// hanging indent for bullets
			pdf.SetX(pdf.GetX() + 4)
		}
		pdf.MultiCell(0, 5, tr(line), "", "L", false)
		pdf.Ln(1)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan summary: %w", err)
	}
	return pdf.OutputFileAndClose(outPath)
}
