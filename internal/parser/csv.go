package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// csvBatchRows is the number of data rows grouped into one section.
const csvBatchRows = 20

// CSVParser handles CSV files. Every data row becomes one line of
// "header: value" pairs.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := &Document{Title: titleFromName(filename)}
	if len(records) == 0 {
		return doc, nil
	}

	headers, rows := records[0], records[1:]
	for start := 0; start < len(rows); start += csvBatchRows {
		end := min(start+csvBatchRows, len(rows))

		lines := make([]string, 0, end-start)
		for _, row := range rows[start:end] {
			lines = append(lines, csvLine(headers, row))
		}
		doc.Sections = append(doc.Sections, Section{
			// Spreadsheet row numbers: 1-indexed, after the header.
			Heading: fmt.Sprintf("Rows %d-%d", start+2, end+1),
			Text:    strings.Join(lines, "\n"),
		})
	}

	return doc, nil
}

func csvLine(headers, row []string) string {
	cells := make([]string, 0, len(row))
	for i, cell := range row {
		if strings.TrimSpace(cell) == "" {
			continue
		}
		if i < len(headers) && headers[i] != "" {
			cell = headers[i] + ": " + cell
		}
		cells = append(cells, cell)
	}
	return strings.Join(cells, ", ")
}
