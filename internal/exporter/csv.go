package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
)

// utf8BOM lets Excel recognize UTF-8 when opening a downloaded file.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes CSV documents to an underlying writer
type CSVWriter struct {
	w io.Writer
}

// NewCSVWriter creates a CSV writer on w
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: w}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool
}

// WriteCSV writes the optional BOM, the headers and every record, then flushes.
func (c *CSVWriter) WriteCSV(options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := c.w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(c.w)

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteSimpleCSV writes headers and records with a BOM prefix
func (c *CSVWriter) WriteSimpleCSV(headers []string, records [][]string) error {
	return c.WriteCSV(WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
}
