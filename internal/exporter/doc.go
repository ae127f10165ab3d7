// Package exporter renders joined problems as CSV downloads.
//
// CSVWriter writes a header row and records to any io.Writer, optionally prefixed with a
// UTF-8 BOM so spreadsheet tools pick the right encoding. WriteProblems lays out
// services.FlatProblem values in the column order of ProblemHeaders.
//
// Example usage:
//
//	var buf bytes.Buffer
//	if err := exporter.WriteProblems(&buf, problems); err != nil {
//	    return err
//	}
package exporter
