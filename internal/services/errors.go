package services

import "errors"

// Service errors
var (
	// ErrInvalidInput is returned before any upstream call is made.
	ErrInvalidInput = errors.New("invalid input")

	// ErrExportFailed wraps workbook construction failures.
	ErrExportFailed = errors.New("dashboard export failed")
)
