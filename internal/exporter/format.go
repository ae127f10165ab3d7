package exporter

import (
	"bytes"
	"encoding/json"
)

// formatRaw renders a raw JSON value as a cell: strings unquoted, null empty, anything
// else as its JSON text.
func formatRaw(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	return string(trimmed)
}
