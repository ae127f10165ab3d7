package main

import (
	"embed"
	"io/fs"
	"log/slog"
	"os"

	"agilboard/cmd/agilboard/cmd"
)

// Page templates and the scripts they load
//
//go:embed all:web
var webFiles embed.FS

func main() {
	webFS, err := fs.Sub(webFiles, "web")
	if err != nil {
		slog.Error("Failed to open embedded web assets", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cmd.Execute(webFS)
}
