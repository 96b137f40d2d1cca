package main

import (
	"flag"
	"io"
	"os"
	"strings"

	"coversdk/core/content"
)

func runValidateContentCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate-content", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var typeName, path, cid string
	fs.StringVar(&typeName, "type", "", "content type, e.g. coverWalletAddress")
	fs.StringVar(&path, "file", "", "path to the JSON document to validate")
	fs.StringVar(&cid, "cid", "", "validate a CID instead of a document")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if c := strings.TrimSpace(cid); c != "" {
		if !content.IsCID(c) {
			return fail(stderr, "%q is not a valid CID", c)
		}
		writeJSON(stdout, map[string]any{"cid": c, "valid": true})
		return 0
	}
	t := content.Type(strings.TrimSpace(typeName))
	if !t.Valid() {
		names := make([]string, 0, len(content.Types()))
		for _, known := range content.Types() {
			names = append(names, known.String())
		}
		return fail(stderr, "--type must be one of %s", strings.Join(names, ", "))
	}
	if strings.TrimSpace(path) == "" {
		return fail(stderr, "--file is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fail(stderr, "read content: %v", err)
	}
	if _, err := content.DecodeEnvelope(content.Envelope{Type: t, Content: data}); err != nil {
		return fail(stderr, "%v", err)
	}
	writeJSON(stdout, map[string]any{"type": t, "valid": true})
	return 0
}
