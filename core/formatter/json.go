package formatter

import (
	"encoding/json"
	"io"
)

// JSONFormatter writes a JSON array of objects.
type JSONFormatter struct{}

func (JSONFormatter) Name() string { return "json" }

func (JSONFormatter) FormatList(w io.Writer, columns []string, records []map[string]any, opts FormatOptions) error {
	enc := json.NewEncoder(w)
	if !opts.Compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(project(columns, records))
}
