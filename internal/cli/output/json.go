package output

import (
	"encoding/json"
	"io"
	"strings"
)

// JSONFormatter writes data as indented JSON. A *Table becomes an array of
// objects keyed by lower-cased header, and <, > and & are not escaped.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(records(data))
}

// records turns a *Table into one map per row so machine-readable formats
// never see the Headers/Rows layout. Other data is returned unchanged.
func records(data any) any {
	t, ok := data.(*Table)
	if !ok {
		return data
	}
	out := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]string, len(t.Headers))
		for i, h := range t.Headers {
			if i < len(row) {
				rec[strings.ToLower(h)] = row[i]
			}
		}
		out = append(out, rec)
	}
	return out
}
