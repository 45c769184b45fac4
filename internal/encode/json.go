package encode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/albapepper/scoracle-averages/internal/transform"
)

// EncodeJSON writes v with two-space indentation. Documents and records
// keep their key order.
func EncodeJSON(w io.Writer, v any) error {
	compact, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return fmt.Errorf("failed to indent: %w", err)
	}
	out.WriteByte('\n')
	_, err = w.Write(out.Bytes())
	return err
}

// WriteJSON atomically writes one converted workbook to path.
func WriteJSON(path string, doc *transform.Document) error {
	return WriteAtomic(path, func(w io.Writer) error {
		return EncodeJSON(w, doc)
	})
}
