package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/ipartes/quote-cli/internal/model"
)

// Output formats accepted by --output.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// readInput returns the product text from args, joined by newlines so each
// argument counts as one line, or from r when no args are given.
func readInput(r io.Reader, args []string) (string, error) {
	var input string
	if len(args) > 0 {
		input = strings.Join(args, "\n")
	} else {
		data, err := io.ReadAll(r)
		if err != nil {
			return "", eris.Wrap(err, "read stdin")
		}
		input = string(data)
	}
	if strings.TrimSpace(input) == "" {
		return "", eris.New("no product text: pass it as arguments or on stdin")
	}
	return input, nil
}

// writeStructured encodes v as json or yaml.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return eris.Wrap(enc.Encode(v), "encode json")
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return eris.Wrap(enc.Close(), "encode yaml")
	default:
		return eris.Errorf("unsupported output format %q", format)
	}
}

// formatSuppliersList writes a tabular list of suppliers to w.
func formatSuppliersList(out io.Writer, suppliers []model.Supplier) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tMANUFACTURER\tEMAILS\tUPDATED")
	_, _ = fmt.Fprintln(w, "--\t------------\t------\t-------")

	for _, s := range suppliers {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			s.ID,
			s.Manufacturer,
			strings.Join(s.Emails, ", "),
			s.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}
