package report

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// Format of a saved report
type Format string

const (
	FormatTable   Format = "table"
	FormatYAML    Format = "yaml"
	FormatJSON    Format = "json"
	FormatJSONL   Format = "jsonl"
	FormatParquet Format = "parquet"
)

// FormatFromPath picks the format from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".jsonl":
		return FormatJSONL, nil
	case ".parquet":
		return FormatParquet, nil
	case ".txt", "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unsupported file format: %s (supported: .yaml, .json, .jsonl, .parquet, .txt)", filepath.Ext(path))
	}
}

// Save writes the report to path in the format implied by its extension
func Save(r Report, path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if format == FormatParquet {
		if err := parquet.WriteFile(path, r.Rows()); err != nil {
			return fmt.Errorf("failed to write parquet file: %w", err)
		}
	} else {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		if err := Write(f, r, format); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close report file: %w", err)
		}
	}

	slog.Info("Report saved", "path", path, "format", format, "students", len(r.Roster))
	return nil
}

// Write renders the report to w. Parquet needs a file; use Save for it.
func Write(w io.Writer, r Report, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return nil
	case FormatJSONL:
		enc := json.NewEncoder(w)
		for _, row := range r.Rows() {
			if err := enc.Encode(row); err != nil {
				return fmt.Errorf("failed to encode row: %w", err)
			}
		}
		return nil
	case FormatTable, "":
		return writeTable(w, r)
	default:
		return fmt.Errorf("format %q cannot be written to a stream", format)
	}
}

func writeTable(w io.Writer, r Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Class %s, session %s\n", r.ClassID, r.SessionDate)
	fmt.Fprintln(tw, "ID\tFULL NAME\tEMAIL\tPHONE\tSTATUS")
	for _, e := range r.Roster {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.StudentID, e.FullName, e.Email, e.Phone, e.Status)
	}
	fmt.Fprintf(tw, "\nPresent: %d\tAbsent: %d\n", r.Present, r.Absent)
	if len(r.Recognized) > 0 {
		fmt.Fprintln(tw, "\nRecognized this session:")
		for _, rec := range r.Recognized {
			fmt.Fprintf(tw, "  %s (ID: %s)\n", rec.FullName, rec.StudentID)
		}
	}
	return tw.Flush()
}
