package report

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// Load reads a report saved by Save. JSONL and Parquet files carry only
// roster rows, so the counters and keys are rebuilt from them.
func Load(path string) (Report, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Report{}, err
	}

	switch format {
	case FormatYAML:
		return loadYAML(path)
	case FormatJSON:
		return loadJSON(path)
	case FormatJSONL:
		rows, err := loadJSONL(path)
		if err != nil {
			return Report{}, err
		}
		return fromRows(rows), nil
	case FormatParquet:
		rows, err := loadParquet(path)
		if err != nil {
			return Report{}, err
		}
		return fromRows(rows), nil
	default:
		return Report{}, fmt.Errorf("cannot load %s reports", format)
	}
}

func loadYAML(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("failed to read report file: %w", err)
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Report{}, fmt.Errorf("failed to parse YAML report: %w", err)
	}
	return r, nil
}

func loadJSON(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("failed to read report file: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return Report{}, fmt.Errorf("failed to parse JSON report: %w", err)
	}
	return r, nil
}

func loadJSONL(path string) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report file: %w", err)
	}
	defer file.Close()

	var rows []Row
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var row Row
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading report: %w", err)
	}
	return rows, nil
}

func loadParquet(path string) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}
	slog.Debug("Parquet report opened", "path", path, "num_rows", pf.NumRows())

	reader := parquet.NewGenericReader[Row](pf)
	defer reader.Close()

	var rows []Row
	batch := make([]Row, 128)
	for {
		n, err := reader.Read(batch)
		rows = append(rows, batch[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}
	return rows, nil
}
