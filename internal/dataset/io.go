package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
	"github.com/xuri/excelize/v2"
)

// ReadFile loads a CSV or XLSX extract based on the file extension.
// A missing file is reported as domain.ErrSourceUnavailable.
func ReadFile(path string) (Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(path, "")
	default:
		return ReadCSV(path)
	}
}

// ReadCSV reads a whole CSV file. Rows may have a varying number of fields.
func ReadCSV(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Table{}, fmt.Errorf("%s: %w", path, domain.ErrSourceUnavailable)
		}
		return Table{}, err
	}
	defer f.Close()

	return DecodeCSV(f)
}

// DecodeCSV reads a CSV stream into a table.
func DecodeCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return Table{}, nil
	}
	if err != nil {
		return Table{}, fmt.Errorf("read csv header: %w", err)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("read csv record: %w", err)
		}
		if isBlank(record) {
			continue
		}
		rows = append(rows, record)
	}

	return Table{Header: header, Rows: rows}, nil
}

// ReadXLSX reads one sheet of a workbook; an empty sheet name selects the first.
func ReadXLSX(path, sheet string) (Table, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Table{}, fmt.Errorf("%s: %w", path, domain.ErrSourceUnavailable)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return Table{}, fmt.Errorf("xlsx file %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return Table{}, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return Table{}, nil
	}

	t := Table{Header: rows[0]}
	for _, record := range rows[1:] {
		if isBlank(record) {
			continue
		}
		t.Rows = append(t.Rows, record)
	}
	return t, nil
}

// WriteCSV writes the table to path, creating parent directories.
func WriteCSV(path string, t Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := EncodeCSV(f, t); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// EncodeCSV writes the header and rows to w.
func EncodeCSV(w io.Writer, t Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return err
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
