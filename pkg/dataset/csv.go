package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNoHeader is returned when a CSV file has no header row.
var ErrNoHeader = errors.New("csv file has no header row")

// ReadCSV reads a dataset from a CSV stream. The first record is the header.
func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}

		return nil, fmt.Errorf("read csv header: %w", err)
	}

	ds := New(header...)

	for {
		record, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}

		if readErr != nil {
			return nil, fmt.Errorf("read csv record: %w", readErr)
		}

		row := make(Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}

		ds.Rows = append(ds.Rows, row)
	}

	return ds, nil
}

// LoadCSV reads a dataset from a CSV file on disk.
func LoadCSV(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	ds, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	return ds, nil
}

// WriteCSV writes the dataset to a CSV stream, header first, preserving
// column order.
func (d *Dataset) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	err := writer.Write(d.Columns)
	if err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(d.Columns))

	for _, row := range d.Rows {
		for i, col := range d.Columns {
			record[i] = row.Value(col)
		}

		err = writer.Write(record)
		if err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}

	writer.Flush()

	err = writer.Error()
	if err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	return nil
}

// SaveCSV writes the dataset to a CSV file on disk.
func (d *Dataset) SaveCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer file.Close()

	err = d.WriteCSV(file)
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}

	return nil
}
