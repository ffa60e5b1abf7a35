package domain

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LoadRecords decodes a JSON array of records and validates the set.
func LoadRecords(r io.Reader) ([]Record, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var records []Record
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("domain: decode dataset: %w", err)
	}
	if err := ValidateRecords(records); err != nil {
		return nil, fmt.Errorf("domain: dataset: %w", err)
	}
	return records, nil
}

// LoadRecordsFile loads the dataset from a JSON file. Records are read once
// at startup and treated as immutable afterwards.
func LoadRecordsFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("domain: open dataset %s: %w", path, err)
	}
	defer f.Close()
	return LoadRecords(f)
}
