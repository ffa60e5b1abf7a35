package domain

import "fmt"

// ValidateRecord checks a single record: non-empty id and text, seat not
// negative. Attribute values themselves are free-form; the dataset, not this
// package, owns what counts as a make or a fuel type.
func ValidateRecord(r Record) error {
	if r.ID == "" {
		return NewValidationError("id", r.ID, ErrEmptyID)
	}
	if r.Text == "" {
		return NewValidationError("text", r.Text, ErrEmptyText)
	}
	if r.Seat < 0 {
		return NewValidationError("seat", fmt.Sprintf("%d", r.Seat), ErrNegativeSeat)
	}
	return nil
}

// ValidateRecords checks every record and id uniqueness across the set.
func ValidateRecords(records []Record) error {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if err := ValidateRecord(r); err != nil {
			return err
		}
		if _, ok := seen[r.ID]; ok {
			return NewValidationError("id", r.ID, ErrDuplicateID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}
