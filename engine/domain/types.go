// Package domain defines the catalog record model, its validation, the text
// enrichment used for embedding, and the error vocabulary shared by the
// indexing and query pipelines. It acts as the validation gate at pipeline
// entry points.
package domain

// Record is one vehicle description from the source dataset. ID is unique and
// stable; Text is the base description stored as the retrievable document.
// The remaining attributes are optional: a zero value means absent.
type Record struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Make     string `json:"make,omitempty"`
	Type     string `json:"type,omitempty"`
	Seat     int    `json:"seat,omitempty"`
	FuelType string `json:"fuel_type,omitempty"`
}

// IDs returns the record ids in input order.
func IDs(records []Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}
