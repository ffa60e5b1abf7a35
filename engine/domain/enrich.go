package domain

import (
	"fmt"
	"strings"
)

// Enrichment clause templates. Order and phrasing are fixed: embeddings of
// the same record must be reproducible across runs and implementations.
const (
	clauseMake = " This car is made by %s."
	clauseType = " It is a type of %s."
	clauseSeat = " It has %d seats."
	clauseFuel = " It uses %s fuel."
)

// Enrich returns the record's text with one clause appended per present
// attribute, in make, type, seat, fuel order. The enriched form is used only
// to compute the embedding; the stored document stays the original text.
func Enrich(r Record) string {
	var b strings.Builder
	b.WriteString(r.Text)
	if r.Make != "" {
		fmt.Fprintf(&b, clauseMake, r.Make)
	}
	if r.Type != "" {
		fmt.Fprintf(&b, clauseType, r.Type)
	}
	if r.Seat > 0 {
		fmt.Fprintf(&b, clauseSeat, r.Seat)
	}
	if r.FuelType != "" {
		fmt.Fprintf(&b, clauseFuel, r.FuelType)
	}
	return b.String()
}
