// Package graph mirrors the record catalog into a Neo4j knowledge graph.
// Each record becomes a Car node; makes become Make nodes with a MAKES
// relationship to their cars. The Enricher answers structured questions
// about the mirrored catalog for the RAG pipeline.
package graph

// CarNode is a catalog record projected into the graph.
type CarNode struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Make     string `json:"make,omitempty"`
	Type     string `json:"type,omitempty"`
	Seat     int    `json:"seat,omitempty"`
	FuelType string `json:"fuel_type,omitempty"`
}
