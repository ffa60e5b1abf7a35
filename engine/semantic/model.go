package semantic

// VectorRecord is one embedded document headed for the store. The embedding
// may come from enriched text; Document always holds the original.
type VectorRecord struct {
	ID        string
	Document  string
	Embedding []float32
}

// SearchResult is a single similarity hit.
type SearchResult struct {
	ID       string  `json:"id"`
	Document string  `json:"document"`
	Score    float32 `json:"score"`
}
