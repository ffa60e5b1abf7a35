package graph

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/WessleyAI/autorag/pkg/repo"
)

// newCarRepo creates a Neo4j-backed repository for Car nodes.
func newCarRepo(driver neo4j.DriverWithContext) *repo.Neo4jRepo[CarNode, string] {
	return repo.NewNeo4jRepo[CarNode, string](
		driver,
		"Car",
		carToMap,
		carFromRecord,
	)
}

func carToMap(c CarNode) map[string]any {
	return map[string]any{
		"id":        c.ID,
		"text":      c.Text,
		"make":      c.Make,
		"type":      c.Type,
		"seat":      c.Seat,
		"fuel_type": c.FuelType,
	}
}

func carFromRecord(rec *neo4j.Record) (CarNode, error) {
	node, _, err := neo4j.GetRecordValue[dbtype.Node](rec, "n")
	if err != nil {
		return CarNode{}, err
	}
	props := node.Props
	return CarNode{
		ID:       strProp(props, "id"),
		Text:     strProp(props, "text"),
		Make:     strProp(props, "make"),
		Type:     strProp(props, "type"),
		Seat:     intProp(props, "seat"),
		FuelType: strProp(props, "fuel_type"),
	}, nil
}

func strProp(props map[string]any, key string) string {
	if v, ok := props[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// intProp reads an integer property. Neo4j returns integers as int64.
func intProp(props map[string]any, key string) int {
	if v, ok := props[key]; ok {
		if n, ok := v.(int64); ok {
			return int(n)
		}
	}
	return 0
}
