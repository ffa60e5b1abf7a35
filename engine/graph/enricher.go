package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/WessleyAI/autorag/pkg/fn"
	"github.com/WessleyAI/autorag/pkg/repo"
	"github.com/WessleyAI/autorag/pkg/vehiclenlp"
)

// carSource is the graph surface the enricher reads from.
type carSource interface {
	Car(ctx context.Context, id string) (CarNode, error)
	CarsByMake(ctx context.Context, make string) ([]CarNode, error)
}

// Enricher turns retrieved record IDs and question intent into short
// factual statements from the knowledge graph.
type Enricher struct {
	cars     carSource
	analyzer *vehiclenlp.Analyzer
}

// NewEnricher creates a new Enricher.
func NewEnricher(gs *GraphStore, analyzer *vehiclenlp.Analyzer) *Enricher {
	return &Enricher{cars: gs, analyzer: analyzer}
}

// Facts returns one line per retrieved car that has graph attributes worth
// reporting, plus a catalog summary when the question names a known make.
// IDs missing from the graph are skipped.
func (e *Enricher) Facts(ctx context.Context, question string, ids []string) ([]string, error) {
	attrs := e.analyzer.Attributes(question)

	var facts []string
	for _, id := range ids {
		car, err := e.cars.Car(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("graph: enrich %s: %w", id, err)
		}
		if line := carFact(car, attrs); line != "" {
			facts = append(facts, line)
		}
	}

	if make, ok := e.analyzer.Make(question); ok {
		cars, err := e.cars.CarsByMake(ctx, make)
		if err != nil {
			return nil, fmt.Errorf("graph: cars by make %s: %w", make, err)
		}
		if len(cars) > 0 {
			carIDs := fn.Map(cars, func(c CarNode) string { return c.ID })
			facts = append(facts, fmt.Sprintf("%s makes %d of the cars in the catalog: %s.",
				make, len(cars), strings.Join(carIDs, ", ")))
		}
	}
	return facts, nil
}

// carFact renders the attributes of one car the question asked about. With
// no recognized attribute intent every known attribute is included.
func carFact(c CarNode, attrs []vehiclenlp.Attribute) string {
	if len(attrs) == 0 {
		attrs = []vehiclenlp.Attribute{
			vehiclenlp.AttrMake,
			vehiclenlp.AttrType,
			vehiclenlp.AttrSeats,
			vehiclenlp.AttrFuel,
		}
	}
	var parts []string
	for _, a := range attrs {
		switch a {
		case vehiclenlp.AttrMake:
			if c.Make != "" {
				parts = append(parts, "made by "+c.Make)
			}
		case vehiclenlp.AttrType:
			if c.Type != "" {
				parts = append(parts, "a "+c.Type)
			}
		case vehiclenlp.AttrSeats:
			if c.Seat > 0 {
				parts = append(parts, fmt.Sprintf("%d seats", c.Seat))
			}
		case vehiclenlp.AttrFuel:
			if c.FuelType != "" {
				parts = append(parts, c.FuelType+" fuel")
			}
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("(%s) %s", c.ID, strings.Join(parts, ", "))
}
