package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/WessleyAI/autorag/engine/domain"
	"github.com/WessleyAI/autorag/pkg/repo"
)

// CypherResult is the subset of a neo4j result the store consumes.
type CypherResult interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
	Err() error
}

// CypherRunner runs a single cypher statement.
type CypherRunner interface {
	Run(ctx context.Context, cypher string, params map[string]any) (CypherResult, error)
}

// CypherSession is one unit of graph work.
type CypherSession interface {
	CypherRunner
	Close(ctx context.Context) error
	ExecuteWrite(ctx context.Context, work func(tx CypherRunner) (any, error)) (any, error)
}

// SessionOpener opens sessions against the backing store.
type SessionOpener interface {
	OpenSession(ctx context.Context) CypherSession
}

// driverOpener adapts a neo4j driver to the SessionOpener seam.
type driverOpener struct {
	driver neo4j.DriverWithContext
}

func (o driverOpener) OpenSession(ctx context.Context) CypherSession {
	return driverSession{sess: o.driver.NewSession(ctx, neo4j.SessionConfig{})}
}

type driverSession struct {
	sess neo4j.SessionWithContext
}

func (s driverSession) Run(ctx context.Context, cypher string, params map[string]any) (CypherResult, error) {
	res, err := s.sess.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s driverSession) Close(ctx context.Context) error {
	return s.sess.Close(ctx)
}

func (s driverSession) ExecuteWrite(ctx context.Context, work func(tx CypherRunner) (any, error)) (any, error) {
	return s.sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(managedTxRunner{tx: tx})
	})
}

type managedTxRunner struct {
	tx neo4j.ManagedTransaction
}

func (r managedTxRunner) Run(ctx context.Context, cypher string, params map[string]any) (CypherResult, error) {
	res, err := r.tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// GraphStore provides catalog operations on top of the generic Neo4j repository.
type GraphStore struct {
	driver neo4j.DriverWithContext
	opener SessionOpener
	cars   *repo.Neo4jRepo[CarNode, string]
}

// New creates a new GraphStore.
func New(driver neo4j.DriverWithContext) *GraphStore {
	return &GraphStore{
		driver: driver,
		opener: driverOpener{driver: driver},
		cars:   newCarRepo(driver),
	}
}

// NewWithOpener creates a GraphStore on a custom session opener. Only the
// cypher-backed operations work; repo-backed reads need a driver.
func NewWithOpener(opener SessionOpener) *GraphStore {
	return &GraphStore{opener: opener}
}

// SaveCar creates or updates the Car node for a record, along with its
// Make node and the MAKES relationship when the record names a make.
func (g *GraphStore) SaveCar(ctx context.Context, rec domain.Record) error {
	node := CarNode{
		ID:       rec.ID,
		Text:     rec.Text,
		Make:     rec.Make,
		Type:     rec.Type,
		Seat:     rec.Seat,
		FuelType: rec.FuelType,
	}

	sess := g.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	_, err := sess.ExecuteWrite(ctx, func(tx CypherRunner) (any, error) {
		cypher := `MERGE (c:Car {id: $id}) SET c += $props`
		if _, err := tx.Run(ctx, cypher, map[string]any{
			"id":    node.ID,
			"props": carToMap(node),
		}); err != nil {
			return nil, err
		}
		if node.Make == "" {
			return nil, nil
		}
		cypher = `MERGE (m:Make {name: $make})
		          WITH m
		          MATCH (c:Car {id: $id})
		          MERGE (m)-[:MAKES]->(c)`
		if _, err := tx.Run(ctx, cypher, map[string]any{
			"make": node.Make,
			"id":   node.ID,
		}); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("graph: save car %s: %w", rec.ID, err)
	}
	return nil
}

// Car returns a car node by record ID.
func (g *GraphStore) Car(ctx context.Context, id string) (CarNode, error) {
	return g.cars.Get(ctx, id)
}

// CarsByMake returns all cars of a given make.
func (g *GraphStore) CarsByMake(ctx context.Context, make string) ([]CarNode, error) {
	return g.cars.List(ctx, repo.ListOpts{Filter: map[string]any{"make": make}})
}

// NodeCounts returns node counts grouped by label.
func (g *GraphStore) NodeCounts(ctx context.Context) (map[string]int64, error) {
	sess := g.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	cypher := `MATCH (n) RETURN labels(n)[0] AS type, count(*) AS count`
	result, err := sess.Run(ctx, cypher, nil)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	for result.Next(ctx) {
		rec := result.Record()
		typ, _ := rec.Get("type")
		cnt, _ := rec.Get("count")
		if t, ok := typ.(string); ok {
			if c, ok := cnt.(int64); ok {
				counts[t] = c
			}
		}
	}
	return counts, result.Err()
}

// RelationshipCounts returns relationship counts grouped by type.
func (g *GraphStore) RelationshipCounts(ctx context.Context) (map[string]int64, error) {
	sess := g.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	cypher := `MATCH ()-[r]->() RETURN type(r) AS type, count(*) AS count`
	result, err := sess.Run(ctx, cypher, nil)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	for result.Next(ctx) {
		rec := result.Record()
		typ, _ := rec.Get("type")
		cnt, _ := rec.Get("count")
		if t, ok := typ.(string); ok {
			if c, ok := cnt.(int64); ok {
				counts[t] = c
			}
		}
	}
	return counts, result.Err()
}

// Close releases the underlying driver.
func (g *GraphStore) Close(ctx context.Context) error {
	if g.driver == nil {
		return nil
	}
	return g.driver.Close(ctx)
}
