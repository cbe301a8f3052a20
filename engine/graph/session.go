// Package graph writes normalized trips into a Neo4j property graph and
// serves the lookup queries over it. All schema names (labels and
// relationship types) are fixed identifiers baked into this package;
// record content only ever travels as query parameters.
package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/VoyagentAI/voyagent-mvp/pkg/repo"
)

// CypherResult is the minimal read surface of a query result.
type CypherResult interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
	Err() error
}

// CypherRunner executes a single Cypher statement. Both sessions and
// in-flight transactions satisfy it.
type CypherRunner interface {
	Run(ctx context.Context, cypher string, params map[string]any) (CypherResult, error)
}

// CypherSession is one unit of connection to the graph store.
type CypherSession interface {
	CypherRunner
	ExecuteWrite(ctx context.Context, work func(tx CypherRunner) (any, error)) (any, error)
	Close(ctx context.Context) error
}

// SessionOpener abstracts session creation so tests can substitute an
// in-memory session for the real driver.
type SessionOpener interface {
	OpenSession(ctx context.Context) CypherSession
}

// GraphStore provides trip-graph operations on top of a session opener.
type GraphStore struct {
	opener SessionOpener
	cities *repo.Neo4jRepo[City, string]
}

// New creates a GraphStore backed by a Neo4j driver.
func New(driver neo4j.DriverWithContext) *GraphStore {
	return &GraphStore{
		opener: &driverOpener{driver: driver},
		cities: newCityRepo(driver),
	}
}

// NewWithOpener creates a GraphStore with a custom session opener.
func NewWithOpener(opener SessionOpener) *GraphStore {
	return &GraphStore{opener: opener}
}

// --- driver adapters ---

type driverOpener struct {
	driver neo4j.DriverWithContext
}

func (o *driverOpener) OpenSession(ctx context.Context) CypherSession {
	return &driverSession{sess: o.driver.NewSession(ctx, neo4j.SessionConfig{})}
}

type driverSession struct {
	sess neo4j.SessionWithContext
}

func (s *driverSession) Run(ctx context.Context, cypher string, params map[string]any) (CypherResult, error) {
	res, err := s.sess.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *driverSession) ExecuteWrite(ctx context.Context, work func(tx CypherRunner) (any, error)) (any, error) {
	return s.sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(&managedTx{tx: tx})
	})
}

func (s *driverSession) Close(ctx context.Context) error {
	return s.sess.Close(ctx)
}

type managedTx struct {
	tx neo4j.ManagedTransaction
}

func (m *managedTx) Run(ctx context.Context, cypher string, params map[string]any) (CypherResult, error) {
	res, err := m.tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return res, nil
}
