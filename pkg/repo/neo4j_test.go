package repo

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type city struct {
	Name string
}

func cityToMap(c city) map[string]any {
	return map[string]any{"name": c.Name}
}

func cityFromRecord(rec *neo4j.Record) (city, error) {
	v, ok := rec.Get("n")
	if !ok {
		return city{}, errors.New("record missing n")
	}
	props, ok := v.(map[string]any)
	if !ok {
		return city{}, errors.New("unexpected record shape")
	}
	name, _ := props["name"].(string)
	return city{Name: name}, nil
}

func cityRecord(name string) *neo4j.Record {
	return &neo4j.Record{
		Keys:   []string{"n"},
		Values: []any{map[string]any{"name": name}},
	}
}

type fakeResult struct {
	records []*neo4j.Record
	idx     int
}

func (r *fakeResult) Next(_ context.Context) bool {
	if r.idx >= len(r.records) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeResult) Record() *neo4j.Record { return r.records[r.idx-1] }

type fakeSession struct {
	queries []string
	params  []map[string]any
	records []*neo4j.Record
	err     error
	closed  bool
}

func (s *fakeSession) Run(_ context.Context, cypher string, params map[string]any) (result, error) {
	s.queries = append(s.queries, cypher)
	s.params = append(s.params, params)
	if s.err != nil {
		return nil, s.err
	}
	return &fakeResult{records: s.records}, nil
}

func (s *fakeSession) Close(_ context.Context) error {
	s.closed = true
	return nil
}

func newTestRepo(sess *fakeSession) *Neo4jRepo[city, string] {
	r := NewNeo4jRepo[city, string](nil, "City", cityToMap, cityFromRecord,
		WithIDKey[city, string]("name"))
	r.newSession = func(context.Context) runner { return sess }
	return r
}

func TestGet(t *testing.T) {
	sess := &fakeSession{records: []*neo4j.Record{cityRecord("Chicago")}}
	r := newTestRepo(sess)

	got, err := r.Get(context.Background(), "Chicago")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Chicago" {
		t.Errorf("got %+v", got)
	}
	if !strings.Contains(sess.queries[0], "MATCH (n:City {name: $id})") {
		t.Errorf("cypher = %s", sess.queries[0])
	}
	if !sess.closed {
		t.Error("session not closed")
	}
}

func TestGetNotFound(t *testing.T) {
	r := newTestRepo(&fakeSession{})
	if _, err := r.Get(context.Background(), "Atlantis"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetRunError(t *testing.T) {
	r := newTestRepo(&fakeSession{err: errors.New("down")})
	if _, err := r.Get(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
}

func TestListDefaultsLimit(t *testing.T) {
	sess := &fakeSession{records: []*neo4j.Record{cityRecord("Boston"), cityRecord("Chicago")}}
	r := newTestRepo(sess)

	got, err := r.List(context.Background(), ListOpts{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d", len(got))
	}
	if sess.params[0]["limit"] != 100 {
		t.Errorf("limit = %v, want default 100", sess.params[0]["limit"])
	}
}

func TestCreate(t *testing.T) {
	sess := &fakeSession{records: []*neo4j.Record{cityRecord("Denver")}}
	r := newTestRepo(sess)

	got, err := r.Create(context.Background(), city{Name: "Denver"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.Name != "Denver" {
		t.Errorf("got %+v", got)
	}
	if !strings.Contains(sess.queries[0], "CREATE (n:City $props)") {
		t.Errorf("cypher = %s", sess.queries[0])
	}
	props := sess.params[0]["props"].(map[string]any)
	if props["name"] != "Denver" {
		t.Errorf("props = %v", props)
	}
}

func TestUpdate(t *testing.T) {
	sess := &fakeSession{records: []*neo4j.Record{cityRecord("Seattle")}}
	r := newTestRepo(sess)

	if _, err := r.Update(context.Background(), city{Name: "Seattle"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !strings.Contains(sess.queries[0], "SET n += $props") {
		t.Errorf("cypher = %s", sess.queries[0])
	}
	if sess.params[0]["id"] != "Seattle" {
		t.Errorf("id param = %v", sess.params[0]["id"])
	}
}

func TestDelete(t *testing.T) {
	sess := &fakeSession{}
	r := newTestRepo(sess)

	if err := r.Delete(context.Background(), "Boston"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !strings.Contains(sess.queries[0], "DELETE n") {
		t.Errorf("cypher = %s", sess.queries[0])
	}
}
