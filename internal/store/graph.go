package store

import (
	"iter"
	"maps"
	"slices"
	"strings"

	"library/internal/fact"
)

// Graph is an in-memory set of triples with a subject index. It is not safe
// for concurrent use; Store serializes access to it.
type Graph struct {
	triples   map[fact.Triple]struct{}
	bySubject map[fact.Term]map[fact.Triple]struct{}
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		triples:   make(map[fact.Triple]struct{}),
		bySubject: make(map[fact.Term]map[fact.Triple]struct{}),
	}
}

// Len returns the number of triples.
func (g *Graph) Len() int { return len(g.triples) }

// Has reports whether the exact triple is present.
func (g *Graph) Has(t fact.Triple) bool {
	_, ok := g.triples[t]
	return ok
}

// Add inserts t and reports whether it was new. Invalid triples are ignored.
func (g *Graph) Add(t fact.Triple) bool {
	if !t.Valid() || g.Has(t) {
		return false
	}
	g.triples[t] = struct{}{}
	idx := g.bySubject[t.Subject]
	if idx == nil {
		idx = make(map[fact.Triple]struct{})
		g.bySubject[t.Subject] = idx
	}
	idx[t] = struct{}{}
	return true
}

// Remove deletes t and reports whether it was present.
func (g *Graph) Remove(t fact.Triple) bool {
	if !g.Has(t) {
		return false
	}
	delete(g.triples, t)
	idx := g.bySubject[t.Subject]
	delete(idx, t)
	if len(idx) == 0 {
		delete(g.bySubject, t.Subject)
	}
	return true
}

// RemoveMatching deletes every triple matching p and returns how many went.
func (g *Graph) RemoveMatching(p fact.Pattern) int {
	doomed := slices.Collect(g.Match(p))
	for _, t := range doomed {
		g.Remove(t)
	}
	return len(doomed)
}

// Match lazily yields the triples matching p. The graph must not be modified
// while the sequence is being consumed.
func (g *Graph) Match(p fact.Pattern) iter.Seq[fact.Triple] {
	return func(yield func(fact.Triple) bool) {
		source := g.triples
		if !p.Subject.IsZero() {
			source = g.bySubject[p.Subject]
		}
		for t := range source {
			if p.Matches(t) && !yield(t) {
				return
			}
		}
	}
}

// Objects returns the objects of (s, p, *) in a stable order.
func (g *Graph) Objects(s, p fact.Term) []fact.Term {
	var out []fact.Term
	for t := range g.Match(fact.Pattern{Subject: s, Predicate: p}) {
		out = append(out, t.Object)
	}
	sortTerms(out)
	return out
}

// Value returns one object of (s, p, *). When several exist the smallest in
// encoded order wins, so repeated calls agree.
func (g *Graph) Value(s, p fact.Term) (fact.Term, bool) {
	objs := g.Objects(s, p)
	if len(objs) == 0 {
		return fact.Term{}, false
	}
	return objs[0], true
}

// Subjects returns the distinct subjects of (*, p, o) in a stable order.
func (g *Graph) Subjects(p, o fact.Term) []fact.Term {
	seen := make(map[fact.Term]struct{})
	for t := range g.Match(fact.Pattern{Predicate: p, Object: o}) {
		seen[t.Subject] = struct{}{}
	}
	out := slices.Collect(maps.Keys(seen))
	sortTerms(out)
	return out
}

// Triples returns a snapshot of every triple.
func (g *Graph) Triples() []fact.Triple {
	return slices.Collect(maps.Keys(g.triples))
}

func sortTerms(terms []fact.Term) {
	slices.SortFunc(terms, func(a, b fact.Term) int {
		return strings.Compare(a.String(), b.String())
	})
}
