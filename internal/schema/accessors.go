package schema

import (
	"library/internal/fact"
	"library/internal/store"
)

// IsA reports whether id is typed as class c.
func IsA(g *store.Graph, id ID, c Class) bool {
	return g.Has(fact.T(id.Term(), Type, c.Term()))
}

// InstancesOf returns every subject typed as c, in a stable order.
func InstancesOf(g *store.Graph, c Class) []ID {
	var ids []ID
	for _, s := range g.Subjects(Type, c.Term()) {
		if id, ok := IDOf(s); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Literal returns the lexical value of attribute p on id.
func Literal(g *store.Graph, id ID, p Predicate) (string, bool) {
	v, ok := g.Value(id.Term(), p.Term())
	if !ok || !v.IsLiteral() {
		return "", false
	}
	return v.Value, true
}

// LiteralOr returns the value of attribute p, or def when it is absent.
func LiteralOr(g *store.Graph, id ID, p Predicate, def string) string {
	if v, ok := Literal(g, id, p); ok {
		return v
	}
	return def
}

// Bool returns attribute p interpreted as a boolean.
func Bool(g *store.Graph, id ID, p Predicate) (bool, bool) {
	v, ok := g.Value(id.Term(), p.Term())
	if !ok {
		return false, false
	}
	return v.Bool()
}

// Int returns attribute p interpreted as an integer.
func Int(g *store.Graph, id ID, p Predicate) (int64, bool) {
	v, ok := g.Value(id.Term(), p.Term())
	if !ok {
		return 0, false
	}
	n, err := v.Int()
	return n, err == nil
}

// Link returns the entity that relation p on id points at.
func Link(g *store.Graph, id ID, p Predicate) (ID, bool) {
	v, ok := g.Value(id.Term(), p.Term())
	if !ok {
		return "", false
	}
	return IDOf(v)
}

// Set adds the fact (id, p, o).
func Set(g *store.Graph, id ID, p Predicate, o fact.Term) {
	g.Add(fact.T(id.Term(), p.Term(), o))
}

// Replace drops every (id, p, *) fact before adding (id, p, o), so the
// attribute never holds two values.
func Replace(g *store.Graph, id ID, p Predicate, o fact.Term) {
	g.RemoveMatching(fact.Pattern{Subject: id.Term(), Predicate: p.Term()})
	Set(g, id, p, o)
}

// Declare types id as class c.
func Declare(g *store.Graph, id ID, c Class) {
	g.Add(fact.T(id.Term(), Type, c.Term()))
}
