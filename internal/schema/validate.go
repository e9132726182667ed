package schema

import (
	"fmt"
	"slices"
	"strings"

	"library/internal/fact"
	"library/internal/store"
)

// Required lists the attributes every instance of a class must carry.
var Required = map[Class][]Predicate{
	Admin:       {Username, Password},
	Member:      {Username, Password, MemberID},
	Book:        {Title, ISBN, Author, Year, IsAvailable},
	Transaction: {BorrowDate, DueDate, InvolvesBook, HasTransaction},
}

// single lists attributes that must never hold more than one value.
var single = map[Class][]Predicate{
	Book:        {IsAvailable, Year},
	Transaction: {BorrowDate, DueDate, InvolvesBook, HasTransaction},
}

// Issue describes one way the graph breaks the schema.
type Issue struct {
	Subject ID
	Class   Class
	Problem string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %s: %s", i.Class, i.Subject, i.Problem)
}

// Validate checks every typed entity in g against the schema. An empty result
// means the graph is consistent.
func Validate(g *store.Graph) []Issue {
	var issues []Issue
	add := func(id ID, c Class, format string, args ...any) {
		issues = append(issues, Issue{Subject: id, Class: c, Problem: fmt.Sprintf(format, args...)})
	}

	for _, c := range []Class{Admin, Member, Book, Transaction} {
		for _, id := range InstancesOf(g, c) {
			for _, p := range Required[c] {
				if len(g.Objects(id.Term(), p.Term())) == 0 {
					add(id, c, "missing %s", p)
				}
			}
			for _, p := range single[c] {
				if n := len(g.Objects(id.Term(), p.Term())); n > 1 {
					add(id, c, "%s has %d values", p, n)
				}
			}
		}
	}

	for _, id := range InstancesOf(g, Book) {
		if v, ok := g.Value(id.Term(), IsAvailable.Term()); ok {
			if _, ok := v.Bool(); !ok {
				add(id, Book, "isAvailable %q is not a boolean", v.Value)
			}
		}
		if v, ok := g.Value(id.Term(), Year.Term()); ok {
			if _, err := v.Int(); err != nil {
				add(id, Book, "year %q is not an integer", v.Value)
			}
		}
	}

	for _, id := range InstancesOf(g, Transaction) {
		if b, ok := Link(g, id, InvolvesBook); ok && !IsA(g, b, Book) {
			add(id, Transaction, "involvesBook %s is not a Book", b)
		}
		if m, ok := Link(g, id, HasTransaction); ok && !IsA(g, m, Member) {
			add(id, Transaction, "hasTransaction %s is not a Member", m)
		}
	}

	issues = append(issues, duplicates(g, []Class{Admin, Member}, Username)...)
	issues = append(issues, duplicates(g, []Class{Member}, MemberID)...)
	return issues
}

// duplicates reports values of p shared by more than one instance of classes.
func duplicates(g *store.Graph, classes []Class, p Predicate) []Issue {
	owners := make(map[string][]ID)
	classOf := make(map[ID]Class)
	for _, c := range classes {
		for _, id := range InstancesOf(g, c) {
			classOf[id] = c
			for _, v := range g.Objects(id.Term(), p.Term()) {
				owners[v.Value] = append(owners[v.Value], id)
			}
		}
	}

	values := make([]string, 0, len(owners))
	for v := range owners {
		values = append(values, v)
	}
	slices.Sort(values)

	var issues []Issue
	for _, v := range values {
		ids := owners[v]
		if len(ids) < 2 {
			continue
		}
		for _, id := range ids[1:] {
			issues = append(issues, Issue{
				Subject: id,
				Class:   classOf[id],
				Problem: fmt.Sprintf("%s %q already used by %s", p, v, ids[0]),
			})
		}
	}
	return issues
}

// Describe renders an entity's facts, for diagnostics.
func Describe(g *store.Graph, id ID) []fact.Triple {
	var out []fact.Triple
	for t := range g.Match(fact.Pattern{Subject: id.Term()}) {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b fact.Triple) int {
		return strings.Compare(a.String(), b.String())
	})
	return out
}
