// Package fact holds the subject-predicate-object model the catalog stores its
// data in, plus the line-oriented textual codec used at the storage boundary.
package fact

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// XML Schema datatypes used for typed literals.
const (
	XSD        = "http://www.w3.org/2001/XMLSchema#"
	XSDInteger = XSD + "integer"
	XSDBoolean = XSD + "boolean"
	XSDDate    = XSD + "date"
)

// DateLayout is the lexical form of xsd:date literals.
const DateLayout = "2006-01-02"

// Kind tells a Term apart as an IRI reference or a literal value.
// The zero Kind marks a wildcard inside a Pattern.
type Kind uint8

const (
	KindAny Kind = iota
	KindIRI
	KindLiteral
)

// Term is one position of a Triple. Terms are comparable and can be used as map keys.
type Term struct {
	Kind     Kind
	Value    string
	Datatype string // literals only; empty for plain strings
}

// IRI returns a reference term.
func IRI(iri string) Term {
	return Term{Kind: KindIRI, Value: iri}
}

// String returns a plain string literal. Invalid UTF-8 sequences are replaced
// with U+FFFD, so the term reads back unchanged after encoding.
func String(s string) Term {
	return Term{Kind: KindLiteral, Value: strings.ToValidUTF8(s, "\uFFFD")}
}

// Integer returns an xsd:integer literal.
func Integer(n int64) Term {
	return Term{Kind: KindLiteral, Value: strconv.FormatInt(n, 10), Datatype: XSDInteger}
}

// Boolean returns an xsd:boolean literal.
func Boolean(b bool) Term {
	return Term{Kind: KindLiteral, Value: strconv.FormatBool(b), Datatype: XSDBoolean}
}

// Date returns an xsd:date literal holding the calendar day of t.
func Date(t time.Time) Term {
	return Term{Kind: KindLiteral, Value: t.Format(DateLayout), Datatype: XSDDate}
}

// IsZero reports whether the term is the wildcard.
func (t Term) IsZero() bool { return t.Kind == KindAny }

func (t Term) IsIRI() bool { return t.Kind == KindIRI }

func (t Term) IsLiteral() bool { return t.Kind == KindLiteral }

// Bool interprets the term as an xsd:boolean lexical form ("true", "false", "1", "0").
func (t Term) Bool() (bool, bool) {
	if t.Kind != KindLiteral {
		return false, false
	}
	switch strings.ToLower(t.Value) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	return false, false
}

// Int interprets the term as an integer.
func (t Term) Int() (int64, error) {
	if t.Kind != KindLiteral {
		return 0, fmt.Errorf("term %s is not a literal", t)
	}
	return strconv.ParseInt(strings.TrimSpace(t.Value), 10, 64)
}

// Time interprets the term as an xsd:date.
func (t Term) Time() (time.Time, error) {
	if t.Kind != KindLiteral {
		return time.Time{}, fmt.Errorf("term %s is not a literal", t)
	}
	return time.Parse(DateLayout, t.Value)
}

// String renders the term in its N-Triples form.
func (t Term) String() string {
	return serialize(t)
}

// Triple is a single fact.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// T is shorthand for building a Triple.
func T(s, p, o Term) Triple {
	return Triple{Subject: s, Predicate: p, Object: o}
}

// Valid reports whether the triple can be stored: subject and predicate must be
// IRIs and the object must be set.
func (t Triple) Valid() bool {
	return t.Subject.IsIRI() && t.Predicate.IsIRI() && !t.Object.IsZero()
}

func (t Triple) String() string {
	return EncodeLine(t)
}

// Pattern selects triples. A zero Term in any position matches everything.
type Pattern struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// Matches reports whether t satisfies the pattern.
func (p Pattern) Matches(t Triple) bool {
	if !p.Subject.IsZero() && p.Subject != t.Subject {
		return false
	}
	if !p.Predicate.IsZero() && p.Predicate != t.Predicate {
		return false
	}
	if !p.Object.IsZero() && p.Object != t.Object {
		return false
	}
	return true
}
