package fact

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/knakk/rdf"
)

// ErrSyntax is returned for input that is not a well-formed triple line.
var ErrSyntax = errors.New("fact: syntax error")

// EncodeLine renders a triple as one N-Triples statement without the trailing newline.
func EncodeLine(t Triple) string {
	return t.Subject.String() + " " + t.Predicate.String() + " " + t.Object.String() + " ."
}

// serialize renders a single term. Wildcards print as '?'.
func serialize(t Term) string {
	if t.IsZero() {
		return "?"
	}
	o, err := toObject(t)
	if err != nil {
		return "<" + t.Value + ">"
	}
	return o.Serialize(rdf.NTriples)
}

func newIRI(s string) (rdf.IRI, error) {
	iri, err := rdf.NewIRI(s)
	if err != nil {
		return rdf.IRI{}, fmt.Errorf("%w: invalid IRI %q: %v", ErrSyntax, s, err)
	}
	return iri, nil
}

func toObject(t Term) (rdf.Object, error) {
	switch t.Kind {
	case KindIRI:
		return newIRI(t.Value)
	case KindLiteral:
		dt := rdf.XSDString
		if t.Datatype != "" {
			iri, err := newIRI(t.Datatype)
			if err != nil {
				return nil, err
			}
			dt = iri
		}
		return rdf.NewTypedLiteral(t.Value, dt), nil
	}
	return nil, fmt.Errorf("%w: wildcard term", ErrSyntax)
}

func toRDF(t Triple) (rdf.Triple, error) {
	if !t.Valid() {
		return rdf.Triple{}, fmt.Errorf("%w: cannot encode %v", ErrSyntax, t)
	}
	s, err := newIRI(t.Subject.Value)
	if err != nil {
		return rdf.Triple{}, err
	}
	p, err := newIRI(t.Predicate.Value)
	if err != nil {
		return rdf.Triple{}, err
	}
	o, err := toObject(t.Object)
	if err != nil {
		return rdf.Triple{}, err
	}
	return rdf.Triple{Subj: s, Pred: p, Obj: o}, nil
}

func fromRDF(t rdf.Triple) (Triple, error) {
	s, ok := t.Subj.(rdf.IRI)
	if !ok {
		return Triple{}, fmt.Errorf("%w: subject must be an IRI", ErrSyntax)
	}
	p, ok := t.Pred.(rdf.IRI)
	if !ok {
		return Triple{}, fmt.Errorf("%w: predicate must be an IRI", ErrSyntax)
	}

	var o Term
	switch v := t.Obj.(type) {
	case rdf.IRI:
		o = IRI(v.String())
	case rdf.Literal:
		if v.Lang() != "" {
			return Triple{}, fmt.Errorf("%w: language-tagged literals are not supported", ErrSyntax)
		}
		o = Term{Kind: KindLiteral, Value: v.String()}
		if dt := v.DataType.String(); dt != "" && dt != rdf.XSDString.String() {
			o.Datatype = dt
		}
	default:
		return Triple{}, fmt.Errorf("%w: blank nodes are not supported", ErrSyntax)
	}
	return T(IRI(s.String()), IRI(p.String()), o), nil
}

// Write encodes triples one per line, sorted, so the same set always produces
// the same bytes.
func Write(w io.Writer, triples []Triple) error {
	type line struct {
		key string
		t   rdf.Triple
	}
	lines := make([]line, 0, len(triples))
	for _, t := range triples {
		rt, err := toRDF(t)
		if err != nil {
			return err
		}
		lines = append(lines, line{key: EncodeLine(t), t: rt})
	}
	slices.SortFunc(lines, func(a, b line) int { return strings.Compare(a.key, b.key) })
	lines = slices.CompactFunc(lines, func(a, b line) bool { return a.key == b.key })

	enc := rdf.NewTripleEncoder(w, rdf.NTriples)
	for _, l := range lines {
		if err := enc.Encode(l.t); err != nil {
			return err
		}
	}
	return enc.Close()
}

// Read decodes every statement in r. Blank lines and '#' comments are skipped.
func Read(r io.Reader) ([]Triple, error) {
	var out []Triple
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		t, err := DecodeLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		out = append(out, t)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeLine parses a single statement produced by EncodeLine.
func DecodeLine(line string) (Triple, error) {
	dec := rdf.NewTripleDecoder(strings.NewReader(line+"\n"), rdf.NTriples)

	rt, err := dec.Decode()
	if errors.Is(err, io.EOF) {
		return Triple{}, fmt.Errorf("%w: empty statement", ErrSyntax)
	}
	if err != nil {
		return Triple{}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if _, err := dec.Decode(); !errors.Is(err, io.EOF) {
		return Triple{}, fmt.Errorf("%w: trailing data after statement", ErrSyntax)
	}
	return fromRDF(rt)
}
