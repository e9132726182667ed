package fact

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ns = "http://www.library-system.org/ontology#"

func TestWriteRead_RoundTrip(t *testing.T) {
	book := IRI(ns + "book_1")
	triples := []Triple{
		T(book, IRI(ns+"title"), String("Dune")),
		T(book, IRI(ns+"year"), Integer(1965)),
		T(book, IRI(ns+"isAvailable"), Boolean(true)),
		T(book, IRI(ns+"hasCategory"), IRI(ns+"category_scifi")),
		T(IRI(ns+"transaction_1"), IRI(ns+"borrowDate"), Date(time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC))),
		T(book, IRI(ns+"author"), String("Frank \"Frank\" Herbert\nline two\ttab \\ slash")),
		T(book, IRI(ns+"note"), String("déjà vu ✓")),
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, triples))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.ElementsMatch(t, triples, got)
}

func TestWrite_IsDeterministic(t *testing.T) {
	a := T(IRI(ns+"a"), IRI(ns+"p"), String("1"))
	b := T(IRI(ns+"b"), IRI(ns+"p"), String("2"))

	var first, second bytes.Buffer
	require.NoError(t, Write(&first, []Triple{a, b}))
	require.NoError(t, Write(&second, []Triple{b, a, b}))

	assert.Equal(t, first.String(), second.String())
	assert.Equal(t, 2, strings.Count(first.String(), "\n"))
}

func TestWrite_RejectsPatternTerms(t *testing.T) {
	err := Write(&bytes.Buffer{}, []Triple{{Subject: IRI(ns + "a"), Predicate: IRI(ns + "p")}})
	assert.True(t, errors.Is(err, ErrSyntax))
}

func TestRead_SkipsCommentsAndBlankLines(t *testing.T) {
	src := "# library facts\n\n<" + ns + "a> <" + ns + "p> \"x\" .\n   \n"
	got, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, String("x"), got[0].Object)
}

func TestDecodeLine_Errors(t *testing.T) {
	cases := map[string]string{
		"missing dot":      `<a> <b> "c"`,
		"literal subject":  `"a" <b> "c" .`,
		"unterminated iri": `<a <b> "c" .`,
		"unterminated lit": `<a> <b> "c .`,
		"blank subject":    `_:b1 <b> "c" .`,
		"language tag":     `<a> <b> "c"@en .`,
		"trailing":         `<a> <b> "c" . extra`,
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeLine(line)
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}
}

func TestDecodeLine_UnicodeEscape(t *testing.T) {
	got, err := DecodeLine("<" + ns + "a> <" + ns + "b> \"caf\\u00e9\" .")
	require.NoError(t, err)
	assert.Equal(t, "café", got.Object.Value)
}

func TestRead_ReportsLineNumber(t *testing.T) {
	src := "<" + ns + "a> <" + ns + "b> \"ok\" .\n<" + ns + "a> <" + ns + "b> broken .\n"
	_, err := Read(strings.NewReader(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestWriteRead_InvalidUTF8(t *testing.T) {
	original := T(IRI(ns+"book_1"), IRI(ns+"title"), String("Caf\xe9"))
	assert.Equal(t, "Caf\uFFFD", original.Object.Value)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []Triple{original}))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, []Triple{original}, got)
}

func TestTerm_String(t *testing.T) {
	assert.Equal(t, "<"+ns+"a>", IRI(ns+"a").String())
	assert.True(t, strings.HasPrefix(String("Dune").String(), `"Dune"`))
	assert.Contains(t, Integer(1965).String(), XSDInteger)
	assert.Equal(t, "?", Term{}.String())
}

func TestPattern_Matches(t *testing.T) {
	tr := T(IRI("s"), IRI("p"), Boolean(false))

	assert.True(t, Pattern{}.Matches(tr))
	assert.True(t, Pattern{Subject: IRI("s")}.Matches(tr))
	assert.True(t, Pattern{Predicate: IRI("p"), Object: Boolean(false)}.Matches(tr))
	assert.False(t, Pattern{Object: Boolean(true)}.Matches(tr))
	assert.False(t, Pattern{Subject: IRI("x")}.Matches(tr))
}

func TestTerm_TypedAccessors(t *testing.T) {
	b, ok := Boolean(true).Bool()
	assert.True(t, ok)
	assert.True(t, b)

	_, ok = String("maybe").Bool()
	assert.False(t, ok)

	n, err := Integer(1965).Int()
	require.NoError(t, err)
	assert.EqualValues(t, 1965, n)

	day, err := Date(time.Date(2025, 1, 31, 23, 0, 0, 0, time.UTC)).Time()
	require.NoError(t, err)
	assert.Equal(t, "2025-01-31", day.Format(DateLayout))
}
