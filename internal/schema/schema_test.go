package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library/internal/fact"
	"library/internal/store"
)

func TestID_TermRoundTrip(t *testing.T) {
	id := NewBookID()
	assert.True(t, strings.HasPrefix(id.String(), "book_"))
	assert.Equal(t, Namespace+id.String(), id.Term().Value)

	back, ok := IDOf(id.Term())
	require.True(t, ok)
	assert.Equal(t, id, back)

	foreign := fact.IRI("http://other.example/thing")
	fid, ok := IDOf(foreign)
	require.True(t, ok)
	assert.Equal(t, foreign, fid.Term())

	_, ok = IDOf(fact.String("book_1"))
	assert.False(t, ok)
}

func TestNewIDs_AreUnique(t *testing.T) {
	seen := make(map[ID]bool)
	for i := 0; i < 100; i++ {
		id := NewTransactionID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestCategoryID(t *testing.T) {
	assert.Equal(t, ID("category_scifi"), CategoryID("SciFi"))
	assert.Equal(t, ID("category_science%20fiction"), CategoryID(" Science Fiction "))
	assert.True(t, fact.T(CategoryID("a b").Term(), Title.Term(), fact.String("x")).Valid())
}

func TestMemberSubject(t *testing.T) {
	assert.Equal(t, ID("member_M001"), MemberSubject("M001"))
}

func TestAccessors(t *testing.T) {
	g := store.NewGraph()
	id := ID("book_1")
	Declare(g, id, Book)
	Set(g, id, Title, fact.String("Dune"))
	Set(g, id, Year, fact.Integer(1965))
	Set(g, id, IsAvailable, fact.Boolean(true))
	Set(g, id, HasCategory, CategoryID("scifi").Term())

	assert.True(t, IsA(g, id, Book))
	assert.False(t, IsA(g, id, Member))
	assert.Equal(t, []ID{id}, InstancesOf(g, Book))

	title, ok := Literal(g, id, Title)
	assert.True(t, ok)
	assert.Equal(t, "Dune", title)
	assert.Equal(t, "Unknown", LiteralOr(g, id, Author, "Unknown"))

	year, ok := Int(g, id, Year)
	assert.True(t, ok)
	assert.EqualValues(t, 1965, year)

	avail, ok := Bool(g, id, IsAvailable)
	assert.True(t, ok)
	assert.True(t, avail)

	cat, ok := Link(g, id, HasCategory)
	assert.True(t, ok)
	assert.Equal(t, ID("category_scifi"), cat)

	// Links are not literals
	_, ok = Literal(g, id, HasCategory)
	assert.False(t, ok)
}

func TestReplace_KeepsSingleValue(t *testing.T) {
	g := store.NewGraph()
	id := ID("book_1")
	Set(g, id, IsAvailable, fact.Boolean(true))

	Replace(g, id, IsAvailable, fact.Boolean(false))

	objs := g.Objects(id.Term(), IsAvailable.Term())
	require.Len(t, objs, 1)
	assert.Equal(t, fact.Boolean(false), objs[0])
}

func validBook(g *store.Graph, id ID) {
	Declare(g, id, Book)
	Set(g, id, Title, fact.String("Dune"))
	Set(g, id, ISBN, fact.String("0441013597"))
	Set(g, id, Author, fact.String("Herbert"))
	Set(g, id, Year, fact.Integer(1965))
	Set(g, id, IsAvailable, fact.Boolean(true))
}

func TestValidate_CleanGraph(t *testing.T) {
	g := store.NewGraph()
	validBook(g, "book_1")
	Declare(g, "admin_alice", Admin)
	Set(g, "admin_alice", Username, fact.String("alice"))
	Set(g, "admin_alice", Password, fact.String("pw1"))

	assert.Empty(t, Validate(g))
}

func TestValidate_ReportsProblems(t *testing.T) {
	g := store.NewGraph()
	validBook(g, "book_1")
	Set(g, "book_1", IsAvailable, fact.Boolean(false)) // second value

	Declare(g, "book_2", Book)
	Set(g, "book_2", Year, fact.String("nineteen"))

	Declare(g, "admin_bob", Admin)
	Set(g, "admin_bob", Username, fact.String("bob"))
	Set(g, "admin_bob", Password, fact.String("x"))
	Declare(g, "member_1", Member)
	Set(g, "member_1", Username, fact.String("bob"))
	Set(g, "member_1", Password, fact.String("y"))
	Set(g, "member_1", MemberID, fact.String("1"))

	Declare(g, "transaction_1", Transaction)
	Set(g, "transaction_1", InvolvesBook, ID("book_404").Term())

	var problems []string
	for _, issue := range Validate(g) {
		problems = append(problems, issue.String())
	}
	joined := strings.Join(problems, "\n")

	assert.Contains(t, joined, "Book book_1: isAvailable has 2 values")
	assert.Contains(t, joined, "Book book_2: missing title")
	assert.Contains(t, joined, `Book book_2: year "nineteen" is not an integer`)
	assert.Contains(t, joined, "Transaction transaction_1: missing borrowDate")
	assert.Contains(t, joined, "Transaction transaction_1: involvesBook book_404 is not a Book")
	assert.Contains(t, joined, `username "bob" already used by admin_bob`)
}

func TestDescribe_IsSorted(t *testing.T) {
	g := store.NewGraph()
	validBook(g, "book_1")

	facts := Describe(g, "book_1")
	require.Len(t, facts, 6)
	for i := 1; i < len(facts); i++ {
		assert.LessOrEqual(t, facts[i-1].String(), facts[i].String())
	}
}
